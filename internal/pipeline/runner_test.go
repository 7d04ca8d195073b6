package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
)

// testLogger implements Logger for testing
type testLogger struct {
	mu       sync.Mutex
	messages []string
}

func (l *testLogger) Debug(msg string, keysAndValues ...any) { l.append("DEBUG", msg, keysAndValues) }
func (l *testLogger) Info(msg string, keysAndValues ...any)  { l.append("INFO", msg, keysAndValues) }
func (l *testLogger) Error(msg string, keysAndValues ...any) { l.append("ERROR", msg, keysAndValues) }

func (l *testLogger) append(level, msg string, kv []any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = append(l.messages, fmt.Sprintf("%s: %s %v", level, msg, kv))
}

func (l *testLogger) contains(substr string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, m := range l.messages {
		if strings.Contains(m, substr) {
			return true
		}
	}
	return false
}

func newTestRunner(t *testing.T) (*Runner, *testLogger) {
	logger := &testLogger{}
	r, err := New(logger)
	if err != nil {
		t.Fatalf("failed to create runner: %v", err)
	}
	return r, logger
}

func TestRunner_StagesInOrder(t *testing.T) {
	r, _ := newTestRunner(t)

	var order []string
	for _, name := range []string{"parse", "tree", "dynamics"} {
		name := name
		r.Stage(name, func(ctx context.Context) error {
			order = append(order, name)
			return nil
		})
	}

	timings, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(timings) != 3 {
		t.Fatalf("expected 3 timings, got %d", len(timings))
	}
	for i, name := range []string{"parse", "tree", "dynamics"} {
		if order[i] != name {
			t.Errorf("stage %d ran as %q, want %q", i, order[i], name)
		}
		if timings[i].Stage != name {
			t.Errorf("timing %d is %q, want %q", i, timings[i].Stage, name)
		}
	}
}

func TestRunner_StageErrorAborts(t *testing.T) {
	r, logger := newTestRunner(t)

	ran := false
	r.Stage("bad", func(ctx context.Context) error {
		return errors.New("boom")
	})
	r.Stage("after", func(ctx context.Context) error {
		ran = true
		return nil
	})

	timings, err := r.Run(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), `stage "bad"`) {
		t.Errorf("error should name the stage, got %v", err)
	}
	if ran {
		t.Error("stage after a failure must not run")
	}
	if len(timings) != 1 {
		t.Errorf("expected 1 timing, got %d", len(timings))
	}
	if !logger.contains("stage failed") {
		t.Error("failure should be logged")
	}
}

func TestRunner_ErrorUnwraps(t *testing.T) {
	r, _ := newTestRunner(t)

	sentinel := errors.New("sentinel")
	r.Stage("s", func(ctx context.Context) error { return sentinel })

	_, err := r.Run(context.Background())
	if !errors.Is(err, sentinel) {
		t.Errorf("wrapped stage error should unwrap to the sentinel, got %v", err)
	}
}

func TestRunner_ContextCancel(t *testing.T) {
	r, _ := newTestRunner(t)

	ctx, cancel := context.WithCancel(context.Background())
	r.Stage("first", func(ctx context.Context) error {
		cancel()
		return nil
	})
	ran := false
	r.Stage("second", func(ctx context.Context) error {
		ran = true
		return nil
	})

	_, err := r.Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if ran {
		t.Error("stage after cancellation must not run")
	}
}

func TestRunner_EmptyRun(t *testing.T) {
	r, _ := newTestRunner(t)

	timings, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(timings) != 0 {
		t.Errorf("expected no timings, got %d", len(timings))
	}
}
