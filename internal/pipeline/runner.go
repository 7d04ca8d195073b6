// Package pipeline runs named stages in order with per-stage timing,
// logging, and metrics. The compiler registers its six stages on a
// Runner and gets back a timing report it can export.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// StageFunc performs one stage of a run.
type StageFunc func(ctx context.Context) error

// Logger interface for pluggable logging.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// Timing records how long one stage took.
type Timing struct {
	Stage    string
	Duration time.Duration
}

type stage struct {
	name string
	fn   StageFunc
}

// Runner executes registered stages sequentially. A stage error aborts
// the run; later stages do not execute.
type Runner struct {
	logger Logger
	stages []stage

	// OTEL metrics
	runs     metric.Int64Counter
	duration metric.Float64Histogram
}

// New creates a Runner with the given logger. Uses the global OTel
// meter for metrics (no-op if not configured).
func New(logger Logger) (*Runner, error) {
	r := &Runner{logger: logger}

	m := meter()

	var err error
	r.runs, err = m.Int64Counter(
		"pipeline.runs",
		metric.WithDescription("Total pipeline runs by outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating runs counter: %w", err)
	}

	r.duration, err = m.Float64Histogram(
		"pipeline.stage.duration",
		metric.WithDescription("Stage execution time in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating duration histogram: %w", err)
	}

	return r, nil
}

// Stage registers a named stage. Stages run in registration order.
func (r *Runner) Stage(name string, fn StageFunc) {
	r.stages = append(r.stages, stage{name: name, fn: fn})
}

// Run executes all stages and returns per-stage timings. On failure the
// timings of completed stages (including the failed one) are returned
// alongside the error.
func (r *Runner) Run(ctx context.Context) ([]Timing, error) {
	timings := make([]Timing, 0, len(r.stages))
	start := time.Now()

	for _, s := range r.stages {
		if err := ctx.Err(); err != nil {
			r.recordRun("canceled")
			return timings, err
		}

		r.logger.Debug("stage start", "stage", s.name)
		stageStart := time.Now()

		err := s.fn(ctx)

		elapsed := time.Since(stageStart)
		timings = append(timings, Timing{Stage: s.name, Duration: elapsed})
		r.duration.Record(ctx, elapsed.Seconds(),
			metric.WithAttributes(attribute.String("stage", s.name)))

		if err != nil {
			r.logger.Error("stage failed", "stage", s.name, "duration", elapsed, "error", err)
			r.recordRun("error")
			return timings, fmt.Errorf("stage %q: %w", s.name, err)
		}
		r.logger.Debug("stage complete", "stage", s.name, "duration", elapsed)
	}

	r.logger.Info("pipeline complete", "stages", len(r.stages), "duration", time.Since(start))
	r.recordRun("ok")
	return timings, nil
}

func (r *Runner) recordRun(outcome string) {
	r.runs.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String("outcome", outcome)))
}
