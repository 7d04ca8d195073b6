package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

// stdout is swapped out by tests.
var stdout io.Writer = os.Stdout

// SlogManager manages slog-based logging with optional OTel integration.
type SlogManager struct {
	logger *slog.Logger

	// OTel provider for flushing
	logProvider *sdklog.LoggerProvider

	// subject is stamped onto every record once set, so logs from the
	// storage and export layers carry the model they belong to.
	mu      sync.Mutex
	subject string
}

// NewSlogManager creates a new slog-based logging manager.
func NewSlogManager() *SlogManager {
	return &SlogManager{}
}

// parseLevel converts a string log level to slog.Level.
func parseLevel(level string) slog.Level {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Setup initializes the logging system: console always, file when a
// writer is supplied, OTel bridge when a provider is supplied.
func (m *SlogManager) Setup(file io.Writer, level string, provider *sdklog.LoggerProvider) {
	lvl := parseLevel(level)
	m.logProvider = provider

	// RFC3339 timestamps on every handler
	handlerOpts := &slog.HandlerOptions{
		Level: lvl,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				if t, ok := a.Value.Any().(time.Time); ok {
					a.Value = slog.StringValue(t.UTC().Format(time.RFC3339))
				}
			}
			return a
		},
	}

	var handlers []slog.Handler
	handlers = append(handlers, slog.NewTextHandler(stdout, handlerOpts))

	if file != nil {
		handlers = append(handlers, slog.NewTextHandler(file, handlerOpts))
	}

	if provider != nil {
		handlers = append(handlers, otelslog.NewHandler("urdfc", otelslog.WithLoggerProvider(provider)))
	}

	m.logger = slog.New(NewContextHandler(NewMultiHandler(handlers...), m.subjectAttrs))
	m.logger.Debug("logging initialized", "level", level)
}

// SetSubject names the model the session is working on. Pass the empty
// string to clear it.
func (m *SlogManager) SetSubject(name string) {
	m.mu.Lock()
	m.subject = name
	m.mu.Unlock()
}

func (m *SlogManager) subjectAttrs() []slog.Attr {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.subject == "" {
		return nil
	}
	return []slog.Attr{slog.String("model", m.subject)}
}

// Logger returns the configured slog.Logger, or slog.Default before
// Setup is called.
func (m *SlogManager) Logger() *slog.Logger {
	if m.logger == nil {
		return slog.Default()
	}
	return m.logger
}

// Component returns a child logger tagged with a component name, used
// by the per-stage loggers of a compile pass.
func (m *SlogManager) Component(name string) *slog.Logger {
	return m.Logger().With("component", name)
}

// Flush forces a flush of OTel logs if available.
func (m *SlogManager) Flush(ctx context.Context) error {
	if m.logProvider != nil {
		return m.logProvider.ForceFlush(ctx)
	}
	return nil
}
