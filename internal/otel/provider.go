// Package otel wires the OpenTelemetry log SDK behind the slog bridge.
// The compiler emits logs, not traces; metrics stay on the no-op meter
// so the pipeline's instruments cost nothing unless a collector is ever
// attached.
package otel

import (
	"context"
	"fmt"
	"io"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutlog"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// DefaultBatchTimeout bounds how long batched records may sit unexported.
// A compile pass lives for seconds, so the window is kept short; anything
// still pending is pushed out by the final Flush.
const DefaultBatchTimeout = 2 * time.Second

// Config selects the log sinks. At least one of LogWriter or Endpoint
// must be set when Enabled.
type Config struct {
	Enabled        bool
	ServiceName    string
	ServiceVersion string
	BatchTimeout   time.Duration // zero means DefaultBatchTimeout
	LogWriter      io.Writer     // local file sink
	Endpoint       string        // OTLP/HTTP collector, optional
	Insecure       bool
}

// Provider owns the log provider for the slog bridge. A disabled
// Provider is valid and inert, so callers never branch on the config.
type Provider struct {
	logProvider *sdklog.LoggerProvider
	config      Config
}

// New builds the provider. When disabled it returns an inert provider;
// when enabled with no configured sink it errors rather than silently
// dropping every record.
func New(cfg Config) (*Provider, error) {
	p := &Provider{config: cfg}
	if !cfg.Enabled {
		return p, nil
	}
	if cfg.BatchTimeout <= 0 {
		cfg.BatchTimeout = DefaultBatchTimeout
	}

	ctx := context.Background()

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.ServiceVersion),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	processors, err := buildProcessors(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if len(processors) == 0 {
		return nil, fmt.Errorf("OTel enabled but no log writer or endpoint configured")
	}

	opts := []sdklog.LoggerProviderOption{sdklog.WithResource(res)}
	for _, proc := range processors {
		opts = append(opts, sdklog.WithProcessor(proc))
	}
	p.logProvider = sdklog.NewLoggerProvider(opts...)

	return p, nil
}

// buildProcessors assembles one batch processor per configured sink:
// the local log file first, then the OTLP collector when an endpoint
// is set.
func buildProcessors(ctx context.Context, cfg Config) ([]sdklog.Processor, error) {
	var processors []sdklog.Processor

	if cfg.LogWriter != nil {
		fileExporter, err := stdoutlog.New(
			stdoutlog.WithWriter(cfg.LogWriter),
			stdoutlog.WithPrettyPrint(),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create file log exporter: %w", err)
		}
		processors = append(processors, sdklog.NewBatchProcessor(fileExporter,
			sdklog.WithExportTimeout(cfg.BatchTimeout),
		))
	}

	if cfg.Endpoint != "" {
		otlpOpts := []otlploghttp.Option{
			otlploghttp.WithEndpoint(cfg.Endpoint),
		}
		if cfg.Insecure {
			otlpOpts = append(otlpOpts, otlploghttp.WithInsecure())
		}

		otlpExporter, err := otlploghttp.New(ctx, otlpOpts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create OTLP log exporter: %w", err)
		}
		processors = append(processors, sdklog.NewBatchProcessor(otlpExporter,
			sdklog.WithExportTimeout(cfg.BatchTimeout),
		))
	}

	return processors, nil
}

// LoggerProvider returns the log provider for the otelslog bridge, nil
// when disabled.
func (p *Provider) LoggerProvider() *sdklog.LoggerProvider {
	return p.logProvider
}

// Meter returns a no-op meter. The pipeline records its counters and
// histograms against it without a collector in the loop.
func (p *Provider) Meter(name string) metric.Meter {
	return noop.Meter{}
}

// Flush pushes pending records to the sinks. Called after each compile
// pass so the run's records hit disk before the process exits.
func (p *Provider) Flush(ctx context.Context) error {
	if p.logProvider == nil {
		return nil
	}
	if err := p.logProvider.ForceFlush(ctx); err != nil {
		return fmt.Errorf("log flush failed: %w", err)
	}
	return nil
}

// Shutdown stops the log provider on tool exit.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p.logProvider == nil {
		return nil
	}
	if err := p.logProvider.Shutdown(ctx); err != nil {
		return fmt.Errorf("log shutdown failed: %w", err)
	}
	return nil
}

// Enabled reports whether a log provider was configured.
func (p *Provider) Enabled() bool {
	return p.config.Enabled
}

// ensure otel import is used
var _ = otel.Version
