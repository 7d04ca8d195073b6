package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	sdklog "go.opentelemetry.io/otel/sdk/log"

	"github.com/pwatools/urdfc/internal/compiler"
	"github.com/pwatools/urdfc/internal/config"
	"github.com/pwatools/urdfc/internal/logging"
	intOtel "github.com/pwatools/urdfc/internal/otel"
)

// BuildDate can be set at build time via ldflags.
var (
	BuildDate string = "unknown"
	ToolName  string = "urdfc"
)

// process-wide state, initialized by setup()
var (
	Cfg          *config.Config
	SlogManager  *logging.SlogManager
	Logger       *slog.Logger
	OTelProvider *intOtel.Provider

	LogFile     *os.File
	LogFilePath string

	SessionStartTime = time.Now()
)

func main() {
	os.Exit(run(os.Args[1:]))
}

// setup loads config and wires logging. Called once per invocation,
// after flags are parsed.
func setup(configDir string) error {
	var err error

	Cfg, err = config.Load(configDir)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if _, err := os.Stat(Cfg.LogsDir); os.IsNotExist(err) {
		if err := os.MkdirAll(Cfg.LogsDir, 0755); err != nil {
			return fmt.Errorf("failed to create logs dir: %w", err)
		}
	}

	LogFilePath = logging.LogFilePath(Cfg.LogsDir, ToolName, SessionStartTime)
	LogFile, err = os.OpenFile(LogFilePath, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		return fmt.Errorf("failed to open log file %s: %w", LogFilePath, err)
	}

	if Cfg.Otel.Enabled {
		OTelProvider, err = intOtel.New(intOtel.Config{
			Enabled:        true,
			ServiceName:    ToolName,
			ServiceVersion: compiler.Version,
			LogWriter:      LogFile,
			Endpoint:       Cfg.Otel.Endpoint,
			Insecure:       Cfg.Otel.Insecure,
		})
		if err != nil {
			return fmt.Errorf("failed to initialize OTel provider: %w", err)
		}
	}

	var otelLogProvider *sdklog.LoggerProvider
	if OTelProvider != nil {
		otelLogProvider = OTelProvider.LoggerProvider()
	}

	SlogManager = logging.NewSlogManager()
	SlogManager.Setup(LogFile, Cfg.LogLevel, otelLogProvider)
	Logger = SlogManager.Logger()
	Logger.Debug("logging to file", "path", LogFilePath, "version", compiler.Version, "buildDate", BuildDate)

	return nil
}

// teardown flushes logs and closes the log file.
func teardown() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if SlogManager != nil {
		_ = SlogManager.Flush(ctx)
	}
	if OTelProvider != nil {
		_ = OTelProvider.Shutdown(ctx)
	}
	if LogFile != nil {
		_ = LogFile.Close()
	}
}

// dbLogger builds the zerolog logger used by the database and metrics
// layers, writing to the same log file as slog.
func dbLogger() zerolog.Logger {
	if LogFile == nil {
		return zerolog.New(os.Stderr).With().Timestamp().Logger()
	}
	return zerolog.New(LogFile).With().Timestamp().Logger()
}

// influxBackupPath is where metric points spool when InfluxDB is down.
func influxBackupPath() string {
	return filepath.Join(Cfg.LogsDir, fmt.Sprintf("%s_metrics_%s.gz", ToolName, SessionStartTime.Format("20060102_150405")))
}
