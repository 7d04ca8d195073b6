// Package config loads compiler settings from a JSON file with sane
// defaults, so `urdfc` runs without any config file present.
package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config is the validated view of the loaded settings.
type Config struct {
	LogLevel string `json:"logLevel" mapstructure:"logLevel" validate:"oneof=debug info warn error"`
	LogsDir  string `json:"logsDir" mapstructure:"logsDir" validate:"required"`

	Compile CompileConfig `json:"compile" mapstructure:"compile"`
	Storage StorageConfig `json:"storage" mapstructure:"storage"`
	API     APIConfig     `json:"api" mapstructure:"api"`
	Influx  InfluxConfig  `json:"influx" mapstructure:"influx"`
	Otel    OtelConfig    `json:"otel" mapstructure:"otel"`
}

// CompileConfig tunes the numeric side of a compile pass.
type CompileConfig struct {
	Gravity     []float64 `json:"gravity" mapstructure:"gravity" validate:"len=3"`
	FDStep      float64   `json:"fdStep" mapstructure:"fdStep" validate:"gt=0"`
	Restitution float64   `json:"restitution" mapstructure:"restitution" validate:"gte=0,lte=1"`
	Parallel    bool      `json:"parallel" mapstructure:"parallel"`
}

// StorageConfig selects and configures the model catalog backend.
type StorageConfig struct {
	Type   string       `json:"type" mapstructure:"type" validate:"oneof=memory sqlite postgres"`
	Memory MemoryConfig `json:"memory" mapstructure:"memory"`
	Sqlite SqliteConfig `json:"sqlite" mapstructure:"sqlite"`
	DB     DBConfig     `json:"db" mapstructure:"db"`
}

// MemoryConfig holds in-memory/JSON export backend settings.
type MemoryConfig struct {
	OutputDir      string `json:"outputDir" mapstructure:"outputDir"`
	CompressOutput bool   `json:"compressOutput" mapstructure:"compressOutput"`
}

// SqliteConfig holds the SQLite catalog settings. When InMemory is set
// the catalog lives in memory and is dumped to Path on close.
type SqliteConfig struct {
	Path     string `json:"path" mapstructure:"path"`
	InMemory bool   `json:"inMemory" mapstructure:"inMemory"`
}

// DBConfig holds Postgres connection settings.
type DBConfig struct {
	Host     string `json:"host" mapstructure:"host"`
	Port     string `json:"port" mapstructure:"port"`
	Username string `json:"username" mapstructure:"username"`
	Password string `json:"password" mapstructure:"password"`
	Database string `json:"database" mapstructure:"database"`
}

// APIConfig points at an optional model registry.
type APIConfig struct {
	Enabled   bool   `json:"enabled" mapstructure:"enabled"`
	ServerURL string `json:"serverUrl" mapstructure:"serverUrl"`
	APIKey    string `json:"apiKey" mapstructure:"apiKey"`
}

// InfluxConfig configures optional stage-timing export.
type InfluxConfig struct {
	Enabled  bool   `json:"enabled" mapstructure:"enabled"`
	Protocol string `json:"protocol" mapstructure:"protocol" validate:"oneof=http https"`
	Host     string `json:"host" mapstructure:"host"`
	Port     string `json:"port" mapstructure:"port"`
	Token    string `json:"token" mapstructure:"token"`
	Org      string `json:"org" mapstructure:"org"`
}

// OtelConfig configures the optional OTel log bridge.
type OtelConfig struct {
	Enabled  bool   `json:"enabled" mapstructure:"enabled"`
	Endpoint string `json:"endpoint" mapstructure:"endpoint"`
	Insecure bool   `json:"insecure" mapstructure:"insecure"`
}

var validate = validator.New()

// Load reads urdfc.cfg.json from configDir and applies defaults. A
// missing file is not an error; every key has a default.
func Load(configDir string) (*Config, error) {
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("logsDir", "./urdfc-logs")

	viper.SetDefault("compile.gravity", []float64{0, 0, -9.81})
	viper.SetDefault("compile.fdStep", 1e-6)
	viper.SetDefault("compile.restitution", 0.0)
	viper.SetDefault("compile.parallel", true)

	viper.SetDefault("storage.type", "sqlite")
	viper.SetDefault("storage.memory.outputDir", "./models")
	viper.SetDefault("storage.memory.compressOutput", true)
	viper.SetDefault("storage.sqlite.path", "./urdfc.db")
	viper.SetDefault("storage.sqlite.inMemory", false)

	viper.SetDefault("storage.db.host", "localhost")
	viper.SetDefault("storage.db.port", "5432")
	viper.SetDefault("storage.db.username", "postgres")
	viper.SetDefault("storage.db.password", "postgres")
	viper.SetDefault("storage.db.database", "urdfc")

	viper.SetDefault("api.enabled", false)
	viper.SetDefault("api.serverUrl", "http://localhost:5000")
	viper.SetDefault("api.apiKey", "")

	viper.SetDefault("influx.enabled", false)
	viper.SetDefault("influx.protocol", "http")
	viper.SetDefault("influx.host", "localhost")
	viper.SetDefault("influx.port", "8086")
	viper.SetDefault("influx.token", "")
	viper.SetDefault("influx.org", "urdfc-metrics")

	viper.SetDefault("otel.enabled", false)
	viper.SetDefault("otel.endpoint", "")
	viper.SetDefault("otel.insecure", false)

	viper.SetConfigName("urdfc.cfg.json")
	viper.SetConfigType("json")
	viper.AddConfigPath(configDir)

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// GetString returns a string config value.
func GetString(key string) string {
	return viper.GetString(key)
}

// GetBool returns a bool config value.
func GetBool(key string) bool {
	return viper.GetBool(key)
}
