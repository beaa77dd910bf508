package config

import (
	"os"
	"strings"

	"sakilahypo/internal/errors"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// Config represents the complete application configuration
type Config struct {
	Database DatabaseConfig `koanf:"database"`
	Server   ServerConfig   `koanf:"server" validate:"required"`
	Data     DataConfig     `koanf:"data"`
	Stats    StatsConfig    `koanf:"stats" validate:"required"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// DatabaseConfig holds database connection settings. An empty URL disables
// Sakila extraction and run persistence.
type DatabaseConfig struct {
	URL string `koanf:"url"`
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port string `koanf:"port" validate:"required,numeric"`
}

// DataConfig holds file system paths
type DataConfig struct {
	DatasetPath string `koanf:"dataset_path"`
	OutputPath  string `koanf:"output_path"`
	UploadPath  string `koanf:"upload_path"`
}

// StatsConfig holds the hypothesis-testing thresholds
type StatsConfig struct {
	Alpha               float64 `koanf:"alpha" validate:"gt=0,lt=1"`
	MinObservations     int     `koanf:"min_observations" validate:"gte=3"`
	TwoGroupSampleCap   int     `koanf:"two_group_sample_cap" validate:"gtefield=MinObservations"`
	MultiGroupSampleCap int     `koanf:"multi_group_sample_cap" validate:"gtefield=MinObservations"`
	Seed                uint64  `koanf:"seed"`
}

// LoggingConfig holds log output settings
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"omitempty,oneof=trace debug info warn error disabled"`
	Format string `koanf:"format" validate:"omitempty,oneof=json console"`
}

// ConfigPathEnvVar overrides the config file location
const ConfigPathEnvVar = "CONFIG_PATH"

// DefaultConfigPaths are searched in order when CONFIG_PATH is unset
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
}

// envMappings maps environment variables onto koanf keys
var envMappings = map[string]string{
	"database_url":           "database.url",
	"port":                   "server.port",
	"dataset_path":           "data.dataset_path",
	"output_path":            "data.output_path",
	"upload_path":            "data.upload_path",
	"alpha":                  "stats.alpha",
	"min_observations":       "stats.min_observations",
	"two_group_sample_cap":   "stats.two_group_sample_cap",
	"multi_group_sample_cap": "stats.multi_group_sample_cap",
	"sample_seed":            "stats.seed",
	"log_level":              "logging.level",
	"log_format":             "logging.format",
}

// Default returns the configuration used when nothing overrides it
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: "8080",
		},
		Data: DataConfig{
			DatasetPath: "data/optimized_sakila_pg.csv",
			OutputPath:  "data/sakila_to_csv_pg.csv",
			UploadPath:  "uploads/datasets",
		},
		Stats: StatsConfig{
			Alpha:               0.05,
			MinObservations:     3,
			TwoGroupSampleCap:   5000,
			MultiGroupSampleCap: 500,
			Seed:                42,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load reads defaults, an optional YAML file and the environment, then validates
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, errors.Wrap(err, "failed to load configuration defaults")
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, errors.Wrapf(err, "failed to load config file %s", path)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransform), nil); err != nil {
		return nil, errors.Wrap(err, "failed to load environment variables")
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, errors.WithCode(errors.CodeConfigInvalid, errors.Wrap(err, "failed to decode configuration"))
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks struct constraints
func (c *Config) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.Struct(c); err != nil {
		return &errors.AppError{
			Code:    errors.CodeConfigInvalid,
			Message: "configuration validation failed",
			Cause:   err,
		}
	}
	return nil
}

// HasDatabase reports whether a database is configured
func (c *Config) HasDatabase() bool {
	return strings.TrimSpace(c.Database.URL) != ""
}

func findConfigFile() string {
	if path := os.Getenv(ConfigPathEnvVar); path != "" {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// envTransform returns "" for variables that are not ours, which koanf skips
func envTransform(key string) string {
	return envMappings[strings.ToLower(key)]
}
