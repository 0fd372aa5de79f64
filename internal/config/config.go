package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"claimsift/internal/errors"
)

// Fit modes for the feature encoder
const (
	FitModeWhole = "whole"
	FitModeTrain = "train"
)

// Fault matching modes for the Fault_PolicyHolder flag
const (
	FaultMatchTrimmed = "trimmed"
	FaultMatchLegacy  = "legacy"
)

// Config represents the complete application configuration
type Config struct {
	Data     DataConfig
	Pipeline PipelineConfig
	Database DatabaseConfig
	Server   ServerConfig
	LogLevel string
}

// DataConfig holds the claim source settings. File may be a local CSV/XLSX
// path or an http(s) URL served as a paged JSON feed.
type DataConfig struct {
	File string
	Feed FeedConfig
}

// FeedConfig holds the settings of a remote JSON claim feed
type FeedConfig struct {
	DataPath string
	PageSize int
	MaxPages int
	Token    string
	Timeout  time.Duration
}

// PipelineConfig holds encoding, split and model-selection settings
type PipelineConfig struct {
	TestRatio       float64
	SplitSeed       int64
	Folds           int
	FitMode         string
	FaultMatch      string
	ForestSeed      int64
	GridParallelism int
	GridFile        string
}

// DatabaseConfig holds database connection settings; an empty URL disables persistence
type DatabaseConfig struct {
	URL string
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port string
}

// Default returns the configuration used when no environment is set
func Default() *Config {
	return &Config{
		Data: DataConfig{
			File: "dataset/dataset.csv",
			Feed: FeedConfig{DataPath: "claims", PageSize: 500, MaxPages: 100, Timeout: 30 * time.Second},
		},
		Pipeline: PipelineConfig{
			TestRatio:       0.2,
			SplitSeed:       42,
			Folds:           3,
			FitMode:         FitModeWhole,
			FaultMatch:      FaultMatchTrimmed,
			ForestSeed:      42,
			GridParallelism: 1,
		},
		Server:   ServerConfig{Port: "8080"},
		LogLevel: "INFO",
	}
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	def := Default()

	config := &Config{
		Data: DataConfig{
			File: getEnvOrDefault("DATA_FILE", def.Data.File),
			Feed: FeedConfig{
				DataPath: getEnvOrDefault("FEED_DATA_PATH", def.Data.Feed.DataPath),
				PageSize: getEnvIntOrDefault("FEED_PAGE_SIZE", def.Data.Feed.PageSize),
				MaxPages: getEnvIntOrDefault("FEED_MAX_PAGES", def.Data.Feed.MaxPages),
				Token:    os.Getenv("FEED_TOKEN"),
				Timeout:  getEnvDurationOrDefault("FEED_TIMEOUT", def.Data.Feed.Timeout),
			},
		},
		Pipeline: loadPipelineConfig(def.Pipeline),
		Database: DatabaseConfig{
			URL: os.Getenv("DATABASE_URL"),
		},
		Server: ServerConfig{
			Port: getEnvOrDefault("PORT", def.Server.Port),
		},
		LogLevel: getEnvOrDefault("LOG_LEVEL", def.LogLevel),
	}

	if err := Validate(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

func loadPipelineConfig(def PipelineConfig) PipelineConfig {
	return PipelineConfig{
		TestRatio:       getEnvFloatOrDefault("TEST_RATIO", def.TestRatio),
		SplitSeed:       getEnvInt64OrDefault("SPLIT_SEED", def.SplitSeed),
		Folds:           getEnvIntOrDefault("CV_FOLDS", def.Folds),
		FitMode:         strings.ToLower(getEnvOrDefault("FIT_MODE", def.FitMode)),
		FaultMatch:      strings.ToLower(getEnvOrDefault("FAULT_MATCH", def.FaultMatch)),
		ForestSeed:      getEnvInt64OrDefault("FOREST_SEED", def.ForestSeed),
		GridParallelism: getEnvIntOrDefault("GRID_PARALLELISM", def.GridParallelism),
		GridFile:        getEnvOrDefault("GRID_FILE", def.GridFile),
	}
}

// Validate checks value ranges and enumerations
func Validate(config *Config) error {
	p := config.Pipeline
	if p.TestRatio < 0 || p.TestRatio >= 1 {
		return errors.ConfigInvalid("TEST_RATIO must be in [0,1)")
	}
	if p.Folds < 2 {
		return errors.ConfigInvalid("CV_FOLDS must be at least 2")
	}
	if p.FitMode != FitModeWhole && p.FitMode != FitModeTrain {
		return errors.ConfigInvalid("FIT_MODE must be 'whole' or 'train'")
	}
	if p.FaultMatch != FaultMatchTrimmed && p.FaultMatch != FaultMatchLegacy {
		return errors.ConfigInvalid("FAULT_MATCH must be 'trimmed' or 'legacy'")
	}
	if p.GridParallelism < 1 {
		return errors.ConfigInvalid("GRID_PARALLELISM must be at least 1")
	}
	f := config.Data.Feed
	if f.PageSize < 1 || f.MaxPages < 1 {
		return errors.ConfigInvalid("FEED_PAGE_SIZE and FEED_MAX_PAGES must be at least 1")
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvInt64OrDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
