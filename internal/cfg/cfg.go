// Package cfg loads runtime configuration for the scrap price service.
// Configuration comes from a YAML file pointed at by CONFIG_FILE, with
// environment variables taking precedence over file values. With no file and
// no environment the defaults produce a runnable degraded-mode service that
// trains on the embedded seed data.
package cfg

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Settings struct {
	ListenAddr      string
	ModelPath       string
	DataPath        string
	DatabaseURL     string
	SourceURL       string
	SourceKey       string
	Trees           int
	Seed            int64
	HoldoutFraction float64
	EvalBuckets     int
	EvalOutputDir   string
	FetchTimeout    time.Duration
	RequestTimeout  time.Duration
}

type ConfigFile struct {
	Server struct {
		Listen         string `yaml:"listen"`
		RequestTimeout string `yaml:"requestTimeout"`
	} `yaml:"server"`

	Store struct {
		DatabaseURL  string `yaml:"databaseURL"`
		SourceURL    string `yaml:"sourceURL"`
		SourceKey    string `yaml:"sourceKey"`
		FetchTimeout string `yaml:"fetchTimeout"`
	} `yaml:"store"`

	Model struct {
		Path            string  `yaml:"path"`
		Trees           int     `yaml:"trees"`
		Seed            int64   `yaml:"seed"`
		HoldoutFraction float64 `yaml:"holdoutFraction"`
	} `yaml:"model"`

	Evaluation struct {
		Buckets   int    `yaml:"buckets"`
		OutputDir string `yaml:"outputDir"`
	} `yaml:"evaluation"`

	System struct {
		DataPath string `yaml:"dataPath"`
	} `yaml:"system"`
}

func Load() (Settings, error) {
	if configPath := os.Getenv("CONFIG_FILE"); configPath != "" {
		return loadFromYAML(configPath)
	}
	return loadFromEnv()
}

func loadFromYAML(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var config ConfigFile
	if err := yaml.Unmarshal(data, &config); err != nil {
		return Settings{}, fmt.Errorf("failed to parse config file: %w", err)
	}

	fetchTimeout, err := time.ParseDuration(config.Store.FetchTimeout)
	if err != nil {
		fetchTimeout = 5 * time.Second
	}
	requestTimeout, err := time.ParseDuration(config.Server.RequestTimeout)
	if err != nil {
		requestTimeout = 10 * time.Second
	}

	settings := Settings{
		ListenAddr:      getEnvOrDefault("LISTEN_ADDR", stringOrDefault(config.Server.Listen, ":5001")),
		ModelPath:       getEnvOrDefault("MODEL_PATH", stringOrDefault(config.Model.Path, "model/scrap_rf.gob")),
		DataPath:        getEnvOrDefault("DATA_PATH", config.System.DataPath),
		DatabaseURL:     getEnvOrDefault("DATABASE_URL", config.Store.DatabaseURL),
		SourceURL:       getEnvOrDefault("SOURCE_URL", config.Store.SourceURL),
		SourceKey:       getEnvOrDefault("SOURCE_KEY", config.Store.SourceKey),
		Trees:           getIntFromEnvOrConfig("FOREST_TREES", config.Model.Trees, 300),
		Seed:            getInt64FromEnvOrConfig("FOREST_SEED", config.Model.Seed, 42),
		HoldoutFraction: getFloatFromEnvOrConfig("HOLDOUT_FRACTION", config.Model.HoldoutFraction, 0.2),
		EvalBuckets:     getIntFromEnvOrConfig("EVAL_BUCKETS", config.Evaluation.Buckets, 4),
		EvalOutputDir:   getEnvOrDefault("EVAL_OUTPUT_DIR", stringOrDefault(config.Evaluation.OutputDir, "model")),
		FetchTimeout:    getDurationOrDefault("FETCH_TIMEOUT", fetchTimeout),
		RequestTimeout:  getDurationOrDefault("REQUEST_TIMEOUT", requestTimeout),
	}

	if err := validateSettings(&settings); err != nil {
		return Settings{}, fmt.Errorf("configuration validation failed: %w", err)
	}

	return settings, nil
}

func loadFromEnv() (Settings, error) {
	settings := Settings{
		ListenAddr:      getEnvOrDefault("LISTEN_ADDR", ":5001"),
		ModelPath:       getEnvOrDefault("MODEL_PATH", "model/scrap_rf.gob"),
		DataPath:        os.Getenv("DATA_PATH"), // optional
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		SourceURL:       os.Getenv("SOURCE_URL"),
		SourceKey:       os.Getenv("SOURCE_KEY"),
		Trees:           getIntOrDefault("FOREST_TREES", 300),
		Seed:            getInt64OrDefault("FOREST_SEED", 42),
		HoldoutFraction: getFloatOrDefault("HOLDOUT_FRACTION", 0.2),
		EvalBuckets:     getIntOrDefault("EVAL_BUCKETS", 4),
		EvalOutputDir:   getEnvOrDefault("EVAL_OUTPUT_DIR", "model"),
		FetchTimeout:    getDurationOrDefault("FETCH_TIMEOUT", 5*time.Second),
		RequestTimeout:  getDurationOrDefault("REQUEST_TIMEOUT", 10*time.Second),
	}

	if err := validateSettings(&settings); err != nil {
		return Settings{}, fmt.Errorf("configuration validation failed: %w", err)
	}

	return settings, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func stringOrDefault(v, def string) string {
	if v != "" {
		return v
	}
	return def
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultValue
}

func getInt64OrDefault(key string, defaultValue int64) int64 {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.ParseInt(v, 10, 64); err == nil {
			return i
		}
	}
	return defaultValue
}

func getFloatOrDefault(key string, defaultValue float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getIntFromEnvOrConfig(key string, configValue, defaultValue int) int {
	if env := os.Getenv(key); env != "" {
		if val, err := strconv.Atoi(env); err == nil {
			return val
		}
	}
	if configValue != 0 {
		return configValue
	}
	return defaultValue
}

func getInt64FromEnvOrConfig(key string, configValue, defaultValue int64) int64 {
	if env := os.Getenv(key); env != "" {
		if val, err := strconv.ParseInt(env, 10, 64); err == nil {
			return val
		}
	}
	if configValue != 0 {
		return configValue
	}
	return defaultValue
}

func getFloatFromEnvOrConfig(key string, configValue, defaultValue float64) float64 {
	if env := os.Getenv(key); env != "" {
		if val, err := strconv.ParseFloat(env, 64); err == nil {
			return val
		}
	}
	if configValue != 0 {
		return configValue
	}
	return defaultValue
}

// validateSettings performs range validation of configuration values.
func validateSettings(settings *Settings) error {
	if settings.ListenAddr == "" {
		return fmt.Errorf("listen address cannot be empty")
	}
	if settings.ModelPath == "" {
		return fmt.Errorf("model path cannot be empty")
	}

	if settings.Trees <= 0 || settings.Trees > 5000 {
		return fmt.Errorf("forest size must be between 1 and 5000 trees, got %d", settings.Trees)
	}
	if settings.HoldoutFraction <= 0 || settings.HoldoutFraction > 0.5 {
		return fmt.Errorf("holdout fraction must be between 0 and 0.5, got %f", settings.HoldoutFraction)
	}
	if settings.EvalBuckets < 2 || settings.EvalBuckets > 20 {
		return fmt.Errorf("evaluation buckets must be between 2 and 20, got %d", settings.EvalBuckets)
	}

	if settings.FetchTimeout < time.Second || settings.FetchTimeout > time.Minute {
		return fmt.Errorf("fetch timeout must be between 1s and 1m, got %v", settings.FetchTimeout)
	}
	if settings.RequestTimeout < time.Second || settings.RequestTimeout > 5*time.Minute {
		return fmt.Errorf("request timeout must be between 1s and 5m, got %v", settings.RequestTimeout)
	}

	if settings.DatabaseURL != "" && settings.SourceURL != "" {
		return fmt.Errorf("databaseURL and sourceURL are mutually exclusive, configure one dataset source")
	}

	return nil
}
