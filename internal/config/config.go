package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"quantbin/domain/binning"
)

// Config is the complete application configuration, loaded from environment
// variables (after an optional .env bootstrap in the entrypoint).
type Config struct {
	Database   DatabaseConfig
	Server     ServerConfig
	Paths      PathConfig
	Evaluation EvaluationConfig
}

// DatabaseConfig holds summary-store connection settings. URL empty means
// persistence is disabled.
type DatabaseConfig struct {
	URL string
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port string
}

// PathConfig holds file system paths for table ingestion and report output.
type PathConfig struct {
	DataDir    string
	ReportFile string
}

// EvaluationConfig holds the evaluation defaults applied when a request
// does not override them.
type EvaluationConfig struct {
	NumBins            int
	NumFolds           int
	Targets            []int
	CombineMiddleBins  bool
	ErrorScalingFactor float64
	UncertaintyTypes   []string
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	targets, err := parseIntList(getEnvOrDefault("QB_TARGETS", "0"))
	if err != nil {
		return nil, fmt.Errorf("QB_TARGETS: %w", err)
	}

	cfg := &Config{
		Database: DatabaseConfig{
			URL: getEnvOrDefault("DATABASE_URL", ""),
		},
		Server: ServerConfig{
			Port: getEnvOrDefault("PORT", "8080"),
		},
		Paths: PathConfig{
			DataDir:    getEnvOrDefault("QB_DATA_DIR", "./data"),
			ReportFile: getEnvOrDefault("QB_REPORT_FILE", "./quantbin_summary.xlsx"),
		},
		Evaluation: EvaluationConfig{
			NumBins:            getEnvIntOrDefault("QB_NUM_BINS", 5),
			NumFolds:           getEnvIntOrDefault("QB_NUM_FOLDS", 4),
			Targets:            targets,
			CombineMiddleBins:  getEnvBoolOrDefault("QB_COMBINE_MIDDLE_BINS", false),
			ErrorScalingFactor: getEnvFloatOrDefault("QB_ERROR_SCALE", 1.0),
			UncertaintyTypes:   splitList(getEnvOrDefault("QB_UNCERTAINTY_TYPES", "S-MHA")),
		},
	}
	return cfg, nil
}

// BinningConfig converts the evaluation section into a validated scoring
// config.
func (c *Config) BinningConfig() (binning.Config, error) {
	cfg, err := binning.NewConfig(
		c.Evaluation.NumBins,
		c.Evaluation.Targets,
		c.Evaluation.NumFolds,
		c.Evaluation.CombineMiddleBins,
	)
	if err != nil {
		return binning.Config{}, err
	}
	cfg.ErrorScalingFactor = c.Evaluation.ErrorScalingFactor
	return cfg, nil
}

func parseIntList(s string) ([]int, error) {
	var out []int
	for _, part := range splitList(s) {
		v, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid integer %q", part)
		}
		out = append(out, v)
	}
	return out, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
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

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
