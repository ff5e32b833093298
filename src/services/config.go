package services

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// RunConfig is the YAML configuration consumed by the backtest CLI.
type RunConfig struct {
	DBPath        string  `yaml:"db_path"`
	Fidelity      string  `yaml:"fidelity"`
	InMemory      bool    `yaml:"in_memory"`
	StartDate     string  `yaml:"start_date"`
	EndDate       string  `yaml:"end_date"`
	LiquidityRisk float64 `yaml:"liquidity_risk"`
	Commission    float64 `yaml:"commission"`
	InitialCash   float64 `yaml:"initial_cash"`

	Strategy StrategyConfig `yaml:"strategy"`
}

type StrategyConfig struct {
	TargetDelta  float64 `yaml:"target_delta"`
	DaysToExpiry int     `yaml:"days_to_expiry"`
	Size         float64 `yaml:"size"`
}

// LoadRunConfig reads and validates a run configuration file.
func LoadRunConfig(path string) (*RunConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	var config RunConfig
	if err := yaml.Unmarshal(raw, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	if config.DBPath == "" {
		return nil, fmt.Errorf("config %s: db_path is required", path)
	}

	if config.InitialCash <= 0 {
		return nil, fmt.Errorf("config %s: initial_cash must be positive", path)
	}

	return &config, nil
}

// ParseDate parses an optional YYYY-MM-DD config date; an empty string maps
// to the zero time, which downstream defaults to the dataset bounds.
func ParseDate(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}

	parsed, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", value)
	}

	return parsed.UTC(), nil
}
