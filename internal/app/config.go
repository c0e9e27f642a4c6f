package app

import (
	"errors"
	"fmt"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	PlanPath string // hcl file or directory of hcl files

	OutputFormat string // json or yaml
	OutputPath   string // empty writes to the app's output writer

	LogFormat string
	LogLevel  string
}

func NewConfig(cfg Config) (*Config, error) {
	if cfg.PlanPath == "" {
		return nil, errors.New("PlanPath is a required configuration field and cannot be empty")
	}

	switch cfg.OutputFormat {
	case "":
		cfg.OutputFormat = "json"
	case "json", "yaml":
	default:
		return nil, fmt.Errorf("invalid output format %q: must be 'json' or 'yaml'", cfg.OutputFormat)
	}

	return &cfg, nil
}
