package app

import "errors"

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	WorkbookPath string // "id:definition" cell file
	SettingsPath string // optional HCL settings file

	LogFormat string
	LogLevel  string
	Workers   int
	Watch     bool
}

func NewConfig(cfg Config) (*Config, error) {
	if cfg.WorkbookPath == "" {
		return nil, errors.New("WorkbookPath is a required configuration field and cannot be empty")
	}

	return &cfg, nil
}
