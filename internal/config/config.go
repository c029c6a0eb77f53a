// Package config loads optional engine settings from an HCL file. Settings
// tune the runtime (worker count, logging); they never define cells, which
// live in the workbook file.
package config

import (
	"fmt"
	"os"
	"runtime"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
)

// Settings is the merged result of a settings file over the defaults.
type Settings struct {
	// Workers sizes the recompute pool. 0 lets the engine decide.
	Workers int
	// InlineThreshold is the largest dependency level evaluated without the
	// pool. 0 lets the engine decide.
	InlineThreshold int
	// LogLevel is one of debug, info, warn, error.
	LogLevel string
	// LogFormat is text or json.
	LogFormat string
}

// Default returns the settings used when no file is given.
func Default() Settings {
	return Settings{
		LogLevel:  "info",
		LogFormat: "text",
	}
}

// fileSchema mirrors the settings file layout:
//
//	engine {
//	  workers          = num_cpu
//	  inline_threshold = 4
//	}
//	logging {
//	  level  = "debug"
//	  format = "json"
//	}
type fileSchema struct {
	Engine  *engineBlock  `hcl:"engine,block"`
	Logging *loggingBlock `hcl:"logging,block"`
}

type engineBlock struct {
	Workers         int `hcl:"workers,optional"`
	InlineThreshold int `hcl:"inline_threshold,optional"`
}

type loggingBlock struct {
	Level  string `hcl:"level,optional"`
	Format string `hcl:"format,optional"`
}

// Load parses the settings file at path and merges it over the defaults.
// Expressions in the file may reference num_cpu.
func Load(path string) (Settings, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("reading settings file: %w", err)
	}
	return parse(src, path)
}

func parse(src []byte, filename string) (Settings, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return Settings{}, fmt.Errorf("parsing settings file: %w", diags)
	}

	evalCtx := &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"num_cpu": cty.NumberIntVal(int64(runtime.NumCPU())),
		},
	}

	var schema fileSchema
	if diags := gohcl.DecodeBody(file.Body, evalCtx, &schema); diags.HasErrors() {
		return Settings{}, fmt.Errorf("decoding settings file: %w", diags)
	}

	settings := Default()
	if schema.Engine != nil {
		if schema.Engine.Workers < 0 {
			return Settings{}, fmt.Errorf("engine.workers must not be negative, got %d", schema.Engine.Workers)
		}
		if schema.Engine.InlineThreshold < 0 {
			return Settings{}, fmt.Errorf("engine.inline_threshold must not be negative, got %d", schema.Engine.InlineThreshold)
		}
		settings.Workers = schema.Engine.Workers
		settings.InlineThreshold = schema.Engine.InlineThreshold
	}
	if schema.Logging != nil {
		if schema.Logging.Level != "" {
			settings.LogLevel = schema.Logging.Level
		}
		if schema.Logging.Format != "" {
			settings.LogFormat = schema.Logging.Format
		}
	}

	if err := validate(settings); err != nil {
		return Settings{}, err
	}
	return settings, nil
}

func validate(s Settings) error {
	switch s.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", s.LogLevel)
	}
	switch s.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format must be text or json, got %q", s.LogFormat)
	}
	return nil
}
