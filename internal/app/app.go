// Package app wires the pieces into a runnable application: settings,
// logger, host function registry, and the engine itself.
package app

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/vk/gridcell/internal/config"
	"github.com/vk/gridcell/internal/engine"
	"github.com/vk/gridcell/internal/hostfn"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW   io.Writer
	logger *slog.Logger
	eng    *engine.Engine
	cfg    *Config
}

// NewApp is the constructor for the main application. It returns a fully
// initialized App instance with its own isolated logger and engine. Passing
// no modules installs the core host functions.
func NewApp(outW io.Writer, cfg *Config, modules ...hostfn.Module) *App {
	settings := config.Default()
	if cfg.SettingsPath != "" {
		loaded, err := config.Load(cfg.SettingsPath)
		if err != nil {
			// A failure to load settings is a fatal startup error.
			panic(fmt.Errorf("failed to load settings: %w", err))
		}
		settings = loaded
	}

	// Command-line flags win over the settings file.
	level := cfg.LogLevel
	if level == "" {
		level = settings.LogLevel
	}
	format := cfg.LogFormat
	if format == "" {
		format = settings.LogFormat
	}
	workers := cfg.Workers
	if workers == 0 {
		workers = settings.Workers
	}

	logger := newLogger(level, format, outW)
	logger.Debug("Logger configured successfully.")

	host := hostfn.New()
	if len(modules) == 0 {
		modules = hostfn.CoreModules()
	}
	for _, mod := range modules {
		mod.Register(host)
	}
	logger.Debug("All host function modules registered.", "count", len(modules))

	eng := engine.New(engine.Options{
		Workers:         workers,
		InlineThreshold: settings.InlineThreshold,
		Host:            host,
		Logger:          logger,
	})

	return &App{
		outW:   outW,
		logger: logger,
		eng:    eng,
		cfg:    cfg,
	}
}

// Engine returns the application's engine. This is primarily for testing.
func (a *App) Engine() *engine.Engine {
	return a.eng
}

// Close releases the engine's worker pool.
func (a *App) Close() {
	a.eng.Shutdown()
}
