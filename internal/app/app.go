package app

import (
	"fmt"
	"os"
	"path/filepath"
)

// Application wires the pipeline together: config, model client, tool
// registry, validator, engine, telemetry. Both the TUI and the one-shot CLI
// path drive the same Application.
type Application struct {
	Config   Config
	Logger   *Logger
	Client   LLMClient
	Registry *ToolRegistry
	Tracker  *InteractionTracker
	Pipeline *Pipeline
}

// NewApplication builds a ready-to-use Application. mockMode swaps the model
// client for a canned mock, used by tests and offline smoke runs.
func NewApplication(cfg Config, mockMode bool) (*Application, error) {
	logger := NewLogger(DefaultLogWriter())

	var client LLMClient
	if mockMode {
		client = NewMockLLMClient("mock response")
	} else {
		real, err := NewOllamaClient(cfg)
		if err != nil {
			return nil, fmt.Errorf("connecting to ollama at %s: %w", cfg.OllamaURL, err)
		}
		client = real
	}

	registry := DefaultToolRegistry(cfg.ProjectRoot)

	telemetryDir := cfg.TelemetryDir
	if telemetryDir == "" && !mockMode {
		telemetryDir = filepath.Join(os.TempDir(), "clokai", "telemetry")
	}
	tracker := NewInteractionTracker(telemetryDir, cfg.Model, logger)

	validator := NewValidator(ValidationConfig{
		Enabled:                  cfg.Validation,
		BlockEmptyArgs:           cfg.BlockEmptyArgs,
		PreventRedundantSearches: cfg.PreventRedundantSearches,
		LogBlockedCalls:          cfg.LogBlockedCalls,
		MaxConsecutiveSameTool:   cfg.MaxConsecutiveSameTool,
	}, logger)

	cache := NewResultCache(cfg.ResultCacheCap)
	engine := NewEngine(registry, cache, validator, tracker, logger, cfg.MaxParallel, cfg.ToolTimeout)
	pipeline := NewPipeline(cfg, client, registry, validator, engine, tracker, logger)

	return &Application{
		Config:   cfg,
		Logger:   logger,
		Client:   client,
		Registry: registry,
		Tracker:  tracker,
		Pipeline: pipeline,
	}, nil
}

// Close releases the telemetry store.
func (a *Application) Close() error {
	if a.Tracker != nil {
		return a.Tracker.Close()
	}
	return nil
}
