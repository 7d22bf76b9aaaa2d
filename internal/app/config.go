package app

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	OllamaURL   string  `yaml:"ollama_url"`
	Model       string  `yaml:"model"`
	MaxTokens   int     `yaml:"max_tokens"`
	Temperature float64 `yaml:"temperature"`

	ProjectRoot  string `yaml:"project_root"`
	TelemetryDir string `yaml:"telemetry_dir"`

	MaxParallel    int           `yaml:"max_parallel"`
	ToolTimeout    time.Duration `yaml:"tool_timeout"`
	MaxRetries     int           `yaml:"max_retries"`
	ResultCacheCap int           `yaml:"result_cache_cap"`

	Validation               bool `yaml:"validation"`
	BlockEmptyArgs           bool `yaml:"block_empty_args"`
	PreventRedundantSearches bool `yaml:"prevent_redundant_searches"`
	LogBlockedCalls          bool `yaml:"log_blocked_calls"`
	MaxConsecutiveSameTool   int  `yaml:"max_consecutive_same_tool"`
}

func DefaultConfig() Config {
	return Config{
		OllamaURL:                "http://localhost:11434",
		Model:                    "qwen2.5-coder:7b",
		MaxTokens:                4096,
		Temperature:              0.7,
		ProjectRoot:              ".",
		TelemetryDir:             filepath.Join(os.TempDir(), "clokai", "telemetry"),
		MaxParallel:              3,
		ToolTimeout:              30 * time.Second,
		MaxRetries:               2,
		ResultCacheCap:           256,
		Validation:               true,
		BlockEmptyArgs:           true,
		PreventRedundantSearches: true,
		LogBlockedCalls:          true,
		MaxConsecutiveSameTool:   2,
	}
}

func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return normalize(cfg), nil
}

func normalize(cfg Config) Config {
	def := DefaultConfig()
	if cfg.OllamaURL == "" {
		cfg.OllamaURL = def.OllamaURL
	}
	if cfg.Model == "" {
		cfg.Model = def.Model
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = def.MaxTokens
	}
	if cfg.Temperature <= 0 {
		cfg.Temperature = def.Temperature
	}
	if cfg.ProjectRoot == "" {
		cfg.ProjectRoot = def.ProjectRoot
	}
	if cfg.TelemetryDir == "" {
		cfg.TelemetryDir = def.TelemetryDir
	}
	if cfg.MaxParallel <= 0 {
		cfg.MaxParallel = def.MaxParallel
	}
	if cfg.ToolTimeout <= 0 {
		cfg.ToolTimeout = def.ToolTimeout
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = def.MaxRetries
	}
	if cfg.ResultCacheCap <= 0 {
		cfg.ResultCacheCap = def.ResultCacheCap
	}
	if cfg.MaxConsecutiveSameTool <= 0 {
		cfg.MaxConsecutiveSameTool = def.MaxConsecutiveSameTool
	}
	return cfg
}

func SaveConfig(cfg Config, path string) error {
	if path == "" {
		return errors.New("no path provided for config")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func DefaultConfigPath() string {
	base, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(base, "clokai", "config.yml")
}
