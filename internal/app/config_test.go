package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yml"))
	if err != nil {
		t.Fatalf("missing config file should not error: %v", err)
	}
	def := DefaultConfig()
	if cfg.Model != def.Model || cfg.MaxParallel != def.MaxParallel {
		t.Errorf("defaults not applied: %+v", cfg)
	}
}

func TestLoadConfigPartialFileBackfills(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	content := "model: llama3.2:3b\nmax_parallel: 5\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Model != "llama3.2:3b" {
		t.Errorf("explicit value lost: %s", cfg.Model)
	}
	if cfg.MaxParallel != 5 {
		t.Errorf("explicit value lost: %d", cfg.MaxParallel)
	}
	if cfg.ToolTimeout != 30*time.Second {
		t.Errorf("unset fields should backfill: %s", cfg.ToolTimeout)
	}
	if cfg.MaxConsecutiveSameTool != 2 {
		t.Errorf("unset fields should backfill: %d", cfg.MaxConsecutiveSameTool)
	}
}

func TestSaveConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.yml")
	cfg := DefaultConfig()
	cfg.Model = "custom-model"
	cfg.MaxRetries = 4

	if err := SaveConfig(cfg, path); err != nil {
		t.Fatal(err)
	}
	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Model != "custom-model" || loaded.MaxRetries != 4 {
		t.Errorf("round trip lost values: %+v", loaded)
	}
}
