package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSaveAndLoadConfig(t *testing.T) {
	dir := t.TempDir()

	cfg := &Config{
		Version:      "1",
		DefaultLine:  "PP1",
		DefaultShift: "A",
		OperatorID:   "op-42",
	}
	if err := SaveConfig(dir, cfg); err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}

	loaded, err := LoadConfig(dir)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if loaded.DefaultLine != "PP1" || loaded.DefaultShift != "A" || loaded.OperatorID != "op-42" {
		t.Errorf("round trip mismatch: %+v", loaded)
	}
}

func TestLoadConfigMissing(t *testing.T) {
	if _, err := LoadConfig(t.TempDir()); err == nil {
		t.Error("expected error for missing config")
	}
}

func TestLoadConfigMalformed(t *testing.T) {
	dir := t.TempDir()
	weftDir := filepath.Join(dir, ".weft")
	if err := os.MkdirAll(weftDir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(weftDir, "config.json"), []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadConfig(dir); err == nil {
		t.Error("expected error for malformed config")
	}
}
