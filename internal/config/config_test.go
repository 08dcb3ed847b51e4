package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.InstantiationDepth != DefaultInstantiationDepth {
		t.Errorf("default depth = %d, want %d", cfg.InstantiationDepth, DefaultInstantiationDepth)
	}
	if cfg.Color != "auto" {
		t.Errorf("default color = %q, want auto", cfg.Color)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "datalog.yaml")
	data := "instantiation_depth: 25\ncolor: never\nshow:\n  - ast\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.InstantiationDepth != 25 {
		t.Errorf("depth = %d, want 25", cfg.InstantiationDepth)
	}
	if cfg.Color != "never" {
		t.Errorf("color = %q, want never", cfg.Color)
	}
	if !cfg.Showing("ast") || cfg.Showing("types") {
		t.Errorf("show list misparsed: %v", cfg.Show)
	}
}

func TestLoadFillsDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "datalog.yaml")
	if err := os.WriteFile(path, []byte("color: always\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.InstantiationDepth != DefaultInstantiationDepth {
		t.Errorf("absent depth must default, got %d", cfg.InstantiationDepth)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Errorf("missing file must error")
	}
}
