package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Database.Driver != "sqlite" {
		t.Fatalf("default driver = %q", cfg.Database.Driver)
	}
	if cfg.Scanner.MaxConcurrentScans != 3 {
		t.Fatalf("default max concurrent scans = %d", cfg.Scanner.MaxConcurrentScans)
	}
	if cfg.Scanner.BatchSize != 5 {
		t.Fatalf("default batch size = %d", cfg.Scanner.BatchSize)
	}
	if cfg.Gateway.Port == 0 {
		t.Fatal("default gateway port not set")
	}
}

func TestSaveLoadRoundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	cfg.AI.Provider = "bedrock"
	cfg.AI.Region = "eu-west-1"
	cfg.Scanner.MaxConcurrentScans = 7

	if err := Save(cfg, path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load after save: %v", err)
	}
	if loaded.AI.Provider != "bedrock" || loaded.AI.Region != "eu-west-1" {
		t.Fatalf("AI config did not round-trip: %+v", loaded.AI)
	}
	if loaded.Scanner.MaxConcurrentScans != 7 {
		t.Fatalf("scanner config did not round-trip: %+v", loaded.Scanner)
	}
}

func TestSaveRestrictsPermissions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	cfg.Git.GitHubToken = "secret"
	if err := Save(cfg, path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Fatalf("config written with mode %o, want 600", perm)
	}
}
