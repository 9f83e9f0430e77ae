package policy

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultPolicy(t *testing.T) {
	p := Default()
	if len(p.Extensions) == 0 {
		t.Fatal("default policy has no extensions")
	}
	if p.MaxFileBytes != 1024*1024 {
		t.Fatalf("MaxFileBytes = %d, want 1 MiB", p.MaxFileBytes)
	}
	if p.MaxContentChars != 50000 {
		t.Fatalf("MaxContentChars = %d, want 50000", p.MaxContentChars)
	}
	if p.MaxPromptChars != 8000 {
		t.Fatalf("MaxPromptChars = %d, want 8000", p.MaxPromptChars)
	}
	if len(p.FocusAreas) == 0 {
		t.Fatal("default policy has no focus areas")
	}
}

func TestIsScannable(t *testing.T) {
	p := Default()
	cases := []struct {
		name string
		want bool
	}{
		{"app.js", true},
		{"Server.Go", true}, // case-insensitive extension
		{"settings.py", true},
		{"deploy.yaml", true},
		{"Dockerfile", true}, // special file, no extension
		{"dockerfile", true},
		{"README.md", false},
		{"logo.png", false},
		{"notes.txt", false},
		{"Makefile", false},
		{"", false},
	}
	for _, tc := range cases {
		if got := p.IsScannable(tc.name); got != tc.want {
			t.Errorf("IsScannable(%q) = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestLoadCustomPolicy(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.yaml")
	doc := `name: strict
extensions: [".go"]
max_file_bytes: 2048
focus_areas:
  - "Hardcoded credentials"
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("writing policy: %v", err)
	}

	p, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if p.Name != "strict" {
		t.Fatalf("Name = %q", p.Name)
	}
	if !p.IsScannable("main.go") || p.IsScannable("app.js") {
		t.Fatal("custom extension list not applied")
	}
	if p.MaxFileBytes != 2048 {
		t.Fatalf("MaxFileBytes = %d, want 2048", p.MaxFileBytes)
	}
	// Unset caps fall back to defaults.
	if p.MaxContentChars != 50000 || p.MaxPromptChars != 8000 {
		t.Fatalf("cap defaults not applied: %d / %d", p.MaxContentChars, p.MaxPromptChars)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing policy file")
	}
}
