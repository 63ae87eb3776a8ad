package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"skipdetect/internal/services"
)

func TestDefaultValidatesWithServer(t *testing.T) {
	cfg := Default()
	cfg.Jellyfin.URL = "http://localhost:8096"
	cfg.Jellyfin.APIKey = "token"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestLoadAppliesDefaultsAndOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	body := `
state_dir = "` + dir + `"

[jellyfin]
url = "http://media.local:8096/"
api_key = "abc"

[analysis]
percent = 25
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Analysis.Percent != 25 {
		t.Errorf("percent override lost: got %d", cfg.Analysis.Percent)
	}
	if cfg.Analysis.LengthLimitMinutes != 15 {
		t.Errorf("length limit default lost: got %d", cfg.Analysis.LengthLimitMinutes)
	}
	if cfg.Jellyfin.URL != "http://media.local:8096" {
		t.Errorf("trailing slash should be trimmed, got %q", cfg.Jellyfin.URL)
	}
	if !cfg.Blacklist.Enabled {
		t.Error("blacklist should default to enabled")
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cfg := Default()
	cfg.Jellyfin.URL = "http://localhost:8096"
	cfg.Jellyfin.APIKey = "token"
	cfg.Analysis.Percent = 0
	cfg.Analysis.MaxParallelism = -1
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation failure")
	}
	if !strings.Contains(err.Error(), "percent") || !strings.Contains(err.Error(), "max_parallelism") {
		t.Fatalf("error should mention both problems: %v", err)
	}
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("validation failures should carry the configuration marker: %v", err)
	}
}

func TestSettingsChangedFromDefault(t *testing.T) {
	a := Default().Analysis
	if a.SettingsChangedFromDefault() {
		t.Fatal("stock settings should not report as changed")
	}
	a.Percent = 50
	if !a.SettingsChangedFromDefault() {
		t.Fatal("tuned percent should report as changed")
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	got, err := ExpandPath("~/x/y")
	if err != nil {
		t.Fatal(err)
	}
	if got != filepath.Join(home, "x", "y") {
		t.Errorf("unexpected expansion: %q", got)
	}
}
