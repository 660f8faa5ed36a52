package util

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const sampleYAML = `
settings:
  logLevel: debug
  pollInterval: 250ms
  summaryInterval: 1m
  maxStoredMatches: 50
patterns:
  - name: oom
    regex: "out of memory"
    severity: critical
    category: kernel
  - name: disk
    regex: "i/o error"
    severity: "2"
sources:
  - path: /var/log/syslog
    enabled: true
  - path: /var/log/auth.log
    name: auth
    enabled: false
`

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
	return path
}

func TestLoadConfigYAML(t *testing.T) {
	path := writeConfig(t, "config.yaml", sampleYAML)

	config, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if config.Settings.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug", config.Settings.LogLevel)
	}
	if config.Settings.PollInterval != 250*time.Millisecond {
		t.Errorf("PollInterval = %v, want 250ms", config.Settings.PollInterval)
	}
	if config.Settings.SummaryInterval != time.Minute {
		t.Errorf("SummaryInterval = %v, want 1m", config.Settings.SummaryInterval)
	}
	if config.Settings.MaxStoredMatches != 50 {
		t.Errorf("MaxStoredMatches = %d, want 50", config.Settings.MaxStoredMatches)
	}
	if len(config.Patterns) != 2 {
		t.Fatalf("got %d patterns, want 2", len(config.Patterns))
	}
	if config.Patterns[0].Severity != "critical" {
		t.Errorf("pattern severity = %q, want critical", config.Patterns[0].Severity)
	}

	// Defaults applied on top of the file.
	if config.Settings.LogFormat != "text" {
		t.Errorf("LogFormat = %q, want text default", config.Settings.LogFormat)
	}
	if config.Sources[0].Name != "syslog" {
		t.Errorf("source name = %q, want syslog (defaulted)", config.Sources[0].Name)
	}
}

func TestLoadConfigJSON(t *testing.T) {
	path := writeConfig(t, "config.json", `{
  "settings": {"pollInterval": "100ms"},
  "patterns": [{"name": "err", "regex": "error", "severity": "error"}],
  "sources": [{"path": "/var/log/syslog", "enabled": true}]
}`)

	config, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if config.Settings.PollInterval != 100*time.Millisecond {
		t.Errorf("PollInterval = %v, want 100ms", config.Settings.PollInterval)
	}
}

func TestLoadConfigExpandsEnv(t *testing.T) {
	t.Setenv("LOG_DIR", "/custom/logs")
	path := writeConfig(t, "config.yaml", `
patterns:
  - name: err
    regex: error
sources:
  - path: ${LOG_DIR}/app.log
    enabled: true
`)

	config, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if config.Sources[0].Path != "/custom/logs/app.log" {
		t.Errorf("source path = %q, want env-expanded path", config.Sources[0].Path)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestLoadConfigInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"malformed yaml", "settings: ["},
		{"fails validation", `
patterns: []
sources:
  - path: /var/log/syslog
    enabled: true
`},
		{"bad duration", `
settings:
  pollInterval: sometimes
patterns:
  - name: err
    regex: error
sources:
  - path: /var/log/syslog
    enabled: true
`},
	}

	for _, tt := range tests {
		path := writeConfig(t, "config.yaml", tt.content)
		if _, err := LoadConfig(path); err == nil {
			t.Errorf("%s: expected error", tt.name)
		}
	}
}

func TestSaveConfigRoundTrip(t *testing.T) {
	src := writeConfig(t, "config.yaml", sampleYAML)
	config, err := LoadConfig(src)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	dest := filepath.Join(t.TempDir(), "saved.yaml")
	if err := SaveConfig(config, dest); err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}

	reloaded, err := LoadConfig(dest)
	if err != nil {
		t.Fatalf("reloading saved config: %v", err)
	}
	if reloaded.Settings.PollInterval != config.Settings.PollInterval {
		t.Errorf("PollInterval changed across round trip: %v != %v",
			reloaded.Settings.PollInterval, config.Settings.PollInterval)
	}
	if len(reloaded.Patterns) != len(config.Patterns) {
		t.Errorf("pattern count changed across round trip: %d != %d",
			len(reloaded.Patterns), len(config.Patterns))
	}
}

func TestSaveConfigUnsupportedExtension(t *testing.T) {
	config, err := LoadConfig(writeConfig(t, "config.yaml", sampleYAML))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if err := SaveConfig(config, filepath.Join(t.TempDir(), "config.toml")); err == nil {
		t.Error("expected error for unsupported extension")
	}
}
