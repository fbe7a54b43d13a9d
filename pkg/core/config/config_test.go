package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Expected default port 8080, got %d", cfg.Server.Port)
	}
}

func TestLoadParsesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
server:
  port: 9090
sheets:
  spreadsheetId: abc123
evm:
  eacFallback: bac
  tcpiFallback: one
workflows:
  - id: WF-001
    name: Weekly EVM report
    eventType: report.generate
    frequency: weekly
    hour: 8
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Port != 9090 || cfg.Sheets.SpreadsheetID != "abc123" {
		t.Errorf("Unexpected config: %+v", cfg)
	}
	if len(cfg.Workflows) != 1 || cfg.Workflows[0].EventType != "report.generate" {
		t.Errorf("Workflows not parsed: %+v", cfg.Workflows)
	}

	// Configured fallbacks replace the defaults.
	pol := cfg.Policy()
	if got := pol.EACFallback(500, -100); got != 500 {
		t.Errorf("Expected bac fallback 500, got %f", got)
	}
	if got := pol.TCPIFallback(100, 50, 120); got != 1 {
		t.Errorf("Expected tcpi fallback 1, got %f", got)
	}
}

func TestPolicyDefaults(t *testing.T) {
	var cfg Config
	pol := cfg.Policy()
	// Default EAC fallback: BAC + |CV|.
	if got := pol.EACFallback(500, -100); got != 600 {
		t.Errorf("Expected 600, got %f", got)
	}
	if got := pol.TCPIFallback(100, 50, 120); got != 0 {
		t.Errorf("Expected 0, got %f", got)
	}
}
