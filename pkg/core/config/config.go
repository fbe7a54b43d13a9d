// Package config loads the suite configuration from YAML. Secrets stay
// in the environment (.env via godotenv); the YAML holds structure:
// ports, spreadsheet ids, workflow definitions, and the EVM policy.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"

	"pmo_suite/pkg/core/evm"
	"pmo_suite/pkg/core/workflow"
)

// Config is the full file shape.
type Config struct {
	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`
	Sheets struct {
		SpreadsheetID string `yaml:"spreadsheetId"`
	} `yaml:"sheets"`
	Drive struct {
		ReportsFolderID string `yaml:"reportsFolderId"`
		InboxFolderID   string `yaml:"inboxFolderId"`
	} `yaml:"drive"`
	LLM struct {
		CategorizerModel string `yaml:"categorizerModel"`
	} `yaml:"llm"`
	EVM struct {
		// EACFallback: "bac_plus_abs_cv" (default) or "bac".
		EACFallback string `yaml:"eacFallback"`
		// TCPIFallback: "zero" (default) or "one".
		TCPIFallback string `yaml:"tcpiFallback"`
	} `yaml:"evm"`
	// Programs the workflow runner iterates when a scheduled job needs a
	// program scope (report generation, categorization sweeps).
	Programs  []string              `yaml:"programs"`
	Workflows []workflow.Definition `yaml:"workflows"`
}

// Load reads and parses the config file. A missing file yields defaults.
func Load(path string) (Config, error) {
	var cfg Config
	cfg.Server.Port = 8080

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			fmt.Printf("[CONFIG] %s not found, using defaults\n", path)
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	return cfg, nil
}

// Policy maps the configured fallback names to an evm.Policy. Unknown
// names fall back to the defaults rather than failing startup.
func (c Config) Policy() evm.Policy {
	pol := evm.DefaultPolicy()
	switch c.EVM.EACFallback {
	case "", "bac_plus_abs_cv":
	case "bac":
		pol.EACFallback = func(bac, cv float64) float64 { return bac }
	default:
		fmt.Printf("[CONFIG] Unknown eacFallback %q, using default\n", c.EVM.EACFallback)
	}
	switch c.EVM.TCPIFallback {
	case "", "zero":
	case "one":
		pol.TCPIFallback = func(bac, ev, ac float64) float64 { return 1 }
	default:
		fmt.Printf("[CONFIG] Unknown tcpiFallback %q, using default\n", c.EVM.TCPIFallback)
	}
	return pol
}
