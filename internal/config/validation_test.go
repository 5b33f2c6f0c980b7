package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestValidateDefaultsWithToolDir(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "diff.py"), []byte("#!/usr/bin/env python3"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg := Default()
	cfg.Diff.ToolDir = dir
	if results := cfg.Validate(); len(results) != 0 {
		t.Fatalf("expected no findings, got %v", results)
	}
}

func TestValidateFindings(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		level  string
		substr string
	}{
		{"bad exchange", func(c *Config) { c.Diff.Exchange = "global" }, "error", "diff.exchange"},
		{"negative cache", func(c *Config) { c.Diff.CacheEntries = -1 }, "error", "cache_entries"},
		{"negative debounce", func(c *Config) { c.Compile.DebounceMS = -5 }, "error", "debounce_ms"},
		{"slow debounce", func(c *Config) { c.Compile.DebounceMS = 20000 }, "warning", "debounce_ms"},
		{"negative timeout", func(c *Config) { c.Download.TimeoutSec = -1 }, "error", "timeout_s"},
		{"missing diff.py", func(c *Config) { c.Diff.ToolDir = "/nonexistent/asm-differ" }, "error", "diff.py"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.Diff.ToolDir = t.TempDir()
			_ = os.WriteFile(filepath.Join(cfg.Diff.ToolDir, "diff.py"), nil, 0o644)
			tt.mutate(&cfg)

			results := cfg.Validate()
			found := false
			for _, r := range results {
				if r.Level == tt.level && strings.Contains(r.Message, tt.substr) {
					found = true
				}
			}
			if !found {
				t.Fatalf("expected %s mentioning %q, got %v", tt.level, tt.substr, results)
			}
			if HasErrors(results) != (tt.level == "error") {
				t.Fatalf("HasErrors = %v for %v", HasErrors(results), results)
			}
		})
	}
}
