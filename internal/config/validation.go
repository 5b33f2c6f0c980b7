package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// ValidationResult captures a single validation finding.
type ValidationResult struct {
	Level   string `json:"level"` // "error" or "warning"
	Message string `json:"message"`
}

// Validate checks the configuration and returns every finding.
func (c Config) Validate() []ValidationResult {
	var results []ValidationResult
	results = append(results, c.validateExchange()...)
	results = append(results, c.validateNumbers()...)
	results = append(results, c.validateToolDir()...)
	return results
}

// HasErrors reports whether any result is an error.
func HasErrors(results []ValidationResult) bool {
	for _, r := range results {
		if r.Level == "error" {
			return true
		}
	}
	return false
}

func (c Config) validateExchange() []ValidationResult {
	switch c.Diff.Exchange {
	case "job", "shared":
		return nil
	case "":
		return []ValidationResult{{Level: "error", Message: "diff.exchange is empty"}}
	}
	return []ValidationResult{{
		Level:   "error",
		Message: fmt.Sprintf("diff.exchange %q must be \"job\" or \"shared\"", c.Diff.Exchange),
	}}
}

func (c Config) validateNumbers() []ValidationResult {
	var results []ValidationResult
	if c.Diff.CacheEntries < 0 {
		results = append(results, ValidationResult{
			Level:   "error",
			Message: fmt.Sprintf("diff.cache_entries must not be negative (got %d)", c.Diff.CacheEntries),
		})
	}
	if c.Compile.DebounceMS < 0 {
		results = append(results, ValidationResult{
			Level:   "error",
			Message: fmt.Sprintf("compile.debounce_ms must not be negative (got %d)", c.Compile.DebounceMS),
		})
	} else if c.Compile.DebounceMS > 10000 {
		results = append(results, ValidationResult{
			Level:   "warning",
			Message: fmt.Sprintf("compile.debounce_ms is %d; edits will take over 10s to compile", c.Compile.DebounceMS),
		})
	}
	if c.Download.TimeoutSec < 0 {
		results = append(results, ValidationResult{
			Level:   "error",
			Message: fmt.Sprintf("download.timeout_s must not be negative (got %d)", c.Download.TimeoutSec),
		})
	}
	return results
}

func (c Config) validateToolDir() []ValidationResult {
	if c.Diff.ToolDir == "" {
		return []ValidationResult{{Level: "warning", Message: "diff.tool_dir is not set; diffs will use the default location"}}
	}
	script := filepath.Join(c.Diff.ToolDir, "diff.py")
	if _, err := os.Stat(script); err != nil {
		return []ValidationResult{{
			Level:   "error",
			Message: fmt.Sprintf("diff.tool_dir %q has no diff.py", c.Diff.ToolDir),
		}}
	}
	return nil
}
