package tools

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"decompdesk/internal/platform"
)

// PythonRequirements are the packages asm-differ imports.
var PythonRequirements = []string{"colorama", "watchdog", "levenshtein", "cxxfilt"}

// CheckDiffTool verifies that dir holds asm-differ's diff.py.
func CheckDiffTool(dir string) error {
	script := filepath.Join(dir, "diff.py")
	info, err := os.Stat(script)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("diff.py not found in %s", dir)
		}
		return fmt.Errorf("stat %s: %w", script, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", script)
	}
	return nil
}

func (c Checker) pythonExecutor() platform.Executor {
	return platform.Executor{Adapter: platform.Select(c.hostOS(), platform.ABIPOSIX), Runner: c.Runner}
}

// MissingPythonPackages lists the entries of PythonRequirements that pip does
// not report as installed. Names compare case-insensitively.
func (c Checker) MissingPythonPackages(ctx context.Context) ([]string, error) {
	result, err := c.pythonExecutor().Execute(ctx, platform.Invocation{
		Executable: c.python(),
		Args:       []string{"-m", "pip", "list", "--format=freeze"},
	})
	if err != nil {
		return nil, fmt.Errorf("list python packages: %w", err)
	}
	if result.ExitCode != 0 {
		return nil, fmt.Errorf("list python packages: exit status %d: %s", result.ExitCode, strings.TrimSpace(result.Output()))
	}

	installed := map[string]bool{}
	for _, line := range strings.Split(result.Stdout, "\n") {
		name, _, _ := strings.Cut(strings.TrimSpace(line), "==")
		if name != "" {
			installed[strings.ToLower(name)] = true
		}
	}

	var missing []string
	for _, pkg := range PythonRequirements {
		if !installed[strings.ToLower(pkg)] {
			missing = append(missing, pkg)
		}
	}
	return missing, nil
}

// InstallPythonPackages runs pip install for packages.
func (c Checker) InstallPythonPackages(ctx context.Context, packages []string) error {
	if len(packages) == 0 {
		return nil
	}
	args := append([]string{"-m", "pip", "install"}, packages...)
	result, err := c.pythonExecutor().Execute(ctx, platform.Invocation{Executable: c.python(), Args: args})
	if err != nil {
		return fmt.Errorf("pip install: %w", err)
	}
	if result.ExitCode != 0 {
		return fmt.Errorf("pip install: exit status %d: %s", result.ExitCode, strings.TrimSpace(result.Output()))
	}
	return nil
}

// CreateVenv creates a virtualenv at dir using the host python3.
func (c Checker) CreateVenv(ctx context.Context, dir string) error {
	result, err := c.pythonExecutor().Execute(ctx, platform.Invocation{
		Executable: "python3",
		Args:       []string{"-m", "venv", dir},
	})
	if err != nil {
		return fmt.Errorf("create venv: %w", err)
	}
	if result.ExitCode != 0 {
		return fmt.Errorf("create venv: exit status %d: %s", result.ExitCode, strings.TrimSpace(result.Output()))
	}
	return nil
}
