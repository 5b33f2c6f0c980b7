package tools

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"sort"
	"time"

	"decompdesk/internal/platform"
)

// Checker probes the host for the programs compiling and diffing need.
type Checker struct {
	HostOS string
	Runner platform.Runner
	// Python replaces the python3 lookup, e.g. with a virtualenv interpreter.
	Python   string
	LookPath func(string) (string, error)
}

// NewChecker returns a checker for the running host.
func NewChecker(python string) Checker {
	return Checker{
		HostOS:   runtime.GOOS,
		Runner:   platform.CmdRunner{},
		Python:   python,
		LookPath: exec.LookPath,
	}
}

// Detect returns the status of each tool needed on the host.
func (c Checker) Detect(ctx context.Context) []Status {
	if ctx == nil {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
	}

	var statuses []Status
	for _, name := range KnownTools(c.hostOS()) {
		def, _ := Definition(name)
		statuses = append(statuses, c.detectOne(ctx, def))
	}
	sort.Slice(statuses, func(i, j int) bool { return statuses[i].Tool < statuses[j].Tool })
	return statuses
}

func (c Checker) detectOne(ctx context.Context, def ToolDefinition) Status {
	status := Status{Tool: def.Name, Minimum: def.MinimumVersion}
	adapter := platform.Select(c.hostOS(), def.ABI)
	executor := platform.Executor{Adapter: adapter, Runner: c.Runner}

	program := def.Executable
	switch {
	case def.Name == "python3" && c.Python != "":
		program = c.Python
		status.Source = SourceConfig
		status.Path = c.Python
	case adapter.Strategy == platform.StrategySubsystem:
		status.Source = SourceSubsystem
		status.Notes = append(status.Notes, "resolved inside wsl")
	default:
		path, err := c.lookPath(def.Executable)
		if err != nil {
			status.Error = fmt.Sprintf("%s not found in PATH", def.Executable)
			status.Notes = append(status.Notes, installHintsFor(def.Name, c.hostOS())...)
			return status
		}
		program = path
		status.Source = SourceSystem
		status.Path = path
	}

	if def.VersionSwitch == "" {
		status.Satisfied = true
		return status
	}

	version, err := readVersion(ctx, executor, def, program)
	if err != nil {
		status.Error = err.Error()
		status.Notes = append(status.Notes, installHintsFor(def.Name, c.hostOS())...)
		return status
	}
	status.Version = version
	status.Satisfied = meetsMinimum(version, def.MinimumVersion)
	if !status.Satisfied {
		status.Error = fmt.Sprintf("version %s below minimum %s", version, def.MinimumVersion)
		status.Notes = append(status.Notes, installHintsFor(def.Name, c.hostOS())...)
	}
	return status
}

func (c Checker) hostOS() string {
	if c.HostOS == "" {
		return runtime.GOOS
	}
	return c.HostOS
}

func (c Checker) lookPath(name string) (string, error) {
	if c.LookPath != nil {
		return c.LookPath(name)
	}
	return exec.LookPath(name)
}

func (c Checker) python() string {
	if c.Python != "" {
		return c.Python
	}
	return "python3"
}

// Satisfied reports whether every status is satisfied.
func Satisfied(statuses []Status) bool {
	for _, s := range statuses {
		if !s.Satisfied {
			return false
		}
	}
	return true
}
