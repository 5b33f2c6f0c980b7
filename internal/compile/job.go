package compile

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"decompdesk/internal/diff"
	"decompdesk/internal/toolchain"
)

// ErrInFlight is returned when a compile for the same target is running.
// The request is dropped, not queued.
var ErrInFlight = errors.New("compile already running for target")

// Job is one compile of a scratch.
type Job struct {
	// Target keys single-flight; usually the scratch slug.
	Target string
	// Dir is the working directory, created on demand.
	Dir string
	// Source is compiled relative to Dir.
	Source string
	// Flags are passed through verbatim after splitting on whitespace.
	Flags    string
	Symbol   string
	Expected string
	// Toolchain is nil when the scratch has to compile remotely.
	Toolchain *toolchain.Descriptor
}

// ObjectPath is where the compiler writes the object for j.
func (j Job) ObjectPath() string {
	ext := ".obj"
	if j.Toolchain != nil && j.Toolchain.ObjectExt != "" {
		ext = j.Toolchain.ObjectExt
	}
	stem := strings.TrimSuffix(filepath.Base(j.Source), filepath.Ext(j.Source))
	return filepath.Join(j.Dir, stem+ext)
}

// State is the lifecycle of a target's latest compile.
type State int

const (
	StateIdle State = iota
	StateRunning
	StateSucceeded
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// OutcomeKind classifies a finished request.
type OutcomeKind int

const (
	OutcomeSucceeded OutcomeKind = iota + 1
	OutcomeFailed
	// OutcomeNoLocalToolchain routes the compile to a remote server. It is
	// not a failure.
	OutcomeNoLocalToolchain
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSucceeded:
		return "succeeded"
	case OutcomeFailed:
		return "failed"
	case OutcomeNoLocalToolchain:
		return "no local toolchain"
	default:
		return "unknown"
	}
}

// Outcome is the result of RequestCompile.
type Outcome struct {
	Kind        OutcomeKind
	Diff        diff.Result
	Diagnostics string
	// Err is a *platform.SpawnError, a *CompileError or a *diff.Error when
	// Kind is OutcomeFailed.
	Err error
}

// CompileError reports a compiler that ran and exited non-zero.
type CompileError struct {
	ExitCode int
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("compiler exited with status %d", e.ExitCode)
}
