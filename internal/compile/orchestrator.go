package compile

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"runtime"
	"strings"
	"sync"

	"decompdesk/internal/diff"
	"decompdesk/internal/platform"
	"decompdesk/internal/toolchain"
)

// Toolchains answers installed-state queries; *toolchain.Registry
// implements it.
type Toolchains interface {
	IsInstalled(d toolchain.Descriptor) bool
	Layout(d toolchain.Descriptor) toolchain.Layout
}

// Differ compares staged objects; *diff.Pipeline implements it.
type Differ interface {
	Open() (*diff.Exchange, error)
	Compare(ctx context.Context, ex *diff.Exchange, symbol string) (diff.Result, error)
}

// Orchestrator runs compiles, at most one per target at a time, and hands
// successful objects to the Differ.
type Orchestrator struct {
	Toolchains Toolchains
	Differ     Differ
	Runner     platform.Runner
	// HostOS selects the execution strategy; runtime.GOOS when empty. It is
	// read on the first compile for each ABI.
	HostOS string
	// Environ overrides the inherited environment of compiler processes.
	Environ func() []string
	Logger  *log.Logger
	// Notify, when set, is called on every state change.
	Notify func(target string, state State)

	mu       sync.Mutex
	states   map[string]State
	adapters map[platform.ABI]platform.Adapter
}

// adapterFor returns the execution strategy for abi. The host does not change
// while the process runs, so the choice is made once per ABI.
func (o *Orchestrator) adapterFor(abi platform.ABI) platform.Adapter {
	o.mu.Lock()
	defer o.mu.Unlock()
	if adapter, ok := o.adapters[abi]; ok {
		return adapter
	}
	hostOS := o.HostOS
	if hostOS == "" {
		hostOS = runtime.GOOS
	}
	adapter := platform.Select(hostOS, abi)
	adapter.Environ = o.Environ
	if o.adapters == nil {
		o.adapters = map[platform.ABI]platform.Adapter{}
	}
	o.adapters[abi] = adapter
	o.logger().Printf("%s toolchains run with the %s strategy on %s", abi, adapter.Strategy, hostOS)
	return adapter
}

// State returns the current state of target.
func (o *Orchestrator) State(target string) State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.states[target]
}

func (o *Orchestrator) setState(target string, state State) {
	o.mu.Lock()
	if o.states == nil {
		o.states = map[string]State{}
	}
	o.states[target] = state
	o.mu.Unlock()
	if o.Notify != nil {
		o.Notify(target, state)
	}
}

// tryStart marks target running unless it already is.
func (o *Orchestrator) tryStart(target string) bool {
	o.mu.Lock()
	if o.states == nil {
		o.states = map[string]State{}
	}
	if o.states[target] == StateRunning {
		o.mu.Unlock()
		return false
	}
	o.states[target] = StateRunning
	o.mu.Unlock()
	if o.Notify != nil {
		o.Notify(target, StateRunning)
	}
	return true
}

func (o *Orchestrator) logger() *log.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return log.New(io.Discard, "", 0)
}

// RequestCompile compiles job and diffs the result. A request for a target
// that is already running returns ErrInFlight without starting anything.
// A missing or uninstalled toolchain yields OutcomeNoLocalToolchain.
func (o *Orchestrator) RequestCompile(ctx context.Context, job Job) (Outcome, error) {
	if o.State(job.Target) == StateRunning {
		return Outcome{}, ErrInFlight
	}
	if job.Toolchain == nil || o.Toolchains == nil || !o.Toolchains.IsInstalled(*job.Toolchain) {
		o.logger().Printf("compile %s: no local toolchain", job.Target)
		return Outcome{Kind: OutcomeNoLocalToolchain}, nil
	}
	if !o.tryStart(job.Target) {
		return Outcome{}, ErrInFlight
	}

	outcome := o.run(ctx, job)
	if outcome.Kind == OutcomeSucceeded {
		o.setState(job.Target, StateSucceeded)
	} else {
		o.setState(job.Target, StateFailed)
	}
	return outcome, nil
}

func (o *Orchestrator) run(ctx context.Context, job Job) Outcome {
	tc := *job.Toolchain
	if err := os.MkdirAll(job.Dir, 0o755); err != nil {
		err = fmt.Errorf("prepare working dir: %w", err)
		return Outcome{Kind: OutcomeFailed, Diagnostics: err.Error(), Err: err}
	}

	executor := platform.Executor{Adapter: o.adapterFor(tc.ABI), Runner: o.Runner, Logger: o.Logger}

	args := append([]string{job.Source}, strings.Fields(job.Flags)...)
	inv := platform.Invocation{
		Executable: tc.Compiler,
		Args:       args,
		Dir:        job.Dir,
		Env:        o.Toolchains.Layout(tc).Overlay(),
	}

	o.logger().Printf("compile %s with %s: %s %s", job.Target, tc, tc.Compiler, strings.Join(args, " "))
	run, err := executor.Execute(ctx, inv)
	if err != nil {
		return Outcome{Kind: OutcomeFailed, Diagnostics: err.Error(), Err: err}
	}
	diagnostics := run.Output()
	if run.ExitCode != 0 {
		return Outcome{Kind: OutcomeFailed, Diagnostics: diagnostics, Err: &CompileError{ExitCode: run.ExitCode}}
	}

	result, err := o.compare(ctx, job)
	if err != nil {
		o.logger().Printf("compile %s: diff failed: %v", job.Target, err)
		return Outcome{Kind: OutcomeFailed, Diagnostics: diagnostics, Err: err}
	}
	return Outcome{Kind: OutcomeSucceeded, Diff: result, Diagnostics: diagnostics}
}

func (o *Orchestrator) compare(ctx context.Context, job Job) (diff.Result, error) {
	if o.Differ == nil {
		return diff.Result{}, fmt.Errorf("no diff pipeline configured")
	}
	ex, err := o.Differ.Open()
	if err != nil {
		return diff.Result{}, err
	}
	defer ex.Close()

	if err := ex.Stage(job.Expected, job.ObjectPath()); err != nil {
		return diff.Result{}, err
	}
	return o.Differ.Compare(ctx, ex, job.Symbol)
}
