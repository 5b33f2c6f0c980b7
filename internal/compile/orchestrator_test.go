package compile

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"decompdesk/internal/diff"
	"decompdesk/internal/platform"
	"decompdesk/internal/toolchain"
)

// fakeCompiler records launches and writes the object the job expects.
type fakeCompiler struct {
	mu       sync.Mutex
	launches []platform.LaunchSpec
	started  chan struct{}
	release  chan struct{}
	result   platform.Result
	err      error
	object   string
}

func (f *fakeCompiler) Run(_ context.Context, spec platform.LaunchSpec) (platform.Result, error) {
	f.mu.Lock()
	f.launches = append(f.launches, spec)
	f.mu.Unlock()
	if f.started != nil {
		f.started <- struct{}{}
	}
	if f.release != nil {
		<-f.release
	}
	if f.err == nil && f.result.ExitCode == 0 && f.object != "" {
		if err := os.WriteFile(filepath.Join(spec.Dir, f.object), []byte("compiled"), 0o644); err != nil {
			return platform.Result{}, err
		}
	}
	return f.result, f.err
}

func (f *fakeCompiler) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.launches)
}

type fakeDiffer struct {
	mu      sync.Mutex
	calls   int
	symbols []string
	staged  []string
	result  diff.Result
	err     error
	toolDir string
}

func (f *fakeDiffer) Open() (*diff.Exchange, error) {
	return diff.OpenExchange(diff.ExchangeJob, f.toolDir)
}

func (f *fakeDiffer) Compare(_ context.Context, ex *diff.Exchange, symbol string) (diff.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.symbols = append(f.symbols, symbol)
	data, _ := os.ReadFile(ex.CurrentPath())
	f.staged = append(f.staged, string(data))
	return f.result, f.err
}

type fixture struct {
	orch     *Orchestrator
	compiler *fakeCompiler
	differ   *fakeDiffer
	job      Job
	registry *toolchain.Registry
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	root := t.TempDir()
	tc := toolchain.Descriptor{
		Platform:  toolchain.PlatformWin32,
		Version:   "msvc6.0",
		Compiler:  "cl.exe",
		ObjectExt: ".obj",
		ABI:       platform.ABIWindows,
	}
	registry := toolchain.NewRegistry(filepath.Join(root, "toolchains"), toolchain.WithCatalog([]toolchain.Descriptor{tc}))
	layout := registry.Layout(tc)
	if err := os.MkdirAll(layout.BinDir, 0o755); err != nil {
		t.Fatal(err)
	}

	expected := filepath.Join(root, "target.o")
	if err := os.WriteFile(expected, []byte("target"), 0o644); err != nil {
		t.Fatal(err)
	}

	compiler := &fakeCompiler{object: "code.obj"}
	differ := &fakeDiffer{toolDir: t.TempDir(), result: diff.Result{BaseText: "A\n", CurrentText: "A\n", MaxScore: 10}}
	orch := &Orchestrator{
		Toolchains: registry,
		Differ:     differ,
		Runner:     compiler,
		HostOS:     "linux",
		Environ:    func() []string { return []string{"PATH=/usr/bin"} },
	}
	return &fixture{
		orch:     orch,
		compiler: compiler,
		differ:   differ,
		registry: registry,
		job: Job{
			Target:    "abc12",
			Dir:       filepath.Join(root, "scratches", "abc12"),
			Source:    "code.c",
			Flags:     "/c  /O2\t/Gd",
			Symbol:    "_func",
			Expected:  expected,
			Toolchain: &tc,
		},
	}
}

func TestRequestCompileSucceeds(t *testing.T) {
	f := newFixture(t)

	outcome, err := f.orch.RequestCompile(context.Background(), f.job)
	if err != nil {
		t.Fatalf("RequestCompile: %v", err)
	}
	if outcome.Kind != OutcomeSucceeded {
		t.Fatalf("outcome = %v (%v)", outcome.Kind, outcome.Err)
	}
	if outcome.Diff.MaxScore != 10 {
		t.Fatalf("unexpected diff %+v", outcome.Diff)
	}
	if got := f.orch.State(f.job.Target); got != StateSucceeded {
		t.Fatalf("state = %v", got)
	}

	spec := f.compiler.launches[0]
	if spec.Program != "wine" {
		t.Fatalf("program = %q, want wine on a linux host", spec.Program)
	}
	if diff := cmp.Diff([]string{"cmd.exe", "/c", "cl.exe code.c /c /O2 /Gd"}, spec.Args); diff != "" {
		t.Fatalf("args mismatch (-want +got):\n%s", diff)
	}
	if spec.Dir != f.job.Dir {
		t.Fatalf("dir = %q, want %q", spec.Dir, f.job.Dir)
	}
	layout := f.registry.Layout(*f.job.Toolchain)
	if got := platform.EnvValue(spec.Env, "INCLUDE"); got != platform.ToWinePath(layout.IncludeDir) {
		t.Fatalf("INCLUDE = %q", got)
	}
	if got := platform.EnvValue(spec.Env, "WINEPATH"); got != platform.ToWinePath(layout.BinDir) {
		t.Fatalf("WINEPATH = %q", got)
	}
	if diff := cmp.Diff([]string{"compiled"}, f.differ.staged); diff != "" {
		t.Fatalf("staged object mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"_func"}, f.differ.symbols); diff != "" {
		t.Fatalf("symbol mismatch (-want +got):\n%s", diff)
	}
}

func TestRequestCompileNativeOnWindowsHost(t *testing.T) {
	f := newFixture(t)
	f.orch.HostOS = "windows"

	if _, err := f.orch.RequestCompile(context.Background(), f.job); err != nil {
		t.Fatal(err)
	}
	spec := f.compiler.launches[0]
	if spec.Program != "cl.exe" {
		t.Fatalf("program = %q, want direct cl.exe", spec.Program)
	}
	layout := f.registry.Layout(*f.job.Toolchain)
	if got := platform.EnvValue(spec.Env, "PATH"); got != layout.BinDir+";/usr/bin" {
		t.Fatalf("PATH = %q", got)
	}
}

func TestRequestCompileSelectsStrategyOncePerABI(t *testing.T) {
	f := newFixture(t)

	for i := 0; i < 3; i++ {
		if _, err := f.orch.RequestCompile(context.Background(), f.job); err != nil {
			t.Fatal(err)
		}
	}
	// The host is fixed for the process; later changes are not consulted.
	f.orch.HostOS = "windows"
	if _, err := f.orch.RequestCompile(context.Background(), f.job); err != nil {
		t.Fatal(err)
	}

	if got := len(f.orch.adapters); got != 1 {
		t.Fatalf("cached adapters = %d, want 1", got)
	}
	for i, spec := range f.compiler.launches {
		if spec.Program != "wine" {
			t.Fatalf("launch %d program = %q, want wine", i, spec.Program)
		}
	}
}

func TestRequestCompileSingleFlight(t *testing.T) {
	f := newFixture(t)
	f.compiler.started = make(chan struct{}, 1)
	f.compiler.release = make(chan struct{})

	done := make(chan Outcome, 1)
	go func() {
		outcome, err := f.orch.RequestCompile(context.Background(), f.job)
		if err != nil {
			t.Errorf("first RequestCompile: %v", err)
		}
		done <- outcome
	}()

	select {
	case <-f.compiler.started:
	case <-time.After(5 * time.Second):
		t.Fatal("compiler never started")
	}
	if got := f.orch.State(f.job.Target); got != StateRunning {
		t.Fatalf("state while compiling = %v", got)
	}

	_, err := f.orch.RequestCompile(context.Background(), f.job)
	if !errors.Is(err, ErrInFlight) {
		t.Fatalf("second request err = %v, want ErrInFlight", err)
	}

	close(f.compiler.release)
	outcome := <-done
	if outcome.Kind != OutcomeSucceeded {
		t.Fatalf("first outcome = %v (%v)", outcome.Kind, outcome.Err)
	}
	if n := f.compiler.count(); n != 1 {
		t.Fatalf("expected exactly one launch, got %d", n)
	}

	// A finished target accepts new requests.
	f.compiler.started = nil
	f.compiler.release = nil
	if _, err := f.orch.RequestCompile(context.Background(), f.job); err != nil {
		t.Fatalf("request after completion: %v", err)
	}
	if n := f.compiler.count(); n != 2 {
		t.Fatalf("expected second launch, got %d", n)
	}
}

func TestRequestCompileDifferentTargetsRunConcurrently(t *testing.T) {
	f := newFixture(t)
	f.compiler.started = make(chan struct{}, 2)
	f.compiler.release = make(chan struct{})

	other := f.job
	other.Target = "xyz99"
	other.Dir = filepath.Join(filepath.Dir(f.job.Dir), "xyz99")

	var wg sync.WaitGroup
	for _, job := range []Job{f.job, other} {
		wg.Add(1)
		go func(job Job) {
			defer wg.Done()
			if _, err := f.orch.RequestCompile(context.Background(), job); err != nil {
				t.Errorf("RequestCompile(%s): %v", job.Target, err)
			}
		}(job)
	}
	for i := 0; i < 2; i++ {
		select {
		case <-f.compiler.started:
		case <-time.After(5 * time.Second):
			t.Fatal("both targets should compile at once")
		}
	}
	close(f.compiler.release)
	wg.Wait()
}

func TestRequestCompileNoLocalToolchain(t *testing.T) {
	f := newFixture(t)

	remote := f.job
	remote.Toolchain = nil
	outcome, err := f.orch.RequestCompile(context.Background(), remote)
	if err != nil || outcome.Kind != OutcomeNoLocalToolchain {
		t.Fatalf("nil toolchain: outcome=%v err=%v", outcome.Kind, err)
	}

	missing := *f.job.Toolchain
	missing.Version = "msvc8.0"
	notInstalled := f.job
	notInstalled.Toolchain = &missing
	outcome, err = f.orch.RequestCompile(context.Background(), notInstalled)
	if err != nil || outcome.Kind != OutcomeNoLocalToolchain {
		t.Fatalf("uninstalled toolchain: outcome=%v err=%v", outcome.Kind, err)
	}
	if n := f.compiler.count(); n != 0 {
		t.Fatalf("no subprocess expected, got %d launches", n)
	}
}

func TestRequestCompileFailureSkipsDiff(t *testing.T) {
	f := newFixture(t)
	f.compiler.result = platform.Result{Stdout: "code.c(3) : error C2065: 'x' : undeclared identifier", Stderr: "fatal", ExitCode: 2}

	outcome, err := f.orch.RequestCompile(context.Background(), f.job)
	if err != nil {
		t.Fatal(err)
	}
	if outcome.Kind != OutcomeFailed {
		t.Fatalf("outcome = %v", outcome.Kind)
	}
	if !strings.Contains(outcome.Diagnostics, "C2065") || !strings.Contains(outcome.Diagnostics, "fatal") {
		t.Fatalf("diagnostics = %q", outcome.Diagnostics)
	}
	var compileErr *CompileError
	if !errors.As(outcome.Err, &compileErr) || compileErr.ExitCode != 2 {
		t.Fatalf("expected *CompileError, got %v", outcome.Err)
	}
	if f.differ.calls != 0 {
		t.Fatal("diff must not run after a failed compile")
	}
	if got := f.orch.State(f.job.Target); got != StateFailed {
		t.Fatalf("state = %v", got)
	}
}

func TestRequestCompileSpawnFailure(t *testing.T) {
	f := newFixture(t)
	f.compiler.err = &platform.SpawnError{Program: "wine", Err: errors.New("executable file not found")}

	outcome, err := f.orch.RequestCompile(context.Background(), f.job)
	if err != nil {
		t.Fatal(err)
	}
	if outcome.Kind != OutcomeFailed || !errors.Is(outcome.Err, platform.ErrSpawn) {
		t.Fatalf("outcome = %v err = %v", outcome.Kind, outcome.Err)
	}
	if !strings.Contains(outcome.Diagnostics, "executable file not found") {
		t.Fatalf("diagnostics = %q", outcome.Diagnostics)
	}
}

func TestRequestCompileDiffFailureIsDistinct(t *testing.T) {
	f := newFixture(t)
	f.differ.err = &diff.Error{Kind: diff.KindTool, ExitCode: 1}

	outcome, err := f.orch.RequestCompile(context.Background(), f.job)
	if err != nil {
		t.Fatal(err)
	}
	if outcome.Kind != OutcomeFailed {
		t.Fatalf("outcome = %v", outcome.Kind)
	}
	var diffErr *diff.Error
	if !errors.As(outcome.Err, &diffErr) {
		t.Fatalf("expected *diff.Error, got %v", outcome.Err)
	}
	var compileErr *CompileError
	if errors.As(outcome.Err, &compileErr) {
		t.Fatal("diff failure must not look like a compile failure")
	}
}

func TestRequestCompileMissingObjectAfterSuccess(t *testing.T) {
	f := newFixture(t)
	f.compiler.object = ""

	outcome, err := f.orch.RequestCompile(context.Background(), f.job)
	if err != nil {
		t.Fatal(err)
	}
	var diffErr *diff.Error
	if outcome.Kind != OutcomeFailed || !errors.As(outcome.Err, &diffErr) || diffErr.Kind != diff.KindMissingObject {
		t.Fatalf("outcome = %v err = %v", outcome.Kind, outcome.Err)
	}
	if f.differ.calls != 0 {
		t.Fatal("diff must not run without an object")
	}
}

func TestNotifyReportsTransitions(t *testing.T) {
	f := newFixture(t)
	var states []State
	f.orch.Notify = func(_ string, s State) { states = append(states, s) }

	if _, err := f.orch.RequestCompile(context.Background(), f.job); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]State{StateRunning, StateSucceeded}, states); diff != "" {
		t.Fatalf("transitions mismatch (-want +got):\n%s", diff)
	}
}

func TestJobObjectPath(t *testing.T) {
	job := Job{Dir: "/w", Source: "code.c", Toolchain: &toolchain.Descriptor{ObjectExt: ".obj"}}
	if got := job.ObjectPath(); got != filepath.Join("/w", "code.obj") {
		t.Fatalf("ObjectPath = %q", got)
	}
	job.Toolchain = nil
	if got := job.ObjectPath(); got != filepath.Join("/w", "code.obj") {
		t.Fatalf("ObjectPath without toolchain = %q", got)
	}
}
