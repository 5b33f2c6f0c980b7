package platform

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func skipOnWindows(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}
}

func TestCmdRunnerCapturesOutputAndExitCode(t *testing.T) {
	skipOnWindows(t)

	spec := LaunchSpec{
		Program: "sh",
		Args:    []string{"-c", "echo out; echo err >&2; exit 3"},
		Env:     os.Environ(),
	}
	result, err := CmdRunner{}.Run(context.Background(), spec)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.ExitCode != 3 {
		t.Fatalf("exit code = %d, want 3", result.ExitCode)
	}
	if result.Stdout != "out\n" || result.Stderr != "err\n" {
		t.Fatalf("stdout=%q stderr=%q", result.Stdout, result.Stderr)
	}
	if got := result.Output(); got != "out\nerr\n" {
		t.Fatalf("Output() = %q", got)
	}
}

func TestCmdRunnerSpawnFailure(t *testing.T) {
	spec := LaunchSpec{Program: filepath.Join(t.TempDir(), "no-such-compiler")}
	_, err := CmdRunner{}.Run(context.Background(), spec)
	if !errors.Is(err, ErrSpawn) {
		t.Fatalf("expected ErrSpawn, got %v", err)
	}
	var spawnErr *SpawnError
	if !errors.As(err, &spawnErr) || spawnErr.Program != spec.Program {
		t.Fatalf("expected *SpawnError for %s, got %v", spec.Program, err)
	}
}

func TestCmdRunnerResolvesProgramFromOverlayPath(t *testing.T) {
	skipOnWindows(t)

	bin := t.TempDir()
	script := filepath.Join(bin, "fake-cl")
	if err := os.WriteFile(script, []byte("#!/bin/sh\necho compiled \"$1\"\n"), 0o755); err != nil {
		t.Fatal(err)
	}

	env := MergeEnv(os.Environ(), map[string]string{"PATH": bin}, ":")
	result, err := CmdRunner{}.Run(context.Background(), LaunchSpec{Program: "fake-cl", Args: []string{"code.c"}, Env: env})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Stdout != "compiled code.c\n" {
		t.Fatalf("stdout = %q", result.Stdout)
	}
}

func TestCmdRunnerRunsInDir(t *testing.T) {
	skipOnWindows(t)

	dir := t.TempDir()
	result, err := CmdRunner{}.Run(context.Background(), LaunchSpec{Program: "sh", Args: []string{"-c", "pwd -P"}, Dir: dir})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	want, _ := filepath.EvalSymlinks(dir)
	if got := filepath.Clean(result.Stdout[:len(result.Stdout)-1]); got != want {
		t.Fatalf("pwd = %q, want %q", got, want)
	}
}

func TestCmdRunnerCancelled(t *testing.T) {
	skipOnWindows(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := CmdRunner{}.Run(ctx, LaunchSpec{Program: "sh", Args: []string{"-c", "sleep 5"}})
	if err == nil {
		t.Fatal("expected error from cancelled context")
	}
}

type recordingRunner struct {
	specs  []LaunchSpec
	result Result
}

func (r *recordingRunner) Run(_ context.Context, spec LaunchSpec) (Result, error) {
	r.specs = append(r.specs, spec)
	return r.result, nil
}

func TestExecutorPreparesThenRuns(t *testing.T) {
	runner := &recordingRunner{result: Result{Stdout: "ok", ExitCode: 0}}
	adapter := Select("linux", ABIWindows)
	adapter.Environ = fixedEnv()
	exec := Executor{Adapter: adapter, Runner: runner}

	result, err := exec.Execute(context.Background(), Invocation{Executable: "cl.exe", Args: []string{"code.c"}})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if result.Stdout != "ok" {
		t.Fatalf("stdout = %q", result.Stdout)
	}
	if len(runner.specs) != 1 || runner.specs[0].Program != "wine" {
		t.Fatalf("unexpected launches: %+v", runner.specs)
	}
}
