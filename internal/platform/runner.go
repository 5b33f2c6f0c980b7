package platform

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"
)

// ErrSpawn matches failures to start a process.
var ErrSpawn = errors.New("process could not be started")

// SpawnError reports a program that never ran.
type SpawnError struct {
	Program string
	Err     error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("start %s: %v", e.Program, e.Err)
}

func (e *SpawnError) Unwrap() error {
	return e.Err
}

func (e *SpawnError) Is(target error) bool {
	return target == ErrSpawn
}

// Result captures a finished process. A non-zero ExitCode is not an error.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Output joins stdout and stderr the way diagnostics are shown to users.
func (r Result) Output() string {
	switch {
	case r.Stdout == "":
		return r.Stderr
	case r.Stderr == "":
		return r.Stdout
	case strings.HasSuffix(r.Stdout, "\n"):
		return r.Stdout + r.Stderr
	default:
		return r.Stdout + "\n" + r.Stderr
	}
}

// Runner starts a launch spec and waits for it.
type Runner interface {
	Run(ctx context.Context, spec LaunchSpec) (Result, error)
}

// CmdRunner runs launch specs with os/exec.
type CmdRunner struct {
	// Stdout and Stderr, when set, receive a live copy of the output.
	Stdout io.Writer
	Stderr io.Writer
}

func (r CmdRunner) Run(ctx context.Context, spec LaunchSpec) (Result, error) {
	program := resolveProgram(spec.Program, spec.Env)
	cmd := exec.CommandContext(ctx, program, spec.Args...)
	if spec.Dir != "" {
		cmd.Dir = spec.Dir
	}
	if len(spec.Env) > 0 {
		cmd.Env = spec.Env
	}
	configureProcess(cmd)
	cmd.WaitDelay = 5 * time.Second

	var stdoutBuf, stderrBuf bytes.Buffer

	stdoutWriter := io.Writer(&stdoutBuf)
	if r.Stdout != nil {
		stdoutWriter = io.MultiWriter(&stdoutBuf, r.Stdout)
	}
	stderrWriter := io.Writer(&stderrBuf)
	if r.Stderr != nil {
		stderrWriter = io.MultiWriter(&stderrBuf, r.Stderr)
	}

	cmd.Stdout = stdoutWriter
	cmd.Stderr = stderrWriter

	if err := cmd.Start(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Result{}, fmt.Errorf("run %s: %w", spec.Program, ctxErr)
		}
		return Result{}, &SpawnError{Program: spec.Program, Err: err}
	}
	err := cmd.Wait()
	result := Result{Stdout: stdoutBuf.String(), Stderr: stderrBuf.String(), ExitCode: cmd.ProcessState.ExitCode()}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return result, fmt.Errorf("run %s: %w", spec.Program, ctxErr)
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return result, nil
		}
		return result, fmt.Errorf("run %s: %w", spec.Program, err)
	}
	return result, nil
}

var _ Runner = CmdRunner{}

// resolveProgram looks a bare program name up in the PATH carried by env.
// exec.Command only consults the parent's PATH, which misses toolchain
// directories added by an overlay.
func resolveProgram(program string, env []string) string {
	if program == "" || strings.ContainsAny(program, `/\`) {
		return program
	}
	pathValue := EnvValue(env, "PATH")
	if pathValue == "" {
		return program
	}
	for _, dir := range filepath.SplitList(pathValue) {
		if dir == "" {
			continue
		}
		for _, name := range programCandidates(program) {
			candidate := filepath.Join(dir, name)
			info, err := os.Stat(candidate)
			if err != nil || info.IsDir() {
				continue
			}
			if runtime.GOOS != "windows" && info.Mode().Perm()&0o111 == 0 {
				continue
			}
			return candidate
		}
	}
	return program
}

func programCandidates(program string) []string {
	if runtime.GOOS != "windows" || filepath.Ext(program) != "" {
		return []string{program}
	}
	return []string{program, program + ".exe", program + ".bat", program + ".cmd"}
}

// Executor runs invocations through an adapter.
type Executor struct {
	Adapter Adapter
	Runner  Runner
	Logger  *log.Logger
}

// Execute prepares inv for the host and runs it.
func (e Executor) Execute(ctx context.Context, inv Invocation) (Result, error) {
	runner := e.Runner
	if runner == nil {
		runner = CmdRunner{}
	}
	spec := e.Adapter.Prepare(inv)
	if e.Logger != nil {
		e.Logger.Printf("exec [%s] dir=%s: %s", e.Adapter.Strategy, spec.Dir, spec.CommandLine())
	}
	result, err := runner.Run(ctx, spec)
	if e.Logger != nil {
		if err != nil {
			e.Logger.Printf("exec %s failed: %v", spec.Program, err)
		} else {
			e.Logger.Printf("exec %s exited %d", spec.Program, result.ExitCode)
		}
	}
	return result, err
}
