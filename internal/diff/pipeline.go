package diff

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"decompdesk/internal/platform"
)

const defaultPython = "python3"

// Pipeline runs asm-differ's diff.py over staged objects and folds its
// JSON rows into a Result.
type Pipeline struct {
	// ToolDir holds diff.py and diff_settings.py.
	ToolDir string
	// Python is the interpreter; python3 when empty.
	Python   string
	Mode     ExchangeMode
	Executor platform.Executor
	Cache    *Cache
	Logger   *log.Logger
}

func (p *Pipeline) logger() *log.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return log.New(io.Discard, "", 0)
}

// Open creates an exchange in the pipeline's mode.
func (p *Pipeline) Open() (*Exchange, error) {
	return OpenExchange(p.Mode, p.ToolDir)
}

// Compare diffs the objects staged in ex for symbol. Both objects must exist
// or the tool is not started.
func (p *Pipeline) Compare(ctx context.Context, ex *Exchange, symbol string) (Result, error) {
	if path, missing := ex.missing(); missing {
		return Result{}, &Error{Kind: KindMissingObject, Path: path, Err: errors.New("object not staged")}
	}
	if symbol == "" {
		return Result{}, &Error{Kind: KindTool, Err: errors.New("no symbol to diff")}
	}

	expected, err := os.ReadFile(ex.ExpectedPath())
	if err != nil {
		return Result{}, &Error{Kind: KindMissingObject, Path: ex.ExpectedPath(), Err: err}
	}
	current, err := os.ReadFile(ex.CurrentPath())
	if err != nil {
		return Result{}, &Error{Kind: KindMissingObject, Path: ex.CurrentPath(), Err: err}
	}
	key := Key(expected, current, symbol)
	if cached, ok := p.Cache.Get(key); ok {
		p.logger().Printf("diff %s: cache hit", symbol)
		return cached, nil
	}

	python := p.Python
	if python == "" {
		python = defaultPython
	}
	inv := platform.Invocation{
		Executable: python,
		Args: []string{
			filepath.Join(p.ToolDir, "diff.py"),
			"-o", "--no-pager",
			"--format", "json",
			"-f", CurrentObject,
			symbol,
		},
		Dir: ex.Dir,
	}
	run, err := p.Executor.Execute(ctx, inv)
	if err != nil {
		return Result{}, &Error{Kind: KindTool, Err: err}
	}
	if run.ExitCode != 0 {
		return Result{}, &Error{Kind: KindTool, ExitCode: run.ExitCode, Output: run.Output()}
	}

	result, err := Parse([]byte(run.Stdout))
	if err != nil {
		return Result{}, err
	}
	p.Cache.Add(key, result)
	p.logger().Printf("diff %s: score %d/%d (%s)", symbol, result.CurrentScore, result.MaxScore, result.MatchPercent())
	return result, nil
}

// CompareFiles stages expected and current in a fresh exchange and compares
// them.
func (p *Pipeline) CompareFiles(ctx context.Context, expected, current, symbol string) (Result, error) {
	ex, err := p.Open()
	if err != nil {
		return Result{}, fmt.Errorf("open exchange: %w", err)
	}
	defer ex.Close()

	if err := ex.Stage(expected, current); err != nil {
		return Result{}, err
	}
	return p.Compare(ctx, ex, symbol)
}
