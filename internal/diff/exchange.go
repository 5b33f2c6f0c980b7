package diff

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// File names diff.py -o expects inside its working directory.
const (
	ExpectedObject = "expected/obj.o"
	CurrentObject  = "obj.o"
	settingsFile   = "diff_settings.py"
)

// ExchangeMode selects where compared objects are staged.
type ExchangeMode string

const (
	// ExchangeJob stages every comparison in its own temporary directory.
	ExchangeJob ExchangeMode = "job"
	// ExchangeShared stages into the diff tool directory itself. Concurrent
	// comparisons overwrite each other's objects.
	ExchangeShared ExchangeMode = "shared"
)

// ParseExchangeMode validates a configured mode. Empty selects ExchangeJob.
func ParseExchangeMode(value string) (ExchangeMode, error) {
	switch ExchangeMode(value) {
	case "", ExchangeJob:
		return ExchangeJob, nil
	case ExchangeShared:
		return ExchangeShared, nil
	default:
		return "", fmt.Errorf("unknown exchange mode %q (want job or shared)", value)
	}
}

// Exchange is the working directory of one diff.py run.
type Exchange struct {
	Dir  string
	Mode ExchangeMode
}

// OpenExchange prepares an exchange for toolDir. Job exchanges get a copy of
// the tool's diff_settings.py and must be closed.
func OpenExchange(mode ExchangeMode, toolDir string) (*Exchange, error) {
	switch mode {
	case ExchangeShared:
		if err := os.MkdirAll(filepath.Join(toolDir, filepath.Dir(ExpectedObject)), 0o755); err != nil {
			return nil, fmt.Errorf("prepare shared exchange: %w", err)
		}
		return &Exchange{Dir: toolDir, Mode: ExchangeShared}, nil
	case ExchangeJob, "":
		dir, err := os.MkdirTemp("", "decompdesk-diff-")
		if err != nil {
			return nil, fmt.Errorf("create exchange dir: %w", err)
		}
		ex := &Exchange{Dir: dir, Mode: ExchangeJob}
		if err := os.MkdirAll(filepath.Join(dir, filepath.Dir(ExpectedObject)), 0o755); err != nil {
			ex.Close()
			return nil, fmt.Errorf("prepare exchange: %w", err)
		}
		settings := filepath.Join(toolDir, settingsFile)
		if _, err := os.Stat(settings); err == nil {
			if err := copyFile(settings, filepath.Join(dir, settingsFile)); err != nil {
				ex.Close()
				return nil, err
			}
		}
		return ex, nil
	default:
		return nil, fmt.Errorf("unknown exchange mode %q", mode)
	}
}

// ExpectedPath is where the target object is staged.
func (e *Exchange) ExpectedPath() string {
	return filepath.Join(e.Dir, filepath.FromSlash(ExpectedObject))
}

// CurrentPath is where the compiled object is staged.
func (e *Exchange) CurrentPath() string {
	return filepath.Join(e.Dir, CurrentObject)
}

// Stage copies the expected and current objects into the exchange.
func (e *Exchange) Stage(expected, current string) error {
	if err := copyFile(expected, e.ExpectedPath()); err != nil {
		return &Error{Kind: KindMissingObject, Path: expected, Err: err}
	}
	if err := copyFile(current, e.CurrentPath()); err != nil {
		return &Error{Kind: KindMissingObject, Path: current, Err: err}
	}
	return nil
}

// Close removes a job exchange. Shared exchanges are left in place.
func (e *Exchange) Close() error {
	if e == nil || e.Mode != ExchangeJob {
		return nil
	}
	return os.RemoveAll(e.Dir)
}

func (e *Exchange) missing() (string, bool) {
	for _, path := range []string{e.ExpectedPath(), e.CurrentPath()} {
		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			return path, true
		}
	}
	return "", false
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open %s: %w", src, err)
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("prepare %s: %w", filepath.Dir(dst), err)
	}
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("create %s: %w", dst, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copy %s: %w", src, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("close %s: %w", dst, err)
	}
	return nil
}
