package diff

import (
	"errors"
	"fmt"
	"strings"
)

// ErrDiffTool matches every *Error.
var ErrDiffTool = errors.New("diff tool error")

// Kind classifies a diff failure.
type Kind int

const (
	// KindDecode means the tool output did not match the expected schema.
	KindDecode Kind = iota + 1
	// KindMissingObject means an exchange file was absent; the tool never ran.
	KindMissingObject
	// KindTool means the tool could not start or exited non-zero.
	KindTool
)

func (k Kind) String() string {
	switch k {
	case KindDecode:
		return "decode"
	case KindMissingObject:
		return "missing object"
	case KindTool:
		return "tool"
	default:
		return "unknown"
	}
}

// Error describes a failed diff.
type Error struct {
	Kind     Kind
	Path     string
	ExitCode int
	Output   string
	Err      error
}

func (e *Error) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "diff %s error", e.Kind)
	if e.Path != "" {
		fmt.Fprintf(&b, " (%s)", e.Path)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	if e.Kind == KindTool && e.ExitCode != 0 {
		fmt.Fprintf(&b, ": exit status %d", e.ExitCode)
	}
	if out := strings.TrimSpace(e.Output); out != "" {
		fmt.Fprintf(&b, "\n%s", out)
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	return target == ErrDiffTool
}

func decodeErr(format string, args ...any) error {
	return &Error{Kind: KindDecode, Err: fmt.Errorf(format, args...)}
}
