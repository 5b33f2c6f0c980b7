package archive

import (
	"errors"
	"fmt"
)

// ErrCorrupt matches any error caused by undecodable archive contents.
var ErrCorrupt = errors.New("corrupt archive")

// Kind classifies an extraction failure.
type Kind int

const (
	// KindDecode means the archive itself could not be read.
	KindDecode Kind = iota + 1
	// KindIO means writing the extracted contents failed.
	KindIO
)

func (k Kind) String() string {
	switch k {
	case KindDecode:
		return "decode"
	case KindIO:
		return "io"
	default:
		return "unknown"
	}
}

// Error describes a failed extraction.
type Error struct {
	Kind  Kind
	Entry string
	Err   error
}

func (e *Error) Error() string {
	if e.Entry != "" {
		return fmt.Sprintf("extract %s: %s error: %v", e.Entry, e.Kind, e.Err)
	}
	return fmt.Sprintf("extract: %s error: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrCorrupt) match decode failures.
func (e *Error) Is(target error) bool {
	return target == ErrCorrupt && e.Kind == KindDecode
}

func decodeError(entry string, err error) error {
	return &Error{Kind: KindDecode, Entry: entry, Err: err}
}

func ioError(entry string, err error) error {
	return &Error{Kind: KindIO, Entry: entry, Err: err}
}
