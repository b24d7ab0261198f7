// Package errors defines the sentinel errors shared by the index, the
// storage backends and the query engine, plus a small wrapper that attaches
// a human-readable message to a sentinel.
package errors

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidArgument  = errors.New("invalid argument")
	ErrCorruptIndex     = errors.New("corrupt or missing index")
	ErrFieldNotIndexed  = errors.New("field not indexed")
	ErrMissingNorm      = errors.New("missing document norm")
	ErrUnknownTokenizer = errors.New("unknown tokenizer")
	ErrDecodePostings   = errors.New("cannot decode postings")

	// ErrNoIndex marks the ErrCorruptIndex case where nothing was ever
	// written at the location.
	ErrNoIndex = errors.New("no index")
)

type AppError struct {
	Err     error
	Message string
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(sentinel error, message string) *AppError {
	return &AppError{
		Err:     sentinel,
		Message: message,
	}
}

func Newf(sentinel error, format string, args ...any) *AppError {
	return &AppError{
		Err:     sentinel,
		Message: fmt.Sprintf(format, args...),
	}
}

// NoIndex reports that nothing is persisted at where. The error matches
// both ErrCorruptIndex and ErrNoIndex.
func NoIndex(where string) error {
	return fmt.Errorf("%w: %w at %s", ErrCorruptIndex, ErrNoIndex, where)
}

// ExitCode maps an error returned by the index to a process exit status.
// Argument errors are reported to the user but are not treated as failures.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, ErrInvalidArgument):
		return 0
	case errors.Is(err, ErrCorruptIndex):
		return 2
	default:
		return 1
	}
}
