package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppErrorUnwrap(t *testing.T) {
	err := Newf(ErrInvalidArgument, "field %q is empty", "body")
	assert.True(t, errors.Is(err, ErrInvalidArgument))
	assert.Equal(t, `invalid argument: field "body" is empty`, err.Error())

	wrapped := fmt.Errorf("searching: %w", err)
	var appErr *AppError
	assert.True(t, errors.As(wrapped, &appErr))
	assert.Equal(t, ErrInvalidArgument, appErr.Err)
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, 0},
		{"argument", New(ErrInvalidArgument, "word is required"), 0},
		{"corrupt", fmt.Errorf("opening: %w", ErrCorruptIndex), 2},
		{"io", errors.New("disk on fire"), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExitCode(tt.err))
		})
	}
}

func TestNoIndex(t *testing.T) {
	err := fmt.Errorf("opening: %w", NoIndex("/tmp/idx"))
	assert.ErrorIs(t, err, ErrCorruptIndex)
	assert.ErrorIs(t, err, ErrNoIndex)
	assert.Equal(t, "opening: corrupt or missing index: no index at /tmp/idx", err.Error())
	assert.Equal(t, 2, ExitCode(err))
}
