package invoke

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for converter invocation.
var (
	ErrConverterFailed   = errors.New("converter failed")
	ErrConverterTimeout  = errors.New("converter timed out")
	ErrConverterNotFound = errors.New("converter not found")
	ErrEmptyCommand      = errors.New("converter command cannot be empty")
	ErrEmptyDir          = errors.New("documents directory cannot be empty")
	ErrUnknownFlagSet    = errors.New("unknown flag set")
)

// ExitError reports a converter that ran to completion with a non-zero status.
type ExitError struct {
	FlagSet FlagSet
	Code    int
	Stderr  string
}

func (e *ExitError) Error() string {
	msg := fmt.Sprintf("converter exited with status %d (%s)", e.Code, e.FlagSet)
	if stderr := strings.TrimSpace(e.Stderr); stderr != "" {
		msg += ": " + stderr
	}
	return msg
}

// Unwrap lets errors.Is match ErrConverterFailed.
func (e *ExitError) Unwrap() error {
	return ErrConverterFailed
}
