package main

import (
	"errors"

	regress "github.com/alnah/go-md2html-regress"
	"github.com/alnah/go-md2html-regress/internal/config"
	"github.com/alnah/go-md2html-regress/internal/invoke"
	"github.com/alnah/go-md2html-regress/internal/verify"
)

// Exit codes for the regress CLI.
// Follows Unix conventions: 0=success, 1=general, 2=usage, and custom codes < 126.
const (
	ExitSuccess = 0 // Every check passed
	ExitFailure = 1 // A check failed, or an unexpected error
	ExitUsage   = 2 // Invalid flags, config, or verifier names
	ExitSetup   = 3 // Converter or rendered documents unusable
)

// exitCodeFor returns the appropriate exit code for an error.
// It uses errors.Is to check wrapped errors, so callers must use fmt.Errorf("%w", err).
func exitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	// Setup errors (exit 3)
	if errors.Is(err, regress.ErrSetup) ||
		errors.Is(err, regress.ErrDocumentsMissing) ||
		errors.Is(err, invoke.ErrConverterFailed) ||
		errors.Is(err, invoke.ErrConverterTimeout) ||
		errors.Is(err, invoke.ErrConverterNotFound) {
		return ExitSetup
	}

	// Usage/config errors (exit 2)
	if errors.Is(err, errUsage) ||
		errors.Is(err, config.ErrConfigNotFound) ||
		errors.Is(err, config.ErrConfigParse) ||
		errors.Is(err, config.ErrConfigEnv) ||
		errors.Is(err, config.ErrFieldTooLong) ||
		errors.Is(err, config.ErrInvalidValue) ||
		errors.Is(err, invoke.ErrEmptyCommand) ||
		errors.Is(err, invoke.ErrEmptyDir) ||
		errors.Is(err, invoke.ErrUnknownFlagSet) ||
		errors.Is(err, verify.ErrUnknownVerifier) ||
		errors.Is(err, regress.ErrNoVerifiers) {
		return ExitUsage
	}

	return ExitFailure
}

// exitCodeForSummary maps a finished run to an exit code. Setup failures
// take precedence over failed checks.
func exitCodeForSummary(s *regress.Summary) int {
	switch {
	case s.HasSetupFailures():
		return ExitSetup
	case s.Failed():
		return ExitFailure
	default:
		return ExitSuccess
	}
}
