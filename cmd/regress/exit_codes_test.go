package main

// Notes:
// - exitCodeFor: we test every sentinel the run command can surface, plus
//   wrapped errors to verify the errors.Is() chain.
// - exitCodeForSummary: setup failures win over failed checks.

import (
	"errors"
	"fmt"
	"testing"

	regress "github.com/alnah/go-md2html-regress"
	"github.com/alnah/go-md2html-regress/internal/check"
	"github.com/alnah/go-md2html-regress/internal/config"
	"github.com/alnah/go-md2html-regress/internal/invoke"
	"github.com/alnah/go-md2html-regress/internal/verify"
)

// ---------------------------------------------------------------------------
// TestExitCodeFor - Error to exit code mapping
// ---------------------------------------------------------------------------

func TestExitCodeFor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil error", nil, ExitSuccess},

		// Setup errors (exit 3)
		{"setup", regress.ErrSetup, ExitSetup},
		{"documents missing", regress.ErrDocumentsMissing, ExitSetup},
		{"converter failed", invoke.ErrConverterFailed, ExitSetup},
		{"converter exit error", &invoke.ExitError{FlagSet: invoke.TOC, Code: 1}, ExitSetup},
		{"converter timeout", invoke.ErrConverterTimeout, ExitSetup},
		{"converter not found", invoke.ErrConverterNotFound, ExitSetup},
		{"wrapped documents missing", fmt.Errorf("run: %w", regress.ErrDocumentsMissing), ExitSetup},

		// Usage/config errors (exit 2)
		{"usage", errUsage, ExitUsage},
		{"config not found", config.ErrConfigNotFound, ExitUsage},
		{"config parse", config.ErrConfigParse, ExitUsage},
		{"config env", config.ErrConfigEnv, ExitUsage},
		{"field too long", config.ErrFieldTooLong, ExitUsage},
		{"invalid value", config.ErrInvalidValue, ExitUsage},
		{"empty command", invoke.ErrEmptyCommand, ExitUsage},
		{"empty dir", invoke.ErrEmptyDir, ExitUsage},
		{"unknown flag set", invoke.ErrUnknownFlagSet, ExitUsage},
		{"unknown verifier", verify.ErrUnknownVerifier, ExitUsage},
		{"no verifiers", regress.ErrNoVerifiers, ExitUsage},
		{"wrapped config parse", fmt.Errorf("loading: %w", config.ErrConfigParse), ExitUsage},

		// General errors (exit 1)
		{"unknown error", errors.New("something unexpected"), ExitFailure},
		{"wrapped unknown", fmt.Errorf("context: %w", errors.New("unknown")), ExitFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := exitCodeFor(tt.err); got != tt.want {
				t.Errorf("exitCodeFor(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestExitCodeForSummary - Summary to exit code mapping
// ---------------------------------------------------------------------------

func TestExitCodeForSummary(t *testing.T) {
	t.Parallel()

	pass := regress.Result{Verifier: "simple", FlagSet: invoke.Default, Status: regress.StatusPass}
	fail := regress.Result{Verifier: "toc", FlagSet: invoke.TOC, Status: regress.StatusFail,
		First: check.Failure{Kind: check.KindAssertion, Message: "title"}, Failures: 1}
	setup := regress.Result{Verifier: "toc", FlagSet: invoke.TOCNumbered, Status: regress.StatusSetup,
		First: check.Failure{Kind: check.KindSetup, Message: "converter failed"}, Failures: 1}

	tests := []struct {
		name    string
		results []regress.Result
		want    int
	}{
		{"all pass", []regress.Result{pass}, ExitSuccess},
		{"assertion failure", []regress.Result{pass, fail}, ExitFailure},
		{"setup failure", []regress.Result{pass, setup}, ExitSetup},
		{"setup wins over failure", []regress.Result{fail, setup}, ExitSetup},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s := &regress.Summary{Results: tt.results}
			if got := exitCodeForSummary(s); got != tt.want {
				t.Errorf("exitCodeForSummary() = %d, want %d", got, tt.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestExitCodeConstants - Unix convention compliance
// ---------------------------------------------------------------------------

func TestExitCodeConstants(t *testing.T) {
	t.Parallel()

	if ExitSuccess != 0 || ExitFailure != 1 || ExitUsage != 2 {
		t.Errorf("exit codes = %d/%d/%d, want 0/1/2", ExitSuccess, ExitFailure, ExitUsage)
	}
	if ExitSetup >= 126 {
		t.Errorf("ExitSetup = %d, should be < 126", ExitSetup)
	}
}
