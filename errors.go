package regress

import "errors"

// Sentinel errors for harness operations.
var (
	ErrNilConfig        = errors.New("config cannot be nil")
	ErrDocumentsMissing = errors.New("documents directory not found")
	ErrNoVerifiers      = errors.New("no verifiers selected")

	// ErrSetup marks a check that never reached its verifier: the converter
	// failed for its configuration, or its rendered document is missing or
	// unreadable.
	ErrSetup = errors.New("setup failed")
)
