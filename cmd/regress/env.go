package main

import (
	"io"
	"os"
	"time"

	"github.com/fatih/color"
)

// Environment holds injectable dependencies for testability.
type Environment struct {
	Now    func() time.Time
	Stdout io.Writer
	Stderr io.Writer
	// Color enables bold labels in the text report.
	Color bool
}

// DefaultEnv returns the production environment.
func DefaultEnv() *Environment {
	return &Environment{
		Now:    time.Now,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
		Color:  !color.NoColor,
	}
}
