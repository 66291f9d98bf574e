// Package invoke runs the external converter once per rendering configuration.
//
// The converter contract is
//
//	<command> --preserve-source --no-copy-css [--toc] [--number-sections] --dir <documents>
//
// with every flag name configurable. The converter writes its HTML next to the
// sources; this package only reports whether the process succeeded.
package invoke

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"
)

// DefaultTimeout bounds a single converter invocation.
const DefaultTimeout = 2 * time.Minute

// Flags holds the converter's flag names.
type Flags struct {
	PreserveSource string
	NoStylesheet   string
	TOC            string
	NumberSections string
	Dir            string
}

// DefaultFlags returns the flag names of the reference converter.
func DefaultFlags() Flags {
	return Flags{
		PreserveSource: "--preserve-source",
		NoStylesheet:   "--no-copy-css",
		TOC:            "--toc",
		NumberSections: "--number-sections",
		Dir:            "--dir",
	}
}

// Command describes how to start the converter.
type Command struct {
	// Name is the program, looked up in PATH unless it contains a separator.
	Name string
	// Args are passed before the contract flags (e.g. a script path).
	Args  []string
	Flags Flags
}

// Argv returns the full argument list (without Name) for one configuration.
func (c Command) Argv(set FlagSet, dir string) []string {
	flags := c.Flags
	args := make([]string, 0, len(c.Args)+6)
	args = append(args, c.Args...)
	if flags.PreserveSource != "" {
		args = append(args, flags.PreserveSource)
	}
	if flags.NoStylesheet != "" {
		args = append(args, flags.NoStylesheet)
	}
	args = append(args, set.Args(flags)...)
	return append(args, flags.Dir, dir)
}

// Line renders the command line for one configuration, for logs and hints.
func (c Command) Line(set FlagSet, dir string) string {
	return strings.Join(append([]string{c.Name}, c.Argv(set, dir)...), " ")
}

// Invoker runs the converter against a documents directory.
type Invoker struct {
	runner  Runner
	command Command
	dir     string
	timeout time.Duration
	logger  *slog.Logger
}

// Option configures an Invoker.
type Option func(*Invoker)

// WithTimeout overrides DefaultTimeout. Non-positive values are ignored.
func WithTimeout(d time.Duration) Option {
	return func(i *Invoker) {
		if d > 0 {
			i.timeout = d
		}
	}
}

// WithLogger sets the logger for command lines and captured output.
func WithLogger(l *slog.Logger) Option {
	return func(i *Invoker) {
		if l != nil {
			i.logger = l
		}
	}
}

// New creates an Invoker. A nil runner uses ExecRunner.
func New(runner Runner, command Command, dir string, opts ...Option) (*Invoker, error) {
	if strings.TrimSpace(command.Name) == "" {
		return nil, ErrEmptyCommand
	}
	if strings.TrimSpace(dir) == "" {
		return nil, ErrEmptyDir
	}
	if command.Flags == (Flags{}) {
		command.Flags = DefaultFlags()
	}
	if command.Flags.Dir == "" {
		command.Flags.Dir = DefaultFlags().Dir
	}
	if runner == nil {
		runner = &ExecRunner{}
	}

	inv := &Invoker{
		runner:  runner,
		command: command,
		dir:     dir,
		timeout: DefaultTimeout,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(inv)
	}
	return inv, nil
}

// Command returns the configured converter command.
func (i *Invoker) Command() Command {
	return i.command
}

// Convert runs the converter once for set and waits for it.
//
// Errors: *ExitError (matches ErrConverterFailed) for a non-zero status,
// ErrConverterTimeout when the invocation exceeded its timeout,
// ErrConverterNotFound when the program cannot be started, and the bare
// context error when ctx itself was canceled.
func (i *Invoker) Convert(ctx context.Context, set FlagSet) (Result, error) {
	runCtx, cancel := context.WithTimeout(ctx, i.timeout)
	defer cancel()

	args := i.command.Argv(set, i.dir)
	i.logger.Info("invoking converter", "flagset", set.String(), "command", i.command.Line(set, i.dir))

	res, err := i.runner.Run(runCtx, i.command.Name, args...)
	i.logger.Debug("converter finished",
		"flagset", set.String(),
		"exit", res.ExitCode,
		"duration", res.Duration,
		"stdout", strings.TrimSpace(res.Stdout),
		"stderr", strings.TrimSpace(res.Stderr))

	if err != nil {
		if ctx.Err() != nil {
			return res, ctx.Err()
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return res, fmt.Errorf("%w after %s (%s)", ErrConverterTimeout, i.timeout, set)
		}
		return res, err
	}
	if res.ExitCode != 0 {
		return res, &ExitError{FlagSet: set, Code: res.ExitCode, Stderr: res.Stderr}
	}
	return res, nil
}
