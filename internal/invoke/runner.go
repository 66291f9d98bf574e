package invoke

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os/exec"
	"time"

	"github.com/alnah/go-md2html-regress/internal/process"
)

// Result is the structured outcome of one converter process.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
	Duration time.Duration
}

// Runner abstracts command execution to enable testing without real subprocesses.
//
// A process that ran and exited non-zero is not an error: its status is in
// Result.ExitCode. Errors are reserved for processes that could not start or
// were stopped because ctx ended.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (Result, error)
}

// defaultWaitDelay bounds how long Wait blocks on output pipes held open by
// grandchildren after the converter itself was killed.
const defaultWaitDelay = 2 * time.Second

// ExecRunner implements Runner using os/exec.
type ExecRunner struct {
	// Dir is the working directory of the converter. Empty means the current one.
	Dir string
	// Env replaces the environment when non-nil.
	Env []string
}

// Run starts name in its own process group and waits for it. When ctx ends
// the whole group is killed.
func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) (Result, error) {
	cmd := exec.CommandContext(ctx, name, args...) // #nosec G204 -- the converter command is user configuration
	cmd.Dir = r.Dir
	cmd.Env = r.Env
	cmd.WaitDelay = defaultWaitDelay
	process.Isolate(cmd)
	cmd.Cancel = func() error {
		process.KillProcessGroup(cmd.Process.Pid)
		return cmd.Process.Kill()
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	res := Result{
		ExitCode: -1,
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}
	if cmd.ProcessState != nil {
		res.ExitCode = cmd.ProcessState.ExitCode()
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return res, ctxErr
	}
	if err == nil {
		return res, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return res, nil
	}
	if errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist) {
		return res, fmt.Errorf("%w: %s", ErrConverterNotFound, name)
	}
	return res, fmt.Errorf("starting converter: %w", err)
}

// Compile-time interface check.
var _ Runner = (*ExecRunner)(nil)
