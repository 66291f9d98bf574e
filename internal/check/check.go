// Package check records the outcome of one verifier run.
//
// A Case satisfies testify's require.TestingT, so verifiers express their
// expectations with require/assert and pass a description as the message
// argument. FailNow stops the running verifier only: Run executes each
// verifier on its own goroutine and FailNow ends it with runtime.Goexit,
// the same mechanism the testing package uses. Sibling verifiers keep going.
package check

import (
	"fmt"
	"log/slog"
	"runtime"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/stretchr/testify/require"
)

// Kind classifies a failure.
type Kind int

const (
	// KindAssertion is an expectation that did not hold.
	KindAssertion Kind = iota
	// KindStructure is a query that was expected to match and matched nothing.
	KindStructure
	// KindSetup is a missing or unreadable rendered document, or a converter failure.
	KindSetup
	// KindPanic is an unexpected panic inside a verifier.
	KindPanic
)

// String returns the label used in reports.
func (k Kind) String() string {
	switch k {
	case KindAssertion:
		return "assertion"
	case KindStructure:
		return "structure absent"
	case KindSetup:
		return "setup"
	case KindPanic:
		return "panic"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Failure is one recorded failure.
type Failure struct {
	Kind    Kind
	Message string
}

// Case collects failures for one verifier and one rendering configuration.
type Case struct {
	name   string
	logger *slog.Logger

	mu       sync.Mutex
	failures []Failure
	duration time.Duration
}

// Compile-time check that Case can drive testify's require package.
var _ require.TestingT = (*Case)(nil)

// NewCase creates a Case. A nil logger discards log output.
func NewCase(name string, logger *slog.Logger) *Case {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Case{name: name, logger: logger}
}

// Name returns the case name, "<verifier>/<configuration>".
func (c *Case) Name() string {
	return c.name
}

// Helper is a no-op; it lets testify treat Case like *testing.T.
func (c *Case) Helper() {}

// Errorf records an assertion failure and lets the verifier continue.
func (c *Case) Errorf(format string, args ...any) {
	c.record(KindAssertion, fmt.Sprintf(format, args...))
}

// FailNow stops the verifier. It must be called from the goroutine started by Run.
func (c *Case) FailNow() {
	runtime.Goexit()
}

// Fatalf records an assertion failure and stops the verifier.
func (c *Case) Fatalf(format string, args ...any) {
	c.record(KindAssertion, fmt.Sprintf(format, args...))
	c.FailNow()
}

// Absent records that expr selected nothing where at least one match was
// required, and stops the verifier.
func (c *Case) Absent(expr string, msgAndArgs ...any) {
	msg := "expected structure absent: " + expr + " matched nothing"
	if desc := messageFromArgs(msgAndArgs...); desc != "" {
		msg = desc + ": " + msg
	}
	c.record(KindStructure, msg)
	c.FailNow()
}

// Setup records a setup failure without stopping anything. The orchestrator
// uses it for cases that never reach their verifier.
func (c *Case) Setup(err error) {
	c.record(KindSetup, err.Error())
}

// Logf writes a debug line tagged with the case name.
func (c *Case) Logf(format string, args ...any) {
	c.logger.Debug(fmt.Sprintf(format, args...), "case", c.name)
}

// Failed reports whether any failure was recorded.
func (c *Case) Failed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.failures) > 0
}

// Failures returns a copy of every recorded failure in order.
func (c *Case) Failures() []Failure {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Failure, len(c.failures))
	copy(out, c.failures)
	return out
}

// First returns the first recorded failure.
func (c *Case) First() (Failure, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.failures) == 0 {
		return Failure{}, false
	}
	return c.failures[0], true
}

// Duration returns how long Run spent in the verifier.
func (c *Case) Duration() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.duration
}

func (c *Case) record(kind Kind, msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failures = append(c.failures, Failure{Kind: kind, Message: strings.TrimLeft(msg, "\n")})
}

// Run executes fn against c and waits for it to finish, whether it returns,
// calls FailNow, or panics.
func Run(c *Case, fn func(*Case)) {
	start := time.Now()
	done := make(chan struct{})

	go func() {
		defer close(done)
		defer func() {
			if r := recover(); r != nil {
				c.record(KindPanic, fmt.Sprintf("panic: %v\n%s", r, debug.Stack()))
			}
		}()
		fn(c)
	}()

	<-done

	c.mu.Lock()
	c.duration = time.Since(start)
	c.mu.Unlock()
}

// messageFromArgs mirrors testify's msgAndArgs convention: a lone value is
// printed as-is, a format string followed by arguments is formatted.
func messageFromArgs(msgAndArgs ...any) string {
	switch len(msgAndArgs) {
	case 0:
		return ""
	case 1:
		if s, ok := msgAndArgs[0].(string); ok {
			return s
		}
		return fmt.Sprintf("%+v", msgAndArgs[0])
	default:
		if format, ok := msgAndArgs[0].(string); ok {
			return fmt.Sprintf(format, msgAndArgs[1:]...)
		}
		return fmt.Sprint(msgAndArgs...)
	}
}
