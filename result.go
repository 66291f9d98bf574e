package regress

import (
	"fmt"
	"time"

	"github.com/alnah/go-md2html-regress/internal/check"
	"github.com/alnah/go-md2html-regress/internal/invoke"
	"github.com/alnah/go-md2html-regress/internal/verify"
)

// Status is the outcome of one check.
type Status int

const (
	StatusPass Status = iota
	StatusFail
	// StatusSetup means the verifier never ran.
	StatusSetup
)

// String returns the label used in reports.
func (s Status) String() string {
	switch s {
	case StatusPass:
		return "pass"
	case StatusFail:
		return "fail"
	case StatusSetup:
		return "setup"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Result is one verifier run against one configuration.
type Result struct {
	Verifier string
	FlagSet  invoke.FlagSet
	Status   Status
	// First is the first recorded failure; zero for passing checks.
	First    check.Failure
	Failures int
	Duration time.Duration
}

// Name returns "<verifier>/<configuration>".
func (r Result) Name() string {
	return r.Verifier + "/" + r.FlagSet.String()
}

func newResult(v verify.Verifier, set invoke.FlagSet, c *check.Case) Result {
	r := Result{
		Verifier: v.Name(),
		FlagSet:  set,
		Status:   StatusPass,
		Duration: c.Duration(),
	}
	first, ok := c.First()
	if !ok {
		return r
	}
	r.First = first
	r.Failures = len(c.Failures())
	r.Status = StatusFail
	if r.First.Kind == check.KindSetup {
		r.Status = StatusSetup
	}
	return r
}

// Invocation records one converter run.
type Invocation struct {
	FlagSet  invoke.FlagSet
	Command  string
	ExitCode int
	Duration time.Duration
	Err      error
}

func newInvocation(inv *invoke.Invoker, set invoke.FlagSet, dir string, res invoke.Result, err error) Invocation {
	return Invocation{
		FlagSet:  set,
		Command:  inv.Command().Line(set, dir),
		ExitCode: res.ExitCode,
		Duration: res.Duration,
		Err:      err,
	}
}

// Summary is the outcome of a run.
type Summary struct {
	RunID       string
	Converter   string
	Documents   string
	StartedAt   time.Time
	FinishedAt  time.Time
	Invocations []Invocation
	Results     []Result
}

// Counts tallies results by status.
type Counts struct {
	Total  int
	Passed int
	Failed int
	Setup  int
}

// Counts tallies the results by status.
func (s *Summary) Counts() Counts {
	c := Counts{Total: len(s.Results)}
	for _, r := range s.Results {
		switch r.Status {
		case StatusPass:
			c.Passed++
		case StatusFail:
			c.Failed++
		case StatusSetup:
			c.Setup++
		}
	}
	return c
}

// Failed reports whether any check failed or never ran.
func (s *Summary) Failed() bool {
	c := s.Counts()
	return c.Failed+c.Setup > 0
}

// HasSetupFailures reports whether any check never reached its verifier.
func (s *Summary) HasSetupFailures() bool {
	return s.Counts().Setup > 0
}

// Failing returns the failing and setup results in run order.
func (s *Summary) Failing() []Result {
	var out []Result
	for _, r := range s.Results {
		if r.Status != StatusPass {
			out = append(out, r)
		}
	}
	return out
}
