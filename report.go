package regress

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
)

// ErrorMarker starts every failure line on the error stream. CI systems
// such as GitHub Actions turn such lines into annotations.
const ErrorMarker = "::error::"

// TextOptions controls the text report.
type TextOptions struct {
	// Color enables bold labels. It is usually set when the error stream
	// is a terminal.
	Color bool
	// Quiet omits passing results.
	Quiet bool
}

// WriteText writes one line per result and the totals to w, and one
// failure line per failing result to errw:
//
//	::error::Test failed: <verifier>/<configuration>: <first failure>
func WriteText(w, errw io.Writer, s *Summary, opts TextOptions) error {
	bold := color.New(color.Bold)
	if opts.Color {
		bold.EnableColor()
	} else {
		bold.DisableColor()
	}

	p := &printer{w: w}
	p.printf("run %s: converter %s, documents %s\n\n", s.RunID, s.Converter, s.Documents)

	for _, r := range s.Results {
		if opts.Quiet && r.Status == StatusPass {
			continue
		}
		p.printf("%-6s %s (%s)\n", strings.ToUpper(r.Status.String()), r.Name(), r.Duration.Round(time.Millisecond))
	}

	failing := s.Failing()
	if len(failing) > 0 {
		p.printf("\nFailing verifiers:\n")
		for _, r := range failing {
			p.printf("  %s: %s\n", r.Name(), firstLine(r.First.Message))
		}
	}

	c := s.Counts()
	p.printf("\n%d checks: %d passed, %d failed, %d setup\n", c.Total, c.Passed, c.Failed, c.Setup)
	if p.err != nil {
		return p.err
	}

	for _, r := range failing {
		if _, err := fmt.Fprintf(errw, "%s%s %s: %s\n", ErrorMarker, bold.Sprint("Test failed:"), r.Name(), r.First.Message); err != nil {
			return err
		}
	}
	return nil
}

type printer struct {
	w   io.Writer
	err error
}

func (p *printer) printf(format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(s), "\n")
	return line
}

type jsonReport struct {
	RunID       string           `json:"run_id"`
	Converter   string           `json:"converter"`
	Documents   string           `json:"documents"`
	StartedAt   time.Time        `json:"started_at"`
	FinishedAt  time.Time        `json:"finished_at"`
	Total       int              `json:"total"`
	Passed      int              `json:"passed"`
	Failed      int              `json:"failed"`
	Setup       int              `json:"setup"`
	Invocations []jsonInvocation `json:"invocations"`
	Results     []jsonResult     `json:"results"`
}

type jsonInvocation struct {
	FlagSet    string `json:"flag_set"`
	Command    string `json:"command"`
	ExitCode   int    `json:"exit_code"`
	DurationMS int64  `json:"duration_ms"`
	Error      string `json:"error,omitempty"`
}

type jsonResult struct {
	Verifier   string `json:"verifier"`
	FlagSet    string `json:"flag_set"`
	Status     string `json:"status"`
	Kind       string `json:"kind,omitempty"`
	Message    string `json:"message,omitempty"`
	Failures   int    `json:"failures"`
	DurationMS int64  `json:"duration_ms"`
}

// WriteJSON writes the summary as an indented JSON document.
func WriteJSON(w io.Writer, s *Summary) error {
	c := s.Counts()
	out := jsonReport{
		RunID:       s.RunID,
		Converter:   s.Converter,
		Documents:   s.Documents,
		StartedAt:   s.StartedAt.UTC(),
		FinishedAt:  s.FinishedAt.UTC(),
		Total:       c.Total,
		Passed:      c.Passed,
		Failed:      c.Failed,
		Setup:       c.Setup,
		Invocations: make([]jsonInvocation, 0, len(s.Invocations)),
		Results:     make([]jsonResult, 0, len(s.Results)),
	}
	for _, inv := range s.Invocations {
		ji := jsonInvocation{
			FlagSet:    inv.FlagSet.String(),
			Command:    inv.Command,
			ExitCode:   inv.ExitCode,
			DurationMS: inv.Duration.Milliseconds(),
		}
		if inv.Err != nil {
			ji.Error = inv.Err.Error()
		}
		out.Invocations = append(out.Invocations, ji)
	}
	for _, r := range s.Results {
		jr := jsonResult{
			Verifier:   r.Verifier,
			FlagSet:    r.FlagSet.String(),
			Status:     r.Status.String(),
			Failures:   r.Failures,
			DurationMS: r.Duration.Milliseconds(),
		}
		if r.Status != StatusPass {
			jr.Kind = r.First.Kind.String()
			jr.Message = r.First.Message
		}
		out.Results = append(out.Results, jr)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
