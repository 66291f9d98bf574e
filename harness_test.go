package regress

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"testing"

	"github.com/alnah/go-md2html-regress/internal/check"
	"github.com/alnah/go-md2html-regress/internal/config"
	"github.com/alnah/go-md2html-regress/internal/invoke"
	"github.com/alnah/go-md2html-regress/internal/verify"
)

// renderedFixtures maps each configuration to the rendered documents a
// correct converter produces, as (testdata file, output path) pairs.
var renderedFixtures = map[invoke.FlagSet][][2]string{
	invoke.Default: {
		{"simple.html", "simple.html"},
		{"no-metadata.html", "A document with no metadata.html"},
	},
	invoke.TOC: {
		{"toc.html", "toc/Table of contents test.html"},
	},
	invoke.TOCNumbered: {
		{"toc-numbered.html", "toc/Table of contents test.html"},
	},
}

// fakeConverter writes pre-rendered fixtures instead of converting.
type fakeConverter struct {
	t   *testing.T
	dir string

	mu    sync.Mutex
	calls [][]string
	// exit returns a non-zero status for a configuration.
	exit map[invoke.FlagSet]int
	// skip leaves a configuration's output unwritten.
	skip map[invoke.FlagSet]bool
	// mutate edits a fixture before it is written.
	mutate func(name, content string) string
}

func (f *fakeConverter) Run(_ context.Context, _ string, args ...string) (invoke.Result, error) {
	f.mu.Lock()
	f.calls = append(f.calls, args)
	f.mu.Unlock()

	set := invoke.Default
	switch {
	case slices.Contains(args, "--number-sections"):
		set = invoke.TOCNumbered
	case slices.Contains(args, "--toc"):
		set = invoke.TOC
	}

	if code := f.exit[set]; code != 0 {
		return invoke.Result{ExitCode: code, Stderr: "cannot render " + set.String()}, nil
	}
	if f.skip[set] {
		return invoke.Result{}, nil
	}

	for _, pair := range renderedFixtures[set] {
		data, err := os.ReadFile(filepath.Join("internal", "verify", "testdata", pair[0]))
		if err != nil {
			f.t.Fatalf("read fixture %s: %v", pair[0], err)
		}
		content := string(data)
		if f.mutate != nil {
			content = f.mutate(pair[0], content)
		}
		out := filepath.Join(f.dir, filepath.FromSlash(pair[1]))
		if err := os.MkdirAll(filepath.Dir(out), 0o750); err != nil {
			f.t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(out, []byte(content), 0o644); err != nil {
			f.t.Fatalf("write %s: %v", out, err)
		}
	}
	return invoke.Result{}, nil
}

func testConfig(dir string) *config.Config {
	cfg := config.DefaultConfig()
	cfg.Documents = dir
	cfg.Converter.Command = "md2html"
	return cfg
}

func newTestHarness(t *testing.T, cfg *config.Config, opts ...Option) *Harness {
	t.Helper()
	h, err := New(cfg, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	h.newID = func() string { return "test-run" }
	t.Cleanup(func() { _ = h.Close() })
	return h
}

func resultsByName(s *Summary) map[string]Result {
	out := make(map[string]Result, len(s.Results))
	for _, r := range s.Results {
		out[r.Name()] = r
	}
	return out
}

// ---------------------------------------------------------------------------
// TestHarness_Run - Orchestration
// ---------------------------------------------------------------------------

func TestHarness_RunAllPass(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	fake := &fakeConverter{t: t, dir: dir}
	h := newTestHarness(t, testConfig(dir), WithRunner(fake))

	s, err := h.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	var names []string
	for _, r := range s.Results {
		names = append(names, r.Name())
		if r.Status != StatusPass {
			t.Errorf("%s: status %s: %s", r.Name(), r.Status, r.First.Message)
		}
	}
	want := []string{"simple/default", "A document with no metadata/default", "toc/toc", "toc/toc-numbered"}
	if !slices.Equal(names, want) {
		t.Errorf("results = %q, want %q", names, want)
	}
	if s.Failed() {
		t.Error("Failed() = true for a passing run")
	}
	if s.RunID != "test-run" {
		t.Errorf("RunID = %q", s.RunID)
	}

	if len(fake.calls) != 3 {
		t.Fatalf("converter ran %d times, want 3", len(fake.calls))
	}
	wantArgs := [][]string{
		{"--preserve-source", "--no-copy-css", "--dir", dir},
		{"--preserve-source", "--no-copy-css", "--toc", "--dir", dir},
		{"--preserve-source", "--no-copy-css", "--toc", "--number-sections", "--dir", dir},
	}
	for i, args := range wantArgs {
		if !slices.Equal(fake.calls[i], args) {
			t.Errorf("call %d = %q, want %q", i, fake.calls[i], args)
		}
	}
	if len(s.Invocations) != 3 || s.Invocations[2].FlagSet != invoke.TOCNumbered {
		t.Errorf("invocations = %+v", s.Invocations)
	}
}

func TestHarness_ConverterFailureIsSetup(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	fake := &fakeConverter{t: t, dir: dir, exit: map[invoke.FlagSet]int{invoke.TOC: 1}}
	h := newTestHarness(t, testConfig(dir), WithRunner(fake))

	s, err := h.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	byName := resultsByName(s)
	got := byName["toc/toc"]
	if got.Status != StatusSetup || got.First.Kind != check.KindSetup {
		t.Fatalf("toc/toc = %+v, want setup failure", got)
	}
	for _, want := range []string{"setup failed", "converter exited with status 1", "cannot render toc", "hint:"} {
		if !strings.Contains(got.First.Message, want) {
			t.Errorf("message lacks %q:\n%s", want, got.First.Message)
		}
	}
	for _, name := range []string{"simple/default", "A document with no metadata/default", "toc/toc-numbered"} {
		if byName[name].Status != StatusPass {
			t.Errorf("%s: status %s, want pass", name, byName[name].Status)
		}
	}
	if !s.HasSetupFailures() {
		t.Error("HasSetupFailures() = false")
	}
	if !errors.Is(s.Invocations[1].Err, invoke.ErrConverterFailed) {
		t.Errorf("invocation error = %v, want ErrConverterFailed", s.Invocations[1].Err)
	}
}

func TestHarness_MissingRenderedDocument(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	fake := &fakeConverter{t: t, dir: dir, skip: map[invoke.FlagSet]bool{invoke.Default: true}}
	h := newTestHarness(t, testConfig(dir), WithRunner(fake))

	s, err := h.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	got := resultsByName(s)["simple/default"]
	if got.Status != StatusSetup {
		t.Fatalf("simple/default = %+v, want setup failure", got)
	}
	if !strings.Contains(got.First.Message, "fixture not found") || !strings.Contains(got.First.Message, "simple.html") {
		t.Errorf("message = %q", got.First.Message)
	}
	if c := s.Counts(); c.Setup != 2 || c.Passed != 2 {
		t.Errorf("counts = %+v, want 2 setup and 2 passed", c)
	}
}

func TestHarness_StaleOutputIsNotVerified(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	first := newTestHarness(t, testConfig(dir), WithRunner(&fakeConverter{t: t, dir: dir}))
	if _, err := first.Run(context.Background()); err != nil {
		t.Fatalf("first Run: %v", err)
	}

	tests := []struct {
		name      string
		skip      map[invoke.FlagSet]bool
		wantSetup []string
	}{
		{
			name:      "nothing written",
			skip:      map[invoke.FlagSet]bool{invoke.Default: true, invoke.TOC: true, invoke.TOCNumbered: true},
			wantSetup: []string{"simple/default", "A document with no metadata/default", "toc/toc", "toc/toc-numbered"},
		},
		{
			name:      "numbered output shares the toc path",
			skip:      map[invoke.FlagSet]bool{invoke.TOCNumbered: true},
			wantSetup: []string{"toc/toc-numbered"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeConverter{t: t, dir: dir, skip: tt.skip}
			h := newTestHarness(t, testConfig(dir), WithRunner(fake))

			s, err := h.Run(context.Background())
			if err != nil {
				t.Fatalf("Run: %v", err)
			}
			for _, r := range s.Results {
				want := StatusPass
				if slices.Contains(tt.wantSetup, r.Name()) {
					want = StatusSetup
				}
				if r.Status != want {
					t.Errorf("%s: status %s, want %s (%s)", r.Name(), r.Status, want, r.First.Message)
				}
			}
			if c := s.Counts(); c.Setup != len(tt.wantSetup) {
				t.Errorf("counts = %+v, want %d setup", c, len(tt.wantSetup))
			}
		})
	}
}

func TestHarness_FailingVerifierDoesNotStopSiblings(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	fake := &fakeConverter{t: t, dir: dir, mutate: func(name, content string) string {
		if name != "simple.html" {
			return content
		}
		return strings.Replace(content, "Simple example document</h1>", "Another document</h1>", 1)
	}}
	h := newTestHarness(t, testConfig(dir), WithRunner(fake))

	s, err := h.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	c := s.Counts()
	if c.Failed != 1 || c.Passed != 3 {
		t.Fatalf("counts = %+v, want 1 failed and 3 passed", c)
	}
	got := resultsByName(s)["simple/default"]
	if got.Status != StatusFail || got.First.Kind != check.KindAssertion {
		t.Errorf("simple/default = %+v", got)
	}
	if !strings.Contains(got.First.Message, "Another document") {
		t.Errorf("message does not show the actual title:\n%s", got.First.Message)
	}
	if s.HasSetupFailures() {
		t.Error("assertion failure reported as setup failure")
	}
}

func TestHarness_OnlyInvokesCoveredConfigurations(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	fake := &fakeConverter{t: t, dir: dir}
	h := newTestHarness(t, testConfig(dir), WithRunner(fake), WithOnly("toc"))

	s, err := h.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(fake.calls) != 2 {
		t.Errorf("converter ran %d times, want 2 (default configuration unused)", len(fake.calls))
	}
	if len(s.Results) != 2 || s.Failed() {
		t.Errorf("results = %+v", s.Results)
	}
}

func TestHarness_WithFlagSets(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	fake := &fakeConverter{t: t, dir: dir}
	h := newTestHarness(t, testConfig(dir), WithRunner(fake), WithFlagSets(invoke.TOCNumbered))

	s, err := h.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(fake.calls) != 1 {
		t.Fatalf("converter ran %d times, want 1", len(fake.calls))
	}
	if len(s.Results) != 1 || s.Results[0].Name() != "toc/toc-numbered" {
		t.Errorf("results = %+v", s.Results)
	}
}

func TestHarness_NothingCoversSelection(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	fake := &fakeConverter{t: t, dir: dir}
	h := newTestHarness(t, testConfig(dir), WithRunner(fake), WithOnly("simple"), WithFlagSets(invoke.TOC))

	_, err := h.Run(context.Background())
	if !errors.Is(err, ErrNoVerifiers) {
		t.Errorf("Run error = %v, want ErrNoVerifiers", err)
	}
	if len(fake.calls) != 0 {
		t.Errorf("converter ran %d times, want 0", len(fake.calls))
	}
}

func TestHarness_CustomFlagNames(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cfg := testConfig(dir)
	cfg.Converter.Args = []string{"convert.py"}
	cfg.Converter.TOCFlag = "--table-of-contents"
	cfg.Converter.DirFlag = "-d"

	fake := &fakeConverter{t: t, dir: dir}
	h := newTestHarness(t, cfg, WithRunner(fake), WithOnly("simple"))

	s, err := h.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	want := []string{"convert.py", "--preserve-source", "--no-copy-css", "-d", dir}
	if len(fake.calls) != 1 || !slices.Equal(fake.calls[0], want) {
		t.Errorf("calls = %q, want [%q]", fake.calls, want)
	}
	if got := s.Invocations[0].Command; got != "md2html "+strings.Join(want, " ") {
		t.Errorf("Command = %q", got)
	}

	inv, err := h.Invoker()
	if err != nil {
		t.Fatalf("Invoker: %v", err)
	}
	if got := inv.Command().Argv(invoke.TOC, "x"); !slices.Contains(got, "--table-of-contents") {
		t.Errorf("TOC argv = %q", got)
	}
}

// cancelingRunner cancels the run while the converter is "running".
type cancelingRunner struct {
	cancel context.CancelFunc
}

func (r *cancelingRunner) Run(ctx context.Context, _ string, _ ...string) (invoke.Result, error) {
	r.cancel()
	<-ctx.Done()
	return invoke.Result{ExitCode: -1}, ctx.Err()
}

func TestHarness_Cancellation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h := newTestHarness(t, testConfig(t.TempDir()), WithRunner(&cancelingRunner{cancel: cancel}))
	s, err := h.Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Run error = %v, want context.Canceled", err)
	}
	if s == nil || len(s.Results) != 0 {
		t.Errorf("summary = %+v, want partial summary without results", s)
	}
}

func TestHarness_Errors(t *testing.T) {
	t.Parallel()

	t.Run("nil config", func(t *testing.T) {
		t.Parallel()

		if _, err := New(nil); !errors.Is(err, ErrNilConfig) {
			t.Errorf("New(nil) = %v, want ErrNilConfig", err)
		}
	})

	t.Run("invalid config", func(t *testing.T) {
		t.Parallel()

		cfg := testConfig(t.TempDir())
		cfg.Report.Format = "xml"
		if _, err := New(cfg); !errors.Is(err, config.ErrInvalidValue) {
			t.Errorf("New = %v, want ErrInvalidValue", err)
		}
	})

	t.Run("missing documents", func(t *testing.T) {
		t.Parallel()

		h := newTestHarness(t, testConfig(filepath.Join(t.TempDir(), "missing")), WithRunner(&fakeConverter{t: t}))
		if _, err := h.Run(context.Background()); !errors.Is(err, ErrDocumentsMissing) {
			t.Errorf("Run = %v, want ErrDocumentsMissing", err)
		}
	})

	t.Run("unknown verifier", func(t *testing.T) {
		t.Parallel()

		h := newTestHarness(t, testConfig(t.TempDir()), WithRunner(&fakeConverter{t: t}), WithOnly("nope"))
		if _, err := h.Run(context.Background()); !errors.Is(err, verify.ErrUnknownVerifier) {
			t.Errorf("Run = %v, want ErrUnknownVerifier", err)
		}
	})
}

// ---------------------------------------------------------------------------
// TestHarness_Builtin - Reference converter end to end
// ---------------------------------------------------------------------------

func TestHarness_Builtin(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	entries, err := os.ReadDir("documents")
	if err != nil {
		t.Fatalf("read documents: %v", err)
	}
	for _, e := range entries {
		if filepath.Ext(e.Name()) != ".md" {
			continue
		}
		data, err := os.ReadFile(filepath.Join("documents", e.Name()))
		if err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(filepath.Join(dir, e.Name()), data, 0o644); err != nil {
			t.Fatal(err)
		}
	}

	cfg := config.DefaultConfig()
	cfg.Documents = dir
	h := newTestHarness(t, cfg)

	s, err := h.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(s.Results) != 4 {
		t.Fatalf("got %d results, want 4", len(s.Results))
	}
	for _, r := range s.Results {
		if r.Status != StatusPass {
			t.Errorf("%s: %s: %s", r.Name(), r.Status, r.First.Message)
		}
	}
	if _, err := os.Stat(filepath.Join(dir, "simple.md")); err != nil {
		t.Error("sources removed between configurations")
	}
}
