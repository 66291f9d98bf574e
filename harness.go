package regress

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/alnah/go-md2html-regress/internal/browser"
	"github.com/alnah/go-md2html-regress/internal/check"
	"github.com/alnah/go-md2html-regress/internal/config"
	"github.com/alnah/go-md2html-regress/internal/fileutil"
	"github.com/alnah/go-md2html-regress/internal/fixture"
	"github.com/alnah/go-md2html-regress/internal/hints"
	"github.com/alnah/go-md2html-regress/internal/invoke"
	"github.com/alnah/go-md2html-regress/internal/refconv"
	"github.com/alnah/go-md2html-regress/internal/verify"
)

// Harness runs the converter once per configuration and the verifiers
// against its output.
type Harness struct {
	cfg      *config.Config
	registry *verify.Registry
	only     []string
	sets     []invoke.FlagSet
	runner   invoke.Runner
	source   fixture.Source
	logger   *slog.Logger
	now      func() time.Time
	newID    func() string

	closers []io.Closer
}

// Option configures a Harness.
type Option func(*Harness)

// WithRegistry replaces the bundled verifiers.
func WithRegistry(r *verify.Registry) Option {
	return func(h *Harness) {
		if r != nil {
			h.registry = r
		}
	}
}

// WithOnly restricts the run to the named verifiers.
func WithOnly(names ...string) Option {
	return func(h *Harness) {
		h.only = append(h.only, names...)
	}
}

// WithFlagSets restricts the run to the given configurations.
func WithFlagSets(sets ...invoke.FlagSet) Option {
	return func(h *Harness) {
		h.sets = append(h.sets, sets...)
	}
}

// WithRunner replaces the process runner, typically with a fake in tests.
func WithRunner(r invoke.Runner) Option {
	return func(h *Harness) {
		h.runner = r
	}
}

// WithSource replaces the way rendered documents are loaded.
func WithSource(s fixture.Source) Option {
	return func(h *Harness) {
		h.source = s
	}
}

// WithLogger sets the progress logger.
func WithLogger(l *slog.Logger) Option {
	return func(h *Harness) {
		if l != nil {
			h.logger = l
		}
	}
}

// WithClock sets the time source used for report timestamps.
func WithClock(now func() time.Time) Option {
	return func(h *Harness) {
		if now != nil {
			h.now = now
		}
	}
}

// New creates a Harness from cfg. The converter command "builtin" selects
// the reference converter; browser render mode loads documents in Chrome.
func New(cfg *config.Config, opts ...Option) (*Harness, error) {
	if cfg == nil {
		return nil, ErrNilConfig
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	h := &Harness{
		cfg:      cfg,
		registry: verify.DefaultRegistry(),
		logger:   slog.New(slog.DiscardHandler),
		now:      time.Now,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(h)
	}

	if h.runner == nil {
		if cfg.Converter.Command == refconv.Name {
			h.runner = refconv.New(h.logger)
		} else {
			h.runner = &invoke.ExecRunner{}
		}
	}
	if h.source == nil && cfg.Render.Mode == config.RenderBrowser {
		src := browser.New(cfg.Render.Timeout)
		h.source = src
		h.closers = append(h.closers, src)
	}
	return h, nil
}

// Close releases the browser started for browser render mode.
func (h *Harness) Close() error {
	var errs []error
	for _, c := range h.closers {
		errs = append(errs, c.Close())
	}
	h.closers = nil
	return errors.Join(errs...)
}

// Verifiers returns the verifiers a run would execute, in run order.
func (h *Harness) Verifiers() ([]verify.Verifier, error) {
	vs, err := h.registry.Select(h.only...)
	if err != nil {
		return nil, err
	}
	if len(vs) == 0 {
		return nil, ErrNoVerifiers
	}
	return vs, nil
}

// Invoker builds the converter invoker described by the configuration.
func (h *Harness) Invoker() (*invoke.Invoker, error) {
	c := h.cfg.Converter
	defaults := invoke.DefaultFlags()
	flags := invoke.Flags{
		PreserveSource: cmp.Or(c.PreserveSourceFlag, defaults.PreserveSource),
		NoStylesheet:   cmp.Or(c.NoStylesheetFlag, defaults.NoStylesheet),
		TOC:            cmp.Or(c.TOCFlag, defaults.TOC),
		NumberSections: cmp.Or(c.NumberSectionsFlag, defaults.NumberSections),
		Dir:            cmp.Or(c.DirFlag, defaults.Dir),
	}

	return invoke.New(h.runner,
		invoke.Command{Name: c.Command, Args: c.Args, Flags: flags},
		h.cfg.Documents,
		invoke.WithTimeout(c.Timeout),
		invoke.WithLogger(h.logger))
}

// Run executes every selected verifier in every configuration it covers.
//
// Configurations run in a fixed order. The converter runs once per
// configuration that a selected verifier covers, and always before that
// configuration's verifiers. A converter failure or a missing rendered
// document becomes a setup failure for the affected checks; the run then
// moves on. Run returns an error only when it cannot start or ctx ends,
// together with the results gathered so far.
func (h *Harness) Run(ctx context.Context) (*Summary, error) {
	if !fileutil.DirExists(h.cfg.Documents) {
		return nil, fmt.Errorf("%w: %s%s", ErrDocumentsMissing, h.cfg.Documents, hints.ForDocumentsDirectory())
	}
	verifiers, err := h.Verifiers()
	if err != nil {
		return nil, err
	}
	sets := h.flagSets(verifiers)
	if len(sets) == 0 {
		return nil, fmt.Errorf("%w: no selected verifier covers the selected configurations", ErrNoVerifiers)
	}
	inv, err := h.Invoker()
	if err != nil {
		return nil, err
	}
	resolver := fixture.NewResolver(h.cfg.Documents, h.source)

	s := &Summary{
		RunID:     h.newID(),
		Converter: h.cfg.Converter.Command,
		Documents: h.cfg.Documents,
		StartedAt: h.now(),
	}
	defer func() { s.FinishedAt = h.now() }()

	for _, set := range sets {
		covering := covers(verifiers, set)
		if err := clearArtifacts(resolver, covering, set); err != nil {
			setupErr := fmt.Errorf("%w: %w", ErrSetup, err)
			h.logger.Warn("cannot clear rendered documents", "flagset", set.String(), "error", err)
			for _, v := range covering {
				c := check.NewCase(caseName(v, set), h.logger)
				c.Setup(setupErr)
				s.Results = append(s.Results, newResult(v, set, c))
			}
			continue
		}
		res, err := inv.Convert(ctx, set)
		s.Invocations = append(s.Invocations, newInvocation(inv, set, h.cfg.Documents, res, err))
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return s, ctxErr
			}
			setupErr := fmt.Errorf("%w: %w%s", ErrSetup, err, converterHint(err, h.cfg.Converter.Command))
			h.logger.Warn("converter failed", "flagset", set.String(), "error", err)
			for _, v := range covering {
				c := check.NewCase(caseName(v, set), h.logger)
				c.Setup(setupErr)
				s.Results = append(s.Results, newResult(v, set, c))
			}
			continue
		}

		for _, v := range covering {
			r, err := h.verify(ctx, resolver, v, set)
			if err != nil {
				return s, err
			}
			s.Results = append(s.Results, r)
		}
	}
	return s, nil
}

// clearArtifacts removes the rendered documents a previous run left for
// set, so only output of this invocation is ever verified.
func clearArtifacts(resolver *fixture.Resolver, vs []verify.Verifier, set invoke.FlagSet) error {
	for _, v := range vs {
		rel, err := v.Document.ArtifactPath(set)
		if err != nil {
			continue
		}
		path, err := resolver.Path(rel)
		if err != nil {
			continue
		}
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("removing stale %s: %w", rel, err)
		}
	}
	return nil
}

// verify resolves the rendered document of v for set and runs its checks.
func (h *Harness) verify(ctx context.Context, resolver *fixture.Resolver, v verify.Verifier, set invoke.FlagSet) (Result, error) {
	c := check.NewCase(caseName(v, set), h.logger)

	rel, err := v.Document.ArtifactPath(set)
	if err != nil {
		c.Setup(fmt.Errorf("%w: %w", ErrSetup, err))
		return newResult(v, set, c), nil
	}

	doc, err := resolver.Resolve(ctx, rel)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Result{}, ctxErr
		}
		hint := ""
		if errors.Is(err, fixture.ErrNotFound) {
			hint = hints.ForFixtureNotFound(resolver.Root())
		} else if errors.Is(err, browser.ErrBrowserConnect) {
			hint = hints.ForBrowserConnect()
		}
		c.Setup(fmt.Errorf("%w: %w%s", ErrSetup, err, hint))
		return newResult(v, set, c), nil
	}

	c.Logf("checking %s", rel)
	check.Run(c, func(c *check.Case) { v.Checks[set](c, doc) })

	r := newResult(v, set, c)
	h.logger.Info("verified", "case", c.Name(), "status", r.Status.String(), "duration", r.Duration)
	return r, nil
}

// flagSets returns the selected configurations that at least one of vs
// covers, in run order.
func (h *Harness) flagSets(vs []verify.Verifier) []invoke.FlagSet {
	var out []invoke.FlagSet
	for _, set := range invoke.FlagSets {
		if len(h.sets) > 0 && !slices.Contains(h.sets, set) {
			continue
		}
		if len(covers(vs, set)) == 0 {
			h.logger.Debug("skipping configuration", "flagset", set.String())
			continue
		}
		out = append(out, set)
	}
	return out
}

func covers(vs []verify.Verifier, set invoke.FlagSet) []verify.Verifier {
	var out []verify.Verifier
	for _, v := range vs {
		if v.Covers(set) {
			out = append(out, v)
		}
	}
	return out
}

func caseName(v verify.Verifier, set invoke.FlagSet) string {
	return v.Name() + "/" + set.String()
}

func converterHint(err error, command string) string {
	switch {
	case errors.Is(err, invoke.ErrConverterNotFound):
		return hints.ForConverterNotFound(command)
	case errors.Is(err, invoke.ErrConverterTimeout):
		return hints.ForTimeout()
	case errors.Is(err, invoke.ErrConverterFailed):
		return hints.ForConverterFailed()
	default:
		return ""
	}
}
