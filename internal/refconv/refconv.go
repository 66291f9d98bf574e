// Package refconv is the builtin reference converter. It honours the same
// command-line contract as the external converters the harness drives:
//
//	builtin [--preserve-source] [--no-copy-css] [--toc] [--number-sections] --dir <documents>
//
// Every Markdown file directly inside the directory is rendered to HTML.
// Default renderings land next to their source as <stem>.html; table of
// contents renderings land in <documents>/toc/<title>.html. The title comes
// from front matter and falls back to the file stem.
package refconv

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/styles"
	flag "github.com/spf13/pflag"

	"github.com/alnah/go-md2html-regress/internal/assets"
	"github.com/alnah/go-md2html-regress/internal/fileutil"
	"github.com/alnah/go-md2html-regress/internal/invoke"
)

// Name is the converter command that selects this package.
const Name = "builtin"

// Exit statuses of a conversion run.
const (
	ExitOK    = 0
	ExitError = 1
	ExitUsage = 2
)

// Output layout.
const (
	tocDir         = "toc"
	stylesheetHref = assets.StylesheetFileName
	defaultLang    = "en"
	filePerm       = 0o644
	dirPerm        = 0o750
)

// Sentinel errors for conversion.
var (
	ErrUsage       = errors.New("invalid usage")
	ErrFrontMatter = errors.New("invalid front matter")
	ErrRender      = errors.New("rendering failed")
	ErrTemplate    = errors.New("page template failed")
	ErrNoDocuments = errors.New("no Markdown documents found")
)

// Options is one parsed invocation.
type Options struct {
	Dir            string
	TOC            bool
	NumberSections bool
	PreserveSource bool
	NoCopyCSS      bool
	AssetsDir      string
	Style          string
}

// Converter renders a documents directory. It implements invoke.Runner so
// the harness can use it in place of an external program.
type Converter struct {
	logger *slog.Logger
}

// New creates a Converter. A nil logger discards log output.
func New(logger *slog.Logger) *Converter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Converter{logger: logger}
}

// Compile-time interface check.
var _ invoke.Runner = (*Converter)(nil)

// Run parses args as the converter contract and converts the directory. The
// name argument is ignored. Failures are reported through the exit status
// and stderr; the error is only set when ctx ends.
func (c *Converter) Run(ctx context.Context, _ string, args ...string) (invoke.Result, error) {
	start := time.Now()
	var stdout, stderr bytes.Buffer

	code := c.Main(ctx, args, &stdout, &stderr)

	res := invoke.Result{
		ExitCode: code,
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}
	if err := ctx.Err(); err != nil {
		return res, err
	}
	return res, nil
}

// Main runs the converter with command-line args, writing progress to stdout
// and diagnostics to stderr, and returns the exit status.
func (c *Converter) Main(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts, err := ParseArgs(args)
	if err != nil {
		fmt.Fprintf(stderr, "%s: %v\n", Name, err)
		return ExitUsage
	}

	written, err := c.Convert(ctx, opts)
	for _, path := range written {
		fmt.Fprintf(stdout, "wrote %s\n", path)
	}
	if err != nil {
		fmt.Fprintf(stderr, "%s: %v\n", Name, err)
		return ExitError
	}
	return ExitOK
}

// ParseArgs parses the converter contract.
func ParseArgs(args []string) (Options, error) {
	fs := flag.NewFlagSet(Name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var opts Options
	fs.StringVar(&opts.Dir, "dir", "", "directory of Markdown documents")
	fs.BoolVar(&opts.TOC, "toc", false, "add a table of contents")
	fs.BoolVar(&opts.NumberSections, "number-sections", false, "number sections")
	fs.BoolVar(&opts.PreserveSource, "preserve-source", false, "keep Markdown sources")
	fs.BoolVar(&opts.NoCopyCSS, "no-copy-css", false, "do not copy the stylesheet")
	fs.StringVar(&opts.AssetsDir, "assets", "", "directory overriding the embedded assets")
	fs.StringVar(&opts.Style, "style", assets.DefaultStyleName, "stylesheet name")

	if err := fs.Parse(args); err != nil {
		return Options{}, fmt.Errorf("%w: %v", ErrUsage, err)
	}
	if fs.NArg() > 0 {
		return Options{}, fmt.Errorf("%w: unexpected arguments %v", ErrUsage, fs.Args())
	}
	if strings.TrimSpace(opts.Dir) == "" {
		return Options{}, fmt.Errorf("%w: --dir is required", ErrUsage)
	}
	return opts, nil
}

// Convert renders every Markdown document directly inside opts.Dir and
// returns the paths written, in source order.
func (c *Converter) Convert(ctx context.Context, opts Options) ([]string, error) {
	sources, err := listSources(opts.Dir)
	if err != nil {
		return nil, err
	}

	resolver, err := assets.NewAssetResolver(opts.AssetsDir)
	if err != nil {
		return nil, err
	}
	pageTemplate, err := resolver.LoadTemplate(assets.PageTemplateName)
	if err != nil {
		return nil, err
	}
	r, err := newRenderer(pageTemplate)
	if err != nil {
		return nil, err
	}

	renderOpts := renderOptions{toc: opts.TOC, numbered: opts.NumberSections}
	outDir := opts.Dir
	if renderOpts.toc {
		outDir = filepath.Join(opts.Dir, tocDir)
		if err := os.MkdirAll(outDir, dirPerm); err != nil {
			return nil, fmt.Errorf("creating %s: %w", outDir, err)
		}
	}

	var written []string
	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			return written, err
		}

		out, err := c.convertFile(r, src, outDir, renderOpts)
		if err != nil {
			return written, err
		}
		written = append(written, out)

		if !opts.PreserveSource {
			if err := os.Remove(src); err != nil {
				return written, fmt.Errorf("removing source %s: %w", src, err)
			}
		}
	}

	if !opts.NoCopyCSS {
		css, err := stylesheet(resolver, opts.Style)
		if err != nil {
			return written, err
		}
		path := filepath.Join(outDir, assets.StylesheetFileName)
		if err := fileutil.WriteFileAtomic(path, css, filePerm); err != nil {
			return written, fmt.Errorf("writing stylesheet: %w", err)
		}
	}
	return written, nil
}

func (c *Converter) convertFile(r *renderer, src, outDir string, opts renderOptions) (string, error) {
	content, err := os.ReadFile(src) // #nosec G304 -- listed from the documents directory
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", src, err)
	}

	meta, body, err := splitFrontMatter(string(content))
	if err != nil {
		return "", fmt.Errorf("%s: %w", src, err)
	}
	title := meta.Title
	if title == "" {
		title = fileutil.Stem(src)
	}
	lang := meta.Lang
	if lang == "" {
		lang = defaultLang
	}

	page, err := r.render(title, lang, body, opts)
	if err != nil {
		return "", fmt.Errorf("%s: %w", src, err)
	}

	out, err := outputPath(src, title, outDir, opts.toc)
	if err != nil {
		return "", err
	}
	if err := fileutil.WriteFileAtomic(out, page, filePerm); err != nil {
		return "", fmt.Errorf("writing %s: %w", out, err)
	}

	c.logger.Debug("rendered", "source", src, "output", out, "toc", opts.toc, "numbered", opts.numbered)
	return out, nil
}

// outputPath is <stem>.html next to the source, or <title>.html in the
// table of contents directory.
func outputPath(src, title, outDir string, toc bool) (string, error) {
	if !toc {
		return fileutil.ReplaceExt(src, "html")
	}
	stem, err := fileutil.SafeFileName(title)
	if err != nil {
		return "", fmt.Errorf("%s: %w", src, err)
	}
	return filepath.Join(outDir, stem+".html"), nil
}

// listSources returns the Markdown files directly inside dir, sorted.
func listSources(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading documents directory: %w", err)
	}

	var sources []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".md") {
			continue
		}
		sources = append(sources, filepath.Join(dir, e.Name()))
	}
	if len(sources) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoDocuments, dir)
	}
	sort.Strings(sources)
	return sources, nil
}

// stylesheet returns the named style followed by the CSS for highlighted code.
func stylesheet(loader assets.AssetLoader, name string) (string, error) {
	css, err := loader.LoadStyle(name)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString(css)
	b.WriteString("\n/* code highlighting */\n")
	if err := chromahtml.New(chromahtml.WithClasses(true)).WriteCSS(&b, styles.Get(highlightStyle)); err != nil {
		return "", fmt.Errorf("writing highlight CSS: %w", err)
	}
	return b.String(), nil
}
