// Package fixture resolves rendered documents under the fixtures root and
// hands them back as parsed trees.
package fixture

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/alnah/go-md2html-regress/internal/treequery"
)

// Sentinel errors for fixture resolution.
var (
	// ErrNotFound marks a missing rendered document. It signals a setup
	// defect (the converter did not produce the file), not a failed check.
	ErrNotFound = errors.New("fixture not found")

	ErrEmptyName    = errors.New("fixture name cannot be empty")
	ErrOutsideRoot  = errors.New("fixture path escapes the fixtures root")
	ErrLoad         = errors.New("failed to load fixture")
	ErrParseFixture = errors.New("failed to parse fixture")
)

// Source loads the raw markup of a rendered document.
type Source interface {
	Load(ctx context.Context, path string) (string, error)
}

// FileSource reads rendered documents straight from disk.
type FileSource struct{}

// Load reads the file at path. Missing files wrap fs.ErrNotExist.
func (FileSource) Load(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	data, err := os.ReadFile(path) // #nosec G304 -- path is confined to the fixtures root by Resolver
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Compile-time interface check.
var _ Source = FileSource{}

// Resolver maps fixture-relative file names to parsed trees.
type Resolver struct {
	root   string
	source Source
}

// NewResolver creates a Resolver rooted at root. A nil source reads from disk.
func NewResolver(root string, source Source) *Resolver {
	if source == nil {
		source = FileSource{}
	}
	return &Resolver{root: root, source: source}
}

// Root returns the fixtures root directory.
func (r *Resolver) Root() string {
	return r.root
}

// Path joins rel onto the fixtures root, rejecting names that climb out of it.
func (r *Resolver) Path(rel string) (string, error) {
	if strings.TrimSpace(rel) == "" {
		return "", ErrEmptyName
	}
	clean := filepath.Clean(filepath.FromSlash(rel))
	if filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %q", ErrOutsideRoot, rel)
	}
	return filepath.Join(r.root, clean), nil
}

// Resolve loads and parses the rendered document stored at rel, relative to
// the fixtures root (e.g. "simple.html" or "toc/Table of contents test.html").
func (r *Resolver) Resolve(ctx context.Context, rel string) (*treequery.Document, error) {
	path, err := r.Path(rel)
	if err != nil {
		return nil, err
	}

	content, err := r.source.Load(ctx, path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s: %w", ErrNotFound, path, err)
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrLoad, path, err)
	}

	doc, err := treequery.Parse(strings.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrParseFixture, path, err)
	}
	return doc, nil
}
