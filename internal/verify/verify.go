// Package verify holds one verifier per source document and the shared
// query helpers they are written with.
//
// A verifier names its source document and, for each rendering
// configuration it covers, a check function that receives the parsed
// Rendered Document. Checks express expectations with testify against a
// *check.Case; a failed require stops that check only.
package verify

import (
	"errors"
	"fmt"
	"path"
	"slices"
	"strings"

	"github.com/alnah/go-md2html-regress/internal/check"
	"github.com/alnah/go-md2html-regress/internal/fileutil"
	"github.com/alnah/go-md2html-regress/internal/invoke"
	"github.com/alnah/go-md2html-regress/internal/treequery"
)

// Sentinel errors for registry operations.
var (
	ErrUnknownVerifier   = errors.New("unknown verifier")
	ErrDuplicateVerifier = errors.New("duplicate verifier")
	ErrNoChecks          = errors.New("verifier has no checks")
)

// TOCDir is the subdirectory holding table-of-contents renderings.
const TOCDir = "toc"

// Document is a source document under test.
type Document struct {
	// Name is the file stem binding the document to its verifier.
	Name string
	// Source is the file name under the documents root.
	Source string
	// Title is the title the converter derives (front matter, or the stem).
	Title string
}

// ArtifactPath returns the slash-separated path of the Rendered Document
// for set, relative to the documents root.
//
//   - Default: "<stem>.html"
//   - TOC modes: "toc/<title>.html"
func (d Document) ArtifactPath(set invoke.FlagSet) (string, error) {
	if !set.HasTOC() {
		return fileutil.ReplaceExt(d.Source, "html")
	}
	stem, err := fileutil.SafeFileName(d.Title)
	if err != nil {
		return "", err
	}
	return path.Join(TOCDir, stem+".html"), nil
}

// CheckFunc runs the expectations for one rendering configuration.
type CheckFunc func(c *check.Case, doc *treequery.Document)

// Verifier binds a document to its per-configuration checks.
type Verifier struct {
	Document Document
	Checks   map[invoke.FlagSet]CheckFunc
}

// Name returns the document name.
func (v Verifier) Name() string {
	return v.Document.Name
}

// Covers reports whether v has a check for set.
func (v Verifier) Covers(set invoke.FlagSet) bool {
	_, ok := v.Checks[set]
	return ok
}

// FlagSets returns the configurations v covers, in run order.
func (v Verifier) FlagSets() []invoke.FlagSet {
	var out []invoke.FlagSet
	for _, set := range invoke.FlagSets {
		if v.Covers(set) {
			out = append(out, set)
		}
	}
	return out
}

// Registry is an ordered, name-indexed set of verifiers.
type Registry struct {
	verifiers []Verifier
	byName    map[string]int
}

// NewRegistry builds a registry, rejecting duplicate names and verifiers
// without checks.
func NewRegistry(verifiers ...Verifier) (*Registry, error) {
	r := &Registry{byName: make(map[string]int, len(verifiers))}
	for _, v := range verifiers {
		if _, dup := r.byName[v.Name()]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateVerifier, v.Name())
		}
		if len(v.Checks) == 0 {
			return nil, fmt.Errorf("%w: %q", ErrNoChecks, v.Name())
		}
		r.byName[v.Name()] = len(r.verifiers)
		r.verifiers = append(r.verifiers, v)
	}
	return r, nil
}

// All returns every verifier in registration order.
func (r *Registry) All() []Verifier {
	return slices.Clone(r.verifiers)
}

// Lookup returns the verifier named name.
func (r *Registry) Lookup(name string) (Verifier, bool) {
	i, ok := r.byName[name]
	if !ok {
		return Verifier{}, false
	}
	return r.verifiers[i], true
}

// Select returns the named verifiers in registration order. No names
// selects all of them.
func (r *Registry) Select(names ...string) ([]Verifier, error) {
	if len(names) == 0 {
		return r.All(), nil
	}

	want := make(map[string]bool, len(names))
	var unknown []string
	for _, name := range names {
		if _, ok := r.Lookup(name); !ok {
			unknown = append(unknown, name)
			continue
		}
		want[name] = true
	}
	if len(unknown) > 0 {
		return nil, fmt.Errorf("%w: %s (known: %s)", ErrUnknownVerifier,
			strings.Join(unknown, ", "), strings.Join(r.Names(), ", "))
	}

	var out []Verifier
	for _, v := range r.verifiers {
		if want[v.Name()] {
			out = append(out, v)
		}
	}
	return out, nil
}

// Names returns every verifier name in registration order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.verifiers))
	for i, v := range r.verifiers {
		names[i] = v.Name()
	}
	return names
}

// DefaultRegistry returns the verifiers for the bundled documents.
func DefaultRegistry() *Registry {
	r, err := NewRegistry(Simple(), NoMetadata(), TOCDocument())
	if err != nil {
		panic(err)
	}
	return r
}
