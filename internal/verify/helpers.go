package verify

import (
	"regexp"
	"strings"

	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"github.com/alnah/go-md2html-regress/internal/check"
	"github.com/alnah/go-md2html-regress/internal/treequery"
)

// Common query prefixes.
const (
	Body = "/html/body"
	Head = "/html/head"

	// H1Path selects top-level headings under a direct child of body.
	H1Path = Body + "/*/h1"
)

// Strings evaluates expr, stopping the check if the expression is invalid.
func Strings(c *check.Case, doc *treequery.Document, expr string) []string {
	c.Helper()
	values, err := doc.Strings(expr)
	if err != nil {
		c.Fatalf("query %s: %v", expr, err)
	}
	return values
}

// Nodes evaluates expr, stopping the check if the expression is invalid.
func Nodes(c *check.Case, doc *treequery.Document, expr string) []*html.Node {
	c.Helper()
	nodes, err := doc.Nodes(expr)
	if err != nil {
		c.Fatalf("query %s: %v", expr, err)
	}
	return nodes
}

// Count evaluates expr as a match count.
func Count(c *check.Case, doc *treequery.Document, expr string) int {
	c.Helper()
	n, err := doc.Count(expr)
	if err != nil {
		c.Fatalf("query %s: %v", expr, err)
	}
	return n
}

// First returns the first value selected by expr. An empty result stops the
// check with a structure-absent failure instead of an index fault.
func First(c *check.Case, doc *treequery.Document, expr, desc string) string {
	c.Helper()
	values := Strings(c, doc, expr)
	if len(values) == 0 {
		c.Absent(expr, desc)
	}
	return values[0]
}

// OneH1 enforces that the document has exactly one top-level h1 and returns
// it. On violation the whole match set is printed, not just its size.
func OneH1(c *check.Case, doc *treequery.Document) *html.Node {
	c.Helper()
	headings := Nodes(c, doc, H1Path)
	if len(headings) != 1 {
		rendered := make([]string, len(headings))
		for i, n := range headings {
			rendered[i] = treequery.OuterHTML(n)
		}
		c.Fatalf("number of h1 headers at %s is %d, want exactly 1; matches: [%s]",
			H1Path, len(headings), strings.Join(rendered, ", "))
	}
	return headings[0]
}

// TextPattern builds a case-insensitive pattern that matches want with any
// run of whitespace between its words and around it.
func TextPattern(want string) *regexp.Regexp {
	words := strings.Fields(want)
	for i, w := range words {
		words[i] = regexp.QuoteMeta(w)
	}
	return regexp.MustCompile(`(?is)^\s*` + strings.Join(words, `\s+`) + `\s*$`)
}

// MatchText asserts that got equals want up to case and whitespace. It is the
// policy for titles and heading text; identifiers, numbers and counts are
// compared exactly.
func MatchText(c *check.Case, want, got, desc string) {
	c.Helper()
	require.Regexp(c, TextPattern(want), got, desc)
}

// Title enforces the single-h1 invariant and checks its full text.
func Title(c *check.Case, doc *treequery.Document, want string) {
	c.Helper()
	h1 := OneH1(c, doc)
	MatchText(c, want, treequery.TextContent(h1), "document title")
}

// IDs returns every id attribute under body, in document order.
func IDs(c *check.Case, doc *treequery.Document) []string {
	c.Helper()
	return Strings(c, doc, Body+"//@id")
}

// MathAnnotation returns the TeX annotation of the first math block in the
// element at scope.
func MathAnnotation(c *check.Case, doc *treequery.Document, scope string) string {
	c.Helper()
	return First(c, doc, scope+"//annotation/text()", "math annotation")
}

// MathFallback returns the MathML text of the first math block in the
// element at scope.
func MathFallback(c *check.Case, doc *treequery.Document, scope string) string {
	c.Helper()
	return First(c, doc, "("+scope+"//math//mtext)[1]/text()", "MathML fallback text")
}

// MathSymbols returns the text fragments of the rendered (non-MathML) half
// of the first math block in the element at scope.
func MathSymbols(c *check.Case, doc *treequery.Document, scope string) []string {
	c.Helper()
	expr := "(" + scope + `//span[@class="katex-html"])[1]//span/text()`
	symbols := Strings(c, doc, expr)
	if len(symbols) == 0 {
		c.Absent(expr, "rendered math symbols")
	}
	return symbols
}

// SectionLabels returns the number labels of the table-of-contents entries
// in document order.
func SectionLabels(c *check.Case, doc *treequery.Document) []string {
	c.Helper()
	return Strings(c, doc, Body+`/nav//a/span[@class="toc-section-number"]/text()`)
}
