package verify

import (
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alnah/go-md2html-regress/internal/check"
	"github.com/alnah/go-md2html-regress/internal/invoke"
	"github.com/alnah/go-md2html-regress/internal/treequery"
)

// Simple verifies simple.md: title, emphasis, heading ids, display math
// and list shapes.
func Simple() Verifier {
	return Verifier{
		Document: Document{
			Name:   "simple",
			Source: "simple.md",
			Title:  "Simple example document",
		},
		Checks: map[invoke.FlagSet]CheckFunc{
			invoke.Default: checkSimple,
		},
	}
}

func checkSimple(c *check.Case, doc *treequery.Document) {
	Title(c, doc, "Simple example document")

	em := First(c, doc, Body+"/p/em/text()", "first emphasized text")
	require.Equal(c, "A simple test document.", em, "first emphasized text")

	require.Equal(c, []string{
		"title-block-header",
		"sub-header",
		"smaller-sub-header",
		"even-smaller-sub-header",
	}, IDs(c, doc), "heading ids in document order")

	require.Equal(c, "\n\\sum_{k=0}^n = 2^n.\n", MathAnnotation(c, doc, Body+"/p[2]"), "display math annotation")

	symbols := MathSymbols(c, doc, Body+"/p[2]")
	for _, sym := range []string{"k", "n", "=", "0", "∑"} {
		assert.Contains(c, symbols, sym, "rendered math symbol %q", sym)
	}

	require.Equal(c, 1, Count(c, doc, Body+"/ul"), "unordered list count")
	require.Equal(c, 3, Count(c, doc, Body+"/ul/li"), "unordered list items")
	require.Equal(c, 1, Count(c, doc, Body+"/ol"), "ordered list count")
	require.Equal(c, 3, Count(c, doc, Body+"/ol/li"), "ordered list items")

	// Selectors see the whole page, so nested lists or stray math would show here.
	require.Equal(c, 6, doc.Select("li").Length(), "list items anywhere in the page")
	require.Equal(c, 1, doc.Select(".katex-display").Length(), "display math blocks")
}
