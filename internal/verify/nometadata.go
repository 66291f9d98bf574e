package verify

import (
	"github.com/stretchr/testify/require"

	"github.com/alnah/go-md2html-regress/internal/check"
	"github.com/alnah/go-md2html-regress/internal/invoke"
	"github.com/alnah/go-md2html-regress/internal/treequery"
)

// NoMetadata verifies a document without front matter: its title falls back
// to the file name and its inline math names the LaTeX logo.
func NoMetadata() Verifier {
	return Verifier{
		Document: Document{
			Name:   "A document with no metadata",
			Source: "A document with no metadata.md",
			Title:  "A document with no metadata",
		},
		Checks: map[invoke.FlagSet]CheckFunc{
			invoke.Default: checkNoMetadata,
		},
	}
}

func checkNoMetadata(c *check.Case, doc *treequery.Document) {
	Title(c, doc, "A document with no metadata")

	require.Equal(c, `\LaTeX`, MathAnnotation(c, doc, Body+"/p[3]"), "inline math annotation")
	require.Equal(c, "LaTeX", MathFallback(c, doc, Body+"/p[3]"), "MathML fallback text")

	require.Equal(c, []string{"L", "A", "T", "E", "\u200b", "X"}, MathSymbols(c, doc, Body+"/p[3]"), "rendered LaTeX logo")
}
