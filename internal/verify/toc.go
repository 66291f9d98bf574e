package verify

import (
	"fmt"
	"regexp"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alnah/go-md2html-regress/internal/check"
	"github.com/alnah/go-md2html-regress/internal/invoke"
	"github.com/alnah/go-md2html-regress/internal/treequery"
)

// NavPath selects the generated table of contents.
const NavPath = Body + `/nav[@id="TOC"]`

// tocMaxLevel is the deepest heading level listed in the navigation.
const tocMaxLevel = 5

// tocOutline is the heading outline of toc.md with the identifier and
// number label the converter must produce for each heading.
var tocOutline = []struct {
	level    int
	text     string
	slug     string
	label    string
	numbered string
}{
	{2, "Introduction", "introduction", "1.", "1-introduction"},
	{3, "Background", "background", "1.1.", "11-background"},
	{2, "Structure", "structure", "2.", "2-structure"},
	{3, "Levels", "levels", "2.1.", "21-levels"},
	{4, "Third level", "third-level", "2.1.1.", "211-third-level"},
	{4, "Another third level", "another-third-level", "2.1.2.", "212-another-third-level"},
	{5, "Fourth level", "fourth-level", "2.1.2.1.", "2121-fourth-level"},
	{6, "Sixth level", "sixth-level", "2.1.2.1.1.", "21211-sixth-level"},
	{3, "Numbering", "numbering", "2.2.", "22-numbering"},
	{2, "Conclusion", "conclusion", "3.", "3-conclusion"},
}

// TOCDocument verifies toc.md in both table-of-contents configurations.
func TOCDocument() Verifier {
	return Verifier{
		Document: Document{
			Name:   "toc",
			Source: "toc.md",
			Title:  "Table of contents test",
		},
		Checks: map[invoke.FlagSet]CheckFunc{
			invoke.TOC:         func(c *check.Case, doc *treequery.Document) { checkTOC(c, doc, false) },
			invoke.TOCNumbered: func(c *check.Case, doc *treequery.Document) { checkTOC(c, doc, true) },
		},
	}
}

func checkTOC(c *check.Case, doc *treequery.Document, numbered bool) {
	Title(c, doc, "Table of contents test")

	// The navigation is the third element of body, after the title block
	// and its rule.
	require.Equal(c, "nav", First(c, doc, "name("+Body+"/*[3])", "third body element"), "third body element")
	require.Equal(c, "TOC", First(c, doc, Body+"/*[3]/@id", "navigation id"), "navigation id")

	wantIDs := []string{"title-block-header", "TOC"}
	var listed []int
	for i, h := range tocOutline {
		id := h.slug
		if numbered {
			id = h.numbered
		}
		wantIDs = append(wantIDs, id)
		if h.level <= tocMaxLevel {
			listed = append(listed, i)
		}
	}
	require.Equal(c, wantIDs, IDs(c, doc), "identifiers in document order")

	checkNavShape(c, doc)

	hrefs := Strings(c, doc, NavPath+"//a/@href")
	require.Len(c, hrefs, len(listed), "navigation entries")
	for k, i := range listed {
		assert.Equal(c, "#"+wantIDs[i+2], hrefs[k], "link of entry %q", tocOutline[i].text)
	}

	sixth := tocOutline[7]
	require.Equal(c, 0, Count(c, doc, fmt.Sprintf(`%s//a[contains(@href, "%s")]`, NavPath, sixth.slug)),
		"level six heading listed in navigation")
	require.Equal(c, 1, Count(c, doc, Body+"/h6"), "level six heading kept in body")

	if numbered {
		checkNavLabels(c, doc, listed)
	} else {
		require.Equal(c, 0, Count(c, doc, NavPath+`//span[@class="toc-section-number"]`), "number labels without --number-sections")
	}

	links := Nodes(c, doc, NavPath+"//a")
	for k, i := range listed {
		text := treequery.TextContent(links[k])
		if numbered {
			text = labelPrefix.ReplaceAllString(text, "")
		}
		MatchText(c, tocOutline[i].text, text, fmt.Sprintf("text of entry %d", k+1))
	}
}

// labelPrefix matches a leading section number label in entry text.
var labelPrefix = regexp.MustCompile(`^\s*(\d+\.)+`)

// checkNavLabels asserts the dotted number label of every listed entry and
// that it is rendered as the first element of the entry link.
func checkNavLabels(c *check.Case, doc *treequery.Document, listed []int) {
	c.Helper()

	require.Equal(c, "1.", First(c, doc, NavPath+`/ol/li[1]/a/*[1][@class="toc-section-number"]/text()`, "first entry label"), "first entry label")
	require.Equal(c, "1.1.", First(c, doc, NavPath+`/ol/li[1]/ol/li[1]/a/*[1][@class="toc-section-number"]/text()`, "first sub-entry label"), "first sub-entry label")

	want := make([]string, 0, len(listed))
	for _, i := range listed {
		want = append(want, tocOutline[i].label)
	}
	require.Equal(c, want, SectionLabels(c, doc), "entry number labels")

	require.Equal(c, len(listed), Count(c, doc, NavPath+`//a/*[1][@class="toc-section-number"]`),
		"number label is the first element of every entry")
}

// checkNavShape asserts that list nesting mirrors heading nesting and stops
// at level five.
func checkNavShape(c *check.Case, doc *treequery.Document) {
	c.Helper()

	require.Equal(c, 1, Count(c, doc, NavPath+"/ol"), "top-level navigation list")

	shape := []struct {
		expr string
		want int
		desc string
	}{
		{NavPath + "/ol/li", 3, "level two entries"},
		{NavPath + "/ol/li[1]/ol/li", 1, "entries under Introduction"},
		{NavPath + "/ol/li[2]/ol/li", 2, "entries under Structure"},
		{NavPath + "/ol/li[3]/ol", 0, "lists under Conclusion"},
		{NavPath + "/ol/li[2]/ol/li[1]/ol/li", 2, "entries under Levels"},
		{NavPath + "/ol/li[2]/ol/li[1]/ol/li[2]/ol/li", 1, "entries under Another third level"},
		{NavPath + "/ol/li[2]/ol/li[1]/ol/li[2]/ol/li/ol", 0, "lists below level five"},
		{NavPath + "/ol/li/ol/li/ol/li/ol/li/ol", 0, "nesting deeper than four lists"},
		{NavPath + "//li", 9, "navigation entries"},
	}
	for _, s := range shape {
		require.Equal(c, s.want, Count(c, doc, s.expr), s.desc)
	}
}
