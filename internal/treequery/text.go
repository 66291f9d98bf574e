package treequery

import (
	"strings"

	"golang.org/x/net/html"
)

// TextContent returns the concatenated text of n and all its descendants,
// whitespace included. Text nodes return their own data.
func TextContent(n *html.Node) string {
	if n == nil {
		return ""
	}
	var buf strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return buf.String()
}

// OuterHTML renders n back to markup, for failure diagnostics.
func OuterHTML(n *html.Node) string {
	if n == nil {
		return ""
	}
	var buf strings.Builder
	if err := html.Render(&buf, n); err != nil {
		return "<" + n.Data + ">"
	}
	return buf.String()
}
