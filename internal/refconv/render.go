package refconv

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	"regexp"
	"strings"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
	"golang.org/x/net/html"

	"github.com/alnah/go-md2html-regress/internal/outline"
)

// tocMaxLevel is the deepest heading level listed in the navigation.
const tocMaxLevel = 5

// highlightStyle is the chroma style whose CSS accompanies the stylesheet.
const highlightStyle = "github"

var (
	crlfOrCR           = regexp.MustCompile(`\r\n?`)
	multipleBlankLines = regexp.MustCompile(`\n{3,}`)
)

// renderOptions selects the rendering configuration.
type renderOptions struct {
	toc      bool
	numbered bool
}

// heading is a rendered heading with its identifier and number label.
type heading struct {
	level int
	text  string
	id    string
	label string
	depth int
}

// pageData feeds the page template.
type pageData struct {
	Lang       string
	Title      string
	Stylesheet string
	TOC        htmltemplate.HTML
	Body       htmltemplate.HTML
}

// renderer turns one Markdown document into a standalone page.
type renderer struct {
	md   goldmark.Markdown
	page *htmltemplate.Template
}

func newRenderer(pageTemplate string) (*renderer, error) {
	page, err := htmltemplate.New("page").Parse(pageTemplate)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTemplate, err)
	}

	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			extension.Footnote,
			highlighting.NewHighlighting(
				highlighting.WithStyle(highlightStyle),
				highlighting.WithFormatOptions(chromahtml.WithClasses(true)),
			),
		),
	)
	return &renderer{md: md, page: page}, nil
}

// render converts body (front matter already removed) into a page titled title.
func (r *renderer) render(title, lang, body string, opts renderOptions) (string, error) {
	body = crlfOrCR.ReplaceAllString(body, "\n")
	body = multipleBlankLines.ReplaceAllString(body, "\n\n")

	var math mathSet
	src := []byte(math.extract(body))

	doc := r.md.Parser().Parse(text.NewReader(src))
	headings := annotateHeadings(doc, src, &math, opts.numbered)

	var buf bytes.Buffer
	if err := r.md.Renderer().Render(&buf, src, doc); err != nil {
		return "", fmt.Errorf("%w: %v", ErrRender, err)
	}

	data := pageData{
		Lang:       lang,
		Title:      title,
		Stylesheet: stylesheetHref,
		Body:       htmltemplate.HTML(buf.String()), // #nosec G203 -- goldmark output with raw HTML disabled
	}
	if opts.toc {
		data.TOC = htmltemplate.HTML(renderTOC(headings, opts.numbered)) // #nosec G203 -- built from escaped heading text
	}

	var page bytes.Buffer
	if err := r.page.Execute(&page, data); err != nil {
		return "", fmt.Errorf("%w: %v", ErrTemplate, err)
	}
	return math.restore(page.String()), nil
}

// annotateHeadings assigns identifiers to every heading and, in numbered
// mode, prefixes them with their section number.
func annotateHeadings(doc ast.Node, src []byte, math *mathSet, numbered bool) []heading {
	var (
		headings  []heading
		slugs     = newSlugger()
		numbering outline.Numbering
	)

	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		h, ok := n.(*ast.Heading)
		if !ok || !entering {
			return ast.WalkContinue, nil
		}

		plain := inlineText(h, src)
		label, depth := numbering.Next(h.Level)
		id := slugs.unique(math.plain(plain))
		if numbered {
			id = outline.Digits(label) + "-" + id
			number := ast.NewString([]byte(`<span class="header-section-number">` + label + `</span> `))
			number.SetCode(true)
			h.InsertBefore(h, h.FirstChild(), number)
		}
		h.SetAttributeString("id", []byte(id))

		headings = append(headings, heading{
			level: h.Level,
			text:  plain,
			id:    id,
			label: label,
			depth: depth,
		})
		return ast.WalkSkipChildren, nil
	})
	return headings
}

// inlineText concatenates the text of n's inline descendants.
func inlineText(n ast.Node, src []byte) string {
	var b strings.Builder
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch t := c.(type) {
		case *ast.Text:
			b.Write(t.Value(src))
			if t.SoftLineBreak() {
				b.WriteByte(' ')
			}
		case *ast.String:
			if !t.IsCode() {
				b.Write(t.Value)
			}
		default:
			b.WriteString(inlineText(c, src))
		}
	}
	return b.String()
}

// renderTOC builds the navigation: nested ordered lists mirroring heading
// depth, levels one to five. Headings arrive in document order; a heading's
// depth never exceeds its predecessor's by more than one.
func renderTOC(headings []heading, numbered bool) string {
	var entries []heading
	for _, h := range headings {
		if h.level <= tocMaxLevel {
			entries = append(entries, h)
		}
	}
	if len(entries) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString(`<nav id="TOC" role="doc-toc">`)

	depth := 0
	for _, e := range entries {
		switch {
		case e.depth > depth:
			for depth < e.depth {
				b.WriteString("<ol>")
				depth++
			}
		case e.depth == depth:
			b.WriteString("</li>")
		default:
			for depth > e.depth {
				b.WriteString("</li></ol>")
				depth--
			}
			b.WriteString("</li>")
		}

		b.WriteString(`<li><a href="#`)
		b.WriteString(html.EscapeString(e.id))
		b.WriteString(`">`)
		if numbered {
			b.WriteString(`<span class="toc-section-number">`)
			b.WriteString(e.label)
			b.WriteString(`</span> `)
		}
		b.WriteString(html.EscapeString(strings.TrimSpace(e.text)))
		b.WriteString(`</a>`)
	}
	for depth > 0 {
		b.WriteString("</li></ol>")
		depth--
	}

	b.WriteString(`</nav>`)
	return b.String()
}
