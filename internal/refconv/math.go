package refconv

import (
	"regexp"
	"strconv"
	"strings"
)

// Math placeholders use Unicode Private Use Area characters. They pass
// through goldmark as plain text, so TeX is never read as Markdown, and are
// replaced by rendered markup after HTML generation.
const (
	mathStartPlaceholder = "\uE002" // U+E002: Private Use Area
	mathEndPlaceholder   = "\uE003" // U+E003: Private Use Area
)

var (
	// mathPattern matches, leftmost first: an inline code span (kept as is),
	// display math $$...$$ (may span lines), inline math $...$ whose content
	// neither starts nor ends with a space.
	mathPattern = regexp.MustCompile("(?s)`[^`\n]*`|\\$\\$(.+?)\\$\\$|\\$([^\\s$](?:[^$\n]*[^\\s$])?)\\$")

	placeholderPattern = regexp.MustCompile(mathStartPlaceholder + `(\d+)` + mathEndPlaceholder)

	fencePattern = regexp.MustCompile("^\\s{0,3}(```|~~~)")
)

// mathExpr is one TeX expression lifted out of the Markdown source.
type mathExpr struct {
	source  string
	display bool
}

// mathSet holds the expressions of one document in placeholder order.
type mathSet struct {
	exprs []mathExpr
}

// extract replaces math outside fenced code blocks with placeholders.
func (m *mathSet) extract(content string) string {
	lines := strings.SplitAfter(content, "\n")

	var out, chunk strings.Builder
	inFence := false
	fence := ""

	flush := func() {
		out.WriteString(m.replace(chunk.String()))
		chunk.Reset()
	}

	for _, line := range lines {
		if match := fencePattern.FindStringSubmatch(line); match != nil {
			switch {
			case !inFence:
				flush()
				inFence, fence = true, match[1]
			case match[1] == fence:
				inFence = false
			}
			out.WriteString(line)
			continue
		}
		if inFence {
			out.WriteString(line)
			continue
		}
		chunk.WriteString(line)
	}
	flush()
	return out.String()
}

func (m *mathSet) replace(text string) string {
	return mathPattern.ReplaceAllStringFunc(text, func(match string) string {
		if strings.HasPrefix(match, "`") {
			return match
		}
		expr := mathExpr{display: strings.HasPrefix(match, "$$")}
		if expr.display {
			expr.source = match[2 : len(match)-2]
		} else {
			expr.source = match[1 : len(match)-1]
		}
		m.exprs = append(m.exprs, expr)
		return mathStartPlaceholder + strconv.Itoa(len(m.exprs)-1) + mathEndPlaceholder
	})
}

// restore substitutes rendered markup for every placeholder in html.
func (m *mathSet) restore(html string) string {
	return placeholderPattern.ReplaceAllStringFunc(html, func(match string) string {
		i, err := strconv.Atoi(placeholderPattern.FindStringSubmatch(match)[1])
		if err != nil || i >= len(m.exprs) {
			return match
		}
		return renderMath(m.exprs[i])
	})
}

// plain substitutes the TeX source for every placeholder, for identifiers
// and other text-only uses.
func (m *mathSet) plain(text string) string {
	return placeholderPattern.ReplaceAllStringFunc(text, func(match string) string {
		i, err := strconv.Atoi(placeholderPattern.FindStringSubmatch(match)[1])
		if err != nil || i >= len(m.exprs) {
			return ""
		}
		return m.exprs[i].source
	})
}
