package refconv

import (
	"strings"
	"unicode"

	"golang.org/x/net/html"
)

// atom is one rendered math fragment. Scripts carry their content in children.
type atom struct {
	class    string
	text     string
	children []atom
}

type symbol struct {
	text  string
	class string
}

// commands maps TeX control words to the fragments they render as.
var commands = map[string][]symbol{
	"sum":        {{"∑", "mop"}},
	"prod":       {{"∏", "mop"}},
	"int":        {{"∫", "mop"}},
	"lim":        {{"lim", "mop"}},
	"infty":      {{"∞", "mord"}},
	"alpha":      {{"α", "mord"}},
	"beta":       {{"β", "mord"}},
	"gamma":      {{"γ", "mord"}},
	"delta":      {{"δ", "mord"}},
	"theta":      {{"θ", "mord"}},
	"lambda":     {{"λ", "mord"}},
	"mu":         {{"μ", "mord"}},
	"pi":         {{"π", "mord"}},
	"sigma":      {{"σ", "mord"}},
	"cdot":       {{"⋅", "mbin"}},
	"times":      {{"×", "mbin"}},
	"pm":         {{"±", "mbin"}},
	"le":         {{"≤", "mrel"}},
	"leq":        {{"≤", "mrel"}},
	"ge":         {{"≥", "mrel"}},
	"geq":        {{"≥", "mrel"}},
	"ne":         {{"≠", "mrel"}},
	"neq":        {{"≠", "mrel"}},
	"approx":     {{"≈", "mrel"}},
	"to":         {{"→", "mrel"}},
	"rightarrow": {{"→", "mrel"}},
	"ldots":      {{"…", "minner"}},
	"cdots":      {{"⋯", "minner"}},
	"TeX":        {{"T", "mord"}, {"E", "mord"}, {"X", "mord"}},
	"LaTeX": {
		{"L", "mord"}, {"A", "mord"}, {"T", "mord"},
		{"E", "mord"}, {"\u200b", "mord"}, {"X", "mord"},
	},
}

// logos render as a single MathML text run.
var logos = map[string]bool{"TeX": true, "LaTeX": true}

// mathParser is a small recursive-descent reader over TeX source.
type mathParser struct {
	src []rune
	pos int
}

func parseMath(src string) []atom {
	p := &mathParser{src: []rune(src)}
	return p.sequence(false)
}

// sequence reads atoms until end of input or, inside a group, a closing brace.
func (p *mathParser) sequence(inGroup bool) []atom {
	var atoms []atom
	for p.pos < len(p.src) {
		r := p.src[p.pos]
		if r == '}' {
			p.pos++
			if inGroup {
				return atoms
			}
			continue
		}
		atoms = append(atoms, p.item()...)
	}
	return atoms
}

// item reads one token, group or script.
func (p *mathParser) item() []atom {
	r := p.src[p.pos]
	p.pos++

	switch {
	case unicode.IsSpace(r):
		return nil
	case r == '{':
		return p.sequence(true)
	case r == '^' || r == '_':
		if p.pos >= len(p.src) {
			return nil
		}
		var script []atom
		for len(script) == 0 && p.pos < len(p.src) {
			script = p.item()
		}
		return []atom{{class: "msupsub", children: script}}
	case r == '\\':
		return p.command()
	case unicode.IsDigit(r):
		return []atom{{class: "mord", text: string(r)}}
	case unicode.IsLetter(r):
		return []atom{{class: "mord mathnormal", text: string(r)}}
	case strings.ContainsRune("=<>", r):
		return []atom{{class: "mrel", text: string(r)}}
	case r == '-':
		return []atom{{class: "mbin", text: "−"}}
	case strings.ContainsRune("+*/", r):
		return []atom{{class: "mbin", text: string(r)}}
	case r == '(' || r == '[':
		return []atom{{class: "mopen", text: string(r)}}
	case r == ')' || r == ']':
		return []atom{{class: "mclose", text: string(r)}}
	case r == ',' || r == ';':
		return []atom{{class: "mpunct", text: string(r)}}
	default:
		return []atom{{class: "mord", text: string(r)}}
	}
}

// command reads a control word or control symbol after a backslash.
func (p *mathParser) command() []atom {
	start := p.pos
	for p.pos < len(p.src) && unicode.IsLetter(p.src[p.pos]) {
		p.pos++
	}
	name := string(p.src[start:p.pos])

	if name == "" {
		if p.pos >= len(p.src) {
			return nil
		}
		r := p.src[p.pos]
		p.pos++
		switch r {
		case '{':
			return []atom{{class: "mopen", text: "{"}}
		case '}':
			return []atom{{class: "mclose", text: "}"}}
		case ',', ';', ':', '!', ' ':
			return nil // spacing
		default:
			return []atom{{class: "mord", text: string(r)}}
		}
	}

	syms, ok := commands[name]
	if !ok {
		return []atom{{class: "mord mathrm", text: name}}
	}
	atoms := make([]atom, len(syms))
	for i, s := range syms {
		atoms[i] = atom{class: s.class, text: s.text}
	}
	return atoms
}

// renderMath renders expr as KaTeX-shaped markup: a MathML half carrying the
// TeX source in an annotation, and an aria-hidden HTML half with one span per
// symbol. No whitespace text is emitted between spans.
func renderMath(expr mathExpr) string {
	atoms := parseMath(expr.source)

	var b strings.Builder
	if expr.display {
		b.WriteString(`<span class="katex-display">`)
	}
	b.WriteString(`<span class="katex"><span class="katex-mathml"><math xmlns="http://www.w3.org/1998/Math/MathML"`)
	if expr.display {
		b.WriteString(` display="block"`)
	}
	b.WriteString(`><semantics><mrow>`)
	writeMathML(&b, expr.source, atoms)
	b.WriteString(`</mrow><annotation encoding="application/x-tex">`)
	b.WriteString(html.EscapeString(expr.source))
	b.WriteString(`</annotation></semantics></math></span><span class="katex-html" aria-hidden="true">`)
	writeAtoms(&b, atoms)
	b.WriteString(`</span></span>`)
	if expr.display {
		b.WriteString(`</span>`)
	}
	return b.String()
}

func writeAtoms(b *strings.Builder, atoms []atom) {
	for _, a := range atoms {
		b.WriteString(`<span class="`)
		b.WriteString(a.class)
		b.WriteString(`">`)
		if a.children != nil {
			writeAtoms(b, a.children)
		} else {
			b.WriteString(html.EscapeString(a.text))
		}
		b.WriteString(`</span>`)
	}
}

func writeMathML(b *strings.Builder, source string, atoms []atom) {
	if name := strings.TrimPrefix(strings.TrimSpace(source), `\`); logos[name] {
		b.WriteString("<mtext>" + name + "</mtext>")
		return
	}
	for _, a := range atoms {
		if a.children != nil {
			b.WriteString("<mrow>")
			writeMathML(b, "", a.children)
			b.WriteString("</mrow>")
			continue
		}
		tag := "mo"
		switch {
		case strings.HasPrefix(a.class, "mord mathnormal"):
			tag = "mi"
		case a.class == "mord" && a.text != "" && unicode.IsDigit([]rune(a.text)[0]):
			tag = "mn"
		case a.class == "mord" || a.class == "mord mathrm":
			tag = "mi"
		}
		b.WriteString("<" + tag + ">" + html.EscapeString(a.text) + "</" + tag + ">")
	}
}
