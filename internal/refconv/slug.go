package refconv

import (
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var lower = cases.Lower(language.Und)

// slugify derives an identifier from heading text: lowercased, spaces become
// hyphens, characters other than letters, digits, "_", "-" and "." are
// dropped, and everything before the first letter is removed. Text with no
// letters yields "section".
func slugify(text string) string {
	var b strings.Builder
	for _, r := range lower.String(strings.TrimSpace(text)) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '-' || r == '.':
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune('-')
		}
	}

	slug := strings.TrimLeftFunc(b.String(), func(r rune) bool { return !unicode.IsLetter(r) })
	if slug == "" {
		return "section"
	}
	return slug
}

// slugger hands out identifiers that are unique within one document by
// suffixing repeats with -1, -2, ...
type slugger struct {
	used map[string]bool
}

func newSlugger() *slugger {
	return &slugger{used: make(map[string]bool)}
}

func (s *slugger) unique(text string) string {
	base := slugify(text)
	id := base
	for n := 1; s.used[id]; n++ {
		id = base + "-" + strconv.Itoa(n)
	}
	s.used[id] = true
	return id
}
