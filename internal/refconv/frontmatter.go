package refconv

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/goccy/go-yaml"
)

// frontMatterPattern matches a leading YAML block delimited by "---" and
// closed by "---" or "...".
var frontMatterPattern = regexp.MustCompile(`(?s)\A---[ \t]*\n(.*?)\n(?:---|\.\.\.)[ \t]*(?:\n|\z)`)

// metadata is the subset of front matter the converter reads.
type metadata struct {
	Title string `yaml:"title"`
	Lang  string `yaml:"lang"`
}

// splitFrontMatter separates front matter from the Markdown body. Content
// without front matter returns zero metadata and the content unchanged.
func splitFrontMatter(content string) (metadata, string, error) {
	var meta metadata

	loc := frontMatterPattern.FindStringSubmatchIndex(content)
	if loc == nil {
		return meta, content, nil
	}

	block := content[loc[2]:loc[3]]
	if err := yaml.Unmarshal([]byte(block), &meta); err != nil {
		return meta, content, fmt.Errorf("%w: %v", ErrFrontMatter, err)
	}
	meta.Title = strings.TrimSpace(meta.Title)
	return meta, content[loc[1]:], nil
}
