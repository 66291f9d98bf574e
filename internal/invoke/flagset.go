package invoke

import (
	"fmt"
	"strings"
)

// FlagSet is one rendering configuration of the converter.
type FlagSet int

const (
	// Default renders without a table of contents.
	Default FlagSet = iota
	// TOC adds a table of contents.
	TOC
	// TOCNumbered adds a table of contents and numbers the sections.
	TOCNumbered
)

// FlagSets lists every configuration in the order a run processes them.
var FlagSets = []FlagSet{Default, TOC, TOCNumbered}

// String returns the configuration name used in reports and on the CLI.
func (f FlagSet) String() string {
	switch f {
	case Default:
		return "default"
	case TOC:
		return "toc"
	case TOCNumbered:
		return "toc-numbered"
	default:
		return fmt.Sprintf("flagset(%d)", int(f))
	}
}

// HasTOC reports whether the configuration asks for a table of contents.
func (f FlagSet) HasTOC() bool {
	return f == TOC || f == TOCNumbered
}

// Numbered reports whether the configuration asks for section numbers.
func (f FlagSet) Numbered() bool {
	return f == TOCNumbered
}

// Args returns the configuration-specific converter arguments for the given
// flag names.
func (f FlagSet) Args(names Flags) []string {
	switch f {
	case TOC:
		return []string{names.TOC}
	case TOCNumbered:
		return []string{names.TOC, names.NumberSections}
	default:
		return nil
	}
}

// ParseFlagSet parses a configuration name as printed by String.
func ParseFlagSet(s string) (FlagSet, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for _, f := range FlagSets {
		if f.String() == name {
			return f, nil
		}
	}
	return 0, fmt.Errorf("%w: %q (valid: default, toc, toc-numbered)", ErrUnknownFlagSet, s)
}
