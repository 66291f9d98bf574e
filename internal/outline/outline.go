// Package outline numbers document headings the way numbered-section
// rendering labels them ("1.", "1.1.", "2.1.2.1.").
package outline

import (
	"strconv"
	"strings"
)

// MaxLevel is the deepest heading level.
const MaxLevel = 6

// Numbering tracks hierarchical section numbers across a heading sequence.
// Depth follows the chain of open ancestors, so skipped levels are treated
// as direct children (h2 followed by h4 numbers the h4 as "1.1.") and a
// heading shallower than the first one starts a new top-level section.
type Numbering struct {
	counters [MaxLevel]int
	open     []int // levels of the current ancestor chain
}

// Next returns the label and effective depth for a heading at level (1-6).
func (n *Numbering) Next(level int) (label string, depth int) {
	level = min(max(level, 1), MaxLevel)

	for len(n.open) > 0 && n.open[len(n.open)-1] >= level {
		n.open = n.open[:len(n.open)-1]
	}
	n.open = append(n.open, level)
	depth = len(n.open)

	for i := depth; i < MaxLevel; i++ {
		n.counters[i] = 0
	}
	n.counters[depth-1]++

	parts := make([]string, depth)
	for i := range depth {
		parts[i] = strconv.Itoa(n.counters[i])
	}
	return strings.Join(parts, ".") + ".", depth
}

// Digits strips the dots from a label: "2.1.2.1." becomes "2121". Numbered
// heading identifiers are prefixed with this form.
func Digits(label string) string {
	return strings.ReplaceAll(label, ".", "")
}
