package output

import (
	"fmt"
	"strings"

	"docwarden/internal/core/ports"
)

// TreeGenerator renders the link map as an indented listing: one FILE block
// per source followed by its targets and their existence status.
type TreeGenerator struct {
	edges []ports.EdgeResult
}

func NewTreeGenerator(edges []ports.EdgeResult) *TreeGenerator {
	return &TreeGenerator{edges: edges}
}

func (t *TreeGenerator) Generate() (string, error) {
	if len(t.edges) == 0 {
		return "No relative links found in any files.\n", nil
	}
	var buf strings.Builder
	sources, groups := bySource(t.edges)
	for i, src := range sources {
		if i > 0 {
			buf.WriteString("\n")
		}
		buf.WriteString(fmt.Sprintf("FILE: %s\n", src))
		for _, e := range groups[src] {
			indicator := "[OK]"
			if !e.Exists {
				indicator = "[BROKEN]"
			}
			buf.WriteString(fmt.Sprintf("  --> %s %s  (%s)\n", indicator, e.Target, e.Kind))
		}
	}
	return buf.String(), nil
}
