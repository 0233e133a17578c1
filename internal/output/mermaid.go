package output

import (
	"fmt"
	"strings"
	"unicode"

	"docwarden/internal/core/ports"
)

type MermaidGenerator struct {
	edges []ports.EdgeResult
}

func NewMermaidGenerator(edges []ports.EdgeResult) *MermaidGenerator {
	return &MermaidGenerator{edges: edges}
}

func (m *MermaidGenerator) Generate() (string, error) {
	var buf strings.Builder
	buf.WriteString("flowchart LR\n")
	buf.WriteString("  classDef doc fill:#ffffff,stroke:#2f4f4f,stroke-width:1px;\n")
	buf.WriteString("  classDef broken fill:#ffe4e1,stroke:#ff0000,stroke-width:2px;\n")

	docs := documents(m.edges)
	ids := makeMermaidIDs(docs)
	broken := make(map[string]bool)
	for _, e := range m.edges {
		if !e.Exists {
			broken[e.Target] = true
		}
	}

	for _, doc := range docs {
		class := "doc"
		if broken[doc] {
			class = "broken"
		}
		buf.WriteString(fmt.Sprintf("  %s[\"%s\"]:::%s\n", ids[doc], escapeMermaidLabel(doc), class))
	}

	var bad, unidir []int
	for i, e := range m.edges {
		arrow := "-->"
		if e.Kind == ports.EdgePhysical {
			arrow = "-.->"
		}
		switch s := status(e); s {
		case statusOK:
			buf.WriteString(fmt.Sprintf("  %s %s %s\n", ids[e.Source], arrow, ids[e.Target]))
		default:
			buf.WriteString(fmt.Sprintf("  %s %s|%s| %s\n", ids[e.Source], arrow, s, ids[e.Target]))
			if s == statusUnidirectional {
				unidir = append(unidir, i)
			} else {
				bad = append(bad, i)
			}
		}
	}
	if len(bad) > 0 {
		buf.WriteString(fmt.Sprintf("  linkStyle %s stroke:#ff0000,stroke-width:2px\n", joinInts(bad)))
	}
	if len(unidir) > 0 {
		buf.WriteString(fmt.Sprintf("  linkStyle %s stroke:#ff8c00\n", joinInts(unidir)))
	}
	return buf.String(), nil
}

func sanitizeMermaidID(name string) string {
	if name == "" {
		return "d"
	}
	var b strings.Builder
	for _, r := range name {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			continue
		}
		b.WriteRune('_')
	}
	out := b.String()
	if unicode.IsDigit(rune(out[0])) {
		return "d_" + out
	}
	return out
}

func makeMermaidIDs(names []string) map[string]string {
	ids := make(map[string]string, len(names))
	used := make(map[string]int, len(names))
	for _, name := range names {
		base := sanitizeMermaidID(name)
		idx := used[base]
		used[base] = idx + 1
		if idx == 0 {
			ids[name] = base
			continue
		}
		ids[name] = fmt.Sprintf("%s_%d", base, idx+1)
	}
	return ids
}

func escapeMermaidLabel(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}

func joinInts(v []int) string {
	parts := make([]string, 0, len(v))
	for _, n := range v {
		parts = append(parts, fmt.Sprint(n))
	}
	return strings.Join(parts, ",")
}
