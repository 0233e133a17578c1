package output

import (
	"fmt"
	"strings"

	"docwarden/internal/core/ports"
)

type DOTGenerator struct {
	edges []ports.EdgeResult
}

func NewDOTGenerator(edges []ports.EdgeResult) *DOTGenerator {
	return &DOTGenerator{edges: edges}
}

func (d *DOTGenerator) Generate() (string, error) {
	var buf strings.Builder

	buf.WriteString("digraph links {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  node [shape=note, style=filled, fillcolor=\"white\", fontname=\"Helvetica\", fontsize=10];\n")
	buf.WriteString("  edge [fontname=\"Helvetica\", fontsize=8, penwidth=1.2];\n")
	buf.WriteString("  overlap=false;\n\n")

	broken := make(map[string]bool)
	for _, e := range d.edges {
		if !e.Exists {
			broken[e.Target] = true
		}
	}
	for _, doc := range documents(d.edges) {
		if broken[doc] {
			buf.WriteString(fmt.Sprintf("  %q [fillcolor=\"mistyrose\", color=\"red\"];\n", doc))
			continue
		}
		buf.WriteString(fmt.Sprintf("  %q [color=\"darkslategrey\"];\n", doc))
	}
	buf.WriteString("\n")

	for _, e := range d.edges {
		attrs := []string{}
		switch status(e) {
		case statusBroken:
			attrs = append(attrs, `color="red"`, `penwidth=2.0`, `label="BROKEN"`)
		case statusDisallowed:
			attrs = append(attrs, `color="red"`, `label="DISALLOWED"`)
		case statusUnidirectional:
			attrs = append(attrs, `color="darkorange"`)
		default:
			attrs = append(attrs, `color="forestgreen"`, `dir=both`)
		}
		if e.Kind == ports.EdgePhysical {
			attrs = append(attrs, `style=dashed`)
		}
		buf.WriteString(fmt.Sprintf("  %q -> %q [%s];\n", e.Source, e.Target, strings.Join(attrs, ", ")))
	}

	buf.WriteString("\n  subgraph cluster_legend {\n")
	buf.WriteString("    label=\"Legend\";\n")
	buf.WriteString("    style=dashed;\n")
	buf.WriteString("    legend_ok [label=\"Reciprocated\", shape=plaintext, fontcolor=\"forestgreen\"];\n")
	buf.WriteString("    legend_unidir [label=\"Unidirectional\", shape=plaintext, fontcolor=\"darkorange\"];\n")
	buf.WriteString("    legend_broken [label=\"Broken / Disallowed\", shape=plaintext, fontcolor=\"red\"];\n")
	buf.WriteString("    legend_physical [label=\"Physical (dashed)\", shape=plaintext];\n")
	buf.WriteString("  }\n")
	buf.WriteString("}\n")

	return buf.String(), nil
}
