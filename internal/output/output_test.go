package output

import (
	"strings"
	"testing"

	"docwarden/internal/core/ports"
)

func sampleEdges() []ports.EdgeResult {
	return []ports.EdgeResult{
		{Source: "README.md", Target: "docs/guide.md", Kind: ports.EdgeEstablished, Permitted: true, Exists: true, Reciprocated: true},
		{Source: "docs/guide.md", Target: "README.md", Kind: ports.EdgeEstablished, Permitted: true, Exists: true, Reciprocated: true},
		{Source: "README.md", Target: "missing.md", Kind: ports.EdgePhysical, Permitted: true},
		{Source: "docs/guide.md", Target: "../outside/doc.md", Kind: ports.EdgeEstablished, Exists: true},
		{Source: "docs/guide.md", Target: "docs/api.md", Kind: ports.EdgeEstablished, Permitted: true, Exists: true},
	}
}

func TestDOTGenerator(t *testing.T) {
	dot, err := NewDOTGenerator(sampleEdges()).Generate()
	if err != nil {
		t.Fatal(err)
	}

	if !strings.Contains(dot, "digraph links") {
		t.Error("DOT output missing digraph header")
	}
	if !strings.Contains(dot, `"README.md" -> "docs/guide.md" [color="forestgreen", dir=both]`) {
		t.Error("DOT output missing reciprocated edge")
	}
	if !strings.Contains(dot, `"README.md" -> "missing.md" [color="red", penwidth=2.0, label="BROKEN", style=dashed]`) {
		t.Errorf("DOT output missing broken physical edge:\n%s", dot)
	}
	if !strings.Contains(dot, `label="DISALLOWED"`) {
		t.Error("DOT output missing disallowed edge label")
	}
	if !strings.Contains(dot, `"missing.md" [fillcolor="mistyrose"`) {
		t.Error("DOT output must highlight broken targets")
	}
}

func TestTSVGenerator(t *testing.T) {
	tsv, err := NewTSVGenerator(sampleEdges()).Generate()
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(tsv), "\n")
	if len(lines) != 6 {
		t.Fatalf("expected header + 5 rows, got %d", len(lines))
	}
	if lines[0] != "From\tTo\tKind\tPermitted\tExists\tReciprocated\tStatus" {
		t.Errorf("unexpected header %q", lines[0])
	}
	if lines[3] != "README.md\tmissing.md\tPhysical\ttrue\tfalse\tfalse\tBROKEN" {
		t.Errorf("unexpected broken row %q", lines[3])
	}
	if !strings.HasSuffix(lines[5], "\tUNIDIRECTIONAL") {
		t.Errorf("unexpected unidirectional row %q", lines[5])
	}
}

func TestTSVGenerator_Summary(t *testing.T) {
	out, err := NewTSVGenerator(nil).GenerateSummary([]ports.LinkSummaryRow{
		{Document: "document1.md", UnidirectionalTo: 1, TotalTo: 1},
	})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "document1.md\t1\t1\t0\t0\n") {
		t.Errorf("unexpected summary output %q", out)
	}
}

func TestTreeGenerator(t *testing.T) {
	tree, err := NewTreeGenerator(sampleEdges()).Generate()
	if err != nil {
		t.Fatal(err)
	}
	want := "FILE: README.md\n" +
		"  --> [OK] docs/guide.md  (Established)\n" +
		"  --> [BROKEN] missing.md  (Physical)\n" +
		"\n" +
		"FILE: docs/guide.md\n" +
		"  --> [OK] README.md  (Established)\n" +
		"  --> [OK] ../outside/doc.md  (Established)\n" +
		"  --> [OK] docs/api.md  (Established)\n"
	if tree != want {
		t.Errorf("unexpected tree output:\n%s", tree)
	}

	empty, _ := NewTreeGenerator(nil).Generate()
	if !strings.Contains(empty, "No relative links") {
		t.Errorf("unexpected empty output %q", empty)
	}
}

func TestMermaidGenerator(t *testing.T) {
	out, err := NewMermaidGenerator(sampleEdges()).Generate()
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out, "flowchart LR\n") {
		t.Error("mermaid output missing flowchart header")
	}
	if !strings.Contains(out, `README_md["README.md"]:::doc`) {
		t.Errorf("mermaid output missing README node:\n%s", out)
	}
	if !strings.Contains(out, "README_md -.->|BROKEN| missing_md") {
		t.Error("mermaid output missing broken physical edge")
	}
	if !strings.Contains(out, "linkStyle 2,3 stroke:#ff0000") {
		t.Errorf("mermaid output missing broken link style:\n%s", out)
	}
	if !strings.Contains(out, "linkStyle 4 stroke:#ff8c00") {
		t.Error("mermaid output missing unidirectional link style")
	}
}

func TestMakeMermaidIDs(t *testing.T) {
	ids := makeMermaidIDs([]string{"a-b.md", "a_b.md", "1.md"})
	if ids["a-b.md"] != "a_b_md" || ids["a_b.md"] != "a_b_md_2" {
		t.Errorf("unexpected ids %v", ids)
	}
	if ids["1.md"] != "d_1_md" {
		t.Errorf("expected digit-prefixed id to be escaped, got %q", ids["1.md"])
	}
}
