package links

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	derrors "docwarden/internal/core/errors"
	"docwarden/internal/core/ports"
	"docwarden/internal/engine/graph"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

func build(t *testing.T, root string, opts BuildOptions) *Project {
	t.Helper()
	p, err := Build(context.Background(), root, opts)
	require.NoError(t, err)
	return p
}

func findingsOf(res Result, kind ports.FindingKind) []ports.Finding {
	var out []ports.Finding
	for _, f := range res.Findings {
		if f.Kind == kind {
			out = append(out, f)
		}
	}
	return out
}

func targetsOf(g *graph.Graph, from graph.DocID) []graph.DocID {
	var out []graph.DocID
	for _, e := range g.Edges() {
		if e.From == from {
			out = append(out, e.To)
		}
	}
	return out
}

func rowFor(res Result, doc string) (ports.LinkSummaryRow, bool) {
	for _, row := range res.Rows {
		if row.Document == doc {
			return row, true
		}
	}
	return ports.LinkSummaryRow{}, false
}

const allowHere = `allowed_targets:
  - directory: "."
    filename_regex: ".*\\.md"
`

func TestParseSpec_PreservesDeclarationOrder(t *testing.T) {
	data := []byte(allowHere + `established_links:
  zeta.md:
    - b.md
    - a.md
  alpha.md:
    - zeta.md
  empty.md:
required_links:
  README.md: [LICENSE.md]
`)
	spec, err := ParseSpec(data, "/docs")
	require.NoError(t, err)

	require.Len(t, spec.AllowedTargets, 1)
	assert.Equal(t, filepath.Clean("/docs"), spec.AllowedTargets[0].Dir)
	assert.True(t, spec.AllowedTargets[0].Permits(filepath.FromSlash("/docs/x.md")))
	assert.False(t, spec.AllowedTargets[0].Permits(filepath.FromSlash("/docs/x.md.bak")), "regex is a full match")
	assert.False(t, spec.AllowedTargets[0].Permits(filepath.FromSlash("/docs/sub/x.md")))

	require.Len(t, spec.Established, 3)
	assert.Equal(t, "zeta.md", spec.Established[0].Source)
	assert.Equal(t, []DeclaredTarget{{Path: "b.md", Line: 6}, {Path: "a.md", Line: 7}}, spec.Established[0].Targets)
	assert.Equal(t, "alpha.md", spec.Established[1].Source)
	assert.Empty(t, spec.Established[2].Targets)

	require.Len(t, spec.Required, 1)
	assert.Equal(t, "LICENSE.md", spec.Required[0].Targets[0].Path)
}

func TestParseSpec_EmptyDocument(t *testing.T) {
	spec, err := ParseSpec(nil, "/docs")
	require.NoError(t, err)
	assert.Empty(t, spec.AllowedTargets)
	assert.Empty(t, spec.Established)
}

func TestParseSpec_Rejects(t *testing.T) {
	cases := map[string]string{
		"broken yaml":           "allowed_targets: [",
		"empty directory":       "allowed_targets:\n  - directory: \"\"\n    filename_regex: \".*\"\n",
		"missing regex":         "allowed_targets:\n  - directory: \".\"\n",
		"bad regex":             "allowed_targets:\n  - directory: \".\"\n    filename_regex: \"[\"\n",
		"established not a map": "established_links: [a.md]\n",
		"targets not a list":    "established_links:\n  a.md: b.md\n",
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseSpec([]byte(data), "/docs")
			require.Error(t, err)
			assert.True(t, derrors.IsCode(err, derrors.CodeSpecParse), "got %v", err)
		})
	}
}

func TestBuild_MissingRootSpec(t *testing.T) {
	root := writeTree(t, map[string]string{"README.md": "# Readme\n"})

	_, err := Build(context.Background(), root, BuildOptions{})
	require.Error(t, err)
	assert.True(t, derrors.IsCode(err, derrors.CodeSpecNotFound))
	assert.True(t, derrors.IsSystemFailure(err))
}

func TestBuild_UnparseableReachableSpec(t *testing.T) {
	root := writeTree(t, map[string]string{
		"links.yaml":     "allowed_targets:\n  - directory: sub\n    filename_regex: \".*\"\n",
		"sub/links.yaml": "allowed_targets: {",
	})

	_, err := Build(context.Background(), root, BuildOptions{})
	require.Error(t, err)
	assert.True(t, derrors.IsCode(err, derrors.CodeSpecParse))
}

func TestBuild_CyclicDiscoveryTerminates(t *testing.T) {
	root := writeTree(t, map[string]string{
		"links.yaml": `allowed_targets:
  - directory: "."
    filename_regex: ".*\\.md"
  - directory: sub
    filename_regex: ".*\\.md"
established_links:
  README.md:
    - sub/guide.md
`,
		"README.md": "# Readme\n",
		"sub/links.yaml": `allowed_targets:
  - directory: ".."
    filename_regex: ".*\\.md"
  - directory: "."
    filename_regex: ".*\\.md"
established_links:
  guide.md:
    - ../README.md
`,
		"sub/guide.md": "# Guide\n",
	})

	p := build(t, root, BuildOptions{})
	assert.Len(t, p.SpecFiles, 2, "each specification is loaded once")
	assert.Len(t, p.AllowedTargets, 4)

	res := Check(p)
	assert.Empty(t, res.Findings)
	for _, doc := range []string{"README.md", "sub/guide.md"} {
		row, ok := rowFor(res, doc)
		require.True(t, ok, doc)
		assert.Equal(t, 0, row.UnidirectionalTo)
		assert.Equal(t, 0, row.UnidirectionalFrom)
		assert.Equal(t, 1, row.TotalTo)
		assert.Equal(t, 1, row.TotalFrom)
	}
}

func TestCheck_UnidirectionalIsWarning(t *testing.T) {
	root := writeTree(t, map[string]string{
		"links.yaml":   allowHere + "established_links:\n  document1.md:\n    - document2.md\n",
		"document1.md": "# One\n",
		"document2.md": "# Two\n",
	})

	res := Check(build(t, root, BuildOptions{}))

	require.Len(t, res.Findings, 1)
	assert.Equal(t, ports.KindUnidirectional, res.Findings[0].Kind)
	assert.Equal(t, ports.SeverityWarn, res.Findings[0].Severity)
	assert.Equal(t, "document1.md", res.Findings[0].File)
	assert.Equal(t, "document2.md", res.Findings[0].Target)
	assert.Equal(t, 6, res.Findings[0].Line)
	assert.Equal(t, "links.yaml", res.Findings[0].Spec, "line refers to the declaring specification")

	row, ok := rowFor(res, "document1.md")
	require.True(t, ok)
	assert.Equal(t, ports.LinkSummaryRow{Document: "document1.md", UnidirectionalTo: 1, TotalTo: 1}, row)
	row, ok = rowFor(res, "document2.md")
	require.True(t, ok)
	assert.Equal(t, ports.LinkSummaryRow{Document: "document2.md", TotalFrom: 1, UnidirectionalFrom: 1}, row)

	require.Len(t, res.Edges, 1)
	assert.Equal(t, ports.EdgeResult{
		Source: "document1.md", Target: "document2.md", Kind: ports.EdgeEstablished,
		Permitted: true, Exists: true, Reciprocated: false,
	}, res.Edges[0])
}

func TestCheck_MissingRequired(t *testing.T) {
	root := writeTree(t, map[string]string{
		"links.yaml": allowHere + "established_links:\n  README.md: []\nrequired_links:\n  README.md:\n    - LICENSE.md\n",
		"README.md":  "# Readme\n",
		"LICENSE.md": "MIT\n",
	})

	res := Check(build(t, root, BuildOptions{}))

	missing := findingsOf(res, ports.KindMissingRequired)
	require.Len(t, missing, 1)
	assert.Equal(t, ports.SeverityFatal, missing[0].Severity)
	assert.Equal(t, "README.md", missing[0].File)
	assert.Equal(t, "LICENSE.md", missing[0].Target)
	assert.Equal(t, "links.yaml", missing[0].Spec)
	assert.Equal(t, 8, missing[0].Line)
}

func TestCheck_DisallowedTargetOutsideRoot(t *testing.T) {
	base := writeTree(t, map[string]string{
		"project/links.yaml": allowHere + "established_links:\n  index.md:\n    - ../outside/doc.md\n",
		"project/index.md":   "# Index\n",
		"outside/doc.md":     "# Outside\n",
	})

	res := Check(build(t, filepath.Join(base, "project"), BuildOptions{}))

	disallowed := findingsOf(res, ports.KindDisallowedTarget)
	require.Len(t, disallowed, 1)
	assert.Equal(t, "../outside/doc.md", disallowed[0].Target)
	assert.Empty(t, findingsOf(res, ports.KindBrokenLink), "target exists")
}

func TestCheck_BrokenLinkReportedOnce(t *testing.T) {
	root := writeTree(t, map[string]string{
		"links.yaml": `allowed_targets:
  - directory: "."
    filename_regex: ".*\\.md"
established_links:
  a.md:
    - missing.md
    - ../elsewhere/gone.md
`,
		"a.md": "# A\n",
	})

	res := Check(build(t, root, BuildOptions{}))

	broken := findingsOf(res, ports.KindBrokenLink)
	require.Len(t, broken, 2)
	assert.Len(t, findingsOf(res, ports.KindDisallowedTarget), 1)
	assert.Empty(t, findingsOf(res, ports.KindUnidirectional), "broken links are never also unidirectional")

	_, ok := rowFor(res, "missing.md")
	assert.False(t, ok, "no summary row for a target that does not exist")
}

func TestBuild_UntrackedSourceIsReported(t *testing.T) {
	root := writeTree(t, map[string]string{
		"links.yaml": allowHere + "established_links:\n  ghost.md:\n    - real.md\n",
		"real.md":    "# Real\n",
	})

	p := build(t, root, BuildOptions{})
	require.Len(t, p.Findings, 1)
	assert.Equal(t, ports.KindUntrackedSource, p.Findings[0].Kind)
	assert.Equal(t, "ghost.md", p.Findings[0].File)
	assert.Equal(t, "links.yaml", p.Findings[0].Spec)
	assert.Equal(t, 5, p.Findings[0].Line)
	assert.True(t, p.Graph.HasEdge("ghost.md", "real.md"), "edge is kept for checking")

	res := Check(p)
	assert.Len(t, findingsOf(res, ports.KindUntrackedSource), 1)
}

func TestBuild_MissingSpecInTargetDirectory(t *testing.T) {
	root := writeTree(t, map[string]string{
		"links.yaml": allowHere + "  - directory: docs\n    filename_regex: \".*\\\\.md\"\n",
		"docs/a.md":  "# A\n",
	})

	p := build(t, root, BuildOptions{})
	require.Len(t, p.Findings, 1)
	assert.Equal(t, ports.KindMissingSpec, p.Findings[0].Kind)
	assert.Equal(t, ports.SeverityWarn, p.Findings[0].Severity)
	assert.Equal(t, "docs", p.Findings[0].File)
	assert.Len(t, p.SpecFiles, 1)
}

func TestBuild_IncludePhysicalLinks(t *testing.T) {
	root := writeTree(t, map[string]string{
		"links.yaml": allowHere + "established_links:\n  a.md:\n    - b.md\n  b.md:\n    - a.md\n",
		"a.md":       "# A\n\nSee [b](b.md) and [c](c.md#intro) or [site](https://example.com).\n",
		"b.md":       "# B\n",
		"c.md":       "# C\n",
	})

	p := build(t, root, BuildOptions{IncludePhysical: true})
	assert.Equal(t, []graph.DocID{"b.md", "c.md"}, targetsOf(p.Graph, "a.md"))

	edges := p.Graph.Edges()
	require.Len(t, edges, 3)
	assert.Equal(t, ports.EdgeEstablished, edges[0].Kind, "declared edge wins over the duplicate body link")
	assert.Equal(t, ports.EdgePhysical, edges[1].Kind)
	assert.Equal(t, 3, edges[1].Line)

	without := build(t, root, BuildOptions{})
	assert.Equal(t, []graph.DocID{"b.md"}, targetsOf(without.Graph, "a.md"))
}

func TestBuild_PhysicalLinksFromUndeclaredDocuments(t *testing.T) {
	root := writeTree(t, map[string]string{
		"links.yaml":   allowHere,
		"a.md":         "# A\n\n[b](b.md) and [gone](missing.md)\n",
		"b.md":         "# B\n",
		".draft.md":    "[x](x.md)\n",
		"notes.txt":    "[y](y.md)\n",
		"sub/links.md": "[z](z.md)\n",
	})

	res := Check(build(t, root, BuildOptions{IncludePhysical: true}))

	require.Len(t, res.Edges, 2)
	assert.Equal(t, ports.EdgeResult{Source: "a.md", Target: "b.md", Kind: ports.EdgePhysical, Permitted: true, Exists: true}, res.Edges[0])
	assert.Equal(t, "missing.md", res.Edges[1].Target)

	broken := findingsOf(res, ports.KindBrokenLink)
	require.Len(t, broken, 1)
	assert.Equal(t, "a.md", broken[0].File)
	assert.Equal(t, 3, broken[0].Line)
	assert.Empty(t, broken[0].Spec, "physical links point into the document body")
}

func TestBuild_EveryDeclaredEdgeExactlyOnce(t *testing.T) {
	files := map[string]string{
		"links.yaml": `allowed_targets:
  - directory: "."
    filename_regex: ".*\\.md"
  - directory: guides
    filename_regex: ".*\\.md"
  - directory: ref
    filename_regex: ".*\\.md"
established_links:
  README.md:
    - guides/start.md
    - ref/api.md
`,
		"guides/links.yaml": `allowed_targets:
  - directory: ../ref
    filename_regex: ".*\\.md"
  - directory: ".."
    filename_regex: ".*\\.md"
established_links:
  start.md:
    - ../ref/api.md
    - ../README.md
`,
		"ref/links.yaml": `allowed_targets:
  - directory: ..
    filename_regex: ".*\\.md"
  - directory: ../guides
    filename_regex: ".*\\.md"
established_links:
  api.md:
    - ../README.md
    - ../guides/start.md
  ../README.md:
    - ref/api.md
`,
		"README.md":       "# Readme\n",
		"guides/start.md": "# Start\n",
		"ref/api.md":      "# API\n",
	}
	root := writeTree(t, files)

	p := build(t, root, BuildOptions{})
	assert.Len(t, p.SpecFiles, 3)
	assert.Equal(t, []graph.DocID{"guides/start.md", "ref/api.md"}, targetsOf(p.Graph, "README.md"))
	assert.Equal(t, []graph.DocID{"ref/api.md", "README.md"}, targetsOf(p.Graph, "guides/start.md"))
	assert.Equal(t, []graph.DocID{"README.md", "guides/start.md"}, targetsOf(p.Graph, "ref/api.md"))
	assert.Equal(t, 6, p.Graph.EdgeCount())

	res := Check(p)
	assert.Empty(t, res.Findings)
	assert.Len(t, res.Edges, 6)
}
