package graph

import (
	"path/filepath"
	"testing"

	"docwarden/internal/core/ports"
	"docwarden/internal/shared/observability"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func adjacency(g *Graph) map[DocID][]DocID {
	out := make(map[DocID][]DocID)
	for _, doc := range g.Documents() {
		if g.IsSource(doc) {
			out[doc] = []DocID{}
		}
	}
	for _, e := range g.Edges() {
		out[e.From] = append(out[e.From], e.To)
	}
	return out
}

func TestNewDocID(t *testing.T) {
	root := filepath.FromSlash("/repo/docs")
	tests := []struct {
		name string
		in   string
		want DocID
	}{
		{"absolute inside", filepath.Join(root, "guide", "intro.md"), "guide/intro.md"},
		{"absolute outside", filepath.FromSlash("/repo/outside/doc.md"), "../outside/doc.md"},
		{"relative with dot", "./a/../b.md", "b.md"},
		{"root file", filepath.Join(root, "README.md"), "README.md"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NewDocID(root, tt.in))
		})
	}

	id := DocID("guide/intro.md")
	assert.Equal(t, filepath.Join(root, "guide", "intro.md"), id.Abs(root))
	assert.Equal(t, DocID("guide"), id.Dir())
	assert.Equal(t, "intro.md", id.Base())
	assert.Equal(t, DocID("."), DocID("README.md").Dir())
}

func TestGraph_AddEdgeKeepsFirstDeclaration(t *testing.T) {
	g := NewGraph()

	assert.True(t, g.AddEdge(Edge{From: "a.md", To: "b.md", Kind: ports.EdgeEstablished, Origin: "links.yaml"}))
	assert.True(t, g.AddEdge(Edge{From: "a.md", To: "c.md", Kind: ports.EdgeEstablished}))
	assert.False(t, g.AddEdge(Edge{From: "a.md", To: "b.md", Kind: ports.EdgePhysical, Origin: "a.md"}))
	assert.True(t, g.AddEdge(Edge{From: "b.md", To: "a.md", Kind: ports.EdgeEstablished}))

	assert.Equal(t, 3, g.EdgeCount())
	assert.Equal(t, []DocID{"b.md", "c.md"}, adjacency(g)["a.md"])
	assert.True(t, g.HasEdge("b.md", "a.md"))
	assert.False(t, g.HasEdge("c.md", "a.md"))

	edges := g.Edges()
	require.Len(t, edges, 3)
	assert.Equal(t, ports.EdgeEstablished, edges[0].Kind, "duplicate physical edge must not replace the declared one")
	assert.Equal(t, "links.yaml", edges[0].Origin)
}

func TestGraph_DocumentsIncludeTargetsAndSources(t *testing.T) {
	g := NewGraph()
	g.AddEdge(Edge{From: "z.md", To: "hub.md"})
	g.AddEdge(Edge{From: "a.md", To: "hub.md"})
	g.AddSource("lonely.md")

	assert.False(t, g.HasEdge("hub.md", "a.md"))
	assert.True(t, g.IsSource("lonely.md"))
	assert.False(t, g.IsSource("hub.md"))
	assert.Equal(t, []DocID{"a.md", "hub.md", "lonely.md", "z.md"}, g.Documents())
}

func TestGraph_RedeclaringCollapses(t *testing.T) {
	declared := map[DocID][]DocID{
		"README.md":     {"docs/a.md", "docs/b.md"},
		"docs/a.md":     {"README.md"},
		"docs/b.md":     {"docs/a.md", "README.md"},
		"docs/empty.md": {},
	}

	g := NewGraph()
	for _, from := range []DocID{"docs/b.md", "README.md", "docs/empty.md", "docs/a.md"} {
		g.AddSource(from)
		for _, to := range declared[from] {
			g.AddEdge(Edge{From: from, To: to})
		}
		// Re-declaring must not duplicate anything.
		for _, to := range declared[from] {
			g.AddEdge(Edge{From: from, To: to})
		}
	}

	assert.Equal(t, declared, adjacency(g))
	assert.Equal(t, 5, g.EdgeCount())
}

func TestGraph_RecordMetrics(t *testing.T) {
	g := NewGraph()
	g.AddEdge(Edge{From: "a.md", To: "b.md"})
	g.AddEdge(Edge{From: "a.md", To: "c.md"})
	g.RecordMetrics()

	assert.Equal(t, float64(2), testutil.ToFloat64(observability.LinkGraphEdges))
	assert.Equal(t, float64(3), testutil.ToFloat64(observability.LinkGraphDocuments))
}
