package graph

import (
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"docwarden/internal/core/ports"
	"docwarden/internal/shared/observability"
)

// DocID is a document identity: the root-relative, cleaned, slash-separated
// path. Documents outside the root keep their leading "../" segments.
type DocID string

// NewDocID canonicalizes an absolute or root-relative path against root.
func NewDocID(root, p string) DocID {
	if filepath.IsAbs(p) {
		if rel, err := filepath.Rel(root, p); err == nil {
			p = rel
		}
	}
	clean := path.Clean(filepath.ToSlash(p))
	return DocID(strings.TrimPrefix(clean, "./"))
}

// Abs resolves the identity back to a filesystem path under root.
func (d DocID) Abs(root string) string {
	return filepath.Join(root, filepath.FromSlash(string(d)))
}

// Dir is the slash-separated directory of the document ("." for the root).
func (d DocID) Dir() DocID { return DocID(path.Dir(string(d))) }

func (d DocID) Base() string { return path.Base(string(d)) }

func (d DocID) String() string { return string(d) }

type Edge struct {
	From DocID
	To   DocID
	Kind ports.EdgeKind
	// Origin is the path of the link specification that declared the edge,
	// or that tracks the source document for physical edges.
	Origin string
	Line   int
}

// Graph is the consolidated document link graph. Targets keep the order in
// which they were first declared.
type Graph struct {
	mu sync.RWMutex

	sources []DocID
	edges   map[DocID][]*Edge
	index   map[DocID]map[DocID]*Edge // from -> to -> edge
	linkers map[DocID]map[DocID]bool  // to -> from
}

func NewGraph() *Graph {
	return &Graph{
		edges:   make(map[DocID][]*Edge),
		index:   make(map[DocID]map[DocID]*Edge),
		linkers: make(map[DocID]map[DocID]bool),
	}
}

// AddEdge records e unless the same (From, To) pair already exists; the first
// declaration wins. It reports whether the edge was new.
func (g *Graph) AddEdge(e Edge) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	targets, ok := g.index[e.From]
	if !ok {
		targets = make(map[DocID]*Edge)
		g.index[e.From] = targets
		g.sources = append(g.sources, e.From)
	}
	if _, dup := targets[e.To]; dup {
		return false
	}
	edge := e
	targets[e.To] = &edge
	g.edges[e.From] = append(g.edges[e.From], &edge)

	if g.linkers[e.To] == nil {
		g.linkers[e.To] = make(map[DocID]bool)
	}
	g.linkers[e.To][e.From] = true
	return true
}

// AddSource registers a document as a link source even when it declares no
// edges, so its summary row is still produced.
func (g *Graph) AddSource(from DocID) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.index[from]; ok {
		return
	}
	g.index[from] = make(map[DocID]*Edge)
	g.sources = append(g.sources, from)
}

func (g *Graph) HasEdge(from, to DocID) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.index[from][to]
	return ok
}

// IsSource reports whether the document declares outgoing edges (or was
// registered with AddSource).
func (g *Graph) IsSource(doc DocID) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.index[doc]
	return ok
}

// Edges returns every edge, grouped by source in first-seen order.
func (g *Graph) Edges() []Edge {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]Edge, 0, g.edgeCountLocked())
	for _, from := range g.sources {
		for _, e := range g.edges[from] {
			out = append(out, *e)
		}
	}
	return out
}

// RecordMetrics publishes the current graph size to the link graph gauges.
func (g *Graph) RecordMetrics() {
	g.mu.RLock()
	defer g.mu.RUnlock()
	observability.LinkGraphEdges.Set(float64(g.edgeCountLocked()))
	observability.LinkGraphDocuments.Set(float64(len(g.documentsLocked())))
}

func (g *Graph) EdgeCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.edgeCountLocked()
}

// Documents returns every document that appears as a source or target, sorted.
func (g *Graph) Documents() []DocID {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.documentsLocked()
}

func (g *Graph) edgeCountLocked() int {
	n := 0
	for _, edges := range g.edges {
		n += len(edges)
	}
	return n
}

func (g *Graph) documentsLocked() []DocID {
	seen := make(map[DocID]bool, len(g.sources)+len(g.linkers))
	for _, from := range g.sources {
		seen[from] = true
	}
	for to := range g.linkers {
		seen[to] = true
	}
	out := make([]DocID, 0, len(seen))
	for doc := range seen {
		out = append(out, doc)
	}
	sortIDs(out)
	return out
}

func sortIDs(ids []DocID) {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
}
