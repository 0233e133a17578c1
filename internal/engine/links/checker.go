package links

import (
	"fmt"

	"docwarden/internal/core/ports"
	"docwarden/internal/engine/graph"
)

// Result is the outcome of checking a Project.
type Result struct {
	Edges    []ports.EdgeResult
	Rows     []ports.LinkSummaryRow
	Findings []ports.Finding
}

// Check evaluates every edge of the project graph and every required link.
// The three edge predicates are independent, except that reciprocity is only
// meaningful for targets that exist.
func Check(p *Project) Result {
	g := p.Graph
	res := Result{}
	res.Findings = append(res.Findings, p.Findings...)

	exists := make(map[graph.DocID]bool)
	existsCached := func(doc graph.DocID) bool {
		if v, ok := exists[doc]; ok {
			return v
		}
		v := isFile(doc.Abs(p.Root))
		exists[doc] = v
		return v
	}

	unidirTo := make(map[graph.DocID]int)
	unidirFrom := make(map[graph.DocID]int)
	totalTo := make(map[graph.DocID]int)
	totalFrom := make(map[graph.DocID]int)

	for _, e := range g.Edges() {
		er := ports.EdgeResult{
			Source:    e.From.String(),
			Target:    e.To.String(),
			Kind:      e.Kind,
			Permitted: p.permitted(e),
			Exists:    existsCached(e.To),
		}
		er.Reciprocated = er.Exists && g.HasEdge(e.To, e.From)
		res.Edges = append(res.Edges, er)

		totalTo[e.From]++
		totalFrom[e.To]++

		if !er.Permitted {
			res.Findings = append(res.Findings, p.edgeFinding(ports.KindDisallowedTarget, e,
				fmt.Sprintf("link %s -> %s is not permitted by allowed_targets", e.From, e.To)))
		}
		if !er.Exists {
			res.Findings = append(res.Findings, p.edgeFinding(ports.KindBrokenLink, e,
				fmt.Sprintf("broken link %s -> %s (target does not exist)", e.From, e.To)))
			continue
		}
		if !er.Reciprocated {
			unidirTo[e.From]++
			unidirFrom[e.To]++
			res.Findings = append(res.Findings, p.edgeFinding(ports.KindUnidirectional, e,
				fmt.Sprintf("unidirectional link %s -> %s", e.From, e.To)))
		}
	}

	for _, req := range p.Required {
		if g.HasEdge(req.From, req.To) {
			continue
		}
		res.Findings = append(res.Findings, ports.Finding{
			Kind:     ports.KindMissingRequired,
			Severity: ports.LinkSeverity(ports.KindMissingRequired),
			File:     req.From.String(),
			Line:     req.Line,
			Block:    -1,
			Target:   req.To.String(),
			Spec:     p.rel(req.Origin),
			Message:  fmt.Sprintf("%s is missing required link to %s", req.From, req.To),
		})
	}

	for _, doc := range g.Documents() {
		if !g.IsSource(doc) && !existsCached(doc) {
			continue
		}
		res.Rows = append(res.Rows, ports.LinkSummaryRow{
			Document:           doc.String(),
			UnidirectionalTo:   unidirTo[doc],
			TotalTo:            totalTo[doc],
			TotalFrom:          totalFrom[doc],
			UnidirectionalFrom: unidirFrom[doc],
		})
	}

	ports.SortFindings(res.Findings)
	return res
}

// permitted evaluates the edge against the rules of the specification that
// declared it.
func (p *Project) permitted(e graph.Edge) bool {
	abs := e.To.Abs(p.Root)
	for _, t := range p.Rules[e.Origin] {
		if t.Permits(abs) {
			return true
		}
	}
	return false
}

// edgeFinding locates established edges at their declaration in the link
// specification and physical edges at the link in the document body.
func (p *Project) edgeFinding(kind ports.FindingKind, e graph.Edge, msg string) ports.Finding {
	f := ports.Finding{
		Kind:     kind,
		Severity: ports.LinkSeverity(kind),
		File:     e.From.String(),
		Line:     e.Line,
		Block:    -1,
		Target:   e.To.String(),
		Message:  msg,
	}
	if e.Kind == ports.EdgeEstablished {
		f.Spec = p.rel(e.Origin)
	}
	return f
}
