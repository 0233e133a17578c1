package output

import (
	"sort"

	"docwarden/internal/core/ports"
)

type linkStatus uint8

const (
	statusOK linkStatus = iota
	statusUnidirectional
	statusDisallowed
	statusBroken
)

func status(e ports.EdgeResult) linkStatus {
	switch {
	case !e.Exists:
		return statusBroken
	case !e.Permitted:
		return statusDisallowed
	case !e.Reciprocated:
		return statusUnidirectional
	default:
		return statusOK
	}
}

func (s linkStatus) String() string {
	switch s {
	case statusBroken:
		return "BROKEN"
	case statusDisallowed:
		return "DISALLOWED"
	case statusUnidirectional:
		return "UNIDIRECTIONAL"
	default:
		return "OK"
	}
}

// documents returns every source and target, sorted.
func documents(edges []ports.EdgeResult) []string {
	seen := make(map[string]bool, len(edges))
	for _, e := range edges {
		seen[e.Source] = true
		seen[e.Target] = true
	}
	out := make([]string, 0, len(seen))
	for doc := range seen {
		out = append(out, doc)
	}
	sort.Strings(out)
	return out
}

// bySource groups edges per source, keeping edge order within a source and
// sorting sources.
func bySource(edges []ports.EdgeResult) ([]string, map[string][]ports.EdgeResult) {
	groups := make(map[string][]ports.EdgeResult)
	for _, e := range edges {
		groups[e.Source] = append(groups[e.Source], e)
	}
	sources := make([]string, 0, len(groups))
	for src := range groups {
		sources = append(sources, src)
	}
	sort.Strings(sources)
	return sources, groups
}
