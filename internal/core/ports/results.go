package ports

import (
	"sort"
	"time"
)

// BlockOutcome is the verbose per-block result of matching one document.
// Max is -1 when unbounded; FirstLine/LastLine are 0 without matches.
type BlockOutcome struct {
	Block     int      `json:"block"`
	Severity  Severity `json:"-"`
	Matches   int      `json:"matches"`
	Min       int      `json:"min_occurrences"`
	Max       int      `json:"max_occurrences"`
	FirstLine int      `json:"first_line,omitempty"`
	LastLine  int      `json:"last_line,omitempty"`
}

// DocumentResult collects the structure check of a single document.
type DocumentResult struct {
	File     string         `json:"file"`
	SpecFile string         `json:"spec_file"`
	Tokens   int            `json:"tokens"`
	Blocks   []BlockOutcome `json:"blocks"`
	Findings []Finding      `json:"findings"`
}

// Valid is false once any FATAL finding is recorded for the document.
func (d DocumentResult) Valid() bool {
	for _, f := range d.Findings {
		if f.Severity == SeverityFatal {
			return false
		}
	}
	return true
}

// StructureRun is the outcome of a verify-doc pass.
type StructureRun struct {
	Root      string           `json:"root"`
	Documents []DocumentResult `json:"documents"`
	Findings  []Finding        `json:"findings"`
	Duration  time.Duration    `json:"duration"`
}

// EdgeKind records where an edge was declared.
type EdgeKind string

const (
	EdgeEstablished EdgeKind = "Established"
	EdgePhysical    EdgeKind = "Physical"
)

// EdgeResult holds the three independent predicates evaluated per edge.
type EdgeResult struct {
	Source       string   `json:"source"`
	Target       string   `json:"target"`
	Kind         EdgeKind `json:"kind"`
	Permitted    bool     `json:"permitted"`
	Exists       bool     `json:"exists"`
	Reciprocated bool     `json:"reciprocated"`
}

// LinkSummaryRow is the condensed per-document link summary.
type LinkSummaryRow struct {
	Document           string `json:"document"`
	UnidirectionalTo   int    `json:"unidirectional_to"`
	TotalTo            int    `json:"total_to"`
	TotalFrom          int    `json:"total_from"`
	UnidirectionalFrom int    `json:"unidirectional_from"`
}

// LinkRun is the outcome of a verify-link pass.
type LinkRun struct {
	Root      string           `json:"root"`
	SpecFiles []string         `json:"spec_files"`
	Edges     []EdgeResult     `json:"edges"`
	Rows      []LinkSummaryRow `json:"rows"`
	Findings  []Finding        `json:"findings"`
	Duration  time.Duration    `json:"duration"`
}

// SortFindings orders findings by severity (most severe first), then file,
// line, kind and message so reports are stable across runs.
func SortFindings(findings []Finding) {
	sort.SliceStable(findings, func(i, j int) bool {
		a, b := findings[i], findings[j]
		if a.Severity != b.Severity {
			return a.Severity > b.Severity
		}
		if a.File != b.File {
			return a.File < b.File
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		if a.Kind != b.Kind {
			return a.Kind < b.Kind
		}
		if a.Block != b.Block {
			return a.Block < b.Block
		}
		if a.Target != b.Target {
			return a.Target < b.Target
		}
		if a.Spec != b.Spec {
			return a.Spec < b.Spec
		}
		return a.Message < b.Message
	})
}

// CountBySeverity tallies findings per severity.
func CountBySeverity(findings []Finding) map[Severity]int {
	out := make(map[Severity]int, 3)
	for _, f := range findings {
		out[f.Severity]++
	}
	return out
}
