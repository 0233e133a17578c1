package grammar

import (
	"fmt"

	"docwarden/internal/core/ports"
	"docwarden/internal/engine/tokenizer"
)

type State uint8

const (
	StateSearching State = iota + 1
	StateMatching
	StateMatched
	StateFailedPartial
)

func (s State) String() string {
	switch s {
	case StateSearching:
		return "SEARCHING"
	case StateMatching:
		return "MATCHING"
	case StateMatched:
		return "MATCHED"
	case StateFailedPartial:
		return "FAILED-PARTIAL"
	default:
		return fmt.Sprintf("state(%d)", uint8(s))
	}
}

// Occurrence is one complete match of a block sequence.
type Occurrence struct {
	StartLine int
	EndLine   int
}

// Matcher scans a token stream for one block in a single forward pass.
// MATCHED and FAILED-PARTIAL are transient: the next token is handled as if
// searching.
type Matcher struct {
	block       Block
	state       State
	index       int
	startLine   int
	abandonedAt int
	occurrences []Occurrence
}

func NewMatcher(block Block) *Matcher {
	return &Matcher{block: block, state: StateSearching}
}

func (m *Matcher) State() State { return m.state }

func (m *Matcher) Occurrences() []Occurrence {
	out := make([]Occurrence, len(m.occurrences))
	copy(out, m.occurrences)
	return out
}

// Feed advances the machine by one token. A candidate that breaks is dropped
// and the same token is re-tried as the first step; there is no further
// backtracking.
func (m *Matcher) Feed(tok tokenizer.Token) {
	seq := m.block.Sequence
	if len(seq) == 0 {
		return
	}
	failed := false
	if m.state == StateMatching {
		if seq[m.index].Matches(tok) {
			m.index++
			if m.index == len(seq) {
				m.complete(tok.Line)
			}
			return
		}
		m.abandonedAt = m.startLine
		m.index = 0
		failed = true
	}

	if !seq[0].Matches(tok) {
		m.state = StateSearching
		if failed {
			m.state = StateFailedPartial
		}
		return
	}
	m.startLine = tok.Line
	if len(seq) == 1 {
		m.complete(tok.Line)
		return
	}
	m.state = StateMatching
	m.index = 1
}

func (m *Matcher) complete(endLine int) {
	m.occurrences = append(m.occurrences, Occurrence{StartLine: m.startLine, EndLine: endLine})
	m.state = StateMatched
	m.index = 0
}

// Scan feeds every token and returns the matcher for evaluation.
func (m *Matcher) Scan(tokens []tokenizer.Token) *Matcher {
	for _, tok := range tokens {
		m.Feed(tok)
	}
	return m
}

// Evaluate compares the occurrence count against the block bounds. At most
// one finding is produced per block. tokenCount distinguishes an empty
// document (no-match-found) from one that simply lacks the sequence.
func (m *Matcher) Evaluate(file string, tokenCount int) (ports.BlockOutcome, *ports.Finding) {
	b := m.block
	count := len(m.occurrences)
	outcome := ports.BlockOutcome{
		Block:    b.Index,
		Severity: b.Severity,
		Matches:  count,
		Min:      b.Min,
		Max:      b.Max,
	}
	if count > 0 {
		outcome.FirstLine = m.occurrences[0].StartLine
		outcome.LastLine = m.occurrences[count-1].EndLine
	}

	finding := ports.Finding{
		Severity: b.Severity,
		File:     file,
		Block:    b.Index,
	}
	switch {
	case count < b.Min && tokenCount == 0:
		finding.Kind = ports.KindNoMatchFound
		finding.Message = fmt.Sprintf("block %d: document has no content, expected at least %d occurrence(s)", b.Index, b.Min)
	case count < b.Min:
		finding.Kind = ports.KindOccurrenceBelowMin
		finding.Message = fmt.Sprintf("block %d: expected at least %d occurrence(s), found %d", b.Index, b.Min, count)
		switch {
		case count > 0:
			finding.Line = outcome.FirstLine
			finding.Message += fmt.Sprintf(" (lines %d-%d)", outcome.FirstLine, outcome.LastLine)
		case m.abandonedAt > 0:
			finding.Line = m.abandonedAt
			finding.Message += fmt.Sprintf(" (last partial match started at line %d)", m.abandonedAt)
		}
	case b.Max != Unbounded && count > b.Max:
		finding.Kind = ports.KindOccurrenceAboveMax
		finding.Line = m.occurrences[b.Max].StartLine
		finding.Message = fmt.Sprintf("block %d: expected at most %d occurrence(s), found %d (lines %d-%d)",
			b.Index, b.Max, count, outcome.FirstLine, outcome.LastLine)
	default:
		return outcome, nil
	}
	return outcome, &finding
}

// CheckDocument evaluates every block of spec independently against tokens.
// One failing block never stops the others.
func CheckDocument(spec *Spec, file string, tokens []tokenizer.Token) ports.DocumentResult {
	result := ports.DocumentResult{
		File:     file,
		SpecFile: spec.Path,
		Tokens:   len(tokens),
		Blocks:   make([]ports.BlockOutcome, 0, len(spec.Blocks)),
	}
	for _, block := range spec.Blocks {
		outcome, finding := NewMatcher(block).Scan(tokens).Evaluate(file, len(tokens))
		result.Blocks = append(result.Blocks, outcome)
		if finding != nil {
			result.Findings = append(result.Findings, *finding)
		}
	}
	return result
}
