package ports

import (
	"context"
	"fmt"
	"strings"
)

// Severity orders findings; higher values are more severe.
type Severity uint8

const (
	SeverityInfo Severity = iota + 1
	SeverityWarn
	SeverityFatal
)

func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "INFO"
	case SeverityWarn:
		return "WARN"
	case SeverityFatal:
		return "FATAL"
	default:
		return fmt.Sprintf("severity(%d)", uint8(s))
	}
}

// ParseSeverity accepts FATAL, WARN or INFO (case-insensitive).
func ParseSeverity(raw string) (Severity, error) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "FATAL":
		return SeverityFatal, nil
	case "WARN":
		return SeverityWarn, nil
	case "INFO":
		return SeverityInfo, nil
	default:
		return 0, fmt.Errorf("error_level must be one of FATAL, WARN, INFO, got %q", raw)
	}
}

// FindingKind is the closed set of content violations either engine reports.
type FindingKind uint8

const (
	KindOccurrenceBelowMin FindingKind = iota + 1
	KindOccurrenceAboveMax
	KindNoMatchFound
	KindDisallowedTarget
	KindBrokenLink
	KindUnidirectional
	KindMissingRequired
	KindUntrackedSource
	KindMissingSpec
)

func (k FindingKind) String() string {
	switch k {
	case KindOccurrenceBelowMin:
		return "occurrence-below-min"
	case KindOccurrenceAboveMax:
		return "occurrence-above-max"
	case KindNoMatchFound:
		return "no-match-found"
	case KindDisallowedTarget:
		return "disallowed-target"
	case KindBrokenLink:
		return "broken-link"
	case KindUnidirectional:
		return "unidirectional"
	case KindMissingRequired:
		return "missing-required"
	case KindUntrackedSource:
		return "untracked-source"
	case KindMissingSpec:
		return "missing-spec"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// IsStructural reports whether the kind comes from the structure matcher.
func (k FindingKind) IsStructural() bool {
	switch k {
	case KindOccurrenceBelowMin, KindOccurrenceAboveMax, KindNoMatchFound:
		return true
	default:
		return false
	}
}

// LinkSeverity is the fixed severity policy for link findings. Declared
// relationships may be one-way, so unidirectional links only warn, while
// required links and broken or disallowed targets are errors.
func LinkSeverity(k FindingKind) Severity {
	switch k {
	case KindUnidirectional, KindMissingSpec:
		return SeverityWarn
	case KindDisallowedTarget, KindBrokenLink, KindMissingRequired, KindUntrackedSource:
		return SeverityFatal
	default:
		return SeverityInfo
	}
}

// Finding is one content violation. File is the root-relative slash path of
// the offending document; Line is 0 when no position applies.
type Finding struct {
	Kind     FindingKind `json:"-"`
	Severity Severity    `json:"-"`
	File     string      `json:"file"`
	Line     int         `json:"line,omitempty"`
	Message  string      `json:"message"`
	// Block is the grammar block index for structural findings, -1 otherwise.
	Block int `json:"block"`
	// Target is the link target for link findings.
	Target string `json:"target,omitempty"`
	// Spec is the root-relative link specification Line refers to. It is
	// empty when Line points into File.
	Spec string `json:"spec,omitempty"`
}

// Location returns the file and line a diagnostic should point at.
func (f Finding) Location() (string, int) {
	if f.Spec != "" {
		return f.Spec, f.Line
	}
	return f.File, f.Line
}

// Mode selects which engine a run exercises.
type Mode uint8

const (
	ModeStructure Mode = iota + 1
	ModeLinks
)

func (m Mode) String() string {
	switch m {
	case ModeStructure:
		return "verify-doc"
	case ModeLinks:
		return "verify-link"
	default:
		return fmt.Sprintf("mode(%d)", uint8(m))
	}
}

// VerifyRequest identifies the directory a validation pass runs over.
type VerifyRequest struct {
	Root string
}

// ValidationService is the driving port used by the CLI and watch mode.
type ValidationService interface {
	VerifyDocuments(ctx context.Context, req VerifyRequest) (*StructureRun, error)
	VerifyLinks(ctx context.Context, req VerifyRequest) (*LinkRun, error)
}
