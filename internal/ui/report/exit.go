package report

import (
	"docwarden/internal/core/ports"
)

const (
	ExitOK = 0
	// ExitFindings is returned for WARN/INFO-only structure runs and for any
	// link finding.
	ExitFindings = 1
	// ExitStructureFatal covers FATAL structure findings and structure runs
	// that could not complete.
	ExitStructureFatal = 2
	// ExitLinkFailure is returned when a link run could not complete.
	ExitLinkFailure = 16
)

// ExitCode maps the outcome of a run to the process exit status. A non-nil
// err means the run aborted before producing findings.
func ExitCode(mode ports.Mode, findings []ports.Finding, err error) int {
	switch mode {
	case ports.ModeLinks:
		if err != nil {
			return ExitLinkFailure
		}
		if len(findings) > 0 {
			return ExitFindings
		}
		return ExitOK
	default:
		if err != nil {
			return ExitStructureFatal
		}
		counts := ports.CountBySeverity(findings)
		if counts[ports.SeverityFatal] > 0 {
			return ExitStructureFatal
		}
		if len(findings) > 0 {
			return ExitFindings
		}
		return ExitOK
	}
}
