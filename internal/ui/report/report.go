// Package report renders validation runs for humans and machines and maps
// their outcome to process exit codes.
package report

import (
	"fmt"
	"io"

	"docwarden/internal/core/ports"
)

// Options carries the output verbosity switches through every renderer.
type Options struct {
	// Verbose adds per-block match counts and per-edge predicates.
	Verbose bool
	// Quiet prints findings only, without headers or summaries.
	Quiet bool
}

const (
	FormatText  = "text"
	FormatJSON  = "json"
	FormatSARIF = "sarif"
)

// Reporter writes runs in one output format.
type Reporter interface {
	Structure(w io.Writer, run *ports.StructureRun) error
	Links(w io.Writer, run *ports.LinkRun) error
}

// New returns the reporter for format.
func New(format string, opts Options) (Reporter, error) {
	switch format {
	case "", FormatText:
		return &textReporter{opts: opts}, nil
	case FormatJSON:
		return &jsonReporter{opts: opts}, nil
	case FormatSARIF:
		return &sarifReporter{}, nil
	default:
		return nil, fmt.Errorf("unknown report format %q", format)
	}
}
