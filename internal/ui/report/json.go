package report

import (
	"encoding/json"
	"io"
	"time"

	"docwarden/internal/core/ports"
	"docwarden/internal/shared/version"

	"github.com/google/uuid"
)

type jsonFinding struct {
	Kind     string `json:"kind"`
	Severity string `json:"severity"`
	ports.Finding
}

type jsonBlock struct {
	Severity string `json:"severity"`
	ports.BlockOutcome
}

type jsonDocument struct {
	File     string      `json:"file"`
	SpecFile string      `json:"spec_file"`
	Tokens   int         `json:"tokens"`
	Valid    bool        `json:"valid"`
	Blocks   []jsonBlock `json:"blocks,omitempty"`
}

type jsonSummary struct {
	Fatal int `json:"fatal"`
	Warn  int `json:"warn"`
	Info  int `json:"info"`
}

type jsonReport struct {
	RunID      string                 `json:"run_id"`
	Tool       string                 `json:"tool"`
	Version    string                 `json:"version"`
	Mode       string                 `json:"mode"`
	Root       string                 `json:"root"`
	DurationMS int64                  `json:"duration_ms"`
	Summary    jsonSummary            `json:"summary"`
	Findings   []jsonFinding          `json:"findings"`
	Documents  []jsonDocument         `json:"documents,omitempty"`
	SpecFiles  []string               `json:"spec_files,omitempty"`
	Rows       []ports.LinkSummaryRow `json:"rows,omitempty"`
	Edges      []ports.EdgeResult     `json:"edges,omitempty"`
}

type jsonReporter struct {
	opts Options
}

func newJSONReport(mode ports.Mode, root string, d time.Duration, findings []ports.Finding) jsonReport {
	counts := ports.CountBySeverity(findings)
	out := jsonReport{
		RunID:      uuid.NewString(),
		Tool:       "docwarden",
		Version:    version.Version,
		Mode:       mode.String(),
		Root:       root,
		DurationMS: d.Milliseconds(),
		Summary: jsonSummary{
			Fatal: counts[ports.SeverityFatal],
			Warn:  counts[ports.SeverityWarn],
			Info:  counts[ports.SeverityInfo],
		},
		Findings: make([]jsonFinding, 0, len(findings)),
	}
	for _, f := range findings {
		out.Findings = append(out.Findings, jsonFinding{Kind: f.Kind.String(), Severity: f.Severity.String(), Finding: f})
	}
	return out
}

func (r *jsonReporter) Structure(w io.Writer, run *ports.StructureRun) error {
	out := newJSONReport(ports.ModeStructure, run.Root, run.Duration, run.Findings)
	if !r.opts.Quiet {
		for _, doc := range run.Documents {
			jd := jsonDocument{File: doc.File, SpecFile: doc.SpecFile, Tokens: doc.Tokens, Valid: doc.Valid()}
			if r.opts.Verbose {
				for _, blk := range doc.Blocks {
					jd.Blocks = append(jd.Blocks, jsonBlock{Severity: blk.Severity.String(), BlockOutcome: blk})
				}
			}
			out.Documents = append(out.Documents, jd)
		}
	}
	return encode(w, out)
}

func (r *jsonReporter) Links(w io.Writer, run *ports.LinkRun) error {
	out := newJSONReport(ports.ModeLinks, run.Root, run.Duration, run.Findings)
	if !r.opts.Quiet {
		out.SpecFiles = run.SpecFiles
		out.Rows = run.Rows
		if r.opts.Verbose {
			out.Edges = run.Edges
		}
	}
	return encode(w, out)
}

func encode(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
