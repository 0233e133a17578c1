package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"docwarden/internal/core/ports"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
)

type styles struct {
	fatal   lipgloss.Style
	warn    lipgloss.Style
	info    lipgloss.Style
	success lipgloss.Style
	title   lipgloss.Style
	muted   lipgloss.Style
}

// newStyles binds the palette to w so colors are dropped when w is not a
// terminal.
func newStyles(w io.Writer) styles {
	r := lipgloss.NewRenderer(w)
	return styles{
		fatal:   r.NewStyle().Foreground(lipgloss.Color("#F87171")).Bold(true),
		warn:    r.NewStyle().Foreground(lipgloss.Color("#FBBF24")).Bold(true),
		info:    r.NewStyle().Foreground(lipgloss.Color("#3B82F6")),
		success: r.NewStyle().Foreground(lipgloss.Color("#10B981")).Bold(true),
		title:   r.NewStyle().Foreground(lipgloss.Color("#3B82F6")).Bold(true),
		muted:   r.NewStyle().Foreground(lipgloss.Color("#64748B")).Italic(true),
	}
}

func (s styles) severity(sev ports.Severity) string {
	tag := sev.String()
	pad := strings.Repeat(" ", max(0, 5-len(tag)))
	switch sev {
	case ports.SeverityFatal:
		return s.fatal.Render(tag) + pad
	case ports.SeverityWarn:
		return s.warn.Render(tag) + pad
	default:
		return s.info.Render(tag) + pad
	}
}

type textReporter struct {
	opts Options
}

func (r *textReporter) Structure(w io.Writer, run *ports.StructureRun) error {
	st := newStyles(w)
	var b strings.Builder

	if r.opts.Verbose && !r.opts.Quiet {
		for _, doc := range run.Documents {
			fmt.Fprintf(&b, "%s %s\n", st.title.Render(doc.File),
				st.muted.Render(fmt.Sprintf("(%s, %s tokens)", doc.SpecFile, humanize.Comma(int64(doc.Tokens)))))
			for _, blk := range doc.Blocks {
				fmt.Fprintf(&b, "  block %d: %s match(es) [min %d, max %s] %s\n",
					blk.Block, humanize.Comma(int64(blk.Matches)), blk.Min, maxLabel(blk.Max), blk.Severity)
			}
		}
		if len(run.Documents) > 0 {
			b.WriteString("\n")
		}
	}

	writeFindings(&b, st, run.Findings)

	if !r.opts.Quiet {
		counts := ports.CountBySeverity(run.Findings)
		if len(run.Findings) > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%s %s documents checked: %s fatal, %s warnings, %s info (%s)\n",
			statusTag(st, counts),
			humanize.Comma(int64(len(run.Documents))),
			humanize.Comma(int64(counts[ports.SeverityFatal])),
			humanize.Comma(int64(counts[ports.SeverityWarn])),
			humanize.Comma(int64(counts[ports.SeverityInfo])),
			run.Duration.Round(time.Millisecond))
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func (r *textReporter) Links(w io.Writer, run *ports.LinkRun) error {
	st := newStyles(w)
	var b strings.Builder

	if !r.opts.Quiet {
		if r.opts.Verbose {
			for _, e := range run.Edges {
				fmt.Fprintf(&b, "%s -> %s  permitted=%s exists=%s reciprocated=%s  (%s)\n",
					e.Source, e.Target, yesNo(e.Permitted), yesNo(e.Exists), yesNo(e.Reciprocated), e.Kind)
			}
			if len(run.Edges) > 0 {
				b.WriteString("\n")
			}
		}
		if len(run.Rows) > 0 {
			writeRows(&b, st, run.Rows)
			b.WriteString("\n")
		}
	}

	writeFindings(&b, st, run.Findings)

	if !r.opts.Quiet {
		counts := ports.CountBySeverity(run.Findings)
		if len(run.Findings) > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%s %s links across %s specifications: %s errors, %s warnings (%s)\n",
			statusTag(st, counts),
			humanize.Comma(int64(len(run.Edges))),
			humanize.Comma(int64(len(run.SpecFiles))),
			humanize.Comma(int64(counts[ports.SeverityFatal])),
			humanize.Comma(int64(counts[ports.SeverityWarn])),
			run.Duration.Round(time.Millisecond))
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func writeFindings(b *strings.Builder, st styles, findings []ports.Finding) {
	for _, f := range findings {
		file, line := f.Location()
		loc := file
		if line > 0 {
			loc = fmt.Sprintf("%s:%d", file, line)
		}
		fmt.Fprintf(b, "%s %s %s %s\n", st.severity(f.Severity), loc, st.muted.Render("["+f.Kind.String()+"]"), f.Message)
	}
}

func writeRows(b *strings.Builder, st styles, rows []ports.LinkSummaryRow) {
	width := len("Document")
	for _, row := range rows {
		if len(row.Document) > width {
			width = len(row.Document)
		}
	}
	header := fmt.Sprintf("%-*s  %16s  %7s  %9s  %18s", width, "Document", "UnidirectionalTo", "TotalTo", "TotalFrom", "UnidirectionalFrom")
	b.WriteString(st.title.Render(header) + "\n")
	for _, row := range rows {
		fmt.Fprintf(b, "%-*s  %16d  %7d  %9d  %18d\n", width, row.Document,
			row.UnidirectionalTo, row.TotalTo, row.TotalFrom, row.UnidirectionalFrom)
	}
}

func statusTag(st styles, counts map[ports.Severity]int) string {
	switch {
	case counts[ports.SeverityFatal] > 0:
		return st.fatal.Render("FAIL")
	case counts[ports.SeverityWarn]+counts[ports.SeverityInfo] > 0:
		return st.warn.Render("WARN")
	default:
		return st.success.Render("PASS")
	}
}

func maxLabel(n int) string {
	if n < 0 {
		return "unbounded"
	}
	return fmt.Sprint(n)
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}

// WriteError prints a run failure in the same style as findings.
func WriteError(w io.Writer, err error) {
	st := newStyles(w)
	fmt.Fprintf(w, "%s %v\n", st.fatal.Render("ERROR"), err)
}
