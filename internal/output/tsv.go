package output

import (
	"fmt"
	"strings"

	"docwarden/internal/core/ports"
)

type TSVGenerator struct {
	edges []ports.EdgeResult
}

func NewTSVGenerator(edges []ports.EdgeResult) *TSVGenerator {
	return &TSVGenerator{edges: edges}
}

func (t *TSVGenerator) Generate() (string, error) {
	var buf strings.Builder

	buf.WriteString("From\tTo\tKind\tPermitted\tExists\tReciprocated\tStatus\n")
	for _, e := range t.edges {
		buf.WriteString(fmt.Sprintf("%s\t%s\t%s\t%t\t%t\t%t\t%s\n",
			e.Source, e.Target, e.Kind, e.Permitted, e.Exists, e.Reciprocated, status(e)))
	}
	return buf.String(), nil
}

// GenerateSummary renders the per-document summary rows.
func (t *TSVGenerator) GenerateSummary(rows []ports.LinkSummaryRow) (string, error) {
	var buf strings.Builder

	buf.WriteString("Document\tUnidirectionalTo\tTotalTo\tTotalFrom\tUnidirectionalFrom\n")
	for _, row := range rows {
		buf.WriteString(fmt.Sprintf("%s\t%d\t%d\t%d\t%d\n",
			row.Document, row.UnidirectionalTo, row.TotalTo, row.TotalFrom, row.UnidirectionalFrom))
	}
	return buf.String(), nil
}
