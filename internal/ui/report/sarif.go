package report

import (
	"encoding/json"
	"io"
	"path/filepath"
	"sort"

	"docwarden/internal/core/ports"
	"docwarden/internal/shared/version"

	"github.com/google/uuid"
)

// SARIF v2.1.0 schema: https://schemastore.azurewebsites.net/schemas/json/sarif-2.1.0-rtm.5.json
const (
	sarifSchema  = "https://schemastore.azurewebsites.net/schemas/json/sarif-2.1.0-rtm.5.json"
	sarifVersion = "2.1.0"
)

type sarifReport struct {
	Schema  string     `json:"$schema"`
	Version string     `json:"version"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool              sarifTool              `json:"tool"`
	AutomationDetails sarifAutomationDetails `json:"automationDetails"`
	Results           []sarifResult          `json:"results"`
}

type sarifAutomationDetails struct {
	ID   string `json:"id"`
	GUID string `json:"guid"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name    string      `json:"name"`
	Version string      `json:"version"`
	Rules   []sarifRule `json:"rules"`
}

type sarifRule struct {
	ID               string                 `json:"id"`
	Name             string                 `json:"name"`
	ShortDescription sarifMessage           `json:"shortDescription"`
	DefaultConfig    sarifRuleDefaultConfig `json:"defaultConfiguration"`
}

type sarifRuleDefaultConfig struct {
	Level string `json:"level"`
}

type sarifResult struct {
	RuleID    string          `json:"ruleId"`
	Level     string          `json:"level"`
	Message   sarifMessage    `json:"message"`
	Locations []sarifLocation `json:"locations,omitempty"`
}

type sarifMessage struct {
	Text string `json:"text"`
}

type sarifLocation struct {
	PhysicalLocation sarifPhysicalLocation `json:"physicalLocation"`
}

type sarifPhysicalLocation struct {
	ArtifactLocation sarifArtifactLocation `json:"artifactLocation"`
	Region           *sarifRegion          `json:"region,omitempty"`
}

type sarifArtifactLocation struct {
	URI       string `json:"uri"`
	URIBaseID string `json:"uriBaseId"`
}

type sarifRegion struct {
	StartLine int `json:"startLine,omitempty"`
}

var ruleDescriptions = map[ports.FindingKind]string{
	ports.KindOccurrenceBelowMin: "A grammar block occurs fewer times than its minimum.",
	ports.KindOccurrenceAboveMax: "A grammar block occurs more times than its maximum.",
	ports.KindNoMatchFound:       "The document has no content to match against the grammar.",
	ports.KindDisallowedTarget:   "A link target is not permitted by any allowed_targets rule.",
	ports.KindBrokenLink:         "A link target does not exist.",
	ports.KindUnidirectional:     "A link is not reciprocated by its target.",
	ports.KindMissingRequired:    "A required link is not declared.",
	ports.KindUntrackedSource:    "An established link source does not exist.",
	ports.KindMissingSpec:        "A directory reached by allowed_targets has no link specification.",
}

type sarifReporter struct{}

func (sarifReporter) Structure(w io.Writer, run *ports.StructureRun) error {
	return writeSARIF(w, ports.ModeStructure, run.Root, run.Findings)
}

func (sarifReporter) Links(w io.Writer, run *ports.LinkRun) error {
	return writeSARIF(w, ports.ModeLinks, run.Root, run.Findings)
}

func writeSARIF(w io.Writer, mode ports.Mode, root string, findings []ports.Finding) error {
	data, err := GenerateSARIF(mode, root, findings)
	if err != nil {
		return err
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}

// GenerateSARIF builds a SARIF v2.1.0 document from findings. Finding files
// are already root-relative, so URIs never expose absolute paths.
func GenerateSARIF(mode ports.Mode, root string, findings []ports.Finding) ([]byte, error) {
	results := make([]sarifResult, 0, len(findings))
	seen := make(map[ports.FindingKind]bool)
	for _, f := range findings {
		seen[f.Kind] = true
		result := sarifResult{
			RuleID:  f.Kind.String(),
			Level:   sarifLevel(f.Severity),
			Message: sarifMessage{Text: f.Message},
		}
		if file, line := f.Location(); file != "" {
			loc := sarifLocation{
				PhysicalLocation: sarifPhysicalLocation{
					ArtifactLocation: sarifArtifactLocation{
						URI:       relativeURI(root, file),
						URIBaseID: "%SRCROOT%",
					},
				},
			}
			if line > 0 {
				loc.PhysicalLocation.Region = &sarifRegion{StartLine: line}
			}
			result.Locations = []sarifLocation{loc}
		}
		results = append(results, result)
	}

	report := sarifReport{
		Schema:  sarifSchema,
		Version: sarifVersion,
		Runs: []sarifRun{{
			Tool: sarifTool{Driver: sarifDriver{
				Name:    "docwarden",
				Version: version.Version,
				Rules:   buildSARIFRules(seen),
			}},
			AutomationDetails: sarifAutomationDetails{
				ID:   "docwarden/" + mode.String() + "/",
				GUID: uuid.NewString(),
			},
			Results: results,
		}},
	}
	return json.MarshalIndent(report, "", "  ")
}

// buildSARIFRules returns only the rules that are relevant for the given findings.
func buildSARIFRules(seen map[ports.FindingKind]bool) []sarifRule {
	kinds := make([]ports.FindingKind, 0, len(seen))
	for k := range seen {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })

	rules := make([]sarifRule, 0, len(kinds))
	for _, k := range kinds {
		level := "error"
		if !k.IsStructural() {
			level = sarifLevel(ports.LinkSeverity(k))
		}
		rules = append(rules, sarifRule{
			ID:               k.String(),
			Name:             k.String(),
			ShortDescription: sarifMessage{Text: ruleDescriptions[k]},
			DefaultConfig:    sarifRuleDefaultConfig{Level: level},
		})
	}
	return rules
}

// relativeURI converts a path to a forward-slash URI anchored at root.
func relativeURI(root, path string) string {
	if root != "" && filepath.IsAbs(path) {
		if rel, err := filepath.Rel(root, path); err == nil {
			path = rel
		}
	}
	return filepath.ToSlash(path)
}

func sarifLevel(sev ports.Severity) string {
	switch sev {
	case ports.SeverityFatal:
		return "error"
	case ports.SeverityWarn:
		return "warning"
	default:
		return "note"
	}
}
