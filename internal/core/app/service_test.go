package app

import (
	"context"
	"testing"

	"docwarden/internal/core/config"
	derrors "docwarden/internal/core/errors"
	"docwarden/internal/core/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const titleSpec = `structure:
  - sequence:
      - type: heading_open
        level: 1
      - type: paragraph_open
    min_occurrences: 1
    max_occurrences: 1
    error_level: FATAL
`

const scenarioSpec = `structure:
  - sequence:
      - type: fence
        info: gherkin
    min_occurrences: 1
    error_level: WARN
`

func TestVerifyDocuments_NearestSpecWins(t *testing.T) {
	root := writeTree(t, map[string]string{
		"spec.yaml":              titleSpec,
		"README.md":              "# Title\n\nIntro.\n",
		"docs/bad.md":            "Just text.\n",
		"scenarios/spec.yaml":    scenarioSpec,
		"scenarios/login.md":     "# Login\n\n```gherkin\nFeature: x\n```\n",
		"scenarios/deep/misc.md": "# Misc\n\nNo scenario here.\n",
	})
	svc := newApp(t, nil).ValidationService()

	run, err := svc.VerifyDocuments(context.Background(), ports.VerifyRequest{Root: root})
	require.NoError(t, err)
	require.Len(t, run.Documents, 4)

	files := make([]string, 0, len(run.Documents))
	for _, doc := range run.Documents {
		files = append(files, doc.File)
	}
	assert.Equal(t, []string{"README.md", "docs/bad.md", "scenarios/deep/misc.md", "scenarios/login.md"}, files)

	assert.Equal(t, "spec.yaml", run.Documents[0].SpecFile)
	assert.Equal(t, "spec.yaml", run.Documents[1].SpecFile)
	assert.Equal(t, "scenarios/spec.yaml", run.Documents[2].SpecFile)
	assert.Equal(t, "scenarios/spec.yaml", run.Documents[3].SpecFile)

	require.Len(t, run.Findings, 2)
	assert.Equal(t, ports.SeverityFatal, run.Findings[0].Severity)
	assert.Equal(t, "docs/bad.md", run.Findings[0].File)
	assert.Equal(t, ports.KindOccurrenceBelowMin, run.Findings[0].Kind)
	assert.Equal(t, ports.SeverityWarn, run.Findings[1].Severity)
	assert.Equal(t, "scenarios/deep/misc.md", run.Findings[1].File)
}

func TestVerifyDocuments_MissingRootSpec(t *testing.T) {
	root := writeTree(t, map[string]string{
		"README.md":      "# Title\n",
		"docs/spec.yaml": titleSpec,
	})
	_, err := newApp(t, nil).ValidationService().VerifyDocuments(context.Background(), ports.VerifyRequest{Root: root})
	require.Error(t, err)
	assert.True(t, derrors.IsCode(err, derrors.CodeSpecNotFound))
	assert.True(t, derrors.IsSystemFailure(err))
}

func TestVerifyDocuments_UnparseableNestedSpecAborts(t *testing.T) {
	root := writeTree(t, map[string]string{
		"spec.yaml":      titleSpec,
		"README.md":      "# Title\n\nIntro.\n",
		"docs/spec.yaml": "structure:\n  - sequence: []\n",
		"docs/a.md":      "# A\n",
	})
	_, err := newApp(t, nil).ValidationService().VerifyDocuments(context.Background(), ports.VerifyRequest{Root: root})
	require.Error(t, err)
	assert.True(t, derrors.IsCode(err, derrors.CodeSpecParse))
}

func TestVerifyDocuments_EmptyDocument(t *testing.T) {
	root := writeTree(t, map[string]string{
		"spec.yaml": titleSpec,
		"empty.md":  "",
	})
	run, err := newApp(t, nil).ValidationService().VerifyDocuments(context.Background(), ports.VerifyRequest{Root: root})
	require.NoError(t, err)
	require.Len(t, run.Findings, 1)
	assert.Equal(t, ports.KindNoMatchFound, run.Findings[0].Kind)
	assert.False(t, run.Documents[0].Valid())
}

func TestVerifyDocuments_ResultIndependentOfWorkers(t *testing.T) {
	files := map[string]string{"spec.yaml": titleSpec}
	for _, name := range []string{"a", "b", "c", "d", "e", "f", "g", "h"} {
		body := "# " + name + "\n\nText.\n"
		if name == "c" || name == "f" {
			body = "No heading.\n"
		}
		files["docs/"+name+".md"] = body
	}
	root := writeTree(t, files)

	serial, err := newApp(t, func(cfg *config.Config) { cfg.Run.Workers = 1 }).
		ValidationService().VerifyDocuments(context.Background(), ports.VerifyRequest{Root: root})
	require.NoError(t, err)
	parallel, err := newApp(t, func(cfg *config.Config) { cfg.Run.Workers = 8 }).
		ValidationService().VerifyDocuments(context.Background(), ports.VerifyRequest{Root: root})
	require.NoError(t, err)

	assert.Equal(t, serial.Documents, parallel.Documents)
	assert.Equal(t, serial.Findings, parallel.Findings)
	assert.Len(t, serial.Findings, 2)
}

func TestVerifyDocuments_Cancelled(t *testing.T) {
	root := writeTree(t, map[string]string{
		"spec.yaml": titleSpec,
		"a.md":      "# A\n\nText.\n",
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newApp(t, nil).ValidationService().VerifyDocuments(ctx, ports.VerifyRequest{Root: root})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestVerifyLinks(t *testing.T) {
	root := writeTree(t, map[string]string{
		"links.yaml": `allowed_targets:
  - directory: "."
    filename_regex: ".*\\.md"
established_links:
  document1.md:
    - document2.md
`,
		"document1.md": "# One\n",
		"document2.md": "# Two\n",
	})
	run, err := newApp(t, nil).ValidationService().VerifyLinks(context.Background(), ports.VerifyRequest{Root: root})
	require.NoError(t, err)

	assert.Equal(t, []string{"links.yaml"}, run.SpecFiles)
	require.Len(t, run.Edges, 1)
	assert.True(t, run.Edges[0].Permitted)
	assert.True(t, run.Edges[0].Exists)
	assert.False(t, run.Edges[0].Reciprocated)
	require.Len(t, run.Findings, 1)
	assert.Equal(t, ports.KindUnidirectional, run.Findings[0].Kind)
	assert.Equal(t, "document1.md", run.Findings[0].File)
}

func TestVerifyLinks_IncludePhysical(t *testing.T) {
	root := writeTree(t, map[string]string{
		"links.yaml": `allowed_targets:
  - directory: "."
    filename_regex: ".*\\.md"
established_links:
  a.md:
  b.md:
`,
		"a.md": "# A\n\nSee [b](b.md).\n",
		"b.md": "# B\n\nBack to [a](a.md).\n",
	})

	run, err := newApp(t, nil).ValidationService().VerifyLinks(context.Background(), ports.VerifyRequest{Root: root})
	require.NoError(t, err)
	assert.Empty(t, run.Edges)

	run, err = newApp(t, func(cfg *config.Config) { cfg.Links.IncludePhysical = true }).
		ValidationService().VerifyLinks(context.Background(), ports.VerifyRequest{Root: root})
	require.NoError(t, err)
	require.Len(t, run.Edges, 2)
	for _, e := range run.Edges {
		assert.Equal(t, ports.EdgePhysical, e.Kind)
		assert.True(t, e.Reciprocated)
	}
	assert.Empty(t, run.Findings)
}

func TestVerifyLinks_MissingRootSpec(t *testing.T) {
	root := writeTree(t, map[string]string{"a.md": "# A\n"})
	_, err := newApp(t, nil).ValidationService().VerifyLinks(context.Background(), ports.VerifyRequest{Root: root})
	assert.True(t, derrors.IsCode(err, derrors.CodeSpecNotFound))
}
