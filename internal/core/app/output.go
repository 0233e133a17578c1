package app

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	derrors "docwarden/internal/core/errors"
	"docwarden/internal/core/ports"
	"docwarden/internal/output"
	"docwarden/internal/shared/util"
)

// LinkMapFormats are the renderings accepted by RenderLinkMap.
var LinkMapFormats = []string{"tree", "dot", "mermaid", "tsv"}

type generator interface {
	Generate() (string, error)
}

func newGenerator(format string, edges []ports.EdgeResult) (generator, error) {
	switch format {
	case "", "tree":
		return output.NewTreeGenerator(edges), nil
	case "dot":
		return output.NewDOTGenerator(edges), nil
	case "mermaid":
		return output.NewMermaidGenerator(edges), nil
	case "tsv":
		return output.NewTSVGenerator(edges), nil
	default:
		return nil, derrors.New(derrors.CodeValidationError,
			fmt.Sprintf("unknown link map format %q (want one of %s)", format, strings.Join(LinkMapFormats, ", ")))
	}
}

// RenderLinkMap renders the edges of a link run in one of LinkMapFormats.
func RenderLinkMap(format string, edges []ports.EdgeResult) (string, error) {
	gen, err := newGenerator(format, edges)
	if err != nil {
		return "", err
	}
	return gen.Generate()
}

// WriteLinkArtifacts writes the link map exports configured under [output].
// Relative paths are anchored at the working directory.
func (a *App) WriteLinkArtifacts(run *ports.LinkRun) error {
	cwd, err := os.Getwd()
	if err != nil {
		return derrors.Wrap(err, derrors.CodeFilesystem, "resolve output root")
	}
	targets := []struct {
		format string
		path   string
	}{
		{"dot", a.Config.Output.DOT},
		{"mermaid", a.Config.Output.Mermaid},
		{"tsv", a.Config.Output.TSV},
	}
	for _, target := range targets {
		path := util.ResolveOutputPath(target.path, cwd)
		if path == "" {
			continue
		}
		content, err := RenderLinkMap(target.format, run.Edges)
		if err != nil {
			return err
		}
		if err := util.WriteStringWithDirs(path, content, 0o644); err != nil {
			return derrors.AddContext(derrors.Wrap(err, derrors.CodeFilesystem, "write link map"), derrors.CtxPath, path)
		}
		slog.Debug("wrote link map", "format", target.format, "path", path)
	}
	return nil
}
