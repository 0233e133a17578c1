package links

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	derrors "docwarden/internal/core/errors"
	"docwarden/internal/core/ports"
	"docwarden/internal/engine/graph"
	"docwarden/internal/engine/tokenizer"
	"docwarden/internal/shared/observability"
	"docwarden/internal/shared/util"
)

type BuildOptions struct {
	// SpecFile is the per-directory link specification name.
	SpecFile string
	// IncludePhysical merges relative links found in tracked document bodies
	// into the graph as physical edges.
	IncludePhysical bool
	Tokenizer       *tokenizer.Tokenizer
}

// RequiredLink is one mandatory edge declared under required_links.
type RequiredLink struct {
	From   graph.DocID
	To     graph.DocID
	Origin string
	Line   int
}

// Project is the consolidated view of every link specification reachable
// from the root.
type Project struct {
	Root  string
	Graph *graph.Graph
	// AllowedTargets is the union of every loaded rule.
	AllowedTargets []Target
	// Rules holds the allowed targets per declaring specification path.
	Rules    map[string][]Target
	Required []RequiredLink
	// SpecFiles lists loaded specification paths in discovery order.
	SpecFiles []string
	// Findings are problems detected while building: untracked sources and
	// directories without a specification.
	Findings []ports.Finding
}

// Build discovers link specifications with an explicit worklist seeded at
// root. Every directory named by an allowed_targets rule is visited at most
// once, so cyclic rules terminate.
func Build(ctx context.Context, root string, opts BuildOptions) (*Project, error) {
	if opts.SpecFile == "" {
		opts.SpecFile = DefaultSpecFile
	}
	if opts.Tokenizer == nil {
		opts.Tokenizer = tokenizer.New()
	}

	rootDir, err := canonicalDir(root)
	if err != nil {
		return nil, derrors.AddContext(derrors.Wrap(err, derrors.CodeFilesystem, "resolve root directory"), derrors.CtxPath, root)
	}
	if _, err := os.Stat(filepath.Join(rootDir, opts.SpecFile)); err != nil {
		if os.IsNotExist(err) {
			return nil, derrors.AddContext(
				derrors.New(derrors.CodeSpecNotFound, "root link specification not found"),
				derrors.CtxPath, filepath.Join(rootDir, opts.SpecFile),
			)
		}
		return nil, derrors.AddContext(derrors.Wrap(err, derrors.CodeFilesystem, "stat root link specification"), derrors.CtxPath, rootDir)
	}

	p := &Project{
		Root:  rootDir,
		Graph: graph.NewGraph(),
		Rules: make(map[string][]Target),
	}

	queue := []string{rootDir}
	visited := map[string]bool{rootDir: true}
	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		dir := queue[0]
		queue = queue[1:]

		specPath := filepath.Join(dir, opts.SpecFile)
		spec, err := LoadSpec(specPath)
		if derrors.IsCode(err, derrors.CodeSpecNotFound) {
			slog.Debug("no link specification in target directory", "path", dir)
			p.reportMissingSpec(dir, opts.SpecFile)
			continue
		}
		if err != nil {
			return nil, err
		}
		observability.SpecFilesLoaded.WithLabelValues("links").Inc()
		p.SpecFiles = append(p.SpecFiles, specPath)
		p.Rules[specPath] = spec.AllowedTargets
		p.AllowedTargets = append(p.AllowedTargets, spec.AllowedTargets...)

		for _, t := range spec.AllowedTargets {
			next, err := canonicalDir(t.Dir)
			if err != nil {
				next = t.Dir
			}
			if visited[next] {
				continue
			}
			visited[next] = true
			if info, err := os.Stat(next); err != nil || !info.IsDir() {
				slog.Debug("allowed target directory does not exist", "path", next, "spec", specPath)
				continue
			}
			queue = append(queue, next)
		}

		p.mergeEstablished(spec)
		p.mergeRequired(spec)
		if opts.IncludePhysical {
			p.mergePhysical(spec, opts.Tokenizer)
		}
	}

	p.Graph.RecordMetrics()
	slog.Debug("link graph built", "path", rootDir, "specs", len(p.SpecFiles), "edges", p.Graph.EdgeCount())
	ports.SortFindings(p.Findings)
	return p, nil
}

func (p *Project) mergeEstablished(spec *Spec) {
	for _, decl := range spec.Established {
		srcAbs := filepath.Join(spec.Dir, filepath.FromSlash(decl.Source))
		from := graph.NewDocID(p.Root, srcAbs)
		if !isFile(srcAbs) {
			p.Findings = append(p.Findings, ports.Finding{
				Kind:     ports.KindUntrackedSource,
				Severity: ports.LinkSeverity(ports.KindUntrackedSource),
				File:     from.String(),
				Line:     decl.Line,
				Block:    -1,
				Spec:     p.rel(spec.Path),
				Message:  fmt.Sprintf("edge source %s declared in %s does not exist", from, p.rel(spec.Path)),
			})
		}
		p.Graph.AddSource(from)
		for _, t := range decl.Targets {
			p.Graph.AddEdge(graph.Edge{
				From:   from,
				To:     graph.NewDocID(p.Root, filepath.Join(filepath.Dir(srcAbs), filepath.FromSlash(t.Path))),
				Kind:   ports.EdgeEstablished,
				Origin: spec.Path,
				Line:   t.Line,
			})
		}
	}
}

func (p *Project) mergeRequired(spec *Spec) {
	for _, decl := range spec.Required {
		srcAbs := filepath.Join(spec.Dir, filepath.FromSlash(decl.Source))
		from := graph.NewDocID(p.Root, srcAbs)
		for _, t := range decl.Targets {
			p.Required = append(p.Required, RequiredLink{
				From:   from,
				To:     graph.NewDocID(p.Root, filepath.Join(filepath.Dir(srcAbs), filepath.FromSlash(t.Path))),
				Origin: spec.Path,
				Line:   t.Line,
			})
		}
	}
}

// mergePhysical adds the body links of every visible Markdown file in the
// directory of spec, declared as an edge source or not.
func (p *Project) mergePhysical(spec *Spec, tz *tokenizer.Tokenizer) {
	entries, err := os.ReadDir(spec.Dir)
	if err != nil {
		slog.Warn("failed to list directory for physical links", "path", spec.Dir, "error", err)
		return
	}
	for _, entry := range entries {
		if entry.IsDir() || util.IsHidden(entry.Name()) || !isMarkdown(entry.Name()) {
			continue
		}
		srcAbs := filepath.Join(spec.Dir, entry.Name())
		data, err := os.ReadFile(srcAbs)
		if err != nil {
			slog.Debug("skipping unreadable document", "path", srcAbs, "error", err)
			continue
		}
		from := graph.NewDocID(p.Root, srcAbs)
		for _, link := range tz.ExtractLinks(data) {
			p.Graph.AddEdge(graph.Edge{
				From:   from,
				To:     graph.NewDocID(p.Root, filepath.Join(filepath.Dir(srcAbs), filepath.FromSlash(link.Destination))),
				Kind:   ports.EdgePhysical,
				Origin: spec.Path,
				Line:   link.Line,
			})
		}
	}
}

func (p *Project) reportMissingSpec(dir, specFile string) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}
	for _, entry := range entries {
		if entry.IsDir() || !isMarkdown(entry.Name()) {
			continue
		}
		p.Findings = append(p.Findings, ports.Finding{
			Kind:     ports.KindMissingSpec,
			Severity: ports.LinkSeverity(ports.KindMissingSpec),
			File:     graph.NewDocID(p.Root, dir).String(),
			Block:    -1,
			Message:  fmt.Sprintf("directory contains Markdown files but is missing %s", specFile),
		})
		return
	}
}

func (p *Project) rel(path string) string {
	return graph.NewDocID(p.Root, path).String()
}

func canonicalDir(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		abs = resolved
	}
	return filepath.Clean(abs), nil
}

func isMarkdown(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".md")
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
