package app

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"time"

	derrors "docwarden/internal/core/errors"
	"docwarden/internal/core/ports"
	"docwarden/internal/engine/grammar"
	"docwarden/internal/engine/links"
	"docwarden/internal/shared/observability"
	"docwarden/internal/shared/util"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

type validationService struct {
	app *App
}

var _ ports.ValidationService = (*validationService)(nil)

func NewValidationService(app *App) ports.ValidationService {
	return &validationService{app: app}
}

func (a *App) ValidationService() ports.ValidationService {
	return NewValidationService(a)
}

func (s *validationService) VerifyDocuments(ctx context.Context, req ports.VerifyRequest) (*ports.StructureRun, error) {
	ctx, span := observability.Tracer.Start(ctx, "validationService.VerifyDocuments",
		trace.WithAttributes(attribute.String("root", req.Root)))
	defer span.End()

	run, err := s.verifyDocuments(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(
		attribute.Int("documents", len(run.Documents)),
		attribute.Int("findings", len(run.Findings)),
	)
	return run, nil
}

func (s *validationService) verifyDocuments(ctx context.Context, req ports.VerifyRequest) (*ports.StructureRun, error) {
	if s.app == nil {
		return nil, derrors.New(derrors.CodeInternal, "app is required")
	}
	start := time.Now()
	root, err := resolveRoot(req.Root)
	if err != nil {
		return nil, err
	}

	files, err := s.app.ScanDocuments(root)
	if err != nil {
		return nil, err
	}
	specs, err := s.app.resolveGrammarSpecs(root, files)
	if err != nil {
		return nil, err
	}

	results := make([]ports.DocumentResult, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.app.Config.Run.Workers)
	for i, file := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := s.app.checkDocument(root, file, specs[file])
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.SliceStable(results, func(i, j int) bool { return results[i].File < results[j].File })
	run := &ports.StructureRun{Root: root, Documents: results}
	for _, res := range results {
		verdict := "valid"
		if !res.Valid() {
			verdict = "invalid"
		}
		observability.DocumentsChecked.WithLabelValues(verdict).Inc()
		run.Findings = append(run.Findings, res.Findings...)
	}
	ports.SortFindings(run.Findings)
	recordFindings(run.Findings)

	run.Duration = time.Since(start)
	observability.RunDuration.WithLabelValues(ports.ModeStructure.String()).Observe(run.Duration.Seconds())
	return run, nil
}

func (a *App) checkDocument(root, file string, spec *grammar.Spec) (ports.DocumentResult, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return ports.DocumentResult{}, derrors.AddContext(
			derrors.Wrap(err, derrors.CodeFilesystem, "read document"), derrors.CtxPath, file)
	}

	timer := prometheus.NewTimer(observability.TokenizeDuration)
	tokens := a.tokenizer.Tokenize(data)
	timer.ObserveDuration()

	res := grammar.CheckDocument(spec, relPath(root, file), tokens)
	res.SpecFile = relPath(root, spec.Path)
	return res, nil
}

func (s *validationService) VerifyLinks(ctx context.Context, req ports.VerifyRequest) (*ports.LinkRun, error) {
	ctx, span := observability.Tracer.Start(ctx, "validationService.VerifyLinks",
		trace.WithAttributes(attribute.String("root", req.Root)))
	defer span.End()

	run, err := s.verifyLinks(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(
		attribute.Int("edges", len(run.Edges)),
		attribute.Int("findings", len(run.Findings)),
	)
	return run, nil
}

func (s *validationService) verifyLinks(ctx context.Context, req ports.VerifyRequest) (*ports.LinkRun, error) {
	if s.app == nil {
		return nil, derrors.New(derrors.CodeInternal, "app is required")
	}
	start := time.Now()
	root, err := resolveRoot(req.Root)
	if err != nil {
		return nil, err
	}

	_, buildSpan := observability.Tracer.Start(ctx, "links.Build")
	project, err := links.Build(ctx, root, links.BuildOptions{
		SpecFile:        s.app.Config.Links.SpecFile,
		IncludePhysical: s.app.Config.Links.IncludePhysical,
		Tokenizer:       s.app.tokenizer,
	})
	buildSpan.End()
	if err != nil {
		return nil, err
	}

	res := links.Check(project)
	run := &ports.LinkRun{
		Root:     project.Root,
		Edges:    res.Edges,
		Rows:     res.Rows,
		Findings: res.Findings,
	}
	for _, path := range project.SpecFiles {
		run.SpecFiles = append(run.SpecFiles, relPath(project.Root, path))
	}
	recordFindings(run.Findings)

	run.Duration = time.Since(start)
	observability.RunDuration.WithLabelValues(ports.ModeLinks.String()).Observe(run.Duration.Seconds())
	return run, nil
}

func recordFindings(findings []ports.Finding) {
	for _, f := range findings {
		observability.FindingsTotal.WithLabelValues(f.Kind.String(), f.Severity.String()).Inc()
	}
}

func relPath(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return util.NormalizePatternPath(rel)
}
