package cli

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	coreapp "docwarden/internal/core/app"
	"docwarden/internal/core/config"
	derrors "docwarden/internal/core/errors"
	"docwarden/internal/core/ports"
	"docwarden/internal/shared/observability"
	"docwarden/internal/shared/util"
	"docwarden/internal/ui/report"
)

type runtime struct {
	opts     *cliOptions
	stdout   io.Writer
	stderr   io.Writer
	cfg      *config.Config
	app      *coreapp.App
	reporter report.Reporter
	shutdown func(context.Context) error

	statusMu sync.Mutex
	status   runStatus
}

// runStatus describes the most recent pass, for the health endpoint.
type runStatus struct {
	Mode     string    `json:"mode"`
	Code     int       `json:"exit_code"`
	Findings int       `json:"findings"`
	Error    string    `json:"error,omitempty"`
	At       time.Time `json:"at"`
}

func newRuntime(ctx context.Context, opts *cliOptions, stdout, stderr io.Writer, mode ports.Mode) (*runtime, error) {
	configureLogging(stderr, opts.verbose, opts.quiet)

	fail := func(err error) error {
		report.WriteError(stderr, err)
		return &commandError{code: report.ExitCode(mode, nil, err), err: err}
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, fail(err)
	}
	reporter, err := report.New(cfg.Output.Format, report.Options{Verbose: opts.verbose, Quiet: opts.quiet})
	if err != nil {
		return nil, fail(err)
	}
	app, err := coreapp.New(cfg)
	if err != nil {
		return nil, fail(err)
	}
	shutdown, err := observability.SetupTracing(ctx, cfg.Observability.OTLPEndpoint, cfg.Observability.ServiceName)
	if err != nil {
		slog.Warn("tracing disabled", "endpoint", cfg.Observability.OTLPEndpoint, "error", err)
		shutdown = func(context.Context) error { return nil }
	}

	return &runtime{
		opts:     opts,
		stdout:   stdout,
		stderr:   stderr,
		cfg:      cfg,
		app:      app,
		reporter: reporter,
		shutdown: shutdown,
	}, nil
}

// loadConfig reads the config file and layers command line flags on top.
func loadConfig(opts *cliOptions) (*config.Config, error) {
	cfg, err := config.LoadOptional(opts.configPath, opts.configPath != config.DefaultPath)
	if err != nil {
		return nil, err
	}
	if opts.format != "" {
		cfg.Output.Format = strings.ToLower(strings.TrimSpace(opts.format))
	}
	if opts.metricsFile != "" {
		cfg.Observability.MetricsFile = opts.metricsFile
	}
	if opts.metricsAddr != "" {
		cfg.Observability.MetricsAddr = opts.metricsAddr
	}
	if err := config.Validate(cfg); err != nil {
		return nil, derrors.Wrap(err, derrors.CodeValidationError, "invalid command line options")
	}
	return cfg, nil
}

func (r *runtime) close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := r.shutdown(ctx); err != nil {
		slog.Warn("failed to flush traces", "error", err)
	}
	if path := r.cfg.Observability.MetricsFile; path != "" {
		if err := observability.WriteTextfile(path); err != nil {
			slog.Warn("failed to write metrics file", "path", path, "error", err)
		}
	}
}

// verify runs one pass, or keeps re-running on changes when --watch is set.
// The exit code of the last pass is returned.
func (r *runtime) verify(ctx context.Context, mode ports.Mode, root string) int {
	code := r.execute(ctx, mode, root)
	if !r.opts.watch {
		return code
	}

	if addr := r.cfg.Observability.MetricsAddr; addr != "" {
		srv := NewObservabilityServer(addr, r.lastStatus)
		if err := srv.Start(ctx); err != nil {
			slog.Error("failed to start observability server", "addr", addr, "error", err)
		} else {
			defer func() {
				stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = srv.Stop(stopCtx)
			}()
		}
	}

	var mu sync.Mutex
	err := r.app.Watch(ctx, root, func(ctx context.Context, _ []string) {
		mu.Lock()
		defer mu.Unlock()
		code = r.execute(ctx, mode, root)
	})
	if err != nil {
		report.WriteError(r.stderr, err)
		return report.ExitCode(mode, nil, err)
	}
	mu.Lock()
	defer mu.Unlock()
	return code
}

func (r *runtime) execute(ctx context.Context, mode ports.Mode, root string) int {
	svc := r.app.ValidationService()
	req := ports.VerifyRequest{Root: root}

	var (
		findings []ports.Finding
		err      error
	)
	switch mode {
	case ports.ModeLinks:
		var run *ports.LinkRun
		run, err = svc.VerifyLinks(ctx, req)
		if err == nil {
			findings = run.Findings
			err = r.emitLinks(run)
		}
	default:
		var run *ports.StructureRun
		run, err = svc.VerifyDocuments(ctx, req)
		if err == nil {
			findings = run.Findings
			err = r.emitStructure(run)
		}
	}

	if err != nil {
		if derrors.IsSystemFailure(err) || ctx.Err() != nil {
			slog.Debug("run failed", "mode", mode, "path", root, "error", err)
		} else {
			slog.Error("run aborted", "mode", mode, "path", root, "error", err)
			err = derrors.Wrap(err, derrors.CodeInternal, "run aborted")
		}
		report.WriteError(r.stderr, err)
		findings = nil
	}
	code := report.ExitCode(mode, findings, err)
	r.setStatus(mode, code, len(findings), err)
	return code
}

func (r *runtime) emitStructure(run *ports.StructureRun) error {
	if err := r.reporter.Structure(r.stdout, run); err != nil {
		return err
	}
	return r.writeReportFiles(func(rep report.Reporter, w io.Writer) error { return rep.Structure(w, run) })
}

func (r *runtime) emitLinks(run *ports.LinkRun) error {
	if err := r.reporter.Links(r.stdout, run); err != nil {
		return err
	}
	if err := r.app.WriteLinkArtifacts(run); err != nil {
		return err
	}
	return r.writeReportFiles(func(rep report.Reporter, w io.Writer) error { return rep.Links(w, run) })
}

// writeReportFiles writes the machine-readable reports configured under
// [output] in addition to the console report.
func (r *runtime) writeReportFiles(render func(report.Reporter, io.Writer) error) error {
	cwd, err := os.Getwd()
	if err != nil {
		return err
	}
	for _, target := range []struct{ format, path string }{
		{report.FormatJSON, r.cfg.Output.JSON},
		{report.FormatSARIF, r.cfg.Output.SARIF},
	} {
		path := util.ResolveOutputPath(target.path, cwd)
		if path == "" {
			continue
		}
		rep, err := report.New(target.format, report.Options{Verbose: true})
		if err != nil {
			return err
		}
		var buf bytes.Buffer
		if err := render(rep, &buf); err != nil {
			return err
		}
		if err := util.WriteFileWithDirs(path, buf.Bytes(), 0o644); err != nil {
			return fmt.Errorf("write %s report %s: %w", target.format, path, err)
		}
		slog.Debug("wrote report", "format", target.format, "path", path)
	}
	return nil
}

func (r *runtime) displayLinks(ctx context.Context, root, format string) int {
	r.cfg.Links.IncludePhysical = true
	run, err := r.app.ValidationService().VerifyLinks(ctx, ports.VerifyRequest{Root: root})
	if err != nil {
		report.WriteError(r.stderr, err)
		return report.ExitLinkFailure
	}
	out, err := coreapp.RenderLinkMap(strings.ToLower(format), run.Edges)
	if err != nil {
		report.WriteError(r.stderr, err)
		return exitUsage
	}
	if _, err := io.WriteString(r.stdout, out); err != nil {
		slog.Error("failed to write link map", "error", err)
		return report.ExitLinkFailure
	}
	if err := r.app.WriteLinkArtifacts(run); err != nil {
		report.WriteError(r.stderr, err)
		return report.ExitLinkFailure
	}
	return report.ExitOK
}

func (r *runtime) setStatus(mode ports.Mode, code, findings int, err error) {
	r.statusMu.Lock()
	defer r.statusMu.Unlock()
	r.status = runStatus{Mode: mode.String(), Code: code, Findings: findings, At: time.Now()}
	if err != nil {
		r.status.Error = err.Error()
	}
}

func (r *runtime) lastStatus() runStatus {
	r.statusMu.Lock()
	defer r.statusMu.Unlock()
	return r.status
}

// configureLogging sends structured logs to stderr so they never mix with
// reports on stdout.
func configureLogging(w io.Writer, verbose, quiet bool) {
	level := slog.LevelInfo
	switch {
	case verbose:
		level = slog.LevelDebug
	case quiet:
		level = slog.LevelError
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))
}
