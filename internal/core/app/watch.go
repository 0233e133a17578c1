package app

import (
	"context"
	"log/slog"

	derrors "docwarden/internal/core/errors"
	"docwarden/internal/core/watcher"
)

// Watch calls rerun with each debounced batch of changed documents or
// specification files below root. It blocks until ctx is cancelled.
func (a *App) Watch(ctx context.Context, root string, rerun func(ctx context.Context, changed []string)) error {
	dir, err := resolveRoot(root)
	if err != nil {
		return err
	}
	w, err := watcher.NewWatcher(
		a.Config.Watch.Debounce,
		a.Config.Documents.ExcludeDirs,
		a.Config.Documents.ExcludeFiles,
		func(changed []string) {
			if ctx.Err() != nil {
				return
			}
			slog.Info("change detected, re-running", "files", len(changed))
			rerun(ctx, changed)
		},
	)
	if err != nil {
		return derrors.Wrap(err, derrors.CodeInternal, "create watcher")
	}
	defer func() {
		if err := w.Close(); err != nil {
			slog.Warn("failed to close watcher", "error", err)
		}
	}()
	w.SetSpecFiles(a.Config.Grammar.SpecFile, a.Config.Links.SpecFile)

	if err := w.Watch([]string{dir}); err != nil {
		return derrors.AddContext(derrors.Wrap(err, derrors.CodeFilesystem, "watch directory"), derrors.CtxPath, dir)
	}
	slog.Info("watching for changes", "path", dir)
	<-ctx.Done()
	return nil
}
