package app

import (
	"fmt"
	"os"
	"path/filepath"

	"docwarden/internal/core/config"
	derrors "docwarden/internal/core/errors"
	"docwarden/internal/engine/tokenizer"

	"github.com/gobwas/glob"
)

// App wires configuration to the validation engines. It holds no state
// between runs: every pass re-reads documents and specifications.
type App struct {
	Config    *config.Config
	tokenizer *tokenizer.Tokenizer

	excludeDirs  []glob.Glob
	excludeFiles []glob.Glob
}

func New(cfg *config.Config) (*App, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	excludeDirs, err := compileGlobs(cfg.Documents.ExcludeDirs, "exclude dir")
	if err != nil {
		return nil, derrors.Wrap(err, derrors.CodeValidationError, "compile document excludes")
	}
	excludeFiles, err := compileGlobs(cfg.Documents.ExcludeFiles, "exclude file")
	if err != nil {
		return nil, derrors.Wrap(err, derrors.CodeValidationError, "compile document excludes")
	}
	return &App{
		Config:       cfg,
		tokenizer:    tokenizer.New(),
		excludeDirs:  excludeDirs,
		excludeFiles: excludeFiles,
	}, nil
}

func compileGlobs(patterns []string, label string) ([]glob.Glob, error) {
	out := make([]glob.Glob, 0, len(patterns))
	for _, p := range patterns {
		g, err := glob.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid %s pattern %q: %w", label, p, err)
		}
		out = append(out, g)
	}
	return out, nil
}

// resolveRoot returns the absolute, symlink-free form of a validation root.
func resolveRoot(root string) (string, error) {
	if root == "" {
		root = "."
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", derrors.AddContext(derrors.Wrap(err, derrors.CodeFilesystem, "resolve root directory"), derrors.CtxPath, root)
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		abs = resolved
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", derrors.AddContext(derrors.Wrap(err, derrors.CodeFilesystem, "stat root directory"), derrors.CtxPath, abs)
	}
	if !info.IsDir() {
		return "", derrors.AddContext(derrors.New(derrors.CodeFilesystem, "root is not a directory"), derrors.CtxPath, abs)
	}
	return filepath.Clean(abs), nil
}
