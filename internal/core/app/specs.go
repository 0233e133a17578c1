package app

import (
	"os"
	"path/filepath"

	derrors "docwarden/internal/core/errors"
	"docwarden/internal/engine/grammar"
	"docwarden/internal/shared/observability"
	"docwarden/internal/shared/util"
)

// grammarSpecs maps documents to the grammar that governs them: the nearest
// specification file in the document's directory or one of its ancestors up
// to the root. Each specification is loaded once per run.
type grammarSpecs struct {
	root     string
	name     string
	byDir    map[string]string
	loaded   map[string]*grammar.Spec
	rootSpec string
}

func (a *App) resolveGrammarSpecs(root string, files []string) (map[string]*grammar.Spec, error) {
	gs := &grammarSpecs{
		root:   root,
		name:   a.Config.Grammar.SpecFile,
		byDir:  make(map[string]string),
		loaded: make(map[string]*grammar.Spec),
	}
	gs.rootSpec = filepath.Join(root, gs.name)
	if _, err := gs.load(gs.rootSpec); err != nil {
		return nil, err
	}

	out := make(map[string]*grammar.Spec, len(files))
	for _, file := range files {
		spec, err := gs.forDir(filepath.Dir(file))
		if err != nil {
			return nil, derrors.AddContext(err, "document", file)
		}
		out[file] = spec
	}
	return out, nil
}

func (gs *grammarSpecs) forDir(dir string) (*grammar.Spec, error) {
	if path, ok := gs.byDir[dir]; ok {
		return gs.loaded[path], nil
	}
	path := gs.rootSpec
	for _, candidate := range util.AncestorDirs(dir, gs.root) {
		p := filepath.Join(candidate, gs.name)
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			path = p
			break
		}
	}
	spec, err := gs.load(path)
	if err != nil {
		return nil, err
	}
	gs.byDir[dir] = path
	return spec, nil
}

func (gs *grammarSpecs) load(path string) (*grammar.Spec, error) {
	if spec, ok := gs.loaded[path]; ok {
		return spec, nil
	}
	spec, err := grammar.LoadSpec(path)
	if err != nil {
		return nil, err
	}
	observability.SpecFilesLoaded.WithLabelValues("grammar").Inc()
	gs.loaded[path] = spec
	return spec, nil
}
