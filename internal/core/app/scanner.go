package app

import (
	"io/fs"
	"path/filepath"
	"sort"

	derrors "docwarden/internal/core/errors"
	"docwarden/internal/shared/util"

	"github.com/bmatcuk/doublestar/v4"
)

// ScanDocuments lists the Markdown documents below root selected by the
// include patterns, as absolute paths sorted by their root-relative form.
// Hidden entries and excluded directories are never descended into.
func (a *App) ScanDocuments(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		base := d.Name()
		if d.IsDir() {
			if path == root {
				return nil
			}
			if util.IsHidden(base) {
				return filepath.SkipDir
			}
			for _, g := range a.excludeDirs {
				if g.Match(base) {
					return filepath.SkipDir
				}
			}
			return nil
		}

		if util.IsHidden(base) {
			return nil
		}
		for _, g := range a.excludeFiles {
			if g.Match(base) {
				return nil
			}
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		if a.included(util.NormalizePatternPath(rel)) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, derrors.AddContext(derrors.Wrap(err, derrors.CodeFilesystem, "scan documents"), derrors.CtxPath, root)
	}

	sort.Slice(files, func(i, j int) bool {
		return filepath.ToSlash(files[i]) < filepath.ToSlash(files[j])
	})
	return files, nil
}

func (a *App) included(rel string) bool {
	for _, pattern := range a.Config.Documents.Include {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}
