package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/gobwas/glob"
)

// Formats lists the accepted report formats.
var Formats = []string{"text", "json", "sarif"}

// Validate runs every section validator and joins the failures.
func Validate(cfg *Config) error {
	var errs []error
	if err := validateDocuments(cfg); err != nil {
		errs = append(errs, err)
	}
	if err := validateSpecFiles(cfg); err != nil {
		errs = append(errs, err)
	}
	if err := validateRun(cfg); err != nil {
		errs = append(errs, err)
	}
	if err := validateOutput(cfg); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func validateDocuments(cfg *Config) error {
	for i, pattern := range cfg.Documents.Include {
		if strings.TrimSpace(pattern) == "" {
			return fmt.Errorf("documents.include[%d] must not be empty", i)
		}
		if !doublestar.ValidatePattern(filepath.ToSlash(pattern)) {
			return fmt.Errorf("documents.include[%d]: invalid pattern %q", i, pattern)
		}
	}
	for _, p := range cfg.Documents.ExcludeDirs {
		if _, err := glob.Compile(p); err != nil {
			return fmt.Errorf("invalid documents.exclude_dirs pattern %q: %w", p, err)
		}
	}
	for _, p := range cfg.Documents.ExcludeFiles {
		if _, err := glob.Compile(p); err != nil {
			return fmt.Errorf("invalid documents.exclude_files pattern %q: %w", p, err)
		}
	}
	return nil
}

func validateSpecFiles(cfg *Config) error {
	for name, value := range map[string]string{
		"grammar.spec_file": cfg.Grammar.SpecFile,
		"links.spec_file":   cfg.Links.SpecFile,
	} {
		if strings.ContainsAny(value, `/\`) {
			return fmt.Errorf("%s must be a file name, got %q", name, value)
		}
	}
	return nil
}

func validateRun(cfg *Config) error {
	return validation.ValidateStruct(&cfg.Run,
		validation.Field(&cfg.Run.Workers, validation.Min(1), validation.Max(maxWorkers)),
	)
}

func validateOutput(cfg *Config) error {
	formats := make([]any, 0, len(Formats))
	for _, f := range Formats {
		formats = append(formats, f)
	}
	if err := validation.ValidateStruct(&cfg.Output,
		validation.Field(&cfg.Output.Format, validation.Required, validation.In(formats...).Error("must be one of: text, json, sarif")),
	); err != nil {
		return fmt.Errorf("output: %w", err)
	}

	outputs := make(map[string]string)
	checkConflict := func(path, name string) error {
		if path == "" {
			return nil
		}
		path = filepath.Clean(path)
		if owner, exists := outputs[path]; exists {
			return fmt.Errorf("output conflict: %s and %s share the same path %q", owner, name, path)
		}
		outputs[path] = name
		return nil
	}
	for _, target := range []struct{ path, name string }{
		{cfg.Output.DOT, "output.dot"},
		{cfg.Output.Mermaid, "output.mermaid"},
		{cfg.Output.TSV, "output.tsv"},
		{cfg.Output.SARIF, "output.sarif"},
		{cfg.Output.JSON, "output.json"},
		{cfg.Observability.MetricsFile, "observability.metrics_file"},
	} {
		if err := checkConflict(target.path, target.name); err != nil {
			return err
		}
	}
	return nil
}
