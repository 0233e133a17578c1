package config

import (
	"errors"
	"os"
	"runtime"
	"strings"
	"time"

	derrors "docwarden/internal/core/errors"

	"github.com/BurntSushi/toml"
)

const (
	defaultGrammarSpec = "spec.yaml"
	defaultLinksSpec   = "links.yaml"
	defaultDebounce    = 500 * time.Millisecond
	defaultFormat      = "text"
	maxWorkers         = 256
)

var defaultInclude = []string{"**/*.md"}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, derrors.AddContext(derrors.Wrap(err, derrors.CodeFilesystem, "read config"), derrors.CtxPath, path)
	}

	var cfg Config
	md, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return nil, derrors.AddContext(derrors.Wrap(err, derrors.CodeValidationError, "decode config"), derrors.CtxPath, path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, key := range undecoded {
			keys = append(keys, key.String())
		}
		return nil, derrors.AddContext(
			derrors.New(derrors.CodeValidationError, "unknown config keys: "+strings.Join(keys, ", ")),
			derrors.CtxPath, path,
		)
	}

	ApplyEnvOverrides(&cfg)
	applyDefaults(&cfg)
	if err := Validate(&cfg); err != nil {
		return nil, derrors.AddContext(derrors.Wrap(err, derrors.CodeValidationError, "invalid config"), derrors.CtxPath, path)
	}
	return &cfg, nil
}

// LoadOptional loads path, falling back to built-in defaults when the file
// does not exist and was not explicitly requested.
func LoadOptional(path string, explicit bool) (*Config, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) && !explicit {
		cfg := &Config{}
		ApplyEnvOverrides(cfg)
		applyDefaults(cfg)
		if err := Validate(cfg); err != nil {
			return nil, derrors.Wrap(err, derrors.CodeValidationError, "invalid environment overrides")
		}
		return cfg, nil
	}
	return Load(path)
}

func applyDefaults(cfg *Config) {
	if len(cfg.Documents.Include) == 0 {
		cfg.Documents.Include = append([]string(nil), defaultInclude...)
	}
	if strings.TrimSpace(cfg.Grammar.SpecFile) == "" {
		cfg.Grammar.SpecFile = defaultGrammarSpec
	}
	if strings.TrimSpace(cfg.Links.SpecFile) == "" {
		cfg.Links.SpecFile = defaultLinksSpec
	}
	if cfg.Run.Workers <= 0 {
		cfg.Run.Workers = min(runtime.NumCPU(), maxWorkers)
	}
	if cfg.Watch.Debounce == 0 {
		cfg.Watch.Debounce = defaultDebounce
	}
	cfg.Output.Format = strings.ToLower(strings.TrimSpace(cfg.Output.Format))
	if cfg.Output.Format == "" {
		cfg.Output.Format = defaultFormat
	}
	if strings.TrimSpace(cfg.Observability.ServiceName) == "" {
		cfg.Observability.ServiceName = "docwarden"
	}
}
