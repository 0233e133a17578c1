package config

import "time"

// DefaultPath is the config file looked up when --config is not given.
const DefaultPath = "docwarden.toml"

type Config struct {
	Documents     Documents     `toml:"documents"`
	Grammar       Grammar       `toml:"grammar"`
	Links         Links         `toml:"links"`
	Run           Run           `toml:"run"`
	Watch         Watch         `toml:"watch"`
	Output        Output        `toml:"output"`
	Observability Observability `toml:"observability"`
}

// Documents selects which Markdown files a structure run checks. Include
// entries are doublestar patterns relative to the validated root; excludes
// are glob patterns matched against base names. Hidden directories are
// always skipped.
type Documents struct {
	Include      []string `toml:"include"`
	ExcludeDirs  []string `toml:"exclude_dirs"`
	ExcludeFiles []string `toml:"exclude_files"`
}

type Grammar struct {
	SpecFile string `toml:"spec_file"`
}

type Links struct {
	SpecFile        string `toml:"spec_file"`
	IncludePhysical bool   `toml:"include_physical"`
}

type Run struct {
	Workers int `toml:"workers"`
}

type Watch struct {
	Debounce time.Duration `toml:"debounce"`
}

// Output controls the report format and optional link-map exports written
// by display-links and verify-link.
type Output struct {
	Format  string `toml:"format"`
	DOT     string `toml:"dot"`
	Mermaid string `toml:"mermaid"`
	TSV     string `toml:"tsv"`
	SARIF   string `toml:"sarif"`
	JSON    string `toml:"json"`
}

type Observability struct {
	MetricsFile  string `toml:"metrics_file"`
	OTLPEndpoint string `toml:"otlp_endpoint"`
	ServiceName  string `toml:"service_name"`

	// MetricsAddr serves /metrics and /health while watching.
	MetricsAddr string `toml:"metrics_addr"`
}

// Default returns the built-in configuration used when no file exists.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}
