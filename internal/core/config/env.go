package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// ApplyEnvOverrides applies environment variable overrides to the configuration.
// Pattern: DOCWARDEN_[SECTION]_[KEY] (e.g., DOCWARDEN_RUN_WORKERS).
func ApplyEnvOverrides(cfg *Config) {
	setEnvString(&cfg.Grammar.SpecFile, "DOCWARDEN_GRAMMAR_SPEC_FILE")
	setEnvString(&cfg.Links.SpecFile, "DOCWARDEN_LINKS_SPEC_FILE")
	setEnvBool(&cfg.Links.IncludePhysical, "DOCWARDEN_LINKS_INCLUDE_PHYSICAL")

	setEnvInt(&cfg.Run.Workers, "DOCWARDEN_RUN_WORKERS")
	setEnvDuration(&cfg.Watch.Debounce, "DOCWARDEN_WATCH_DEBOUNCE")
	setEnvString(&cfg.Output.Format, "DOCWARDEN_OUTPUT_FORMAT")

	setEnvString(&cfg.Observability.MetricsFile, "DOCWARDEN_OBSERVABILITY_METRICS_FILE")
	setEnvString(&cfg.Observability.MetricsAddr, "DOCWARDEN_OBSERVABILITY_METRICS_ADDR")
	setEnvString(&cfg.Observability.OTLPEndpoint, "DOCWARDEN_OBSERVABILITY_OTLP_ENDPOINT")
	setEnvString(&cfg.Observability.ServiceName, "DOCWARDEN_OBSERVABILITY_SERVICE_NAME")
}

func setEnvString(target *string, key string) {
	if val, ok := os.LookupEnv(key); ok {
		slog.Debug("applying env override", "key", key, "value", val)
		*target = val
	}
}

func setEnvInt(target *int, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(val); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = i
		}
	}
}

func setEnvBool(target *bool, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(strings.ToLower(val)); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = b
		}
	}
}

func setEnvDuration(target *time.Duration, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(val); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = d
		}
	}
}
