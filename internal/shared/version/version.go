package version

// Version is overridden at build time via -ldflags "-X docwarden/internal/shared/version.Version=...".
var Version = "0.3.0"
