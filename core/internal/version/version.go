package version

// Version is set at build time with -ldflags "-X sosfetch/core/internal/version.Version=...".
var Version = "dev"
