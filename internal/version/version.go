// Package version holds the build version string, overridden at link time.
package version

// Version is the fossdrive release version. Overridden via
// -ldflags "-X github.com/fossdrive/fossdrive/internal/version.Version=...".
var Version = "dev"
