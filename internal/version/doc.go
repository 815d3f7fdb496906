// Package version exposes build metadata for monitor-switcher.
//
// Version, Commit and BuildTime are injected with -ldflags at build time.
package version
