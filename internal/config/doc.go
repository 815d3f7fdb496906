// Package config defines the monitor switcher settings and provides helpers to
// load, validate and save them in YAML format.
//
// Provider holds the active settings for a running process, reloads them when
// the file changes on disk and exposes a revision counter so consumers can tell
// that cached resources (such as a monitor connection) must be re-resolved.
package config
