// Package configure edits the settings file. A running instance picks the
// change up through its settings watcher.
package configure
