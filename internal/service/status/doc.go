// Package status reports the state of the running instance, falling back to
// the last recorded switch when no instance answers.
package status
