// Package state persists the last machine the monitor was switched to.
//
// FileRepository stores a Record as protobuf JSON (a google.protobuf.Struct)
// so the same representation is used on disk and by the control API.
package state
