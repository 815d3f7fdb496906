// Package ddc is the monitor-control collaborator: it sets and reads the
// active input source of a monitor through DDC/CI (VCP feature 0x60).
//
// The bus protocol itself is provided by the operating system: the ddcutil
// tool on Linux and BSD, dxva2.dll on Windows. Use wraps every command in an
// Open/Close pair so the monitor resource is always released.
package ddc
