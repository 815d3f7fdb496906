// Package machine contains core domain types for the monitor switcher.
//
// It defines the two machines sharing the desk (ID), the presence score
// produced by a sampler (Score), the machine-to-input mapping (Mapping) and the
// result of one switch attempt (Outcome).
package machine
