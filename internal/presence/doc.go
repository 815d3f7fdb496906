// Package presence samples a cheap, repeatable signal of the input devices
// attached to this machine and turns it into a presence score.
//
// The score is a heuristic. Device presence cannot be observed directly and
// portably, so a Probe counts what the OS reports: the number of pointer
// buttons plus a fixed weight when the keyboard state can be queried. When the
// KM switch moves the devices to the other machine these queries change their
// answers. The absolute value means nothing; only the change between two
// samples is used, and a failed query reads as 0.
package presence
