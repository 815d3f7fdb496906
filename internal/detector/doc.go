// Package detector turns a stream of presence scores into machine activations.
//
// StateMachine keeps the last score and the machine it believes is active. A
// score increase means the shared input devices came back (home), a decrease
// means they went away (work). An activation is reported only when that
// candidate differs from the tracked machine, so flat or repeated scores never
// re-trigger a switch.
//
// The direction mapping is a known simplification: a switch from work back to
// home can look like a disappearance followed by a reappearance depending on
// polling order, and the heuristic cannot tell "still on work" from "switched
// again". The behavior is kept as is.
package detector
