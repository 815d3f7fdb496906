// Package watcher runs the monitor switcher: it polls the presence sampler on
// a fixed cadence, feeds the detector and switches the monitor input when the
// detector reports a new active machine.
//
// Loop is the single background worker. It owns the detector and the monitor
// handle; manual switch requests from the control API are queued to it rather
// than executed on the caller's goroutine.
package watcher
