// Package switcher moves the monitor to the input of a given machine.
//
// SwitchTo resolves the machine through the current settings, connects to the
// monitor on demand and issues the input change inside a scoped monitor use.
// Every failure is absorbed and reported through the returned Outcome.
package switcher
