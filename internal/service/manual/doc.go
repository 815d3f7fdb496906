// Package manual switches the monitor on request, either through the running
// instance or by driving the monitor directly.
package manual
