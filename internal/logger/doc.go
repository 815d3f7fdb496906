// Package logger wraps zap for the monitor switcher:
//   - a global sugared logger with a console encoder on stdout,
//   - an optional log file receiving the same entries (Setup),
//   - context helpers (ToContext/FromContext/WithName/WithKV),
//   - level parsing and leveled helpers (Infof, WarnKV, ErrorKV, ...).
//
// Components take a context and log through it, so a name or key-value pairs
// attached by the caller show up on every line.
package logger
