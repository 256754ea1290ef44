// Package log provides simple leveled logging for tungate.
//
// It implements a lightweight logging system with colored output and
// four levels: DEBUG, INFO, WARN and ERROR. DEBUG messages are only
// shown when verbose mode is enabled. WARN and ERROR go to stderr,
// everything else to stdout.
package log
