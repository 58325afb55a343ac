// Package appdrivers holds small, swappable output sinks the CLI and the
// cm11 emulator log through, independent of whichever structured logger
// backs the rest of a given binary.
package appdrivers

import "fmt"

// LogText receives a printf-style specifier and logs it somewhere.
type LogText interface {
	Printf(string, ...interface{})
}

// GenericStdout is a LogText implementation that displays text on STDOUT.
type GenericStdout struct{}

// Printf implements the LogText interface
func (g GenericStdout) Printf(f string, v ...interface{}) {
	fmt.Printf(f, v...)
}

// CommandStdout is a LogText-driven sink for logging decoded or transmitted
// X10 commands.
type CommandStdout struct {
	Logger LogText
}

// Log writes a formatted line through the underlying LogText sink.
func (c CommandStdout) Log(format string, v ...interface{}) {
	c.Logger.Printf(format+"\n", v...)
}
