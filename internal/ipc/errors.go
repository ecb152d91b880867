package ipc

import "fmt"

// UnknownCommandError indicates that no handler is registered for a command.
type UnknownCommandError struct {
	Command string
}

// Error implements the error interface.
func (e *UnknownCommandError) Error() string {
	return fmt.Sprintf("unknown command %q", e.Command)
}

// CommandError wraps a failure reported by a command handler.
type CommandError struct {
	Command string
	Err     error
}

// Error implements the error interface.
func (e *CommandError) Error() string {
	return fmt.Sprintf("command %s failed: %v", e.Command, e.Err)
}

// Unwrap returns the handler error.
func (e *CommandError) Unwrap() error { return e.Err }
