package at

import (
	"errors"
	"fmt"
)

var (
	// ErrConfigurationRejected is matched by every *RejectedError.
	ErrConfigurationRejected = errors.New("configuration rejected")
	// ErrSessionDone is returned when Configure is called on a session
	// which already finished, successfully or not.
	ErrSessionDone = errors.New("session already finished")
	// ErrInvalidAddress indicates a malformed Bluetooth address.
	ErrInvalidAddress = errors.New("invalid bluetooth address")
	// ErrInvalidRole indicates a role other than master or slave.
	ErrInvalidRole = errors.New("invalid role")
)

// RejectedError is returned when the module doesn't acknowledge a step.
type RejectedError struct {
	Step     State
	Command  string
	Response string
}

// Error implements error.
func (e *RejectedError) Error() string {
	return fmt.Sprintf("%s: %q answered %q", e.Step, e.Command, e.Response)
}

// Is matches ErrConfigurationRejected.
func (e *RejectedError) Is(target error) bool {
	return target == ErrConfigurationRejected
}
