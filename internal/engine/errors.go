package engine

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidTransition is returned when an operation is not allowed in
	// the session's current state.
	ErrInvalidTransition = errors.New("invalid session transition")

	// ErrNoSession is returned when an operation needs a session and none exists.
	ErrNoSession = fmt.Errorf("%w: no session in progress", ErrInvalidTransition)

	// ErrSessionActive is returned by Start while another session exists.
	ErrSessionActive = fmt.Errorf("%w: a session is already in progress", ErrInvalidTransition)

	// ErrSaveFailed wraps a snapshot store failure. The session was not changed.
	ErrSaveFailed = errors.New("could not save session progress")

	// ErrNoModulesAvailable is returned by Start when the catalog has no active modules.
	ErrNoModulesAvailable = errors.New("no active modules available")

	// ErrInvalidOutcome is returned for negative or non-finite outcome values.
	ErrInvalidOutcome = errors.New("invalid module outcome")

	// ErrCorruptSnapshot marks a snapshot that cannot be rehydrated.
	ErrCorruptSnapshot = errors.New("corrupt session snapshot")
)
