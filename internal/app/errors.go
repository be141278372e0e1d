package app

import (
	"errors"
	"fmt"
)

// ErrAlreadyRunning is returned by Run when the application is running.
var ErrAlreadyRunning = errors.New("application already running")

// InitError reports a component that failed to initialize.
type InitError struct {
	Component string
	Err       error
}

func (e *InitError) Error() string {
	return fmt.Sprintf("initializing %s: %v", e.Component, e.Err)
}

func (e *InitError) Unwrap() error {
	return e.Err
}
