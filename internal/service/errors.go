package service

import (
	"errors"
	"fmt"
)

var (
	ErrAlreadyRunning = errors.New("service already running")
	ErrBudgetExceeded = errors.New("memory budget exceeded")
	ErrNilTask        = errors.New("start returned no task")
)

// LaunchError reports a failed launch of one service. It is logged and
// absorbed by the supervisor; the runner never retries.
type LaunchError struct {
	Name     string
	Identity Identity
	Err      error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("launch %s (%s): %v", e.Name, e.Identity, e.Err)
}

func (e *LaunchError) Unwrap() error { return e.Err }
