package core

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidPriority = errors.New("core: invalid priority")
	ErrTooManyThreads  = errors.New("core: thread table full")
	ErrNoSuchThread    = errors.New("core: no such thread")
	ErrNotSleeping     = errors.New("core: thread is not sleeping")
	ErrDeadlock        = errors.New("core: all threads blocked")
	ErrAlreadyRunning  = errors.New("core: kernel already running")
	ErrCanceled        = errors.New("core: lock canceled")
	ErrNotDelivered    = errors.New("core: message not delivered")
	ErrNoMessage       = errors.New("core: no message available")
)

// PanicError is returned by Run when a thread function panicked.
type PanicError struct {
	PID   PID
	Name  string
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("core: thread %d (%s) panicked: %v", e.PID, e.Name, e.Value)
}
