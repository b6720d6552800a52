package xtimer

import "errors"

var (
	// ErrTimeout is returned by the blocking helpers when the timeout
	// elapsed first.
	ErrTimeout = errors.New("xtimer: timeout")

	// ErrDoubleInsert is the panic value for arming a timer that is linked
	// into another device's list.
	ErrDoubleInsert = errors.New("xtimer: timer already pending on another device")
)
