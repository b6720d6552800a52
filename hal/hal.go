// Package hal defines the hardware timer contract consumed by the xtimer
// core. Backends live in sub-packages and are selected by the board.
package hal

import "errors"

var (
	ErrInvalidChannel   = errors.New("hal: invalid timer channel")
	ErrInvalidFrequency = errors.New("hal: unsupported timer frequency")
	ErrNotInitialized   = errors.New("hal: timer not initialized")
)

// Timer is a free-running hardware counter with one compare channel.
//
// The counter is Width() bits wide and wraps to zero. SetAbsolute arms the
// compare channel so that handler runs (in interrupt context) when the counter
// reaches target. Callers never arm a target more than half a counter period
// ahead of the current value.
type Timer interface {
	// Init configures the counter frequency and the compare handler.
	Init(freq uint32, handler func()) error

	// Width returns the counter width in bits (8..32).
	Width() uint

	// SetAbsolute arms compare channel ch for the absolute counter value target.
	SetAbsolute(ch int, target uint32) error

	// Read returns the current counter value.
	Read() uint32

	// Start resumes counting.
	Start()

	// Stop halts the counter.
	Stop()
}

// Spinner is implemented by backends that can burn a number of ticks faster
// or more faithfully than a Read loop, e.g. simulated hardware.
type Spinner interface {
	Spin(ticks uint32)
}

// Mask returns the counter mask for a width.
func Mask(width uint) uint32 {
	if width >= 32 {
		return 0xFFFFFFFF
	}
	return (1 << width) - 1
}
