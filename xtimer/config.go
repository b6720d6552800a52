package xtimer

// Config tunes the timer subsystem to a board. All durations are in ticks
// of the hardware timer.
type Config struct {
	// Hz is the tick frequency of the hardware timer.
	Hz uint32

	// Channel is the compare channel used on the hardware timer.
	Channel int

	// Backoff: offsets below this are spun instead of set.
	Backoff uint32

	// Overhead is subtracted from the target when arming the compare, to
	// account for the latency between the match and the callback.
	Overhead uint32

	// ISRBackoff: the handler fires every timer due within this many ticks
	// instead of re-arming the compare for it. Must not be below Overhead.
	ISRBackoff uint32

	// PeriodicSpin: a periodic wakeup closer than this is spun.
	PeriodicSpin uint32

	// PeriodicRelative: a periodic wakeup closer than this is re-based on
	// the current time before arming.
	PeriodicRelative uint32
}

// Default timing constants for a 1 MHz timer.
const (
	DefaultHz               = 1000000
	DefaultBackoff          = 30
	DefaultOverhead         = 20
	DefaultISRBackoff       = 20
	DefaultPeriodicSpin     = DefaultBackoff * 2
	DefaultPeriodicRelative = 512
)

// DefaultConfig returns the configuration used when a board sets nothing.
func DefaultConfig() Config {
	return Config{
		Hz:               DefaultHz,
		Backoff:          DefaultBackoff,
		Overhead:         DefaultOverhead,
		ISRBackoff:       DefaultISRBackoff,
		PeriodicSpin:     DefaultPeriodicSpin,
		PeriodicRelative: DefaultPeriodicRelative,
	}
}
