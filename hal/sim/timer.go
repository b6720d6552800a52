// Package sim provides a deterministic hardware timer. Time only moves when
// the code holding the CPU says so: Advance for thread work, Spin for busy
// waits and AdvanceToCompare for the idle loop.
package sim

import (
	"riotgo/hal"
	"riotgo/irq"
)

// Timer is a simulated free-running counter with one compare channel.
type Timer struct {
	ctrl  *irq.Controller
	line  int
	width uint
	mask  uint32
	freq  uint32

	counter uint32
	compare uint32
	armed   bool
	running bool
	ready   bool

	// elapsed counts every tick that passed while running, wraps included.
	elapsed uint64
}

// New returns a stopped timer of the given width raising line on ctrl.
func New(ctrl *irq.Controller, line int, width uint) *Timer {
	if width < 8 || width > 32 {
		panic("sim: timer width must be 8..32 bits")
	}
	return &Timer{
		ctrl:  ctrl,
		line:  line,
		width: width,
		mask:  hal.Mask(width),
	}
}

// Init registers handler on the interrupt line and starts counting.
func (t *Timer) Init(freq uint32, handler func()) error {
	if freq == 0 {
		return hal.ErrInvalidFrequency
	}
	t.freq = freq
	t.ctrl.Register(t.line, handler)
	t.ready = true
	t.running = true
	return nil
}

// Width returns the counter width in bits.
func (t *Timer) Width() uint {
	return t.width
}

// Freq returns the configured frequency.
func (t *Timer) Freq() uint32 {
	return t.freq
}

// SetAbsolute arms channel 0 for target.
func (t *Timer) SetAbsolute(ch int, target uint32) error {
	if ch != 0 {
		return hal.ErrInvalidChannel
	}
	if !t.ready {
		return hal.ErrNotInitialized
	}
	t.compare = target & t.mask
	t.armed = true
	return nil
}

// Read returns the counter.
func (t *Timer) Read() uint32 {
	return t.counter
}

// Start resumes counting.
func (t *Timer) Start() {
	t.running = true
}

// Stop halts the counter. Advance still consumes time but the counter holds.
func (t *Timer) Stop() {
	t.running = false
}

// Armed reports whether the compare channel is armed and the compare value.
func (t *Timer) Armed() (bool, uint32) {
	return t.armed, t.compare
}

// Elapsed returns the number of ticks counted since Init.
func (t *Timer) Elapsed() uint64 {
	return t.elapsed
}

// SetCounter forces the counter value, e.g. to start just below a wrap.
func (t *Timer) SetCounter(v uint32) {
	t.counter = v & t.mask
}

// untilCompare returns the ticks until the compare matches, 0 if unarmed.
func (t *Timer) untilCompare() uint64 {
	if !t.armed || !t.running {
		return 0
	}
	d := uint64((t.compare - t.counter) & t.mask)
	if d == 0 {
		d = uint64(t.mask) + 1
	}
	return d
}

// step moves the counter by n ticks, n never crossing the compare value.
func (t *Timer) step(n uint64) {
	if !t.running || n == 0 {
		return
	}
	t.counter = uint32((uint64(t.counter) + n) & uint64(t.mask))
	t.elapsed += n
	if t.armed && t.counter == t.compare {
		t.armed = false
		t.ctrl.Raise(t.line)
	}
}

// Advance consumes ticks of CPU time. Compare matches raise the interrupt on
// the exact tick and the controller is polled after each match, so handlers
// (and any context switch they request) run in the middle of the work.
func (t *Timer) Advance(ticks uint64) {
	for ticks > 0 {
		n := ticks
		if d := t.untilCompare(); d != 0 && d < n {
			n = d
		}
		t.step(n)
		ticks -= n
		t.ctrl.Poll()
		if t.ctrl.Halted() {
			return
		}
	}
}

// Spin is a busy wait of ticks. It behaves like Advance.
func (t *Timer) Spin(ticks uint32) {
	t.Advance(uint64(ticks))
}

// AdvanceToCompare jumps to the next compare match and services it. It
// reports false when nothing is armed, i.e. waiting would never end.
func (t *Timer) AdvanceToCompare() bool {
	d := t.untilCompare()
	if d == 0 {
		return false
	}
	t.step(d)
	t.ctrl.Poll()
	return true
}
