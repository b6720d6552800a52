//go:build linux || darwin || freebsd

// Package native runs the hardware timer contract on the host clock, the way
// the native board runs the kernel as a regular process.
package native

import (
	"math/bits"
	"sync"
	"time"

	"golang.org/x/sys/unix"

	"riotgo/hal"
	"riotgo/irq"
)

// Timer is a counter derived from CLOCK_MONOTONIC, truncated to width bits.
// Compare matches are delivered asynchronously through the irq controller.
type Timer struct {
	ctrl  *irq.Controller
	line  int
	width uint
	mask  uint32
	freq  uint32

	mu      sync.Mutex
	base    int64 // ns at Init
	stopped int64 // ns at Stop, 0 when running
	paused  int64 // total ns spent stopped
	pending *time.Timer
}

// New returns a native timer of width bits raising line on ctrl.
func New(ctrl *irq.Controller, line int, width uint) *Timer {
	return &Timer{
		ctrl:  ctrl,
		line:  line,
		width: width,
		mask:  hal.Mask(width),
	}
}

func monotonic() int64 {
	var ts unix.Timespec
	if err := unix.ClockGettime(unix.CLOCK_MONOTONIC, &ts); err != nil {
		return time.Now().UnixNano()
	}
	return ts.Nano()
}

// Init sets the tick frequency, registers handler and starts counting.
func (t *Timer) Init(freq uint32, handler func()) error {
	if freq == 0 || freq > 1000000000 {
		return hal.ErrInvalidFrequency
	}
	t.mu.Lock()
	t.freq = freq
	t.base = monotonic()
	t.mu.Unlock()
	t.ctrl.Register(t.line, handler)
	return nil
}

// Width returns the counter width in bits.
func (t *Timer) Width() uint {
	return t.width
}

// ticks returns the full tick count since Init. Caller holds t.mu.
func (t *Timer) ticks() uint64 {
	now := monotonic()
	if t.stopped != 0 {
		now = t.stopped
	}
	ns := now - t.base - t.paused
	if ns < 0 {
		ns = 0
	}
	hi, lo := bits.Mul64(uint64(ns), uint64(t.freq))
	q, _ := bits.Div64(hi, lo, 1000000000)
	return q
}

// Read returns the counter.
func (t *Timer) Read() uint32 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return uint32(t.ticks()) & t.mask
}

// SetAbsolute arms channel 0 for target. A target at or behind the counter
// fires on the next timer callback.
func (t *Timer) SetAbsolute(ch int, target uint32) error {
	if ch != 0 {
		return hal.ErrInvalidChannel
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.freq == 0 {
		return hal.ErrNotInitialized
	}

	now := uint32(t.ticks()) & t.mask
	delta := uint64((target - now) & t.mask)
	if delta > uint64(t.mask)/2 {
		delta = 0
	}
	d := time.Duration(delta * 1000000000 / uint64(t.freq))

	if t.pending != nil {
		t.pending.Stop()
	}
	line := t.line
	t.pending = time.AfterFunc(d, func() { t.ctrl.Raise(line) })
	return nil
}

// Start resumes counting after Stop.
func (t *Timer) Start() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped != 0 {
		t.paused += monotonic() - t.stopped
		t.stopped = 0
	}
}

// Stop holds the counter and cancels an armed compare.
func (t *Timer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped == 0 {
		t.stopped = monotonic()
	}
	if t.pending != nil {
		t.pending.Stop()
		t.pending = nil
	}
}
