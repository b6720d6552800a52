package xtimer

import "riotgo/core"

// Action is what a timer does when it fires. It runs in interrupt context
// (or, for offsets below Backoff, in the caller's context with interrupts
// masked) and must not block.
type Action interface {
	fire(d *Device)
}

// Func calls a function.
type Func func()

func (f Func) fire(*Device) { f() }

// Message posts Msg to the thread To.
type Message struct {
	To  core.PID
	Msg core.Msg
}

func (m Message) fire(d *Device) {
	_ = d.k.MsgSendFromISR(m.Msg, m.To)
}

// Wakeup wakes a sleeping thread.
type Wakeup core.PID

func (w Wakeup) fire(d *Device) {
	_ = d.k.ThreadWakeup(core.PID(w))
}

// Timer is a caller-owned software timer. The zero value is inactive; set
// Action before arming it.
type Timer struct {
	Action Action

	next    *Timer
	target  uint64
	dev     *Device
	pending bool
}

// Target returns the absolute time of the last arming.
func (t *Timer) Target() uint64 {
	return t.target
}
