// Package xtimer multiplexes one hardware compare channel into any number of
// software timers on a 64-bit logical clock.
//
// Pending timers sit in a singly linked list sorted by target, FIFO among
// equal targets. The hardware compare is always armed: for the head of the
// list minus Overhead, or half a counter period ahead when the list is empty
// or the head is far away, so every counter wrap is observed by the handler.
package xtimer

import (
	"fmt"
	"math"

	"riotgo/core"
	"riotgo/hal"
	"riotgo/irq"
	"riotgo/trace"
)

// Device is the timer subsystem bound to one hardware timer.
type Device struct {
	k       *core.Kernel
	ctrl    *irq.Controller
	hw      hal.Timer
	spinner hal.Spinner
	cfg     Config

	mask   uint32
	period uint64
	half   uint64

	high   uint64 // logical time of the last counter wrap
	lastHW uint32

	head      *Timer
	batch     *Timer // due timers detached by the running handler
	inHandler bool
}

// New initializes hw at cfg.Hz and returns the device driving it.
func New(k *core.Kernel, hw hal.Timer, cfg Config) (*Device, error) {
	def := DefaultConfig()
	if cfg.Hz == 0 {
		cfg.Hz = def.Hz
	}
	if cfg.ISRBackoff < cfg.Overhead {
		cfg.ISRBackoff = cfg.Overhead
	}

	width := hw.Width()
	d := &Device{
		k:      k,
		ctrl:   k.IRQ(),
		hw:     hw,
		cfg:    cfg,
		mask:   hal.Mask(width),
		period: uint64(1) << width,
	}
	d.half = d.period / 2
	if s, ok := hw.(hal.Spinner); ok {
		d.spinner = s
	}

	if err := hw.Init(cfg.Hz, d.isr); err != nil {
		return nil, err
	}

	g := d.ctrl.Enter()
	defer g.Exit()
	d.lastHW = hw.Read() & d.mask
	if err := d.arm(d.lastHW + uint32(d.half)); err != nil {
		return nil, err
	}
	return d, nil
}

// Config returns the active configuration.
func (d *Device) Config() Config {
	return d.cfg
}

// Kernel returns the kernel the device wakes threads on.
func (d *Device) Kernel() *core.Kernel {
	return d.k
}

// Now returns the current logical time in ticks. It never decreases.
func (d *Device) Now() uint64 {
	g := d.ctrl.Enter()
	defer g.Exit()
	return d.now()
}

// Now32 returns the low 32 bits of Now.
func (d *Device) Now32() uint32 {
	return uint32(d.Now())
}

// NowUsec returns Now in microseconds.
func (d *Device) NowUsec() uint64 {
	return d.UsecFromTicks(d.Now())
}

// now extends the hardware counter. Interrupts must be masked.
func (d *Device) now() uint64 {
	hw := d.hw.Read() & d.mask
	if hw < d.lastHW {
		d.high += d.period
		trace.Record(trace.EvtOverflow, 0, hw, uint32(d.high>>32), uint32(d.high))
	}
	d.lastHW = hw
	return d.high + uint64(hw)
}

// Set arms t to fire offset ticks from now. An offset below Backoff is spun
// and t fires before Set returns.
func (d *Device) Set(t *Timer, offset uint64) {
	d.Remove(t)
	if offset < uint64(d.cfg.Backoff) {
		g := d.ctrl.Enter()
		trace.Record(trace.EvtTimerSpin, 0, d.hw.Read(), 0, uint32(offset))
		d.Spin(uint32(offset))
		t.Action.fire(d)
		g.Exit()
		return
	}

	g := d.ctrl.Enter()
	defer g.Exit()
	d.setAbsolute(t, satAdd(d.now(), offset))
}

// SetAbsolute arms t for the absolute logical time target. A target in the
// past fires as soon as possible.
func (d *Device) SetAbsolute(t *Timer, target uint64) {
	g := d.ctrl.Enter()
	defer g.Exit()
	d.setAbsolute(t, target)
}

func (d *Device) setAbsolute(t *Timer, target uint64) {
	if t.pending {
		if t.dev != d {
			panic(ErrDoubleInsert)
		}
		d.unlink(t)
	}
	now := d.now()
	if target < now {
		target = now
	}
	t.target = target
	t.dev = d
	d.insert(t)
	trace.Record(trace.EvtTimerSet, 0, uint32(now), uint32(target>>32), uint32(target))

	if d.head == t {
		d.program(now)
	}
}

// insert links t behind every timer due at or before it.
func (d *Device) insert(t *Timer) {
	if t.pending {
		panic(ErrDoubleInsert)
	}
	t.pending = true

	if d.head == nil || t.target < d.head.target {
		t.next = d.head
		d.head = t
		return
	}
	cur := d.head
	for cur.next != nil && cur.next.target <= t.target {
		cur = cur.next
	}
	t.next = cur.next
	cur.next = t
}

// unlink detaches t from the pending list or the handler's batch. It
// reports whether t was the head of the pending list.
func (d *Device) unlink(t *Timer) bool {
	wasHead := d.head == t
	if !unlinkFrom(&d.head, t) {
		unlinkFrom(&d.batch, t)
	}
	t.next = nil
	t.pending = false
	return wasHead
}

func unlinkFrom(list **Timer, t *Timer) bool {
	for p := list; *p != nil; p = &(*p).next {
		if *p == t {
			*p = t.next
			return true
		}
	}
	return false
}

// Remove stops t. Removing an inactive timer does nothing.
func (d *Device) Remove(t *Timer) {
	g := d.ctrl.Enter()
	defer g.Exit()

	if !t.pending || t.dev != d {
		return
	}
	wasHead := d.unlink(t)
	now := d.now()
	trace.Record(trace.EvtTimerRemove, 0, uint32(now), uint32(t.target>>32), uint32(t.target))
	if wasHead {
		d.program(now)
	}
}

// IsSet reports whether t is pending on d.
func (d *Device) IsSet(t *Timer) bool {
	g := d.ctrl.Enter()
	defer g.Exit()
	return t.pending && t.dev == d
}

// HasPending reports whether any timer is pending.
func (d *Device) HasPending() bool {
	g := d.ctrl.Enter()
	defer g.Exit()
	return d.head != nil
}

// Pending returns the number of pending timers.
func (d *Device) Pending() int {
	g := d.ctrl.Enter()
	defer g.Exit()
	n := 0
	for t := d.head; t != nil; t = t.next {
		n++
	}
	for t := d.batch; t != nil; t = t.next {
		n++
	}
	return n
}

// Spin busy-waits for ticks.
func (d *Device) Spin(ticks uint32) {
	if ticks == 0 {
		return
	}
	if d.spinner != nil {
		d.spinner.Spin(ticks)
		return
	}
	start := d.hw.Read()
	for (d.hw.Read()-start)&d.mask < ticks {
	}
}

// isr is the compare handler. It detaches every timer due within
// ISRBackoff, then fires them in order, spinning the last few ticks for
// those slightly ahead. Timers armed by the callbacks wait for the next
// interrupt, even when already due.
func (d *Device) isr() {
	d.inHandler = true
	now := d.now()
	limit := satAdd(now, uint64(d.cfg.ISRBackoff))

	var last *Timer
	for t := d.head; t != nil && t.target <= limit; t = t.next {
		last = t
	}
	if last != nil {
		d.batch = d.head
		d.head = last.next
		last.next = nil
	}

	for d.batch != nil {
		t := d.batch
		if t.target > now {
			d.Spin(uint32(t.target - now))
			now = d.now()
		}
		d.batch = t.next
		t.next = nil
		t.pending = false

		trace.Record(trace.EvtTimerFire, 0, uint32(now), uint32(t.target>>32), uint32(t.target))
		t.Action.fire(d)
		now = d.now()
	}
	d.inHandler = false
	d.program(now)
}

// program arms the compare for the head. Skipped while the handler runs;
// it re-arms on exit. Interrupts must be masked.
func (d *Device) program(now uint64) {
	if d.inHandler {
		return
	}
	delta := d.half
	if d.head != nil {
		target := d.head.target
		if target > uint64(d.cfg.Overhead) {
			target -= uint64(d.cfg.Overhead)
		}
		switch {
		case target <= now:
			delta = 1
		case target-now < delta:
			delta = target - now
		}
	}
	if err := d.arm(uint32(now + delta)); err != nil {
		panic(fmt.Errorf("xtimer: arming compare: %w", err))
	}
}

func (d *Device) arm(target uint32) error {
	return d.hw.SetAbsolute(d.cfg.Channel, target&d.mask)
}

func satAdd(a, b uint64) uint64 {
	if a > math.MaxUint64-b {
		return math.MaxUint64
	}
	return a + b
}
