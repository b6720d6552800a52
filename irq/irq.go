// Package irq models the interrupt controller of a single CPU: interrupt
// lines, the global mask, and the critical-section guard used by every piece
// of state shared between thread context and interrupt context.
//
// Handlers never run concurrently with thread code. A line raised from another
// goroutine (or from simulated hardware) stays pending until the CPU reaches
// an interrupt-enable point: Guard.Exit restoring the enabled state, Poll, or
// Wait from the idle loop.
package irq

import (
	"math/bits"
	"sync/atomic"
)

// MaxLines is the number of interrupt lines a Controller supports.
const MaxLines = 32

// Handler runs in interrupt context. It must not block.
type Handler func()

// Controller is the interrupt controller of one CPU.
type Controller struct {
	handlers [MaxLines]Handler

	pending atomic.Uint32
	notify  chan struct{}

	// Only touched by the goroutine holding the CPU.
	masked bool
	inISR  bool

	// onEnable runs after pending interrupts were serviced at an
	// interrupt-enable point in thread context. The kernel installs its
	// deferred context switch here.
	onEnable func()

	halted atomic.Bool
}

// New returns a controller with interrupts enabled and no lines registered.
func New() *Controller {
	return &Controller{notify: make(chan struct{}, 1)}
}

// Register installs h on line.
func (c *Controller) Register(line int, h Handler) {
	if line < 0 || line >= MaxLines {
		panic("irq: line out of range")
	}
	c.handlers[line] = h
}

// SetEnableHook installs the function run at interrupt-enable points.
func (c *Controller) SetEnableHook(fn func()) {
	c.onEnable = fn
}

// Pend marks line pending without waking Wait. It only touches an atomic, so
// it is the form to call from a real interrupt vector.
func (c *Controller) Pend(line int) {
	c.pending.Or(1 << uint(line))
}

// Raise marks line pending and wakes a CPU blocked in Wait. Safe to call
// from any goroutine.
func (c *Controller) Raise(line int) {
	c.Pend(line)

	select {
	case c.notify <- struct{}{}:
	default:
	}
}

// Pending reports whether any line is waiting to be serviced.
func (c *Controller) Pending() bool {
	return c.pending.Load() != 0
}

// InISR reports whether the CPU is executing an interrupt handler.
func (c *Controller) InISR() bool {
	return c.inISR
}

// Enabled reports whether interrupts are currently enabled.
func (c *Controller) Enabled() bool {
	return !c.masked
}

// Halt stops all further interrupt servicing. Used when the kernel stops.
func (c *Controller) Halt() {
	c.halted.Store(true)
	c.Raise(0)
}

// Halted reports whether Halt was called.
func (c *Controller) Halted() bool {
	return c.halted.Load()
}

// Guard is a critical section: interrupts stay masked from Enter until Exit.
// Guards nest; only the outermost Exit re-enables interrupts.
//
//	g := ctrl.Enter()
//	defer g.Exit()
type Guard struct {
	c    *Controller
	prev bool
}

// Enter masks interrupts and returns the guard that restores them.
func (c *Controller) Enter() Guard {
	prev := c.masked
	c.masked = true
	if !prev {
		hwDisable()
	}
	return Guard{c: c, prev: prev}
}

// Exit restores the interrupt state captured by Enter. When that re-enables
// interrupts in thread context, pending lines are serviced before it returns.
func (g Guard) Exit() {
	c := g.c
	c.masked = g.prev
	if g.prev {
		return
	}
	hwEnable()
	if !c.inISR {
		c.Poll()
	}
}

// Poll services pending interrupts if they are enabled and runs the enable
// hook. It is the preemption point used by busy loops and simulated hardware.
func (c *Controller) Poll() {
	if c.masked || c.inISR || c.halted.Load() {
		return
	}
	c.service()
	if c.onEnable != nil && !c.halted.Load() {
		c.onEnable()
	}
}

// Wait blocks until a line is pending, then services it. It is the WFI of
// backends whose interrupts arrive asynchronously.
func (c *Controller) Wait() {
	for !c.Pending() {
		<-c.notify
	}
	if c.halted.Load() {
		return
	}
	c.service()
}

// take claims the lowest pending line, -1 if none.
func (c *Controller) take() int {
	for {
		p := c.pending.Load()
		if p == 0 {
			return -1
		}
		line := bits.TrailingZeros32(p)
		if c.pending.CompareAndSwap(p, p&^(1<<uint(line))) {
			return line
		}
	}
}

func (c *Controller) service() {
	for {
		line := c.take()
		if line < 0 {
			return
		}
		h := c.handlers[line]
		if h == nil {
			continue
		}
		prevMasked := c.masked
		c.inISR = true
		c.masked = true
		h()
		c.masked = prevMasked
		c.inISR = false
	}
}
