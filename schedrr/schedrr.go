// Package schedrr adds time slicing to the priority scheduler: when two or
// more threads are runnable at the priority that is currently running, one
// shared timer rotates that priority's run queue every quantum.
package schedrr

import (
	"riotgo/core"
	"riotgo/trace"
	"riotgo/xtimer"
)

// PrioNone marks that no priority is being rotated.
const PrioNone = 0xFF

// DefaultQuantumUsec is the time slice used when Config leaves it zero.
const DefaultQuantumUsec = 10000

// Config selects the slice length and the priorities never rotated.
type Config struct {
	// QuantumUsec is the time slice in microseconds.
	QuantumUsec uint32

	// Mask has bit p set for every priority p excluded from rotation.
	Mask uint32
}

// RoundRobin is the rotation state of one CPU.
type RoundRobin struct {
	k       *core.Kernel
	dev     *xtimer.Device
	timer   xtimer.Timer
	quantum uint64
	mask    uint32
	current uint8
}

// New attaches round robin to k, using dev for the rotation timer.
func New(k *core.Kernel, dev *xtimer.Device, cfg Config) *RoundRobin {
	if cfg.QuantumUsec == 0 {
		cfg.QuantumUsec = DefaultQuantumUsec
	}
	rr := &RoundRobin{
		k:       k,
		dev:     dev,
		quantum: dev.TicksFromUsec(uint64(cfg.QuantumUsec)),
		mask:    cfg.Mask,
		current: PrioNone,
	}
	rr.timer.Action = xtimer.Func(rr.expired)
	k.SetRunqueueCallback(rr.runqueueChanged)
	k.SetSwitchCallback(rr.CheckSet)
	return rr
}

// Current returns the priority being rotated, PrioNone if the timer is off.
func (rr *RoundRobin) Current() uint8 {
	return rr.current
}

// Quantum returns the slice length in ticks.
func (rr *RoundRobin) Quantum() uint64 {
	return rr.quantum
}

func (rr *RoundRobin) runqueueChanged(prio uint8) {
	if rr.k.RunqueueEmpty(prio) {
		rr.CheckRemoveSet(prio)
	} else {
		rr.CheckSet(prio)
	}
}

// CheckSet arms the rotation timer for prio if nothing is being rotated,
// prio is not masked and at least two threads of prio are runnable.
func (rr *RoundRobin) CheckSet(prio uint8) {
	if rr.current != PrioNone || prio >= core.NumPriorities {
		return
	}
	if rr.mask&(1<<prio) != 0 {
		return
	}
	if !rr.k.RunqueueMoreThanOne(prio) {
		return
	}
	rr.current = prio
	rr.dev.Set(&rr.timer, rr.quantum)
}

// CheckRemoveSet disarms the timer when the rotated queue drained and
// re-evaluates for the priority now running.
func (rr *RoundRobin) CheckRemoveSet(prio uint8) {
	if rr.current != prio {
		return
	}
	rr.dev.Remove(&rr.timer)
	rr.current = PrioNone
	rr.CheckSet(rr.activePriority())
}

// expired runs in interrupt context at the end of a slice.
func (rr *RoundRobin) expired() {
	prio := rr.current
	if prio == PrioNone {
		return
	}
	rr.k.RunqueueAdvance(prio)
	rr.current = PrioNone
	trace.Record(trace.EvtRRRotate, prio, rr.dev.Now32(), uint32(rr.k.RunqueueHead(prio)), 0)

	if active := rr.activePriority(); active == prio {
		rr.k.YieldHigher()
		rr.CheckSet(prio)
	} else {
		rr.CheckSet(active)
	}
}

func (rr *RoundRobin) activePriority() uint8 {
	if t := rr.k.Active(); t != nil && t.Status().OnRunqueue() {
		return t.Priority()
	}
	return PrioNone
}
