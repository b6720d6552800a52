// Package board assembles a kernel from a board description: the interrupt
// controller, the hardware timer backend, the scheduler, xtimer and round
// robin.
package board

import (
	"fmt"

	"riotgo/config"
	"riotgo/core"
	"riotgo/hal"
	"riotgo/hal/sim"
	"riotgo/irq"
	"riotgo/schedrr"
	"riotgo/trace"
	"riotgo/xtimer"
)

// TimerLine is the interrupt line of the xtimer hardware timer.
const TimerLine = 0

// Board is an assembled system.
type Board struct {
	Config *config.BoardConfig
	IRQ    *irq.Controller
	Kernel *core.Kernel
	HW     hal.Timer
	XTimer *xtimer.Device
	RR     *schedrr.RoundRobin // nil when round robin is disabled

	sim *sim.Timer
}

// New builds the board cfg describes.
func New(cfg *config.BoardConfig) (*Board, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	switch cfg.Backend {
	case config.BackendSim:
		return NewSim(cfg)
	case config.BackendNative:
		return NewNative(cfg)
	}
	return nil, fmt.Errorf("board: %w %q", config.ErrBackend, cfg.Backend)
}

// NewSim builds a board on the simulated timer. Time only moves while
// threads do Work or the kernel idles.
func NewSim(cfg *config.BoardConfig) (*Board, error) {
	ctrl := irq.New()
	hw := sim.New(ctrl, TimerLine, cfg.Timer.Width)
	hw.SetCounter(cfg.Timer.StartCounter)

	b, err := assemble(cfg, ctrl, hw)
	if err != nil {
		return nil, err
	}
	b.sim = hw
	d := b.XTimer
	b.Kernel.SetIdleHandler(func() bool {
		return d.HasPending() && hw.AdvanceToCompare()
	})
	return b, nil
}

func assemble(cfg *config.BoardConfig, ctrl *irq.Controller, hw hal.Timer) (*Board, error) {
	trace.SetRecording(cfg.Trace)

	k := core.New(ctrl, cfg.Kernel())
	d, err := xtimer.New(k, hw, cfg.XTimer())
	if err != nil {
		return nil, fmt.Errorf("board: %w", err)
	}
	b := &Board{
		Config: cfg,
		IRQ:    ctrl,
		Kernel: k,
		HW:     hw,
		XTimer: d,
	}
	if !cfg.RoundRobin.Disabled {
		b.RR = schedrr.New(k, d, cfg.SchedRR())
	}
	return b, nil
}

// Sim returns the simulated timer, nil on other backends.
func (b *Board) Sim() *sim.Timer {
	return b.sim
}

// Spawn creates a thread.
func (b *Board) Spawn(name string, prio uint8, fn func()) (core.PID, error) {
	return b.Kernel.CreateThread(name, prio, 0, fn)
}

// Run starts scheduling and returns once every thread has exited.
func (b *Board) Run() error {
	return b.Kernel.Run()
}

// Work burns ticks of CPU time in the calling thread. Interrupts are
// serviced on the way, so the thread can be preempted in the middle.
func (b *Board) Work(ticks uint64) {
	if b.sim != nil {
		b.sim.Advance(ticks)
		return
	}
	start := b.XTimer.Now()
	for b.XTimer.Now()-start < ticks && !b.IRQ.Halted() {
		b.IRQ.Poll()
	}
}
