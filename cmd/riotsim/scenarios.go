package main

import (
	"errors"
	"fmt"
	"io"
	"sort"

	"riotgo/board"
	"riotgo/core"
	"riotgo/xtimer"
)

// scenario spawns the threads of one demonstration on a fresh board.
type scenario struct {
	desc  string
	setup func(b *board.Board, out io.Writer) error
}

var scenarios = map[string]scenario{
	"timers":   {"timers fire in target order, short offsets spin", timersScenario},
	"rr":       {"equal priority workers share the CPU in quanta", rrScenario},
	"mutex":    {"lock with timeout and cancellation", mutexScenario},
	"periodic": {"fixed cadence wakeups under variable load", periodicScenario},
	"msg":      {"periodic messages and receive timeouts", msgScenario},
}

var errUnknownScenario = errors.New("unknown scenario")

func scenarioNames() []string {
	names := make([]string, 0, len(scenarios))
	for name := range scenarios {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// runScenario builds a board from build, runs the named scenario on it and
// returns the board for inspection.
func runScenario(name string, build func() (*board.Board, error), out io.Writer) (*board.Board, error) {
	sc, ok := scenarios[name]
	if !ok {
		return nil, fmt.Errorf("%w %q", errUnknownScenario, name)
	}
	b, err := build()
	if err != nil {
		return nil, err
	}
	fmt.Fprintf(out, "== %s: %s\n", name, sc.desc)
	if err := sc.setup(b, out); err != nil {
		return b, err
	}
	if err := b.Run(); err != nil {
		return b, err
	}
	fmt.Fprintf(out, "== %s done at %dus, %d context switches\n",
		name, b.XTimer.NowUsec(), b.Kernel.ContextSwitches())
	return b, nil
}

func timersScenario(b *board.Board, out io.Writer) error {
	d := b.XTimer
	offsets := []uint64{300, 100, 300, 10}
	timers := make([]xtimer.Timer, len(offsets))

	_, err := b.Spawn("setter", core.PriorityMain, func() {
		start := d.Now()
		for i := range offsets {
			i := i
			timers[i].Action = xtimer.Func(func() {
				fmt.Fprintf(out, "timer %d (+%d) fired at +%d\n", i, offsets[i], d.Now()-start)
			})
			d.Set(&timers[i], offsets[i])
		}
		d.Sleep(1000)
		fmt.Fprintf(out, "setter woke at +%d\n", d.Now()-start)
	})
	return err
}

func rrScenario(b *board.Board, out io.Writer) error {
	quantum := uint64(1000)
	if b.RR != nil {
		quantum = b.RR.Quantum()
	}
	for _, name := range []string{"w1", "w2", "w3"} {
		name := name
		_, err := b.Spawn(name, core.PriorityMain, func() {
			for i := 0; i < 3; i++ {
				b.Work(quantum)
				fmt.Fprintf(out, "%s finished slice %d at %d\n", name, i, b.XTimer.Now())
			}
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func mutexScenario(b *board.Board, out io.Writer) error {
	k, d := b.Kernel, b.XTimer
	var m core.Mutex
	var mc *core.MutexCancel

	spawn := func(name string, prio uint8, fn func()) error {
		_, err := b.Spawn(name, prio, fn)
		return err
	}
	if err := spawn("holder", core.PriorityMain, func() {
		k.MutexLock(&m)
		fmt.Fprintf(out, "holder locked at %d\n", d.Now())
		b.Work(2000)
		k.MutexUnlock(&m)
	}); err != nil {
		return err
	}
	if err := spawn("impatient", core.PriorityMain-1, func() {
		d.Sleep(100)
		err := d.MutexLockTimeout(&m, 500)
		fmt.Fprintf(out, "impatient: %v at %d\n", err, d.Now())
	}); err != nil {
		return err
	}
	if err := spawn("patient", core.PriorityMain-2, func() {
		d.Sleep(200)
		if err := d.MutexLockTimeout(&m, 5000); err != nil {
			fmt.Fprintf(out, "patient: %v\n", err)
			return
		}
		fmt.Fprintf(out, "patient locked at %d\n", d.Now())
		k.MutexUnlock(&m)
	}); err != nil {
		return err
	}
	if err := spawn("cancelled", core.PriorityMain-3, func() {
		c := k.MutexCancelInit(&m)
		mc = &c
		d.Sleep(300)
		err := k.MutexLockCancelable(mc)
		fmt.Fprintf(out, "cancelled: %v at %d\n", err, d.Now())
	}); err != nil {
		return err
	}
	return spawn("canceller", core.PriorityMain-4, func() {
		d.Sleep(1000)
		k.MutexCancel(mc)
	})
}

func periodicScenario(b *board.Board, out io.Writer) error {
	d := b.XTimer
	work := []uint64{300, 600, 950, 100, 700}
	_, err := b.Spawn("periodic", core.PriorityMain, func() {
		last := d.Now()
		start := last
		for _, w := range work {
			b.Work(w)
			d.PeriodicWakeup(&last, 1000)
			fmt.Fprintf(out, "wakeup at +%d after %d ticks of work\n", d.Now()-start, w)
		}
	})
	return err
}

func msgScenario(b *board.Board, out io.Writer) error {
	k, d := b.Kernel, b.XTimer
	var queue [4]core.Msg

	receiver, err := b.Spawn("receiver", core.PriorityMain-1, func() {
		k.MsgInitQueue(queue[:])
		for {
			m, err := d.MsgReceiveTimeout(2500)
			if err != nil {
				fmt.Fprintf(out, "receiver: %v at %d\n", err, d.Now())
				return
			}
			fmt.Fprintf(out, "receiver: type %d value %d at %d\n", m.Type, m.Value, d.Now())
		}
	})
	if err != nil {
		return err
	}
	_, err = b.Spawn("ticker", core.PriorityMain, func() {
		var t xtimer.Timer
		last := d.Now()
		for i := uint32(0); i < 3; i++ {
			d.PeriodicMsg(&t, &last, 1000, core.Msg{Type: 1, Value: i}, receiver)
			d.Sleep(1000)
		}
	})
	return err
}
