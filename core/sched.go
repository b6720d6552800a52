// Package core is the kernel: the thread table, the priority run queues and
// the scheduler, mutexes and message passing.
//
// Every thread function runs on its own goroutine, but exactly one of them
// holds the CPU at any time. A context switch hands the CPU to the next
// goroutine and parks the current one. Switches only happen at interrupt
// enable points (irq.Guard.Exit, irq.Controller.Poll), so a switch requested
// with interrupts masked or from an interrupt handler is deferred the way a
// pended PendSV is on a Cortex-M.
package core

import (
	"math/bits"
	"runtime"
	"sync"

	"riotgo/irq"
	"riotgo/trace"
)

// DefaultMaxThreads is the thread table size used when Config leaves it zero.
const DefaultMaxThreads = 32

// Config holds kernel build-time limits.
type Config struct {
	MaxThreads int
}

// Kernel is the scheduler context of one CPU. It is created once at boot and
// passed to every layer that needs the scheduler.
type Kernel struct {
	irq *irq.Controller

	threads    []*Thread // indexed by PID, slot 0 unused
	numThreads int

	runqueues [NumPriorities]clist
	bitcache  uint32

	current       *Thread
	switchRequest bool
	inSched       bool
	switches      uint64

	idle         func() bool
	runqCallback func(prio uint8)
	switchHook   func(prio uint8)

	started  bool
	done     chan struct{}
	halted   chan struct{}
	haltOnce sync.Once
	err      error
}

// New returns a kernel bound to the interrupt controller ctrl.
func New(ctrl *irq.Controller, cfg Config) *Kernel {
	if cfg.MaxThreads <= 0 {
		cfg.MaxThreads = DefaultMaxThreads
	}
	k := &Kernel{
		irq:     ctrl,
		threads: make([]*Thread, cfg.MaxThreads+1),
		done:    make(chan struct{}),
		halted:  make(chan struct{}),
	}
	ctrl.SetEnableHook(k.preempt)
	return k
}

// IRQ returns the interrupt controller of the kernel's CPU.
func (k *Kernel) IRQ() *irq.Controller {
	return k.irq
}

// SetIdleHandler installs the function the scheduler runs while no thread
// is runnable. It must wait for (and service) at least one interrupt and
// return true, or return false if no interrupt can ever arrive.
func (k *Kernel) SetIdleHandler(fn func() bool) {
	k.idle = fn
}

// SetRunqueueCallback installs fn, called with the priority whenever a
// thread is added to or removed from that priority's run queue.
func (k *Kernel) SetRunqueueCallback(fn func(prio uint8)) {
	k.runqCallback = fn
}

// SetSwitchCallback installs fn, called with the priority of the thread
// about to run on every context switch, before it is resumed.
func (k *Kernel) SetSwitchCallback(fn func(prio uint8)) {
	k.switchHook = fn
}

// CreateThread creates a thread running fn at priority prio. Unless flags
// say otherwise the new thread is runnable immediately and preempts the
// caller if it has a higher priority.
func (k *Kernel) CreateThread(name string, prio uint8, flags CreateFlags, fn func()) (PID, error) {
	if prio >= NumPriorities {
		return PIDUndef, ErrInvalidPriority
	}

	g := k.irq.Enter()
	defer g.Exit()

	pid := PIDUndef
	for i := PIDFirst; int(i) < len(k.threads); i++ {
		if k.threads[i] == nil {
			pid = i
			break
		}
	}
	if pid == PIDUndef {
		return PIDUndef, ErrTooManyThreads
	}

	t := &Thread{
		pid:      pid,
		name:     name,
		priority: prio,
		status:   StatusStopped,
		fn:       fn,
		resume:   make(chan struct{}, 1),
	}
	k.threads[pid] = t
	k.numThreads++

	if flags&CreateSleeping != 0 {
		t.status = StatusSleeping
		return pid, nil
	}
	k.setStatus(t, StatusPending)
	if flags&CreateWithoutYield == 0 {
		k.Switch(prio)
	}
	return pid, nil
}

// Run hands the CPU to the highest priority thread and blocks until every
// thread has exited (nil), all remaining threads are blocked with nothing
// left to wake them (ErrDeadlock), or a thread panicked (*PanicError).
// Run must be called once, from outside any thread.
func (k *Kernel) Run() error {
	if k.started {
		return ErrAlreadyRunning
	}
	k.started = true
	k.contextSwitch()
	<-k.done
	return k.err
}

// Active returns the running thread, nil before Run.
func (k *Kernel) Active() *Thread {
	return k.current
}

// ActivePID returns the running thread's PID, PIDUndef before Run.
func (k *Kernel) ActivePID() PID {
	if k.current == nil {
		return PIDUndef
	}
	return k.current.pid
}

// Thread returns the control block of pid, nil if there is none.
func (k *Kernel) Thread(pid PID) *Thread {
	if pid < PIDFirst || int(pid) >= len(k.threads) {
		return nil
	}
	return k.threads[pid]
}

// Status returns the state of pid, StatusStopped if there is no such thread.
func (k *Kernel) Status(pid PID) Status {
	if t := k.Thread(pid); t != nil {
		return t.status
	}
	return StatusStopped
}

// Priority returns the priority of pid.
func (k *Kernel) Priority(pid PID) (uint8, error) {
	t := k.Thread(pid)
	if t == nil {
		return 0, ErrNoSuchThread
	}
	return t.priority, nil
}

// NumThreads returns the number of live threads.
func (k *Kernel) NumThreads() int {
	return k.numThreads
}

// ContextSwitches returns how many times the CPU moved between threads.
func (k *Kernel) ContextSwitches() uint64 {
	return k.switches
}

// Yield moves the running thread behind its same-priority peers and
// reschedules.
func (k *Kernel) Yield() {
	g := k.irq.Enter()
	if cur := k.current; cur != nil && cur.status.OnRunqueue() {
		k.runqueues[cur.priority].lpoprpush(k.threads)
	}
	k.switchRequest = true
	g.Exit()
}

// YieldHigher reschedules so that a runnable thread of higher priority than
// the running one gets the CPU. In interrupt context, or with interrupts
// masked, the switch happens at the next interrupt enable point.
func (k *Kernel) YieldHigher() {
	k.switchRequest = true
	if k.irq.Enabled() && !k.irq.InISR() {
		k.preempt()
	}
}

// Switch yields if a thread of priority otherPrio just became runnable and
// should run instead of the current thread.
func (k *Kernel) Switch(otherPrio uint8) {
	cur := k.current
	if cur == nil || !cur.status.OnRunqueue() || cur.priority > otherPrio {
		k.YieldHigher()
	}
}

// ThreadSleep suspends the running thread until ThreadWakeup.
func (k *Kernel) ThreadSleep() {
	k.assertBlockable()
	g := k.irq.Enter()
	k.setStatus(k.current, StatusSleeping)
	k.switchRequest = true
	g.Exit()
}

// ThreadWakeup makes a sleeping thread runnable. Callable from interrupt
// context.
func (k *Kernel) ThreadWakeup(pid PID) error {
	g := k.irq.Enter()
	defer g.Exit()

	t := k.Thread(pid)
	if t == nil || t.status != StatusSleeping {
		return ErrNotSleeping
	}
	k.setStatus(t, StatusPending)
	k.Switch(t.priority)
	return nil
}

// ChangePriority moves a thread to another priority, rescheduling if the
// change makes another thread more eligible.
func (k *Kernel) ChangePriority(pid PID, prio uint8) error {
	if prio >= NumPriorities {
		return ErrInvalidPriority
	}
	g := k.irq.Enter()
	defer g.Exit()

	t := k.Thread(pid)
	if t == nil {
		return ErrNoSuchThread
	}
	old := t.priority
	if old == prio {
		return nil
	}
	if t.status.OnRunqueue() {
		status := t.status
		k.setStatus(t, StatusStopped)
		t.priority = prio
		k.setStatus(t, status)
	} else {
		t.priority = prio
	}

	if t == k.current {
		if prio > old {
			k.YieldHigher()
		}
	} else if t.status.OnRunqueue() {
		k.Switch(prio)
	}
	return nil
}

// RunqueueEmpty reports whether no thread of priority prio is runnable.
func (k *Kernel) RunqueueEmpty(prio uint8) bool {
	return k.runqueues[prio].empty()
}

// RunqueueMoreThanOne reports whether at least two threads of priority prio
// are runnable.
func (k *Kernel) RunqueueMoreThanOne(prio uint8) bool {
	return k.runqueues[prio].moreThanOne(k.threads)
}

// RunqueueLen counts the runnable threads of priority prio.
func (k *Kernel) RunqueueLen(prio uint8) int {
	return k.runqueues[prio].count(k.threads)
}

// RunqueueHead returns the thread at the head of priority prio's queue.
func (k *Kernel) RunqueueHead(prio uint8) PID {
	return k.runqueues[prio].lpeek(k.threads)
}

// RunqueueAdvance rotates priority prio's queue: the head goes to the tail.
func (k *Kernel) RunqueueAdvance(prio uint8) {
	k.runqueues[prio].lpoprpush(k.threads)
}

// setStatus moves t between run queues and blocked states. Interrupts must
// be masked.
func (k *Kernel) setStatus(t *Thread, s Status) {
	prio := t.priority
	changed := false
	if s.OnRunqueue() {
		if !t.status.OnRunqueue() {
			k.runqueues[prio].rpush(k.threads, t.pid)
			k.bitcache |= 1 << prio
			changed = true
		}
	} else if t.status.OnRunqueue() {
		k.runqueues[prio].remove(k.threads, t.pid)
		if k.runqueues[prio].empty() {
			k.bitcache &^= 1 << prio
		}
		changed = true
	}
	t.status = s
	if changed && k.runqCallback != nil {
		k.runqCallback(prio)
	}
}

// pickNext returns the head of the highest priority non-empty run queue.
func (k *Kernel) pickNext() *Thread {
	if k.bitcache == 0 {
		return nil
	}
	prio := uint8(bits.TrailingZeros32(k.bitcache))
	return k.threads[k.runqueues[prio].lpeek(k.threads)]
}

// selectNext picks the next thread, idling until one is runnable. It returns
// nil once the kernel halted.
func (k *Kernel) selectNext() *Thread {
	for {
		if k.numThreads == 0 {
			k.halt(nil)
			return nil
		}
		if t := k.pickNext(); t != nil {
			return t
		}
		if k.idle == nil || !k.idle() {
			k.halt(ErrDeadlock)
			return nil
		}
		if k.irq.Halted() {
			return nil
		}
	}
}

// preempt is the interrupt-enable hook: it performs a requested switch.
func (k *Kernel) preempt() {
	if !k.switchRequest || k.inSched || k.current == nil {
		return
	}
	k.contextSwitch()
}

// contextSwitch transfers the CPU from the calling goroutine, which belongs
// to k.current (or to Run before the first switch), to the best runnable
// thread. It returns when the caller is scheduled again, or immediately if
// the caller has exited.
func (k *Kernel) contextSwitch() {
	cur := k.current

	k.inSched = true
	next := k.selectNext()
	if next != nil && next != cur {
		next = k.announce(next)
	}
	k.inSched = false
	k.switchRequest = false

	if next == nil {
		if cur != nil && cur.status != StatusStopped {
			k.park(cur)
		}
		return
	}
	if next == cur {
		cur.status = StatusRunning
		return
	}

	exiting := cur == nil || cur.status == StatusStopped
	prev := PIDUndef
	if cur != nil {
		prev = cur.pid
		if cur.status == StatusRunning {
			cur.status = StatusPending
		}
	}
	next.status = StatusRunning
	k.current = next
	k.switches++
	trace.Record(trace.EvtContextSwitch, uint8(next.pid), 0, uint32(prev), uint32(next.priority))

	if !next.started {
		next.started = true
		go k.trampoline(next)
	} else {
		next.resume <- struct{}{}
	}

	if exiting {
		return
	}
	k.park(cur)
}

// announce runs the switch callback for next. An interrupt serviced from
// inside the callback may make a better thread runnable, so the choice is
// re-made until it is stable.
func (k *Kernel) announce(next *Thread) *Thread {
	if k.switchHook == nil {
		return next
	}
	for {
		k.switchRequest = false
		k.switchHook(next.priority)
		if !k.switchRequest {
			return next
		}
		t := k.pickNext()
		if t == nil || t == next {
			return next
		}
		next = t
	}
}

// park blocks the goroutine of t until t is scheduled again.
func (k *Kernel) park(t *Thread) {
	select {
	case <-t.resume:
	case <-k.halted:
		runtime.Goexit()
	}
}

func (k *Kernel) trampoline(t *Thread) {
	defer func() {
		r := recover()
		if k.isHalted() {
			return
		}
		if r != nil {
			k.halt(&PanicError{PID: t.pid, Name: t.name, Value: r})
			return
		}
		k.exit(t)
	}()
	t.fn()
}

// exit releases t's slot and hands the CPU on for good.
func (k *Kernel) exit(t *Thread) {
	g := k.irq.Enter()
	k.setStatus(t, StatusStopped)
	k.threads[t.pid] = nil
	k.numThreads--
	k.switchRequest = true
	g.Exit()
}

func (k *Kernel) halt(err error) {
	k.haltOnce.Do(func() {
		k.err = err
		k.irq.Halt()
		close(k.halted)
		close(k.done)
	})
}

func (k *Kernel) isHalted() bool {
	select {
	case <-k.halted:
		return true
	default:
		return false
	}
}

// assertBlockable panics when the caller may not suspend.
func (k *Kernel) assertBlockable() {
	if k.irq.InISR() {
		panic("core: blocking call from interrupt context")
	}
	if !k.irq.Enabled() {
		panic("core: blocking call with interrupts masked")
	}
	if k.current == nil {
		panic("core: blocking call outside a thread")
	}
}
