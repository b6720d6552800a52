package core

import "riotgo/trace"

// MutexCancel binds a mutex to the thread that wants it, so that another
// context can abort that thread's wait. It is caller owned and may be reused
// after a lock attempt returns.
type MutexCancel struct {
	mutex     *Mutex
	pid       PID
	cancelled bool
	acquired  bool
}

// MutexCancelInit returns a cancellation token for m bound to the running
// thread.
func (k *Kernel) MutexCancelInit(m *Mutex) MutexCancel {
	return MutexCancel{mutex: m, pid: k.ActivePID()}
}

// Mutex returns the mutex the token guards.
func (mc *MutexCancel) Mutex() *Mutex {
	return mc.mutex
}

// Cancelled reports whether MutexCancel was called on mc since the last
// successful lock.
func (mc *MutexCancel) Cancelled() bool {
	return mc.cancelled
}

// MutexLockCancelable locks mc's mutex unless the token was cancelled before
// or while waiting, in which case it returns ErrCanceled without owning it.
func (k *Kernel) MutexLockCancelable(mc *MutexCancel) error {
	g := k.irq.Enter()
	if mc.cancelled {
		g.Exit()
		return ErrCanceled
	}
	mc.acquired = false
	m := mc.mutex
	if !m.locked {
		m.locked = true
		m.owner = mc.pid
		mc.acquired = true
		g.Exit()
		return nil
	}
	g.Exit()

	k.assertBlockable()
	g = k.irq.Enter()
	if mc.cancelled {
		g.Exit()
		return ErrCanceled
	}
	cur := k.current
	k.setStatus(cur, StatusMutexBlocked)
	m.waiters.add(k.threads, cur)
	k.switchRequest = true
	g.Exit()

	g = k.irq.Enter()
	defer g.Exit()
	if m.locked && m.owner == cur.pid {
		mc.acquired = true
		mc.cancelled = false
		return nil
	}
	return ErrCanceled
}

// MutexCancel cancels the lock attempt of mc's thread. A thread blocked on
// the mutex is woken and its MutexLockCancelable returns ErrCanceled; a thread
// that has not started locking will fail immediately. Once the thread owns the
// mutex this does nothing. Callable from interrupt context.
func (k *Kernel) MutexCancel(mc *MutexCancel) {
	g := k.irq.Enter()
	defer g.Exit()

	m := mc.mutex
	if mc.acquired || (m.locked && m.owner == mc.pid) {
		return
	}
	mc.cancelled = true

	t := k.Thread(mc.pid)
	if t == nil || t.status != StatusMutexBlocked {
		return
	}
	if m.waiters.remove(k.threads, t) {
		trace.Record(trace.EvtMutexCancel, uint8(t.pid), 0, 0, 0)
		k.setStatus(t, StatusPending)
		k.Switch(t.priority)
	}
}
