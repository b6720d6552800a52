package core

// Mutex is a non-recursive lock with priority-ordered waiters. Unlock hands
// ownership directly to the first waiter. The zero value is unlocked.
type Mutex struct {
	locked  bool
	owner   PID
	waiters waitList
}

// Locked reports whether m is held.
func (m *Mutex) Locked() bool {
	return m.locked
}

// Owner returns the holder of m, PIDUndef when unlocked.
func (m *Mutex) Owner() PID {
	if !m.locked {
		return PIDUndef
	}
	return m.owner
}

// MutexTryLock takes m if it is free. It never blocks.
func (k *Kernel) MutexTryLock(m *Mutex) bool {
	g := k.irq.Enter()
	defer g.Exit()

	if m.locked {
		return false
	}
	m.locked = true
	m.owner = k.ActivePID()
	return true
}

// MutexLock blocks until the running thread owns m.
func (k *Kernel) MutexLock(m *Mutex) {
	for !k.MutexLockOnce(m) {
	}
}

// MutexLockOnce takes m or blocks once on it. It reports whether the running
// thread owns m on return; false means the wait was aborted (MutexAbortWait)
// before ownership was handed over.
func (k *Kernel) MutexLockOnce(m *Mutex) bool {
	if k.MutexTryLock(m) {
		return true
	}
	k.assertBlockable()

	g := k.irq.Enter()
	if !m.locked {
		m.locked = true
		m.owner = k.current.pid
		g.Exit()
		return true
	}
	cur := k.current
	k.setStatus(cur, StatusMutexBlocked)
	m.waiters.add(k.threads, cur)
	k.switchRequest = true
	g.Exit()

	return m.locked && m.owner == cur.pid
}

// MutexUnlock releases m. If threads are waiting, the first one becomes the
// owner and is made runnable. Unlocking a free mutex does nothing. Callable
// from interrupt context.
func (k *Kernel) MutexUnlock(m *Mutex) {
	g := k.irq.Enter()
	defer g.Exit()

	if !m.locked {
		return
	}
	t := m.waiters.pop(k.threads)
	if t == nil {
		m.locked = false
		m.owner = PIDUndef
		return
	}
	m.owner = t.pid
	k.setStatus(t, StatusPending)
	k.Switch(t.priority)
}

// MutexUnlockAndSleep releases m and puts the running thread to sleep in one
// step, so a wakeup cannot slip in between.
func (k *Kernel) MutexUnlockAndSleep(m *Mutex) {
	k.assertBlockable()
	g := k.irq.Enter()
	if m.locked {
		if t := m.waiters.pop(k.threads); t != nil {
			m.owner = t.pid
			k.setStatus(t, StatusPending)
		} else {
			m.locked = false
			m.owner = PIDUndef
		}
	}
	k.setStatus(k.current, StatusSleeping)
	k.switchRequest = true
	g.Exit()
}

// MutexAbortWait takes pid off m's wait list and makes it runnable. Its
// MutexLockOnce then returns false. It reports whether pid was waiting.
// Callable from interrupt context.
func (k *Kernel) MutexAbortWait(m *Mutex, pid PID) bool {
	g := k.irq.Enter()
	defer g.Exit()

	t := k.Thread(pid)
	if t == nil || t.status != StatusMutexBlocked {
		return false
	}
	if !m.waiters.remove(k.threads, t) {
		return false
	}
	k.setStatus(t, StatusPending)
	k.Switch(t.priority)
	return true
}
