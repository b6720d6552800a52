package xtimer

import (
	"riotgo/core"
	"riotgo/trace"
)

// MutexLockTimeout locks m, giving up after timeout ticks with ErrTimeout.
// A zero timeout only tries the lock.
func (d *Device) MutexLockTimeout(m *core.Mutex, timeout uint64) error {
	k := d.k
	if k.MutexTryLock(m) {
		return nil
	}
	if timeout == 0 {
		return ErrTimeout
	}

	pid := k.ActivePID()
	timedOut := false
	t := Timer{Action: Func(func() {
		timedOut = true
		k.MutexAbortWait(m, pid)
	})}
	d.Set(&t, timeout)

	for {
		if k.MutexTryLock(m) {
			break
		}
		if timedOut {
			trace.Record(trace.EvtMutexTimeout, uint8(pid), d.Now32(), uint32(timeout), 0)
			return ErrTimeout
		}
		if k.MutexLockOnce(m) {
			break
		}
	}
	d.Remove(&t)
	return nil
}

// RMutexLockTimeout locks rm, giving up after timeout ticks with ErrTimeout.
func (d *Device) RMutexLockTimeout(rm *core.RMutex, timeout uint64) error {
	return d.k.RMutexLockWith(rm, func(m *core.Mutex) error {
		return d.MutexLockTimeout(m, timeout)
	})
}
