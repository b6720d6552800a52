package core

import "errors"

var errLocked = errors.New("core: mutex locked")

// RMutex is a recursive mutex: the owner may lock it again, and must unlock
// it as often as it locked it.
type RMutex struct {
	mutex    Mutex
	refcount uint16
	owner    PID
}

// Owner returns the holder, PIDUndef when free.
func (rm *RMutex) Owner() PID {
	return rm.owner
}

// Depth returns how many times the owner holds the lock.
func (rm *RMutex) Depth() uint16 {
	return rm.refcount
}

// RMutexLock blocks until the running thread holds rm.
func (k *Kernel) RMutexLock(rm *RMutex) {
	_ = k.RMutexLockWith(rm, func(m *Mutex) error {
		k.MutexLock(m)
		return nil
	})
}

// RMutexTryLock locks rm if it is free or already held by the running thread.
func (k *Kernel) RMutexTryLock(rm *RMutex) bool {
	return k.RMutexLockWith(rm, func(m *Mutex) error {
		if !k.MutexTryLock(m) {
			return errLocked
		}
		return nil
	}) == nil
}

// RMutexLockWith locks rm, using lock to take the underlying mutex when the
// running thread does not hold it yet. An error from lock is returned as is.
func (k *Kernel) RMutexLockWith(rm *RMutex, lock func(*Mutex) error) error {
	self := k.ActivePID()
	if rm.owner != self || rm.refcount == 0 {
		if err := lock(&rm.mutex); err != nil {
			return err
		}
		rm.owner = self
	}
	rm.refcount++
	return nil
}

// RMutexUnlock drops one level of rm. The last unlock releases it.
func (k *Kernel) RMutexUnlock(rm *RMutex) {
	if rm.refcount == 0 || rm.owner != k.ActivePID() {
		panic("core: rmutex unlocked by a thread that does not hold it")
	}
	rm.refcount--
	if rm.refcount == 0 {
		rm.owner = PIDUndef
		k.MutexUnlock(&rm.mutex)
	}
}
