package xtimer

import (
	"testing"

	"riotgo/core"
)

func TestMutexLockTimeoutFree(t *testing.T) {
	f := newFixture(t, 32, 0)
	var m core.Mutex

	f.spawn(t, "t", 5, func() {
		if err := f.d.MutexLockTimeout(&m, 1000); err != nil {
			t.Errorf("Expected free mutex to lock, got %v", err)
		}
		if f.d.HasPending() {
			t.Error("Lock of a free mutex must not arm a timer")
		}
		f.k.MutexUnlock(&m)
	})
	f.run(t)
}

func TestMutexLockTimeoutZeroDoesNotSwitch(t *testing.T) {
	f := newFixture(t, 32, 0)
	var m core.Mutex
	var err error
	var switches uint64

	f.spawn(t, "owner", 6, func() {
		f.k.MutexLock(&m)
		f.spawn(t, "contender", 5, func() {
			before := f.k.ContextSwitches()
			err = f.d.MutexLockTimeout(&m, 0)
			switches = f.k.ContextSwitches() - before
		})
		f.k.MutexUnlock(&m)
	})
	f.run(t)

	if err != ErrTimeout {
		t.Errorf("Expected ErrTimeout, got %v", err)
	}
	if switches != 0 {
		t.Errorf("Expected no context switch, got %d", switches)
	}
}

func TestMutexLockTimeoutReleasedInTime(t *testing.T) {
	f := newFixture(t, 32, 0)
	var m core.Mutex
	var err error
	var at uint64

	f.spawn(t, "owner", 6, func() {
		f.k.MutexLock(&m)
		f.spawn(t, "contender", 5, func() {
			err = f.d.MutexLockTimeout(&m, 1000)
			at = f.d.Now()
			if m.Owner() != f.k.ActivePID() {
				t.Error("Expected contender to own the mutex")
			}
			if f.d.HasPending() {
				t.Error("Timeout timer still pending after success")
			}
			f.k.MutexUnlock(&m)
		})
		f.hw.Advance(300)
		f.k.MutexUnlock(&m)
	})
	f.run(t)

	if err != nil {
		t.Errorf("Expected lock before the timeout, got %v", err)
	}
	if at != 300 {
		t.Errorf("Expected lock at 300, got %d", at)
	}
}

func TestMutexLockTimeoutExpires(t *testing.T) {
	f := newFixture(t, 32, 0)
	var m core.Mutex
	var err error
	var at uint64

	f.spawn(t, "owner", 6, func() {
		f.k.MutexLock(&m)
		f.spawn(t, "contender", 5, func() {
			err = f.d.MutexLockTimeout(&m, 1000)
			at = f.d.Now()
		})
		f.d.Sleep(2000)
		if m.Owner() != f.k.ActivePID() {
			t.Error("Owner lost the mutex to a timed out waiter")
		}
		f.k.MutexUnlock(&m)
	})
	f.run(t)

	if err != ErrTimeout {
		t.Errorf("Expected ErrTimeout, got %v", err)
	}
	if at < 1000 || at > 1000+DefaultOverhead {
		t.Errorf("Expected timeout at ~1000, got %d", at)
	}
	if m.Locked() {
		t.Error("Expected mutex free at the end")
	}
}

func TestMutexLockTimeoutShortSpins(t *testing.T) {
	f := newFixture(t, 32, 0)
	var m core.Mutex
	var err error
	var switches, spun uint64

	f.spawn(t, "owner", 6, func() {
		f.k.MutexLock(&m)
		f.spawn(t, "contender", 5, func() {
			before := f.k.ContextSwitches()
			start := f.d.Now()
			err = f.d.MutexLockTimeout(&m, 10)
			spun = f.d.Now() - start
			switches = f.k.ContextSwitches() - before
		})
		f.k.MutexUnlock(&m)
	})
	f.run(t)

	if err != ErrTimeout {
		t.Errorf("Expected ErrTimeout, got %v", err)
	}
	if spun != 10 {
		t.Errorf("Expected 10 ticks spun, got %d", spun)
	}
	if switches != 0 {
		t.Errorf("Expected no context switch, got %d", switches)
	}
}

func TestRMutexLockTimeout(t *testing.T) {
	f := newFixture(t, 32, 0)
	var rm core.RMutex
	var errZero, errLong error

	f.spawn(t, "owner", 6, func() {
		if err := f.d.RMutexLockTimeout(&rm, 0); err != nil {
			t.Errorf("Expected free rmutex to lock, got %v", err)
		}
		if err := f.d.RMutexLockTimeout(&rm, 0); err != nil {
			t.Errorf("Expected owner to relock, got %v", err)
		}
		f.spawn(t, "contender", 5, func() {
			errZero = f.d.RMutexLockTimeout(&rm, 0)
			errLong = f.d.RMutexLockTimeout(&rm, 5000)
			if errLong == nil {
				f.k.RMutexUnlock(&rm)
			}
		})
		if rm.Depth() != 2 {
			t.Errorf("Expected depth 2, got %d", rm.Depth())
		}
		f.k.RMutexUnlock(&rm)
		f.k.RMutexUnlock(&rm)
	})
	f.run(t)

	if errZero != ErrTimeout {
		t.Errorf("Expected ErrTimeout, got %v", errZero)
	}
	if errLong != nil {
		t.Errorf("Expected lock after release, got %v", errLong)
	}
}
