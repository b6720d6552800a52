package core

import (
	"reflect"
	"testing"
)

func TestMutexHandoff(t *testing.T) {
	k := newKernel()
	var m Mutex
	var order []string

	mustCreate(t, k, "low", 10, 0, func() {
		k.MutexLock(&m)
		order = append(order, "low locked")
		mustCreate(t, k, "high", 5, 0, func() {
			order = append(order, "high waits")
			k.MutexLock(&m)
			order = append(order, "high locked")
			k.MutexUnlock(&m)
		})
		order = append(order, "low unlocks")
		k.MutexUnlock(&m)
		order = append(order, "low done")
	})
	if err := k.Run(); err != nil {
		t.Fatalf("Run returned %v", err)
	}
	want := []string{"low locked", "high waits", "low unlocks", "high locked", "low done"}
	if !reflect.DeepEqual(order, want) {
		t.Errorf("Expected %v, got %v", want, order)
	}
	if m.Locked() {
		t.Error("Expected mutex to be free at the end")
	}
}

func TestMutexWaitersByPriority(t *testing.T) {
	k := newKernel()
	var m Mutex
	var order []string

	waiter := func(name string) func() {
		return func() {
			k.MutexLock(&m)
			order = append(order, name)
			k.MutexUnlock(&m)
		}
	}
	mustCreate(t, k, "owner", 3, 0, func() {
		k.MutexLock(&m)
		// Created without yield: they queue on the mutex once owner blocks.
		mustCreate(t, k, "w8a", 8, CreateWithoutYield, waiter("w8a"))
		mustCreate(t, k, "w6", 6, CreateWithoutYield, waiter("w6"))
		mustCreate(t, k, "w8b", 8, CreateWithoutYield, waiter("w8b"))
		k.ThreadSleep()
	})
	mustCreate(t, k, "releaser", 9, 0, func() {
		k.MutexUnlock(&m)
	})

	// owner sleeps forever once the waiters are done
	if err := k.Run(); err != ErrDeadlock {
		t.Fatalf("Expected ErrDeadlock, got %v", err)
	}
	want := []string{"w6", "w8a", "w8b"}
	if !reflect.DeepEqual(order, want) {
		t.Errorf("Expected %v, got %v", want, order)
	}
}

func TestMutexTryLockAndUnlockFree(t *testing.T) {
	k := newKernel()
	var m Mutex

	mustCreate(t, k, "t", 5, 0, func() {
		k.MutexUnlock(&m) // no-op on a free mutex
		if !k.MutexTryLock(&m) {
			t.Error("Expected TryLock on a free mutex to succeed")
		}
		if k.MutexTryLock(&m) {
			t.Error("Expected TryLock on a held mutex to fail")
		}
		if m.Owner() != k.ActivePID() {
			t.Errorf("Expected owner %d, got %d", k.ActivePID(), m.Owner())
		}
		k.MutexUnlock(&m)
	})
	if err := k.Run(); err != nil {
		t.Fatalf("Run returned %v", err)
	}
}

func TestMutexAbortWait(t *testing.T) {
	k := newKernel()
	var m Mutex
	var got bool
	var waiter PID

	mustCreate(t, k, "owner", 10, 0, func() {
		k.MutexLock(&m)
		waiter = mustCreate(t, k, "waiter", 5, 0, func() {
			got = k.MutexLockOnce(&m)
		})
		if !k.MutexAbortWait(&m, waiter) {
			t.Error("Expected waiter to be on the wait list")
		}
		if k.MutexAbortWait(&m, waiter) {
			t.Error("Expected second abort to find nothing")
		}
		k.MutexUnlock(&m)
	})
	if err := k.Run(); err != nil {
		t.Fatalf("Run returned %v", err)
	}
	if got {
		t.Error("Expected aborted wait to report no ownership")
	}
}

func TestMutexUnlockAndSleep(t *testing.T) {
	k := newKernel()
	var m Mutex
	var order []string
	var sleeper PID

	sleeper = mustCreate(t, k, "sleeper", 5, 0, func() {
		k.MutexLock(&m)
		order = append(order, "sleeping")
		k.MutexUnlockAndSleep(&m)
		order = append(order, "woken")
	})
	mustCreate(t, k, "waker", 6, 0, func() {
		k.MutexLock(&m)
		order = append(order, "waker locked")
		k.MutexUnlock(&m)
		if err := k.ThreadWakeup(sleeper); err != nil {
			t.Errorf("ThreadWakeup failed: %v", err)
		}
	})
	if err := k.Run(); err != nil {
		t.Fatalf("Run returned %v", err)
	}
	want := []string{"sleeping", "waker locked", "woken"}
	if !reflect.DeepEqual(order, want) {
		t.Errorf("Expected %v, got %v", want, order)
	}
}

func TestRMutexRecursion(t *testing.T) {
	k := newKernel()
	var rm RMutex

	mustCreate(t, k, "t", 5, 0, func() {
		k.RMutexLock(&rm)
		if !k.RMutexTryLock(&rm) {
			t.Error("Expected owner to relock")
		}
		if rm.Depth() != 2 {
			t.Errorf("Expected depth 2, got %d", rm.Depth())
		}
		k.RMutexUnlock(&rm)
		if rm.Owner() != k.ActivePID() {
			t.Error("Expected rmutex still held after one unlock")
		}
		k.RMutexUnlock(&rm)
		if rm.Owner() != PIDUndef || rm.mutex.Locked() {
			t.Error("Expected rmutex released")
		}
	})
	if err := k.Run(); err != nil {
		t.Fatalf("Run returned %v", err)
	}
}

func TestRMutexContended(t *testing.T) {
	k := newKernel()
	var rm RMutex
	var order []string

	mustCreate(t, k, "a", 10, 0, func() {
		k.RMutexLock(&rm)
		k.RMutexLock(&rm)
		mustCreate(t, k, "b", 5, 0, func() {
			if k.RMutexTryLock(&rm) {
				t.Error("Expected TryLock by another thread to fail")
			}
			k.RMutexLock(&rm)
			order = append(order, "b")
			k.RMutexUnlock(&rm)
		})
		order = append(order, "a")
		k.RMutexUnlock(&rm)
		order = append(order, "a still holds")
		k.RMutexUnlock(&rm)
	})
	if err := k.Run(); err != nil {
		t.Fatalf("Run returned %v", err)
	}
	want := []string{"a", "a still holds", "b"}
	if !reflect.DeepEqual(order, want) {
		t.Errorf("Expected %v, got %v", want, order)
	}
}

func TestMutexCancelBeforeLock(t *testing.T) {
	k := newKernel()
	var m Mutex

	mustCreate(t, k, "t", 5, 0, func() {
		mc := k.MutexCancelInit(&m)
		k.MutexCancel(&mc)
		if err := k.MutexLockCancelable(&mc); err != ErrCanceled {
			t.Errorf("Expected ErrCanceled, got %v", err)
		}
		if m.Locked() {
			t.Error("Expected mutex to stay free")
		}
	})
	if err := k.Run(); err != nil {
		t.Fatalf("Run returned %v", err)
	}
}

func TestMutexCancelWhileBlocked(t *testing.T) {
	k := newKernel()
	var m Mutex
	var mc MutexCancel
	var result error
	switchesBefore := uint64(0)

	mustCreate(t, k, "owner", 10, 0, func() {
		k.MutexLock(&m)
		mustCreate(t, k, "waiter", 5, 0, func() {
			mc = k.MutexCancelInit(&m)
			result = k.MutexLockCancelable(&mc)
		})
		switchesBefore = k.ContextSwitches()
		k.MutexCancel(&mc)
		if k.ContextSwitches() == switchesBefore {
			t.Error("Expected cancel to wake the waiter")
		}
		if m.Owner() != k.ActivePID() {
			t.Error("Expected owner to keep the mutex")
		}
		k.MutexUnlock(&m)
	})
	if err := k.Run(); err != nil {
		t.Fatalf("Run returned %v", err)
	}
	if result != ErrCanceled {
		t.Errorf("Expected ErrCanceled, got %v", result)
	}
}

func TestMutexCancelAfterHandoff(t *testing.T) {
	k := newKernel()
	var m Mutex
	var mc MutexCancel
	var result error
	var waiter PID

	mustCreate(t, k, "owner", 10, 0, func() {
		k.MutexLock(&m)
		waiter = mustCreate(t, k, "waiter", 5, 0, func() {
			mc = k.MutexCancelInit(&m)
			result = k.MutexLockCancelable(&mc)
			// let the owner cancel while we hold the mutex
			k.ThreadSleep()
			k.MutexUnlock(&m)

			// the token is reusable
			if err := k.MutexLockCancelable(&mc); err != nil {
				t.Errorf("Expected reuse to lock, got %v", err)
			}
			k.MutexUnlock(&m)
		})
		k.MutexUnlock(&m)
		k.MutexCancel(&mc)
		if mc.Cancelled() {
			t.Error("Expected cancel after acquisition to be a no-op")
		}
		if err := k.ThreadWakeup(waiter); err != nil {
			t.Errorf("ThreadWakeup failed: %v", err)
		}
	})
	if err := k.Run(); err != nil {
		t.Fatalf("Run returned %v", err)
	}
	if result != nil {
		t.Errorf("Expected lock to succeed, got %v", result)
	}
}
