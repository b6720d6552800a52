package xtimer

import "riotgo/core"

// Sleep suspends the running thread for ticks. Short sleeps are spun.
func (d *Device) Sleep(ticks uint64) {
	if ticks < uint64(d.cfg.Backoff) {
		d.Spin(uint32(ticks))
		return
	}
	d.sleepOn(func(t *Timer) { d.Set(t, ticks) })
}

// SleepUntil suspends the running thread until the logical time target.
func (d *Device) SleepUntil(target uint64) {
	now := d.Now()
	if target <= now {
		return
	}
	if target-now < uint64(d.cfg.Backoff) {
		d.Spin(uint32(target - now))
		return
	}
	d.sleepOn(func(t *Timer) { d.SetAbsolute(t, target) })
}

// Usleep sleeps for us microseconds.
func (d *Device) Usleep(us uint64) {
	d.Sleep(d.TicksFromUsec(us))
}

// Msleep sleeps for ms milliseconds.
func (d *Device) Msleep(ms uint64) {
	d.Usleep(ms * 1000)
}

// sleepOn blocks on a mutex that the timer armed by set unlocks. The first
// lock never blocks; the second one blocks until the timer fires.
func (d *Device) sleepOn(set func(*Timer)) {
	var m core.Mutex
	d.k.MutexLock(&m)
	t := Timer{Action: Func(func() { d.k.MutexUnlock(&m) })}
	set(&t)
	d.k.MutexLock(&m)
	d.Remove(&t)
}

// PeriodicWakeup sleeps until *last + period and stores that time in *last,
// giving a fixed cadence regardless of how long the caller worked in
// between. If the deadline already passed it returns at once.
func (d *Device) PeriodicWakeup(last *uint64, period uint64) {
	target := satAdd(*last, period)
	now := d.Now()

	if target > now {
		offset := target - now
		switch {
		case offset < uint64(d.cfg.PeriodicSpin):
			d.Spin(uint32(offset))
		case offset < uint64(d.cfg.PeriodicRelative):
			// re-base: the time spent getting here is already accounted
			now = d.Now()
			if target > now {
				rel := target - now
				d.sleepOn(func(t *Timer) { d.Set(t, rel) })
			}
		default:
			d.sleepOn(func(t *Timer) { d.SetAbsolute(t, target) })
		}
	}
	*last = target
}

// PeriodicMsg arms t to post msg to pid at *last + period and advances
// *last. A deadline in the past fires immediately.
func (d *Device) PeriodicMsg(t *Timer, last *uint64, period uint64, msg core.Msg, pid core.PID) {
	target := satAdd(*last, period)
	t.Action = Message{To: pid, Msg: msg}
	d.SetAbsolute(t, target)
	*last = target
}

// SetWakeup arms t to wake pid after offset ticks.
func (d *Device) SetWakeup(t *Timer, offset uint64, pid core.PID) {
	t.Action = Wakeup(pid)
	d.Set(t, offset)
}

// SetMsg arms t to post msg to pid after offset ticks.
func (d *Device) SetMsg(t *Timer, offset uint64, msg core.Msg, pid core.PID) {
	t.Action = Message{To: pid, Msg: msg}
	d.Set(t, offset)
}
