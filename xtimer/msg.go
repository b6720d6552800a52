package xtimer

import "riotgo/core"

// MsgTypeTimeout is the message type posted by MsgReceiveTimeout's timer.
const MsgTypeTimeout = 12345

// MsgReceiveTimeout waits up to timeout ticks for a message. It returns
// ErrTimeout if none arrived in time.
func (d *Device) MsgReceiveTimeout(timeout uint64) (core.Msg, error) {
	k := d.k
	if timeout < uint64(d.cfg.Backoff) {
		d.Spin(uint32(timeout))
		for {
			m, err := k.MsgTryReceive()
			if err != nil {
				return core.Msg{}, ErrTimeout
			}
			if !isTimeoutMsg(m) {
				return m, nil
			}
		}
	}

	var t Timer
	d.SetMsg(&t, timeout, core.Msg{Type: MsgTypeTimeout, Ptr: &t}, k.ActivePID())
	for {
		m := k.MsgReceive()
		if isTimeoutMsg(m) {
			if m.Ptr.(*Timer) == &t {
				return core.Msg{}, ErrTimeout
			}
			// left over from an earlier call whose timer fired late
			continue
		}
		d.Remove(&t)
		return m, nil
	}
}

func isTimeoutMsg(m core.Msg) bool {
	if m.Type != MsgTypeTimeout || m.Sender != core.PIDISR {
		return false
	}
	_, ok := m.Ptr.(*Timer)
	return ok
}
