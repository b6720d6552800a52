package core

import "riotgo/trace"

// Msg is the fixed-size message passed between threads.
type Msg struct {
	Sender PID
	Type   uint16
	Value  uint32
	Ptr    any
}

// MsgInitQueue gives the running thread a mailbox backed by buf. The length
// of buf must be a power of two.
func (k *Kernel) MsgInitQueue(buf []Msg) {
	n := len(buf)
	if n == 0 || n&(n-1) != 0 {
		panic("core: mailbox size must be a power of two")
	}
	t := k.current
	if t == nil {
		panic("core: MsgInitQueue outside a thread")
	}
	g := k.irq.Enter()
	t.msgQueue = buf
	t.msgRead, t.msgWrite = 0, 0
	g.Exit()
}

func (t *Thread) queued() uint32 {
	return t.msgWrite - t.msgRead
}

func (t *Thread) queueFull() bool {
	return t.msgQueue == nil || t.queued() == uint32(len(t.msgQueue))
}

func (t *Thread) push(m Msg) {
	t.msgQueue[t.msgWrite&uint32(len(t.msgQueue)-1)] = m
	t.msgWrite++
}

func (t *Thread) pop() Msg {
	i := t.msgRead & uint32(len(t.msgQueue)-1)
	m := t.msgQueue[i]
	t.msgQueue[i] = Msg{}
	t.msgRead++
	return m
}

// deliver hands m to a receive-blocked target or queues it. It reports
// false when the target has no room. Interrupts must be masked.
func (k *Kernel) deliver(t *Thread, m Msg) bool {
	if t.status == StatusReceiveBlocked {
		*t.waitMsg = m
		t.waitMsg = nil
		k.setStatus(t, StatusPending)
		k.Switch(t.priority)
		return true
	}
	if t.queueFull() {
		return false
	}
	t.push(m)
	return true
}

// MsgSend sends m to pid, blocking while the target's mailbox is full.
// Sending to the running thread only queues and never blocks.
func (k *Kernel) MsgSend(m Msg, pid PID) error {
	if k.irq.InISR() {
		return k.MsgSendFromISR(m, pid)
	}
	g := k.irq.Enter()
	t := k.Thread(pid)
	if t == nil {
		g.Exit()
		return ErrNoSuchThread
	}
	cur := k.current
	m.Sender = k.ActivePID()
	if t == cur {
		ok := !t.queueFull()
		if ok {
			t.push(m)
		}
		g.Exit()
		if !ok {
			return ErrNotDelivered
		}
		return nil
	}
	if k.deliver(t, m) {
		g.Exit()
		return nil
	}
	g.Exit()

	k.assertBlockable()
	g = k.irq.Enter()
	if k.deliver(t, m) {
		g.Exit()
		return nil
	}
	cur.waitMsg = &m
	k.setStatus(cur, StatusSendBlocked)
	t.msgWaiters.add(k.threads, cur)
	k.switchRequest = true
	g.Exit()
	return nil
}

// MsgTrySend sends m to pid without blocking. It returns ErrNotDelivered if
// the target is neither waiting nor has room.
func (k *Kernel) MsgTrySend(m Msg, pid PID) error {
	if k.irq.InISR() {
		return k.MsgSendFromISR(m, pid)
	}
	g := k.irq.Enter()
	defer g.Exit()

	t := k.Thread(pid)
	if t == nil {
		return ErrNoSuchThread
	}
	m.Sender = k.ActivePID()
	if !k.deliver(t, m) {
		return ErrNotDelivered
	}
	return nil
}

// MsgSendFromISR sends m from interrupt context. Sender is set to PIDISR.
// A full mailbox drops the message and returns ErrNotDelivered.
func (k *Kernel) MsgSendFromISR(m Msg, pid PID) error {
	g := k.irq.Enter()
	defer g.Exit()

	t := k.Thread(pid)
	if t == nil {
		return ErrNoSuchThread
	}
	m.Sender = PIDISR
	if !k.deliver(t, m) {
		trace.Record(trace.EvtMsgDrop, uint8(pid), 0, uint32(m.Type), m.Value)
		return ErrNotDelivered
	}
	return nil
}

// MsgReceive blocks until a message for the running thread arrives.
func (k *Kernel) MsgReceive() Msg {
	m, _ := k.msgReceive(true)
	return m
}

// MsgTryReceive returns a queued or pending message, ErrNoMessage if there
// is none.
func (k *Kernel) MsgTryReceive() (Msg, error) {
	return k.msgReceive(false)
}

func (k *Kernel) msgReceive(block bool) (Msg, error) {
	if block {
		k.assertBlockable()
	}
	g := k.irq.Enter()
	cur := k.current
	if cur == nil {
		g.Exit()
		return Msg{}, ErrNoMessage
	}

	if cur.msgQueue != nil && cur.queued() > 0 {
		m := cur.pop()
		// A blocked sender now fits into the mailbox.
		if s := cur.msgWaiters.pop(k.threads); s != nil {
			cur.push(*s.waitMsg)
			s.waitMsg = nil
			k.setStatus(s, StatusPending)
			k.Switch(s.priority)
		}
		g.Exit()
		return m, nil
	}

	if s := cur.msgWaiters.pop(k.threads); s != nil {
		m := *s.waitMsg
		s.waitMsg = nil
		k.setStatus(s, StatusPending)
		k.Switch(s.priority)
		g.Exit()
		return m, nil
	}

	if !block {
		g.Exit()
		return Msg{}, ErrNoMessage
	}

	var m Msg
	cur.waitMsg = &m
	k.setStatus(cur, StatusReceiveBlocked)
	k.switchRequest = true
	g.Exit()
	return m, nil
}

// MsgAvail returns the number of messages queued for the running thread.
func (k *Kernel) MsgAvail() int {
	cur := k.current
	if cur == nil || cur.msgQueue == nil {
		return 0
	}
	return int(cur.queued())
}
