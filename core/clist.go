package core

// The run queues and wait lists are intrusive lists threaded through
// Thread.next, addressed by PID rather than by pointer.

// clist is a circular singly linked list. tail.next is the head, so push to
// tail, pop from head and rotate are all O(1).
type clist struct {
	tail PID
}

func (l *clist) empty() bool {
	return l.tail == PIDUndef
}

// lpeek returns the head, PIDUndef when empty.
func (l *clist) lpeek(tab []*Thread) PID {
	if l.tail == PIDUndef {
		return PIDUndef
	}
	return tab[l.tail].next
}

// rpush appends pid.
func (l *clist) rpush(tab []*Thread, pid PID) {
	t := tab[pid]
	if l.tail == PIDUndef {
		t.next = pid
	} else {
		tail := tab[l.tail]
		t.next = tail.next
		tail.next = pid
	}
	l.tail = pid
}

// lpop removes and returns the head.
func (l *clist) lpop(tab []*Thread) PID {
	if l.tail == PIDUndef {
		return PIDUndef
	}
	tail := tab[l.tail]
	head := tail.next
	if head == l.tail {
		l.tail = PIDUndef
	} else {
		tail.next = tab[head].next
	}
	tab[head].next = PIDUndef
	return head
}

// lpoprpush moves the head to the tail.
func (l *clist) lpoprpush(tab []*Thread) {
	if l.tail != PIDUndef {
		l.tail = tab[l.tail].next
	}
}

// remove unlinks pid wherever it is. It reports whether pid was a member.
func (l *clist) remove(tab []*Thread, pid PID) bool {
	if l.tail == PIDUndef {
		return false
	}
	prev := l.tail
	for {
		cur := tab[prev].next
		if cur == pid {
			if cur == prev {
				l.tail = PIDUndef
			} else {
				tab[prev].next = tab[cur].next
				if l.tail == cur {
					l.tail = prev
				}
			}
			tab[cur].next = PIDUndef
			return true
		}
		prev = cur
		if prev == l.tail {
			return false
		}
	}
}

// moreThanOne reports whether the list holds at least two members: the head
// is not the tail.
func (l *clist) moreThanOne(tab []*Thread) bool {
	return l.tail != PIDUndef && tab[l.tail].next != l.tail
}

// count walks the list. O(n), for diagnostics and tests.
func (l *clist) count(tab []*Thread) int {
	if l.tail == PIDUndef {
		return 0
	}
	n := 1
	for p := tab[l.tail].next; p != l.tail; p = tab[p].next {
		n++
	}
	return n
}

// waitList is a NULL-terminated list sorted by priority, FIFO among equal
// priorities. Mutex and message waiters queue here.
type waitList struct {
	head PID
}

func (l *waitList) empty() bool {
	return l.head == PIDUndef
}

// add inserts t behind every waiter of the same or higher priority.
func (l *waitList) add(tab []*Thread, t *Thread) {
	pos := &l.head
	for *pos != PIDUndef && tab[*pos].priority <= t.priority {
		pos = &tab[*pos].next
	}
	t.next = *pos
	*pos = t.pid
}

// pop removes the first waiter, nil when empty.
func (l *waitList) pop(tab []*Thread) *Thread {
	if l.head == PIDUndef {
		return nil
	}
	t := tab[l.head]
	l.head = t.next
	t.next = PIDUndef
	return t
}

// remove unlinks t. It reports whether t was waiting here.
func (l *waitList) remove(tab []*Thread, t *Thread) bool {
	for pos := &l.head; *pos != PIDUndef; pos = &tab[*pos].next {
		if *pos == t.pid {
			*pos = t.next
			t.next = PIDUndef
			return true
		}
	}
	return false
}
