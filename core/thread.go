package core

// PID identifies a thread. It is the thread's slot in the thread table.
type PID int16

const (
	PIDUndef PID = 0  // No thread
	PIDFirst PID = 1  // First valid PID
	PIDISR   PID = -1 // Sender of messages posted from interrupt context
)

// Scheduler priorities. A smaller number runs first.
const (
	NumPriorities = 16
	PriorityIdle  = NumPriorities - 1
	PriorityMin   = NumPriorities - 1
	PriorityMain  = NumPriorities/2 - 1
)

// Status is a thread's scheduling state.
type Status uint8

const (
	StatusStopped Status = iota
	StatusSleeping
	StatusMutexBlocked
	StatusReceiveBlocked
	StatusSendBlocked
	StatusRunning // first status that sits on a run queue
	StatusPending
)

// OnRunqueue reports whether a thread in this state is linked in a run queue.
func (s Status) OnRunqueue() bool {
	return s >= StatusRunning
}

func (s Status) String() string {
	switch s {
	case StatusStopped:
		return "stopped"
	case StatusSleeping:
		return "sleeping"
	case StatusMutexBlocked:
		return "bl mutex"
	case StatusReceiveBlocked:
		return "bl rx"
	case StatusSendBlocked:
		return "bl send"
	case StatusRunning:
		return "running"
	case StatusPending:
		return "pending"
	default:
		return "unknown"
	}
}

// CreateFlags modify CreateThread.
type CreateFlags uint8

const (
	// CreateSleeping leaves the new thread sleeping until ThreadWakeup.
	CreateSleeping CreateFlags = 1 << iota
	// CreateWithoutYield does not reschedule even if the new thread has a
	// higher priority than the creator.
	CreateWithoutYield
)

// Thread is a thread control block. It is owned by the kernel from
// CreateThread until the thread function returns.
type Thread struct {
	pid      PID
	name     string
	priority uint8
	status   Status
	fn       func()

	// next links the thread in exactly one run queue or wait list.
	next PID

	// Mailbox. msgQueue is nil until MsgInitQueue.
	msgQueue   []Msg
	msgRead    uint32
	msgWrite   uint32
	msgWaiters waitList
	waitMsg    *Msg

	resume  chan struct{}
	started bool
}

// PID returns the thread id.
func (t *Thread) PID() PID { return t.pid }

// Name returns the name given at creation.
func (t *Thread) Name() string { return t.name }

// Priority returns the scheduling priority.
func (t *Thread) Priority() uint8 { return t.priority }

// Status returns the scheduling state.
func (t *Thread) Status() Status { return t.status }
