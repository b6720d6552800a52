// Package trace is the kernel's debug output: a pluggable line writer and a
// fixed ring of timing events that is cheap enough to record from interrupt
// context.
package trace

// Writer is a function type for writing debug messages
type Writer func(string)

// Kind identifies a recorded event.
type Kind uint8

// Event kinds
const (
	EvtNone          Kind = iota
	EvtTimerSet           // Timer inserted (id=0, v1=target high, v2=target low)
	EvtTimerFire          // Timer fired from the ISR
	EvtTimerRemove        // Timer detached before firing
	EvtTimerSpin          // Short timeout handled by spinning
	EvtContextSwitch      // id=next pid, v1=previous pid
	EvtRRRotate           // id=priority rotated
	EvtMutexTimeout       // id=pid whose lock timed out
	EvtMutexCancel        // id=pid woken by cancellation
	EvtMsgDrop            // id=target pid, mailbox full
	EvtOverflow           // Hardware counter wrapped, v1=new high word
)

// Event captures a timing-critical event for post-mortem analysis
type Event struct {
	Kind  Kind
	ID    uint8  // Thread id, priority, ...
	Clock uint32 // Low word of logical time at the event
	V1    uint32 // Context-dependent value
	V2    uint32 // Context-dependent value
}

const (
	RingSize = 64 // Keep the last 64 events for post-mortem
)

var (
	// writer is the global debug print function (set by board or host code)
	writer Writer = func(s string) {}

	enabled bool

	ring     [RingSize]Event
	ringHead uint8
	ringOn   = true

	asyncChan chan string
)

// SetWriter sets the output function for debug lines.
func SetWriter(w Writer) {
	if w == nil {
		w = func(string) {}
	}
	writer = w
}

// SetEnabled enables or disables line output. The event ring is unaffected.
func SetEnabled(on bool) {
	enabled = on
}

// IsEnabled returns whether line output is enabled
func IsEnabled() bool {
	return enabled
}

// SetRecording turns the event ring on or off.
func SetRecording(on bool) {
	ringOn = on
}

// InitAsync starts the goroutine draining Async messages.
// Call this after SetWriter.
func InitAsync() {
	asyncChan = make(chan string, 16)
	go asyncWorker()
}

func asyncWorker() {
	for msg := range asyncChan {
		writer(msg)
	}
}

// Println writes a debug line when output is enabled.
func Println(msg string) {
	if enabled {
		writer(msg)
	}
}

// Async queues a debug line without blocking. It drops the line when the
// queue is full or InitAsync was never called.
func Async(msg string) {
	if !enabled || asyncChan == nil {
		return
	}
	select {
	case asyncChan <- msg:
	default:
	}
}

// Record captures an event in the ring buffer. Never blocks, never allocates.
func Record(kind Kind, id uint8, clock, v1, v2 uint32) {
	if !ringOn {
		return
	}
	idx := ringHead
	ring[idx] = Event{
		Kind:  kind,
		ID:    id,
		Clock: clock,
		V1:    v1,
		V2:    v2,
	}
	ringHead = (idx + 1) % RingSize
}

// Events returns the recorded events, oldest first.
func Events() []Event {
	out := make([]Event, 0, RingSize)
	start := ringHead
	for i := uint8(0); i < RingSize; i++ {
		evt := ring[(start+i)%RingSize]
		if evt.Kind == EvtNone {
			continue
		}
		out = append(out, evt)
	}
	return out
}

// Name returns the short name of a kind.
func (k Kind) Name() string {
	switch k {
	case EvtTimerSet:
		return "TIMER_SET"
	case EvtTimerFire:
		return "TIMER_FIRE"
	case EvtTimerRemove:
		return "TIMER_REMOVE"
	case EvtTimerSpin:
		return "TIMER_SPIN"
	case EvtContextSwitch:
		return "SWITCH"
	case EvtRRRotate:
		return "RR_ROTATE"
	case EvtMutexTimeout:
		return "MUTEX_TIMEOUT"
	case EvtMutexCancel:
		return "MUTEX_CANCEL"
	case EvtMsgDrop:
		return "MSG_DROP!"
	case EvtOverflow:
		return "OVERFLOW"
	default:
		return "UNKNOWN"
	}
}

// Format renders an event as a single line.
func (e Event) Format() string {
	return "[TRACE] " + e.Kind.Name() +
		" id=" + Itoa(int(e.ID)) +
		" clock=" + Utoa(e.Clock) +
		" v1=" + Utoa(e.V1) +
		" v2=" + Utoa(e.V2)
}

// Dump writes the ring, oldest first, through the writer. Output is written
// even when line output is disabled.
func Dump() {
	writer("[TRACE] === Trace Ring Dump ===")
	for _, evt := range Events() {
		writer(evt.Format())
	}
	writer("[TRACE] === End Dump ===")
}

// Clear empties the ring.
func Clear() {
	for i := range ring {
		ring[i] = Event{}
	}
	ringHead = 0
}
