package console

import (
	"bytes"
	"testing"

	"riotgo/trace"
)

type memPort struct {
	bytes.Buffer
	flushed int
	closed  bool
}

func (m *memPort) Flush() error {
	m.flushed++
	return nil
}

func (m *memPort) Close() error {
	m.closed = true
	return nil
}

func TestSendTrace(t *testing.T) {
	trace.Clear()
	defer trace.Clear()
	trace.Record(trace.EvtTimerFire, 1, 100, 0, 100)
	trace.Record(trace.EvtContextSwitch, 2, 120, 1, 5)

	p := &memPort{}
	if err := SendTrace(p); err != nil {
		t.Fatalf("SendTrace failed: %v", err)
	}
	if p.flushed != 1 {
		t.Errorf("Expected one flush, got %d", p.flushed)
	}

	events, err := trace.Decode(&p.Buffer)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if len(events) != 2 || events[1].Kind != trace.EvtContextSwitch {
		t.Errorf("Unexpected events %+v", events)
	}
}

func TestWriter(t *testing.T) {
	p := &memPort{}
	w := Writer(p)
	w("hello")
	w("world")
	if got := p.String(); got != "hello\nworld\n" {
		t.Errorf("Unexpected output %q", got)
	}
}

func TestOpenNilConfig(t *testing.T) {
	if _, err := Open(nil); err != ErrNoConfig {
		t.Errorf("Expected ErrNoConfig, got %v", err)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig("/dev/ttyUSB0")
	if cfg.Device != "/dev/ttyUSB0" || cfg.Baud != DefaultBaud {
		t.Errorf("Unexpected config %+v", cfg)
	}
}
