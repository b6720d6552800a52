package board

import (
	"errors"
	"testing"

	"riotgo/config"
	"riotgo/core"
)

func simConfig(t *testing.T, json string) *config.BoardConfig {
	t.Helper()
	cfg, err := config.Load([]byte(json))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	return cfg
}

func TestNewSimDefaults(t *testing.T) {
	b, err := New(nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if b.Sim() == nil || b.RR == nil {
		t.Fatal("Expected a simulated timer with round robin")
	}
	if b.HW.Width() != 32 {
		t.Errorf("Expected a 32 bit timer, got %d", b.HW.Width())
	}
}

func TestStartCounter(t *testing.T) {
	b, err := New(simConfig(t, `{"timer": {"width": 16, "start_counter": 65500}}`))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if got := b.XTimer.Now(); got != 65500 {
		t.Errorf("Expected the clock to start at 65500, got %d", got)
	}
}

func TestUnknownBackend(t *testing.T) {
	cfg := config.Default()
	cfg.Backend = "fpga"
	if _, err := New(cfg); !errors.Is(err, config.ErrBackend) {
		t.Errorf("Expected ErrBackend, got %v", err)
	}
}

func TestRoundRobinSharesCPU(t *testing.T) {
	b, err := New(simConfig(t, `{"round_robin": {"quantum_usec": 1000}}`))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	var order []string
	worker := func(name string) func() {
		return func() {
			for i := 0; i < 3; i++ {
				b.Work(1000)
				order = append(order, name)
			}
		}
	}
	for _, name := range []string{"a", "b"} {
		if _, err := b.Spawn(name, core.PriorityMain, worker(name)); err != nil {
			t.Fatalf("Spawn failed: %v", err)
		}
	}
	if err := b.Run(); err != nil {
		t.Fatalf("Run returned %v", err)
	}

	if len(order) != 6 {
		t.Fatalf("Expected 6 work units, got %v", order)
	}
	switches := 0
	for i := 1; i < len(order); i++ {
		if order[i] != order[i-1] {
			switches++
		}
	}
	if switches < 2 {
		t.Errorf("Expected the workers to alternate, got %v", order)
	}
}

func TestRoundRobinDisabled(t *testing.T) {
	b, err := New(simConfig(t, `{"round_robin": {"disabled": true}}`))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if b.RR != nil {
		t.Fatal("Expected no round robin")
	}

	var order []string
	for _, name := range []string{"a", "b"} {
		name := name
		_, _ = b.Spawn(name, core.PriorityMain, func() {
			b.Work(5000)
			order = append(order, name)
			b.Work(5000)
			order = append(order, name)
		})
	}
	if err := b.Run(); err != nil {
		t.Fatalf("Run returned %v", err)
	}
	want := []string{"a", "a", "b", "b"}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("Expected %v without slicing, got %v", want, order)
		}
	}
}

func TestSleepOnBoard(t *testing.T) {
	b, err := New(nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	var woke uint64
	_, _ = b.Spawn("sleeper", core.PriorityMain, func() {
		b.XTimer.Msleep(5)
		woke = b.XTimer.NowUsec()
	})
	if err := b.Run(); err != nil {
		t.Fatalf("Run returned %v", err)
	}
	if woke < 5000 {
		t.Errorf("Woke at %dus, before 5ms", woke)
	}
}
