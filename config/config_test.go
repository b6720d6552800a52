package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"riotgo/xtimer"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load([]byte(`{}`))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Backend != BackendSim || cfg.Timer.Width != 32 || cfg.Timer.Hz != xtimer.DefaultHz {
		t.Errorf("Unexpected defaults %+v", cfg)
	}
	if got := cfg.XTimer(); got != xtimer.DefaultConfig() {
		t.Errorf("Expected default xtimer config, got %+v", got)
	}
	if cfg.RoundRobin.QuantumUsec == 0 {
		t.Error("Expected a default quantum")
	}
}

func TestLoadOverrides(t *testing.T) {
	cfg, err := Load([]byte(`{
		"name": "wrap16",
		"max_threads": 4,
		"timer": {"width": 16, "hz": 32768, "backoff": 10, "start_counter": 65000},
		"round_robin": {"quantum_usec": 2000, "mask": [0, 15]}
	}`))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Timer.Width != 16 || cfg.Timer.StartCounter != 65000 {
		t.Errorf("Timer overrides lost: %+v", cfg.Timer)
	}
	if cfg.Timer.PeriodicSpin != 20 {
		t.Errorf("Expected periodic spin derived from backoff, got %d", cfg.Timer.PeriodicSpin)
	}
	if cfg.Kernel().MaxThreads != 4 {
		t.Errorf("Expected 4 threads, got %d", cfg.Kernel().MaxThreads)
	}
	rr := cfg.SchedRR()
	if rr.Mask != 1|1<<15 || rr.QuantumUsec != 2000 {
		t.Errorf("Unexpected round robin config %+v", rr)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		json string
		want error
	}{
		{"narrow", `{"timer": {"width": 4}}`, ErrWidth},
		{"wide", `{"timer": {"width": 40}}`, ErrWidth},
		{"overhead", `{"timer": {"overhead": 50, "isr_backoff": 10}}`, ErrOverhead},
		{"backend", `{"backend": "fpga"}`, ErrBackend},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load([]byte(tt.json))
			if !errors.Is(err, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, err)
			}
		})
	}

	if _, err := Load([]byte(`{"round_robin": {"mask": [16]}}`)); err == nil {
		t.Error("Expected an out of range mask priority to fail")
	}
	if _, err := Load([]byte(`{`)); err == nil {
		t.Error("Expected malformed JSON to fail")
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "board.json")
	if err := os.WriteFile(path, []byte(`{"backend": "native"}`), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if cfg.Backend != BackendNative {
		t.Errorf("Expected native backend, got %s", cfg.Backend)
	}

	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("Expected an error for a missing file")
	}
}

func TestDefault(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Errorf("Default config invalid: %v", err)
	}
}
