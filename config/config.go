// Package config loads a board description: which timer backend to use and
// how the timer subsystem and the scheduler are tuned.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"riotgo/core"
	"riotgo/schedrr"
	"riotgo/xtimer"
)

// Backends
const (
	BackendSim    = "sim"
	BackendNative = "native"
)

var (
	ErrWidth     = errors.New("config: timer width must be 8..32 bits")
	ErrFrequency = errors.New("config: timer frequency must be non-zero")
	ErrBackend   = errors.New("config: unknown backend")
	ErrOverhead  = errors.New("config: overhead must not exceed isr_backoff")
)

// TimerConfig describes the hardware timer and the xtimer tuning.
type TimerConfig struct {
	Width            uint   `json:"width"`
	Hz               uint32 `json:"hz"`
	Backoff          uint32 `json:"backoff"`
	Overhead         uint32 `json:"overhead"`
	ISRBackoff       uint32 `json:"isr_backoff"`
	PeriodicSpin     uint32 `json:"periodic_spin"`
	PeriodicRelative uint32 `json:"periodic_relative"`

	// StartCounter presets a simulated counter, e.g. just below a wrap.
	StartCounter uint32 `json:"start_counter"`
}

// RoundRobinConfig tunes time slicing.
type RoundRobinConfig struct {
	Disabled    bool    `json:"disabled"`
	QuantumUsec uint32  `json:"quantum_usec"`
	Mask        []uint8 `json:"mask"` // priorities never rotated
}

// BoardConfig is the whole board description.
type BoardConfig struct {
	Name       string           `json:"name"`
	Backend    string           `json:"backend"`
	MaxThreads int              `json:"max_threads"`
	Timer      TimerConfig      `json:"timer"`
	RoundRobin RoundRobinConfig `json:"round_robin"`
	Trace      bool             `json:"trace"`
}

// Load parses a JSON board description and fills in defaults.
func Load(data []byte) (*BoardConfig, error) {
	var cfg BoardConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	applyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadFile reads and parses path.
func LoadFile(path string) (*BoardConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return Load(data)
}

// applyDefaults fills in missing values.
func applyDefaults(cfg *BoardConfig) {
	if cfg.Name == "" {
		cfg.Name = "sim"
	}
	if cfg.Backend == "" {
		cfg.Backend = BackendSim
	}
	if cfg.MaxThreads == 0 {
		cfg.MaxThreads = core.DefaultMaxThreads
	}

	t := &cfg.Timer
	if t.Width == 0 {
		t.Width = 32
	}
	if t.Hz == 0 {
		t.Hz = xtimer.DefaultHz
	}
	if t.Backoff == 0 {
		t.Backoff = xtimer.DefaultBackoff
	}
	if t.Overhead == 0 {
		t.Overhead = xtimer.DefaultOverhead
	}
	if t.ISRBackoff == 0 {
		t.ISRBackoff = xtimer.DefaultISRBackoff
	}
	if t.PeriodicSpin == 0 {
		t.PeriodicSpin = t.Backoff * 2
	}
	if t.PeriodicRelative == 0 {
		t.PeriodicRelative = xtimer.DefaultPeriodicRelative
	}

	if cfg.RoundRobin.QuantumUsec == 0 {
		cfg.RoundRobin.QuantumUsec = schedrr.DefaultQuantumUsec
	}
}

// Validate reports the first inconsistency in cfg.
func (cfg *BoardConfig) Validate() error {
	if cfg.Timer.Width < 8 || cfg.Timer.Width > 32 {
		return ErrWidth
	}
	if cfg.Timer.Hz == 0 {
		return ErrFrequency
	}
	if cfg.Timer.Overhead > cfg.Timer.ISRBackoff {
		return ErrOverhead
	}
	switch cfg.Backend {
	case BackendSim, BackendNative:
	default:
		return fmt.Errorf("%w %q", ErrBackend, cfg.Backend)
	}
	for _, p := range cfg.RoundRobin.Mask {
		if p >= core.NumPriorities {
			return fmt.Errorf("config: round robin mask priority %d out of range", p)
		}
	}
	return nil
}

// Default returns the simulated board configuration.
func Default() *BoardConfig {
	cfg := &BoardConfig{}
	applyDefaults(cfg)
	return cfg
}

// Kernel converts to the kernel configuration.
func (cfg *BoardConfig) Kernel() core.Config {
	return core.Config{MaxThreads: cfg.MaxThreads}
}

// XTimer converts to the timer subsystem configuration.
func (cfg *BoardConfig) XTimer() xtimer.Config {
	t := cfg.Timer
	return xtimer.Config{
		Hz:               t.Hz,
		Backoff:          t.Backoff,
		Overhead:         t.Overhead,
		ISRBackoff:       t.ISRBackoff,
		PeriodicSpin:     t.PeriodicSpin,
		PeriodicRelative: t.PeriodicRelative,
	}
}

// SchedRR converts to the round robin configuration.
func (cfg *BoardConfig) SchedRR() schedrr.Config {
	var mask uint32
	for _, p := range cfg.RoundRobin.Mask {
		mask |= 1 << p
	}
	return schedrr.Config{QuantumUsec: cfg.RoundRobin.QuantumUsec, Mask: mask}
}
