//go:build linux || darwin || freebsd

package board

import (
	"riotgo/config"
	"riotgo/hal/native"
	"riotgo/irq"
)

// NewNative builds a board on the host monotonic clock. The kernel idles
// by waiting for the next compare interrupt.
func NewNative(cfg *config.BoardConfig) (*Board, error) {
	ctrl := irq.New()
	hw := native.New(ctrl, TimerLine, cfg.Timer.Width)

	b, err := assemble(cfg, ctrl, hw)
	if err != nil {
		return nil, err
	}
	d := b.XTimer
	b.Kernel.SetIdleHandler(func() bool {
		if !d.HasPending() {
			return false
		}
		ctrl.Wait()
		return true
	})
	return b, nil
}
