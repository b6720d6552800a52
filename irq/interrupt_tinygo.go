//go:build tinygo

package irq

import "runtime/interrupt"

var hwState interrupt.State

// hwDisable masks interrupts on the real CPU as well.
func hwDisable() {
	hwState = interrupt.Disable()
}

// hwEnable restores the real CPU interrupt state.
func hwEnable() {
	interrupt.Restore(hwState)
}
