//go:build rp2040

// Package rp2040 implements the hardware timer contract on the RP2040 TIMER
// peripheral: a 1 MHz 64-bit counter whose low word is used as a 32-bit
// free-running counter, with ALARM0 as the compare channel.
package rp2040

import (
	"device/arm"
	"device/rp"
	"runtime/interrupt"
	"runtime/volatile"
	"unsafe"

	"riotgo/hal"
	"riotgo/irq"
)

// RP2040 TIMER peripheral memory map
const (
	timerBase     = 0x40054000
	timerALARM0   = timerBase + 0x10
	timerARMED    = timerBase + 0x20
	timerTIMERAWL = timerBase + 0x28
	timerPAUSE    = timerBase + 0x30
	timerINTR     = timerBase + 0x34
	timerINTE     = timerBase + 0x38

	// The counter ticks at 1 MHz from the watchdog tick generator.
	Freq = 1000000
)

var (
	regALARM0   = (*volatile.Register32)(unsafe.Pointer(uintptr(timerALARM0)))
	regARMED    = (*volatile.Register32)(unsafe.Pointer(uintptr(timerARMED)))
	regTIMERAWL = (*volatile.Register32)(unsafe.Pointer(uintptr(timerTIMERAWL)))
	regPAUSE    = (*volatile.Register32)(unsafe.Pointer(uintptr(timerPAUSE)))
	regINTR     = (*volatile.Register32)(unsafe.Pointer(uintptr(timerINTR)))
	regINTE     = (*volatile.Register32)(unsafe.Pointer(uintptr(timerINTE)))
)

// active is the instance the vector forwards to; the peripheral is a singleton.
var active *Timer

// Timer drives TIMER/ALARM0.
type Timer struct {
	ctrl *irq.Controller
	line int
}

// New returns the RP2040 timer raising line on ctrl.
func New(ctrl *irq.Controller, line int) *Timer {
	return &Timer{ctrl: ctrl, line: line}
}

// Init registers handler and enables the ALARM0 interrupt. Only 1 MHz is
// supported.
func (t *Timer) Init(freq uint32, handler func()) error {
	if freq != Freq {
		return hal.ErrInvalidFrequency
	}
	active = t
	t.ctrl.Register(t.line, handler)

	regINTE.SetBits(1)
	intr := interrupt.New(rp.IRQ_TIMER_IRQ_0, alarmVector)
	intr.Enable()
	return nil
}

func alarmVector(interrupt.Interrupt) {
	regINTR.Set(1)
	if active != nil {
		active.ctrl.Pend(active.line)
	}
}

// Width returns 32.
func (t *Timer) Width() uint {
	return 32
}

// SetAbsolute arms ALARM0. Writing the alarm register arms it.
func (t *Timer) SetAbsolute(ch int, target uint32) error {
	if ch != 0 {
		return hal.ErrInvalidChannel
	}
	regALARM0.Set(target)
	return nil
}

// Read returns the low word of the raw counter.
func (t *Timer) Read() uint32 {
	return regTIMERAWL.Get()
}

// Start clears the pause bit.
func (t *Timer) Start() {
	regPAUSE.Set(0)
}

// Stop pauses the counter and disarms ALARM0.
func (t *Timer) Stop() {
	regPAUSE.Set(1)
	regARMED.Set(1)
}

// WaitForInterrupt sleeps the core until the next interrupt and services it.
func (t *Timer) WaitForInterrupt() bool {
	if !t.ctrl.Pending() {
		arm.Asm("wfi")
	}
	t.ctrl.Poll()
	return true
}
