package xtimer

import (
	"math"
	"math/bits"
)

const usecPerSec = 1000000

// TicksFromUsec converts microseconds to ticks, saturating on overflow.
func (d *Device) TicksFromUsec(us uint64) uint64 {
	return scale(us, uint64(d.cfg.Hz), usecPerSec)
}

// UsecFromTicks converts ticks to microseconds.
func (d *Device) UsecFromTicks(ticks uint64) uint64 {
	return scale(ticks, usecPerSec, uint64(d.cfg.Hz))
}

// scale returns v*mul/div without intermediate overflow.
func scale(v, mul, div uint64) uint64 {
	if mul == div {
		return v
	}
	hi, lo := bits.Mul64(v, mul)
	if hi >= div {
		return math.MaxUint64
	}
	q, _ := bits.Div64(hi, lo, div)
	return q
}
