package trace

// Itoa converts an integer to a string without the fmt package, which keeps
// it usable from the firmware build.
func Itoa(n int) string {
	if n == 0 {
		return "0"
	}
	if n < 0 {
		return "-" + Utoa64(uint64(-int64(n)))
	}
	return Utoa64(uint64(n))
}

// Utoa converts an unsigned 32-bit integer to a string.
func Utoa(n uint32) string {
	return Utoa64(uint64(n))
}

// Utoa64 converts an unsigned 64-bit integer to a string.
func Utoa64(n uint64) string {
	if n == 0 {
		return "0"
	}

	var buf [20]byte
	pos := len(buf)
	for n > 0 {
		pos--
		buf[pos] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[pos:])
}
