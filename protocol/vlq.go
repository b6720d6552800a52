package protocol

import "errors"

var (
	ErrInvalidVLQ = errors.New("protocol: invalid VLQ encoding")
	ErrShortData  = errors.New("protocol: data ends inside a field")
)

// EncodeInt writes v as a VLQ: most significant group first, 7 bits per
// byte, bit 7 set on all but the last byte. Values in [-32, 96) take one
// byte.
func EncodeInt(out OutputBuffer, v int32) {
	var tmp [5]byte
	n := 0
	if !(-(1<<26) <= v && v < (3<<26)) {
		tmp[n] = byte((v>>28)&0x7F) | 0x80
		n++
	}
	if !(-(1<<19) <= v && v < (3<<19)) {
		tmp[n] = byte((v>>21)&0x7F) | 0x80
		n++
	}
	if !(-(1<<12) <= v && v < (3<<12)) {
		tmp[n] = byte((v>>14)&0x7F) | 0x80
		n++
	}
	if !(-(1<<5) <= v && v < (3<<5)) {
		tmp[n] = byte((v>>7)&0x7F) | 0x80
		n++
	}
	tmp[n] = byte(v & 0x7F)
	out.Output(tmp[:n+1])
}

// EncodeUint writes v as the VLQ of its two's complement value.
func EncodeUint(out OutputBuffer, v uint32) {
	EncodeInt(out, int32(v))
}

// DecodeInt reads one VLQ and advances data past it.
func DecodeInt(data *[]byte) (int32, error) {
	d := *data
	if len(d) == 0 {
		return 0, ErrShortData
	}
	c := uint32(d[0])
	d = d[1:]

	v := c & 0x7F
	if c&0x60 == 0x60 {
		v |= ^uint32(0x1F)
	}
	for i := 0; c&0x80 != 0; i++ {
		if i == 4 {
			return 0, ErrInvalidVLQ
		}
		if len(d) == 0 {
			return 0, ErrShortData
		}
		c = uint32(d[0])
		d = d[1:]
		v = v<<7 | c&0x7F
	}
	*data = d
	return int32(v), nil
}

// DecodeUint reads one VLQ as unsigned.
func DecodeUint(data *[]byte) (uint32, error) {
	v, err := DecodeInt(data)
	return uint32(v), err
}

// EncodeString writes a length-prefixed string.
func EncodeString(out OutputBuffer, s string) {
	EncodeUint(out, uint32(len(s)))
	out.Output([]byte(s))
}

// DecodeString reads a length-prefixed string.
func DecodeString(data *[]byte) (string, error) {
	n, err := DecodeUint(data)
	if err != nil {
		return "", err
	}
	if uint32(len(*data)) < n {
		return "", ErrShortData
	}
	s := string((*data)[:n])
	*data = (*data)[n:]
	return s, nil
}
