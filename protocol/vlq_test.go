package protocol

import "testing"

func TestVLQRoundTripInt(t *testing.T) {
	values := []int32{0, 1, -1, 95, 96, -32, -33, 127, 128, -128, 1000, -1000,
		65535, -65535, 1 << 26, -(1 << 26), 1<<31 - 1, -1 << 31}

	for _, v := range values {
		out := NewScratchOutput()
		EncodeInt(out, v)
		data := out.Result()
		got, err := DecodeInt(&data)
		if err != nil {
			t.Errorf("DecodeInt(%d) failed: %v", v, err)
			continue
		}
		if got != v {
			t.Errorf("Expected %d, got %d", v, got)
		}
		if len(data) != 0 {
			t.Errorf("Value %d left %d bytes", v, len(data))
		}
	}
}

func TestVLQLengths(t *testing.T) {
	tests := []struct {
		v    int32
		size int
	}{
		{0, 1},
		{95, 1},
		{-32, 1},
		{96, 2},
		{-33, 2},
		{1 << 20, 3},
		{-1 << 31, 5},
	}
	for _, tt := range tests {
		out := NewScratchOutput()
		EncodeInt(out, tt.v)
		if n := len(out.Result()); n != tt.size {
			t.Errorf("EncodeInt(%d): expected %d bytes, got %d", tt.v, tt.size, n)
		}
	}
}

func TestVLQUint(t *testing.T) {
	for _, v := range []uint32{0, 200, 1 << 24, 0xFFFFFFFF, 0x80000000} {
		out := NewScratchOutput()
		EncodeUint(out, v)
		data := out.Result()
		got, err := DecodeUint(&data)
		if err != nil || got != v {
			t.Errorf("Expected %d, got %d (%v)", v, got, err)
		}
	}
}

func TestVLQErrors(t *testing.T) {
	empty := []byte{}
	if _, err := DecodeInt(&empty); err != ErrShortData {
		t.Errorf("Expected ErrShortData, got %v", err)
	}

	truncated := []byte{0x81}
	if _, err := DecodeInt(&truncated); err != ErrShortData {
		t.Errorf("Expected ErrShortData, got %v", err)
	}
	if len(truncated) != 1 {
		t.Error("Failed decode must not consume input")
	}

	tooLong := []byte{0x81, 0x81, 0x81, 0x81, 0x81, 0x01}
	if _, err := DecodeInt(&tooLong); err != ErrInvalidVLQ {
		t.Errorf("Expected ErrInvalidVLQ, got %v", err)
	}
}

func TestVLQString(t *testing.T) {
	out := NewScratchOutput()
	EncodeString(out, "riot")
	EncodeUint(out, 7)

	data := out.Result()
	s, err := DecodeString(&data)
	if err != nil || s != "riot" {
		t.Fatalf("Expected riot, got %q (%v)", s, err)
	}
	if v, _ := DecodeUint(&data); v != 7 {
		t.Errorf("Expected trailing 7, got %d", v)
	}

	short := []byte{5, 'a'}
	if _, err := DecodeString(&short); err != ErrShortData {
		t.Errorf("Expected ErrShortData, got %v", err)
	}
}
