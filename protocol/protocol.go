// Package protocol frames the kernel trace stream for a serial link.
//
// A frame is [len][seq][payload...][crc hi][crc lo][0x7E]. len counts the
// whole frame, seq carries FrameDest in the high nibble and a rolling
// sequence number in the low nibble, and the CRC covers len, seq and the
// payload. Payload fields are VLQ encoded.
package protocol

// Version of the trace wire format.
const Version = "1"

// Frame layout
const (
	FrameHeader  = 2 // len, seq
	FrameTrailer = 3 // crc hi, crc lo, sync
	FrameMin     = FrameHeader + FrameTrailer
	FrameMax     = 64

	FramePosLen = 0
	FramePosSeq = 1

	FrameSync = 0x7E
	FrameDest = 0x10

	FrameSeqMask = 0x0F
)

// Frame is one decoded message block.
type Frame struct {
	Sequence uint8
	Payload  []byte
}
