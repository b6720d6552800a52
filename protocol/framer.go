package protocol

// Encoder writes frames with a rolling sequence number.
type Encoder struct {
	out OutputBuffer
	seq uint8
}

// NewEncoder returns an encoder writing into out.
func NewEncoder(out OutputBuffer) *Encoder {
	return &Encoder{out: out}
}

// EncodeFrame writes one frame whose payload is produced by payload.
func (e *Encoder) EncodeFrame(payload func(out OutputBuffer)) {
	cursor := e.out.CurPosition()
	e.out.Output([]byte{0, FrameDest | e.seq})
	payload(e.out)

	n := len(e.out.DataSince(cursor))
	e.out.Update(cursor+FramePosLen, uint8(n+FrameTrailer))

	crc := CRC16(e.out.DataSince(cursor))
	e.out.Output([]byte{uint8(crc >> 8), uint8(crc), FrameSync})

	e.seq = (e.seq + 1) & FrameSeqMask
}

// Decoder cuts frames out of a byte stream, resynchronizing on the sync
// byte after garbage or a corrupt frame.
type Decoder struct {
	in       *FifoBuffer
	synced   bool
	expected uint8
	started  bool

	// Dropped counts frames (or byte runs) discarded as corrupt.
	Dropped int
	// Gaps counts sequence numbers that were skipped.
	Gaps int
}

// NewDecoder returns a decoder with an input ring of bufSize bytes.
func NewDecoder(bufSize int) *Decoder {
	if bufSize < FrameMax*2 {
		bufSize = FrameMax * 2
	}
	return &Decoder{in: NewFifoBuffer(bufSize), synced: true}
}

// Feed appends stream bytes. It returns how many were accepted; call Next
// until it returns false before feeding more once the ring is full.
func (d *Decoder) Feed(data []byte) int {
	return d.in.Write(data)
}

// Next returns the next complete frame, false when the buffered bytes do
// not hold one yet.
func (d *Decoder) Next() (Frame, bool) {
	data := d.in.Data()
	consumed := 0
	defer func() { d.in.Pop(consumed) }()

	for consumed < len(data) {
		rest := data[consumed:]
		if !d.synced {
			i := 0
			for i < len(rest) && rest[i] != FrameSync {
				i++
			}
			if i == len(rest) {
				consumed = len(data)
				return Frame{}, false
			}
			consumed += i + 1
			d.synced = true
			continue
		}

		if rest[0] == FrameSync {
			consumed++
			continue
		}
		if len(rest) < FrameMin {
			return Frame{}, false
		}
		n := int(rest[FramePosLen])
		seq := rest[FramePosSeq]
		if n < FrameMin || n > FrameMax || seq&^FrameSeqMask != FrameDest {
			d.resync(&consumed)
			continue
		}
		if len(rest) < n {
			return Frame{}, false
		}
		if rest[n-1] != FrameSync {
			d.resync(&consumed)
			continue
		}
		crc := uint16(rest[n-FrameTrailer])<<8 | uint16(rest[n-FrameTrailer+1])
		if crc != CRC16(rest[:n-FrameTrailer]) {
			d.resync(&consumed)
			continue
		}

		s := seq & FrameSeqMask
		if d.started && s != d.expected {
			d.Gaps++
		}
		d.started = true
		d.expected = (s + 1) & FrameSeqMask

		payload := make([]byte, n-FrameMin)
		copy(payload, rest[FrameHeader:n-FrameTrailer])
		consumed += n
		return Frame{Sequence: s, Payload: payload}, true
	}
	return Frame{}, false
}

func (d *Decoder) resync(consumed *int) {
	d.synced = false
	d.Dropped++
	*consumed++
}
