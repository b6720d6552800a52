package trace

import (
	"errors"
	"io"

	"riotgo/protocol"
)

// Frame payload ids
const (
	msgInfo  = 0
	msgEvent = 1
)

// ErrBadRecord is returned by Decode for a frame it cannot interpret.
var ErrBadRecord = errors.New("trace: malformed record")

// Export writes the ring, oldest first, as protocol frames: one info frame
// carrying the wire version followed by one frame per event.
func Export(w io.Writer) error {
	return ExportEvents(w, Events())
}

// ExportEvents writes events in the Export format.
func ExportEvents(w io.Writer, events []Event) error {
	out := protocol.NewScratchOutput()
	enc := protocol.NewEncoder(out)

	enc.EncodeFrame(func(o protocol.OutputBuffer) {
		protocol.EncodeUint(o, msgInfo)
		protocol.EncodeString(o, protocol.Version)
		protocol.EncodeUint(o, uint32(len(events)))
	})
	for _, e := range events {
		e := e
		enc.EncodeFrame(func(o protocol.OutputBuffer) {
			protocol.EncodeUint(o, msgEvent)
			protocol.EncodeUint(o, uint32(e.Kind))
			protocol.EncodeUint(o, uint32(e.ID))
			protocol.EncodeUint(o, e.Clock)
			protocol.EncodeUint(o, e.V1)
			protocol.EncodeUint(o, e.V2)
		})
		if out.CurPosition() > protocol.FrameMax*2 {
			if _, err := w.Write(out.Result()); err != nil {
				return err
			}
			out.Reset()
		}
	}
	_, err := w.Write(out.Result())
	return err
}

// Decode reads an exported stream until EOF and returns the events in it.
// Corrupt frames are skipped.
func Decode(r io.Reader) ([]Event, error) {
	dec := protocol.NewDecoder(protocol.FrameMax * 8)
	buf := make([]byte, protocol.FrameMax)
	var events []Event

	for {
		n, err := r.Read(buf)
		chunk := buf[:n]
		for len(chunk) > 0 {
			m := dec.Feed(chunk)
			chunk = chunk[m:]
			for {
				f, ok := dec.Next()
				if !ok {
					break
				}
				e, isEvent, derr := decodeRecord(f.Payload)
				if derr != nil {
					return events, derr
				}
				if isEvent {
					events = append(events, e)
				}
			}
		}
		if err == io.EOF {
			return events, nil
		}
		if err != nil {
			return events, err
		}
	}
}

func decodeRecord(p []byte) (Event, bool, error) {
	id, err := protocol.DecodeUint(&p)
	if err != nil {
		return Event{}, false, err
	}
	switch id {
	case msgInfo:
		v, err := protocol.DecodeString(&p)
		if err != nil {
			return Event{}, false, err
		}
		if v != protocol.Version {
			return Event{}, false, ErrBadRecord
		}
		return Event{}, false, nil
	case msgEvent:
		var f [5]uint32
		for i := range f {
			if f[i], err = protocol.DecodeUint(&p); err != nil {
				return Event{}, false, err
			}
		}
		return Event{Kind: Kind(f[0]), ID: uint8(f[1]), Clock: f[2], V1: f[3], V2: f[4]}, true, nil
	default:
		return Event{}, false, ErrBadRecord
	}
}
