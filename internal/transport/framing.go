package transport

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"math"
)

// Framing selects how payloads are delimited on the wire.
type Framing int

const (
	// FramingNone writes the payload bytes as-is.
	FramingNone Framing = iota
	// FramingNewline appends '\n' to each payload.
	FramingNewline
	// FramingLength prefixes each payload with its length as a 4-byte
	// big-endian integer.
	FramingLength
)

// MaxFrameSize bounds a single decoded payload.
const MaxFrameSize = 1 << 20

var framingNames = map[Framing]string{
	FramingNone:    "none",
	FramingNewline: "newline",
	FramingLength:  "length",
}

func (f Framing) String() string {
	if name, ok := framingNames[f]; ok {
		return name
	}
	return fmt.Sprintf("framing(%d)", int(f))
}

// ParseFraming converts a config name to a Framing.
func ParseFraming(s string) (Framing, error) {
	for f, name := range framingNames {
		if name == s {
			return f, nil
		}
	}
	if s == "" {
		return FramingNone, nil
	}
	return FramingNone, fmt.Errorf("unknown framing %q", s)
}

// Frame returns payload wrapped for the wire.
func (f Framing) Frame(payload []byte) ([]byte, error) {
	switch f {
	case FramingNone:
		return payload, nil
	case FramingNewline:
		if bytes.IndexByte(payload, '\n') >= 0 {
			return nil, fmt.Errorf("payload contains a newline")
		}
		out := make([]byte, 0, len(payload)+1)
		out = append(out, payload...)
		return append(out, '\n'), nil
	case FramingLength:
		if uint64(len(payload)) > math.MaxUint32 {
			return nil, fmt.Errorf("payload too large: %d bytes", len(payload))
		}
		out := make([]byte, 4, len(payload)+4)
		binary.BigEndian.PutUint32(out, uint32(len(payload)))
		return append(out, payload...), nil
	default:
		return nil, fmt.Errorf("unknown framing %d", int(f))
	}
}

// FrameReader splits a byte stream back into payloads.
//
// With FramingNone the stream is treated as a sequence of concatenated JSON
// values, which is how the receiving service sees back-to-back unframed
// writes.
type FrameReader struct {
	framing Framing
	br      *bufio.Reader
	dec     *json.Decoder
}

// NewFrameReader creates a FrameReader over r.
func NewFrameReader(r io.Reader, framing Framing) *FrameReader {
	fr := &FrameReader{framing: framing}
	if framing == FramingNone {
		fr.dec = json.NewDecoder(r)
	} else {
		fr.br = bufio.NewReaderSize(r, 64*1024)
	}
	return fr
}

// Next returns the next payload. It returns io.EOF when the stream ends
// cleanly between payloads.
func (fr *FrameReader) Next() ([]byte, error) {
	switch fr.framing {
	case FramingNone:
		var raw json.RawMessage
		if err := fr.dec.Decode(&raw); err != nil {
			return nil, err
		}
		return raw, nil
	case FramingNewline:
		line, err := fr.br.ReadBytes('\n')
		if err != nil {
			if err == io.EOF && len(line) > 0 {
				return nil, io.ErrUnexpectedEOF
			}
			return nil, err
		}
		return line[:len(line)-1], nil
	case FramingLength:
		var hdr [4]byte
		if _, err := io.ReadFull(fr.br, hdr[:]); err != nil {
			return nil, err
		}
		n := binary.BigEndian.Uint32(hdr[:])
		if n > MaxFrameSize {
			return nil, fmt.Errorf("frame too large: %d bytes", n)
		}
		buf := make([]byte, n)
		if _, err := io.ReadFull(fr.br, buf); err != nil {
			if err == io.EOF {
				return nil, io.ErrUnexpectedEOF
			}
			return nil, err
		}
		return buf, nil
	default:
		return nil, fmt.Errorf("unknown framing %d", int(fr.framing))
	}
}
