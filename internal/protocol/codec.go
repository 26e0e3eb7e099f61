package protocol

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
)

// MaxFrameSize bounds the payload length a Decoder will buffer for a
// single frame. Frames claiming more are discarded as malformed.
const MaxFrameSize = 64 * 1024

// ErrMalformed marks a frame whose payload could not be decoded. The
// stream stays usable; only the offending frame is lost.
var ErrMalformed = errorString("malformed message")

type errorString string

func (e errorString) Error() string { return string(e) }

// Encoder writes messages to a stream as JSON payloads behind a 4-byte
// big-endian length prefix. Each Encode issues a single Write so frames
// from one Encoder never interleave on the underlying writer.
type Encoder struct {
	w io.Writer
}

func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: w}
}

func (e *Encoder) Encode(m *Message) error {
	payload, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("encode %s: %w", m.Type, err)
	}

	frame := make([]byte, 4+len(payload))
	binary.BigEndian.PutUint32(frame[:4], uint32(len(payload)))
	copy(frame[4:], payload)

	if _, err := e.w.Write(frame); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	return nil
}

// Decoder reads length-prefixed messages from a stream. It tolerates
// frames split across reads and multiple frames per read; boundaries
// come only from the prefix, never from read sizes.
type Decoder struct {
	r io.Reader
}

func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{r: r}
}

// Decode returns the next message from the stream. A frame that is
// oversized or not valid JSON yields an error wrapping ErrMalformed and
// leaves the Decoder positioned at the following frame. Any I/O error
// passes through untouched.
func (d *Decoder) Decode() (*Message, error) {
	var header [4]byte
	if _, err := io.ReadFull(d.r, header[:]); err != nil {
		return nil, err
	}

	size := binary.BigEndian.Uint32(header[:])
	if size > MaxFrameSize {
		// Drain the oversized payload to stay aligned with the stream.
		if _, err := io.CopyN(io.Discard, d.r, int64(size)); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: frame of %d bytes exceeds limit", ErrMalformed, size)
	}

	payload := make([]byte, size)
	if _, err := io.ReadFull(d.r, payload); err != nil {
		return nil, err
	}

	var m Message
	if err := json.Unmarshal(payload, &m); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if m.Type == "" {
		return nil, fmt.Errorf("%w: missing type", ErrMalformed)
	}
	return &m, nil
}
