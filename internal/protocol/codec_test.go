package protocol

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"testing"
)

// chunkReader hands out at most n bytes per Read to simulate a stream
// transport splitting frames arbitrarily.
type chunkReader struct {
	data []byte
	n    int
	off  int
}

func (c *chunkReader) Read(p []byte) (int, error) {
	if c.off >= len(c.data) {
		return 0, io.EOF
	}
	end := c.off + c.n
	if end > len(c.data) {
		end = len(c.data)
	}
	copied := copy(p, c.data[c.off:end])
	c.off += copied
	return copied, nil
}

func sampleMessages() []*Message {
	return []*Message{
		{Type: TypeRegister, Handle: "alice", Address: "1.2.3.4"},
		{Type: TypeBroadcast, Sender: "alice", Text: "hello everyone"},
		{Type: TypeDirect, Sender: "alice", Recipient: "bob", Text: "psst"},
		{Type: TypeListResult, Handles: []string{"alice", "bob"}},
		{Type: TypeResult, Outcome: OutcomeError, Reason: ReasonDuplicate},
	}
}

func TestCodec_RoundTripAcrossChunkSizes(t *testing.T) {
	msgs := sampleMessages()

	var buf bytes.Buffer
	enc := NewEncoder(&buf)
	for _, m := range msgs {
		if err := enc.Encode(m); err != nil {
			t.Fatalf("encode %s: %v", m.Type, err)
		}
	}

	for _, chunk := range []int{1, 2, 3, 7, 64, len(buf.Bytes())} {
		dec := NewDecoder(&chunkReader{data: buf.Bytes(), n: chunk})
		for i, want := range msgs {
			got, err := dec.Decode()
			if err != nil {
				t.Fatalf("chunk %d, message %d: decode error %v", chunk, i, err)
			}
			if got.Type != want.Type || got.Handle != want.Handle ||
				got.Sender != want.Sender || got.Recipient != want.Recipient ||
				got.Text != want.Text || got.Reason != want.Reason {
				t.Fatalf("chunk %d, message %d: got %+v want %+v", chunk, i, got, want)
			}
			if len(got.Handles) != len(want.Handles) {
				t.Fatalf("chunk %d, message %d: handles %v want %v", chunk, i, got.Handles, want.Handles)
			}
		}
		if _, err := dec.Decode(); err != io.EOF {
			t.Fatalf("chunk %d: expected EOF after all messages, got %v", chunk, err)
		}
	}
}

func TestCodec_MalformedFrameDoesNotPoisonStream(t *testing.T) {
	var buf bytes.Buffer
	enc := NewEncoder(&buf)
	if err := enc.Encode(&Message{Type: TypeList, Handle: "alice"}); err != nil {
		t.Fatalf("encode: %v", err)
	}

	// A correctly framed payload that is not JSON.
	garbage := []byte("{not json")
	header := make([]byte, 4)
	binary.BigEndian.PutUint32(header, uint32(len(garbage)))
	buf.Write(header)
	buf.Write(garbage)

	if err := enc.Encode(&Message{Type: TypeExit, Handle: "alice"}); err != nil {
		t.Fatalf("encode: %v", err)
	}

	dec := NewDecoder(&buf)

	first, err := dec.Decode()
	if err != nil || first.Type != TypeList {
		t.Fatalf("first decode: %v, %v", first, err)
	}

	if _, err := dec.Decode(); !errors.Is(err, ErrMalformed) {
		t.Fatalf("expected ErrMalformed, got %v", err)
	}

	third, err := dec.Decode()
	if err != nil || third.Type != TypeExit {
		t.Fatalf("third decode: %v, %v", third, err)
	}
}

func TestCodec_OversizedFrameDiscarded(t *testing.T) {
	var buf bytes.Buffer

	big := bytes.Repeat([]byte("x"), MaxFrameSize+1)
	header := make([]byte, 4)
	binary.BigEndian.PutUint32(header, uint32(len(big)))
	buf.Write(header)
	buf.Write(big)

	enc := NewEncoder(&buf)
	if err := enc.Encode(&Message{Type: TypeExit, Handle: "bob"}); err != nil {
		t.Fatalf("encode: %v", err)
	}

	dec := NewDecoder(&buf)
	if _, err := dec.Decode(); !errors.Is(err, ErrMalformed) {
		t.Fatalf("expected ErrMalformed for oversized frame, got %v", err)
	}

	next, err := dec.Decode()
	if err != nil || next.Type != TypeExit {
		t.Fatalf("decode after oversized frame: %v, %v", next, err)
	}
}

func TestCodec_MissingTypeRejected(t *testing.T) {
	var buf bytes.Buffer
	payload := []byte(`{"text":"no discriminator"}`)
	header := make([]byte, 4)
	binary.BigEndian.PutUint32(header, uint32(len(payload)))
	buf.Write(header)
	buf.Write(payload)

	dec := NewDecoder(&buf)
	if _, err := dec.Decode(); !errors.Is(err, ErrMalformed) {
		t.Fatalf("expected ErrMalformed, got %v", err)
	}
}
