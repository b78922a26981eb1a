package psd

import (
	"bytes"
	"errors"
	"testing"
)

func TestFrameChannelPayloadRaw(t *testing.T) {
	t.Parallel()

	rect := Rect{Bottom: 2, Right: 3}
	body := []byte{1, 2, 3, 4, 5, 6}
	var w builder
	w.u16(uint16(CompressionRaw))
	w.raw(body)

	c := newCursor(w.b)
	p, err := frameChannelPayload(c, uint32(w.len()), rect, 8)
	if err != nil {
		t.Fatalf("frame: %v", err)
	}
	if p.Compression != CompressionRaw || p.Unsupported {
		t.Fatalf("payload mismatch: %+v", p)
	}
	if !bytes.Equal(p.Data, body) {
		t.Fatalf("body mismatch: %v", p.Data)
	}
	if p.ExpectedRawSize != 6 {
		t.Fatalf("expected raw size: got %d, want 6", p.ExpectedRawSize)
	}
	if c.remaining() != 0 {
		t.Fatalf("frame left %d bytes", c.remaining())
	}
}

func TestFrameChannelPayloadRawDepthScaling(t *testing.T) {
	t.Parallel()

	rect := Rect{Bottom: 2, Right: 2}
	cases := map[uint16]uint32{1: 4, 8: 4, 16: 8, 32: 16}
	for depth, want := range cases {
		var w builder
		w.u16(uint16(CompressionRaw))
		w.zeros(int(want))
		p, err := frameChannelPayload(newCursor(w.b), uint32(w.len()), rect, depth)
		if err != nil {
			t.Fatalf("depth %d: %v", depth, err)
		}
		if p.ExpectedRawSize != want {
			t.Fatalf("depth %d: got %d, want %d", depth, p.ExpectedRawSize, want)
		}
	}
}

func TestFrameChannelPayloadRLE(t *testing.T) {
	t.Parallel()

	rect := Rect{Bottom: 2, Right: 4} // two scan lines
	var w builder
	w.u16(uint16(CompressionRLE))
	w.u16(3)
	w.u16(1)
	w.raw([]byte{0xaa, 0xbb, 0xcc}) // line 0
	w.raw([]byte{0xdd})             // line 1

	c := newCursor(w.b)
	p, err := frameChannelPayload(c, uint32(w.len()), rect, 8)
	if err != nil {
		t.Fatalf("frame: %v", err)
	}
	if p.Compression != CompressionRLE {
		t.Fatalf("compression: %v", p.Compression)
	}
	if len(p.Lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(p.Lines))
	}
	if !bytes.Equal(p.Lines[0], []byte{0xaa, 0xbb, 0xcc}) || !bytes.Equal(p.Lines[1], []byte{0xdd}) {
		t.Fatalf("line spans mismatch: %v", p.Lines)
	}
	if c.remaining() != 0 {
		t.Fatalf("frame left %d bytes", c.remaining())
	}
}

func TestFrameChannelPayloadRLETruncatedLines(t *testing.T) {
	t.Parallel()

	rect := Rect{Bottom: 2, Right: 4}
	var w builder
	w.u16(uint16(CompressionRLE))
	w.u16(3)
	w.u16(5)               // declares more line bytes than the body holds
	w.raw([]byte{1, 2, 3}) // only line 0 present

	_, err := frameChannelPayload(newCursor(w.b), uint32(w.len()), rect, 8)
	if !errors.Is(err, ErrInconsistentLength) {
		t.Fatalf("got %v, want ErrInconsistentLength", err)
	}
}

func TestFrameChannelPayloadZIPOpaque(t *testing.T) {
	t.Parallel()

	var w builder
	w.u16(uint16(CompressionZIP))
	w.raw([]byte{0x78, 0x9c, 1, 2, 3})

	p, err := frameChannelPayload(newCursor(w.b), uint32(w.len()), Rect{Bottom: 1, Right: 1}, 8)
	if err != nil {
		t.Fatalf("frame: %v", err)
	}
	if p.Unsupported || p.Lines != nil {
		t.Fatalf("zip payload mismatch: %+v", p)
	}
	if len(p.Data) != 5 {
		t.Fatalf("zip body length: %d", len(p.Data))
	}
}

func TestFrameChannelPayloadUnknownTag(t *testing.T) {
	t.Parallel()

	// Declared length stays the span authority for unrecognized tags.
	var w builder
	w.u16(99)
	w.raw([]byte{1, 2, 3, 4})
	w.str("NEXT")

	c := newCursor(w.b)
	p, err := frameChannelPayload(c, 6, Rect{Bottom: 1, Right: 1}, 8)
	if err != nil {
		t.Fatalf("frame: %v", err)
	}
	if !p.Unsupported {
		t.Fatalf("unknown tag not flagged: %+v", p)
	}
	if !errors.Is(p.Err, ErrUnsupportedCompression) {
		t.Fatalf("payload error: got %v, want ErrUnsupportedCompression", p.Err)
	}
	if len(p.Data) != 4 {
		t.Fatalf("unknown tag body length: %d", len(p.Data))
	}
	tag, err := c.readTag()
	if err != nil || string(tag[:]) != "NEXT" {
		t.Fatalf("cursor misaligned after unknown tag: %q, %v", tag[:], err)
	}
}

func TestFrameChannelPayloadTooShortForTag(t *testing.T) {
	t.Parallel()

	c := newCursor([]byte{0})
	if _, err := frameChannelPayload(c, 1, Rect{}, 8); !errors.Is(err, ErrInconsistentLength) {
		t.Fatalf("got %v, want ErrInconsistentLength", err)
	}
}
