package psd

import (
	"encoding/binary"
	"fmt"
	"math"
)

// cursor is a sequential big-endian reader over an in-memory byte source.
// All multi-byte values on the wire are big-endian regardless of host order.
// Returned byte slices alias the underlying source.
type cursor struct {
	data []byte
	off  int
}

func newCursor(data []byte) *cursor {
	return &cursor{data: data}
}

func (c *cursor) offset() int64 {
	return int64(c.off)
}

func (c *cursor) remaining() int {
	return len(c.data) - c.off
}

func (c *cursor) readN(n int) ([]byte, error) {
	if n < 0 {
		return nil, fmt.Errorf("%w: negative read length %d at offset %d", ErrUnexpectedEnd, n, c.off)
	}
	if c.remaining() < n {
		return nil, fmt.Errorf("%w: need %d bytes at offset %d, have %d", ErrUnexpectedEnd, n, c.off, c.remaining())
	}
	b := c.data[c.off : c.off+n]
	c.off += n
	return b, nil
}

// peekN reads without advancing.
func (c *cursor) peekN(n int) ([]byte, error) {
	b, err := c.readN(n)
	if err != nil {
		return nil, err
	}
	c.off -= n
	return b, nil
}

func (c *cursor) seek(off int64) error {
	if off < 0 || off > int64(len(c.data)) {
		return fmt.Errorf("%w: seek to offset %d outside source of %d bytes", ErrUnexpectedEnd, off, len(c.data))
	}
	c.off = int(off)
	return nil
}

func (c *cursor) skip(n int) error {
	_, err := c.readN(n)
	return err
}

func (c *cursor) readU8() (uint8, error) {
	b, err := c.readN(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (c *cursor) readBool() (bool, error) {
	v, err := c.readU8()
	return v != 0, err
}

func (c *cursor) readU16() (uint16, error) {
	b, err := c.readN(2)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b), nil
}

func (c *cursor) readI16() (int16, error) {
	v, err := c.readU16()
	return int16(v), err
}

func (c *cursor) readU32() (uint32, error) {
	b, err := c.readN(4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

func (c *cursor) readF64() (float64, error) {
	b, err := c.readN(8)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(binary.BigEndian.Uint64(b)), nil
}

// readTag reads a fixed 4-byte ASCII tag.
func (c *cursor) readTag() ([4]byte, error) {
	var tag [4]byte
	b, err := c.readN(4)
	if err != nil {
		return tag, err
	}
	copy(tag[:], b)
	return tag, nil
}
