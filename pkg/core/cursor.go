package core

import (
	"encoding/binary"
	"fmt"
)

// cursor reads little-endian values from a byte slice, checking every read
// against the remaining length.
type cursor struct {
	data []byte // The block being decoded.
	pos  int    // Offset of the next unread byte.
}

func newCursor(data []byte) *cursor {
	return &cursor{data: data}
}

func (c *cursor) remaining() int {
	return len(c.data) - c.pos
}

// need fails with ErrCorruptData unless n more bytes are available.
func (c *cursor) need(n int) error {
	if n < 0 || n > c.remaining() {
		return fmt.Errorf("%w: need %d bytes at offset %d, have %d", ErrCorruptData, n, c.pos, c.remaining())
	}
	return nil
}

// seek moves to an absolute offset; seeking to the end is allowed.
func (c *cursor) seek(pos int) error {
	if pos < 0 || pos > len(c.data) {
		return fmt.Errorf("%w: offset %d outside block of %d bytes", ErrCorruptData, pos, len(c.data))
	}
	c.pos = pos
	return nil
}

func (c *cursor) u8() (byte, error) {
	if err := c.need(1); err != nil {
		return 0, err
	}
	b := c.data[c.pos]
	c.pos++
	return b, nil
}

func (c *cursor) u16() (uint16, error) {
	if err := c.need(2); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint16(c.data[c.pos:])
	c.pos += 2
	return v, nil
}

func (c *cursor) u32() (uint32, error) {
	if err := c.need(4); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint32(c.data[c.pos:])
	c.pos += 4
	return v, nil
}

// bytes returns the next n bytes without copying them.
func (c *cursor) bytes(n int) ([]byte, error) {
	if err := c.need(n); err != nil {
		return nil, err
	}
	b := c.data[c.pos : c.pos+n]
	c.pos += n
	return b, nil
}
