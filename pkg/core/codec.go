package core

import "fmt"

// Codec identifies the algorithm a compressed block was written with.
type Codec byte

// Known codecs.
const (
	CodecCopy  Codec = 0 // Stored verbatim
	CodecRLE   Codec = 1 // Run-length encoding
	CodecLZRLE Codec = 2 // LZ back-references mixed with run-length encoding
)

// Opcode constants.
const (
	rleRepeatFlag = 0x80
	rleRepeatBias = 0x7D // count = op - bias: 3..130

	lzModeMask    = 0xC0
	lzRepeatMode  = 0xC0
	lzCopyMode    = 0x80
	lzRepeatBias  = 0xBD // count = op - bias: 3..66
	lzCopyBias    = 0x7C // count = op - bias: 4..67
	rawCountBias  = 1    // count = op + bias: 1..128
	maxExpansion  = 65   // Upper bound of output bytes per input byte over all opcodes
	codecMaxValue = CodecLZRLE
)

// Valid reports whether c names a known codec.
func (c Codec) Valid() bool {
	return c <= codecMaxValue
}

func (c Codec) String() string {
	switch c {
	case CodecCopy:
		return "copy"
	case CodecRLE:
		return "rle"
	case CodecLZRLE:
		return "lzrle"
	default:
		return fmt.Sprintf("codec(%d)", uint8(c))
	}
}

// Decode decodes a complete compressed block, choosing the codec from its
// first byte. Unknown codecs are rejected before any decoding happens.
func Decode(block []byte) ([]byte, error) {
	if len(block) == 0 {
		return nil, fmt.Errorf("%w: empty block", ErrCorruptData)
	}
	codec := Codec(block[0])
	if !codec.Valid() {
		return nil, &CodecError{Codec: codec}
	}

	switch codec {
	case CodecCopy:
		return DecodeCopy(block)
	case CodecRLE:
		return DecodeRLE(block)
	case CodecLZRLE:
		return DecodeLZRLE(block)
	}
	return nil, &CodecError{Codec: codec}
}

// openBlock parses the block header and positions a cursor at the first
// payload byte, past the header and the skipped bytes.
func openBlock(block []byte) (*cursor, int, error) {
	hdr, err := ParseBlockHeader(block)
	if err != nil {
		return nil, 0, err
	}
	effective, err := hdr.Effective()
	if err != nil {
		return nil, 0, err
	}
	c := newCursor(block)
	if err := c.seek(BlockHeaderSize + int(hdr.Skip)); err != nil {
		return nil, 0, fmt.Errorf("skip %d bytes: %w", hdr.Skip, err)
	}
	return c, effective, nil
}

// outputCap bounds the initial allocation so a forged length cannot reserve
// more memory than the payload could ever expand to.
func outputCap(effective, payload int) int {
	if limit := payload * maxExpansion; limit < effective {
		return limit
	}
	return effective
}

// fits fails when emitting count more bytes would overshoot the effective length.
func fits(emitted, count, effective int) error {
	if emitted+count > effective {
		return fmt.Errorf("%w: run of %d bytes at output offset %d overshoots length %d", ErrCorruptData, count, emitted, effective)
	}
	return nil
}

func appendRun(out []byte, v byte, count int) []byte {
	for i := 0; i < count; i++ {
		out = append(out, v)
	}
	return out
}

// DecodeCopy decodes a type 0 block: the payload is copied verbatim.
func DecodeCopy(block []byte) ([]byte, error) {
	c, effective, err := openBlock(block)
	if err != nil {
		return nil, err
	}
	data, err := c.bytes(effective)
	if err != nil {
		return nil, fmt.Errorf("copy %d bytes: %w", effective, err)
	}
	out := make([]byte, effective)
	copy(out, data)
	return out, nil
}

// DecodeRLE decodes a type 1 block.
//
// Opcode op >= 0x80 repeats the following byte op-0x7D times; any other opcode
// copies the next op+1 bytes literally. Decoding ends when exactly the
// effective length has been produced.
func DecodeRLE(block []byte) ([]byte, error) {
	c, effective, err := openBlock(block)
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, outputCap(effective, c.remaining()))
	for len(out) < effective {
		op, err := c.u8()
		if err != nil {
			return nil, fmt.Errorf("read opcode after %d of %d bytes: %w", len(out), effective, err)
		}

		if op >= rleRepeatFlag {
			count := int(op) - rleRepeatBias
			if err := fits(len(out), count, effective); err != nil {
				return nil, err
			}
			v, err := c.u8()
			if err != nil {
				return nil, fmt.Errorf("read run value: %w", err)
			}
			out = appendRun(out, v, count)
		} else {
			count := int(op) + rawCountBias
			if err := fits(len(out), count, effective); err != nil {
				return nil, err
			}
			literal, err := c.bytes(count)
			if err != nil {
				return nil, fmt.Errorf("read literal run: %w", err)
			}
			out = append(out, literal...)
		}
	}
	return out, nil
}

// DecodeLZRLE decodes a type 2 block.
//
// The two high bits of each opcode select the mode:
//
//	11xxxxxx  repeat the following byte op-0xBD times
//	10xxxxxx  copy op-0x7C bytes from distance (u16le) bytes back in the output
//	0xxxxxxx  copy the next op+1 bytes literally
//
// Back-references may overlap the bytes they produce, so they are copied one
// byte at a time.
func DecodeLZRLE(block []byte) ([]byte, error) {
	c, effective, err := openBlock(block)
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, outputCap(effective, c.remaining()))
	for len(out) < effective {
		op, err := c.u8()
		if err != nil {
			return nil, fmt.Errorf("read opcode after %d of %d bytes: %w", len(out), effective, err)
		}

		switch op & lzModeMask {
		case lzRepeatMode:
			count := int(op) - lzRepeatBias
			if err := fits(len(out), count, effective); err != nil {
				return nil, err
			}
			v, err := c.u8()
			if err != nil {
				return nil, fmt.Errorf("read run value: %w", err)
			}
			out = appendRun(out, v, count)

		case lzCopyMode:
			count := int(op) - lzCopyBias
			if err := fits(len(out), count, effective); err != nil {
				return nil, err
			}
			distance, err := c.u16()
			if err != nil {
				return nil, fmt.Errorf("read back-reference distance: %w", err)
			}
			if distance == 0 || int(distance) > len(out) {
				return nil, fmt.Errorf("%w: back-reference distance %d with %d bytes emitted", ErrCorruptData, distance, len(out))
			}
			start := len(out) - int(distance)
			for i := 0; i < count; i++ {
				out = append(out, out[start+i])
			}

		default:
			count := int(op) + rawCountBias
			if err := fits(len(out), count, effective); err != nil {
				return nil, err
			}
			literal, err := c.bytes(count)
			if err != nil {
				return nil, fmt.Errorf("read literal run: %w", err)
			}
			out = append(out, literal...)
		}
	}
	return out, nil
}
