package core

import "fmt"

// Constants for archive format
const (
	Magic = "BITP" // Magic number to identify the archive

	HeaderSize      = 10 // magic[4] + revision u16 + numEntries u32
	EntrySize       = 17 // id, offset, length, hash (u32 each) + flag u8
	BlockHeaderSize = 10 // type tag[4] + length u32 + skip u16
)

// Field layout of a BlockHeader inside a compressed block.
const (
	blockTypePos   = 0
	blockLengthPos = 4
	blockSkipPos   = 8
)

// ArchiveHeader is the fixed record at the start of every archive.
type ArchiveHeader struct {
	Magic      [4]byte
	Revision   uint16 // Carried through, never validated
	NumEntries uint32
}

// Entry describes one archived file
type Entry struct {
	ID     uint32 // Output file name, rendered as %08x
	Offset uint32 // Start of the compressed block in the archive
	Length uint32 // Size of the compressed block
	Hash   uint32 // Pass-through metadata
	Flag   uint8  // Pass-through metadata
}

// Name returns the output file name of the entry.
func (e Entry) Name() string {
	return fmt.Sprintf("%08x", e.ID)
}

// End returns the first archive byte past the entry's block.
func (e Entry) End() int64 {
	return int64(e.Offset) + int64(e.Length)
}

// Validate checks that the entry's block lies inside an archive of the given size.
func (e Entry) Validate(size int64) error {
	if e.End() > size {
		return &FormatError{
			Reason: OutOfBounds,
			Detail: fmt.Sprintf("entry %s spans [%d, %d) beyond archive size %d", e.Name(), e.Offset, e.End(), size),
		}
	}
	return nil
}

func (e Entry) String() string {
	return fmt.Sprintf("%s offset=%d length=%d hash=%08x flag=%d", e.Name(), e.Offset, e.Length, e.Hash, e.Flag)
}

// BlockHeader prefixes every compressed block.
type BlockHeader struct {
	Codec  Codec  // First byte of the type tag; the remaining three are padding
	Length uint32 // Decoded size before trimming
	Skip   uint16 // Leading bytes to discard
}

// Effective returns the number of bytes the block decodes to.
func (h BlockHeader) Effective() (int, error) {
	if uint32(h.Skip) > h.Length {
		return 0, fmt.Errorf("%w: skip %d exceeds length %d", ErrCorruptData, h.Skip, h.Length)
	}
	return int(h.Length - uint32(h.Skip)), nil
}

// ParseBlockHeader reads the header at the start of a compressed block.
func ParseBlockHeader(block []byte) (BlockHeader, error) {
	c := newCursor(block)
	tag, err := c.u8()
	if err != nil {
		return BlockHeader{}, fmt.Errorf("read block type: %w", err)
	}
	if err := c.seek(blockLengthPos); err != nil {
		return BlockHeader{}, fmt.Errorf("read block length: %w", err)
	}
	length, err := c.u32()
	if err != nil {
		return BlockHeader{}, fmt.Errorf("read block length: %w", err)
	}
	skip, err := c.u16()
	if err != nil {
		return BlockHeader{}, fmt.Errorf("read block skip: %w", err)
	}
	return BlockHeader{Codec: Codec(tag), Length: length, Skip: skip}, nil
}
