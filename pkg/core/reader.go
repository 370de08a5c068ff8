package core

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"slices"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/exp/mmap"
)

// ArchiveOptions configures an Archive.
type ArchiveOptions struct {
	// CacheSize is the number of decoded entries ReadEntry keeps; 0 disables caching.
	CacheSize int
}

// DefaultArchiveOptions returns options for library use: a small decoded-entry cache.
func DefaultArchiveOptions() *ArchiveOptions {
	return &ArchiveOptions{CacheSize: 64}
}

// Archive is an opened BITP archive. All reads are positioned, so an Archive
// is safe for concurrent use.
type Archive struct {
	Header ArchiveHeader

	r       io.ReaderAt
	size    int64
	closer  io.Closer
	entries []Entry
	index   map[uint32]int // First entry carrying each id
	cache   *lru.Cache[uint32, []byte]
}

// Open memory-maps the archive at path and parses its entry table.
// Options nil means DefaultArchiveOptions.
func Open(path string, opts *ArchiveOptions) (*Archive, error) {
	m, err := mmap.Open(path)
	if err != nil {
		return nil, ioError("open archive", err)
	}
	a, err := NewArchive(m, int64(m.Len()), opts)
	if err != nil {
		_ = m.Close()
		return nil, err
	}
	a.closer = m
	return a, nil
}

// NewArchive parses the header and entry table of an archive of the given size read through r.
func NewArchive(r io.ReaderAt, size int64, opts *ArchiveOptions) (*Archive, error) {
	if opts == nil {
		opts = DefaultArchiveOptions()
	}

	br := bufio.NewReader(io.NewSectionReader(r, 0, size))
	hdr, err := ReadHeader(br)
	if err != nil {
		return nil, err
	}
	if tableEnd := HeaderSize + int64(hdr.NumEntries)*EntrySize; tableEnd > size {
		return nil, &FormatError{
			Reason: Truncated,
			Detail: fmt.Sprintf("%d entries need %d bytes, archive has %d", hdr.NumEntries, tableEnd, size),
		}
	}
	entries, err := ReadEntries(br, hdr.NumEntries)
	if err != nil {
		return nil, err
	}

	a := &Archive{
		Header:  hdr,
		r:       r,
		size:    size,
		entries: entries,
		index:   make(map[uint32]int, len(entries)),
	}
	for i, e := range entries {
		if _, ok := a.index[e.ID]; !ok {
			a.index[e.ID] = i
		}
	}
	if opts.CacheSize > 0 {
		a.cache, err = lru.New[uint32, []byte](opts.CacheSize)
		if err != nil {
			return nil, fmt.Errorf("create entry cache: %w", err)
		}
	}
	return a, nil
}

// Close releases the underlying mapping, if the archive owns one.
func (a *Archive) Close() error {
	if a.closer == nil {
		return nil
	}
	return a.closer.Close()
}

// Size returns the archive size in bytes.
func (a *Archive) Size() int64 {
	return a.size
}

// Entries returns a copy of the entry table in archive order.
func (a *Archive) Entries() []Entry {
	return slices.Clone(a.entries)
}

// Lookup returns the first entry with the given id.
func (a *Archive) Lookup(id uint32) (Entry, bool) {
	i, ok := a.index[id]
	if !ok {
		return Entry{}, false
	}
	return a.entries[i], true
}

// ReadBlock reads the raw compressed block of e.
func (a *Archive) ReadBlock(e Entry) ([]byte, error) {
	if err := e.Validate(a.size); err != nil {
		return nil, err
	}
	block := make([]byte, e.Length)
	if err := a.readAt(block, int64(e.Offset)); err != nil {
		return nil, ioError(fmt.Sprintf("read %d bytes at %d", e.Length, e.Offset), err)
	}
	return block, nil
}

// Codec reads only the codec tag of e's block.
func (a *Archive) Codec(e Entry) (Codec, error) {
	if err := e.Validate(a.size); err != nil {
		return 0, err
	}
	if e.Length == 0 {
		return 0, fmt.Errorf("%w: empty block", ErrCorruptData)
	}
	var tag [1]byte
	if err := a.readAt(tag[:], int64(e.Offset)); err != nil {
		return 0, ioError(fmt.Sprintf("read codec at %d", e.Offset), err)
	}
	return Codec(tag[0]), nil
}

// BlockHeader reads only the header of e's block.
func (a *Archive) BlockHeader(e Entry) (BlockHeader, error) {
	if err := e.Validate(a.size); err != nil {
		return BlockHeader{}, err
	}
	buf := make([]byte, min(int(e.Length), BlockHeaderSize))
	if err := a.readAt(buf, int64(e.Offset)); err != nil {
		return BlockHeader{}, ioError(fmt.Sprintf("read block header at %d", e.Offset), err)
	}
	return ParseBlockHeader(buf)
}

// DecodeEntry reads and decodes e without touching the cache.
func (a *Archive) DecodeEntry(e Entry) ([]byte, error) {
	block, err := a.ReadBlock(e)
	if err != nil {
		return nil, err
	}
	return Decode(block)
}

// ReadEntry returns the decoded content of the entry with the given id.
// The returned slice belongs to the caller.
func (a *Archive) ReadEntry(id uint32) ([]byte, error) {
	e, ok := a.Lookup(id)
	if !ok {
		return nil, &EntryError{ID: id, Err: fmt.Errorf("%w: no such entry", ErrFormat)}
	}
	if a.cache != nil {
		if data, ok := a.cache.Get(id); ok {
			return bytes.Clone(data), nil
		}
	}

	data, err := a.DecodeEntry(e)
	if err != nil {
		return nil, &EntryError{ID: id, Err: err}
	}
	if a.cache != nil {
		a.cache.Add(id, bytes.Clone(data))
	}
	return data, nil
}

// readAt fills p from off; a full read that also reports io.EOF is a success.
func (a *Archive) readAt(p []byte, off int64) error {
	n, err := a.r.ReadAt(p, off)
	if n == len(p) {
		return nil
	}
	if err == nil {
		err = io.ErrUnexpectedEOF
	}
	return err
}
