package core

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// maxEntryPrealloc caps the entry table allocated up front; larger tables grow
// as records are actually read.
const maxEntryPrealloc = 4096

// ReadHeader reads and validates the archive header.
func ReadHeader(r io.Reader) (ArchiveHeader, error) {
	var hdr ArchiveHeader
	if err := binary.Read(r, binary.LittleEndian, &hdr); err != nil {
		return ArchiveHeader{}, readError("read header", err)
	}
	if string(hdr.Magic[:]) != Magic {
		return ArchiveHeader{}, &FormatError{
			Reason: BadMagic,
			Detail: fmt.Sprintf("got %02x%02x%02x%02x", hdr.Magic[0], hdr.Magic[1], hdr.Magic[2], hdr.Magic[3]),
		}
	}
	return hdr, nil
}

// ReadEntries reads count entry records following the header.
func ReadEntries(r io.Reader, count uint32) ([]Entry, error) {
	entries := make([]Entry, 0, min(count, maxEntryPrealloc))
	for i := uint32(0); i < count; i++ {
		var e Entry
		if err := binary.Read(r, binary.LittleEndian, &e); err != nil {
			return nil, readError(fmt.Sprintf("read entry %d of %d", i, count), err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// readError maps a short read to a truncation FormatError and anything else to ErrIO.
func readError(op string, err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return &FormatError{Reason: Truncated, Detail: op}
	}
	return ioError(op, err)
}
