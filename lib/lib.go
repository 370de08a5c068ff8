// Package lib provides extraction of BITP game archives.
// This package re-exports the functionality from the core package for callers outside this module's tree.
package lib

import (
	"context"

	"bitextract/pkg/core"
)

// Constants for archive format re-exported from core
const (
	Magic     = core.Magic
	EntrySize = core.EntrySize
)

// Types re-exported from core
type (
	Archive        = core.Archive
	ArchiveOptions = core.ArchiveOptions
	Entry          = core.Entry
	Codec          = core.Codec
	Encoding       = core.Encoding
	ExtractOptions = core.ExtractOptions
	Sink           = core.Sink
)

// Re-export codecs and encodings
const (
	CodecCopy  = core.CodecCopy
	CodecRLE   = core.CodecRLE
	CodecLZRLE = core.CodecLZRLE

	EncodingNone = core.EncodingNone
	EncodingLZ4  = core.EncodingLZ4
	EncodingZstd = core.EncodingZstd
)

// Error kinds re-exported from core
var (
	ErrFormat           = core.ErrFormat
	ErrIO               = core.ErrIO
	ErrUnsupportedCodec = core.ErrUnsupportedCodec
	ErrCorruptData      = core.ErrCorruptData
)

// Open is a wrapper around core.Open
func Open(path string) (*Archive, error) {
	return core.Open(path, nil)
}

// Decode is a wrapper around core.Decode
func Decode(block []byte) ([]byte, error) {
	return core.Decode(block)
}

// Extract is a wrapper around core.Extract with default options
func Extract(input, outputDir string) error {
	return core.Extract(context.Background(), input, outputDir, nil)
}
