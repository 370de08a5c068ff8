package core

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"bitextract/pkg/progress"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Sink receives decoded entries.
type Sink interface {
	Put(id uint32, data []byte) error
}

// Encoding selects how DirSink stores decoded entries.
type Encoding int

const (
	EncodingNone Encoding = iota // Plain decoded bytes
	EncodingLZ4                  // LZ4 frame, ".lz4" suffix
	EncodingZstd                 // Zstandard frame, ".zst" suffix
)

// ParseEncoding maps a command-line name to an Encoding.
func ParseEncoding(name string) (Encoding, error) {
	switch name {
	case "", "none":
		return EncodingNone, nil
	case "lz4":
		return EncodingLZ4, nil
	case "zstd", "zst":
		return EncodingZstd, nil
	default:
		return EncodingNone, fmt.Errorf("unknown encoding %q", name)
	}
}

func (e Encoding) String() string {
	switch e {
	case EncodingLZ4:
		return "lz4"
	case EncodingZstd:
		return "zstd"
	default:
		return "none"
	}
}

// Ext returns the file name suffix for the encoding.
func (e Encoding) Ext() string {
	switch e {
	case EncodingLZ4:
		return ".lz4"
	case EncodingZstd:
		return ".zst"
	default:
		return ""
	}
}

// encode writes data to w, framed by the encoding.
func (e Encoding) encode(w io.Writer, data []byte) error {
	switch e {
	case EncodingLZ4:
		zw := lz4.NewWriter(w)
		if _, err := zw.Write(data); err != nil {
			return fmt.Errorf("write lz4: %w", err)
		}
		if err := zw.Close(); err != nil {
			return fmt.Errorf("close lz4 writer: %w", err)
		}
		return nil
	case EncodingZstd:
		zw, err := zstd.NewWriter(w, zstd.WithEncoderConcurrency(1))
		if err != nil {
			return fmt.Errorf("create zstd writer: %w", err)
		}
		if _, err := zw.Write(data); err != nil {
			_ = zw.Close()
			return fmt.Errorf("write zstd: %w", err)
		}
		if err := zw.Close(); err != nil {
			return fmt.Errorf("close zstd writer: %w", err)
		}
		return nil
	default:
		_, err := w.Write(data)
		return err
	}
}

// DirSink writes each entry to its own file inside Dir. Put is safe for
// concurrent use with distinct ids.
type DirSink struct {
	Dir      string
	Encoding Encoding
	Progress *progress.Tracker // Optional; counts encoded bytes written to disk
}

// NewDirSink creates dir if absent and returns a sink writing into it.
func NewDirSink(dir string, enc Encoding) (*DirSink, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, ioError("create output directory", err)
	}
	return &DirSink{Dir: dir, Encoding: enc}, nil
}

// Path returns the file an entry id is written to.
func (s *DirSink) Path(id uint32) string {
	return filepath.Join(s.Dir, fmt.Sprintf("%08x%s", id, s.Encoding.Ext()))
}

// Put writes data to the entry's file, replacing any previous content.
func (s *DirSink) Put(id uint32, data []byte) error {
	path := s.Path(id)
	f, err := os.Create(path)
	if err != nil {
		return ioError("create output", err)
	}
	defer f.Close()

	if err := s.Encoding.encode(&progress.Writer{W: f, T: s.Progress}, data); err != nil {
		return ioError("write "+path, err)
	}
	if err := f.Close(); err != nil {
		return ioError("close "+path, err)
	}
	return nil
}
