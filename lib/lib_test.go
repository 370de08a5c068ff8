package lib

import (
	"bytes"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// writeArchive stores one copy-coded entry holding content.
func writeArchive(t *testing.T, id uint32, content []byte) string {
	t.Helper()
	var block bytes.Buffer
	block.Write([]byte{byte(CodecCopy), 0, 0, 0})
	_ = binary.Write(&block, binary.LittleEndian, uint32(len(content)))
	_ = binary.Write(&block, binary.LittleEndian, uint16(0))
	block.Write(content)

	var buf bytes.Buffer
	buf.WriteString(Magic)
	_ = binary.Write(&buf, binary.LittleEndian, uint16(1))
	_ = binary.Write(&buf, binary.LittleEndian, uint32(1))
	_ = binary.Write(&buf, binary.LittleEndian, Entry{
		ID:     id,
		Offset: 10 + EntrySize,
		Length: uint32(block.Len()),
	})
	buf.Write(block.Bytes())

	path := filepath.Join(t.TempDir(), "lib.bit")
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		t.Fatalf("Failed to write archive: %v", err)
	}
	return path
}

func TestOpenAndRead(t *testing.T) {
	a, err := Open(writeArchive(t, 0xcafe, []byte("payload")))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer a.Close()

	got, err := a.ReadEntry(0xcafe)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "payload" {
		t.Fatalf("got %q", got)
	}
}

func TestExtract(t *testing.T) {
	outDir := t.TempDir()
	stdout := os.Stdout
	devNull, err := os.OpenFile(os.DevNull, os.O_WRONLY, 0)
	if err != nil {
		t.Fatal(err)
	}
	os.Stdout = devNull
	err = Extract(writeArchive(t, 3, []byte("abc")), outDir)
	os.Stdout = stdout
	devNull.Close()
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}

	got, err := os.ReadFile(filepath.Join(outDir, "00000003"))
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "abc" {
		t.Fatalf("got %q", got)
	}
}

func TestDecodeErrors(t *testing.T) {
	if _, err := Decode([]byte{9, 0, 0, 0, 1, 0, 0, 0, 0, 0}); !errors.Is(err, ErrUnsupportedCodec) {
		t.Fatalf("want ErrUnsupportedCodec, got %v", err)
	}
	if _, err := Decode([]byte{byte(CodecRLE), 0, 0, 0, 2, 0, 0, 0, 0, 0}); !errors.Is(err, ErrCorruptData) {
		t.Fatalf("want ErrCorruptData, got %v", err)
	}
	if _, err := Open(filepath.Join(t.TempDir(), "missing.bit")); !errors.Is(err, ErrIO) {
		t.Fatalf("want ErrIO, got %v", err)
	}
}
