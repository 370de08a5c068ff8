package core

import (
	"bytes"
	"encoding/binary"
	"math/rand"
	"os"
	"path/filepath"
	"testing"
)

// makeBlock builds a compressed block: header followed by payload.
func makeBlock(codec Codec, length uint32, skip uint16, payload []byte) []byte {
	b := make([]byte, BlockHeaderSize, BlockHeaderSize+len(payload))
	b[blockTypePos] = byte(codec)
	binary.LittleEndian.PutUint32(b[blockLengthPos:], length)
	binary.LittleEndian.PutUint16(b[blockSkipPos:], skip)
	return append(b, payload...)
}

type fixtureEntry struct {
	id    uint32
	block []byte
	hash  uint32
	flag  uint8
}

// buildArchive lays out header, entry table and blocks back to back.
func buildArchive(entries ...fixtureEntry) []byte {
	var buf bytes.Buffer
	buf.WriteString(Magic)
	_ = binary.Write(&buf, binary.LittleEndian, uint16(1))
	_ = binary.Write(&buf, binary.LittleEndian, uint32(len(entries)))

	offset := HeaderSize + EntrySize*len(entries)
	for _, e := range entries {
		_ = binary.Write(&buf, binary.LittleEndian, Entry{
			ID:     e.id,
			Offset: uint32(offset),
			Length: uint32(len(e.block)),
			Hash:   e.hash,
			Flag:   e.flag,
		})
		offset += len(e.block)
	}
	for _, e := range entries {
		buf.Write(e.block)
	}
	return buf.Bytes()
}

// setEntryLength patches the length field of entry i in a built archive.
func setEntryLength(data []byte, i int, length uint32) {
	binary.LittleEndian.PutUint32(data[HeaderSize+i*EntrySize+8:], length)
}

func writeArchive(t *testing.T, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.bit")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("Failed to write archive: %v", err)
	}
	return path
}

func openBytes(t *testing.T, data []byte, opts *ArchiveOptions) *Archive {
	t.Helper()
	a, err := NewArchive(bytes.NewReader(data), int64(len(data)), opts)
	if err != nil {
		t.Fatalf("NewArchive: %v", err)
	}
	return a
}

// randomStream produces a well-formed opcode stream for codec and the bytes it decodes to.
func randomStream(rng *rand.Rand, codec Codec, ops int) (payload, want []byte) {
	for i := 0; i < ops; i++ {
		switch mode := rng.Intn(3); {
		case mode == 2 && codec == CodecLZRLE && len(want) > 0:
			count := 4 + rng.Intn(64)
			distance := 1 + rng.Intn(min(len(want), 0xFFFF))
			payload = append(payload, byte(count+lzCopyBias), byte(distance), byte(distance>>8))
			start := len(want) - distance
			for j := 0; j < count; j++ {
				want = append(want, want[start+j])
			}
		case mode == 1:
			v := byte(rng.Intn(256))
			var count int
			if codec == CodecLZRLE {
				count = 3 + rng.Intn(64)
				payload = append(payload, byte(count+lzRepeatBias), v)
			} else {
				count = 3 + rng.Intn(128)
				payload = append(payload, byte(count+rleRepeatBias), v)
			}
			want = append(want, bytes.Repeat([]byte{v}, count)...)
		default:
			count := 1 + rng.Intn(128)
			literal := make([]byte, count)
			rng.Read(literal)
			payload = append(payload, byte(count-1))
			payload = append(payload, literal...)
			want = append(want, literal...)
		}
	}
	return payload, want
}
