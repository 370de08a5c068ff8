package progress

import (
	"bytes"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestFormatSize(t *testing.T) {
	cases := []struct {
		in   uint64
		want string
	}{
		{0, "0 B"},
		{1023, "1023 B"},
		{1024, "1.0 KiB"},
		{1536, "1.5 KiB"},
		{5 << 20, "5.0 MiB"},
		{3 << 30, "3.0 GiB"},
	}
	for _, tc := range cases {
		if got := formatSize(tc.in); got != tc.want {
			t.Errorf("formatSize(%d) = %q, want %q", tc.in, got, tc.want)
		}
	}
	if got := formatRate(2048); got != "2.0 KiB/s" {
		t.Errorf("formatRate = %q", got)
	}
}

// lockedBuffer lets the test read output the logger goroutine writes.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestTrackerReports(t *testing.T) {
	var out lockedBuffer
	tr := New(&out, 4)
	tr.interval = time.Millisecond
	tr.Start()
	tr.Start()

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tr.AddEntry()
			tr.AddBytes(1024)
		}()
	}
	wg.Wait()

	deadline := time.Now().Add(5 * time.Second)
	for !strings.Contains(out.String(), "Extracted 4 of 4 entries (100.0%)") {
		if time.Now().After(deadline) {
			t.Fatalf("no completion line:\n%s", out.String())
		}
		time.Sleep(time.Millisecond)
	}
	tr.Stop()
	tr.Stop()

	if tr.Entries() != 4 || tr.Bytes() != 4096 {
		t.Fatalf("counted %d entries, %d bytes", tr.Entries(), tr.Bytes())
	}
	if !strings.Contains(out.String(), "Extracted 4 entries, 4.0 KiB in ") {
		t.Fatalf("no summary line:\n%s", out.String())
	}
}

func TestTrackerZeroEntries(t *testing.T) {
	var out lockedBuffer
	tr := New(&out, 0)
	tr.Start()
	tr.Stop()
	if !strings.Contains(out.String(), "Extracted 0 entries, 0 B in ") {
		t.Fatalf("summary:\n%s", out.String())
	}
}

func TestTrackerNil(t *testing.T) {
	var tr *Tracker
	tr.AddEntry()
	tr.AddBytes(10)
}

func TestWriter(t *testing.T) {
	var buf bytes.Buffer
	tr := New(&bytes.Buffer{}, 1)
	w := &Writer{W: &buf, T: tr}
	if _, err := w.Write([]byte("hello")); err != nil {
		t.Fatal(err)
	}
	if _, err := w.Write(nil); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "hello" || tr.Bytes() != 5 {
		t.Fatalf("wrote %q, counted %d", buf.String(), tr.Bytes())
	}

	untracked := &Writer{W: &buf}
	if _, err := untracked.Write([]byte("!")); err != nil {
		t.Fatal(err)
	}
}
