package progress

import (
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"
)

// Tracker reports extraction progress on a writer from a background goroutine.
// Counting methods are safe for concurrent use and accept a nil Tracker.
type Tracker struct {
	out   io.Writer
	total uint64 // Entries expected

	entries atomic.Uint64
	bytes   atomic.Uint64

	mu       sync.Mutex
	running  bool
	done     chan struct{}
	finished chan struct{}
	interval time.Duration
}

// New creates a tracker for totalEntries entries writing to out.
func New(out io.Writer, totalEntries uint64) *Tracker {
	if totalEntries == 0 {
		totalEntries = 1 // Avoid division by zero
	}
	return &Tracker{
		out:      out,
		total:    totalEntries,
		interval: 250 * time.Millisecond,
	}
}

// Start launches the reporting goroutine. Starting a running tracker is a no-op.
func (t *Tracker) Start() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.running {
		return
	}
	t.done = make(chan struct{})
	t.finished = make(chan struct{})
	t.running = true
	go t.logger()
}

// Stop ends reporting and waits for the final summary line.
func (t *Tracker) Stop() {
	t.mu.Lock()
	if !t.running {
		t.mu.Unlock()
		return
	}
	close(t.done)
	t.running = false
	finished := t.finished
	t.mu.Unlock()

	<-finished
}

// AddEntry counts one finished entry.
func (t *Tracker) AddEntry() {
	if t != nil {
		t.entries.Add(1)
	}
}

// AddBytes counts bytes written.
func (t *Tracker) AddBytes(n uint64) {
	if t != nil && n > 0 {
		t.bytes.Add(n)
	}
}

// Entries returns the number of finished entries.
func (t *Tracker) Entries() uint64 {
	return t.entries.Load()
}

// Bytes returns the number of bytes written.
func (t *Tracker) Bytes() uint64 {
	return t.bytes.Load()
}

// formatSize returns a human-readable size string
func formatSize(bytes uint64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := uint64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

// formatRate returns a human-readable rate string
func formatRate(bytesPerSec uint64) string {
	return formatSize(bytesPerSec) + "/s"
}

// logger prints a line at most once a second, or sooner on a 10% jump or on completion.
func (t *Tracker) logger() {
	defer close(t.finished)

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()
	ticksPerSecond := uint64(time.Second / t.interval)

	var prevBytes uint64
	var prevPercentage float64
	startTime := time.Now()
	lastOutputTime := startTime

	for {
		select {
		case <-ticker.C:
			currentBytes := t.bytes.Load()
			rate := (currentBytes - prevBytes) * ticksPerSecond
			prevBytes = currentBytes

			currentEntries := t.entries.Load()
			currentPercentage := float64(currentEntries) / float64(t.total) * 100

			if time.Since(lastOutputTime) >= time.Second ||
				currentPercentage-prevPercentage >= 10 ||
				(currentPercentage >= 100 && prevPercentage < 100) {

				lastOutputTime = time.Now()
				fmt.Fprintf(t.out, "Extracted %d of %d entries (%.1f%%) | %s | Rate: %s\n",
					currentEntries, t.total, currentPercentage,
					formatSize(currentBytes), formatRate(rate))
				prevPercentage = currentPercentage
			}

		case <-t.done:
			totalTime := time.Since(startTime).Seconds()
			if totalTime < 0.001 {
				totalTime = 0.001
			}
			processed := t.bytes.Load()
			fmt.Fprintf(t.out, "Extracted %d entries, %s in %.1f seconds (avg rate: %s)\n",
				t.entries.Load(), formatSize(processed), totalTime,
				formatRate(uint64(float64(processed)/totalTime)))
			return
		}
	}
}

// Writer is a writer that tracks bytes written for progress reporting
type Writer struct {
	W io.Writer
	T *Tracker
}

// Write implements io.Writer and tracks bytes written
func (pw *Writer) Write(p []byte) (n int, err error) {
	n, err = pw.W.Write(p)
	if n > 0 {
		pw.T.AddBytes(uint64(n))
	}
	return
}
