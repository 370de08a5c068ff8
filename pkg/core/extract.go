package core

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"bitextract/pkg/progress"

	"golang.org/x/sync/errgroup"
)

// ExtractOptions configures Extract and ExtractTo.
type ExtractOptions struct {
	// Workers is the number of entries decoded at once. Values <= 1 extract
	// sequentially in table order.
	Workers int
	// Encoding is applied to every output file by Extract.
	Encoding Encoding
	// Quiet suppresses status lines and progress reports.
	Quiet bool
	// Log receives status lines; nil means os.Stdout.
	Log io.Writer
}

// DefaultExtractOptions returns sequential extraction of plain files with status output.
func DefaultExtractOptions() *ExtractOptions {
	return &ExtractOptions{Workers: 1, Encoding: EncodingNone}
}

// syncWriter serializes status lines from workers and the progress goroutine.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}

// Extract unpacks every entry of the archive at input into outputDir,
// creating the directory if needed. Options nil means DefaultExtractOptions.
func Extract(ctx context.Context, input, outputDir string, opts *ExtractOptions) error {
	if opts == nil {
		opts = DefaultExtractOptions()
	}

	a, err := Open(input, &ArchiveOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	sink, err := NewDirSink(outputDir, opts.Encoding)
	if err != nil {
		return err
	}
	return a.ExtractTo(ctx, sink, opts)
}

// ExtractTo decodes every entry and hands it to sink. The first failure stops
// the run; entries already handed over stay where they are.
func (a *Archive) ExtractTo(ctx context.Context, sink Sink, opts *ExtractOptions) error {
	if opts == nil {
		opts = DefaultExtractOptions()
	}

	var out io.Writer = os.Stdout
	if opts.Log != nil {
		out = opts.Log
	}
	if opts.Quiet {
		out = io.Discard
	}
	log := &syncWriter{w: out}

	tracker := progress.New(log, uint64(len(a.entries)))
	tracker.Start()
	defer tracker.Stop()

	// A DirSink without its own tracker reports the bytes it writes to disk.
	countDecoded := true
	if ds, ok := sink.(*DirSink); ok && ds.Progress == nil {
		counted := *ds
		counted.Progress = tracker
		sink = &counted
		countDecoded = false
	}

	x := &extractor{a: a, sink: sink, log: log, tracker: tracker, countDecoded: countDecoded}
	var err error
	if opts.Workers <= 1 {
		err = x.sequential(ctx)
	} else {
		err = x.parallel(ctx, opts.Workers)
	}
	if err != nil {
		return err
	}

	tracker.Stop()
	fmt.Fprintf(log, "\nDone!\n")
	return nil
}

type extractor struct {
	a       *Archive
	sink    Sink
	log     io.Writer
	tracker *progress.Tracker

	countDecoded bool // Count decoded bytes; false when the sink counts written bytes
}

func (x *extractor) sequential(ctx context.Context) error {
	for _, e := range x.a.entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := x.entry(ctx, e); err != nil {
			return &EntryError{ID: e.ID, Err: err}
		}
	}
	return nil
}

// parallel checks every entry's bounds and codec tag before any output is
// written, then decodes entries on a bounded pool. The first failure cancels
// the remaining entries.
func (x *extractor) parallel(ctx context.Context, workers int) error {
	for _, e := range x.a.entries {
		codec, err := x.a.Codec(e)
		if err != nil {
			return &EntryError{ID: e.ID, Err: err}
		}
		if !codec.Valid() {
			return &EntryError{ID: e.ID, Err: &CodecError{Codec: codec}}
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, e := range x.a.entries {
		if gctx.Err() != nil {
			break
		}
		e := e
		g.Go(func() error {
			if err := x.entry(gctx, e); err != nil {
				return &EntryError{ID: e.ID, Err: err}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

// entry reads, decodes and stores one entry. Nothing is written unless the
// whole block decodes.
func (x *extractor) entry(ctx context.Context, e Entry) error {
	block, err := x.a.ReadBlock(e)
	if err != nil {
		return err
	}
	if len(block) == 0 {
		return fmt.Errorf("%w: empty block", ErrCorruptData)
	}
	if codec := Codec(block[0]); !codec.Valid() {
		return &CodecError{Codec: codec}
	}

	fmt.Fprintf(x.log, "Extracting %s...\n", x.describe(e))
	data, err := Decode(block)
	if err != nil {
		return err
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	if err := x.sink.Put(e.ID, data); err != nil {
		return err
	}
	x.tracker.AddEntry()
	if x.countDecoded {
		x.tracker.AddBytes(uint64(len(data)))
	}
	return nil
}

func (x *extractor) describe(e Entry) string {
	if ds, ok := x.sink.(*DirSink); ok {
		return ds.Path(e.ID)
	}
	return e.Name()
}
