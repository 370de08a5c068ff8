package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path"
	"syscall"

	"bitextract/pkg/core"
)

var (
	workers  int
	encoding string
	quiet    bool
	list     bool
)

func init() {
	flag.IntVar(&workers, "j", 1, "Number of entries decoded in parallel.")
	flag.StringVar(&encoding, "z", "none", "Re-encode extracted files: none, lz4 or zstd.")
	flag.BoolVar(&quiet, "q", false, "Suppress status output.")
	flag.BoolVar(&list, "l", false, "List the entry table instead of extracting.")
	flag.Usage = printUsage
}

func main() {
	os.Exit(run())
}

func run() int {
	flag.Parse()
	args := flag.Args()

	if list {
		// The output directory is accepted and ignored when listing.
		if len(args) < 1 || len(args) > 2 {
			printUsage()
			return 0
		}
		if err := handleList(args[0]); err != nil {
			return fail(err)
		}
		return 0
	}
	if len(args) != 2 {
		printUsage()
		return 0
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := handleExtract(ctx, args[0], args[1]); err != nil {
		return fail(err)
	}
	return 0
}

// printUsage prints the command-line usage information
func printUsage() {
	name := path.Base(os.Args[0])
	fmt.Println("Usage:")
	fmt.Printf("  %s [flags] input.bit directory\n", name)
	fmt.Printf("  %s -l input.bit\n", name)
	fmt.Println("Flags:")
	flag.CommandLine.SetOutput(os.Stdout)
	flag.PrintDefaults()
}

func fail(err error) int {
	_, _ = fmt.Fprintf(os.Stderr, "%s: Error: %s\n", path.Base(os.Args[0]), err)
	return 1
}

// handleExtract handles the extraction operation
func handleExtract(ctx context.Context, input, outputDir string) error {
	enc, err := core.ParseEncoding(encoding)
	if err != nil {
		return err
	}
	return core.Extract(ctx, input, outputDir, &core.ExtractOptions{
		Workers:  workers,
		Encoding: enc,
		Quiet:    quiet,
	})
}

// handleList prints the header and entry table of an archive
func handleList(input string) error {
	a, err := core.Open(input, &core.ArchiveOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	fmt.Printf("%s revision %d, %d entries, %d bytes\n", input, a.Header.Revision, a.Header.NumEntries, a.Size())
	for _, e := range a.Entries() {
		codec := "?"
		if c, err := a.Codec(e); err == nil {
			codec = c.String()
		}
		fmt.Printf("%s codec=%s\n", e, codec)
	}
	return nil
}
