package core

import (
	"errors"
	"fmt"
)

// Error kinds. Match them with errors.Is.
var (
	ErrFormat           = errors.New("invalid archive")
	ErrIO               = errors.New("i/o error")
	ErrUnsupportedCodec = errors.New("unsupported compression format")
	ErrCorruptData      = errors.New("corrupt data")
)

// FormatReason classifies a FormatError.
type FormatReason int

const (
	BadMagic FormatReason = iota
	Truncated
	OutOfBounds
)

func (r FormatReason) String() string {
	switch r {
	case BadMagic:
		return "bad magic"
	case Truncated:
		return "truncated"
	case OutOfBounds:
		return "out of bounds"
	default:
		return fmt.Sprintf("reason(%d)", int(r))
	}
}

// FormatError reports a violation of the container layout.
type FormatError struct {
	Reason FormatReason
	Detail string
}

func (e *FormatError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%s: %s", ErrFormat, e.Reason)
	}
	return fmt.Sprintf("%s: %s: %s", ErrFormat, e.Reason, e.Detail)
}

func (e *FormatError) Is(target error) bool {
	return target == ErrFormat
}

// CodecError reports a block whose type tag names no known codec.
type CodecError struct {
	Codec Codec
}

func (e *CodecError) Error() string {
	return fmt.Sprintf("%s %d", ErrUnsupportedCodec, uint8(e.Codec))
}

func (e *CodecError) Is(target error) bool {
	return target == ErrUnsupportedCodec
}

// EntryError ties a failure to the archive entry being processed.
type EntryError struct {
	ID  uint32
	Err error
}

func (e *EntryError) Error() string {
	return fmt.Sprintf("entry %08x: %v", e.ID, e.Err)
}

func (e *EntryError) Unwrap() error {
	return e.Err
}

func ioError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrIO, op, err)
}
