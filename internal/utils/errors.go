// Package utils provides shared plumbing for the format engines:
// contextual errors, little-endian stream I/O, and pooled buffers.
package utils

import (
	"errors"
	"fmt"
)

// Error kinds surfaced by both engines. Callers test them with errors.Is.
var (
	// ErrFormat covers wrong magic, wrong version, non-zero reserved
	// bytes, unexpected sentinels, and out-of-alphabet path characters.
	ErrFormat = errors.New("format violation")

	// ErrIntegrity covers checksum mismatches between stored and
	// recomputed digests.
	ErrIntegrity = errors.New("integrity failure")

	// ErrDanglingReference covers object references that resolve to no
	// object and are not the dangling sentinel.
	ErrDanglingReference = errors.New("dangling reference")

	// ErrShortIO covers short reads and writes from the byte source/sink.
	ErrShortIO = errors.New("short read/write")

	// ErrTableFull covers interning tables whose next index would
	// exceed the uint32 range.
	ErrTableFull = errors.New("table index exceeds uint32 range")

	// ErrNotImplemented covers type tags that exist in the wire enum
	// but have no codec.
	ErrNotImplemented = errors.New("not implemented")
)

// FmtError is a structured error carrying a context string and a cause.
type FmtError struct {
	Context string
	Cause   error
}

// Error implements the error interface.
func (e *FmtError) Error() string {
	return fmt.Sprintf("%s: %v", e.Context, e.Cause)
}

// Unwrap provides compatibility with errors.Is and errors.As.
func (e *FmtError) Unwrap() error {
	return e.Cause
}

// WrapError creates a contextual error. A nil cause yields nil.
func WrapError(context string, cause error) error {
	if cause == nil {
		return nil
	}
	return &FmtError{
		Context: context,
		Cause:   cause,
	}
}

// Violation reports a format violation at a stream offset.
func Violation(offset int64, format string, args ...any) error {
	return WrapError(fmt.Sprintf("offset 0x%X: %s", offset, fmt.Sprintf(format, args...)), ErrFormat)
}
