// Package utils provides shared helpers (error wrapping, buffer pooling,
// overflow-safe arithmetic) for the fits library.
package utils

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a FITSError per the library's stable error taxonomy.
type ErrorKind int

const (
	// KindNotFound indicates a header keyword missing on required lookup.
	KindNotFound ErrorKind = iota
	// KindOutOfBounds indicates an index or value exceeds an HDU's shape,
	// or would overflow its data block.
	KindOutOfBounds
	// KindHeaderFull indicates a header record was added with no
	// remaining slot in the 2880-byte header block.
	KindHeaderFull
	// KindParseError indicates a numeric conversion from a header string
	// to the requested type failed.
	KindParseError
	// KindFormatError indicates a structural violation while reading
	// (missing END, truncated block, unsupported BITPIX).
	KindFormatError
	// KindUnsupportedBitpix indicates a visitor dispatched on a BITPIX
	// value outside the supported set.
	KindUnsupportedBitpix
	// KindIO indicates an underlying file-system or kernel error.
	KindIO
	// KindCancelled indicates an operation aborted via an executor Stop.
	KindCancelled
)

// String returns the taxonomy name used in error messages.
func (k ErrorKind) String() string {
	switch k {
	case KindNotFound:
		return "NotFound"
	case KindOutOfBounds:
		return "OutOfBounds"
	case KindHeaderFull:
		return "HeaderFull"
	case KindParseError:
		return "ParseError"
	case KindFormatError:
		return "FormatError"
	case KindUnsupportedBitpix:
		return "UnsupportedBitpix"
	case KindIO:
		return "IO"
	case KindCancelled:
		return "Cancelled"
	default:
		return "Unknown"
	}
}

// FITSError is a structured error carrying a stable Kind, a human context
// string and, optionally, a wrapped cause.
type FITSError struct {
	Kind    ErrorKind
	Context string
	Cause   error
}

// Error implements the error interface.
func (e *FITSError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("%s: %s", e.Kind, e.Context)
	}
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Context, e.Cause)
}

// Unwrap provides compatibility with errors.Unwrap().
func (e *FITSError) Unwrap() error {
	return e.Cause
}

// New creates a FITSError with no wrapped cause.
func New(kind ErrorKind, context string) error {
	return &FITSError{Kind: kind, Context: context}
}

// Wrap creates a contextual FITSError. Returns nil if cause is nil, so
// callers can write `return utils.Wrap(kind, ctx, err)` directly after a
// call that might return a nil error.
func Wrap(kind ErrorKind, context string, cause error) error {
	if cause == nil {
		return nil
	}
	return &FITSError{Kind: kind, Context: context, Cause: cause}
}

// Is reports whether err is a FITSError of the given kind.
func Is(err error, kind ErrorKind) bool {
	var fe *FITSError
	if errors.As(err, &fe) {
		return fe.Kind == kind
	}
	return false
}
