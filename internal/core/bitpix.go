// Package core implements the format-level building blocks of a fits
// file: the header record codec, block arithmetic, BITPIX element
// typing, and layout planning. It has no knowledge of file descriptors
// or schedulers; those live in ioengine and the root package.
package core

import (
	"fmt"

	"github.com/gofits/fits/internal/utils"
)

// Bitpix identifies the element type of an HDU's data array, mirroring
// the FITS BITPIX header keyword.
type Bitpix int

const (
	BitpixUint8   Bitpix = 8
	BitpixInt16   Bitpix = 16
	BitpixInt32   Bitpix = 32
	BitpixInt64   Bitpix = 64
	BitpixFloat32 Bitpix = -32
	BitpixFloat64 Bitpix = -64
)

// ElemSize returns the size in bytes of a single element of the given
// BITPIX type.
func ElemSize(b Bitpix) (uint64, error) {
	switch b {
	case BitpixUint8:
		return 1, nil
	case BitpixInt16:
		return 2, nil
	case BitpixInt32, BitpixFloat32:
		return 4, nil
	case BitpixInt64, BitpixFloat64:
		return 8, nil
	default:
		return 0, utils.New(utils.KindUnsupportedBitpix, bitpixContext(b))
	}
}

// Valid reports whether b is one of the six BITPIX values this library
// supports.
func (b Bitpix) Valid() bool {
	switch b {
	case BitpixUint8, BitpixInt16, BitpixInt32, BitpixInt64, BitpixFloat32, BitpixFloat64:
		return true
	default:
		return false
	}
}

func (b Bitpix) String() string {
	switch b {
	case BitpixUint8:
		return "BITPIX=8 (uint8)"
	case BitpixInt16:
		return "BITPIX=16 (int16)"
	case BitpixInt32:
		return "BITPIX=32 (int32)"
	case BitpixInt64:
		return "BITPIX=64 (int64)"
	case BitpixFloat32:
		return "BITPIX=-32 (float32)"
	case BitpixFloat64:
		return "BITPIX=-64 (float64)"
	default:
		return bitpixContext(b)
	}
}

// Visitor dispatches on an HDU's element type. Exactly one method is
// called per Apply, matching the BITPIX recorded in the HDU's header.
type Visitor interface {
	VisitUint8()
	VisitInt16()
	VisitInt32()
	VisitInt64()
	VisitFloat32()
	VisitFloat64()
}

// Apply dispatches to the Visitor method matching b, returning
// UnsupportedBitpix if b is not one of the six known values.
func Apply(b Bitpix, v Visitor) error {
	switch b {
	case BitpixUint8:
		v.VisitUint8()
	case BitpixInt16:
		v.VisitInt16()
	case BitpixInt32:
		v.VisitInt32()
	case BitpixInt64:
		v.VisitInt64()
	case BitpixFloat32:
		v.VisitFloat32()
	case BitpixFloat64:
		v.VisitFloat64()
	default:
		return utils.New(utils.KindUnsupportedBitpix, bitpixContext(b))
	}
	return nil
}

func bitpixContext(b Bitpix) string {
	return fmt.Sprintf("BITPIX=%d", int(b))
}
