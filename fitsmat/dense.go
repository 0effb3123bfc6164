// Package fitsmat adapts 2-dimensional floating point HDUs to gonum's
// mat.Dense, doing the big-endian byte conversion the core library
// deliberately leaves to callers.
package fitsmat

import (
	"encoding/binary"
	"math"

	"github.com/gofits/fits"
	"github.com/gofits/fits/internal/utils"
	"gonum.org/v1/gonum/mat"
)

// DenseFromHDU reads a 2-dimensional float32 or float64 HDU's data
// block and decodes it into a *mat.Dense. NAXIS1 becomes the matrix's
// column count, NAXIS2 its row count, matching FITS's row-major,
// fastest-axis-first convention.
func DenseFromHDU(h *fits.HDU) (*mat.Dense, error) {
	axes := h.Axes()
	if len(axes) != 2 {
		return nil, utils.New(utils.KindFormatError, "fitsmat: HDU must be 2-dimensional")
	}

	elemSize, err := elementSize(h.Bitpix())
	if err != nil {
		return nil, err
	}

	cols := int(axes[0])
	rows := int(axes[1])

	raw := make([]byte, uint64(rows)*uint64(cols)*elemSize)
	if _, err := h.ReadAt(raw, 0); err != nil {
		return nil, err
	}

	data := make([]float64, rows*cols)
	for i := range data {
		off := i * int(elemSize)
		v, err := decodeElement(h.Bitpix(), raw[off:off+int(elemSize)])
		if err != nil {
			return nil, err
		}
		data[i] = v
	}

	return mat.NewDense(rows, cols, data), nil
}

// WriteDense encodes m into h's data block, converting float64 back to
// the HDU's BITPIX element type in big-endian order. m's dimensions
// must already match the HDU's axes (set when the HDU's schema was
// created).
func WriteDense(h *fits.HDU, m *mat.Dense) error {
	rows, cols := m.Dims()

	axes := h.Axes()
	if len(axes) != 2 || int(axes[0]) != cols || int(axes[1]) != rows {
		return utils.New(utils.KindFormatError, "fitsmat: matrix dimensions do not match HDU axes")
	}

	elemSize, err := elementSize(h.Bitpix())
	if err != nil {
		return err
	}

	buf := make([]byte, uint64(rows)*uint64(cols)*elemSize)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			idx := r*cols + c
			off := idx * int(elemSize)
			encodeElement(h.Bitpix(), buf[off:off+int(elemSize)], m.At(r, c))
		}
	}

	_, err = h.WriteAt(buf, 0)
	return err
}

func elementSize(b fits.Bitpix) (uint64, error) {
	switch b {
	case fits.BitpixFloat32:
		return 4, nil
	case fits.BitpixFloat64:
		return 8, nil
	default:
		return 0, utils.New(utils.KindUnsupportedBitpix, "fitsmat only decodes float32/float64 HDUs")
	}
}

func decodeElement(b fits.Bitpix, raw []byte) (float64, error) {
	switch b {
	case fits.BitpixFloat32:
		return float64(math.Float32frombits(binary.BigEndian.Uint32(raw))), nil
	case fits.BitpixFloat64:
		return math.Float64frombits(binary.BigEndian.Uint64(raw)), nil
	default:
		return 0, utils.New(utils.KindUnsupportedBitpix, "fitsmat only decodes float32/float64 HDUs")
	}
}

func encodeElement(b fits.Bitpix, dst []byte, v float64) {
	switch b {
	case fits.BitpixFloat32:
		binary.BigEndian.PutUint32(dst, math.Float32bits(float32(v)))
	case fits.BitpixFloat64:
		binary.BigEndian.PutUint64(dst, math.Float64bits(v))
	}
}
