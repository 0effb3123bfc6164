package core

import (
	"github.com/gofits/fits/internal/utils"
	"github.com/gofits/fits/internal/writer"
)

// BlockSize is the fits block unit: every header block and every data
// block occupies a whole multiple of this many bytes.
const BlockSize = 2880

// RoundUpBlock rounds n up to the next multiple of BlockSize. A zero
// input rounds to zero blocks, matching an HDU with no data.
func RoundUpBlock(n uint64) uint64 {
	if n == 0 {
		return 0
	}
	rem := n % BlockSize
	if rem == 0 {
		return n
	}
	return n + (BlockSize - rem)
}

// OffsetOf computes the byte offset of index within a row-major array of
// the given axes, each element elemSize bytes wide. axes and index use
// FITS axis order: axes[0] is the fastest-varying dimension. index may
// supply fewer entries than axes (a short index addresses the start of
// the sub-slab fixed by the given leading axes; trailing unspecified
// axes are treated as index 0), but never more.
func OffsetOf(axes []uint64, index []uint64, elemSize uint64) (uint64, error) {
	if len(index) > len(axes) {
		return 0, utils.New(utils.KindOutOfBounds, "index dimensionality exceeds axes")
	}

	var offset uint64
	var stride uint64 = 1

	for i, extent := range axes {
		var idx uint64
		if i < len(index) {
			idx = index[i]
		}

		if idx >= extent {
			return 0, utils.New(utils.KindOutOfBounds, "index exceeds axis extent")
		}

		step, err := utils.SafeMultiply(idx, stride)
		if err != nil {
			return 0, utils.Wrap(utils.KindOutOfBounds, "offset arithmetic overflow", err)
		}

		offset += step

		next, err := utils.SafeMultiply(stride, extent)
		if err != nil {
			return 0, utils.Wrap(utils.KindOutOfBounds, "stride arithmetic overflow", err)
		}
		stride = next
	}

	byteOffset, err := utils.SafeMultiply(offset, elemSize)
	if err != nil {
		return 0, utils.Wrap(utils.KindOutOfBounds, "byte offset overflow", err)
	}

	return byteOffset, nil
}

// HDUSchema describes one HDU's shape and header size ahead of writing,
// enough for PlanLayout to compute its offsets without touching the file.
type HDUSchema struct {
	Bitpix Bitpix
	Axes   []uint64

	// HeaderRecords reserves room for this many keyword records, not
	// counting END, so later SetHeader calls on the returned HDU don't
	// need to move data around. If it is smaller than
	// MandatoryRecordCount, the mandatory count is used instead. A
	// header never spans more than one 2880-byte block, so
	// HeaderRecords+1 (for END) past RecordsPerBlock fails PlanLayout
	// with HeaderFull.
	HeaderRecords int
}

// MandatoryRecordCount returns the number of keyword records an HDU with
// this schema carries before END: SIMPLE, BITPIX, NAXIS, one NAXISk per
// axis, and EXTEND.
func MandatoryRecordCount(schema HDUSchema) int {
	return len(schema.Axes) + 4
}

// HDUPlan is the fully resolved placement of one HDU within the file.
type HDUPlan struct {
	HeaderOffset    uint64
	HeaderBlockSize uint64
	DataOffset      uint64
	DataBlockSize   uint64
}

// PlanLayout resolves the offsets of every HDU in schema order in a
// single forward pass, reusing the sequential end-of-file allocator that
// backs ordinary file writes. Because header and data block sizes are
// fully determined by the schema, this produces the same addresses a
// writer will later use without needing to touch the file.
func PlanLayout(schemas []HDUSchema) ([]HDUPlan, error) {
	alloc := writer.NewAllocator(0)
	plans := make([]HDUPlan, len(schemas))

	for i, schema := range schemas {
		records := schema.HeaderRecords
		if mandatory := MandatoryRecordCount(schema); records < mandatory {
			records = mandatory
		}
		if records+1 > RecordsPerBlock {
			return nil, utils.New(utils.KindHeaderFull, "HDU header does not fit in one 2880-byte block")
		}
		headerBlockSize := uint64(BlockSize)

		headerOffset, err := alloc.Allocate(headerBlockSize)
		if err != nil {
			return nil, err
		}

		plan := HDUPlan{HeaderOffset: headerOffset, HeaderBlockSize: headerBlockSize}

		if len(schema.Axes) > 0 {
			elemSize, err := ElemSize(schema.Bitpix)
			if err != nil {
				return nil, err
			}

			rawSize, err := utils.DataBlockByteSize(schema.Axes, elemSize)
			if err != nil {
				return nil, utils.Wrap(utils.KindFormatError, "invalid data block shape", err)
			}

			dataBlockSize := RoundUpBlock(rawSize)
			dataOffset, err := alloc.Allocate(dataBlockSize)
			if err != nil {
				return nil, err
			}

			plan.DataOffset = dataOffset
			plan.DataBlockSize = dataBlockSize
		}

		plans[i] = plan
	}

	return plans, nil
}
