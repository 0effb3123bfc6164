package fits

import (
	"strconv"
	"strings"

	"github.com/gofits/fits/internal/core"
	"github.com/gofits/fits/internal/ioengine"
	"github.com/gofits/fits/internal/utils"
)

// dataBackend is the subset of *ioengine.Engine an HDU needs to move
// bytes in and out of its data block.
type dataBackend interface {
	ReadAt(buf []byte, offset int64) (int, error)
	WriteAt(buf []byte, offset int64) (int, error)
	AsyncReadAt(buf []byte, offset int64) (*ioengine.Future, error)
	AsyncWriteAt(buf []byte, offset int64) (*ioengine.Future, error)
}

// HDU is one header/data unit: a header record set plus, optionally, a
// block of image data. HDU data is exposed as opaque bytes; this
// library does not convert endianness or element layout on the
// caller's behalf (see the fitsmat subpackage for a numeric adapter).
type HDU struct {
	header *core.Header
	bitpix core.Bitpix
	axes   []uint64

	headerOffset  uint64
	dataOffset    uint64
	dataBlockSize uint64

	engine dataBackend
}

// Bitpix returns the HDU's element type.
func (h *HDU) Bitpix() core.Bitpix {
	return h.bitpix
}

// Axes returns the HDU's NAXISk extents, fastest-varying first. An empty
// slice means the HDU carries no data.
func (h *HDU) Axes() []uint64 {
	out := make([]uint64, len(h.axes))
	copy(out, h.axes)
	return out
}

// DataBlockSize returns the size in bytes of the HDU's data block,
// rounded up to the block boundary. Zero for a header-only HDU.
func (h *HDU) DataBlockSize() uint64 {
	return h.dataBlockSize
}

// HeaderOffset returns the file offset of the HDU's first header block.
func (h *HDU) HeaderOffset() uint64 {
	return h.headerOffset
}

// DataOffset returns the file offset of the HDU's data block.
func (h *HDU) DataOffset() uint64 {
	return h.dataOffset
}

// GetHeader returns the value bound to keyword, or a NotFound error.
func (h *HDU) GetHeader(keyword string) (string, error) {
	v, ok := h.header.Lookup(keyword)
	if !ok {
		return "", utils.New(utils.KindNotFound, "header keyword "+keyword)
	}
	return v, nil
}

// GetHeaderOpt returns the value bound to keyword and whether it was
// present, without allocating an error for the miss case.
func (h *HDU) GetHeaderOpt(keyword string) (string, bool) {
	return h.header.Lookup(keyword)
}

// HeaderRecords returns every 80-byte header record in this HDU,
// including the END sentinel, in file order.
func (h *HDU) HeaderRecords() []string {
	return h.header.Records()
}

// HeaderRecordCount returns the number of keyword records carried by
// this HDU's header, not counting END.
func (h *HDU) HeaderRecordCount() int {
	return h.header.Count()
}

// SetHeader sets keyword to value in this HDU's header. Meaningful on
// HDUs still under construction by a Writer, whose header blocks are
// rewritten in the file on the Writer's next Flush or Close; calling it
// on an HDU returned by a Reader mutates the in-memory header only, not
// the file.
func (h *HDU) SetHeader(keyword, value string) error {
	return h.header.Set(keyword, value)
}

// HeaderValue is the set of Go types Value can decode a header record
// into.
type HeaderValue interface {
	int64 | float64 | bool | string
}

// Value looks up keyword and decodes it as T, the FITS equivalent of a
// typed header accessor. Returns NotFound if keyword is absent, or
// ParseError if the stored value cannot be decoded as T.
func Value[T HeaderValue](h *HDU, keyword string) (T, error) {
	var zero T

	raw, ok := h.GetHeaderOpt(keyword)
	if !ok {
		return zero, utils.New(utils.KindNotFound, "header keyword "+keyword)
	}

	switch any(zero).(type) {
	case int64:
		v, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		if err != nil {
			return zero, utils.Wrap(utils.KindParseError, keyword, err)
		}
		return any(v).(T), nil

	case float64:
		v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return zero, utils.Wrap(utils.KindParseError, keyword, err)
		}
		return any(v).(T), nil

	case bool:
		v := strings.TrimSpace(raw) == "T"
		return any(v).(T), nil

	case string:
		return any(strings.TrimSpace(raw)).(T), nil

	default:
		return zero, utils.New(utils.KindParseError, "unsupported header value type for "+keyword)
	}
}

// Apply dispatches v's matching Visit method for this HDU's BITPIX.
func (h *HDU) Apply(v core.Visitor) error {
	return core.Apply(h.bitpix, v)
}

// ReadAt reads len(buf) bytes from the HDU's data block starting at
// byte offset. Returns OutOfBounds if the range extends past the data
// block.
func (h *HDU) ReadAt(buf []byte, offset uint64) (int, error) {
	if err := h.checkRange(offset, uint64(len(buf))); err != nil {
		return 0, err
	}
	return h.engine.ReadAt(buf, int64(h.dataOffset+offset))
}

// WriteAt writes buf into the HDU's data block starting at byte
// offset. Returns OutOfBounds if the range extends past the data
// block.
func (h *HDU) WriteAt(buf []byte, offset uint64) (int, error) {
	if err := h.checkRange(offset, uint64(len(buf))); err != nil {
		return 0, err
	}
	return h.engine.WriteAt(buf, int64(h.dataOffset+offset))
}

// AsyncReadAt is the async counterpart of ReadAt.
func (h *HDU) AsyncReadAt(buf []byte, offset uint64) (*ioengine.Future, error) {
	if err := h.checkRange(offset, uint64(len(buf))); err != nil {
		return nil, err
	}
	return h.engine.AsyncReadAt(buf, int64(h.dataOffset+offset))
}

// AsyncWriteAt is the async counterpart of WriteAt.
func (h *HDU) AsyncWriteAt(buf []byte, offset uint64) (*ioengine.Future, error) {
	if err := h.checkRange(offset, uint64(len(buf))); err != nil {
		return nil, err
	}
	return h.engine.AsyncWriteAt(buf, int64(h.dataOffset+offset))
}

// ReadData reads len(buf) bytes starting at the element addressed by
// index, the index-addressed counterpart of ReadAt. index may supply
// fewer entries than Axes, addressing the start of the sub-slab fixed
// by the given leading axes. Returns OutOfBounds if index exceeds the
// HDU's shape or the read would extend past the data block.
func (h *HDU) ReadData(index []uint64, buf []byte) (int, error) {
	offset, err := h.byteOffset(index)
	if err != nil {
		return 0, err
	}
	return h.ReadAt(buf, offset)
}

// WriteData writes buf starting at the element addressed by index, the
// index-addressed counterpart of WriteAt.
func (h *HDU) WriteData(index []uint64, buf []byte) (int, error) {
	offset, err := h.byteOffset(index)
	if err != nil {
		return 0, err
	}
	return h.WriteAt(buf, offset)
}

// AsyncReadData is the async counterpart of ReadData.
func (h *HDU) AsyncReadData(index []uint64, buf []byte) (*ioengine.Future, error) {
	offset, err := h.byteOffset(index)
	if err != nil {
		return nil, err
	}
	return h.AsyncReadAt(buf, offset)
}

// AsyncWriteData is the async counterpart of WriteData.
func (h *HDU) AsyncWriteData(index []uint64, buf []byte) (*ioengine.Future, error) {
	offset, err := h.byteOffset(index)
	if err != nil {
		return nil, err
	}
	return h.AsyncWriteAt(buf, offset)
}

// byteOffset computes index's byte offset within this HDU's data block
// via the element-shape/stride arithmetic in internal/core, the only
// place that math is allowed to live.
func (h *HDU) byteOffset(index []uint64) (uint64, error) {
	elemSize, err := core.ElemSize(h.bitpix)
	if err != nil {
		return 0, err
	}
	return core.OffsetOf(h.axes, index, elemSize)
}

func (h *HDU) checkRange(offset, size uint64) error {
	if offset+size > h.dataBlockSize {
		return utils.New(utils.KindOutOfBounds, "data access exceeds HDU data block")
	}
	return nil
}
