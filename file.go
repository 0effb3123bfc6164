// Package fits provides a pure Go implementation for reading and
// writing FITS (Flexible Image Transport System) files: sequences of
// header/data units laid out on fixed 2880-byte block boundaries, with
// synchronous and asynchronous positional I/O over each HDU's data.
package fits

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/gofits/fits/internal/core"
	"github.com/gofits/fits/internal/ioengine"
	"github.com/gofits/fits/internal/utils"
)

// Reader drives sequential discovery of a fits file's HDUs and serves
// positional reads against their data blocks.
type Reader struct {
	file   *os.File
	engine *ioengine.Engine
	hdus   []*HDU
}

// Open opens filename for reading and walks its HDU sequence from
// offset 0, parsing each header and computing its data block's extent
// before moving to the next HDU.
func Open(filename string, opts ...OpenOption) (*Reader, error) {
	cfg := openConfig{}
	for _, o := range opts {
		o(&cfg)
	}

	//nolint:gosec // G304: caller-provided filename is the point of this library
	f, err := os.Open(filename)
	if err != nil {
		return nil, utils.Wrap(utils.KindIO, "open file", err)
	}

	engine := ioengine.NewEngine(f, cfg.queueDepth)
	_ = ioengine.AdviseSequential(f)

	hdus, err := scanHDUs(f, engine)
	if err != nil {
		_ = f.Close()
		return nil, err
	}

	return &Reader{file: f, engine: engine, hdus: hdus}, nil
}

// HDUs returns every HDU discovered in file order.
func (r *Reader) HDUs() []*HDU {
	out := make([]*HDU, len(r.hdus))
	copy(out, r.hdus)
	return out
}

// HDU returns the i-th HDU (0-indexed), or NotFound if i is out of
// range.
func (r *Reader) HDU(i int) (*HDU, error) {
	if i < 0 || i >= len(r.hdus) {
		return nil, utils.New(utils.KindNotFound, fmt.Sprintf("HDU index %d", i))
	}
	return r.hdus[i], nil
}

// Run drains the reader's async task queue until ctx is cancelled or
// Stop is called. Callers that never use AsyncReadAt need not call Run.
func (r *Reader) Run(ctx context.Context) error {
	return r.engine.Run(ctx)
}

// Stop signals a running Run call to return.
func (r *Reader) Stop() {
	r.engine.Stop()
}

// Close stops the engine and closes the underlying file. Safe to call
// more than once.
func (r *Reader) Close() error {
	r.engine.Stop()

	if r.file == nil {
		return nil
	}

	err := r.file.Close()
	r.file = nil
	return err
}

// scanHDUs walks f from offset 0, reading one header (possibly several
// blocks) per HDU, then skipping its data block, until f is exhausted.
func scanHDUs(f *os.File, engine *ioengine.Engine) ([]*HDU, error) {
	fi, err := f.Stat()
	if err != nil {
		return nil, utils.Wrap(utils.KindIO, "stat file", err)
	}
	size := uint64(fi.Size())

	var hdus []*HDU
	offset := uint64(0)

	for offset < size {
		header, headerBlockSize, err := readHeaderBlocks(f, offset)
		if err != nil {
			return nil, err
		}

		bitpix, axes, err := axesFromHeader(header)
		if err != nil {
			return nil, err
		}

		headerOffset := offset
		dataOffset := offset + headerBlockSize

		var dataBlockSize uint64
		if len(axes) > 0 {
			elemSize, err := core.ElemSize(bitpix)
			if err != nil {
				return nil, err
			}

			raw, err := utils.DataBlockByteSize(axes, elemSize)
			if err != nil {
				return nil, utils.Wrap(utils.KindFormatError, "invalid NAXIS values", err)
			}
			if err := utils.ValidateBufferSize(raw, utils.MaxDataBlockSize, "HDU data block"); err != nil {
				return nil, utils.Wrap(utils.KindFormatError, "NAXIS values imply an unreasonable data block", err)
			}

			dataBlockSize = core.RoundUpBlock(raw)
		}

		hdus = append(hdus, &HDU{
			header:        header,
			bitpix:        bitpix,
			axes:          axes,
			headerOffset:  headerOffset,
			dataOffset:    dataOffset,
			dataBlockSize: dataBlockSize,
			engine:        engine,
		})

		offset = dataOffset + dataBlockSize
	}

	return hdus, nil
}

// readHeaderBlocks accumulates whole blocks starting at start until
// core.ParseHeader finds END, returning the header and the number of
// bytes its blocks occupied.
func readHeaderBlocks(f *os.File, start uint64) (*core.Header, uint64, error) {
	var buf []byte
	offset := start

	for {
		block := utils.GetBuffer(core.BlockSize)
		n, err := f.ReadAt(block, int64(offset))
		if err != nil && err != io.EOF {
			utils.ReleaseBuffer(block)
			return nil, 0, utils.Wrap(utils.KindIO, "read header block", err)
		}
		if n != core.BlockSize {
			utils.ReleaseBuffer(block)
			return nil, 0, utils.New(utils.KindFormatError, "truncated header block")
		}

		buf = append(buf, block...)
		utils.ReleaseBuffer(block)
		offset += core.BlockSize

		header, perr := core.ParseHeader(buf)
		if perr == nil {
			return header, offset - start, nil
		}
		if !utils.Is(perr, utils.KindParseError) {
			return nil, 0, perr
		}
		// header spans more than one block; keep accumulating.
	}
}

func axesFromHeader(h *core.Header) (core.Bitpix, []uint64, error) {
	raw, ok := h.Lookup("BITPIX")
	if !ok {
		return 0, nil, utils.New(utils.KindFormatError, "missing BITPIX")
	}

	bp, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, nil, utils.Wrap(utils.KindParseError, "BITPIX", err)
	}

	bitpix := core.Bitpix(bp)
	if !bitpix.Valid() {
		return 0, nil, utils.New(utils.KindUnsupportedBitpix, raw)
	}

	naxisRaw, ok := h.Lookup("NAXIS")
	if !ok {
		return 0, nil, utils.New(utils.KindFormatError, "missing NAXIS")
	}

	naxis, err := strconv.Atoi(strings.TrimSpace(naxisRaw))
	if err != nil {
		return 0, nil, utils.Wrap(utils.KindParseError, "NAXIS", err)
	}

	if naxis == 0 {
		return bitpix, nil, nil
	}

	axes := make([]uint64, naxis)
	for i := 0; i < naxis; i++ {
		key := fmt.Sprintf("NAXIS%d", i+1)

		v, ok := h.Lookup(key)
		if !ok {
			return 0, nil, utils.New(utils.KindFormatError, "missing "+key)
		}

		n, err := strconv.ParseUint(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return 0, nil, utils.Wrap(utils.KindParseError, key, err)
		}

		axes[i] = n
	}

	return bitpix, axes, nil
}
