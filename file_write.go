package fits

import (
	"context"
	"fmt"
	"strconv"

	"github.com/gofits/fits/internal/core"
	"github.com/gofits/fits/internal/ioengine"
	"github.com/gofits/fits/internal/utils"
	"github.com/gofits/fits/internal/writer"
)

// CreateMode specifies how to create a new fits file.
type CreateMode int

const (
	// CreateTruncate creates a new file, overwriting if it exists.
	CreateTruncate CreateMode = iota

	// CreateExclusive creates a new file, failing if it already exists.
	CreateExclusive
)

// Writer owns a fits file under construction: every HDU implied by the
// schema passed to Create is laid out and its mandatory header records
// written before Create returns.
type Writer struct {
	fw     *writer.FileWriter
	engine *ioengine.Engine
	hdus   []*HDU
	closed bool
}

// Create builds a new fits file containing one HDU per entry in
// schemas, in order. The layout of every HDU is resolved up front (see
// internal/core.PlanLayout) and each HDU's mandatory header records
// (SIMPLE, BITPIX, NAXIS, NAXISk..., EXTEND, END) are written immediately;
// callers add further header keywords through the returned HDUs'
// SetHeader before writing data.
//
// Every HDU in the sequence is treated uniformly as a primary-HDU-shaped
// record set: this library does not distinguish a conforming extension
// (XTENSION/PCOUNT/GCOUNT) from the primary HDU, matching its lack of
// table and WCS support.
func Create(filename string, schemas []core.HDUSchema, mode CreateMode, opts ...CreateOption) (*Writer, error) {
	cfg := createConfig{}
	for _, o := range opts {
		o(&cfg)
	}

	if len(schemas) == 0 {
		return nil, utils.New(utils.KindFormatError, "schema must describe at least one HDU")
	}

	plans, err := core.PlanLayout(schemas)
	if err != nil {
		return nil, err
	}

	writerMode := writer.ModeTruncate
	switch mode {
	case CreateTruncate:
		writerMode = writer.ModeTruncate
	case CreateExclusive:
		writerMode = writer.ModeExclusive
	default:
		return nil, fmt.Errorf("invalid create mode: %d", mode)
	}
	if cfg.atomic {
		writerMode = writer.ModeAtomic
	}

	fw, err := writer.NewFileWriter(filename, writerMode, 0)
	if err != nil {
		return nil, err
	}

	constructed := false
	defer func() {
		if !constructed {
			_ = fw.Abort()
		}
	}()

	engine := ioengine.NewEngine(fw.File(), cfg.queueDepth)

	hdus := make([]*HDU, len(schemas))
	for i, schema := range schemas {
		plan := plans[i]

		header := core.NewHeader()
		if err := writeMandatoryRecords(header, schema); err != nil {
			return nil, err
		}
		if err := header.EmitEnd(); err != nil {
			return nil, err
		}

		headerBytes := header.Bytes()
		if uint64(len(headerBytes)) != plan.HeaderBlockSize {
			return nil, utils.New(utils.KindFormatError, "header size does not match planned layout")
		}

		if err := fw.WriteAtAddress(headerBytes, plan.HeaderOffset); err != nil {
			return nil, err
		}

		hdus[i] = &HDU{
			header:        header,
			bitpix:        schema.Bitpix,
			axes:          schema.Axes,
			headerOffset:  plan.HeaderOffset,
			dataOffset:    plan.DataOffset,
			dataBlockSize: plan.DataBlockSize,
			engine:        engine,
		}
	}

	if err := fw.Allocator().ValidateNoOverlaps(); err != nil {
		return nil, err
	}

	if err := fw.Flush(); err != nil {
		return nil, err
	}

	constructed = true

	return &Writer{fw: fw, engine: engine, hdus: hdus}, nil
}

func writeMandatoryRecords(header *core.Header, schema core.HDUSchema) error {
	if err := header.Set("SIMPLE", "T"); err != nil {
		return err
	}
	if err := header.Set("BITPIX", strconv.Itoa(int(schema.Bitpix))); err != nil {
		return err
	}
	if err := header.Set("NAXIS", strconv.Itoa(len(schema.Axes))); err != nil {
		return err
	}
	for i, n := range schema.Axes {
		key := fmt.Sprintf("NAXIS%d", i+1)
		if err := header.Set(key, strconv.FormatUint(n, 10)); err != nil {
			return err
		}
	}
	return header.Set("EXTEND", "T")
}

// HDUs returns every HDU in file order, ready for SetHeader and
// WriteAt/AsyncWriteAt calls against their data blocks.
func (w *Writer) HDUs() []*HDU {
	out := make([]*HDU, len(w.hdus))
	copy(out, w.hdus)
	return out
}

// HDU returns the i-th HDU (0-indexed), or NotFound if i is out of
// range.
func (w *Writer) HDU(i int) (*HDU, error) {
	if i < 0 || i >= len(w.hdus) {
		return nil, utils.New(utils.KindNotFound, fmt.Sprintf("HDU index %d", i))
	}
	return w.hdus[i], nil
}

// Run drains the writer's async task queue until ctx is cancelled or
// Stop is called.
func (w *Writer) Run(ctx context.Context) error {
	return w.engine.Run(ctx)
}

// Stop signals a running Run call to return.
func (w *Writer) Stop() {
	w.engine.Stop()
}

// Flush rewrites every HDU's header block, so records added with
// SetHeader reach the file, and commits all writes made through this
// Writer's HDUs to stable storage.
func (w *Writer) Flush() error {
	for _, h := range w.hdus {
		if err := w.fw.WriteAtAddress(h.header.Bytes(), h.headerOffset); err != nil {
			return err
		}
	}
	return w.fw.Flush()
}

// Close stops the engine, flushes pending writes, publishes the file
// (a no-op unless the Writer was created with WithAtomicCreate), and
// closes the underlying file descriptor. Safe to call more than once.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true

	w.engine.Stop()

	if err := w.Flush(); err != nil {
		return err
	}

	if err := w.fw.Commit(); err != nil {
		return err
	}

	return w.fw.Close()
}
