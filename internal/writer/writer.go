package writer

import (
	"fmt"
	"io"
	"os"

	"github.com/google/renameio"
)

// FileWriter owns the on-disk file being constructed and the allocator
// tracking where each block lands. It provides positional writes and, in
// atomic mode, stages the whole file under a temp name so a crash or a
// failed Commit never leaves a partially-written fits file at the target
// path.
//
// Not safe for concurrent use.
type FileWriter struct {
	file      *os.File
	pending   *renameio.PendingFile // non-nil only in ModeAtomic
	allocator *Allocator
	committed bool
}

// CreateMode specifies the file creation behavior.
type CreateMode int

const (
	// ModeTruncate creates a new file, truncating if it already exists.
	ModeTruncate CreateMode = iota

	// ModeExclusive creates a new file, failing if it already exists.
	ModeExclusive

	// ModeAtomic stages the file under a temp name in the same
	// directory and only publishes it at path via Commit. Until Commit
	// runs, no file is visible at path.
	ModeAtomic
)

// NewFileWriter opens filename for writing according to mode.
// initialOffset is the starting address for allocation, normally 0 for a
// fits file since the first HDU's header begins at the start of file.
func NewFileWriter(filename string, mode CreateMode, initialOffset uint64) (*FileWriter, error) {
	w := &FileWriter{allocator: NewAllocator(initialOffset)}

	switch mode {
	case ModeTruncate:
		f, err := os.Create(filename)
		if err != nil {
			return nil, fmt.Errorf("failed to create file: %w", err)
		}
		w.file = f

	case ModeExclusive:
		f, err := os.OpenFile(filename, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0666)
		if err != nil {
			return nil, fmt.Errorf("failed to create file: %w", err)
		}
		w.file = f

	case ModeAtomic:
		pf, err := renameio.TempFile("", filename)
		if err != nil {
			return nil, fmt.Errorf("failed to stage atomic file: %w", err)
		}
		w.pending = pf
		w.file = pf.File

	default:
		return nil, fmt.Errorf("invalid create mode: %d", mode)
	}

	return w, nil
}

// Allocate reserves size bytes at the current end of file without
// writing to it. Use WriteAtAddress to fill the reserved range.
func (w *FileWriter) Allocate(size uint64) (uint64, error) {
	if w.file == nil {
		return 0, fmt.Errorf("writer is closed")
	}

	return w.allocator.Allocate(size)
}

// WriteAt implements io.WriterAt. offset is normally an address returned
// by Allocate.
func (w *FileWriter) WriteAt(data []byte, offset int64) (int, error) {
	if w.file == nil {
		return 0, fmt.Errorf("writer is closed")
	}

	if len(data) == 0 {
		return 0, nil
	}

	n, err := w.file.WriteAt(data, offset)
	if err != nil {
		return n, fmt.Errorf("write at address %d failed: %w", offset, err)
	}

	if n != len(data) {
		return n, fmt.Errorf("incomplete write at address %d: wrote %d of %d bytes", offset, n, len(data))
	}

	return n, nil
}

// WriteAtAddress is WriteAt with a uint64 address.
func (w *FileWriter) WriteAtAddress(data []byte, addr uint64) error {
	_, err := w.WriteAt(data, int64(addr))
	return err
}

// ReadAt implements io.ReaderAt, useful for reading back a record
// immediately after writing it.
func (w *FileWriter) ReadAt(buf []byte, addr int64) (int, error) {
	if w.file == nil {
		return 0, fmt.Errorf("writer is closed")
	}

	return w.file.ReadAt(buf, addr)
}

// EndOfFile returns the address the next allocation will use.
func (w *FileWriter) EndOfFile() uint64 {
	return w.allocator.EndOfFile()
}

// Flush commits all writes to stable storage.
func (w *FileWriter) Flush() error {
	if w.file == nil {
		return fmt.Errorf("writer is closed")
	}

	return w.file.Sync()
}

// Commit publishes a ModeAtomic file at its target path. For
// ModeTruncate/ModeExclusive, Commit is a no-op: the file was already
// visible at its final path from the start.
func (w *FileWriter) Commit() error {
	if w.committed {
		return nil
	}

	if w.pending == nil {
		w.committed = true
		return nil
	}

	if err := w.pending.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("failed to publish file: %w", err)
	}

	w.committed = true
	w.pending = nil
	w.file = nil
	return nil
}

// Abort discards the writer without publishing a ModeAtomic file, or
// removes a partially-written ModeTruncate/ModeExclusive file. Call this
// when construction fails before Commit.
func (w *FileWriter) Abort() error {
	if w.committed {
		return nil
	}

	if w.pending != nil {
		err := w.pending.Cleanup()
		w.file = nil
		return err
	}

	name := ""
	if w.file != nil {
		name = w.file.Name()
		w.file.Close()
		w.file = nil
	}

	if name == "" {
		return nil
	}

	return os.Remove(name)
}

// Close closes the underlying file descriptor without publishing or
// removing anything. Callers of ModeAtomic must call Commit or Abort
// first; Close alone leaves the staged temp file on disk.
func (w *FileWriter) Close() error {
	if w.file == nil {
		return nil
	}

	err := w.file.Close()
	w.file = nil
	return err
}

// File returns the underlying *os.File. For ModeAtomic this is the
// staged temp file, not the eventual target path.
func (w *FileWriter) File() *os.File {
	return w.file
}

// Allocator returns the space allocator backing this writer.
func (w *FileWriter) Allocator() *Allocator {
	return w.allocator
}

// WriteAtWithAllocation allocates len(data) bytes and writes data there
// in one step, returning the address used.
func (w *FileWriter) WriteAtWithAllocation(data []byte) (uint64, error) {
	if len(data) == 0 {
		return 0, fmt.Errorf("cannot write empty data")
	}

	addr, err := w.Allocate(uint64(len(data)))
	if err != nil {
		return 0, err
	}

	if err := w.WriteAtAddress(data, addr); err != nil {
		return 0, err
	}

	return addr, nil
}

// Seek implements io.Seeker for compatibility with callers that expect it;
// fits addressing is otherwise purely positional.
func (w *FileWriter) Seek(offset int64, whence int) (int64, error) {
	if w.file == nil {
		return 0, fmt.Errorf("writer is closed")
	}

	return w.file.Seek(offset, whence)
}

var (
	_ io.ReaderAt = (*FileWriter)(nil)
	_ io.WriterAt = (*FileWriter)(nil)
)
