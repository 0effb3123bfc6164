package writer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFileWriter(t *testing.T) {
	tmpDir := t.TempDir()

	tests := []struct {
		name          string
		filename      string
		mode          CreateMode
		initialOffset uint64
		wantErr       bool
		setupExisting bool
	}{
		{
			name:          "create new file truncate mode",
			filename:      "test1.fits",
			mode:          ModeTruncate,
			initialOffset: 0,
		},
		{
			name:          "create new file exclusive mode",
			filename:      "test2.fits",
			mode:          ModeExclusive,
			initialOffset: 0,
		},
		{
			name:          "truncate existing file",
			filename:      "test3.fits",
			mode:          ModeTruncate,
			initialOffset: 0,
			setupExisting: true,
		},
		{
			name:          "exclusive mode fails on existing",
			filename:      "test4.fits",
			mode:          ModeExclusive,
			initialOffset: 0,
			setupExisting: true,
			wantErr:       true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(tmpDir, tt.filename)

			if tt.setupExisting {
				f, err := os.Create(path)
				require.NoError(t, err)
				_, err = f.WriteString("existing content")
				require.NoError(t, err)
				f.Close()
			}

			writer, err := NewFileWriter(path, tt.mode, tt.initialOffset)

			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, writer)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, writer)
			defer writer.Close()

			assert.NotNil(t, writer.File())
			assert.Equal(t, tt.initialOffset, writer.EndOfFile())

			_, err = os.Stat(path)
			assert.NoError(t, err)
		})
	}
}

func TestFileWriter_Allocate(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "test.fits")

	writer, err := NewFileWriter(path, ModeTruncate, 0)
	require.NoError(t, err)
	defer writer.Close()

	t.Run("sequential allocations", func(t *testing.T) {
		addr1, err := writer.Allocate(2880)
		require.NoError(t, err)
		assert.Equal(t, uint64(0), addr1)
		assert.Equal(t, uint64(2880), writer.EndOfFile())

		addr2, err := writer.Allocate(5760)
		require.NoError(t, err)
		assert.Equal(t, uint64(2880), addr2)
		assert.Equal(t, uint64(8640), writer.EndOfFile())
	})

	t.Run("zero size allocation fails", func(t *testing.T) {
		_, err := writer.Allocate(0)
		assert.Error(t, err)
	})
}

func TestFileWriter_WriteAt(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "test.fits")

	writer, err := NewFileWriter(path, ModeTruncate, 0)
	require.NoError(t, err)
	defer writer.Close()

	t.Run("write data at address", func(t *testing.T) {
		data := []byte("SIMPLE  =                    T")
		addr, err := writer.Allocate(uint64(len(data)))
		require.NoError(t, err)

		n, err := writer.WriteAt(data, int64(addr))
		require.NoError(t, err)
		assert.Equal(t, len(data), n)

		buf := make([]byte, len(data))
		n, err = writer.ReadAt(buf, int64(addr))
		require.NoError(t, err)
		assert.Equal(t, len(data), n)
		assert.Equal(t, data, buf)
	})

	t.Run("write empty data", func(t *testing.T) {
		n, err := writer.WriteAt([]byte{}, 0)
		assert.NoError(t, err)
		assert.Equal(t, 0, n)
	})

	t.Run("write at specific address", func(t *testing.T) {
		data := []byte{0x01, 0x02, 0x03, 0x04}
		addr, _ := writer.Allocate(uint64(len(data)))

		n, err := writer.WriteAt(data, int64(addr))
		require.NoError(t, err)
		assert.Equal(t, len(data), n)

		buf := make([]byte, len(data))
		_, err = writer.ReadAt(buf, int64(addr))
		require.NoError(t, err)
		assert.Equal(t, data, buf)
	})
}

func TestFileWriter_WriteAtWithAllocation(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "test.fits")

	writer, err := NewFileWriter(path, ModeTruncate, 0)
	require.NoError(t, err)
	defer writer.Close()

	t.Run("allocate and write", func(t *testing.T) {
		data := []byte("header record payload")

		addr, err := writer.WriteAtWithAllocation(data)
		require.NoError(t, err)
		assert.Equal(t, uint64(0), addr)

		buf := make([]byte, len(data))
		_, err = writer.ReadAt(buf, int64(addr))
		require.NoError(t, err)
		assert.Equal(t, data, buf)
	})

	t.Run("empty data fails", func(t *testing.T) {
		_, err := writer.WriteAtWithAllocation([]byte{})
		assert.Error(t, err)
	})

	t.Run("multiple writes", func(t *testing.T) {
		data1 := []byte("First")
		data2 := []byte("Second")

		addr1, err := writer.WriteAtWithAllocation(data1)
		require.NoError(t, err)

		addr2, err := writer.WriteAtWithAllocation(data2)
		require.NoError(t, err)

		assert.Equal(t, addr1+uint64(len(data1)), addr2)

		buf1 := make([]byte, len(data1))
		_, err = writer.ReadAt(buf1, int64(addr1))
		require.NoError(t, err)
		assert.Equal(t, data1, buf1)

		buf2 := make([]byte, len(data2))
		_, err = writer.ReadAt(buf2, int64(addr2))
		require.NoError(t, err)
		assert.Equal(t, data2, buf2)
	})
}

func TestFileWriter_Flush(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "test.fits")

	writer, err := NewFileWriter(path, ModeTruncate, 0)
	require.NoError(t, err)
	defer writer.Close()

	data := []byte("Test flush")
	addr, err := writer.WriteAtWithAllocation(data)
	require.NoError(t, err)

	err = writer.Flush()
	require.NoError(t, err)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	buf := make([]byte, len(data))
	n, err := f.ReadAt(buf, int64(addr))
	require.NoError(t, err)
	assert.Equal(t, len(data), n)
	assert.Equal(t, data, buf)
}

func TestFileWriter_Close(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "test.fits")

	writer, err := NewFileWriter(path, ModeTruncate, 0)
	require.NoError(t, err)

	err = writer.Close()
	assert.NoError(t, err)

	err = writer.Close()
	assert.NoError(t, err)

	_, err = writer.Allocate(100)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "closed")

	_, err = writer.WriteAt([]byte("test"), 0)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "closed")

	err = writer.Flush()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "closed")
}

func TestFileWriter_EndOfFile(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "test.fits")

	tests := []struct {
		name          string
		initialOffset uint64
		writes        []int
		expectedEOF   uint64
	}{
		{name: "no writes", initialOffset: 0, writes: []int{}, expectedEOF: 0},
		{name: "single write", initialOffset: 2880, writes: []int{100}, expectedEOF: 2980},
		{name: "multiple writes", initialOffset: 2880, writes: []int{100, 200, 50}, expectedEOF: 3230},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			writer, err := NewFileWriter(path, ModeTruncate, tt.initialOffset)
			require.NoError(t, err)
			defer writer.Close()

			for _, size := range tt.writes {
				data := make([]byte, size)
				_, err := writer.WriteAtWithAllocation(data)
				require.NoError(t, err)
			}

			assert.Equal(t, tt.expectedEOF, writer.EndOfFile())
		})
	}
}

func TestFileWriter_Integration(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "integration.fits")

	t.Run("complete write workflow", func(t *testing.T) {
		writer, err := NewFileWriter(path, ModeTruncate, 0)
		require.NoError(t, err)

		block1 := []byte("header block bytes padded out.." + string(make([]byte, 2880-32)))
		addr1, err := writer.WriteAtWithAllocation(block1)
		require.NoError(t, err)

		block2 := []byte("data block with pixel payload..")
		addr2, err := writer.WriteAtWithAllocation(block2)
		require.NoError(t, err)

		block3 := []byte("trailer")
		addr3, err := writer.WriteAtWithAllocation(block3)
		require.NoError(t, err)

		expectedEOF := uint64(len(block1)) + uint64(len(block2)) + uint64(len(block3))
		assert.Equal(t, expectedEOF, writer.EndOfFile())

		err = writer.Allocator().ValidateNoOverlaps()
		assert.NoError(t, err)

		err = writer.Flush()
		require.NoError(t, err)
		err = writer.Close()
		require.NoError(t, err)

		f, err := os.Open(path)
		require.NoError(t, err)
		defer f.Close()

		buf1 := make([]byte, len(block1))
		_, err = f.ReadAt(buf1, int64(addr1))
		require.NoError(t, err)
		assert.Equal(t, block1, buf1)

		buf2 := make([]byte, len(block2))
		_, err = f.ReadAt(buf2, int64(addr2))
		require.NoError(t, err)
		assert.Equal(t, block2, buf2)

		buf3 := make([]byte, len(block3))
		_, err = f.ReadAt(buf3, int64(addr3))
		require.NoError(t, err)
		assert.Equal(t, block3, buf3)
	})
}

func TestFileWriter_AtomicCommit(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "atomic.fits")

	writer, err := NewFileWriter(path, ModeAtomic, 0)
	require.NoError(t, err)

	data := []byte("atomic payload")
	_, err = writer.WriteAtWithAllocation(data)
	require.NoError(t, err)

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err), "target path must not exist before Commit")

	require.NoError(t, writer.Flush())
	require.NoError(t, writer.Commit())

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

func TestFileWriter_AtomicAbort(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "aborted.fits")

	writer, err := NewFileWriter(path, ModeAtomic, 0)
	require.NoError(t, err)

	_, err = writer.WriteAtWithAllocation([]byte("will not be published"))
	require.NoError(t, err)

	require.NoError(t, writer.Abort())

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err), "aborted atomic write must leave no file at target path")
}
