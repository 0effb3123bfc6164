package fitsmat

import (
	"path/filepath"
	"testing"

	"github.com/gofits/fits"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestWriteDenseThenDenseFromHDU_Float64(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "mat.fits")

	w, err := fits.Create(path, []fits.HDUSchema{
		{Bitpix: fits.BitpixFloat64, Axes: []uint64{3, 2}},
	}, fits.CreateTruncate)
	require.NoError(t, err)

	hdu, err := w.HDU(0)
	require.NoError(t, err)

	want := mat.NewDense(2, 3, []float64{
		1, 2, 3,
		4, 5, 6,
	})
	require.NoError(t, WriteDense(hdu, want))
	require.NoError(t, w.Close())

	r, err := fits.Open(path)
	require.NoError(t, err)
	defer func() { _ = r.Close() }()

	readHDU, err := r.HDU(0)
	require.NoError(t, err)

	got, err := DenseFromHDU(readHDU)
	require.NoError(t, err)
	assert.True(t, mat.Equal(want, got))
}

func TestWriteDenseThenDenseFromHDU_Float32(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "mat32.fits")

	w, err := fits.Create(path, []fits.HDUSchema{
		{Bitpix: fits.BitpixFloat32, Axes: []uint64{2, 2}},
	}, fits.CreateTruncate)
	require.NoError(t, err)

	hdu, err := w.HDU(0)
	require.NoError(t, err)

	want := mat.NewDense(2, 2, []float64{0.5, -1.25, 3.75, 100})
	require.NoError(t, WriteDense(hdu, want))
	require.NoError(t, w.Close())

	r, err := fits.Open(path)
	require.NoError(t, err)
	defer func() { _ = r.Close() }()

	readHDU, err := r.HDU(0)
	require.NoError(t, err)

	got, err := DenseFromHDU(readHDU)
	require.NoError(t, err)
	assert.True(t, mat.Equal(want, got))
}

func TestDenseFromHDU_RejectsNonFloat(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "int.fits")

	w, err := fits.Create(path, []fits.HDUSchema{
		{Bitpix: fits.BitpixInt16, Axes: []uint64{2, 2}},
	}, fits.CreateTruncate)
	require.NoError(t, err)
	defer func() { _ = w.Close() }()

	hdu, err := w.HDU(0)
	require.NoError(t, err)

	_, err = DenseFromHDU(hdu)
	require.Error(t, err)
	assert.True(t, fits.IsKind(err, fits.KindUnsupportedBitpix))
}

func TestDenseFromHDU_RejectsWrongDimensionality(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "cube.fits")

	w, err := fits.Create(path, []fits.HDUSchema{
		{Bitpix: fits.BitpixFloat32, Axes: []uint64{2, 2, 2}},
	}, fits.CreateTruncate)
	require.NoError(t, err)
	defer func() { _ = w.Close() }()

	hdu, err := w.HDU(0)
	require.NoError(t, err)

	_, err = DenseFromHDU(hdu)
	require.Error(t, err)
	assert.True(t, fits.IsKind(err, fits.KindFormatError))
}

func TestWriteDense_RejectsDimensionMismatch(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "mismatch.fits")

	w, err := fits.Create(path, []fits.HDUSchema{
		{Bitpix: fits.BitpixFloat64, Axes: []uint64{3, 2}},
	}, fits.CreateTruncate)
	require.NoError(t, err)
	defer func() { _ = w.Close() }()

	hdu, err := w.HDU(0)
	require.NoError(t, err)

	wrong := mat.NewDense(5, 5, nil)
	err = WriteDense(hdu, wrong)
	require.Error(t, err)
	assert.True(t, fits.IsKind(err, fits.KindFormatError))
}
