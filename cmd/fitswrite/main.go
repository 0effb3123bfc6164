// Command fitswrite demonstrates constructing a fits file with a single
// 2D image HDU, reporting progress with a spinner while the HDU's data
// block is filled.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/spf13/cobra"

	"github.com/gofits/fits"
)

var (
	outputPath string
	width      int
	height     int
	bitpix     int
	atomic     bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "fitswrite",
		Short: "Write a placeholder fits file with a single 2D image HDU",
		Args:  cobra.NoArgs,
		RunE:  run,
	}

	rootCmd.Flags().StringVarP(&outputPath, "output", "o", "", "path to the output file (required)")
	rootCmd.Flags().IntVar(&width, "width", 64, "NAXIS1")
	rootCmd.Flags().IntVar(&height, "height", 64, "NAXIS2")
	rootCmd.Flags().IntVar(&bitpix, "bitpix", int(fits.BitpixFloat32), "BITPIX (8, 16, 32, 64, -32, -64)")
	rootCmd.Flags().BoolVar(&atomic, "atomic", false, "publish the file atomically on close")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	if outputPath == "" {
		return fmt.Errorf("--output is required")
	}

	schema := []fits.HDUSchema{
		{Bitpix: fits.Bitpix(bitpix), Axes: []uint64{uint64(width), uint64(height)}},
	}

	var opts []fits.CreateOption
	if atomic {
		opts = append(opts, fits.WithAtomicCreate())
	}

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	s.Prefix = fmt.Sprintf("Writing %s (%dx%d)... ", outputPath, width, height)
	s.Start()
	defer s.Stop()

	w, err := fits.Create(outputPath, schema, fits.CreateTruncate, opts...)
	if err != nil {
		return fmt.Errorf("create: %w", err)
	}

	hdu, err := w.HDU(0)
	if err != nil {
		return err
	}

	elemSize, err := elementSize(fits.Bitpix(bitpix))
	if err != nil {
		return err
	}

	buf := make([]byte, uint64(width)*uint64(height)*elemSize)
	if _, err := hdu.WriteAt(buf, 0); err != nil {
		return fmt.Errorf("write data: %w", err)
	}

	if err := w.Close(); err != nil {
		return fmt.Errorf("close: %w", err)
	}

	s.Stop()
	fmt.Printf("wrote %s\n", outputPath)
	return nil
}

func elementSize(b fits.Bitpix) (uint64, error) {
	switch b {
	case fits.BitpixUint8:
		return 1, nil
	case fits.BitpixInt16:
		return 2, nil
	case fits.BitpixInt32, fits.BitpixFloat32:
		return 4, nil
	case fits.BitpixInt64, fits.BitpixFloat64:
		return 8, nil
	default:
		return 0, fmt.Errorf("unsupported bitpix %d", b)
	}
}
