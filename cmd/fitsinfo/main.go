// Command fitsinfo lists the HDUs in a fits file along with their
// BITPIX, axes, and header keywords.
package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/gofits/fits"
)

var showHeaders bool

func main() {
	rootCmd := &cobra.Command{
		Use:   "fitsinfo <file.fits>",
		Short: "Inspect the HDUs of a fits file",
		Args:  cobra.ExactArgs(1),
		RunE:  run,
	}
	rootCmd.Flags().BoolVarP(&showHeaders, "headers", "H", false, "print every header keyword for each HDU")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	color.NoColor = !isatty.IsTerminal(os.Stdout.Fd())

	r, err := fits.Open(args[0])
	if err != nil {
		return fmt.Errorf("open %s: %w", args[0], err)
	}
	defer func() { _ = r.Close() }()

	hdus := r.HDUs()
	label := color.New(color.FgCyan, color.Bold)

	for i, h := range hdus {
		label.Printf("HDU %d", i)
		fmt.Printf("  bitpix=%d axes=%v header_offset=%d data_offset=%d data_size=%d\n",
			h.Bitpix(), h.Axes(), h.HeaderOffset(), h.DataOffset(), h.DataBlockSize())

		if showHeaders {
			for _, rec := range h.HeaderRecords() {
				fmt.Printf("    %s\n", rec)
			}
		}
	}

	return nil
}
