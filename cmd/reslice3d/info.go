package main

import (
	"fmt"
	"image/png"
	"os"

	"github.com/spf13/cobra"

	"github.com/fedormsv/reslice3d/internal/preview"
	"github.com/fedormsv/reslice3d/internal/volio"
)

var (
	infoPreviewZ         int
	infoPreviewOut       string
	infoPreviewComponent int
	infoPreviewAxisSwap  bool
)

var infoCmd = &cobra.Command{
	Use:   "info <input.rsv>",
	Short: "Print a volume's geometry and optionally render a Z-slice preview",
	Args:  cobra.ExactArgs(1),
	RunE:  runInfo,
}

func init() {
	infoCmd.Flags().IntVar(&infoPreviewZ, "preview-z", -1, "Z index to render as a PNG preview (-1 = no preview)")
	infoCmd.Flags().StringVar(&infoPreviewOut, "preview-out", "preview.png", "path to write the PNG preview")
	infoCmd.Flags().IntVar(&infoPreviewComponent, "preview-component", 0, "scalar component to preview")
	infoCmd.Flags().BoolVar(&infoPreviewAxisSwap, "preview-axis-swap", false, "transpose the preview's X/Y display axes")
	rootCmd.AddCommand(infoCmd)
}

func runInfo(cmd *cobra.Command, args []string) error {
	inputPath := args[0]

	f, err := os.Open(inputPath)
	if err != nil {
		return fmt.Errorf("info: open input: %w", err)
	}
	defer f.Close()

	img, err := volio.Read(f)
	if err != nil {
		return fmt.Errorf("info: read input: %w", err)
	}

	fmt.Printf("File:        %s\n", inputPath)
	fmt.Printf("Extent:      %v\n", img.Extent)
	fmt.Printf("Dimensions:  %d x %d x %d\n", img.Extent.Dim(0), img.Extent.Dim(1), img.Extent.Dim(2))
	fmt.Printf("Spacing:     %v\n", img.Spacing)
	fmt.Printf("Origin:      %v\n", img.Origin)
	fmt.Printf("Direction:   %v\n", img.Direction)
	fmt.Printf("Scalar kind: %s\n", img.Kind.String())
	fmt.Printf("Components:  %d\n", img.NumComp)

	if infoPreviewZ < 0 {
		return nil
	}

	opts := preview.Options{Component: infoPreviewComponent}
	if infoPreviewAxisSwap {
		aff := preview.AxisSwapAffine()
		opts.Affine = &aff
	}
	slice, err := preview.Slice(img, infoPreviewZ, opts)
	if err != nil {
		return fmt.Errorf("info: render preview: %w", err)
	}

	out, err := os.Create(infoPreviewOut)
	if err != nil {
		return fmt.Errorf("info: create preview file: %w", err)
	}
	if err := png.Encode(out, slice); err != nil {
		out.Close()
		os.Remove(infoPreviewOut)
		return fmt.Errorf("info: encode preview: %w", err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("info: close preview file: %w", err)
	}

	fmt.Printf("Preview:     %s (z=%d)\n", infoPreviewOut, infoPreviewZ)
	return nil
}
