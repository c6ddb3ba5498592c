package main

import (
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/fedormsv/reslice3d"
	"github.com/fedormsv/reslice3d/internal/volio"
)

var (
	runConfigPath      string
	runInterpolation   string
	runBorderMode      string
	runSlabMode        string
	runSlabSlices      int
	runScalarScale     float64
	runScalarShift     float64
	runAutoCrop        bool
	runOptimization    bool
	runGenerateStencil bool
)

var runCmd = &cobra.Command{
	Use:   "run <input.rsv> <output.rsv>",
	Short: "Resample a volume and write the result",
	Args:  cobra.ExactArgs(2),
	RunE:  runResample,
}

func init() {
	runCmd.Flags().StringVar(&runConfigPath, "config", "", "YAML config (see Config/FromParameters); CLI flags override it")
	runCmd.Flags().StringVar(&runInterpolation, "interpolation", "", "nearest, linear or cubic (default: config or nearest)")
	runCmd.Flags().StringVar(&runBorderMode, "border", "", "clamp, repeat or mirror (default: config or clamp)")
	runCmd.Flags().StringVar(&runSlabMode, "slab-mode", "", "mean, min, max or sum (default: config or mean)")
	runCmd.Flags().IntVar(&runSlabSlices, "slab-slices", 0, "number of parallel slab samples (0 = unchanged)")
	runCmd.Flags().Float64Var(&runScalarScale, "scalar-scale", 0, "output = sample*scale + shift (0 = unchanged)")
	runCmd.Flags().Float64Var(&runScalarShift, "scalar-shift", 0, "output = sample*scale + shift")
	runCmd.Flags().BoolVar(&runAutoCrop, "auto-crop", false, "crop the output extent to the transformed input bounds")
	runCmd.Flags().BoolVar(&runOptimization, "optimization", true, "allow the nearest-safe and permute-path fast paths")
	runCmd.Flags().BoolVar(&runGenerateStencil, "stencil", false, "log the run-length coverage of the generated stencil")
	rootCmd.AddCommand(runCmd)
}

func runResample(cmd *cobra.Command, args []string) error {
	inputPath, outputPath := args[0], args[1]
	passID := uuid.New().String()
	log := logger.With("pass_id", passID)

	params, err := resolveRunParameters()
	if err != nil {
		return fmt.Errorf("run: %w", err)
	}
	if cmd.Flags().Changed("auto-crop") {
		params.AutoCropOutput = runAutoCrop
	}
	if cmd.Flags().Changed("optimization") {
		params.Optimization = runOptimization
	}
	if cmd.Flags().Changed("stencil") {
		params.GenerateStencilOutput = runGenerateStencil
	}

	in, err := os.Open(inputPath)
	if err != nil {
		return fmt.Errorf("run: open input: %w", err)
	}
	defer in.Close()

	input, err := volio.Read(in)
	if err != nil {
		return fmt.Errorf("run: read input: %w", err)
	}
	log.Info("loaded input", "path", inputPath, "extent", input.Extent, "kind", input.Kind.String())

	filter := reslice3d.NewFilter()
	filter.SetParameters(params)

	start := time.Now()
	output, stencilOut, err := filter.Execute(input)
	if err != nil {
		return fmt.Errorf("run: execute: %w", err)
	}
	elapsed := time.Since(start)

	if stencilOut != nil {
		covered := 0
		for z := output.Extent[4]; z <= output.Extent[5]; z++ {
			for y := output.Extent[2]; y <= output.Extent[3]; y++ {
				for _, run := range stencilOut.Rows(y, z) {
					covered += run.XHi - run.XLo + 1
				}
			}
		}
		log.Info("stencil coverage", "covered_voxels", covered)
	}

	out, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("run: create output: %w", err)
	}
	if err := volio.Write(out, output); err != nil {
		out.Close()
		os.Remove(outputPath)
		return fmt.Errorf("run: write output: %w", err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("run: close output: %w", err)
	}

	log.Info("resample complete",
		"elapsed", elapsed,
		"output_extent", output.Extent,
		"output_path", outputPath,
	)
	return nil
}

// resolveRunParameters starts from a config file (if given) or defaults,
// then layers explicit CLI flags on top.
func resolveRunParameters() (reslice3d.Parameters, error) {
	base := reslice3d.DefaultParameters()
	if runConfigPath != "" {
		cfg, err := reslice3d.LoadConfig(runConfigPath)
		if err != nil {
			return reslice3d.Parameters{}, err
		}
		base, err = cfg.ToParameters(base)
		if err != nil {
			return reslice3d.Parameters{}, err
		}
	}

	if runInterpolation != "" {
		mode, ok := parseInterpolationFlag(runInterpolation)
		if !ok {
			return reslice3d.Parameters{}, fmt.Errorf("unknown --interpolation %q", runInterpolation)
		}
		base.InterpolationMode = mode
	}
	if runBorderMode != "" {
		mode, ok := parseBorderFlag(runBorderMode)
		if !ok {
			return reslice3d.Parameters{}, fmt.Errorf("unknown --border %q", runBorderMode)
		}
		base.BorderMode = mode
	}
	if runSlabMode != "" {
		mode, ok := parseSlabFlag(runSlabMode)
		if !ok {
			return reslice3d.Parameters{}, fmt.Errorf("unknown --slab-mode %q", runSlabMode)
		}
		base.SlabMode = mode
	}
	if runSlabSlices > 0 {
		base.SlabNumberOfSlices = runSlabSlices
	}
	if runScalarScale != 0 {
		base.ScalarScale = runScalarScale
	}
	if runScalarShift != 0 {
		base.ScalarShift = runScalarShift
	}
	return base, nil
}

func parseInterpolationFlag(s string) (reslice3d.InterpolationMode, bool) {
	switch s {
	case "nearest":
		return reslice3d.Nearest, true
	case "linear":
		return reslice3d.Linear, true
	case "cubic":
		return reslice3d.Cubic, true
	default:
		return 0, false
	}
}

func parseBorderFlag(s string) (reslice3d.BorderMode, bool) {
	switch s {
	case "clamp":
		return reslice3d.BorderClamp, true
	case "repeat":
		return reslice3d.BorderRepeat, true
	case "mirror":
		return reslice3d.BorderMirror, true
	default:
		return 0, false
	}
}

func parseSlabFlag(s string) (reslice3d.SlabMode, bool) {
	switch s {
	case "mean":
		return reslice3d.SlabMean, true
	case "min":
		return reslice3d.SlabMin, true
	case "max":
		return reslice3d.SlabMax, true
	case "sum":
		return reslice3d.SlabSum, true
	default:
		return 0, false
	}
}
