// Command reslice3d resamples a raw voxel volume onto an output grid of
// arbitrary pose, spacing, direction, extent and dimensionality.
//
// Usage:
//
//	reslice3d run [options] <input.rsv> <output.rsv>   Resample a volume
//	reslice3d info [options] <input.rsv>                Print geometry, optional PNG preview
package main

import (
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
