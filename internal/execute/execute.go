// Package execute drives one resampling pass: it dispatches output tiles
// across worker goroutines, and each tile runs either the general execute
// path (any index matrix, any interpolator) or the axis-aligned permute
// path (separable interpolator, permutation+scale+translation matrix).
package execute

import (
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/fedormsv/reslice3d/internal/convert"
	"github.com/fedormsv/reslice3d/internal/indexmat"
	"github.com/fedormsv/reslice3d/internal/interp"
	"github.com/fedormsv/reslice3d/internal/stencil"
	"github.com/fedormsv/reslice3d/internal/voxel"
)

// SlabParams configures multi-sample compositing along the output Z axis.
type SlabParams struct {
	NumSamples      int
	SpacingFraction float64 // fraction of output Z spacing between samples
	Mode            convert.SlabMode
	Trapezoid       bool
}

// ConvertParams configures the post-composite scalar rescale and clamp.
type ConvertParams struct {
	Shift, Scale float64
	Clamp        bool
}

// Pass bundles everything one resampling pass's tiles need, built once and
// shared read-only across worker goroutines.
type Pass struct {
	Input, Output *voxel.Image
	Matrix        indexmat.IndexMatrix
	Interp        interp.Interpolator
	Separable     interp.SeparableWeights // nil unless Interp also implements it
	UsePermute    bool

	InputStencil  stencil.Reader
	OutputStencil stencil.Writer // nil unless generate_stencil_output is set

	HitInputExtent bool
	Slab           SlabParams
	Convert        ConvertParams
	Background     []byte // one pre-converted output voxel, NumComp*scalarSize
}

// RunPass splits the output extent into tiles and executes them across up
// to numWorkers goroutines. When pass.OutputStencil is non-nil, tiles never
// split the X axis, so stencil runs for a given (Y,Z) row are always
// produced by a single tile in increasing X order.
func RunPass(pass *Pass, numWorkers int) {
	tiles := splitTiles(pass.Output.Extent, numWorkers, pass.OutputStencil == nil)

	if numWorkers > len(tiles) {
		numWorkers = len(tiles)
	}
	if numWorkers < 1 {
		numWorkers = 1
	}

	var next atomic.Int32
	var wg sync.WaitGroup
	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				i := int(next.Add(1) - 1)
				if i >= len(tiles) {
					return
				}
				ExecuteTile(pass, tiles[i])
			}
		}()
	}
	wg.Wait()
}

// DefaultWorkerCount returns GOMAXPROCS (at least 1). RunPass further caps
// the worker count at the number of tiles.
func DefaultWorkerCount() int {
	n := runtime.GOMAXPROCS(0)
	if n < 1 {
		return 1
	}
	return n
}

// splitTiles divides ext into up to n roughly equal sub-extents along Z
// (falling back to Y when Z has too little depth to split), never along X
// unless allowXSplit is true.
func splitTiles(ext voxel.Extent, n int, allowXSplit bool) []voxel.Extent {
	if n < 1 {
		n = 1
	}
	axis := 2 // Z
	if ext.Dim(2) < n && ext.Dim(1) >= n {
		axis = 1
	}
	if ext.Dim(axis) < n {
		if allowXSplit && ext.Dim(0) > ext.Dim(axis) {
			axis = 0
		}
	}

	lo, hi := ext[2*axis], ext[2*axis+1]
	total := hi - lo + 1
	if n > total {
		n = total
	}
	if n < 1 {
		n = 1
	}

	tiles := make([]voxel.Extent, 0, n)
	base := total / n
	rem := total % n
	cur := lo
	for i := 0; i < n; i++ {
		size := base
		if i < rem {
			size++
		}
		if size == 0 {
			continue
		}
		t := ext
		t[2*axis], t[2*axis+1] = cur, cur+size-1
		tiles = append(tiles, t)
		cur += size
	}
	return tiles
}

// ExecuteTile runs one output sub-extent: background fill if the pass
// missed the input extent entirely, otherwise the permute path when
// eligible and configured, else the general path.
func ExecuteTile(pass *Pass, tile voxel.Extent) {
	if !pass.HitInputExtent {
		fillBackgroundTile(pass, tile)
		return
	}
	if pass.UsePermute && pass.Separable != nil {
		executePermute(pass, tile)
		return
	}
	executeGeneral(pass, tile)
}

// fillBackgroundTile writes the background pixel to every voxel in tile and
// inserts no output stencil runs for that region.
func fillBackgroundTile(pass *Pass, tile voxel.Extent) {
	for k := tile[4]; k <= tile[5]; k++ {
		for j := tile[2]; j <= tile[3]; j++ {
			for i := tile[0]; i <= tile[1]; i++ {
				copy(pass.Output.VoxelBytes(i, j, k), pass.Background)
			}
		}
	}
}
