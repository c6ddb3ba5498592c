package execute

import (
	"github.com/fedormsv/reslice3d/internal/convert"
	"github.com/fedormsv/reslice3d/internal/interp"
	"github.com/fedormsv/reslice3d/internal/mat"
	"github.com/fedormsv/reslice3d/internal/scratch"
	"github.com/fedormsv/reslice3d/internal/voxel"
)

// executePermute runs the axis-aligned fast path: the index matrix is a
// permutation+scale+translation, so every output row samples input voxels
// through a precomputed per-axis weight table instead of a per-voxel matrix
// multiply. A slab sample is taken by shifting the Z row's translation by
// -0.5*zscale*ns + i*zscale and building one weight table per sample; the
// per-sample clipped extents are intersected, and anything inside the tile
// but outside that intersection falls back to the background pixel.
func executePermute(pass *Pass, tile voxel.Extent) {
	ns := pass.Slab.NumSamples
	if ns < 1 {
		ns = 1
	}

	mapping, ok := pass.Matrix.IsPermutationScaleTranslation()
	if !ok {
		executeGeneral(pass, tile)
		return
	}
	zScale := mapping[2].Scale

	tables := make([]*interp.WeightTable, ns)
	clip := tile
	for i := 0; i < ns; i++ {
		var shift float64
		if ns > 1 {
			shift = -0.5*zScale*float64(ns) + float64(i)*zScale
		}
		sm := shiftRowTranslation(pass.Matrix.Fused, 2, shift)
		c, t := pass.Separable.PrecomputeWeightsForExtent(sm, tile)
		if t == nil {
			executeGeneral(pass, tile)
			return
		}
		tables[i] = t
		clip = clip.Clip(c)
	}

	numComp := pass.Interp.NumberOfComponents()
	comp := convert.Compositor{Mode: pass.Slab.Mode, Trapezoid: pass.Slab.Trapezoid}
	composited := scratch.GetFloats(numComp)
	defer scratch.PutFloats(composited)

	for z := tile[4]; z <= tile[5]; z++ {
		for y := tile[2]; y <= tile[3]; y++ {
			inRow := z >= clip[4] && z <= clip[5] && y >= clip[2] && y <= clip[3] && clip.Dim(0) > 0
			if !inRow {
				fillBackgroundRow(pass, tile[0], tile[1], y, z)
				continue
			}

			clipWidth := clip.Dim(0)
			rowSamples := make([][]float64, ns)
			for i, t := range tables {
				buf := scratch.GetFloats(clipWidth * numComp)
				pass.Separable.InterpolateRow(t, clip[0], y, z, buf, clipWidth)
				rowSamples[i] = buf
			}

			for x := tile[0]; x <= tile[1]; x++ {
				if x < clip[0] || x > clip[1] {
					copy(pass.Output.VoxelBytes(x, y, z), pass.Background)
					continue
				}
				li := x - clip[0]
				comp.Reset(ns, numComp)
				for i := range rowSamples {
					comp.Add(i, rowSamples[i][li*numComp:(li+1)*numComp])
				}
				comp.Result(composited)
				writeOutputVoxel(pass, x, y, z, composited)
			}

			for _, buf := range rowSamples {
				scratch.PutFloats(buf)
			}
			emitRun(pass.OutputStencil, clip[0], clip[1], y, z)
		}
	}
}

func fillBackgroundRow(pass *Pass, xlo, xhi, y, z int) {
	for x := xlo; x <= xhi; x++ {
		copy(pass.Output.VoxelBytes(x, y, z), pass.Background)
	}
}

// shiftRowTranslation returns a copy of m with row's translation element
// (column 3) increased by delta.
func shiftRowTranslation(m mat.Mat4, row int, delta float64) mat.Mat4 {
	out := m
	out[row][3] += delta
	return out
}
