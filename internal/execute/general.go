package execute

import (
	"github.com/fedormsv/reslice3d/internal/convert"
	"github.com/fedormsv/reslice3d/internal/mat"
	"github.com/fedormsv/reslice3d/internal/scalar"
	"github.com/fedormsv/reslice3d/internal/scratch"
	"github.com/fedormsv/reslice3d/internal/stencil"
	"github.com/fedormsv/reslice3d/internal/voxel"
)

// executeGeneral runs the per-voxel loop over tile: for every output voxel
// it maps to input index space (applying perspective divide and the
// nonlinear residual when present), samples one or more slab positions
// along the output Z direction, composites them, converts to the output
// scalar kind, and emits the result or the background pixel while
// maintaining the run-length state an output stencil needs.
func executeGeneral(pass *Pass, tile voxel.Extent) {
	if fastIdentityEligible(pass) {
		executeIdentityCopy(pass, tile)
		return
	}

	numComp := pass.Interp.NumberOfComponents()
	ns := pass.Slab.NumSamples
	if ns < 1 {
		ns = 1
	}

	sample := scratch.GetFloats(numComp)
	composited := scratch.GetFloats(numComp)
	defer scratch.PutFloats(sample)
	defer scratch.PutFloats(composited)
	comp := convert.Compositor{Mode: pass.Slab.Mode, Trapezoid: pass.Slab.Trapezoid}

	for z := tile[4]; z <= tile[5]; z++ {
		for y := tile[2]; y <= tile[3]; y++ {
			runStart := -1
			wasIn := false
			for x := tile[0]; x <= tile[1]; x++ {
				points := mapSlabPositions(pass, x, y, z, ns)
				in := allInBounds(pass, points)
				if in {
					comp.Reset(ns, numComp)
					for i, p := range points {
						pass.Interp.InterpolateIJK(p, sample)
						comp.Add(i, sample)
					}
					comp.Result(composited)
					writeOutputVoxel(pass, x, y, z, composited)
					if !wasIn {
						runStart = x
					}
				} else {
					copy(pass.Output.VoxelBytes(x, y, z), pass.Background)
					if wasIn && runStart >= 0 {
						emitRun(pass.OutputStencil, runStart, x-1, y, z)
						runStart = -1
					}
				}
				wasIn = in
			}
			if wasIn && runStart >= 0 {
				emitRun(pass.OutputStencil, runStart, tile[1], y, z)
			}
		}
	}
}

func emitRun(w stencil.Writer, lo, hi, y, z int) {
	if w == nil {
		return
	}
	w.InsertRun(lo, hi, y, z)
}

// mapSlabPositions returns the ns slab sample positions for output voxel
// (x,y,z), each already perspective-divided into input index space. Because
// Fused (and, for the residual case, the partial output->world matrix) is
// linear in z, each sample is obtained by offsetting along the matrix's Z
// column rather than re-evaluating the full matrix product per sample.
func mapSlabPositions(pass *Pass, x, y, z, ns int) [][3]float64 {
	m := pass.Matrix.Fused
	zCol := [3]float64{m[0][2], m[1][2], m[2][2]}
	wCol := m[3][2]
	p0, w0 := m.MulPoint([3]float64{float64(x), float64(y), float64(z)})

	points := make([][3]float64, ns)
	for i := 0; i < ns; i++ {
		d := slabOffset(i, ns, pass.Slab.SpacingFraction)
		p := [3]float64{p0[0] + d*zCol[0], p0[1] + d*zCol[1], p0[2] + d*zCol[2]}
		w := w0 + d*wCol
		if !m.IsAffineBottomRow() && w != 0 {
			p = perspectiveDivide(p, w)
		}

		if pass.Matrix.HasResidual() {
			idxPoint, rw := pass.Matrix.Residual.Apply(p)
			if !pass.Matrix.Residual.WorldToIdx.IsAffineBottomRow() && rw != 0 {
				idxPoint = perspectiveDivide(idxPoint, rw)
			}
			points[i] = idxPoint
			continue
		}
		points[i] = p
	}
	return points
}

func perspectiveDivide(p [3]float64, w float64) [3]float64 {
	inv := 1.0 / w
	return [3]float64{p[0] * inv, p[1] * inv, p[2] * inv}
}

// slabOffset returns the z offset of slab sample i of ns, symmetric about
// the nominal output z and spaced by spacingFraction index units.
func slabOffset(i, ns int, spacingFraction float64) float64 {
	if ns <= 1 {
		return 0
	}
	return (float64(i) - 0.5*float64(ns-1)) * spacingFraction
}

func allInBounds(pass *Pass, points [][3]float64) bool {
	for _, p := range points {
		if !pass.Interp.CheckBoundsIJK(p) {
			return false
		}
		if pass.InputStencil != nil && !stencilContains(pass.InputStencil, p) {
			return false
		}
	}
	return true
}

// stencilContains reports whether the input stencil's mask covers the
// voxel nearest p, by binary-searching that row's ordered runs.
func stencilContains(r stencil.Reader, p [3]float64) bool {
	x := mat.RoundHalfToEven(p[0])
	y := mat.RoundHalfToEven(p[1])
	z := mat.RoundHalfToEven(p[2])
	runs := r.Rows(y, z)
	lo, hi := 0, len(runs)
	for lo < hi {
		mid := (lo + hi) / 2
		if runs[mid].XHi < x {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo < len(runs) && runs[lo].XLo <= x
}

func writeOutputVoxel(pass *Pass, x, y, z int, composited []float64) {
	off := pass.Output.Offset(x, y, z)
	kind := pass.Output.Kind
	size := scalar.Size(kind)
	for c, v := range composited {
		rv := convert.Rescale(v, pass.Convert.Shift, pass.Convert.Scale)
		if pass.Convert.Clamp {
			rv = scalar.Clamp(kind, rv)
		}
		scalar.Store(kind, pass.Output.Data, off+c*size, rv)
	}
}

// fastIdentityEligible reports whether this pass can skip interpolation
// entirely: identity index matrix, no slab, no residual, no rescale, no
// input stencil filtering, and matching in/out scalar layout. In that case
// every in-bounds output voxel is a straight byte copy of the corresponding
// input voxel.
func fastIdentityEligible(pass *Pass) bool {
	if pass.Matrix.HasResidual() || !pass.Matrix.IsIdentity() {
		return false
	}
	if pass.Slab.NumSamples > 1 {
		return false
	}
	if pass.InputStencil != nil {
		return false
	}
	if pass.Convert.Scale != 1 || pass.Convert.Shift != 0 {
		return false
	}
	if pass.Input.Kind != pass.Output.Kind || pass.Input.NumComp != pass.Output.NumComp {
		return false
	}
	return true
}

// executeIdentityCopy copies each output voxel's bytes directly from the
// matching input voxel, bypassing interpolation and numeric conversion
// entirely, one copy call per voxel.
func executeIdentityCopy(pass *Pass, tile voxel.Extent) {
	for z := tile[4]; z <= tile[5]; z++ {
		for y := tile[2]; y <= tile[3]; y++ {
			lo, hi, has := clampRunToInput(pass.Input.Extent, tile[0], tile[1], y, z)
			for x := tile[0]; x <= tile[1]; x++ {
				if has && x >= lo && x <= hi {
					copy(pass.Output.VoxelBytes(x, y, z), pass.Input.VoxelBytes(x, y, z))
				} else {
					copy(pass.Output.VoxelBytes(x, y, z), pass.Background)
				}
			}
			if has {
				emitRun(pass.OutputStencil, lo, hi, y, z)
			}
		}
	}
}

func clampRunToInput(inExt voxel.Extent, xlo, xhi, y, z int) (lo, hi int, ok bool) {
	if y < inExt[2] || y > inExt[3] || z < inExt[4] || z > inExt[5] {
		return 0, 0, false
	}
	lo = xlo
	if inExt[0] > lo {
		lo = inExt[0]
	}
	hi = xhi
	if inExt[1] < hi {
		hi = inExt[1]
	}
	if lo > hi {
		return 0, 0, false
	}
	return lo, hi, true
}
