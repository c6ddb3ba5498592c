// Package geom derives output grid geometry from input geometry and user
// overrides, and performs the corner-projection pre-pass that bounds how
// much of the input a given output request actually needs.
package geom

import (
	"math"

	"github.com/fedormsv/reslice3d/internal/indexmat"
	"github.com/fedormsv/reslice3d/internal/interp"
	"github.com/fedormsv/reslice3d/internal/mat"
	"github.com/fedormsv/reslice3d/internal/voxel"
)

// Info is the geometric description of one grid: extent, spacing, origin
// and direction cosines, independent of scalar kind or backing storage.
type Info struct {
	Extent    voxel.Extent
	Spacing   [3]float64
	Origin    [3]float64
	Direction mat.Mat3
}

// Overrides bundles the subset of the parameter surface that geometry
// derivation consults. A nil pointer field means "auto"; a zero-value
// ResliceAxes must be explicitly set to mat.Identity4() by the caller, there
// is no implicit default here.
type Overrides struct {
	OutputSpacing          *[3]float64
	OutputOrigin           *[3]float64
	OutputDirection        *mat.Mat3
	OutputExtent           *voxel.Extent
	OutputDimensionality   int // 1, 2 or 3; 0 is treated as 3
	ResliceAxes            mat.Mat4
	AutoCropOutput         bool
	TransformInputSampling bool
}

func dim(d int) int {
	if d < 1 || d > 3 {
		return 3
	}
	return d
}

func abs3(v [3]float64) [3]float64 {
	return [3]float64{absf(v[0]), absf(v[1]), absf(v[2])}
}

func absf(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// resliceRotation extracts the upper-left 3x3 of the reslice axes matrix.
func resliceRotation(m mat.Mat4) mat.Mat3 {
	var r mat.Mat3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			r[i][j] = m[i][j]
		}
	}
	return r
}

// projectionWeights computes R = inv(input_direction) * output_direction *
// reslice_rotation, then returns r[i][j] = R[j][i]^2 for output axis i
// against input axis j.
func projectionWeights(inputDir, outputDir mat.Mat3, resliceRot mat.Mat3, accountForReslice bool) mat.Mat3 {
	rot := resliceRot
	if !accountForReslice {
		rot = mat.Identity3()
	}
	r := inputDir.Invert().Mul(outputDir.Mul(rot))
	var w mat.Mat3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			w[i][j] = r[j][i] * r[j][i]
		}
	}
	return w
}

// DeriveOutputInfo computes output spacing/origin/direction/extent from the
// input geometry and the requested overrides.
func DeriveOutputInfo(input Info, ov Overrides) Info {
	nd := dim(ov.OutputDimensionality)

	outDir := input.Direction
	if ov.OutputDirection != nil {
		outDir = *ov.OutputDirection
	}

	inSpacing := abs3(input.Spacing)
	weights := projectionWeights(input.Direction, outDir, resliceRotation(ov.ResliceAxes), ov.TransformInputSampling)

	var outSpacing [3]float64
	var outExtent voxel.Extent
	for i := 0; i < 3; i++ {
		if i >= nd {
			outSpacing[i] = input.Spacing[i]
			outExtent[2*i], outExtent[2*i+1] = 0, 0
			continue
		}
		var sumR, sumWeightedSpacing, sumWeightedSize, sumWeightedLo float64
		for j := 0; j < 3; j++ {
			rj := weights[i][j]
			sumR += rj
			sumWeightedSpacing += rj * inSpacing[j]
			sumWeightedSize += rj * float64(input.Extent[2*j+1]-input.Extent[2*j]) * inSpacing[j]
			sumWeightedLo += rj * float64(input.Extent[2*j])
		}
		s := input.Spacing[i]
		if sumR > 0 {
			s = sumWeightedSpacing / sumR
		}
		if ov.OutputSpacing != nil {
			s = ov.OutputSpacing[i]
		}
		outSpacing[i] = s

		lo := 0
		hi := 0
		if ov.OutputExtent != nil {
			lo, hi = (*ov.OutputExtent)[2*i], (*ov.OutputExtent)[2*i+1]
		} else if sumR > 0 {
			d := sumWeightedSize / pow15(sumR)
			lo = mat.RoundHalfToEven(sumWeightedLo / sumR)
			hi = lo + mat.RoundHalfToEven(d/s)
		}
		outExtent[2*i], outExtent[2*i+1] = lo, hi
	}

	info := Info{Extent: outExtent, Spacing: outSpacing, Direction: outDir}
	info.Origin = deriveOutputOrigin(input, info, ov)
	return info
}

// pow15 computes v^(3/2), used by the output-size formula.
func pow15(v float64) float64 {
	if v <= 0 {
		return 0
	}
	return v * math.Sqrt(v)
}

// deriveOutputOrigin places the output grid so the input's world bounding
// box center maps to the output extent's center, unless an explicit origin
// or auto-crop overrides that.
func deriveOutputOrigin(input Info, out Info, ov Overrides) [3]float64 {
	if ov.OutputOrigin != nil {
		return *ov.OutputOrigin
	}

	inputCenterWorld := worldCenterOfExtent(input)

	outputCenterLocal := extentCenterLocal(out.Extent, out.Spacing)
	// origin + Direction*outputCenterLocal == inputCenterWorld
	rotated := out.Direction.MulVec(outputCenterLocal)
	origin := [3]float64{
		inputCenterWorld[0] - rotated[0],
		inputCenterWorld[1] - rotated[1],
		inputCenterWorld[2] - rotated[2],
	}

	if ov.AutoCropOutput {
		bounds := ComputeAutocropBounds(input, out.Direction)
		for i := 0; i < 3; i++ {
			loLocal := float64(out.Extent[2*i]) * out.Spacing[i]
			shift := bounds[2*i] - loLocal
			shiftWorld := out.Direction.MulVec(axisUnit(i, shift))
			origin[0] += shiftWorld[0]
			origin[1] += shiftWorld[1]
			origin[2] += shiftWorld[2]
		}
	}
	return origin
}

func axisUnit(axis int, v float64) [3]float64 {
	var u [3]float64
	u[axis] = v
	return u
}

func extentCenterLocal(e voxel.Extent, spacing [3]float64) [3]float64 {
	var c [3]float64
	for i := 0; i < 3; i++ {
		c[i] = (float64(e[2*i]) + float64(e[2*i+1])) / 2 * spacing[i]
	}
	return c
}

func worldCenterOfExtent(info Info) [3]float64 {
	local := extentCenterLocal(info.Extent, info.Spacing)
	rotated := info.Direction.MulVec(local)
	return [3]float64{
		info.Origin[0] + rotated[0],
		info.Origin[1] + rotated[1],
		info.Origin[2] + rotated[2],
	}
}

// ComputeAutocropBounds projects the 8 world-space corners of the input's
// whole extent onto outputDirection's local axes and returns the resulting
// per-axis [min,max] bounds, in world length units along each output axis.
func ComputeAutocropBounds(input Info, outputDirection mat.Mat3) [6]float64 {
	outDirT := outputDirection.Transpose()
	var bounds [6]float64
	for i := 0; i < 3; i++ {
		bounds[2*i] = posInf
		bounds[2*i+1] = negInf
	}
	for c := 0; c < 8; c++ {
		idx := [3]int{
			corner(c, 0, input.Extent),
			corner(c, 1, input.Extent),
			corner(c, 2, input.Extent),
		}
		local := [3]float64{
			float64(idx[0]) * input.Spacing[0],
			float64(idx[1]) * input.Spacing[1],
			float64(idx[2]) * input.Spacing[2],
		}
		world := input.Direction.MulVec(local)
		world[0] += input.Origin[0]
		world[1] += input.Origin[1]
		world[2] += input.Origin[2]
		projected := outDirT.MulVec(world)
		for i := 0; i < 3; i++ {
			if projected[i] < bounds[2*i] {
				bounds[2*i] = projected[i]
			}
			if projected[i] > bounds[2*i+1] {
				bounds[2*i+1] = projected[i]
			}
		}
	}
	return bounds
}

func corner(c, axis int, e voxel.Extent) int {
	bit := (c >> uint(axis)) & 1
	if bit == 0 {
		return e[2*axis]
	}
	return e[2*axis+1]
}

var (
	posInf = math.Inf(1)
	negInf = math.Inf(-1)
)

// ComputeUpdateExtent runs the 8-corner projection pre-pass: it maps the
// output request extent through the index matrix, expands each projected
// corner by the interpolator's kernel support, unions the results, clips to
// the input whole extent, and reports whether any in-bounds input remains.
//
// A non-homogeneous residual transform disables the pre-pass entirely: the
// full input whole extent is requested and hit is assumed true, since the
// per-voxel mapping cannot be analyzed as a single affine corner sweep.
func ComputeUpdateExtent(inputWhole voxel.Extent, outputRequest voxel.Extent, idx indexmat.IndexMatrix, support [3]int, border [3]interp.BorderMode) (voxel.Extent, bool) {
	if idx.Residual != nil {
		return inputWhole, true
	}

	var union voxel.Extent
	for i := 0; i < 3; i++ {
		union[2*i], union[2*i+1] = 1, 0 // empty sentinel (lo>hi)
	}

	for c := 0; c < 8; c++ {
		outIdx := [3]float64{
			float64(corner(c, 0, outputRequest)),
			float64(corner(c, 1, outputRequest)),
			float64(corner(c, 2, outputRequest)),
		}
		mapped, w := idx.Fused.MulPoint(outIdx)
		if !idx.Fused.IsAffineBottomRow() && w != 0 {
			mapped[0] /= w
			mapped[1] /= w
			mapped[2] /= w
		}
		for axis := 0; axis < 3; axis++ {
			lo, hi := supportInterval(mapped[axis], support[axis])
			if union[2*axis] > union[2*axis+1] {
				union[2*axis], union[2*axis+1] = lo, hi
			} else {
				if lo < union[2*axis] {
					union[2*axis] = lo
				}
				if hi > union[2*axis+1] {
					union[2*axis+1] = hi
				}
			}
		}
	}

	hit := true
	var clipped voxel.Extent
	for axis := 0; axis < 3; axis++ {
		lo, hi := union[2*axis], union[2*axis+1]
		wLo, wHi := inputWhole[2*axis], inputWhole[2*axis+1]
		if lo < wLo {
			lo = wLo
		}
		if hi > wHi {
			hi = wHi
		}
		if lo > hi {
			hit = false
			// Retain a degenerate (non-inverted) extent at the nearest
			// valid bound rather than an empty/inverted interval.
			if union[2*axis] > wHi {
				lo, hi = wHi, wHi
			} else {
				lo, hi = wLo, wLo
			}
		}
		if border[axis] == interp.BorderRepeat || border[axis] == interp.BorderMirror {
			lo, hi = wLo, wHi
		}
		clipped[2*axis], clipped[2*axis+1] = lo, hi
	}
	return clipped, hit
}

// supportInterval returns the input-axis interval a single projected
// coordinate p contributes, given a kernel support size k.
func supportInterval(p float64, k int) (lo, hi int) {
	if k%2 == 0 {
		base, frac := mat.FloorWithFraction(p)
		lo = base - (k/2 - 1)
		hi = base + k/2
		if frac == 0 {
			hi++
		}
		return lo, hi
	}
	r := mat.RoundHalfToEven(p)
	half := (k - 1) / 2
	return r - half, r + half
}
