// Package interp provides polymorphic voxel samplers: a deep per-voxel
// Interpolator contract plus, for separable kernels, a narrower
// weight-precomputation capability the permute execute path needs. The
// separable capability is a distinct interface rather than bolted onto the
// deep Interpolator interface, so a non-separable implementation can still
// satisfy Interpolator without pretending to support row-table evaluation.
package interp

import (
	"github.com/fedormsv/reslice3d/internal/mat"
	"github.com/fedormsv/reslice3d/internal/voxel"
)

// BorderMode selects how out-of-extent reads are handled.
type BorderMode int

const (
	BorderClamp BorderMode = iota
	BorderRepeat
	BorderMirror
)

// Interpolator is the deep per-voxel sampling contract used by the general
// execute path.
type Interpolator interface {
	// ComputeSupportSize returns the nominal kernel footprint per axis. The
	// flattened 3x3/4x4 matrix elements are passed so non-separable kernels
	// could oversample anisotropically; the kernels in this package ignore
	// them since they are all separable and axis-isotropic.
	ComputeSupportSize(matrixElements []float64) (sx, sy, sz int)
	SetBorderMode(mode BorderMode)
	// SetTolerance widens the in-bounds test by t indices outside the
	// strict extent. Under repeat/mirror the tolerance is effectively
	// infinite (anything maps back in-bounds).
	SetTolerance(t float64)
	IsSeparable() bool
	CheckBoundsIJK(p [3]float64) bool
	// InterpolateIJK writes NumberOfComponents() float64 values to out.
	InterpolateIJK(p [3]float64, out []float64)
	ComponentOffset() int
	NumberOfComponents() int
}

// SeparableWeights is the narrow capability advertised by separable
// interpolators and consumed by the permute execute path.
type SeparableWeights interface {
	// PrecomputeWeightsForExtent produces per-axis weight tables covering
	// the requested output extent under the given index matrix, plus the
	// largest sub-extent over which all three axes' weights sample fully
	// in-bounds.
	PrecomputeWeightsForExtent(m mat.Mat4, extent voxel.Extent) (clipped voxel.Extent, table *WeightTable)
	// InterpolateRow evaluates n consecutive output voxels in X starting
	// at x0, for output row (y,z), from the precomputed table.
	InterpolateRow(table *WeightTable, x0, y, z int, out []float64, n int)
}

// AxisEntry is one (base-index, coefficient-vector) weight table entry for
// a separable axis.
type AxisEntry struct {
	Base   int
	Coeffs []float64
}

// WeightTable holds the per-axis separable weights for one precomputed
// output extent, plus the input buffer it samples from. Lo records the
// output coordinate each table's index 0 corresponds to, so callers index
// with table.X[x-table.Lo[0]] rather than assuming tables start at zero.
type WeightTable struct {
	X, Y, Z []AxisEntry
	Lo      [3]int
	Src     *voxel.Image
}

// clampIndex applies the configured border mode to a single-axis index,
// given the axis's [lo,hi] extent.
func clampIndex(mode BorderMode, v, lo, hi int) int {
	if lo > hi {
		return lo
	}
	n := hi - lo + 1
	switch mode {
	case BorderRepeat:
		m := (v - lo) % n
		if m < 0 {
			m += n
		}
		return lo + m
	case BorderMirror:
		period := 2 * n
		if period <= 0 {
			return lo
		}
		m := (v - lo) % period
		if m < 0 {
			m += period
		}
		if m >= n {
			m = period - 1 - m
		}
		return lo + m
	default: // BorderClamp
		if v < lo {
			return lo
		}
		if v > hi {
			return hi
		}
		return v
	}
}

// inBoundsWithTolerance reports whether v lies within [lo-t, hi+t]. Under
// repeat/mirror border modes the tolerance is effectively infinite.
func inBoundsWithTolerance(mode BorderMode, v float64, lo, hi int, tol float64) bool {
	if mode != BorderClamp {
		return true
	}
	return v >= float64(lo)-tol && v <= float64(hi)+tol
}
