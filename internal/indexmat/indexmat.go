// Package indexmat builds and classifies the combined output-index to
// input-index transform: the composition of the output index->world
// matrix, the reslice axes, the optional homogeneous residual transform,
// and the input world->index matrix. When the point transform is
// non-homogeneous, the world->input-index stage is not folded in and a
// residual operator is recorded instead as a {Fused, NonlinearResidual}
// tagged variant.
package indexmat

import (
	"math"

	"github.com/fedormsv/reslice3d/internal/mat"
)

// NonlinearResidual applies forward(p) then world->input-index to a
// world-space point, for the case where the point transform cannot be
// folded into a single 4x4 matrix.
type NonlinearResidual struct {
	Forward    func(p [3]float64) [3]float64
	WorldToIdx mat.Mat4
}

// Apply maps a world-space point through the residual transform into input
// index space.
func (r *NonlinearResidual) Apply(p [3]float64) (out [3]float64, w float64) {
	fp := r.Forward(p)
	return r.WorldToIdx.MulPoint(fp)
}

// IndexMatrix is the immutable snapshot built once per pipeline pass:
// either a single fused 4x4 (Residual == nil) or a partial fused matrix up
// to world space plus a NonlinearResidual to apply per voxel.
type IndexMatrix struct {
	// Fused is output-index -> input-index when Residual is nil, or
	// output-index -> world when Residual is non-nil (the residual then
	// continues world -> input-index).
	Fused    mat.Mat4
	Residual *NonlinearResidual
}

// Build composes the four stages: outputIndexToWorld, resliceAxes, the
// optional homogeneous residual matrix (homogeneousResidual, identity if
// none), and worldToInputIndex. If nonlinear is non-nil, the composition
// stops after resliceAxes (folded into Fused) and nonlinear becomes the
// per-voxel residual; Fused is NOT further composed with worldToInputIndex
// in that case.
func Build(outputIndexToWorld, resliceAxes, homogeneousResidual, worldToInputIndex mat.Mat4, nonlinear func(p [3]float64) [3]float64) IndexMatrix {
	if nonlinear != nil {
		fused := resliceAxes.Mul(outputIndexToWorld)
		return IndexMatrix{
			Fused: fused,
			Residual: &NonlinearResidual{
				Forward:    nonlinear,
				WorldToIdx: worldToInputIndex,
			},
		}
	}
	fused := homogeneousResidual.Mul(resliceAxes.Mul(outputIndexToWorld))
	fused = worldToInputIndex.Mul(fused)
	return IndexMatrix{Fused: fused}
}

// HasResidual reports whether this index matrix requires a per-voxel
// nonlinear residual application (the general path only; the permute path
// is never eligible when this is true).
func (m IndexMatrix) HasResidual() bool {
	return m.Residual != nil
}

const classifyEps = 1e-9

// IsIdentity reports whether Fused is the identity: all off-diagonal and
// translation elements zero, diagonal all 1. Skips all per-voxel math
// beyond iteration when true.
func (m IndexMatrix) IsIdentity() bool {
	if m.HasResidual() {
		return false
	}
	id := mat.Identity4()
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			if math.Abs(m.Fused[i][j]-id[i][j]) > classifyEps {
				return false
			}
		}
	}
	return true
}

// AxisMapping describes, for one output axis, which input axis it maps to,
// the scale factor, and the translation — the decomposition of a
// permutation+scale+translation matrix.
type AxisMapping struct {
	SrcAxis int
	Scale   float64
	Trans   float64
}

// IsPermutationScaleTranslation reports whether the upper-left 3x3 of Fused
// has exactly one non-zero per row and column, the bottom row is
// (0,0,0,1), and there is no residual. On success it also returns the
// per-axis decomposition, eligible for the permute execute path when the
// interpolator is separable and slab spacing fraction is 1.
func (m IndexMatrix) IsPermutationScaleTranslation() (mapping [3]AxisMapping, ok bool) {
	if m.HasResidual() {
		return mapping, false
	}
	if !m.Fused.IsAffineBottomRow() {
		return mapping, false
	}
	usedCols := [3]bool{}
	for row := 0; row < 3; row++ {
		nz := -1
		for col := 0; col < 3; col++ {
			if math.Abs(m.Fused[row][col]) > classifyEps {
				if nz != -1 {
					return mapping, false
				}
				nz = col
			}
		}
		if nz == -1 || usedCols[nz] {
			return mapping, false
		}
		usedCols[nz] = true
		mapping[row] = AxisMapping{
			SrcAxis: nz,
			Scale:   m.Fused[row][nz],
			Trans:   m.Fused[row][3],
		}
	}
	return mapping, true
}

// IsNearestSafe reports whether, in addition to being a
// permutation+scale+translation matrix, every diagonal scale is integral
// and every translation is integral — in which case a non-nearest
// interpolation mode can be downgraded to nearest without changing results.
func (m IndexMatrix) IsNearestSafe() bool {
	mapping, ok := m.IsPermutationScaleTranslation()
	if !ok {
		return false
	}
	for _, a := range mapping {
		if !mat.IsIntegral(a.Scale, classifyEps) || !mat.IsIntegral(a.Trans, classifyEps) {
			return false
		}
	}
	return true
}
