package interp

import (
	"github.com/fedormsv/reslice3d/internal/indexmat"
	"github.com/fedormsv/reslice3d/internal/mat"
	"github.com/fedormsv/reslice3d/internal/voxel"
)

// Nearest is the nearest-neighbour interpolator: support size 1 per axis,
// separable, trivial single-coefficient weight tables.
type Nearest struct {
	Src        *voxel.Image
	Border     BorderMode
	Tolerance  float64
	CompOffset int
	NumComp    int
}

var (
	_ Interpolator     = (*Nearest)(nil)
	_ SeparableWeights = (*Nearest)(nil)
)

func (n *Nearest) ComputeSupportSize(matrixElements []float64) (sx, sy, sz int) { return 1, 1, 1 }
func (n *Nearest) SetBorderMode(mode BorderMode)                               { n.Border = mode }
func (n *Nearest) SetTolerance(t float64)                                      { n.Tolerance = t }
func (n *Nearest) IsSeparable() bool                                           { return true }
func (n *Nearest) ComponentOffset() int                                        { return n.CompOffset }
func (n *Nearest) NumberOfComponents() int {
	if n.NumComp > 0 {
		return n.NumComp
	}
	return n.Src.NumComp
}

func (n *Nearest) CheckBoundsIJK(p [3]float64) bool {
	e := n.Src.Extent
	return inBoundsWithTolerance(n.Border, p[0], e[0], e[1], n.Tolerance) &&
		inBoundsWithTolerance(n.Border, p[1], e[2], e[3], n.Tolerance) &&
		inBoundsWithTolerance(n.Border, p[2], e[4], e[5], n.Tolerance)
}

func (n *Nearest) InterpolateIJK(p [3]float64, out []float64) {
	e := n.Src.Extent
	i := clampIndex(n.Border, mat.RoundHalfToEven(p[0]), e[0], e[1])
	j := clampIndex(n.Border, mat.RoundHalfToEven(p[1]), e[2], e[3])
	k := clampIndex(n.Border, mat.RoundHalfToEven(p[2]), e[4], e[5])
	nc := n.NumberOfComponents()
	for c := 0; c < nc; c++ {
		out[c] = n.Src.At(i, j, k, n.CompOffset+c)
	}
}

// PrecomputeWeightsForExtent builds trivial single-tap tables for a
// permutation+scale+translation index matrix.
func (n *Nearest) PrecomputeWeightsForExtent(m mat.Mat4, extent voxel.Extent) (voxel.Extent, *WeightTable) {
	im := indexmat.IndexMatrix{Fused: m}
	mapping, ok := im.IsPermutationScaleTranslation()
	if !ok {
		return extent, nil
	}
	e := n.Src.Extent
	table := &WeightTable{Src: n.Src, Lo: [3]int{extent[0], extent[2], extent[4]}}
	axes := [3]*[]AxisEntry{&table.X, &table.Y, &table.Z}
	clipped := extent
	for axis := 0; axis < 3; axis++ {
		lo, hi := e[2*mapping[axis].SrcAxis], e[2*mapping[axis].SrcAxis+1]
		entries, cLo, cHi := buildNearestAxis(extent[2*axis], extent[2*axis+1], mapping[axis], lo, hi, n.Border, n.Tolerance)
		*axes[axis] = entries
		clipped[2*axis], clipped[2*axis+1] = cLo, cHi
	}
	return clipped, table
}

// buildNearestAxis builds one axis's single-tap table, with entries indexed
// by out-lo (so entries[0] corresponds to output coordinate lo), and
// reports the contiguous [clippedLo,clippedHi] sub-range whose samples all
// land in bounds.
func buildNearestAxis(lo, hi int, m indexmat.AxisMapping, srcLo, srcHi int, border BorderMode, tol float64) (entries []AxisEntry, clippedLo, clippedHi int) {
	entries = make([]AxisEntry, hi-lo+1)
	clippedLo, clippedHi = hi+1, lo-1 // empty until we see an in-bounds sample
	for out := lo; out <= hi; out++ {
		p := float64(out)*m.Scale + m.Trans
		idx := clampIndex(border, mat.RoundHalfToEven(p), srcLo, srcHi)
		entries[out-lo] = AxisEntry{Base: idx, Coeffs: []float64{1.0}}
		if inBoundsWithTolerance(border, p, srcLo, srcHi, tol) {
			if out < clippedLo {
				clippedLo = out
			}
			if out > clippedHi {
				clippedHi = out
			}
		}
	}
	return entries, clippedLo, clippedHi
}

func (n *Nearest) InterpolateRow(table *WeightTable, x0, y, z int, out []float64, count int) {
	nc := n.NumberOfComponents()
	yEntry := table.Y[y-table.Lo[1]]
	zEntry := table.Z[z-table.Lo[2]]
	for i := 0; i < count; i++ {
		xEntry := table.X[x0+i-table.Lo[0]]
		for c := 0; c < nc; c++ {
			out[i*nc+c] = table.Src.At(xEntry.Base, yEntry.Base, zEntry.Base, n.CompOffset+c)
		}
	}
}
