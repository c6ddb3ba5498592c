package interp

import (
	"github.com/fedormsv/reslice3d/internal/indexmat"
	"github.com/fedormsv/reslice3d/internal/mat"
	"github.com/fedormsv/reslice3d/internal/voxel"
)

// Linear is the trilinear interpolator: support size 2 per axis, separable,
// two-tap per-axis weights (1-frac, frac).
type Linear struct {
	Src        *voxel.Image
	Border     BorderMode
	Tolerance  float64
	CompOffset int
	NumComp    int
}

var (
	_ Interpolator     = (*Linear)(nil)
	_ SeparableWeights = (*Linear)(nil)
)

func (l *Linear) ComputeSupportSize(matrixElements []float64) (sx, sy, sz int) { return 2, 2, 2 }
func (l *Linear) SetBorderMode(mode BorderMode)                               { l.Border = mode }
func (l *Linear) SetTolerance(t float64)                                      { l.Tolerance = t }
func (l *Linear) IsSeparable() bool                                           { return true }
func (l *Linear) ComponentOffset() int                                        { return l.CompOffset }
func (l *Linear) NumberOfComponents() int {
	if l.NumComp > 0 {
		return l.NumComp
	}
	return l.Src.NumComp
}

func (l *Linear) CheckBoundsIJK(p [3]float64) bool {
	e := l.Src.Extent
	return inBoundsWithTolerance(l.Border, p[0], e[0], e[1], l.Tolerance) &&
		inBoundsWithTolerance(l.Border, p[1], e[2], e[3], l.Tolerance) &&
		inBoundsWithTolerance(l.Border, p[2], e[4], e[5], l.Tolerance)
}

func (l *Linear) InterpolateIJK(p [3]float64, out []float64) {
	e := l.Src.Extent
	i0, fx := mat.FloorWithFraction(p[0])
	j0, fy := mat.FloorWithFraction(p[1])
	k0, fz := mat.FloorWithFraction(p[2])

	ix := [2]int{clampIndex(l.Border, i0, e[0], e[1]), clampIndex(l.Border, i0+1, e[0], e[1])}
	jy := [2]int{clampIndex(l.Border, j0, e[2], e[3]), clampIndex(l.Border, j0+1, e[2], e[3])}
	kz := [2]int{clampIndex(l.Border, k0, e[4], e[5]), clampIndex(l.Border, k0+1, e[4], e[5])}
	wx := [2]float64{1 - fx, fx}
	wy := [2]float64{1 - fy, fy}
	wz := [2]float64{1 - fz, fz}

	nc := l.NumberOfComponents()
	for c := 0; c < nc; c++ {
		out[c] = 0
	}
	for a := 0; a < 2; a++ {
		for b := 0; b < 2; b++ {
			for g := 0; g < 2; g++ {
				w := wx[a] * wy[b] * wz[g]
				if w == 0 {
					continue
				}
				for c := 0; c < nc; c++ {
					out[c] += w * l.Src.At(ix[a], jy[b], kz[g], l.CompOffset+c)
				}
			}
		}
	}
}

func (l *Linear) PrecomputeWeightsForExtent(m mat.Mat4, extent voxel.Extent) (voxel.Extent, *WeightTable) {
	im := indexmat.IndexMatrix{Fused: m}
	mapping, ok := im.IsPermutationScaleTranslation()
	if !ok {
		return extent, nil
	}
	e := l.Src.Extent
	table := &WeightTable{Src: l.Src, Lo: [3]int{extent[0], extent[2], extent[4]}}
	axes := [3]*[]AxisEntry{&table.X, &table.Y, &table.Z}
	clipped := extent
	for axis := 0; axis < 3; axis++ {
		lo, hi := e[2*mapping[axis].SrcAxis], e[2*mapping[axis].SrcAxis+1]
		entries, cLo, cHi := buildLinearAxis(extent[2*axis], extent[2*axis+1], mapping[axis], lo, hi, l.Border, l.Tolerance)
		*axes[axis] = entries
		clipped[2*axis], clipped[2*axis+1] = cLo, cHi
	}
	return clipped, table
}

func buildLinearAxis(lo, hi int, m indexmat.AxisMapping, srcLo, srcHi int, border BorderMode, tol float64) (entries []AxisEntry, clippedLo, clippedHi int) {
	entries = make([]AxisEntry, hi-lo+1)
	clippedLo, clippedHi = hi+1, lo-1
	for out := lo; out <= hi; out++ {
		p := float64(out)*m.Scale + m.Trans
		base, frac := mat.FloorWithFraction(p)
		i0 := clampIndex(border, base, srcLo, srcHi)
		i1 := clampIndex(border, base+1, srcLo, srcHi)
		entries[out-lo] = AxisEntry{Base: i0, Coeffs: []float64{1 - frac, frac, float64(i1)}}
		if inBoundsWithTolerance(border, p, srcLo, srcHi, tol) && inBoundsWithTolerance(border, p+1, srcLo, srcHi, tol) {
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

func (l *Linear) InterpolateRow(table *WeightTable, x0, y, z int, out []float64, count int) {
	nc := l.NumberOfComponents()
	yEntry := table.Y[y-table.Lo[1]]
	zEntry := table.Z[z-table.Lo[2]]
	j0, j1 := yEntry.Base, int(yEntry.Coeffs[2])
	k0, k1 := zEntry.Base, int(zEntry.Coeffs[2])
	wy0, wy1 := yEntry.Coeffs[0], yEntry.Coeffs[1]
	wz0, wz1 := zEntry.Coeffs[0], zEntry.Coeffs[1]

	for i := 0; i < count; i++ {
		xEntry := table.X[x0+i-table.Lo[0]]
		i0, i1 := xEntry.Base, int(xEntry.Coeffs[2])
		wx0, wx1 := xEntry.Coeffs[0], xEntry.Coeffs[1]
		for c := 0; c < nc; c++ {
			v := wx0*wy0*wz0*table.Src.At(i0, j0, k0, l.CompOffset+c) +
				wx1*wy0*wz0*table.Src.At(i1, j0, k0, l.CompOffset+c) +
				wx0*wy1*wz0*table.Src.At(i0, j1, k0, l.CompOffset+c) +
				wx1*wy1*wz0*table.Src.At(i1, j1, k0, l.CompOffset+c) +
				wx0*wy0*wz1*table.Src.At(i0, j0, k1, l.CompOffset+c) +
				wx1*wy0*wz1*table.Src.At(i1, j0, k1, l.CompOffset+c) +
				wx0*wy1*wz1*table.Src.At(i0, j1, k1, l.CompOffset+c) +
				wx1*wy1*wz1*table.Src.At(i1, j1, k1, l.CompOffset+c)
			out[i*nc+c] = v
		}
	}
}
