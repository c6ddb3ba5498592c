package interp

import (
	"math"

	"github.com/fedormsv/reslice3d/internal/indexmat"
	"github.com/fedormsv/reslice3d/internal/mat"
	"github.com/fedormsv/reslice3d/internal/voxel"
)

// cubicA is the Catmull-Rom cubic-convolution shape parameter.
const cubicA = -0.5

// cubicKernel evaluates the cubic convolution kernel at x, per Keys (1981)
// with shape parameter cubicA.
func cubicKernel(x float64) float64 {
	x = math.Abs(x)
	switch {
	case x <= 1:
		return (cubicA+2)*x*x*x - (cubicA+3)*x*x + 1
	case x < 2:
		return cubicA*x*x*x - 5*cubicA*x*x + 8*cubicA*x - 4*cubicA
	default:
		return 0
	}
}

// cubicWeights returns the 4 taps for fractional offset t in [0,1), for
// source indices base-1, base, base+1, base+2.
func cubicWeights(t float64) [4]float64 {
	return [4]float64{
		cubicKernel(1 + t),
		cubicKernel(t),
		cubicKernel(1 - t),
		cubicKernel(2 - t),
	}
}

// Cubic is a 4-tap separable cubic-convolution interpolator: support size 4
// per axis.
type Cubic struct {
	Src        *voxel.Image
	Border     BorderMode
	Tolerance  float64
	CompOffset int
	NumComp    int
}

var (
	_ Interpolator     = (*Cubic)(nil)
	_ SeparableWeights = (*Cubic)(nil)
)

func (q *Cubic) ComputeSupportSize(matrixElements []float64) (sx, sy, sz int) { return 4, 4, 4 }
func (q *Cubic) SetBorderMode(mode BorderMode)                               { q.Border = mode }
func (q *Cubic) SetTolerance(t float64)                                      { q.Tolerance = t }
func (q *Cubic) IsSeparable() bool                                           { return true }
func (q *Cubic) ComponentOffset() int                                        { return q.CompOffset }
func (q *Cubic) NumberOfComponents() int {
	if q.NumComp > 0 {
		return q.NumComp
	}
	return q.Src.NumComp
}

func (q *Cubic) CheckBoundsIJK(p [3]float64) bool {
	e := q.Src.Extent
	return inBoundsWithTolerance(q.Border, p[0], e[0], e[1], q.Tolerance) &&
		inBoundsWithTolerance(q.Border, p[1], e[2], e[3], q.Tolerance) &&
		inBoundsWithTolerance(q.Border, p[2], e[4], e[5], q.Tolerance)
}

func (q *Cubic) InterpolateIJK(p [3]float64, out []float64) {
	e := q.Src.Extent
	i0, fx := mat.FloorWithFraction(p[0])
	j0, fy := mat.FloorWithFraction(p[1])
	k0, fz := mat.FloorWithFraction(p[2])
	wx, wy, wz := cubicWeights(fx), cubicWeights(fy), cubicWeights(fz)

	var ix, jy, kz [4]int
	for t := 0; t < 4; t++ {
		ix[t] = clampIndex(q.Border, i0-1+t, e[0], e[1])
		jy[t] = clampIndex(q.Border, j0-1+t, e[2], e[3])
		kz[t] = clampIndex(q.Border, k0-1+t, e[4], e[5])
	}

	nc := q.NumberOfComponents()
	for c := 0; c < nc; c++ {
		out[c] = 0
	}
	for a := 0; a < 4; a++ {
		if wx[a] == 0 {
			continue
		}
		for b := 0; b < 4; b++ {
			wxy := wx[a] * wy[b]
			if wxy == 0 {
				continue
			}
			for g := 0; g < 4; g++ {
				w := wxy * wz[g]
				if w == 0 {
					continue
				}
				for c := 0; c < nc; c++ {
					out[c] += w * q.Src.At(ix[a], jy[b], kz[g], q.CompOffset+c)
				}
			}
		}
	}
}

// PrecomputeWeightsForExtent builds one AxisEntry per output coordinate,
// packing the 4 source indices into Coeffs[4:8] (as float64, decoded back
// to int on use) alongside the 4 weights in Coeffs[0:4].
func (q *Cubic) PrecomputeWeightsForExtent(m mat.Mat4, extent voxel.Extent) (voxel.Extent, *WeightTable) {
	im := indexmat.IndexMatrix{Fused: m}
	mapping, ok := im.IsPermutationScaleTranslation()
	if !ok {
		return extent, nil
	}
	e := q.Src.Extent
	table := &WeightTable{Src: q.Src, Lo: [3]int{extent[0], extent[2], extent[4]}}
	axes := [3]*[]AxisEntry{&table.X, &table.Y, &table.Z}
	clipped := extent
	for axis := 0; axis < 3; axis++ {
		lo, hi := e[2*mapping[axis].SrcAxis], e[2*mapping[axis].SrcAxis+1]
		entries, cLo, cHi := buildCubicAxis(extent[2*axis], extent[2*axis+1], mapping[axis], lo, hi, q.Border, q.Tolerance)
		*axes[axis] = entries
		clipped[2*axis], clipped[2*axis+1] = cLo, cHi
	}
	return clipped, table
}

func buildCubicAxis(lo, hi int, m indexmat.AxisMapping, srcLo, srcHi int, border BorderMode, tol float64) (entries []AxisEntry, clippedLo, clippedHi int) {
	entries = make([]AxisEntry, hi-lo+1)
	clippedLo, clippedHi = hi+1, lo-1
	for out := lo; out <= hi; out++ {
		p := float64(out)*m.Scale + m.Trans
		base, frac := mat.FloorWithFraction(p)
		w := cubicWeights(frac)
		coeffs := make([]float64, 8)
		allIn := true
		for t := 0; t < 4; t++ {
			srcIdx := base - 1 + t
			if !inBoundsWithTolerance(border, float64(srcIdx), srcLo, srcHi, tol) {
				allIn = false
			}
			coeffs[t] = w[t]
			coeffs[4+t] = float64(clampIndex(border, srcIdx, srcLo, srcHi))
		}
		entries[out-lo] = AxisEntry{Coeffs: coeffs}
		if allIn {
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

func (q *Cubic) InterpolateRow(table *WeightTable, x0, y, z int, out []float64, count int) {
	nc := q.NumberOfComponents()
	yEntry := table.Y[y-table.Lo[1]]
	zEntry := table.Z[z-table.Lo[2]]

	for i := 0; i < count; i++ {
		xEntry := table.X[x0+i-table.Lo[0]]
		for c := 0; c < nc; c++ {
			var sum float64
			for a := 0; a < 4; a++ {
				wx := xEntry.Coeffs[a]
				if wx == 0 {
					continue
				}
				ix := int(xEntry.Coeffs[4+a])
				for b := 0; b < 4; b++ {
					wxy := wx * yEntry.Coeffs[b]
					if wxy == 0 {
						continue
					}
					jy := int(yEntry.Coeffs[4+b])
					for g := 0; g < 4; g++ {
						w := wxy * zEntry.Coeffs[g]
						if w == 0 {
							continue
						}
						kz := int(zEntry.Coeffs[4+g])
						sum += w * table.Src.At(ix, jy, kz, q.CompOffset+c)
					}
				}
			}
			out[i*nc+c] = sum
		}
	}
}
