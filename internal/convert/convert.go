// Package convert implements slab compositing and the steps around numeric
// conversion: the {min, max, mean, sum} slab compositors with optional
// trapezoid weighting, the scalar shift/scale rescaler, and the decision
// whether a saturating clamp is needed. The clamp itself and the
// round-half-to-even store into the output kind live in internal/scalar
// (Clamp, Store); everything here works on plain float64 samples.
package convert

import "math"

// SlabMode selects how multiple parallel samples are combined into one
// output value.
type SlabMode int

const (
	SlabMean SlabMode = iota
	SlabMin
	SlabMax
	SlabSum
)

// Compositor accumulates ns samples per component and produces one float64
// per component. It is re-used across output voxels within a tile; Reset
// must be called before each new voxel's sample sequence.
type Compositor struct {
	Mode       SlabMode
	Trapezoid  bool
	NumSamples int

	acc   []float64
	count int
}

// Reset prepares the compositor for ns samples of numComp components each.
func (c *Compositor) Reset(ns, numComp int) {
	c.NumSamples = ns
	if cap(c.acc) < numComp {
		c.acc = make([]float64, numComp)
	} else {
		c.acc = c.acc[:numComp]
	}
	c.count = 0
	switch c.Mode {
	case SlabMin:
		for i := range c.acc {
			c.acc[i] = posInf
		}
	case SlabMax:
		for i := range c.acc {
			c.acc[i] = negInf
		}
	default:
		for i := range c.acc {
			c.acc[i] = 0
		}
	}
}

var (
	posInf = math.Inf(1)
	negInf = math.Inf(-1)
)

// weight returns the trapezoid weight of sample index i out of ns samples:
// endpoints get half weight when Trapezoid is enabled, interior samples
// weight 1.
func (c *Compositor) weight(i int) float64 {
	if c.Trapezoid && c.NumSamples > 1 && (i == 0 || i == c.NumSamples-1) {
		return 0.5
	}
	return 1.0
}

// Add folds one sample (numComp float64 values) into the accumulator at
// slab index i (0-based, < NumSamples).
func (c *Compositor) Add(i int, sample []float64) {
	w := c.weight(i)
	switch c.Mode {
	case SlabMin:
		for k, v := range sample {
			if v < c.acc[k] {
				c.acc[k] = v
			}
		}
	case SlabMax:
		for k, v := range sample {
			if v > c.acc[k] {
				c.acc[k] = v
			}
		}
	default: // SlabMean, SlabSum
		for k, v := range sample {
			c.acc[k] += v * w
		}
	}
	c.count++
}

// Result finalizes the accumulator into dst (must be len(numComp)).
// For SlabMean, divides by NumSamples. With trapezoid weighting the two
// half-weighted endpoints make the weights sum to ns-1, and the divisor is
// still NumSamples.
func (c *Compositor) Result(dst []float64) {
	switch c.Mode {
	case SlabMin, SlabMax, SlabSum:
		copy(dst, c.acc)
	case SlabMean:
		n := float64(c.NumSamples)
		if n == 0 {
			n = 1
		}
		for k, v := range c.acc {
			dst[k] = v / n
		}
	}
}

// Rescale applies the post-interpolation affine rescale: out = in*scale + shift.
func Rescale(v, shift, scale float64) float64 {
	return v*scale + shift
}

// ShouldClamp decides whether saturating clamp is needed: it is skipped as
// an optimization when the interpolation mode is nearest or
// linear and the slab mode is not sum (the value is already a convex
// combination of in-range source samples, so it cannot overflow), or when
// the output type is floating point (no saturation range to begin with).
// cubicOrHigher is true for any interpolator whose kernel can overshoot
// (e.g. cubic), which always requires a clamp check.
func ShouldClamp(cubicOrHigher bool, slabIsSum bool, outputIsFloat bool) bool {
	if outputIsFloat {
		return false
	}
	if !cubicOrHigher && !slabIsSum {
		return false
	}
	return true
}
