// Package preview renders one Z-plane of a voxel grid as a standard
// library image.Image, for debug visualization rather than production
// output. An optional 2D affine (golang.org/x/image/math/f64.Aff3) remaps
// the plane before sampling, so an axis-swapped or mirrored view of a slice
// can be previewed without re-running a full 3D resample.
package preview

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"golang.org/x/image/math/f64"

	"github.com/fedormsv/reslice3d/internal/scalar"
	"github.com/fedormsv/reslice3d/internal/voxel"
)

// Options controls how a slice is windowed into 8-bit grayscale.
type Options struct {
	// Component selects which voxel component to preview (0 for
	// single-component volumes).
	Component int
	// WindowLo/WindowHi map input scalar values to black/white. Equal
	// values disable windowing and fall back to the scalar kind's own
	// range (or [0,1] for floating point kinds).
	WindowLo, WindowHi float64
	// Affine, when non-nil, remaps destination pixel (x,y) to a source
	// (i,j) offset within the slice before sampling: src = Affine*(x,y,1).
	Affine *f64.Aff3
}

// Slice renders Z-plane z of img's Component-th scalar component as an
// 8-bit grayscale image.Image, windowed per opts.
func Slice(img *voxel.Image, z int, opts Options) (image.Image, error) {
	if z < img.Extent[4] || z > img.Extent[5] {
		return nil, fmt.Errorf("preview: z=%d outside extent %v", z, img.Extent)
	}
	if opts.Component < 0 || opts.Component >= img.NumComp {
		return nil, fmt.Errorf("preview: component %d outside [0,%d)", opts.Component, img.NumComp)
	}

	lo, hi := opts.WindowLo, opts.WindowHi
	if lo == hi {
		if scalar.IsFloat(img.Kind) {
			lo, hi = 0, 1
		} else {
			lo, hi = scalar.Range(img.Kind)
		}
	}
	scale := 255.0 / (hi - lo)

	width := img.Extent.Dim(0)
	height := img.Extent.Dim(1)
	out := image.NewGray(image.Rect(0, 0, width, height))

	for dy := 0; dy < height; dy++ {
		for dx := 0; dx < width; dx++ {
			si, sj := sourceIJ(opts.Affine, dx, dy)
			i := img.Extent[0] + si
			j := img.Extent[2] + sj
			var v float64
			if i >= img.Extent[0] && i <= img.Extent[1] && j >= img.Extent[2] && j <= img.Extent[3] {
				v = img.At(i, j, z, opts.Component)
			} else {
				v = lo
			}
			g := uint8(clamp((v-lo)*scale, 0, 255))
			out.SetGray(dx, dy, color.Gray{Y: g})
		}
	}
	return out, nil
}

// sourceIJ maps destination pixel (x,y) back to source (i,j) via aff, or
// identity when aff is nil.
func sourceIJ(aff *f64.Aff3, x, y int) (i, j int) {
	if aff == nil {
		return x, y
	}
	xf, yf := float64(x), float64(y)
	si := aff[0]*xf + aff[1]*yf + aff[2]
	sj := aff[3]*xf + aff[4]*yf + aff[5]
	return int(math.Floor(si)), int(math.Floor(sj))
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// AxisSwapAffine returns the Aff3 that swaps a slice's X and Y display
// axes, useful for previewing a permuted reslice without re-deriving
// geometry.
func AxisSwapAffine() f64.Aff3 {
	return f64.Aff3{
		0, 1, 0,
		1, 0, 0,
	}
}
