package interp

import (
	"math"
	"testing"

	"github.com/fedormsv/reslice3d/internal/mat"
	"github.com/fedormsv/reslice3d/internal/scalar"
	"github.com/fedormsv/reslice3d/internal/voxel"
)

func makeRampImage() *voxel.Image {
	img := voxel.NewImage(voxel.Extent{0, 3, 0, 3, 0, 3}, scalar.Float64, 1)
	for k := 0; k <= 3; k++ {
		for j := 0; j <= 3; j++ {
			for i := 0; i <= 3; i++ {
				img.Set(i, j, k, 0, float64(100*k+10*j+i))
			}
		}
	}
	return img
}

func TestNearestExactGrid(t *testing.T) {
	img := makeRampImage()
	n := &Nearest{Src: img}
	out := make([]float64, 1)
	n.InterpolateIJK([3]float64{2, 1, 0}, out)
	if out[0] != img.At(2, 1, 0, 0) {
		t.Fatalf("nearest at grid point mismatch: %v vs %v", out[0], img.At(2, 1, 0, 0))
	}
}

func TestLinearAtGridPointsMatchesSource(t *testing.T) {
	img := makeRampImage()
	l := &Linear{Src: img}
	out := make([]float64, 1)
	l.InterpolateIJK([3]float64{1, 2, 3}, out)
	if math.Abs(out[0]-img.At(1, 2, 3, 0)) > 1e-9 {
		t.Fatalf("linear at grid point = %v, want %v", out[0], img.At(1, 2, 3, 0))
	}
}

func TestLinearMidpointIsAverage(t *testing.T) {
	img := voxel.NewImage(voxel.Extent{0, 1, 0, 0, 0, 0}, scalar.Float64, 1)
	img.Set(0, 0, 0, 0, 0)
	img.Set(1, 0, 0, 0, 10)
	l := &Linear{Src: img}
	out := make([]float64, 1)
	l.InterpolateIJK([3]float64{0.5, 0, 0}, out)
	if math.Abs(out[0]-5) > 1e-9 {
		t.Fatalf("midpoint = %v, want 5", out[0])
	}
}

func TestCubicAtGridPointsMatchesSource(t *testing.T) {
	img := makeRampImage()
	c := &Cubic{Src: img, Border: BorderClamp}
	out := make([]float64, 1)
	c.InterpolateIJK([3]float64{2, 2, 2}, out)
	if math.Abs(out[0]-img.At(2, 2, 2, 0)) > 1e-6 {
		t.Fatalf("cubic at grid point = %v, want %v", out[0], img.At(2, 2, 2, 0))
	}
}

func TestCheckBoundsTolerance(t *testing.T) {
	img := makeRampImage()
	n := &Nearest{Src: img, Border: BorderClamp, Tolerance: 0.5}
	if !n.CheckBoundsIJK([3]float64{3.4, 0, 0}) {
		t.Error("expected 3.4 to be within tolerance 0.5 of extent max 3")
	}
	if n.CheckBoundsIJK([3]float64{3.6, 0, 0}) {
		t.Error("expected 3.6 to be outside tolerance 0.5 of extent max 3")
	}
}

func TestBorderRepeatWraps(t *testing.T) {
	img := makeRampImage()
	n := &Nearest{Src: img, Border: BorderRepeat}
	out := make([]float64, 1)
	n.InterpolateIJK([3]float64{4, 0, 0}, out) // wraps to index 0
	if out[0] != img.At(0, 0, 0, 0) {
		t.Fatalf("repeat wrap at x=4 = %v, want %v", out[0], img.At(0, 0, 0, 0))
	}
}

func TestLinearSeparableWeightsMatchDirect(t *testing.T) {
	img := makeRampImage()
	l := &Linear{Src: img, Border: BorderClamp}
	m := mat.Mat4{
		{1, 0, 0, 0.25},
		{0, 1, 0, 0},
		{0, 0, 1, 0},
		{0, 0, 0, 1},
	}
	ext := voxel.Extent{0, 2, 0, 2, 0, 2}
	_, table := l.PrecomputeWeightsForExtent(m, ext)
	if table == nil {
		t.Fatal("expected weight table for axis-aligned matrix")
	}
	out := make([]float64, 3)
	l.InterpolateRow(table, 0, 1, 1, out, 3)
	for i, x := range []int{0, 1, 2} {
		p := [3]float64{float64(x) + 0.25, 1, 1}
		direct := make([]float64, 1)
		l.InterpolateIJK(p, direct)
		if math.Abs(out[i]-direct[0]) > 1e-9 {
			t.Fatalf("row vs direct mismatch at x=%d: %v vs %v", x, out[i], direct[0])
		}
	}
}
