package execute

import (
	"testing"

	"github.com/fedormsv/reslice3d/internal/convert"
	"github.com/fedormsv/reslice3d/internal/indexmat"
	"github.com/fedormsv/reslice3d/internal/interp"
	"github.com/fedormsv/reslice3d/internal/mat"
	"github.com/fedormsv/reslice3d/internal/scalar"
	"github.com/fedormsv/reslice3d/internal/voxel"
)

func fourCubeImage() *voxel.Image {
	ext := voxel.Extent{0, 3, 0, 3, 0, 3}
	img := voxel.NewImage(ext, scalar.Uint8, 1)
	for k := 0; k <= 3; k++ {
		for j := 0; j <= 3; j++ {
			for i := 0; i <= 3; i++ {
				img.Set(i, j, k, 0, float64(i+4*j+16*k))
			}
		}
	}
	return img
}

func newPass(input, output *voxel.Image, m mat.Mat4, usePermute bool) *Pass {
	n := &interp.Nearest{Src: input}
	return &Pass{
		Input:          input,
		Output:         output,
		Matrix:         indexmat.IndexMatrix{Fused: m},
		Interp:         n,
		Separable:      n,
		UsePermute:     usePermute,
		HitInputExtent: true,
		Slab:           SlabParams{NumSamples: 1, Mode: convert.SlabMean},
		Convert:        ConvertParams{Shift: 0, Scale: 1},
		Background:     []byte{0},
	}
}

func TestIdentityGeneralMatchesPermute(t *testing.T) {
	input := fourCubeImage()
	outGeneral := voxel.NewImage(input.Extent, scalar.Uint8, 1)
	outPermute := voxel.NewImage(input.Extent, scalar.Uint8, 1)

	passGeneral := newPass(input, outGeneral, mat.Identity4(), false)
	passPermute := newPass(input, outPermute, mat.Identity4(), true)

	RunPass(passGeneral, 1)
	RunPass(passPermute, 4)

	for i := range outGeneral.Data {
		if outGeneral.Data[i] != outPermute.Data[i] {
			t.Fatalf("general/permute mismatch at byte %d: %d vs %d", i, outGeneral.Data[i], outPermute.Data[i])
		}
	}
	for k := 0; k <= 3; k++ {
		for j := 0; j <= 3; j++ {
			for i := 0; i <= 3; i++ {
				want := input.At(i, j, k, 0)
				if outGeneral.At(i, j, k, 0) != want {
					t.Fatalf("identity copy mismatch at (%d,%d,%d): got %v want %v", i, j, k, outGeneral.At(i, j, k, 0), want)
				}
			}
		}
	}
}

func TestAxisSwapPermute(t *testing.T) {
	input := fourCubeImage()
	output := voxel.NewImage(input.Extent, scalar.Uint8, 1)

	// Output (x,y,z) reads input (y,x,z): swap rows 0 and 1.
	swap := mat.Mat4{
		{0, 1, 0, 0},
		{1, 0, 0, 0},
		{0, 0, 1, 0},
		{0, 0, 0, 1},
	}
	pass := newPass(input, output, swap, true)
	RunPass(pass, 2)

	for k := 0; k <= 3; k++ {
		for j := 0; j <= 3; j++ {
			for i := 0; i <= 3; i++ {
				want := input.At(j, i, k, 0)
				got := output.At(i, j, k, 0)
				if got != want {
					t.Fatalf("axis swap mismatch at (%d,%d,%d): got %v want %v", i, j, k, got, want)
				}
			}
		}
	}
}

func TestTranslationGeneralPathBackgroundFill(t *testing.T) {
	input := fourCubeImage()
	output := voxel.NewImage(input.Extent, scalar.Uint8, 1)

	// Output x reads input x+2: only output x in [0,1] has valid input (x+2 in [2,3]).
	translate := mat.Mat4{
		{1, 0, 0, 2},
		{0, 1, 0, 0},
		{0, 0, 1, 0},
		{0, 0, 0, 1},
	}
	pass := newPass(input, output, translate, false)
	pass.Background = []byte{9}
	RunPass(pass, 1)

	for k := 0; k <= 3; k++ {
		for j := 0; j <= 3; j++ {
			for i := 0; i <= 3; i++ {
				got := output.At(i, j, k, 0)
				if i >= 2 {
					if got != 9 {
						t.Fatalf("expected background at (%d,%d,%d), got %v", i, j, k, got)
					}
				} else {
					want := input.At(i+2, j, k, 0)
					if got != want {
						t.Fatalf("expected sampled value at (%d,%d,%d), got %v want %v", i, j, k, got, want)
					}
				}
			}
		}
	}
}

func TestHitMissFillsBackgroundEverywhere(t *testing.T) {
	input := fourCubeImage()
	output := voxel.NewImage(input.Extent, scalar.Uint8, 1)
	pass := newPass(input, output, mat.Identity4(), false)
	pass.HitInputExtent = false
	pass.Background = []byte{42}

	RunPass(pass, 3)

	for _, b := range output.Data {
		if b != 42 {
			t.Fatalf("expected background byte 42 everywhere, found %d", b)
		}
	}
}

func TestSplitTilesNeverSplitsXWhenGeneratingStencil(t *testing.T) {
	ext := voxel.Extent{0, 1, 0, 9, 0, 9}
	tiles := splitTiles(ext, 8, false)
	for _, tl := range tiles {
		if tl[0] != ext[0] || tl[1] != ext[1] {
			t.Fatalf("tile split X axis when stencil generation disallows it: %v", tl)
		}
	}
}
