package mat

import (
	"math"
	"testing"
)

func TestIdentityMul(t *testing.T) {
	m := Identity4()
	p, w := m.MulPoint([3]float64{1, 2, 3})
	if p != [3]float64{1, 2, 3} || w != 1 {
		t.Fatalf("identity transform changed point: %v w=%v", p, w)
	}
}

func TestInvert4RoundTrip(t *testing.T) {
	r := Mat3{
		{0, -1, 0},
		{1, 0, 0},
		{0, 0, 1},
	}
	m := FromRotationTranslation(r, [3]float64{5, -3, 2})
	inv := m.Invert()
	roundTrip := m.Mul(inv)
	id := Identity4()
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			if math.Abs(roundTrip[i][j]-id[i][j]) > 1e-9 {
				t.Fatalf("m*inv(m) != identity at [%d][%d]: %v", i, j, roundTrip[i][j])
			}
		}
	}
}

func TestInvert3MatchesTranspose(t *testing.T) {
	// Orthonormal rotation: inverse must equal transpose.
	r := Mat3{
		{0, 0, 1},
		{1, 0, 0},
		{0, 1, 0},
	}
	inv := r.Invert()
	tr := r.Transpose()
	if inv != tr {
		t.Fatalf("invert(orthonormal) != transpose: %v vs %v", inv, tr)
	}
}

func TestIsAffineBottomRow(t *testing.T) {
	m := Identity4()
	if !m.IsAffineBottomRow() {
		t.Fatal("identity should be affine")
	}
	m[3][2] = 0.1
	if m.IsAffineBottomRow() {
		t.Fatal("perturbed bottom row should not be affine")
	}
}

func TestFloorWithFraction(t *testing.T) {
	base, frac := FloorWithFraction(3.25)
	if base != 3 || math.Abs(frac-0.25) > 1e-12 {
		t.Fatalf("got base=%d frac=%v", base, frac)
	}
	base, frac = FloorWithFraction(-1.25)
	if base != -2 || math.Abs(frac-0.75) > 1e-12 {
		t.Fatalf("got base=%d frac=%v", base, frac)
	}
}

func TestRoundHalfToEven(t *testing.T) {
	cases := map[float64]int{
		0.5:  0,
		1.5:  2,
		2.5:  2,
		-0.5: 0,
		-1.5: -2,
	}
	for in, want := range cases {
		if got := RoundHalfToEven(in); got != want {
			t.Errorf("RoundHalfToEven(%v) = %d, want %d", in, got, want)
		}
	}
}

func TestIsIntegral(t *testing.T) {
	if !IsIntegral(3.0000000001, 1e-6) {
		t.Fatal("expected near-integer to be integral")
	}
	if IsIntegral(3.2, 1e-6) {
		t.Fatal("expected 3.2 to not be integral")
	}
}
