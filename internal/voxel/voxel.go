// Package voxel defines the grid data model shared by every stage of the
// resampling engine: a regularly spaced 3D scalar image with integer
// extent, spacing, origin, direction cosines, a scalar kind and a
// contiguous typed buffer in X-fastest order. Image container I/O is out
// of scope; Image is always constructed in memory.
package voxel

import (
	"github.com/fedormsv/reslice3d/internal/mat"
	"github.com/fedormsv/reslice3d/internal/scalar"
)

// Extent is a closed integer interval per axis: [X0,X1,Y0,Y1,Z0,Z1].
type Extent [6]int

// Dim returns the voxel count along axis k (0=X,1=Y,2=Z).
func (e Extent) Dim(k int) int {
	return e[2*k+1] - e[2*k] + 1
}

// Empty reports whether the extent has a non-positive size along any axis.
func (e Extent) Empty() bool {
	return e[1] < e[0] || e[3] < e[2] || e[5] < e[4]
}

// Contains reports whether (i,j,k) lies within the extent.
func (e Extent) Contains(i, j, k int) bool {
	return i >= e[0] && i <= e[1] && j >= e[2] && j <= e[3] && k >= e[4] && k <= e[5]
}

// Clip intersects e with o, axis by axis.
func (e Extent) Clip(o Extent) Extent {
	var out Extent
	for k := 0; k < 3; k++ {
		lo := e[2*k]
		if o[2*k] > lo {
			lo = o[2*k]
		}
		hi := e[2*k+1]
		if o[2*k+1] < hi {
			hi = o[2*k+1]
		}
		out[2*k], out[2*k+1] = lo, hi
	}
	return out
}

// Union computes the axis-wise union of the bounding intervals of e and o.
func (e Extent) Union(o Extent) Extent {
	var out Extent
	for k := 0; k < 3; k++ {
		lo := e[2*k]
		if o[2*k] < lo {
			lo = o[2*k]
		}
		hi := e[2*k+1]
		if o[2*k+1] > hi {
			hi = o[2*k+1]
		}
		out[2*k], out[2*k+1] = lo, hi
	}
	return out
}

// Image is the in-memory voxel grid: both the resampling engine's input and
// its output are this type.
type Image struct {
	Extent    Extent
	Spacing   [3]float64
	Origin    [3]float64
	Direction mat.Mat3 // orthonormal rotation, index axes -> world axes
	Kind      scalar.Kind
	NumComp   int
	Data      []byte // contiguous, X-fastest, Kind-sized components
}

// NewImage allocates a zeroed Image of the given extent, kind and component
// count, with identity direction and unit spacing/zero origin (callers
// override as needed).
func NewImage(ext Extent, kind scalar.Kind, numComp int) *Image {
	n := ext.Dim(0) * ext.Dim(1) * ext.Dim(2) * numComp * scalar.Size(kind)
	return &Image{
		Extent:    ext,
		Spacing:   [3]float64{1, 1, 1},
		Direction: mat.Identity3(),
		Kind:      kind,
		NumComp:   numComp,
		Data:      make([]byte, n),
	}
}

// voxelSize returns the byte size of one full voxel (all components).
func (img *Image) voxelSize() int {
	return img.NumComp * scalar.Size(img.Kind)
}

// Offset returns the byte offset of voxel (i,j,k)'s first component.
func (img *Image) Offset(i, j, k int) int {
	e := img.Extent
	dx, dy := e.Dim(0), e.Dim(1)
	li, lj, lk := i-e[0], j-e[2], k-e[4]
	return ((lk*dy+lj)*dx + li) * img.voxelSize()
}

// At returns component c of voxel (i,j,k) as a float64. The caller must
// ensure (i,j,k) lies within Extent.
func (img *Image) At(i, j, k, c int) float64 {
	off := img.Offset(i, j, k) + c*scalar.Size(img.Kind)
	return scalar.Load(img.Kind, img.Data, off)
}

// Set stores component c of voxel (i,j,k).
func (img *Image) Set(i, j, k, c int, v float64) {
	off := img.Offset(i, j, k) + c*scalar.Size(img.Kind)
	scalar.Store(img.Kind, img.Data, off, v)
}

// VoxelBytes returns the raw byte slice for voxel (i,j,k) (all components).
func (img *Image) VoxelBytes(i, j, k int) []byte {
	off := img.Offset(i, j, k)
	return img.Data[off : off+img.voxelSize()]
}

// BytesPerVoxel returns NumComp*scalar.Size(Kind), the byte size of one
// full voxel.
func (img *Image) BytesPerVoxel() int {
	return img.voxelSize()
}

// IndexToWorld returns the 4x4 matrix mapping integer index (i,j,k,1) to
// world coordinates: diag(Spacing) composed on the left of Direction,
// translated by Origin.
func (img *Image) IndexToWorld() mat.Mat4 {
	scaled := mat.Scale3(img.Spacing).Mul(img.Direction)
	return mat.FromRotationTranslation(scaled, img.Origin)
}

// WorldToIndex returns the inverse of IndexToWorld: translate by -Origin,
// then apply inv(Direction)*diag(1/Spacing).
func (img *Image) WorldToIndex() mat.Mat4 {
	return img.IndexToWorld().Invert()
}
