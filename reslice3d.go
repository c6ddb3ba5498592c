// Package reslice3d resamples a 3D scalar voxel image onto an output grid
// of arbitrary pose, spacing, direction, extent and dimensionality. See
// Filter for the top-level entry point.
package reslice3d

import (
	"errors"

	"github.com/fedormsv/reslice3d/internal/convert"
	"github.com/fedormsv/reslice3d/internal/interp"
	"github.com/fedormsv/reslice3d/internal/mat"
	"github.com/fedormsv/reslice3d/internal/scalar"
	"github.com/fedormsv/reslice3d/internal/stencil"
	"github.com/fedormsv/reslice3d/internal/voxel"
)

// Image is the in-memory voxel grid, both input and output.
type Image = voxel.Image

// Extent is a closed integer interval per axis: [x0,x1,y0,y1,z0,z1].
type Extent = voxel.Extent

// ScalarKind identifies the numeric representation of one voxel component.
type ScalarKind = scalar.Kind

const scalarKindMax = scalar.Float64

// Interpolation kind selects the built-in kernel used when no explicit
// Interpolator is supplied via Parameters.Interpolator.
const (
	Nearest InterpolationMode = iota
	Linear
	Cubic
)

// InterpolationMode enumerates the built-in interpolation kernels.
type InterpolationMode int

// BorderMode selects how out-of-extent reads are handled.
type BorderMode int

const (
	BorderClamp BorderMode = iota
	BorderRepeat
	BorderMirror
)

// SlabMode selects how multiple parallel slab samples combine into one
// output value.
type SlabMode = convert.SlabMode

const (
	SlabMean = convert.SlabMean
	SlabMin  = convert.SlabMin
	SlabMax  = convert.SlabMax
	SlabSum  = convert.SlabSum
)

// PointTransform is an optional arbitrary (possibly nonlinear) warp applied
// between the reslice axes stage and the input world->index stage. A
// transform that is homogeneous exposes its matrix via AsMatrix so the
// index matrix builder can fold it into the single fused 4x4 instead of
// recording a per-voxel residual.
type PointTransform interface {
	Forward(p [3]float64) [3]float64
	Inverse(p [3]float64) [3]float64
	IsHomogeneous() bool
	AsMatrix() mat.Mat4 // only valid when IsHomogeneous() is true
}

// Sentinel errors. Validation and Execute return ErrInvalidParameter and
// ErrUnsupportedScalarKind; Execute does not return ErrNoHit, since a pass
// that misses the input extent fills the output with the background color.
var (
	ErrInvalidParameter      = errors.New("reslice3d: invalid parameter")
	ErrUnsupportedScalarKind = errors.New("reslice3d: unsupported scalar kind")
	ErrNoHit                 = errors.New("reslice3d: output extent does not overlap input extent")
)

// Parameters is the full user-facing parameter surface for one resample
// pass. DefaultParameters supplies the defaults; validate rejects a zero
// value in fields whose valid range excludes it (OutputDimensionality,
// SlabNumberOfSlices, SlabSliceSpacingFraction, ScalarScale).
type Parameters struct {
	ResliceAxes          mat.Mat4
	ResliceAxesSet       bool
	ResliceTransform     PointTransform
	InformationInput     *Image

	OutputSpacing        [3]float64
	ComputeOutputSpacing bool
	OutputOrigin         [3]float64
	ComputeOutputOrigin  bool
	OutputDirection       mat.Mat3
	OutputDirectionSet    bool
	PassDirectionToOutput bool
	OutputExtent         Extent
	ComputeOutputExtent  bool
	OutputDimensionality int

	OutputScalarType    ScalarKind
	OutputScalarTypeSet bool

	InterpolationMode InterpolationMode
	Interpolator      interp.Interpolator // overrides InterpolationMode when non-nil

	BorderMode        BorderMode
	Border            bool
	BorderThickness   float64

	SlabNumberOfSlices         int
	SlabMode                   SlabMode
	SlabTrapezoidIntegration   bool
	SlabSliceSpacingFraction   float64

	ScalarShift float64
	ScalarScale float64

	BackgroundColor [4]float64

	AutoCropOutput         bool
	TransformInputSampling bool
	Optimization           bool
	GenerateStencilOutput  bool

	InputStencil stencil.Reader
}

// DefaultParameters returns a Parameters value with every field at its
// documented default.
func DefaultParameters() Parameters {
	return Parameters{
		ComputeOutputSpacing:     true,
		ComputeOutputOrigin:      true,
		ComputeOutputExtent:      true,
		OutputDimensionality:     3,
		InterpolationMode:        Nearest,
		BorderMode:               BorderClamp,
		Border:                   true,
		BorderThickness:          0.5,
		SlabNumberOfSlices:       1,
		SlabMode:                 SlabMean,
		SlabSliceSpacingFraction: 1.0,
		ScalarScale:              1.0,
		TransformInputSampling:   true,
		Optimization:             true,
	}
}
