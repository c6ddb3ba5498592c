package reslice3d

import (
	"github.com/fedormsv/reslice3d/internal/convert"
	"github.com/fedormsv/reslice3d/internal/execute"
	"github.com/fedormsv/reslice3d/internal/geom"
	"github.com/fedormsv/reslice3d/internal/indexmat"
	"github.com/fedormsv/reslice3d/internal/interp"
	"github.com/fedormsv/reslice3d/internal/mat"
	"github.com/fedormsv/reslice3d/internal/scalar"
	"github.com/fedormsv/reslice3d/internal/stencil"
	"github.com/fedormsv/reslice3d/internal/voxel"
)

// Filter is the top-level resampling engine: user parameters plus the
// modification-time counters reported by GetMTime. Execute rebuilds the
// index matrix on every call.
type Filter struct {
	Params Parameters

	selfMTime      uint64
	axesMTime      uint64
	transformMTime uint64
	interpMTime    uint64
	infoInputMTime uint64
}

// NewFilter returns a Filter with default parameters.
func NewFilter() *Filter {
	return &Filter{Params: DefaultParameters(), selfMTime: 1}
}

// Modified bumps the filter's own modification time above the current
// effective one, for callers that mutated Params in place rather than
// through one of the Set* methods below.
func (f *Filter) Modified() { f.selfMTime = f.GetMTime() + 1 }

func (f *Filter) SetParameters(p Parameters) {
	f.Params = p
	f.selfMTime = f.GetMTime() + 1
}

func (f *Filter) SetResliceAxes(m mat.Mat4) {
	f.Params.ResliceAxes = m
	f.Params.ResliceAxesSet = true
	f.axesMTime = f.GetMTime() + 1
}

func (f *Filter) SetResliceTransform(t PointTransform) {
	f.Params.ResliceTransform = t
	f.transformMTime = f.GetMTime() + 1
}

func (f *Filter) SetInterpolator(i interp.Interpolator) {
	f.Params.Interpolator = i
	f.interpMTime = f.GetMTime() + 1
}

func (f *Filter) SetInformationInput(img *Image) {
	f.Params.InformationInput = img
	f.infoInputMTime = f.GetMTime() + 1
}

// GetMTime returns the effective modification time: the maximum of the
// filter's own mtime and those of reslice_transform, reslice_axes,
// interpolator and information_input.
func (f *Filter) GetMTime() uint64 {
	m := f.selfMTime
	for _, v := range [...]uint64{f.axesMTime, f.transformMTime, f.interpMTime, f.infoInputMTime} {
		if v > m {
			m = v
		}
	}
	return m
}

// Execute runs one resample pass: derive_output_info, build the index
// matrix, classify it, build the interpolator, and dispatch the tile
// driver. It returns the output image and, when generate_stencil_output is
// set, the run-length mask of voxels that were written from an in-bounds
// sample.
func (f *Filter) Execute(input *Image) (*Image, stencil.Reader, error) {
	p := &f.Params
	if err := validate(p); err != nil {
		return nil, nil, err
	}

	geomSource := input
	if p.InformationInput != nil {
		geomSource = p.InformationInput
	}
	inputInfo := geomInfoFromImage(geomSource)

	resliceAxes := mat.Identity4()
	if p.ResliceAxesSet {
		resliceAxes = p.ResliceAxes
	}

	ov := geom.Overrides{
		OutputDimensionality:   p.OutputDimensionality,
		ResliceAxes:            resliceAxes,
		AutoCropOutput:         p.AutoCropOutput,
		TransformInputSampling: p.TransformInputSampling,
	}
	if !p.ComputeOutputSpacing {
		ov.OutputSpacing = &p.OutputSpacing
	}
	if !p.ComputeOutputOrigin {
		ov.OutputOrigin = &p.OutputOrigin
	}
	if !p.ComputeOutputExtent {
		ov.OutputExtent = &p.OutputExtent
	}
	if p.OutputDirectionSet {
		ov.OutputDirection = &p.OutputDirection
	}

	outInfo := geom.DeriveOutputInfo(inputInfo, ov)

	outKind := input.Kind
	if p.OutputScalarTypeSet {
		outKind = p.OutputScalarType
	}
	numComp := input.NumComp

	output := voxel.NewImage(outInfo.Extent, outKind, numComp)
	output.Spacing = outInfo.Spacing
	output.Origin = outInfo.Origin
	output.Direction = outInfo.Direction

	var homogeneousResidual = mat.Identity4()
	var nonlinear func(p [3]float64) [3]float64
	if p.ResliceTransform != nil {
		if p.ResliceTransform.IsHomogeneous() {
			homogeneousResidual = p.ResliceTransform.AsMatrix()
		} else {
			nonlinear = p.ResliceTransform.Forward
		}
	}

	idx := indexmat.Build(output.IndexToWorld(), resliceAxes, homogeneousResidual, geomSource.WorldToIndex(), nonlinear)

	sampler, separable := f.buildInterpolator(input, numComp, idx)

	usePermute := p.Optimization && !idx.HasResidual() && separable != nil && p.SlabSliceSpacingFraction == 1
	if usePermute {
		if _, ok := idx.IsPermutationScaleTranslation(); !ok {
			usePermute = false
		}
	}

	support := [3]int{1, 1, 1}
	if sampler != nil {
		support[0], support[1], support[2] = sampler.ComputeSupportSize(nil)
	}

	border := mapBorder(p.BorderMode)
	interpBorder := [3]interp.BorderMode{border, border, border}
	_, hit := geom.ComputeUpdateExtent(input.Extent, output.Extent, idx, support, interpBorder)

	var outputStencil *stencil.RunStencil
	var stencilWriter stencil.Writer
	if p.GenerateStencilOutput {
		outputStencil = stencil.NewRunStencil()
		stencilWriter = outputStencil
	}

	bg := backgroundBytes(p.BackgroundColor, outKind, numComp)

	slabNS := p.SlabNumberOfSlices
	if slabNS < 1 {
		slabNS = 1
	}

	pass := &execute.Pass{
		Input:          input,
		Output:         output,
		Matrix:         idx,
		Interp:         sampler,
		Separable:      separable,
		UsePermute:     usePermute,
		InputStencil:   p.InputStencil,
		OutputStencil:  stencilWriter,
		HitInputExtent: hit,
		Slab: execute.SlabParams{
			NumSamples:      slabNS,
			SpacingFraction: p.SlabSliceSpacingFraction,
			Mode:            p.SlabMode,
			Trapezoid:       p.SlabTrapezoidIntegration,
		},
		Convert: execute.ConvertParams{
			Shift: p.ScalarShift,
			Scale: p.ScalarScale,
			Clamp: shouldClampOutput(p, outKind),
		},
		Background: bg,
	}

	execute.RunPass(pass, execute.DefaultWorkerCount())

	if outputStencil != nil {
		return output, outputStencil, nil
	}
	return output, nil, nil
}

func geomInfoFromImage(img *Image) geom.Info {
	return geom.Info{
		Extent:    img.Extent,
		Spacing:   img.Spacing,
		Origin:    img.Origin,
		Direction: img.Direction,
	}
}

func mapBorder(b BorderMode) interp.BorderMode {
	switch b {
	case BorderRepeat:
		return interp.BorderRepeat
	case BorderMirror:
		return interp.BorderMirror
	default:
		return interp.BorderClamp
	}
}

// buildInterpolator resolves the configured interpolator: an explicit
// override if supplied, otherwise a built-in kernel selected from
// InterpolationMode, downgraded to Nearest when the index matrix is
// nearest-safe and Optimization is enabled, since that changes no results
// and skips the more expensive kernel's per-voxel work.
func (f *Filter) buildInterpolator(input *Image, numComp int, idx indexmat.IndexMatrix) (interp.Interpolator, interp.SeparableWeights) {
	p := &f.Params
	border := mapBorder(p.BorderMode)
	tol := 0.0
	if p.Border {
		tol = p.BorderThickness
	}

	if p.Interpolator != nil {
		p.Interpolator.SetBorderMode(border)
		p.Interpolator.SetTolerance(tol)
		sep, _ := p.Interpolator.(interp.SeparableWeights)
		return p.Interpolator, sep
	}

	mode := p.InterpolationMode
	if p.Optimization && mode != Nearest && idx.IsNearestSafe() {
		mode = Nearest
	}

	switch mode {
	case Linear:
		l := &interp.Linear{Src: input, Border: border, Tolerance: tol, NumComp: numComp}
		return l, l
	case Cubic:
		c := &interp.Cubic{Src: input, Border: border, Tolerance: tol, NumComp: numComp}
		return c, c
	default:
		n := &interp.Nearest{Src: input, Border: border, Tolerance: tol, NumComp: numComp}
		return n, n
	}
}

// shouldClampOutput decides whether the post-composite conversion needs a
// saturating clamp: skipped for floating point output, or for nearest/
// linear modes with a non-sum slab, required otherwise (cubic can
// overshoot; sum slabs can exceed the per-sample range).
func shouldClampOutput(p *Parameters, outKind scalar.Kind) bool {
	cubicOrHigher := p.InterpolationMode == Cubic || p.Interpolator != nil
	return convert.ShouldClamp(cubicOrHigher, p.SlabMode == SlabSum, scalar.IsFloat(outKind))
}

func backgroundBytes(color [4]float64, kind scalar.Kind, numComp int) []byte {
	size := scalar.Size(kind)
	buf := make([]byte, numComp*size)
	for c := 0; c < numComp; c++ {
		v := 0.0
		if c < len(color) {
			v = color[c]
		}
		scalar.Store(kind, buf, c*size, scalar.Clamp(kind, v))
	}
	return buf
}
