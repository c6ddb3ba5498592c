package reslice3d

import "fmt"

// validate checks Parameters against the documented ranges, matching the
// teacher's validateConfig style: one field, one range check, one
// fmt.Errorf per violated field. Only fields with a range are checked.
// Returns the first violation found, or nil.
func validate(p *Parameters) error {
	if p.OutputDimensionality < 1 || p.OutputDimensionality > 3 {
		return fmt.Errorf("%w: OutputDimensionality %d (must be 1-3)", ErrInvalidParameter, p.OutputDimensionality)
	}
	if p.OutputScalarTypeSet && (p.OutputScalarType < 0 || int(p.OutputScalarType) > int(scalarKindMax)) {
		return fmt.Errorf("%w: OutputScalarType %d", ErrUnsupportedScalarKind, p.OutputScalarType)
	}
	if p.InterpolationMode < Nearest || p.InterpolationMode > Cubic {
		return fmt.Errorf("%w: InterpolationMode %d (must be Nearest, Linear or Cubic)", ErrInvalidParameter, p.InterpolationMode)
	}
	if p.BorderMode < BorderClamp || p.BorderMode > BorderMirror {
		return fmt.Errorf("%w: BorderMode %d", ErrInvalidParameter, p.BorderMode)
	}
	if p.BorderThickness < 0 {
		return fmt.Errorf("%w: BorderThickness %.3f (must be >= 0)", ErrInvalidParameter, p.BorderThickness)
	}
	if p.SlabNumberOfSlices < 1 {
		return fmt.Errorf("%w: SlabNumberOfSlices %d (must be >= 1)", ErrInvalidParameter, p.SlabNumberOfSlices)
	}
	if p.SlabMode < SlabMean || p.SlabMode > SlabSum {
		return fmt.Errorf("%w: SlabMode %d", ErrInvalidParameter, p.SlabMode)
	}
	if p.SlabSliceSpacingFraction <= 0 || p.SlabSliceSpacingFraction > 1 {
		return fmt.Errorf("%w: SlabSliceSpacingFraction %.3f (must be in (0,1])", ErrInvalidParameter, p.SlabSliceSpacingFraction)
	}
	if p.ScalarScale == 0 {
		return fmt.Errorf("%w: ScalarScale must be non-zero", ErrInvalidParameter)
	}
	if p.ComputeOutputExtent {
		// no static range to check; extent is derived.
	} else if p.OutputExtent.Empty() {
		return fmt.Errorf("%w: OutputExtent %v is empty", ErrInvalidParameter, p.OutputExtent)
	}
	return nil
}
