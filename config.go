package reslice3d

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/fedormsv/reslice3d/internal/mat"
	"github.com/fedormsv/reslice3d/internal/scalar"
)

// Config is the YAML-serializable projection of Parameters. It omits the
// fields that cannot round-trip through a document: ResliceTransform (a
// PointTransform interface value), InformationInput (a runtime Image), Interpolator
// (a runtime override) and InputStencil (a runtime mask). Those are set
// programmatically on the Parameters value after loading, when needed.
type Config struct {
	ResliceAxes    [4][4]float64 `yaml:"reslice_axes,omitempty"`
	ResliceAxesSet bool          `yaml:"reslice_axes_set,omitempty"`

	OutputSpacing        [3]float64 `yaml:"output_spacing,omitempty"`
	ComputeOutputSpacing bool       `yaml:"compute_output_spacing,omitempty"`
	OutputOrigin         [3]float64 `yaml:"output_origin,omitempty"`
	ComputeOutputOrigin  bool       `yaml:"compute_output_origin,omitempty"`

	OutputDirection       [3][3]float64 `yaml:"output_direction,omitempty"`
	OutputDirectionSet    bool          `yaml:"output_direction_set,omitempty"`
	PassDirectionToOutput bool          `yaml:"pass_direction_to_output,omitempty"`

	OutputExtent         [6]int `yaml:"output_extent,omitempty"`
	ComputeOutputExtent  bool   `yaml:"compute_output_extent,omitempty"`
	OutputDimensionality int    `yaml:"output_dimensionality,omitempty"`

	OutputScalarType    string `yaml:"output_scalar_type,omitempty"`
	OutputScalarTypeSet bool   `yaml:"output_scalar_type_set,omitempty"`

	InterpolationMode string `yaml:"interpolation_mode,omitempty"`

	BorderMode      string  `yaml:"border_mode,omitempty"`
	Border          bool    `yaml:"border,omitempty"`
	BorderThickness float64 `yaml:"border_thickness,omitempty"`

	SlabNumberOfSlices       int     `yaml:"slab_number_of_slices,omitempty"`
	SlabMode                 string  `yaml:"slab_mode,omitempty"`
	SlabTrapezoidIntegration bool    `yaml:"slab_trapezoid_integration,omitempty"`
	SlabSliceSpacingFraction float64 `yaml:"slab_slice_spacing_fraction,omitempty"`

	ScalarShift float64 `yaml:"scalar_shift,omitempty"`
	ScalarScale float64 `yaml:"scalar_scale,omitempty"`

	BackgroundColor [4]float64 `yaml:"background_color,omitempty"`

	AutoCropOutput         bool `yaml:"auto_crop_output,omitempty"`
	TransformInputSampling bool `yaml:"transform_input_sampling,omitempty"`
	Optimization           bool `yaml:"optimization,omitempty"`
	GenerateStencilOutput  bool `yaml:"generate_stencil_output,omitempty"`
}

// LoadConfig reads a YAML document at path and returns the Config it
// describes. Unknown fields are rejected, matching yaml.v3's
// Decoder.KnownFields strictness.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reslice3d: read config %s: %w", path, err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var cfg Config
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("reslice3d: parse config %s: %w", path, err)
	}
	return &cfg, nil
}

// ToParameters builds a full Parameters value from this Config. base
// supplies only the fields Config cannot represent (ResliceTransform,
// InformationInput, Interpolator, InputStencil), plus OutputScalarType when
// c.OutputScalarTypeSet is false; every other field is taken directly from
// c, including zero values — Config is a complete mirror of Parameters, not
// a sparse overlay, so a partially-written document resolves absent fields
// to Go's zero value rather than to base's value.
// The usual workflow is to start from FromParameters(DefaultParameters()),
// write that out, and edit the fields that need to change.
func (c *Config) ToParameters(base Parameters) (Parameters, error) {
	p := base

	p.ResliceAxes = mat.Mat4(c.ResliceAxes)
	p.ResliceAxesSet = c.ResliceAxesSet

	p.OutputSpacing = c.OutputSpacing
	p.ComputeOutputSpacing = c.ComputeOutputSpacing
	p.OutputOrigin = c.OutputOrigin
	p.ComputeOutputOrigin = c.ComputeOutputOrigin

	p.OutputDirection = mat.Mat3(c.OutputDirection)
	p.OutputDirectionSet = c.OutputDirectionSet
	p.PassDirectionToOutput = c.PassDirectionToOutput

	p.OutputExtent = Extent(c.OutputExtent)
	p.ComputeOutputExtent = c.ComputeOutputExtent
	p.OutputDimensionality = c.OutputDimensionality

	p.OutputScalarTypeSet = c.OutputScalarTypeSet
	if c.OutputScalarTypeSet {
		kind, ok := scalar.ParseKind(c.OutputScalarType)
		if !ok {
			return Parameters{}, fmt.Errorf("%w: output_scalar_type %q", ErrUnsupportedScalarKind, c.OutputScalarType)
		}
		p.OutputScalarType = kind
	}

	mode, ok := parseInterpolationMode(c.InterpolationMode)
	if !ok {
		return Parameters{}, fmt.Errorf("%w: interpolation_mode %q", ErrInvalidParameter, c.InterpolationMode)
	}
	p.InterpolationMode = mode

	border, ok := parseBorderMode(c.BorderMode)
	if !ok {
		return Parameters{}, fmt.Errorf("%w: border_mode %q", ErrInvalidParameter, c.BorderMode)
	}
	p.BorderMode = border
	p.Border = c.Border
	p.BorderThickness = c.BorderThickness

	p.SlabNumberOfSlices = c.SlabNumberOfSlices
	slabMode, ok := parseSlabMode(c.SlabMode)
	if !ok {
		return Parameters{}, fmt.Errorf("%w: slab_mode %q", ErrInvalidParameter, c.SlabMode)
	}
	p.SlabMode = slabMode
	p.SlabTrapezoidIntegration = c.SlabTrapezoidIntegration
	p.SlabSliceSpacingFraction = c.SlabSliceSpacingFraction

	p.ScalarShift = c.ScalarShift
	p.ScalarScale = c.ScalarScale

	p.BackgroundColor = c.BackgroundColor
	p.AutoCropOutput = c.AutoCropOutput
	p.TransformInputSampling = c.TransformInputSampling
	p.Optimization = c.Optimization
	p.GenerateStencilOutput = c.GenerateStencilOutput

	return p, nil
}

// FromParameters builds a Config snapshot of the serializable subset of p.
func FromParameters(p Parameters) Config {
	return Config{
		ResliceAxes:              [4][4]float64(p.ResliceAxes),
		ResliceAxesSet:           p.ResliceAxesSet,
		OutputSpacing:            p.OutputSpacing,
		ComputeOutputSpacing:     p.ComputeOutputSpacing,
		OutputOrigin:             p.OutputOrigin,
		ComputeOutputOrigin:      p.ComputeOutputOrigin,
		OutputDirection:          [3][3]float64(p.OutputDirection),
		OutputDirectionSet:       p.OutputDirectionSet,
		PassDirectionToOutput:    p.PassDirectionToOutput,
		OutputExtent:             [6]int(p.OutputExtent),
		ComputeOutputExtent:      p.ComputeOutputExtent,
		OutputDimensionality:     p.OutputDimensionality,
		OutputScalarType:         p.OutputScalarType.String(),
		OutputScalarTypeSet:      p.OutputScalarTypeSet,
		InterpolationMode:        interpolationModeString(p.InterpolationMode),
		BorderMode:               borderModeString(p.BorderMode),
		Border:                   p.Border,
		BorderThickness:          p.BorderThickness,
		SlabNumberOfSlices:       p.SlabNumberOfSlices,
		SlabMode:                 slabModeString(p.SlabMode),
		SlabTrapezoidIntegration: p.SlabTrapezoidIntegration,
		SlabSliceSpacingFraction: p.SlabSliceSpacingFraction,
		ScalarShift:              p.ScalarShift,
		ScalarScale:              p.ScalarScale,
		BackgroundColor:          p.BackgroundColor,
		AutoCropOutput:           p.AutoCropOutput,
		TransformInputSampling:   p.TransformInputSampling,
		Optimization:             p.Optimization,
		GenerateStencilOutput:    p.GenerateStencilOutput,
	}
}

func interpolationModeString(m InterpolationMode) string {
	switch m {
	case Linear:
		return "linear"
	case Cubic:
		return "cubic"
	default:
		return "nearest"
	}
}

func parseInterpolationMode(s string) (InterpolationMode, bool) {
	switch s {
	case "", "nearest":
		return Nearest, true
	case "linear":
		return Linear, true
	case "cubic":
		return Cubic, true
	default:
		return 0, false
	}
}

func borderModeString(m BorderMode) string {
	switch m {
	case BorderRepeat:
		return "repeat"
	case BorderMirror:
		return "mirror"
	default:
		return "clamp"
	}
}

func parseBorderMode(s string) (BorderMode, bool) {
	switch s {
	case "", "clamp":
		return BorderClamp, true
	case "repeat":
		return BorderRepeat, true
	case "mirror":
		return BorderMirror, true
	default:
		return 0, false
	}
}

func slabModeString(m SlabMode) string {
	switch m {
	case SlabMin:
		return "min"
	case SlabMax:
		return "max"
	case SlabSum:
		return "sum"
	default:
		return "mean"
	}
}

func parseSlabMode(s string) (SlabMode, bool) {
	switch s {
	case "", "mean":
		return SlabMean, true
	case "min":
		return SlabMin, true
	case "max":
		return SlabMax, true
	case "sum":
		return SlabSum, true
	default:
		return 0, false
	}
}
