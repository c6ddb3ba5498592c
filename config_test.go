package reslice3d

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fedormsv/reslice3d/internal/scalar"
)

func TestLoadConfigAppliesToParameters(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "reslice.yaml")
	doc := `
interpolation_mode: linear
border_mode: mirror
slab_number_of_slices: 3
slab_mode: sum
scalar_scale: 2.5
output_scalar_type: float32
output_scalar_type_set: true
optimization: false
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	p, err := cfg.ToParameters(DefaultParameters())
	require.NoError(t, err)

	require.Equal(t, Linear, p.InterpolationMode)
	require.Equal(t, BorderMirror, p.BorderMode)
	require.Equal(t, 3, p.SlabNumberOfSlices)
	require.Equal(t, SlabSum, p.SlabMode)
	require.Equal(t, 2.5, p.ScalarScale)
	require.True(t, p.OutputScalarTypeSet)
	require.Equal(t, scalar.Float32, p.OutputScalarType)
	require.False(t, p.Optimization)
}

func TestLoadConfigRejectsUnknownField(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "reslice.yaml")
	require.NoError(t, os.WriteFile(path, []byte("not_a_real_field: true\n"), 0o644))

	_, err := LoadConfig(path)
	require.Error(t, err)
}

func TestLoadConfigRejectsUnknownScalarType(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "reslice.yaml")
	doc := "output_scalar_type: not_a_kind\noutput_scalar_type_set: true\n"
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	_, err = cfg.ToParameters(DefaultParameters())
	require.ErrorIs(t, err, ErrUnsupportedScalarKind)
}

func TestFromParametersRoundTripsThroughConfig(t *testing.T) {
	p := DefaultParameters()
	p.InterpolationMode = Cubic
	p.SlabMode = SlabMax
	p.ScalarScale = 4
	p.OutputScalarType = scalar.Int16
	p.OutputScalarTypeSet = true

	cfg := FromParameters(p)
	back, err := cfg.ToParameters(DefaultParameters())
	require.NoError(t, err)

	require.Equal(t, p.InterpolationMode, back.InterpolationMode)
	require.Equal(t, p.SlabMode, back.SlabMode)
	require.Equal(t, p.ScalarScale, back.ScalarScale)
	require.Equal(t, p.OutputScalarType, back.OutputScalarType)
}
