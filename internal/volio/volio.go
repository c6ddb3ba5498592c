// Package volio reads and writes the raw volume container used by
// cmd/reslice3d: a fixed little-endian header (geometry, scalar kind,
// component count) followed by the voxel buffer verbatim. It has no
// relation to any real-world medical image format; it exists to give the
// CLI something self-describing to read and write without pulling in a
// DICOM/NRRD/NIfTI parser the rest of this engine doesn't need.
package volio

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/fedormsv/reslice3d/internal/mat"
	"github.com/fedormsv/reslice3d/internal/scalar"
	"github.com/fedormsv/reslice3d/internal/voxel"
)

// magic identifies the container; version allows the header layout to grow
// without breaking older readers silently.
const (
	magic   uint32 = 0x52535633 // "RSV3"
	version uint32 = 1
)

// header is the fixed-size on-disk layout, written and read with
// encoding/binary in little-endian order.
type header struct {
	Magic     uint32
	Version   uint32
	Extent    [6]int32
	Spacing   [3]float64
	Origin    [3]float64
	Direction [9]float64
	Kind      uint8
	NumComp   uint8
	Reserved  [6]byte
}

// Write serializes img's header and voxel buffer to w.
func Write(w io.Writer, img *voxel.Image) error {
	var h header
	h.Magic = magic
	h.Version = version
	for i := 0; i < 6; i++ {
		h.Extent[i] = int32(img.Extent[i])
	}
	h.Spacing = img.Spacing
	h.Origin = img.Origin
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			h.Direction[r*3+c] = img.Direction[r][c]
		}
	}
	h.Kind = uint8(img.Kind)
	h.NumComp = uint8(img.NumComp)

	if err := binary.Write(w, binary.LittleEndian, h); err != nil {
		return fmt.Errorf("volio: write header: %w", err)
	}
	if _, err := w.Write(img.Data); err != nil {
		return fmt.Errorf("volio: write data: %w", err)
	}
	return nil
}

// Read deserializes a volume previously written by Write.
func Read(r io.Reader) (*voxel.Image, error) {
	var h header
	if err := binary.Read(r, binary.LittleEndian, &h); err != nil {
		return nil, fmt.Errorf("volio: read header: %w", err)
	}
	if h.Magic != magic {
		return nil, fmt.Errorf("volio: bad magic %#x", h.Magic)
	}
	if h.Version != version {
		return nil, fmt.Errorf("volio: unsupported version %d", h.Version)
	}
	if int(h.Kind) < 0 || h.Kind > uint8(scalar.Float64) {
		return nil, fmt.Errorf("volio: bad scalar kind %d", h.Kind)
	}

	var ext voxel.Extent
	for i := 0; i < 6; i++ {
		ext[i] = int(h.Extent[i])
	}
	if ext.Empty() {
		return nil, fmt.Errorf("volio: empty extent %v", ext)
	}

	img := voxel.NewImage(ext, scalar.Kind(h.Kind), int(h.NumComp))
	img.Spacing = h.Spacing
	img.Origin = h.Origin
	var dir mat.Mat3
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			dir[r][c] = h.Direction[r*3+c]
		}
	}
	img.Direction = dir

	if _, err := io.ReadFull(r, img.Data); err != nil {
		return nil, fmt.Errorf("volio: read data: %w", err)
	}
	return img, nil
}
