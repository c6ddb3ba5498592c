package main

import (
	"bytes"
	"image/png"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fedormsv/reslice3d/internal/scalar"
	"github.com/fedormsv/reslice3d/internal/voxel"
	"github.com/fedormsv/reslice3d/internal/volio"
)

// binaryPath holds the path to the compiled reslice3d binary. Set in
// TestMain; tests skip gracefully if the build fails.
var binaryPath string

func TestMain(m *testing.M) {
	tmp, err := os.MkdirTemp("", "reslice3d-test-bin-*")
	if err != nil {
		panic(err)
	}
	defer os.RemoveAll(tmp)

	binaryPath = filepath.Join(tmp, "reslice3d")
	cmd := exec.Command("go", "build", "-o", binaryPath, ".")
	cmd.Dir = rootDir()
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		binaryPath = ""
		os.Exit(m.Run())
	}

	os.Exit(m.Run())
}

func rootDir() string {
	dir, err := filepath.Abs(".")
	if err != nil {
		panic(err)
	}
	return dir
}

func skipIfNoBinary(t *testing.T) {
	t.Helper()
	if binaryPath == "" {
		t.Skip("reslice3d binary not built; skipping")
	}
}

// writeTestVolume writes a small ramp volume to path in the .rsv container
// format, for use as CLI test input.
func writeTestVolume(t *testing.T, path string) {
	t.Helper()
	ext := voxel.Extent{0, 3, 0, 3, 0, 3}
	img := voxel.NewImage(ext, scalar.Uint8, 1)
	img.Spacing = [3]float64{1, 1, 1}
	for k := ext[4]; k <= ext[5]; k++ {
		for j := ext[2]; j <= ext[3]; j++ {
			for i := ext[0]; i <= ext[1]; i++ {
				img.Set(i, j, k, 0, float64(i*16))
			}
		}
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create test volume: %v", err)
	}
	defer f.Close()
	if err := volio.Write(f, img); err != nil {
		t.Fatalf("write test volume: %v", err)
	}
}

func TestRunAndInfoRoundTrip(t *testing.T) {
	skipIfNoBinary(t)
	dir := t.TempDir()
	in := filepath.Join(dir, "in.rsv")
	out := filepath.Join(dir, "out.rsv")
	writeTestVolume(t, in)

	runOut, err := exec.Command(binaryPath, "run", "--interpolation", "nearest", in, out).CombinedOutput()
	if err != nil {
		t.Fatalf("run: %v\n%s", err, runOut)
	}
	if _, err := os.Stat(out); err != nil {
		t.Fatalf("expected output volume at %s: %v", out, err)
	}

	infoOut, err := exec.Command(binaryPath, "info", out).CombinedOutput()
	if err != nil {
		t.Fatalf("info: %v\n%s", err, infoOut)
	}
	if !strings.Contains(string(infoOut), "Extent:") {
		t.Fatalf("info output missing geometry report: %s", infoOut)
	}
	if !strings.Contains(string(infoOut), "Scalar kind:") {
		t.Fatalf("info output missing scalar kind: %s", infoOut)
	}
}

func TestInfoPreviewWritesValidPNG(t *testing.T) {
	skipIfNoBinary(t)
	dir := t.TempDir()
	in := filepath.Join(dir, "in.rsv")
	previewPath := filepath.Join(dir, "preview.png")
	writeTestVolume(t, in)

	out, err := exec.Command(binaryPath, "info", in, "--preview-z", "1", "--preview-out", previewPath).CombinedOutput()
	if err != nil {
		t.Fatalf("info: %v\n%s", err, out)
	}

	data, err := os.ReadFile(previewPath)
	if err != nil {
		t.Fatalf("read preview: %v", err)
	}
	if _, err := png.Decode(bytes.NewReader(data)); err != nil {
		t.Fatalf("preview is not a valid PNG: %v", err)
	}
}

func TestRunRejectsUnknownInterpolation(t *testing.T) {
	skipIfNoBinary(t)
	dir := t.TempDir()
	in := filepath.Join(dir, "in.rsv")
	out := filepath.Join(dir, "out.rsv")
	writeTestVolume(t, in)

	cmd := exec.Command(binaryPath, "run", "--interpolation", "bogus", in, out)
	if err := cmd.Run(); err == nil {
		t.Fatal("expected run to fail for an unknown --interpolation value")
	}
}

func TestRunRejectsMissingInput(t *testing.T) {
	skipIfNoBinary(t)
	dir := t.TempDir()
	cmd := exec.Command(binaryPath, "run", filepath.Join(dir, "missing.rsv"), filepath.Join(dir, "out.rsv"))
	if err := cmd.Run(); err == nil {
		t.Fatal("expected run to fail for a missing input file")
	}
}
