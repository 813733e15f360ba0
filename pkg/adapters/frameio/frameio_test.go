package frameio

import (
	"image"
	"image/color"
	"path/filepath"
	"testing"
)

func TestIO_PNGRoundTripIsLossless(t *testing.T) {
	io := New(90)
	src := image.NewRGBA(image.Rect(0, 0, 4, 3))
	for y := 0; y < 3; y++ {
		for x := 0; x < 4; x++ {
			src.Set(x, y, color.RGBA{R: uint8(x * 60), G: uint8(y * 80), B: 7, A: 255})
		}
	}

	path := filepath.Join(t.TempDir(), "nested", "00000.png")
	if err := io.Save(path, src); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := io.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got.Bounds() != src.Bounds() {
		t.Fatalf("bounds = %v, want %v", got.Bounds(), src.Bounds())
	}
	for y := 0; y < 3; y++ {
		for x := 0; x < 4; x++ {
			if got.RGBAAt(x, y) != src.RGBAAt(x, y) {
				t.Errorf("pixel (%d,%d) = %v, want %v", x, y, got.RGBAAt(x, y), src.RGBAAt(x, y))
			}
		}
	}
}

func TestIO_JPEGKeepsDimensions(t *testing.T) {
	io := New(0)
	src := image.NewRGBA(image.Rect(0, 0, 16, 8))
	path := filepath.Join(t.TempDir(), "00001.jpg")

	if err := io.Save(path, src); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	got, err := io.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got.Bounds().Dx() != 16 || got.Bounds().Dy() != 8 {
		t.Errorf("expected 16x8, got %v", got.Bounds())
	}
}

func TestIO_LoadMissing(t *testing.T) {
	if _, err := New(90).Load(filepath.Join(t.TempDir(), "missing.jpg")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestToRGBA_NormalizesOrigin(t *testing.T) {
	src := image.NewRGBA(image.Rect(10, 10, 14, 12))
	src.Set(10, 10, color.RGBA{R: 200, A: 255})

	got := ToRGBA(src)
	if got.Bounds().Min != (image.Point{}) {
		t.Fatalf("expected origin (0,0), got %v", got.Bounds().Min)
	}
	if got.RGBAAt(0, 0).R != 200 {
		t.Errorf("expected copied pixel, got %v", got.RGBAAt(0, 0))
	}

	same := image.NewRGBA(image.Rect(0, 0, 2, 2))
	if ToRGBA(same) != same {
		t.Error("expected zero-origin RGBA to be returned unchanged")
	}
}
