package raster

import (
	"image"
	"image/color"
	"path/filepath"
	"testing"
)

func createTestImage(width, height int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{uint8(x * 10), uint8(y * 10), 50, 255})
		}
	}
	return img
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	img := createTestImage(16, 12)

	for _, format := range []string{"png", "jpg", "tif", "webp"} {
		path := filepath.Join(dir, "img."+Ext(format))
		if err := Save(img, path, format, 90, false); err != nil {
			t.Fatalf("%s: save: %v", format, err)
		}
		got, err := Load(path)
		if err != nil {
			t.Fatalf("%s: load: %v", format, err)
		}
		if got.Bounds().Dx() != 16 || got.Bounds().Dy() != 12 {
			t.Errorf("%s: loaded %dx%d, want 16x12", format, got.Bounds().Dx(), got.Bounds().Dy())
		}
	}
}

func TestLoadUnknownFormat(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.png")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestExt(t *testing.T) {
	cases := map[string]string{
		"png":  "png",
		"jpeg": "jpg",
		"jpg":  "jpg",
		"tiff": "tif",
		"tif":  "tif",
		"webp": "webp",
	}
	for format, want := range cases {
		if got := Ext(format); got != want {
			t.Errorf("Ext(%q) = %q, want %q", format, got, want)
		}
	}
}
