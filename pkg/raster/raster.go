// Package raster reads and writes the fixed set of raster formats the
// extractor understands: png, jpeg, gif, bmp, tiff, and webp for input,
// png, jpeg, tiff, and webp for output.
package raster

import (
	"fmt"
	"image"
	"os"
	"strings"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"

	_ "image/gif"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Load reads a raster file from disk with WebP support
func Load(path string) (image.Image, error) {
	// Try imaging.Open (registered decoders)
	if img, err := imaging.Open(path); err == nil {
		return img, nil
	}

	// Fallback: explicit WebP decode
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if img, err := webp.Decode(f); err == nil {
		return img, nil
	}
	if _, err := f.Seek(0, 0); err == nil {
		if img, _, err := image.Decode(f); err == nil {
			return img, nil
		}
	}
	return nil, fmt.Errorf("raster: unknown format for %s", path)
}

// Save encodes img to path. The format decides the encoder; quality applies
// to jpeg and lossy webp, lossless to webp only.
func Save(img image.Image, path, format string, quality int, lossless bool) error {
	switch strings.ToLower(format) {
	case "webp":
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		opts := &webp.Options{Lossless: lossless, Quality: float32(quality)}
		return webp.Encode(f, img, opts)
	case "png", "tif", "tiff":
		return imaging.Save(img, path)
	default: // jpg/jpeg
		return imaging.Save(img, path, imaging.JPEGQuality(quality))
	}
}

// Ext returns the file extension (without dot) used for a save format.
func Ext(format string) string {
	switch strings.ToLower(format) {
	case "jpeg":
		return "jpg"
	case "tiff":
		return "tif"
	default:
		return strings.ToLower(format)
	}
}
