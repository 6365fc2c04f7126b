// Package writer persists accepted patch crops under the destination root.
package writer

import (
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"

	"github.com/menta2k/patch-extractor/internal/utils"
	"github.com/menta2k/patch-extractor/pkg/coverage"
	"github.com/menta2k/patch-extractor/pkg/raster"
	"github.com/menta2k/patch-extractor/pkg/types"
)

// WriteError reports a failed destination write. It aborts the remaining
// writes of the current pair only, never the job.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// Writer crops accepted patches from image and mask buffers and writes both
// to mirrored images/masks subtrees under the destination root.
type Writer struct {
	imagesDir string
	masksDir  string
	format    string
	quality   int
	lossless  bool
}

// New creates a writer rooted at destRoot.
func New(destRoot, imagesSubdir, masksSubdir, format string, quality int, lossless bool) *Writer {
	return &Writer{
		imagesDir: filepath.Join(destRoot, imagesSubdir),
		masksDir:  filepath.Join(destRoot, masksSubdir),
		format:    format,
		quality:   quality,
		lossless:  lossless,
	}
}

// Prepare creates the destination subtrees. Called once at job start; a
// failure here is job-fatal.
func (w *Writer) Prepare() error {
	for _, dir := range []string{w.imagesDir, w.masksDir} {
		if err := utils.EnsureDir(dir); err != nil {
			return &WriteError{Path: dir, Err: err}
		}
	}
	return nil
}

// WritePatch crops img and mask at the decision's origin and writes both
// files as a unit: if the mask write fails the image file is removed so no
// half pair remains on disk. Returns the written paths.
func (w *Writer) WritePatch(img, mask image.Image, pair types.DatasetPair, d types.PatchDecision) (string, string, error) {
	c := d.Candidate
	name := fmt.Sprintf("%s_x%d_y%d.%s", pair.Stem, c.X, c.Y, raster.Ext(w.format))

	imgDir := filepath.Join(w.imagesDir, pair.RelDir)
	mskDir := filepath.Join(w.masksDir, pair.RelDir)
	for _, dir := range []string{imgDir, mskDir} {
		if err := utils.EnsureDir(dir); err != nil {
			return "", "", &WriteError{Path: dir, Err: err}
		}
	}

	rect := image.Rect(c.X, c.Y, c.X+c.Width, c.Y+c.Height)
	imgCrop := imaging.Crop(img, rect.Add(img.Bounds().Min))
	mskCrop := binarize(mask, rect)

	imgPath := filepath.Join(imgDir, name)
	mskPath := filepath.Join(mskDir, name)

	if err := raster.Save(imgCrop, imgPath, w.format, w.quality, w.lossless); err != nil {
		return "", "", &WriteError{Path: imgPath, Err: err}
	}
	if err := raster.Save(mskCrop, mskPath, w.format, w.quality, w.lossless); err != nil {
		os.Remove(imgPath)
		return "", "", &WriteError{Path: mskPath, Err: err}
	}
	return imgPath, mskPath, nil
}

// binarize crops the mask region and normalizes it to a {0, 255} grayscale
// patch so outputs carry a canonical label encoding.
func binarize(mask image.Image, r image.Rectangle) *image.Gray {
	out := image.NewGray(image.Rect(0, 0, r.Dx(), r.Dy()))
	min := mask.Bounds().Min
	for y := 0; y < r.Dy(); y++ {
		for x := 0; x < r.Dx(); x++ {
			if coverage.Foreground(mask, min.X+r.Min.X+x, min.Y+r.Min.Y+y) {
				out.Pix[out.PixOffset(x, y)] = 255
			}
		}
	}
	return out
}
