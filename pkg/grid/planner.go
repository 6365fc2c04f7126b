// Package grid plans sliding-window patch origins over a raster.
package grid

import (
	"image"
	"iter"
)

// Grid describes a sliding window over a raster of Width x Height pixels.
type Grid struct {
	Width         int
	Height        int
	PatchWidth    int
	PatchHeight   int
	StrideX       int
	StrideY       int
	IncludeBorder bool
}

// Origins returns the row-major (y ascending, then x ascending) sequence of
// patch origins. Every origin (x, y) satisfies x+PatchWidth <= Width and
// y+PatchHeight <= Height. With IncludeBorder set, a final clamped column
// and row are added so the far edges are covered exactly, unless the
// regular stride already reaches them. The sequence is empty when the patch
// does not fit the raster at all, and restartable: each range starts over.
func (g Grid) Origins() iter.Seq[image.Point] {
	return func(yield func(image.Point) bool) {
		xs := axis(g.Width, g.PatchWidth, g.StrideX, g.IncludeBorder)
		ys := axis(g.Height, g.PatchHeight, g.StrideY, g.IncludeBorder)
		for _, y := range ys {
			for _, x := range xs {
				if !yield(image.Pt(x, y)) {
					return
				}
			}
		}
	}
}

// Count returns the number of origins the sequence will yield.
func (g Grid) Count() int {
	return len(axis(g.Width, g.PatchWidth, g.StrideX, g.IncludeBorder)) *
		len(axis(g.Height, g.PatchHeight, g.StrideY, g.IncludeBorder))
}

// axis returns the ascending origins along one dimension. The clamped
// border origin size-patch is appended only when the regular grid does not
// already end there, so no duplicates are produced.
func axis(size, patch, stride int, includeBorder bool) []int {
	if patch <= 0 || stride <= 0 || patch > size {
		return nil
	}
	var out []int
	for v := 0; v+patch <= size; v += stride {
		out = append(out, v)
	}
	if includeBorder && out[len(out)-1] != size-patch {
		out = append(out, size-patch)
	}
	return out
}
