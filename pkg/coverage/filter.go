// Package coverage measures the mask foreground fraction of patch
// candidates and decides acceptance.
//
// Foreground policy: a grayscale pixel is foreground when its value is
// non-zero; a multi-channel pixel is foreground when any color channel is
// non-zero. Alpha is ignored.
package coverage

import (
	"image"

	"github.com/menta2k/patch-extractor/pkg/types"
)

// Foreground reports whether a mask pixel counts as foreground.
func Foreground(mask image.Image, x, y int) bool {
	r, g, b, _ := mask.At(x, y).RGBA()
	return r|g|b != 0
}

// Fraction computes the foreground fraction of the mask region r, given in
// raster coordinates with (0,0) at the top-left pixel.
func Fraction(mask image.Image, r image.Rectangle) float64 {
	bounds := mask.Bounds()
	r = r.Add(bounds.Min).Intersect(bounds)
	total := r.Dx() * r.Dy()
	if total <= 0 {
		return 0
	}

	fg := 0
	switch m := mask.(type) {
	case *image.Gray:
		for y := r.Min.Y; y < r.Max.Y; y++ {
			i := m.PixOffset(r.Min.X, y)
			for x := r.Min.X; x < r.Max.X; x++ {
				if m.Pix[i] != 0 {
					fg++
				}
				i++
			}
		}
	default:
		for y := r.Min.Y; y < r.Max.Y; y++ {
			for x := r.Min.X; x < r.Max.X; x++ {
				if Foreground(mask, x, y) {
					fg++
				}
			}
		}
	}
	return float64(fg) / float64(total)
}

// Filter applies the coverage threshold and the per-image patch cap.
// One Filter instance serves one image; candidates must be evaluated in
// planner order so the cap deterministically favors earlier patches.
type Filter struct {
	MinCoverage float64
	MaxPerImage int // 0 = unlimited

	accepted int
}

// New creates a filter for one image.
func New(minCoverage float64, maxPerImage int) *Filter {
	return &Filter{MinCoverage: minCoverage, MaxPerImage: maxPerImage}
}

// Evaluate measures the candidate's coverage against the mask and
// classifies it. Once the cap is reached, otherwise-acceptable candidates
// are marked RejectedCap.
func (f *Filter) Evaluate(mask image.Image, cand types.PatchCandidate) types.PatchDecision {
	rect := image.Rect(cand.X, cand.Y, cand.X+cand.Width, cand.Y+cand.Height)
	frac := Fraction(mask, rect)

	d := types.PatchDecision{Candidate: cand, Coverage: frac}
	switch {
	case frac < f.MinCoverage:
		d.Outcome = types.RejectedCoverage
	case f.MaxPerImage > 0 && f.accepted >= f.MaxPerImage:
		d.Outcome = types.RejectedCap
	default:
		d.Outcome = types.Accepted
		f.accepted++
	}
	return d
}

// Accepted returns how many candidates this filter has accepted so far.
func (f *Filter) Accepted() int { return f.accepted }
