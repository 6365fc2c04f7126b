package coverage

import (
	"image"
	"image/color"
	"testing"

	"github.com/menta2k/patch-extractor/pkg/types"
)

// createTestMask builds a grayscale mask with a foreground rectangle
func createTestMask(width, height int, fg image.Rectangle) *image.Gray {
	m := image.NewGray(image.Rect(0, 0, width, height))
	for y := fg.Min.Y; y < fg.Max.Y; y++ {
		for x := fg.Min.X; x < fg.Max.X; x++ {
			m.SetGray(x, y, color.Gray{255})
		}
	}
	return m
}

func TestFractionAllZero(t *testing.T) {
	m := createTestMask(8, 8, image.Rectangle{})
	if got := Fraction(m, image.Rect(0, 0, 8, 8)); got != 0 {
		t.Errorf("Fraction = %f, want 0 for an all-zero mask", got)
	}
}

func TestFractionAllForeground(t *testing.T) {
	m := createTestMask(8, 8, image.Rect(0, 0, 8, 8))
	if got := Fraction(m, image.Rect(0, 0, 8, 8)); got != 1 {
		t.Errorf("Fraction = %f, want 1", got)
	}
}

func TestFractionPartial(t *testing.T) {
	// Left half foreground: a full-mask patch covers exactly 0.5.
	m := createTestMask(8, 8, image.Rect(0, 0, 4, 8))
	if got := Fraction(m, image.Rect(0, 0, 8, 8)); got != 0.5 {
		t.Errorf("Fraction = %f, want 0.5", got)
	}
	// A patch entirely inside the foreground covers 1.
	if got := Fraction(m, image.Rect(0, 0, 4, 4)); got != 1 {
		t.Errorf("Fraction = %f, want 1", got)
	}
}

func TestFractionMultiChannelAnyChannel(t *testing.T) {
	// A single non-zero color channel counts as foreground; alpha does not.
	m := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	m.SetNRGBA(0, 0, color.NRGBA{0, 0, 7, 255})
	m.SetNRGBA(1, 0, color.NRGBA{0, 0, 0, 255})
	if got := Fraction(m, image.Rect(0, 0, 2, 1)); got != 0.5 {
		t.Errorf("Fraction = %f, want 0.5 (any-channel-nonzero policy)", got)
	}
}

func TestEvaluateRejectsBelowThreshold(t *testing.T) {
	m := createTestMask(8, 8, image.Rectangle{})
	f := New(0.1, 0)

	d := f.Evaluate(m, types.PatchCandidate{X: 0, Y: 0, Width: 4, Height: 4})
	if d.Outcome != types.RejectedCoverage {
		t.Errorf("outcome = %s, want rejected_coverage", d.Outcome)
	}
	if d.Coverage != 0 {
		t.Errorf("coverage = %f, want 0", d.Coverage)
	}
}

func TestEvaluateAcceptsAtZeroThreshold(t *testing.T) {
	m := createTestMask(8, 8, image.Rectangle{})
	f := New(0, 0)

	d := f.Evaluate(m, types.PatchCandidate{X: 0, Y: 0, Width: 4, Height: 4})
	if d.Outcome != types.Accepted {
		t.Errorf("outcome = %s, want accepted when minimum coverage is 0", d.Outcome)
	}
}

func TestEvaluateCapEnforcement(t *testing.T) {
	// 10 accept-eligible candidates with cap 3: first 3 accepted in order,
	// the remaining 7 rejected by cap regardless of coverage.
	m := createTestMask(16, 16, image.Rect(0, 0, 16, 16))
	f := New(0, 3)

	var outcomes []types.Outcome
	for i := 0; i < 10; i++ {
		d := f.Evaluate(m, types.PatchCandidate{X: 0, Y: 0, Width: 4, Height: 4})
		outcomes = append(outcomes, d.Outcome)
	}

	for i, o := range outcomes {
		want := types.Accepted
		if i >= 3 {
			want = types.RejectedCap
		}
		if o != want {
			t.Errorf("candidate %d: outcome = %s, want %s", i, o, want)
		}
	}
	if f.Accepted() != 3 {
		t.Errorf("Accepted() = %d, want 3", f.Accepted())
	}
}

func TestEvaluateCapZeroUnlimited(t *testing.T) {
	m := createTestMask(16, 16, image.Rect(0, 0, 16, 16))
	f := New(0, 0)

	for i := 0; i < 20; i++ {
		if d := f.Evaluate(m, types.PatchCandidate{Width: 4, Height: 4}); d.Outcome != types.Accepted {
			t.Fatalf("candidate %d: outcome = %s, want accepted with unlimited cap", i, d.Outcome)
		}
	}
}

func TestEvaluateCapDoesNotCountRejected(t *testing.T) {
	// Coverage rejections must not consume cap slots.
	m := createTestMask(16, 16, image.Rect(0, 0, 16, 8))
	f := New(0.9, 2)

	// Background candidate: rejected by coverage.
	d := f.Evaluate(m, types.PatchCandidate{X: 0, Y: 12, Width: 4, Height: 4})
	if d.Outcome != types.RejectedCoverage {
		t.Fatalf("outcome = %s, want rejected_coverage", d.Outcome)
	}

	// Two foreground candidates still fit under the cap.
	for i := 0; i < 2; i++ {
		if d := f.Evaluate(m, types.PatchCandidate{X: 0, Y: 0, Width: 4, Height: 4}); d.Outcome != types.Accepted {
			t.Errorf("candidate %d: outcome = %s, want accepted", i, d.Outcome)
		}
	}
	if d := f.Evaluate(m, types.PatchCandidate{X: 0, Y: 0, Width: 4, Height: 4}); d.Outcome != types.RejectedCap {
		t.Errorf("outcome = %s, want rejected_cap once cap is reached", d.Outcome)
	}
}
