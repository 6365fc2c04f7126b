package grid

import (
	"image"
	"testing"
)

// collect drains the origin sequence into a slice.
func collect(g Grid) []image.Point {
	var out []image.Point
	for pt := range g.Origins() {
		out = append(out, pt)
	}
	return out
}

func TestOriginsRegularGrid(t *testing.T) {
	g := Grid{Width: 10, Height: 10, PatchWidth: 4, PatchHeight: 4, StrideX: 3, StrideY: 3}
	got := collect(g)

	want := []image.Point{
		{0, 0}, {3, 0}, {6, 0},
		{0, 3}, {3, 3}, {6, 3},
		{0, 6}, {3, 6}, {6, 6},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d origins, want %d: %v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("origin %d = %v, want %v (row-major order)", i, got[i], want[i])
		}
	}
}

func TestOriginsCoverInvariant(t *testing.T) {
	g := Grid{Width: 37, Height: 23, PatchWidth: 8, PatchHeight: 5, StrideX: 6, StrideY: 4}
	seen := make(map[image.Point]bool)
	for pt := range g.Origins() {
		if pt.X%g.StrideX != 0 || pt.Y%g.StrideY != 0 {
			t.Errorf("origin %v is off the stride grid", pt)
		}
		if pt.X+g.PatchWidth > g.Width || pt.Y+g.PatchHeight > g.Height {
			t.Errorf("origin %v exceeds raster bounds", pt)
		}
		if seen[pt] {
			t.Errorf("duplicate origin %v", pt)
		}
		seen[pt] = true
	}
}

func TestOriginsBorderClampAvoidsDuplicate(t *testing.T) {
	// W=10, pw=4, sx=3: the regular grid ends at x=6 which equals W-pw,
	// so no extra border column may appear.
	g := Grid{Width: 10, Height: 4, PatchWidth: 4, PatchHeight: 4, StrideX: 3, StrideY: 3, IncludeBorder: true}
	got := collect(g)

	want := []image.Point{{0, 0}, {3, 0}, {6, 0}}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("origin %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestOriginsBorderClampAdded(t *testing.T) {
	// W=11, pw=4, sx=3: regular grid ends at x=6, border adds x=7.
	g := Grid{Width: 11, Height: 4, PatchWidth: 4, PatchHeight: 4, StrideX: 3, StrideY: 3, IncludeBorder: true}
	got := collect(g)

	want := []image.Point{{0, 0}, {3, 0}, {6, 0}, {7, 0}}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("origin %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestOriginsBorderCoversCorner(t *testing.T) {
	g := Grid{Width: 11, Height: 11, PatchWidth: 4, PatchHeight: 4, StrideX: 3, StrideY: 3, IncludeBorder: true}
	corner := image.Pt(7, 7)
	found := false
	for pt := range g.Origins() {
		if pt == corner {
			found = true
		}
	}
	if !found {
		t.Errorf("border grid misses the far corner origin %v", corner)
	}
}

func TestOriginsPatchLargerThanRaster(t *testing.T) {
	g := Grid{Width: 3, Height: 10, PatchWidth: 4, PatchHeight: 4, StrideX: 1, StrideY: 1, IncludeBorder: true}
	if got := collect(g); got != nil {
		t.Errorf("expected empty sequence, got %v", got)
	}
	if n := g.Count(); n != 0 {
		t.Errorf("Count() = %d, want 0", n)
	}
}

func TestOriginsRestartable(t *testing.T) {
	g := Grid{Width: 10, Height: 10, PatchWidth: 4, PatchHeight: 4, StrideX: 3, StrideY: 3, IncludeBorder: true}
	first := collect(g)
	second := collect(g)
	if len(first) != len(second) {
		t.Fatalf("sequence not restartable: %d vs %d origins", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("origin %d differs across restarts: %v vs %v", i, first[i], second[i])
		}
	}
}

func TestOriginsEarlyBreak(t *testing.T) {
	g := Grid{Width: 10, Height: 10, PatchWidth: 4, PatchHeight: 4, StrideX: 3, StrideY: 3}
	n := 0
	for range g.Origins() {
		n++
		if n == 2 {
			break
		}
	}
	if n != 2 {
		t.Errorf("early break yielded %d origins, want 2", n)
	}
}

func TestCountMatchesSequence(t *testing.T) {
	grids := []Grid{
		{Width: 10, Height: 10, PatchWidth: 4, PatchHeight: 4, StrideX: 3, StrideY: 3},
		{Width: 11, Height: 7, PatchWidth: 4, PatchHeight: 2, StrideX: 3, StrideY: 5, IncludeBorder: true},
		{Width: 8, Height: 8, PatchWidth: 4, PatchHeight: 4, StrideX: 4, StrideY: 4},
	}
	for _, g := range grids {
		if got := g.Count(); got != len(collect(g)) {
			t.Errorf("Count() = %d, sequence yields %d for %+v", got, len(collect(g)), g)
		}
	}
}
