package spritekey

import (
	"bytes"
	"image"
	"image/color"
	"testing"
)

var (
	keyGreen  = color.NRGBA{R: 0, G: 255, B: 0, A: 255}
	red       = color.NRGBA{R: 220, G: 30, B: 30, A: 255}
	fringe    = color.NRGBA{R: 100, G: 104, B: 100, A: 255} // fringe-only match
	dimGreen  = color.NRGBA{R: 40, G: 80, B: 40, A: 255}    // expand, not strong
	edgeGreen = color.NRGBA{R: 20, G: 90, B: 20, A: 255}    // seed, not strong
	cleared   = color.NRGBA{}
)

func fillImage(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	fillRect(img, img.Rect, c)
	return img
}

func fillRect(img *image.NRGBA, r image.Rectangle, c color.NRGBA) {
	r = r.Intersect(img.Rect)
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
}

// makeNoisyImage mixes greens, near-greens and subject colours so every
// stage of the matte has something to do.
func makeNoisyImage(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{
				R: uint8((x * 17) ^ (y * 31)),
				G: uint8((x * 43) + (y * 13)),
				B: uint8((x * 7) ^ (y * 11)),
				A: 255,
			})
		}
	}
	return img
}

// gridSheet is a 100x100 green sheet with a 40x40 red square centred in
// cell (0,0) of a 2x2 grid.
func gridSheet() (*image.NRGBA, image.Rectangle) {
	img := fillImage(100, 100, keyGreen)
	square := image.Rect(5, 5, 45, 45)
	fillRect(img, square, red)
	return img, square
}

func TestRemoveBackground_GridSheet(t *testing.T) {
	img, square := gridSheet()
	RemoveBackground(img, Grid{Rows: 2, Cols: 2}, DefaultOptions())

	for y := 0; y < 100; y++ {
		for x := 0; x < 100; x++ {
			got := img.NRGBAAt(x, y)
			if image.Pt(x, y).In(square) {
				if got != red {
					t.Fatalf("subject pixel (%d,%d) = %v, want %v", x, y, got, red)
				}
			} else if got.A != 0 {
				t.Fatalf("backdrop pixel (%d,%d) still opaque: %v", x, y, got)
			}
		}
	}
}

func TestRemoveBackground_OnlyClears(t *testing.T) {
	for _, tc := range []struct {
		name string
		grid Grid
	}{
		{"no_grid", NoGrid},
		{"grid_3x4", Grid{Rows: 3, Cols: 4}},
		{"grid_taller_than_image", Grid{Rows: 80, Cols: 2}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			src := makeNoisyImage(64, 48)
			img := image.NewNRGBA(src.Rect)
			copy(img.Pix, src.Pix)

			RemoveBackground(img, tc.grid, DefaultOptions())

			changed := 0
			for y := 0; y < 48; y++ {
				for x := 0; x < 64; x++ {
					before, after := src.NRGBAAt(x, y), img.NRGBAAt(x, y)
					if after == before {
						continue
					}
					if after != cleared {
						t.Fatalf("(%d,%d) changed %v -> %v; only clearing is allowed", x, y, before, after)
					}
					changed++
				}
			}
			if changed == 0 {
				t.Fatal("expected some green pixels to be cleared")
			}
		})
	}
}

func TestRemoveBackground_Idempotent(t *testing.T) {
	sheet, _ := gridSheet()
	ringed := ringedSubject(2)
	for _, tc := range []struct {
		name string
		img  *image.NRGBA
		grid Grid
	}{
		{"grid_sheet", sheet, Grid{Rows: 2, Cols: 2}},
		{"ringed_subject", ringed, NoGrid},
	} {
		t.Run(tc.name, func(t *testing.T) {
			RemoveBackground(tc.img, tc.grid, DefaultOptions())
			once := bytes.Clone(tc.img.Pix)
			RemoveBackground(tc.img, tc.grid, DefaultOptions())
			if !bytes.Equal(once, tc.img.Pix) {
				t.Fatal("second run changed the image")
			}
		})
	}
}

func TestRemoveBackground_EmptyImage(t *testing.T) {
	for _, r := range []image.Rectangle{image.Rect(0, 0, 0, 5), image.Rect(0, 0, 5, 0), image.Rect(0, 0, 0, 0)} {
		img := image.NewNRGBA(r)
		if got := RemoveBackground(img, Grid{Rows: 2, Cols: 2}, DefaultOptions()); got != img {
			t.Fatalf("%v: expected the same image back", r)
		}
	}
}

func TestRemoveBackground_NoChroma(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 32, 32))
	for y := 0; y < 32; y++ {
		for x := 0; x < 32; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x * 8), G: 0, B: uint8(y * 8), A: 255})
		}
	}
	before := bytes.Clone(img.Pix)
	RemoveBackground(img, NoGrid, DefaultOptions())
	if !bytes.Equal(before, img.Pix) {
		t.Fatal("image without chroma pixels was modified")
	}
}

func TestRemoveBackground_InvalidGridFallsBack(t *testing.T) {
	for _, grid := range []Grid{{Rows: 0, Cols: 2}, {Rows: 2, Cols: 0}, {Rows: -1, Cols: -1}} {
		img, _ := gridSheet()
		RemoveBackground(img, grid, DefaultOptions())
		if a := img.NRGBAAt(99, 99).A; a != 0 {
			t.Fatalf("%+v: corner backdrop alpha = %d, want 0", grid, a)
		}
	}
}

func TestRemoveBackground_GridSeedsNothing(t *testing.T) {
	// Only the outer ring is green, so the inset cell ring finds nothing
	// and the outer border must seed instead.
	img := fillImage(10, 10, keyGreen)
	fillRect(img, image.Rect(1, 1, 9, 9), red)
	RemoveBackground(img, Grid{Rows: 1, Cols: 1}, DefaultOptions())

	if a := img.NRGBAAt(0, 5).A; a != 0 {
		t.Fatalf("border pixel alpha = %d, want 0", a)
	}
	if got := img.NRGBAAt(5, 5); got != red {
		t.Fatalf("subject pixel = %v, want %v", got, red)
	}
}

func TestRemoveBackground_GridIgnoresImageEdge(t *testing.T) {
	// Column 0 is a green-ish subject strip walled off by a red column.
	build := func() *image.NRGBA {
		img := fillImage(20, 20, keyGreen)
		fillRect(img, image.Rect(0, 0, 1, 20), edgeGreen)
		fillRect(img, image.Rect(1, 0, 2, 20), red)
		return img
	}

	withGrid := build()
	RemoveBackground(withGrid, Grid{Rows: 1, Cols: 1}, DefaultOptions())
	if got := withGrid.NRGBAAt(0, 10); got != edgeGreen {
		t.Fatalf("grid seeding: edge strip = %v, want untouched %v", got, edgeGreen)
	}
	if a := withGrid.NRGBAAt(10, 10).A; a != 0 {
		t.Fatalf("grid seeding: backdrop alpha = %d, want 0", a)
	}

	noGrid := build()
	RemoveBackground(noGrid, NoGrid, DefaultOptions())
	if a := noGrid.NRGBAAt(0, 10).A; a != 0 {
		t.Fatalf("border seeding: edge strip alpha = %d, want 0", a)
	}
}

func TestRemoveBackground_EnclosedHoles(t *testing.T) {
	img := fillImage(60, 60, keyGreen)
	fillRect(img, image.Rect(10, 10, 50, 50), red)
	fillRect(img, image.Rect(15, 15, 25, 25), keyGreen) // strong: cleared anywhere
	fillRect(img, image.Rect(35, 35, 45, 45), dimGreen) // needs connectivity

	RemoveBackground(img, NoGrid, DefaultOptions())

	if a := img.NRGBAAt(20, 20).A; a != 0 {
		t.Fatalf("enclosed key-green hole alpha = %d, want 0", a)
	}
	if got := img.NRGBAAt(40, 40); got != dimGreen {
		t.Fatalf("enclosed dim-green hole = %v, want untouched", got)
	}
}

// ringedSubject is a green sheet with a red square wrapped in a fringe ring
// of the given thickness.
func ringedSubject(thickness int) *image.NRGBA {
	img := fillImage(40, 40, keyGreen)
	fillRect(img, image.Rect(10-thickness, 10-thickness, 30+thickness, 30+thickness), fringe)
	fillRect(img, image.Rect(10, 10, 30, 30), red)
	return img
}

func TestRemoveBackground_Fringe(t *testing.T) {
	for _, tc := range []struct {
		name      string
		thickness int
		passes    int
		kept      int // innermost rings left opaque
	}{
		{"one_ring_default", 1, DefaultFringePasses, 0},
		{"two_rings_default", 2, DefaultFringePasses, 0},
		{"three_rings_default", 3, DefaultFringePasses, 1},
		{"three_rings_three_passes", 3, 3, 0},
		{"disabled", 2, 0, 2},
	} {
		t.Run(tc.name, func(t *testing.T) {
			img := ringedSubject(tc.thickness)
			opt := DefaultOptions()
			opt.FringePasses = tc.passes
			RemoveBackground(img, NoGrid, opt)

			for ring := 1; ring <= tc.thickness; ring++ {
				// Pixel on the ring, counted outward from the subject.
				got := img.NRGBAAt(20, 10-ring)
				wantKept := ring <= tc.kept
				if wantKept && got != fringe {
					t.Errorf("ring %d = %v, want kept", ring, got)
				}
				if !wantKept && got.A != 0 {
					t.Errorf("ring %d = %v, want cleared", ring, got)
				}
			}
			if got := img.NRGBAAt(20, 20); got != red {
				t.Errorf("subject = %v, want %v", got, red)
			}
		})
	}
}

func TestThresholdsMatch(t *testing.T) {
	opt := DefaultOptions()
	for _, tc := range []struct {
		name                          string
		c                             color.NRGBA
		seed, expand, strong, fringeM bool
	}{
		{"key_green", keyGreen, true, true, true, true},
		{"edge_green", edgeGreen, true, true, false, true},
		{"dim_green", dimGreen, false, true, false, true},
		{"fringe", fringe, false, false, false, true},
		{"red", red, false, false, false, false},
		{"white", color.NRGBA{R: 255, G: 255, B: 255, A: 255}, false, false, false, false},
		{"black", color.NRGBA{A: 255}, false, false, false, false},
	} {
		t.Run(tc.name, func(t *testing.T) {
			check := func(mode string, th Thresholds, want bool) {
				if got := th.Match(tc.c.R, tc.c.G, tc.c.B); got != want {
					t.Errorf("%s: Match(%v) = %v, want %v", mode, tc.c, got, want)
				}
			}
			check("seed", opt.Seed, tc.seed)
			check("expand", opt.Expand, tc.expand)
			check("strong", opt.Strong, tc.strong)
			check("fringe", opt.Fringe, tc.fringeM)
		})
	}
}

func TestChromaDistSq(t *testing.T) {
	if d := chromaDistSq(0, 255, 0); d != 0 {
		t.Fatalf("pure green distance = %d, want 0", d)
	}
	if d := chromaDistSq(10, 245, 20); d != 100+100+400 {
		t.Fatalf("distance = %d, want 600", d)
	}
}
