package spritekey

import "image"

// Empirically tuned chroma match thresholds. Each mode requires
// green >= floor, green-max(red,blue) >= lead and a squared distance from
// pure green in (red, 255-green, blue) space of at most MaxDistSq.
const (
	SeedGreenFloor = 80
	SeedGreenLead  = 18
	SeedMaxDistSq  = 30_000

	ExpandGreenFloor = 40
	ExpandGreenLead  = 6
	ExpandMaxDistSq  = 45_000

	StrongGreenFloor = 95
	StrongGreenLead  = 20
	StrongMaxDistSq  = 36_000

	FringeGreenFloor = 35
	FringeGreenLead  = 2
	FringeMaxDistSq  = 55_000

	DefaultFringePasses = 2
)

// Thresholds is one strictness level of the chroma match test.
type Thresholds struct {
	GreenFloor int
	GreenLead  int
	MaxDistSq  int
}

// Match reports whether the colour r,g,b is chroma green under t.
func (t Thresholds) Match(r, g, b uint8) bool {
	lead := int(g) - int(max(r, b))
	if int(g) < t.GreenFloor || lead < t.GreenLead {
		return false
	}
	return chromaDistSq(r, g, b) <= t.MaxDistSq
}

func chromaDistSq(r, g, b uint8) int {
	dr := int(r)
	dg := 255 - int(g)
	db := int(b)
	return dr*dr + dg*dg + db*db
}

type Options struct {
	// Seed gates pixels on cell or image borders that start the flood fill.
	// Strict so that green-ish subject pixels touching a border are not taken.
	Seed Thresholds
	// Expand gates pixels reached by the flood fill from a seed.
	Expand Thresholds
	// Strong clears unambiguous backdrop anywhere, connected or not.
	Strong Thresholds
	// Fringe clears faint bleed, but only next to an already transparent pixel.
	Fringe Thresholds
	// Maximum number of fringe cleanup passes. Zero disables the stage.
	FringePasses int
}

func DefaultOptions() Options {
	return Options{
		Seed:         Thresholds{SeedGreenFloor, SeedGreenLead, SeedMaxDistSq},
		Expand:       Thresholds{ExpandGreenFloor, ExpandGreenLead, ExpandMaxDistSq},
		Strong:       Thresholds{StrongGreenFloor, StrongGreenLead, StrongMaxDistSq},
		Fringe:       Thresholds{FringeGreenFloor, FringeGreenLead, FringeMaxDistSq},
		FringePasses: DefaultFringePasses,
	}
}

// RemoveBackground clears chroma-green backdrop pixels of img in place and
// returns img. Cleared pixels become fully transparent black; every other
// pixel is left untouched. With a valid grid, each cell's inset border ring
// seeds the fill; otherwise, or when no cell seeds anything, the outer image
// border does.
func RemoveBackground(img *image.NRGBA, grid Grid, opt Options) *image.NRGBA {
	m := newMatte(img)
	if m == nil {
		return img
	}
	seeded := false
	if grid.Valid() {
		seeded = m.seedCells(grid, opt.Seed)
	}
	if !seeded {
		m.seedBorder(opt.Seed)
	}
	m.flood(opt.Expand)
	m.clearStrong(opt.Strong)
	m.clearFringe(opt.Fringe, opt.FringePasses)
	return img
}

type matte struct {
	img     *image.NRGBA
	W, H    int
	visited []bool // len = W*H
	queue   []int  // y*W+x
}

func newMatte(img *image.NRGBA) *matte {
	if img == nil {
		return nil
	}
	w, h := img.Rect.Dx(), img.Rect.Dy()
	if w <= 0 || h <= 0 {
		return nil
	}
	return &matte{
		img:     img,
		W:       w,
		H:       h,
		visited: make([]bool, w*h),
	}
}

func (m *matte) pixOffset(x, y int) int {
	return y*m.img.Stride + x*4
}

func (m *matte) opaque(x, y int) bool {
	return m.img.Pix[m.pixOffset(x, y)+3] != 0
}

func (m *matte) matches(x, y int, t Thresholds) bool {
	off := m.pixOffset(x, y)
	p := m.img.Pix[off : off+3 : off+3]
	return t.Match(p[0], p[1], p[2])
}

func (m *matte) clear(x, y int) {
	off := m.pixOffset(x, y)
	p := m.img.Pix[off : off+4 : off+4]
	p[0], p[1], p[2], p[3] = 0, 0, 0, 0
}

// enqueue marks and queues (x, y) when it is unvisited and matches t.
func (m *matte) enqueue(x, y int, t Thresholds) bool {
	idx := y*m.W + x
	if m.visited[idx] || !m.matches(x, y, t) {
		return false
	}
	m.visited[idx] = true
	m.queue = append(m.queue, idx)
	return true
}

func (m *matte) seedBorder(t Thresholds) {
	for x := 0; x < m.W; x++ {
		m.enqueue(x, 0, t)
		if m.H > 1 {
			m.enqueue(x, m.H-1, t)
		}
	}
	for y := 0; y < m.H; y++ {
		m.enqueue(0, y, t)
		if m.W > 1 {
			m.enqueue(m.W-1, y, t)
		}
	}
}

func (m *matte) seedCells(grid Grid, t Thresholds) bool {
	seeded := false
	for row := 0; row < grid.Rows; row++ {
		y0, y1, ok := Span(row, grid.Rows, m.H)
		if !ok {
			continue
		}
		top, bottom := innerSpan(y0, y1)
		for col := 0; col < grid.Cols; col++ {
			x0, x1, ok := Span(col, grid.Cols, m.W)
			if !ok {
				continue
			}
			left, right := innerSpan(x0, x1)
			for x := left; x <= right; x++ {
				seeded = m.enqueue(x, top, t) || seeded
				seeded = m.enqueue(x, bottom, t) || seeded
			}
			for y := top; y <= bottom; y++ {
				seeded = m.enqueue(left, y, t) || seeded
				seeded = m.enqueue(right, y, t) || seeded
			}
		}
	}
	return seeded
}

// flood clears every queued pixel and grows the region through
// 4-connected neighbours that match t.
func (m *matte) flood(t Thresholds) {
	for head := 0; head < len(m.queue); head++ {
		idx := m.queue[head]
		x, y := idx%m.W, idx/m.W
		m.clear(x, y)
		if x > 0 {
			m.enqueue(x-1, y, t)
		}
		if x+1 < m.W {
			m.enqueue(x+1, y, t)
		}
		if y > 0 {
			m.enqueue(x, y-1, t)
		}
		if y+1 < m.H {
			m.enqueue(x, y+1, t)
		}
	}
	m.queue = m.queue[:0]
}

func (m *matte) clearStrong(t Thresholds) {
	for y := 0; y < m.H; y++ {
		for x := 0; x < m.W; x++ {
			if m.opaque(x, y) && m.matches(x, y, t) {
				m.clear(x, y)
			}
		}
	}
}

func (m *matte) clearFringe(t Thresholds, passes int) {
	var pending []int
	for i := 0; i < passes; i++ {
		pending = pending[:0]
		for y := 0; y < m.H; y++ {
			for x := 0; x < m.W; x++ {
				if !m.opaque(x, y) || !m.matches(x, y, t) {
					continue
				}
				if m.hasTransparentNeighbor(x, y) {
					pending = append(pending, y*m.W+x)
				}
			}
		}
		if len(pending) == 0 {
			return
		}
		for _, idx := range pending {
			m.clear(idx%m.W, idx/m.W)
		}
	}
}

// hasTransparentNeighbor checks the 8-connected neighbourhood of (x, y).
func (m *matte) hasTransparentNeighbor(x, y int) bool {
	for ny := max(y-1, 0); ny <= min(y+1, m.H-1); ny++ {
		for nx := max(x-1, 0); nx <= min(x+1, m.W-1); nx++ {
			if nx == x && ny == y {
				continue
			}
			if !m.opaque(nx, ny) {
				return true
			}
		}
	}
	return false
}
