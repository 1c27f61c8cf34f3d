package utils

import (
	"image"
	"slices"

	"github.com/setanarut/spritekey"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// CoverageReport describes how much of each sprite cell became transparent.
type CoverageReport struct {
	Grid spritekey.Grid
	// Transparent fraction per cell, row-major. Empty cells report 0.
	Cells  []float64
	Mean   float64
	StdDev float64
	Min    float64
	Max    float64
	Median float64
	// Cells whose coverage is below half the median, usually a cell whose
	// backdrop was never seeded.
	Suspect []int
}

// CellCoverage measures the transparent fraction of every grid cell of a
// matted image. An invalid grid measures the whole image as one cell.
func CellCoverage(img *image.NRGBA, grid spritekey.Grid) CoverageReport {
	if !grid.Valid() {
		grid = spritekey.Grid{Rows: 1, Cols: 1}
	}
	w, h := img.Rect.Dx(), img.Rect.Dy()
	rep := CoverageReport{
		Grid:  grid,
		Cells: make([]float64, 0, grid.Rows*grid.Cols),
	}
	for row := 0; row < grid.Rows; row++ {
		y0, y1, rowOK := spritekey.Span(row, grid.Rows, h)
		for col := 0; col < grid.Cols; col++ {
			x0, x1, colOK := spritekey.Span(col, grid.Cols, w)
			if !rowOK || !colOK {
				rep.Cells = append(rep.Cells, 0)
				continue
			}
			n := 0
			for y := y0; y <= y1; y++ {
				for x := x0; x <= x1; x++ {
					if img.Pix[img.PixOffset(img.Rect.Min.X+x, img.Rect.Min.Y+y)+3] == 0 {
						n++
					}
				}
			}
			rep.Cells = append(rep.Cells, float64(n)/float64((x1-x0+1)*(y1-y0+1)))
		}
	}

	rep.Min = floats.Min(rep.Cells)
	rep.Max = floats.Max(rep.Cells)
	if len(rep.Cells) > 1 {
		rep.Mean, rep.StdDev = stat.MeanStdDev(rep.Cells, nil)
	} else {
		rep.Mean = rep.Cells[0]
	}
	sorted := slices.Clone(rep.Cells)
	slices.Sort(sorted)
	rep.Median = stat.Quantile(0.5, stat.Empirical, sorted, nil)
	for i, c := range rep.Cells {
		if c < rep.Median/2 {
			rep.Suspect = append(rep.Suspect, i)
		}
	}
	return rep
}
