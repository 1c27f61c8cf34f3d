package spritekey

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidDataURL = errors.New("invalid data URL")
	ErrDecode         = errors.New("image decode failed")
	ErrEncode         = errors.New("png encode failed")
)

// Grid partitions an image into Rows x Cols sprite cells.
// A grid with a non-positive dimension is treated as absent.
type Grid struct {
	Rows int
	Cols int
}

// NoGrid disables cell-aware seeding.
var NoGrid = Grid{}

func (g Grid) Valid() bool {
	return g.Rows > 0 && g.Cols > 0
}

// Span returns the inclusive pixel range [start, end] of cell index i out of n
// along an axis of the given size. ok is false when the cell is empty.
func Span(i, n, size int) (start, end int, ok bool) {
	start = i * size / n
	end = (i+1)*size/n - 1
	return start, end, start <= end
}

// innerSpan shrinks a cell side by one pixel on each end unless that would
// cross the cell centre.
func innerSpan(start, end int) (int, int) {
	if end > start+1 {
		return start + 1, end - 1
	}
	return start, end
}

// Resolution is the requested long-edge size of a generated image.
type Resolution int

const (
	Resolution1K Resolution = 1024
	Resolution2K Resolution = 2048
	Resolution4K Resolution = 4096
)

// LongEdge returns the target long-edge pixel count.
func (r Resolution) LongEdge() int {
	return int(r)
}

func (r Resolution) String() string {
	switch r {
	case Resolution1K:
		return "1K"
	case Resolution2K:
		return "2K"
	case Resolution4K:
		return "4K"
	default:
		return fmt.Sprintf("Resolution(%d)", int(r))
	}
}

// ParseResolution converts "1K", "2K" or "4K" (case-insensitive) to a Resolution.
func ParseResolution(s string) (Resolution, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "1K":
		return Resolution1K, nil
	case "2K":
		return Resolution2K, nil
	case "4K":
		return Resolution4K, nil
	default:
		return 0, fmt.Errorf("unknown resolution: %q (allowed: 1K, 2K, 4K)", s)
	}
}
