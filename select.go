package spritekey

import (
	"cmp"
	"slices"
)

// Candidate is one decoded image of a multi-image generation response.
type Candidate struct {
	Index  int // position in the response, used as the final tie-break
	Width  int
	Height int
}

func (c Candidate) LongEdge() int {
	return max(c.Width, c.Height)
}

func (c Candidate) Area() int64 {
	return int64(c.Width) * int64(c.Height)
}

// compareCandidates orders by distance of the long edge from target, then
// larger area first, then earlier index.
func compareCandidates(target int) func(a, b Candidate) int {
	return func(a, b Candidate) int {
		da := abs(a.LongEdge() - target)
		db := abs(b.LongEdge() - target)
		if c := cmp.Compare(da, db); c != 0 {
			return c
		}
		if c := cmp.Compare(b.Area(), a.Area()); c != 0 {
			return c
		}
		return cmp.Compare(a.Index, b.Index)
	}
}

// RankCandidates sorts cands best first for the given target.
func RankCandidates(cands []Candidate, target Resolution) {
	slices.SortFunc(cands, compareCandidates(target.LongEdge()))
}

// bestIndex scans n candidates in order. The first one whose long edge is
// exactly the target wins immediately; otherwise the best ranked decodable
// candidate wins. When nothing decodes, index 0 is returned.
func bestIndex(n int, target Resolution, dims func(i int) (w, h int, ok bool)) int {
	ranked := make([]Candidate, 0, n)
	for i := 0; i < n; i++ {
		w, h, ok := dims(i)
		if !ok {
			continue
		}
		c := Candidate{Index: i, Width: w, Height: h}
		if c.LongEdge() == target.LongEdge() {
			return i
		}
		ranked = append(ranked, c)
	}
	if len(ranked) == 0 {
		return 0
	}
	return slices.MinFunc(ranked, compareCandidates(target.LongEdge())).Index
}

// SelectBest returns a one-element slice holding the payload that best
// matches target. Zero or one payloads are returned unchanged. Payloads that
// cannot be decoded are skipped; if none decode, the first payload is chosen.
func SelectBest(payloads [][]byte, target Resolution) [][]byte {
	if len(payloads) <= 1 {
		return payloads
	}
	return [][]byte{payloads[SelectBestIndex(payloads, target)]}
}

// SelectBestIndex returns the position SelectBest chooses, or -1 when there
// are no payloads.
func SelectBestIndex(payloads [][]byte, target Resolution) int {
	if len(payloads) == 0 {
		return -1
	}
	return bestIndex(len(payloads), target, func(i int) (int, int, bool) {
		w, h, err := DecodeDimensions(payloads[i])
		return w, h, err == nil
	})
}

// SelectBestDataURLs is SelectBest over data URLs. A URL that does not parse
// counts as undecodable.
func SelectBestDataURLs(dataURLs []string, target Resolution) []string {
	if len(dataURLs) <= 1 {
		return dataURLs
	}
	i := bestIndex(len(dataURLs), target, func(i int) (int, int, bool) {
		data, err := ParseDataURL(dataURLs[i])
		if err != nil {
			return 0, 0, false
		}
		w, h, err := DecodeDimensions(data)
		return w, h, err == nil
	})
	return []string{dataURLs[i]}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
