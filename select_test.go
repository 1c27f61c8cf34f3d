package spritekey

import (
	"bytes"
	"image"
	"image/png"
	"slices"
	"testing"
)

func makePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewGray(image.Rect(0, 0, w, h))); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestSelectBestIndex(t *testing.T) {
	garbage := []byte("not an image")
	for _, tc := range []struct {
		name   string
		sizes  [][2]int // a zero size stands for an undecodable payload
		target Resolution
		want   int
	}{
		{"exact_match", [][2]int{{900, 900}, {1024, 768}, {1200, 1200}}, Resolution1K, 1},
		{"exact_match_on_height", [][2]int{{900, 900}, {768, 1024}}, Resolution1K, 1},
		{"nearest", [][2]int{{900, 900}, {1100, 1100}}, Resolution1K, 1},
		{"larger_area_wins_tie", [][2]int{{1000, 10}, {1048, 20}}, Resolution1K, 1},
		{"equal_area_keeps_first", [][2]int{{1000, 262}, {1048, 250}}, Resolution1K, 0},
		{"skips_undecodable", [][2]int{{0, 0}, {500, 500}, {0, 0}}, Resolution1K, 1},
		{"all_undecodable", [][2]int{{0, 0}, {0, 0}}, Resolution1K, 0},
		{"first_exact_wins", [][2]int{{100, 100}, {2048, 10}, {10, 2048}}, Resolution2K, 1},
	} {
		t.Run(tc.name, func(t *testing.T) {
			payloads := make([][]byte, len(tc.sizes))
			for i, s := range tc.sizes {
				if s[0] == 0 {
					payloads[i] = garbage
				} else {
					payloads[i] = makePNG(t, s[0], s[1])
				}
			}
			if got := SelectBestIndex(payloads, tc.target); got != tc.want {
				t.Fatalf("SelectBestIndex = %d, want %d", got, tc.want)
			}
			best := SelectBest(payloads, tc.target)
			if len(best) != 1 || !bytes.Equal(best[0], payloads[tc.want]) {
				t.Fatal("SelectBest did not return the chosen payload")
			}
		})
	}
}

func TestSelectBestPassThrough(t *testing.T) {
	if got := SelectBest(nil, Resolution2K); len(got) != 0 {
		t.Fatalf("empty input returned %d payloads", len(got))
	}
	if got := SelectBestIndex(nil, Resolution2K); got != -1 {
		t.Fatalf("SelectBestIndex(nil) = %d, want -1", got)
	}
	one := [][]byte{[]byte("garbage is fine when alone")}
	if got := SelectBest(one, Resolution2K); len(got) != 1 || !bytes.Equal(got[0], one[0]) {
		t.Fatal("single payload was not returned unchanged")
	}
}

func TestSelectBestDataURLs(t *testing.T) {
	urls := []string{
		"data:text/plain;base64,aGk=",
		EncodeDataURL(makePNG(t, 300, 200), "png"),
		EncodeDataURL(makePNG(t, 1000, 1000), "png"),
	}
	got := SelectBestDataURLs(urls, Resolution1K)
	if len(got) != 1 || got[0] != urls[2] {
		t.Fatal("expected the 1000x1000 candidate")
	}
	if got := SelectBestDataURLs(urls[:1], Resolution1K); got[0] != urls[0] {
		t.Fatal("single URL was not returned unchanged")
	}
}

func TestRankCandidates(t *testing.T) {
	cands := []Candidate{
		{Index: 0, Width: 500, Height: 500},
		{Index: 1, Width: 2048, Height: 1024},
		{Index: 2, Width: 1900, Height: 1900},
		{Index: 3, Width: 2100, Height: 100},
		{Index: 4, Width: 1996, Height: 1996},
	}
	RankCandidates(cands, Resolution2K)
	var order []int
	for _, c := range cands {
		order = append(order, c.Index)
	}
	if want := []int{1, 4, 3, 2, 0}; !slices.Equal(order, want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
}
