package utils

import (
	"fmt"
	"image"
	"image/color"
	"log"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/cenkalti/dominantcolor"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/muesli/clusters"
	"github.com/muesli/kmeans"
	"github.com/setanarut/spritekey"
)

type PaletteMethod int

const (
	PaletteMethodKMeans PaletteMethod = iota
	PaletteMethodDominantColor
)

func (m PaletteMethod) String() string {
	switch m {
	case PaletteMethodDominantColor:
		return "dominantcolor"
	default:
		return "kmeans"
	}
}

func ParsePaletteMethod(s string) (PaletteMethod, error) {
	switch strings.ToLower(s) {
	case "kmeans":
		return PaletteMethodKMeans, nil
	case "dominantcolor", "dominant":
		return PaletteMethodDominantColor, nil
	default:
		return 0, fmt.Errorf("unknown palette method: %q", s)
	}
}

// Swatch is one palette colour and the share of sampled pixels it covers.
type Swatch struct {
	Color colorful.Color
	Share float64
}

// minSwatchDistance is the Lab distance under which two swatches are merged.
const minSwatchDistance = 0.06

// SortByBrightness orders swatches from darkest to brightest by relative luminance.
func SortByBrightness(swatches []Swatch) {
	slices.SortFunc(swatches, func(a, b Swatch) int {
		ri, gi, bi := a.Color.LinearRgb()
		rj, gj, bj := b.Color.LinearRgb()
		yi := 0.2126*ri + 0.7152*gi + 0.0722*bi
		yj := 0.2126*rj + 0.7152*gj + 0.0722*bj
		if yi < yj {
			return -1
		}
		if yi > yj {
			return 1
		}
		return 0
	})
}

// mergeSwatches folds near-duplicate colours into the heavier one, keeps at
// most k entries and normalises shares to sum to 1.
func mergeSwatches(in []Swatch, k int) []Swatch {
	slices.SortFunc(in, func(a, b Swatch) int {
		switch {
		case a.Share > b.Share:
			return -1
		case a.Share < b.Share:
			return 1
		}
		return 0
	})
	var out []Swatch
	total := 0.0
	for _, s := range in {
		total += s.Share
		merged := false
		for i := range out {
			if out[i].Color.DistanceLab(s.Color) < minSwatchDistance {
				out[i].Share += s.Share
				merged = true
				break
			}
		}
		if !merged && len(out) < k {
			out = append(out, s)
		}
	}
	if total > 0 {
		for i := range out {
			out[i].Share /= total
		}
	}
	return out
}

// SubjectPalette extracts up to k colours of the opaque pixels of a matted image.
func SubjectPalette(img image.Image, k int, method PaletteMethod) []Swatch {
	if k <= 0 {
		return nil
	}
	if method == PaletteMethodDominantColor {
		return dominantSwatches(img, k)
	}
	p := kmeansSwatches(img, k)
	if len(p) != 0 {
		return p
	}
	log.Println("palette warning: kmeans returned empty palette, falling back to dominantcolor")
	return dominantSwatches(img, k)
}

func dominantSwatches(img image.Image, k int) []Swatch {
	found := dominantcolor.FindWeight(img, max(k*2, 4))
	swatches := make([]Swatch, 0, len(found))
	for _, c := range found {
		col, _ := colorful.MakeColor(c.RGBA)
		swatches = append(swatches, Swatch{Color: col.Clamped(), Share: max(c.Weight, 1e-6)})
	}
	return mergeSwatches(swatches, k)
}

func kmeansSwatches(img image.Image, k int) []Swatch {
	b := img.Bounds()
	width, height := b.Dx(), b.Dy()
	if width == 0 || height == 0 {
		return nil
	}

	// Subsample to keep kmeans tractable on 2K and 4K sheets.
	maxSamples := 12000
	step := 1
	if width*height > maxSamples {
		step = int(math.Sqrt(float64(width*height)/float64(maxSamples))) + 1
	}

	dataset := make(clusters.Observations, 0, min(width*height, maxSamples))
	for y := b.Min.Y; y < b.Max.Y; y += step {
		for x := b.Min.X; x < b.Max.X; x += step {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			if c.A == 0 {
				continue
			}
			dataset = append(dataset, clusters.Coordinates{
				float64(c.R) / 255.0,
				float64(c.G) / 255.0,
				float64(c.B) / 255.0,
			})
		}
	}
	if len(dataset) == 0 {
		return nil
	}

	km := kmeans.New()
	cc, err := km.Partition(dataset, min(k*2, len(dataset)))
	if err != nil || len(cc) == 0 {
		return nil
	}
	swatches := make([]Swatch, 0, len(cc))
	for _, c := range cc {
		if len(c.Center) < 3 || len(c.Observations) == 0 {
			continue
		}
		col := colorful.Color{R: c.Center[0], G: c.Center[1], B: c.Center[2]}.Clamped()
		swatches = append(swatches, Swatch{Color: col, Share: float64(len(c.Observations))})
	}
	return mergeSwatches(swatches, k)
}

// ChromaKeyGreen is the pure backdrop colour the generator is asked for.
var ChromaKeyGreen = colorful.Color{R: 0, G: 1, B: 0}

type BackdropReport struct {
	Dominant colorful.Color
	// Share of the image covered by the dominant colour.
	Share float64
	// CIE Lab distance from ChromaKeyGreen.
	Distance float64
	// Whether the dominant colour passes the strict seed test.
	SeedMatch bool
}

// AnalyzeBackdrop reports the dominant colour of an unprocessed image and how
// close it is to the chroma key. A backdrop that fails the seed test will
// not be removed.
func AnalyzeBackdrop(img image.Image) (BackdropReport, error) {
	found := dominantcolor.FindWeight(img, 3)
	if len(found) == 0 {
		return BackdropReport{}, fmt.Errorf("no dominant colour found")
	}
	top := slices.MaxFunc(found, func(a, b dominantcolor.Color) int {
		switch {
		case a.Weight > b.Weight:
			return 1
		case a.Weight < b.Weight:
			return -1
		}
		return 0
	})
	col, _ := colorful.MakeColor(top.RGBA)
	return BackdropReport{
		Dominant:  col,
		Share:     top.Weight,
		Distance:  col.DistanceLab(ChromaKeyGreen),
		SeedMatch: spritekey.DefaultOptions().Seed.Match(top.RGBA.R, top.RGBA.G, top.RGBA.B),
	}, nil
}

func ReadImage(path string) (*image.NRGBA, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	img, err := spritekey.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return img, nil
}

// SaveImage encodes img as an optimized PNG and writes it only once encoding
// has fully succeeded. A path without extension gets ".png".
func SaveImage(img image.Image, path string) (string, error) {
	if filepath.Ext(path) == "" {
		path += ".png"
	}
	data, err := spritekey.EncodePNG(img, spritekey.DefaultPNGOptions())
	if err != nil {
		return "", err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", err
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

// SavePalette writes the swatches as a strip of square tiles.
func SavePalette(swatches []Swatch, tileSize int, filename string) error {
	if len(swatches) == 0 {
		return fmt.Errorf("empty palette")
	}
	if tileSize <= 0 {
		tileSize = 64
	}

	img := image.NewNRGBA(image.Rect(0, 0, tileSize*len(swatches), tileSize))
	for i, s := range swatches {
		r, g, b := s.Color.Clamped().RGB255()
		x0 := i * tileSize
		for y := 0; y < tileSize; y++ {
			for x := x0; x < x0+tileSize; x++ {
				img.SetNRGBA(x, y, color.NRGBA{R: r, G: g, B: b, A: 255})
			}
		}
	}
	_, err := SaveImage(img, filename)
	return err
}
