package spritekey

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// Decode decodes png, jpeg or webp bytes into an NRGBA buffer whose
// bounds start at (0,0). Failures wrap ErrDecode.
func Decode(data []byte) (*image.NRGBA, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return ToNRGBA(src), nil
}

// ToNRGBA returns src as a zero-origin *image.NRGBA, copying only when src
// is not one already.
func ToNRGBA(src image.Image) *image.NRGBA {
	if n, ok := src.(*image.NRGBA); ok && n.Rect.Min == (image.Point{}) {
		return n
	}
	b := src.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	if p, ok := src.(*image.Paletted); ok {
		// Straight lookup keeps semi-transparent palette entries exact.
		lut := make([]color.NRGBA, len(p.Palette))
		for i, c := range p.Palette {
			lut[i] = color.NRGBAModel.Convert(c).(color.NRGBA)
		}
		for y := 0; y < b.Dy(); y++ {
			for x := 0; x < b.Dx(); x++ {
				idx := int(p.ColorIndexAt(b.Min.X+x, b.Min.Y+y))
				if idx < len(lut) {
					dst.SetNRGBA(x, y, lut[idx])
				}
			}
		}
		return dst
	}
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	return dst
}

// DecodeDimensions reads only the image header and returns its size.
func DecodeDimensions(data []byte) (width, height int, err error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return cfg.Width, cfg.Height, nil
}
