package spritekey

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"image"
	"image/color"
	"image/png"
	"io"
	"slices"

	"github.com/klauspost/compress/zlib"
)

type PNGOptions struct {
	// Deflate levels tried when recompressing the IDAT stream.
	Levels []int
	// Drop ancillary chunks that do not affect how pixels are rendered.
	Strip bool
	// Try an indexed-colour encoding when the image has at most 256 colours.
	// Only applies with Strip, as the re-encoded stream carries no metadata.
	TryPalette bool
	// Decode the smallest encoding and compare it pixel by pixel with the input.
	Verify bool
}

func DefaultPNGOptions() PNGOptions {
	return PNGOptions{
		Levels:     []int{zlib.BestCompression, zlib.DefaultCompression},
		Strip:      true,
		TryPalette: true,
		Verify:     true,
	}
}

// EncodePNG encodes img losslessly with maximum compression and adaptive
// per-row filtering, then shrinks the result with OptimizePNG. Failures wrap
// ErrEncode and return no bytes.
func EncodePNG(img image.Image, opt PNGOptions) ([]byte, error) {
	data, err := encodeBest(img)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncode, err)
	}
	return OptimizePNG(data, opt)
}

func encodeBest(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.BestCompression}
	if err := enc.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// OptimizePNG searches for a smaller lossless encoding of a PNG stream and
// returns the smallest one found, never larger than data.
func OptimizePNG(data []byte, opt PNGOptions) ([]byte, error) {
	src, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: decoding input: %v", ErrEncode, err)
	}

	encodings := [][]byte{data}
	if opt.TryPalette && opt.Strip {
		if p := toPaletted(src); p != nil {
			enc, err := encodeBest(p)
			if err != nil {
				return nil, fmt.Errorf("%w: palette encode: %v", ErrEncode, err)
			}
			encodings = append(encodings, enc)
		}
	}

	best := data
	for _, enc := range encodings {
		vs, err := variants(enc, opt)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrEncode, err)
		}
		for _, v := range vs {
			if len(v) < len(best) {
				best = v
			}
		}
	}

	if opt.Verify && !bytes.Equal(best, data) {
		got, err := png.Decode(bytes.NewReader(best))
		if err != nil {
			return nil, fmt.Errorf("%w: optimized stream does not decode: %v", ErrEncode, err)
		}
		if !samePixels(src, got) {
			return nil, fmt.Errorf("%w: optimized stream changed pixel values", ErrEncode)
		}
	}
	return best, nil
}

// variants rebuilds enc with optional chunk stripping and with its IDAT
// stream recompressed at every configured level.
func variants(enc []byte, opt PNGOptions) ([][]byte, error) {
	chunks, err := readChunks(enc)
	if err != nil {
		return nil, err
	}
	if opt.Strip {
		chunks = slices.DeleteFunc(chunks, func(c chunk) bool { return !keepChunk(c.typ) })
	}
	out := [][]byte{writeChunks(chunks)}
	if len(opt.Levels) == 0 {
		return out, nil
	}
	raw, err := inflateIDAT(chunks)
	if err != nil {
		return nil, err
	}
	for _, level := range opt.Levels {
		z, err := deflate(raw, level)
		if err != nil {
			return nil, err
		}
		out = append(out, writeChunks(replaceIDAT(chunks, z)))
	}
	return out, nil
}

var pngSignature = []byte("\x89PNG\r\n\x1a\n")

type chunk struct {
	typ  string
	data []byte
}

// renderingChunks are the ancillary chunks kept when stripping.
var renderingChunks = []string{"tRNS", "cHRM", "gAMA", "iCCP", "sBIT", "sRGB", "cICP", "pHYs"}

func keepChunk(typ string) bool {
	// Critical chunks have an upper-case first letter.
	if typ[0] >= 'A' && typ[0] <= 'Z' {
		return true
	}
	return slices.Contains(renderingChunks, typ)
}

func readChunks(data []byte) ([]chunk, error) {
	if !bytes.HasPrefix(data, pngSignature) {
		return nil, fmt.Errorf("missing PNG signature")
	}
	rest := data[len(pngSignature):]
	var chunks []chunk
	for len(rest) > 0 {
		if len(rest) < 12 {
			return nil, fmt.Errorf("truncated chunk header")
		}
		n := binary.BigEndian.Uint32(rest[:4])
		if uint64(n) > uint64(len(rest)-12) {
			return nil, fmt.Errorf("chunk length %d exceeds remaining %d bytes", n, len(rest)-12)
		}
		end := 8 + int(n)
		typ := string(rest[4:8])
		if crc32.ChecksumIEEE(rest[4:end]) != binary.BigEndian.Uint32(rest[end:end+4]) {
			return nil, fmt.Errorf("CRC mismatch in %s chunk", typ)
		}
		chunks = append(chunks, chunk{typ: typ, data: rest[8:end]})
		rest = rest[end+4:]
		if typ == "IEND" {
			break
		}
	}
	if len(chunks) < 2 || chunks[0].typ != "IHDR" || chunks[len(chunks)-1].typ != "IEND" {
		return nil, fmt.Errorf("PNG must start with IHDR and end with IEND")
	}
	return chunks, nil
}

func writeChunks(chunks []chunk) []byte {
	var buf bytes.Buffer
	buf.Write(pngSignature)
	var hdr [8]byte
	for _, c := range chunks {
		binary.BigEndian.PutUint32(hdr[:4], uint32(len(c.data)))
		copy(hdr[4:], c.typ)
		buf.Write(hdr[:])
		buf.Write(c.data)
		crc := crc32.NewIEEE()
		crc.Write(hdr[4:])
		crc.Write(c.data)
		buf.Write(binary.BigEndian.AppendUint32(nil, crc.Sum32()))
	}
	return buf.Bytes()
}

func inflateIDAT(chunks []chunk) ([]byte, error) {
	var z []byte
	for _, c := range chunks {
		if c.typ == "IDAT" {
			z = append(z, c.data...)
		}
	}
	zr, err := zlib.NewReader(bytes.NewReader(z))
	if err != nil {
		return nil, fmt.Errorf("IDAT: %v", err)
	}
	defer zr.Close()
	raw, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("IDAT: %v", err)
	}
	return raw, nil
}

func deflate(raw []byte, level int) ([]byte, error) {
	var buf bytes.Buffer
	zw, err := zlib.NewWriterLevel(&buf, level)
	if err != nil {
		return nil, err
	}
	if _, err := zw.Write(raw); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// replaceIDAT swaps all IDAT chunks for a single one holding z, placed where
// the first IDAT was.
func replaceIDAT(chunks []chunk, z []byte) []chunk {
	out := make([]chunk, 0, len(chunks))
	done := false
	for _, c := range chunks {
		if c.typ != "IDAT" {
			out = append(out, c)
			continue
		}
		if !done {
			out = append(out, chunk{typ: "IDAT", data: z})
			done = true
		}
	}
	return out
}

// toPaletted returns an indexed copy of an 8-bit img, or nil when it has
// more than 256 distinct colours.
func toPaletted(img image.Image) *image.Paletted {
	switch img.(type) {
	case *image.NRGBA, *image.RGBA, *image.Gray:
	default:
		return nil
	}
	b := img.Bounds()
	index := make(map[color.NRGBA]uint8)
	var palette color.Palette
	pix := make([]uint8, 0, b.Dx()*b.Dy())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			i, ok := index[c]
			if !ok {
				if len(palette) == 256 {
					return nil
				}
				i = uint8(len(palette))
				index[c] = i
				palette = append(palette, c)
			}
			pix = append(pix, i)
		}
	}
	p := image.NewPaletted(image.Rect(0, 0, b.Dx(), b.Dy()), palette)
	copy(p.Pix, pix)
	return p
}

func samePixels(a, b image.Image) bool {
	ab, bb := a.Bounds(), b.Bounds()
	if ab.Dx() != bb.Dx() || ab.Dy() != bb.Dy() {
		return false
	}
	for y := 0; y < ab.Dy(); y++ {
		for x := 0; x < ab.Dx(); x++ {
			ca := color.NRGBA64Model.Convert(a.At(ab.Min.X+x, ab.Min.Y+y))
			cb := color.NRGBA64Model.Convert(b.At(bb.Min.X+x, bb.Min.Y+y))
			if ca != cb {
				return false
			}
		}
	}
	return true
}
