package spritekey

import (
	"encoding/base64"
	"fmt"
	"slices"
	"strings"
)

const dataURLPrefix = "data:"

var supportedMimes = []string{"image/png", "image/jpeg", "image/jpg", "image/webp"}

// ParseDataURL returns the decoded payload of a base64 image data URL.
// All failures wrap ErrInvalidDataURL.
func ParseDataURL(dataURL string) ([]byte, error) {
	if !strings.HasPrefix(dataURL, dataURLPrefix) {
		return nil, fmt.Errorf("%w: expected a data URL with image payload", ErrInvalidDataURL)
	}
	metadata, payload, ok := strings.Cut(dataURL, ",")
	if !ok {
		return nil, fmt.Errorf("%w: missing ',' between metadata and payload", ErrInvalidDataURL)
	}
	if !strings.Contains(metadata, ";base64") {
		return nil, fmt.Errorf("%w: data URL must be base64 encoded", ErrInvalidDataURL)
	}
	mime, _, _ := strings.Cut(strings.TrimPrefix(metadata, dataURLPrefix), ";")
	if !slices.Contains(supportedMimes, mime) {
		return nil, fmt.Errorf("%w: unsupported image mime type %q (allowed: png/jpeg/webp)", ErrInvalidDataURL, mime)
	}
	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(payload))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDataURL, err)
	}
	return data, nil
}

func ValidateDataURL(dataURL string) error {
	_, err := ParseDataURL(dataURL)
	return err
}

// MimeForExtension maps a file extension, with or without the leading dot,
// to an image mime type. Unknown extensions map to image/png.
func MimeForExtension(ext string) string {
	switch strings.ToLower(strings.TrimPrefix(ext, ".")) {
	case "jpg", "jpeg":
		return "image/jpeg"
	case "webp":
		return "image/webp"
	default:
		return "image/png"
	}
}

// EncodeDataURL wraps data in a base64 data URL whose mime type is derived
// from ext.
func EncodeDataURL(data []byte, ext string) string {
	return dataURLPrefix + MimeForExtension(ext) + ";base64," + base64.StdEncoding.EncodeToString(data)
}
