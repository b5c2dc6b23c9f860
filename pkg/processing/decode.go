package processing

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"

	"github.com/chai2010/webp"
	xwebp "golang.org/x/image/webp"
)

// ErrUnknownFormat is returned when the data matches no supported signature
var ErrUnknownFormat = errors.New("image: unknown or unsupported format")

// The tga package registers itself with image.RegisterFormat under an empty
// magic string, which matches any input. Once it is linked in, image.Decode
// and imaging.Open may hand PNG or JPEG data to the TGA decoder, so formats
// are sniffed here and their decoders called directly.
var signatures = []struct {
	format string
	match  func([]byte) bool
	decode func(io.Reader) (image.Image, error)
}{
	{"png", prefix("\x89PNG\r\n\x1a\n"), png.Decode},
	{"jpeg", prefix("\xff\xd8\xff"), jpeg.Decode},
	{"gif", func(b []byte) bool { return bytes.HasPrefix(b, []byte("GIF87a")) || bytes.HasPrefix(b, []byte("GIF89a")) }, gif.Decode},
	{"webp", isWebP, decodeWebP},
}

func prefix(magic string) func([]byte) bool {
	return func(b []byte) bool { return bytes.HasPrefix(b, []byte(magic)) }
}

func isWebP(b []byte) bool {
	return len(b) >= 12 && string(b[:4]) == "RIFF" && string(b[8:12]) == "WEBP"
}

func decodeWebP(r io.Reader) (image.Image, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	img, err := xwebp.Decode(bytes.NewReader(data))
	if err == nil {
		return img, nil
	}
	// libwebp covers the extended features x/image does not
	if img, lerr := webp.Decode(bytes.NewReader(data)); lerr == nil {
		return img, nil
	}
	return nil, err
}

// DetectFormat returns the format name for data, or "" if no signature matches.
// TGA has no signature and is never detected.
func DetectFormat(data []byte) string {
	for _, s := range signatures {
		if s.match(data) {
			return s.format
		}
	}
	return ""
}

// Decode decodes PNG, JPEG, GIF or WebP data and reports the format name
func Decode(data []byte) (image.Image, string, error) {
	for _, s := range signatures {
		if !s.match(data) {
			continue
		}
		img, err := s.decode(bytes.NewReader(data))
		if err != nil {
			return nil, s.format, fmt.Errorf("failed to decode %s: %w", s.format, err)
		}
		return img, s.format, nil
	}
	return nil, "", ErrUnknownFormat
}

// DecodeReader reads r fully and decodes it with Decode
func DecodeReader(r io.Reader) (image.Image, string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read image data: %w", err)
	}
	return Decode(data)
}
