package analyzer

import (
	"fmt"
	"image"
	"io"
	"strings"

	"github.com/menta2k/sprite-rotator/pkg/processing"
	"github.com/menta2k/sprite-rotator/pkg/types"
)

// SpriteAnalyzer inspects source sprites before they are rotated
type SpriteAnalyzer struct {
	config Config
}

// Config holds configuration for the sprite analyzer
type Config struct {
	SupportedFormats []string
	MinImageSize     int
	// MaxImageSize bounds the longest side; the rotator works on a copy
	// upscaled by the quality scale, so memory grows with its square.
	MaxImageSize int
}

// New creates a new SpriteAnalyzer with default configuration
func New() *SpriteAnalyzer {
	return &SpriteAnalyzer{
		config: Config{
			SupportedFormats: []string{"png", "jpeg", "gif", "webp", "tga"},
			MinImageSize:     1,
			MaxImageSize:     1024,
		},
	}
}

// NewWithConfig creates a new SpriteAnalyzer with custom configuration
func NewWithConfig(config Config) *SpriteAnalyzer {
	return &SpriteAnalyzer{config: config}
}

// LoadImageFromReader decodes a PNG, JPEG, GIF or WebP sprite from an
// io.Reader. TGA has no signature and must be loaded by file name.
func (a *SpriteAnalyzer) LoadImageFromReader(reader io.Reader) (image.Image, error) {
	img, format, err := processing.DecodeReader(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	if !a.isFormatSupported(format) {
		return nil, fmt.Errorf("unsupported image format: %s", format)
	}

	return img, nil
}

// ImageInfo contains basic sprite metadata
type ImageInfo struct {
	Width       int
	Height      int
	AspectRatio float64
	Area        int
	// Opaque is the bounding box of pixels with non-zero alpha, relative to
	// the image origin. It is empty for a fully transparent image.
	Opaque      image.Rectangle
	Translucent bool
}

// GetImageInfo returns basic information about a sprite
func (a *SpriteAnalyzer) GetImageInfo(img image.Image) ImageInfo {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	info := ImageInfo{
		Width:  width,
		Height: height,
		Area:   width * height,
	}
	if height > 0 {
		info.AspectRatio = float64(width) / float64(height)
	}

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			_, _, _, alpha := img.At(x, y).RGBA()
			if alpha < 0xffff {
				info.Translucent = true
			}
			if alpha == 0 {
				continue
			}
			px := image.Rect(x-bounds.Min.X, y-bounds.Min.Y, x-bounds.Min.X+1, y-bounds.Min.Y+1)
			info.Opaque = info.Opaque.Union(px)
		}
	}

	return info
}

// AnchorOnSprite reports whether anchor touches the opaque region. An anchor
// off the sprite is legal but usually a mistake.
func (info ImageInfo) AnchorOnSprite(anchor types.SourcePoint) bool {
	if info.Opaque.Empty() {
		return false
	}
	// grips address pixel corners, so the far edges count
	r := info.Opaque
	return anchor.X >= r.Min.X && anchor.X <= r.Max.X && anchor.Y >= r.Min.Y && anchor.Y <= r.Max.Y
}

func (a *SpriteAnalyzer) isFormatSupported(format string) bool {
	for _, supported := range a.config.SupportedFormats {
		if strings.EqualFold(format, supported) {
			return true
		}
	}
	return false
}

// ValidateImage checks if a sprite meets the size requirements and has at
// least one visible pixel
func (a *SpriteAnalyzer) ValidateImage(img image.Image) error {
	if img == nil {
		return fmt.Errorf("image is nil")
	}
	bounds := img.Bounds()
	if bounds.Dx() < a.config.MinImageSize || bounds.Dy() < a.config.MinImageSize {
		return fmt.Errorf("image too small: %dx%d (minimum: %d)",
			bounds.Dx(), bounds.Dy(), a.config.MinImageSize)
	}
	if a.config.MaxImageSize > 0 && (bounds.Dx() > a.config.MaxImageSize || bounds.Dy() > a.config.MaxImageSize) {
		return fmt.Errorf("image too large: %dx%d (maximum: %d)",
			bounds.Dx(), bounds.Dy(), a.config.MaxImageSize)
	}
	if a.GetImageInfo(img).Opaque.Empty() {
		return fmt.Errorf("image is fully transparent")
	}
	return nil
}
