package analyzer

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/menta2k/sprite-rotator/pkg/types"
)

// createTestImage creates a transparent sprite with an opaque block at
// [x0,x1)x[y0,y1)
func createTestImage(width, height, x0, y0, x1, y1 int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))

	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			img.Set(x, y, color.NRGBA{200, 120, 40, 255})
		}
	}

	return img
}

func TestNew(t *testing.T) {
	analyzer := New()
	if analyzer == nil {
		t.Fatal("New() returned nil")
	}

	if analyzer.config.MaxImageSize != 1024 {
		t.Errorf("Expected max size 1024, got %d", analyzer.config.MaxImageSize)
	}
}

func TestNewWithConfig(t *testing.T) {
	cfg := Config{
		SupportedFormats: []string{"png"},
		MinImageSize:     8,
		MaxImageSize:     64,
	}

	analyzer := NewWithConfig(cfg)
	if analyzer.config.MinImageSize != 8 {
		t.Errorf("Expected min size 8, got %d", analyzer.config.MinImageSize)
	}
	if analyzer.isFormatSupported("tga") {
		t.Error("tga should not be supported with custom formats")
	}
}

func TestGetImageInfo(t *testing.T) {
	analyzer := New()
	img := createTestImage(40, 20, 5, 3, 12, 9)

	info := analyzer.GetImageInfo(img)

	if info.Width != 40 || info.Height != 20 {
		t.Errorf("Expected 40x20, got %dx%d", info.Width, info.Height)
	}
	if info.AspectRatio != 2 {
		t.Errorf("Expected aspect ratio 2, got %f", info.AspectRatio)
	}
	if info.Area != 800 {
		t.Errorf("Expected area 800, got %d", info.Area)
	}
	if want := image.Rect(5, 3, 12, 9); info.Opaque != want {
		t.Errorf("Expected opaque box %v, got %v", want, info.Opaque)
	}
	if !info.Translucent {
		t.Error("Sprite with transparent background should be translucent")
	}
}

func TestGetImageInfoOffsetBounds(t *testing.T) {
	img := createTestImage(10, 10, 2, 2, 4, 4).SubImage(image.Rect(1, 1, 10, 10))

	info := New().GetImageInfo(img)
	if want := image.Rect(1, 1, 3, 3); info.Opaque != want {
		t.Errorf("Expected opaque box %v relative to origin, got %v", want, info.Opaque)
	}
}

func TestAnchorOnSprite(t *testing.T) {
	info := New().GetImageInfo(createTestImage(20, 20, 4, 4, 8, 8))

	tests := []struct {
		anchor types.SourcePoint
		want   bool
	}{
		{types.SourcePoint{X: 5, Y: 5}, true},
		{types.SourcePoint{X: 8, Y: 8}, true},
		{types.SourcePoint{X: 9, Y: 5}, false},
		{types.SourcePoint{X: 0, Y: 0}, false},
	}
	for _, tt := range tests {
		if got := info.AnchorOnSprite(tt.anchor); got != tt.want {
			t.Errorf("AnchorOnSprite(%v) = %v, want %v", tt.anchor, got, tt.want)
		}
	}
}

func TestValidateImage(t *testing.T) {
	analyzer := New()

	if err := analyzer.ValidateImage(createTestImage(32, 32, 0, 0, 4, 4)); err != nil {
		t.Errorf("Valid sprite should pass validation: %v", err)
	}

	if err := analyzer.ValidateImage(createTestImage(2000, 10, 0, 0, 4, 4)); err == nil {
		t.Error("Oversized sprite should fail validation")
	}

	if err := analyzer.ValidateImage(image.NewNRGBA(image.Rect(0, 0, 16, 16))); err == nil {
		t.Error("Fully transparent sprite should fail validation")
	}

	if err := analyzer.ValidateImage(nil); err == nil {
		t.Error("Nil image should fail validation")
	}
}

func TestLoadImageFromReader(t *testing.T) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, createTestImage(6, 4, 1, 1, 3, 3)); err != nil {
		t.Fatal(err)
	}

	img, err := New().LoadImageFromReader(&buf)
	if err != nil {
		t.Fatalf("LoadImageFromReader failed: %v", err)
	}
	if img.Bounds().Dx() != 6 || img.Bounds().Dy() != 4 {
		t.Errorf("Expected 6x4, got %v", img.Bounds())
	}

	pngOnly := NewWithConfig(Config{SupportedFormats: []string{"jpeg"}})
	buf.Reset()
	_ = png.Encode(&buf, createTestImage(2, 2, 0, 0, 1, 1))
	if _, err := pngOnly.LoadImageFromReader(&buf); err == nil {
		t.Error("Expected unsupported format error")
	}

	if _, err := New().LoadImageFromReader(strings.NewReader("not an image")); err == nil {
		t.Error("Expected decode error")
	}
}

func TestIsFormatSupported(t *testing.T) {
	analyzer := New()

	for _, format := range []string{"png", "PNG", "jpeg", "webp", "tga"} {
		if !analyzer.isFormatSupported(format) {
			t.Errorf("Format %s should be supported", format)
		}
	}

	for _, format := range []string{"bmp", "tiff"} {
		if analyzer.isFormatSupported(format) {
			t.Errorf("Format %s should not be supported", format)
		}
	}
}

func BenchmarkGetImageInfo(b *testing.B) {
	analyzer := New()
	img := createTestImage(256, 256, 32, 32, 200, 200)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		analyzer.GetImageInfo(img)
	}
}
