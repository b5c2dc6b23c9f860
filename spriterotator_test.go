package spriterotator

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/menta2k/sprite-rotator/pkg/analyzer"
	"github.com/menta2k/sprite-rotator/pkg/output"
	"github.com/menta2k/sprite-rotator/pkg/rotator"
	"github.com/menta2k/sprite-rotator/pkg/types"
)

// createTestImage creates a sword-like sprite: a vertical blade on a
// transparent background with a darker hilt at the bottom
func createTestImage(width, height int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))

	for y := 0; y < height; y++ {
		for x := width/2 - 1; x <= width/2; x++ {
			if y > 3*height/4 {
				img.Set(x, y, color.NRGBA{90, 60, 30, 255})
			} else {
				img.Set(x, y, color.NRGBA{220, 220, 230, 255})
			}
		}
	}

	return img
}

func TestNew(t *testing.T) {
	sr := New()
	if sr == nil {
		t.Fatal("New() returned nil")
	}

	if sr.analyzer == nil {
		t.Error("analyzer component is nil")
	}

	if sr.rotator == nil {
		t.Error("rotator component is nil")
	}

	if sr.generator == nil {
		t.Error("generator component is nil")
	}
}

func TestNewWithConfig(t *testing.T) {
	rotatorConfig := rotator.Config{
		QualityScale: 4,
		Upscale:      rotator.Nearest,
		Downscale:    rotator.Linear,
	}

	analyzerConfig := analyzer.Config{
		SupportedFormats: []string{"png"},
		MinImageSize:     4,
		MaxImageSize:     64,
	}

	sr := NewWithConfig(rotatorConfig, analyzerConfig)

	if got := sr.DefaultOptions().QualityScale; got != 4 {
		t.Errorf("Expected quality scale 4, got %d", got)
	}

	if err := sr.ValidateImage(createTestImage(128, 16)); err == nil {
		t.Error("Sprite larger than the configured maximum should fail validation")
	}
}

func TestAngleLadder(t *testing.T) {
	ladder := New().AngleLadder()
	if len(ladder) != 40 {
		t.Fatalf("Expected 40 angles, got %d", len(ladder))
	}
	if ladder[0] != 0 || ladder[5] != 45 || math.Abs(ladder[39]-348.69) > 1e-9 {
		t.Errorf("unexpected ladder %v", ladder)
	}
}

func TestTrackGrip(t *testing.T) {
	sr := New()

	got, err := sr.TrackGrip(10, 6, types.SourcePoint{X: 2, Y: 1}, 90)
	if err != nil {
		t.Fatalf("TrackGrip failed: %v", err)
	}
	if want := (types.CanvasPoint{X: 5, Y: 2}); got != want {
		t.Errorf("TrackGrip = %v, want %v", got, want)
	}

	if _, err := sr.TrackGrip(10, 6, types.SourcePoint{X: 11, Y: 1}, 0); err == nil {
		t.Error("Expected error for anchor outside the sprite")
	}
}

func TestRotateAndResize(t *testing.T) {
	sr := New()
	img := createTestImage(12, 20)

	rotated, err := sr.Rotate(img, 90, 2)
	if err != nil {
		t.Fatalf("Rotate failed: %v", err)
	}
	if b := rotated.Bounds(); b.Dx() != 20 || b.Dy() != 12 {
		t.Errorf("Expected 20x12, got %dx%d", b.Dx(), b.Dy())
	}

	scaled, err := sr.Resize(img, 2, rotator.Nearest)
	if err != nil {
		t.Fatalf("Resize failed: %v", err)
	}
	if b := scaled.Bounds(); b.Dx() != 24 || b.Dy() != 40 {
		t.Errorf("Expected 24x40, got %dx%d", b.Dx(), b.Dy())
	}
}

func TestGenerateVariants(t *testing.T) {
	sr := New()
	img := createTestImage(12, 20)

	opts := sr.DefaultOptions()
	opts.QualityScale = 2

	vs, err := sr.GenerateVariants(context.Background(), img, types.SourcePoint{X: 6, Y: 18}, opts)
	if err != nil {
		t.Fatalf("GenerateVariants failed: %v", err)
	}
	if len(vs) != 80 {
		t.Fatalf("Expected 80 variants, got %d", len(vs))
	}
	if vs[0].Grip != (types.CanvasPoint{X: 6, Y: 18}) {
		t.Errorf("grip at 0 degrees = %v, want (6, 18)", vs[0].Grip)
	}
	if !vs[40].Mirrored || vs[40].Grip.X != 12-6 {
		t.Errorf("unexpected first mirrored variant %+v", vs[40].Grip)
	}
}

func TestGetImageInfo(t *testing.T) {
	info := New().GetImageInfo(createTestImage(12, 20))

	if info.Width != 12 || info.Height != 20 {
		t.Errorf("Expected 12x20, got %dx%d", info.Width, info.Height)
	}
	if want := image.Rect(5, 0, 7, 20); info.Opaque != want {
		t.Errorf("Expected opaque box %v, got %v", want, info.Opaque)
	}
	if !info.AnchorOnSprite(types.SourcePoint{X: 6, Y: 18}) {
		t.Error("hilt anchor should be on the sprite")
	}
}

func TestLoadImageFromReader(t *testing.T) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, createTestImage(8, 8)); err != nil {
		t.Fatal(err)
	}
	img, err := New().LoadImageFromReader(&buf)
	if err != nil {
		t.Fatalf("LoadImageFromReader failed: %v", err)
	}
	if img.Bounds().Dx() != 8 {
		t.Errorf("Expected width 8, got %d", img.Bounds().Dx())
	}
}

func TestProcessImageFile(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "sword.png")

	sr := New()
	if err := sr.SaveImage(createTestImage(12, 20), input); err != nil {
		t.Fatalf("SaveImage failed: %v", err)
	}

	manifest, err := sr.ProcessImageFile(context.Background(), input, filepath.Join(dir, "out"), types.SourcePoint{X: 6, Y: 18})
	if err != nil {
		t.Fatalf("ProcessImageFile failed: %v", err)
	}
	if len(manifest.Frames) != 80 {
		t.Errorf("Expected 80 frames, got %d", len(manifest.Frames))
	}

	frameDir := filepath.Join(dir, "out", "sword")
	for _, name := range []string{"00.png", "79.png", "grip_list.txt", "manifest.json"} {
		if _, err := os.Stat(filepath.Join(frameDir, name)); err != nil {
			t.Errorf("Expected %s: %v", name, err)
		}
	}

	grips, err := output.ReadGrips(filepath.Join(frameDir, "grip_list.txt"))
	if err != nil {
		t.Fatal(err)
	}
	if grips[5] != manifest.Frames[5].Grip {
		t.Errorf("grip list and manifest disagree: %v vs %v", grips[5], manifest.Frames[5].Grip)
	}
}

func TestProcessImageFileErrors(t *testing.T) {
	sr := New()
	dir := t.TempDir()

	if _, err := sr.ProcessImageFile(context.Background(), filepath.Join(dir, "missing.png"), dir, types.SourcePoint{}); err == nil {
		t.Error("Expected error for missing input")
	}

	blank := filepath.Join(dir, "blank.png")
	if err := sr.SaveImage(image.NewNRGBA(image.Rect(0, 0, 8, 8)), blank); err != nil {
		t.Fatal(err)
	}
	if _, err := sr.ProcessImageFile(context.Background(), blank, dir, types.SourcePoint{}); err == nil {
		t.Error("Expected validation error for a fully transparent sprite")
	}
}

func TestGetVersion(t *testing.T) {
	version := GetVersion()
	if version == "" {
		t.Error("Version should not be empty")
	}

	if version != Version {
		t.Errorf("GetVersion() returned %s, expected %s", version, Version)
	}
}

func TestGetBaseName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"sword.png", "sword"},
		{"path/to/sword.png", "sword"},
		{"C:\\path\\to\\axe.tga", "axe"},
		{"sprite", "sprite"},
		{"great.sword.webp", "great.sword"},
	}

	for _, test := range tests {
		result := getBaseName(test.input)
		if result != test.expected {
			t.Errorf("getBaseName(%s) = %s, expected %s",
				test.input, result, test.expected)
		}
	}
}

func BenchmarkGenerateVariants(b *testing.B) {
	sr := New()
	img := createTestImage(16, 32)
	opts := sr.DefaultOptions()
	opts.QualityScale = 4

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = sr.GenerateVariants(context.Background(), img, types.SourcePoint{X: 8, Y: 30}, opts)
	}
}
