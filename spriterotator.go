// Package spriterotator generates the rotated and mirrored frames of a sprite
// and tracks where a chosen grip pixel lands in each of them.
//
// A sprite such as a weapon is drawn once, upright, with an anchor pixel
// marking where a character holds it. The package renders it at 40 fixed
// angles, optionally mirrors every frame, and reports the anchor position in
// each output canvas so an engine can attach the frame to a hand.
//
// Basic usage:
//
//	package main
//
//	import (
//		"context"
//		"fmt"
//		"log"
//
//		spriterotator "github.com/menta2k/sprite-rotator"
//		"github.com/menta2k/sprite-rotator/pkg/types"
//	)
//
//	func main() {
//		sr := spriterotator.New()
//
//		img, err := sr.LoadImage("sword.png")
//		if err != nil {
//			log.Fatal(err)
//		}
//
//		variants, err := sr.GenerateVariants(context.Background(), img, types.SourcePoint{X: 3, Y: 28}, sr.DefaultOptions())
//		if err != nil {
//			log.Fatal(err)
//		}
//
//		for _, v := range variants {
//			fmt.Println(v.Label, v.Grip)
//		}
//	}
//
// The package consists of these components:
//
// 1. Rotator (pkg/rotator): supersampled rotation with canvas expansion
// 2. Grip (pkg/grip): the angle ladder, grip tracking, mirroring and markers
// 3. Variants (pkg/variants): the parallel batch over the ladder
// 4. Output (pkg/output): frames, previews, grip list and manifest on disk
// 5. Analyzer (pkg/analyzer): sprite validation and inspection
//
// Rotation upsamples the sprite with nearest-neighbour, rotates it clockwise
// with the canvas grown to fit, then area-averages it back down. This keeps
// pixel art crisp while smoothing the stair-stepping a direct rotation leaves.
package spriterotator

import (
	"context"
	"fmt"
	"image"
	"io"
	"path/filepath"
	"strings"

	"github.com/menta2k/sprite-rotator/internal/utils"
	"github.com/menta2k/sprite-rotator/pkg/analyzer"
	"github.com/menta2k/sprite-rotator/pkg/grip"
	"github.com/menta2k/sprite-rotator/pkg/output"
	"github.com/menta2k/sprite-rotator/pkg/processing"
	"github.com/menta2k/sprite-rotator/pkg/rotator"
	"github.com/menta2k/sprite-rotator/pkg/types"
	"github.com/menta2k/sprite-rotator/pkg/variants"
)

// Version of the sprite rotator library
const Version = "1.0.0"

// SpriteRotator provides a high-level interface for sprite rotation and grip tracking
type SpriteRotator struct {
	analyzer  *analyzer.SpriteAnalyzer
	processor *processing.Processor
	rotator   *rotator.Rotator
	generator *variants.Generator
}

// New creates a new SpriteRotator with default configuration
func New() *SpriteRotator {
	r := rotator.New()
	return &SpriteRotator{
		analyzer:  analyzer.New(),
		processor: processing.NewProcessor(),
		rotator:   r,
		generator: variants.NewWithRotator(r, nil),
	}
}

// NewWithConfig creates a new SpriteRotator with custom configuration
func NewWithConfig(rotatorConfig rotator.Config, analyzerConfig analyzer.Config) *SpriteRotator {
	r := rotator.NewWithConfig(rotatorConfig)
	return &SpriteRotator{
		analyzer:  analyzer.NewWithConfig(analyzerConfig),
		processor: processing.NewProcessor(),
		rotator:   r,
		generator: variants.NewWithRotator(r, nil),
	}
}

// LoadImage loads a sprite from a file path or URL
func (sr *SpriteRotator) LoadImage(source string) (image.Image, error) {
	return sr.processor.LoadImageSmart(source)
}

// LoadImageFromReader loads a sprite from an io.Reader
func (sr *SpriteRotator) LoadImageFromReader(reader io.Reader) (image.Image, error) {
	return sr.analyzer.LoadImageFromReader(reader)
}

// SaveImage saves an image to file, picking the format from the extension
func (sr *SpriteRotator) SaveImage(img image.Image, path string) error {
	return sr.processor.SaveImage(img, path, utils.GetFileExtension(path), output.DefaultConfig().Quality, false)
}

// Rotate rotates img clockwise by angle degrees. See rotator.Rotator.Rotate.
func (sr *SpriteRotator) Rotate(img image.Image, angle float64, qualityScale int) (*image.NRGBA, error) {
	return sr.rotator.Rotate(img, angle, qualityScale)
}

// Resize scales img by scaleFactor with the given interpolation
func (sr *SpriteRotator) Resize(img image.Image, scaleFactor float64, kind rotator.Interpolation) (*image.NRGBA, error) {
	return sr.rotator.Resize(img, scaleFactor, kind)
}

// AngleLadder returns the 40 rotation angles in output order
func (sr *SpriteRotator) AngleLadder() []float64 {
	return grip.AngleLadder()
}

// TrackGrip returns where anchor lands after rotating a width x height sprite by angle
func (sr *SpriteRotator) TrackGrip(width, height int, anchor types.SourcePoint, angle float64) (types.CanvasPoint, error) {
	return grip.Track(width, height, anchor, angle)
}

// DefaultOptions returns the options of a standard batch
func (sr *SpriteRotator) DefaultOptions() types.VariantOptions {
	return sr.generator.DefaultOptions()
}

// GenerateVariants renders every ladder angle and, if requested, the mirrored frames
func (sr *SpriteRotator) GenerateVariants(ctx context.Context, img image.Image, anchor types.SourcePoint, opts types.VariantOptions) ([]types.Variant, error) {
	return sr.generator.Generate(ctx, types.Request{Image: img, Anchor: anchor, Options: opts})
}

// GetImageInfo returns basic information about a sprite
func (sr *SpriteRotator) GetImageInfo(img image.Image) analyzer.ImageInfo {
	return sr.analyzer.GetImageInfo(img)
}

// ValidateImage checks if a sprite meets requirements
func (sr *SpriteRotator) ValidateImage(img image.Image) error {
	return sr.analyzer.ValidateImage(img)
}

// ProcessImageFile is a convenience function that loads a sprite, generates
// all variants with default options and writes them under
// outputDir/<sprite name>.
func (sr *SpriteRotator) ProcessImageFile(ctx context.Context, inputPath, outputDir string, anchor types.SourcePoint) (*output.Manifest, error) {
	img, err := sr.LoadImage(inputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load image: %w", err)
	}

	if err := sr.ValidateImage(img); err != nil {
		return nil, fmt.Errorf("image validation failed: %w", err)
	}

	vs, err := sr.GenerateVariants(ctx, img, anchor, sr.DefaultOptions())
	if err != nil {
		return nil, fmt.Errorf("variant generation failed: %w", err)
	}

	cfg := output.DefaultConfig()
	cfg.Dir = filepath.Join(outputDir, getBaseName(inputPath))
	cfg.Manifest = true

	manifest, err := output.NewWriter(cfg, nil).Write(types.Request{Image: img, Anchor: anchor}, vs)
	if err != nil {
		return nil, fmt.Errorf("failed to write variants: %w", err)
	}

	return manifest, nil
}

// GetVersion returns the library version
func GetVersion() string {
	return Version
}

// getBaseName extracts the base filename without extension
func getBaseName(path string) string {
	base := filepath.Base(strings.ReplaceAll(path, "\\", "/"))
	return strings.TrimSuffix(base, filepath.Ext(base))
}
