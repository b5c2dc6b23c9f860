package rotator

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"
	"strings"

	"github.com/disintegration/imaging"
)

// DefaultQualityScale is the upsample factor used before rotating
const DefaultQualityScale = 16

var (
	// ErrInvalidImage is returned for nil or zero-area images
	ErrInvalidImage = errors.New("invalid image")
	// ErrInvalidScale is returned for scale factors that cannot produce an image
	ErrInvalidScale = errors.New("invalid scale")
)

// Interpolation selects the resampling method used by Resize
type Interpolation int

const (
	// Nearest keeps hard pixel edges; used for upscaling and previews
	Nearest Interpolation = iota
	// Area averages every source pixel covered by a destination pixel
	Area
	Linear
	CatmullRom
	Lanczos
)

var interpolationNames = map[Interpolation]string{
	Nearest:    "nearest",
	Area:       "area",
	Linear:     "linear",
	CatmullRom: "catmullrom",
	Lanczos:    "lanczos",
}

func (i Interpolation) String() string {
	if name, ok := interpolationNames[i]; ok {
		return name
	}
	return fmt.Sprintf("interpolation(%d)", int(i))
}

// ParseInterpolation converts a name such as "nearest" or "area" to an Interpolation
func ParseInterpolation(name string) (Interpolation, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for kind, n := range interpolationNames {
		if n == name {
			return kind, nil
		}
	}
	return Nearest, fmt.Errorf("unknown interpolation %q", name)
}

func (i Interpolation) filter() imaging.ResampleFilter {
	switch i {
	case Area:
		// Box support scales with the reduction ratio, so on downscale every
		// destination pixel is the mean of the source pixels it covers.
		return imaging.Box
	case Linear:
		return imaging.Linear
	case CatmullRom:
		return imaging.CatmullRom
	case Lanczos:
		return imaging.Lanczos
	default:
		return imaging.NearestNeighbor
	}
}

// Config holds configuration for the rotator
type Config struct {
	QualityScale int
	Upscale      Interpolation
	Downscale    Interpolation
	Background   color.Color
}

// Rotator rotates sprites with canvas expansion and anti-aliasing by supersampling
type Rotator struct {
	config Config
}

// New creates a Rotator with the default 16x nearest/area pipeline
func New() *Rotator {
	return &Rotator{
		config: Config{
			QualityScale: DefaultQualityScale,
			Upscale:      Nearest,
			Downscale:    Area,
			Background:   color.Transparent,
		},
	}
}

// NewWithConfig creates a Rotator with custom configuration
func NewWithConfig(config Config) *Rotator {
	if config.Background == nil {
		config.Background = color.Transparent
	}
	return &Rotator{config: config}
}

// QualityScale returns the configured default upsample factor
func (r *Rotator) QualityScale() int {
	return r.config.QualityScale
}

// RotateDefault rotates using the configured quality scale
func (r *Rotator) RotateDefault(img image.Image, angle float64) (*image.NRGBA, error) {
	return r.Rotate(img, angle, r.config.QualityScale)
}

// Rotate rotates img clockwise by angle degrees, growing the canvas so nothing
// is clipped. With qualityScale > 0 the image is upscaled by that factor before
// rotating and scaled back down afterwards. A zero qualityScale rotates at
// native resolution.
func (r *Rotator) Rotate(img image.Image, angle float64, qualityScale int) (*image.NRGBA, error) {
	if err := validateImage(img); err != nil {
		return nil, err
	}
	if qualityScale < 0 {
		return nil, fmt.Errorf("%w: quality scale %d is negative", ErrInvalidScale, qualityScale)
	}
	if math.IsNaN(angle) || math.IsInf(angle, 0) {
		return nil, fmt.Errorf("%w: angle %v", ErrInvalidScale, angle)
	}

	if qualityScale == 0 {
		return r.rotateBound(img, angle), nil
	}

	scaledUp, err := r.Resize(img, float64(qualityScale), r.config.Upscale)
	if err != nil {
		return nil, fmt.Errorf("upscale failed: %w", err)
	}
	rotated := r.rotateBound(scaledUp, angle)
	scaledDown, err := r.Resize(rotated, 1/float64(qualityScale), r.config.Downscale)
	if err != nil {
		return nil, fmt.Errorf("downscale failed: %w", err)
	}
	return scaledDown, nil
}

// rotateBound rotates clockwise; imaging rotates counter-clockwise.
func (r *Rotator) rotateBound(img image.Image, angle float64) *image.NRGBA {
	return imaging.Rotate(img, -angle, r.config.Background)
}

// Resize scales img by scaleFactor using the given interpolation
func (r *Rotator) Resize(img image.Image, scaleFactor float64, kind Interpolation) (*image.NRGBA, error) {
	return Resize(img, scaleFactor, kind)
}

// Resize scales img by scaleFactor. Output dimensions are round(w*s) x round(h*s).
func Resize(img image.Image, scaleFactor float64, kind Interpolation) (*image.NRGBA, error) {
	if err := validateImage(img); err != nil {
		return nil, err
	}
	if scaleFactor <= 0 || math.IsNaN(scaleFactor) || math.IsInf(scaleFactor, 0) {
		return nil, fmt.Errorf("%w: scale factor %v must be positive", ErrInvalidScale, scaleFactor)
	}

	b := img.Bounds()
	width := int(math.Round(float64(b.Dx()) * scaleFactor))
	height := int(math.Round(float64(b.Dy()) * scaleFactor))
	if width < 1 || height < 1 {
		return nil, fmt.Errorf("%w: scale factor %v reduces %dx%d to nothing",
			ErrInvalidScale, scaleFactor, b.Dx(), b.Dy())
	}

	return imaging.Resize(img, width, height, kind.filter()), nil
}

// CanvasSize returns the canvas Rotate produces for a w x h image at native
// resolution (qualityScale 0). The exact box |sin|h+|cos|w by |sin|w+|cos|h is
// widened to whole pixels the way imaging.Rotate does it: a fractional part
// above 0.1 adds a pixel, so the result can exceed the rounded box by one.
func CanvasSize(w, h int, angle float64) (int, int) {
	if w <= 0 || h <= 0 {
		return 0, 0
	}

	// imaging rotates counter-clockwise within [0, 360)
	a := -angle
	a = a - math.Floor(a/360)*360
	switch a {
	case 0, 180:
		return w, h
	case 90, 270:
		return h, w
	}

	sin, cos := math.Sincos(math.Pi * a / 180)
	fw, fh := float64(w-1), float64(h-1)
	xs := []float64{0, fw * cos, fw*cos - fh*sin, -fh * sin}
	ys := []float64{0, fw * sin, fw*sin + fh*cos, fh * cos}
	return widen(xs), widen(ys)
}

// ScaledCanvasSize returns the canvas Rotate produces with the given quality
// scale: the native canvas of the upscaled image, scaled back down.
func ScaledCanvasSize(w, h int, angle float64, qualityScale int) (int, int) {
	if qualityScale <= 0 {
		return CanvasSize(w, h, angle)
	}
	cw, ch := CanvasSize(w*qualityScale, h*qualityScale, angle)
	down := 1 / float64(qualityScale)
	return int(math.Round(float64(cw) * down)), int(math.Round(float64(ch) * down))
}

// widen spans the rotated pixel centres plus one pixel
func widen(v []float64) int {
	lo, hi := v[0], v[0]
	for _, x := range v[1:] {
		lo, hi = math.Min(lo, x), math.Max(hi, x)
	}
	n := hi - lo + 1
	if n-math.Floor(n) > 0.1 {
		n++
	}
	return int(n)
}

func validateImage(img image.Image) error {
	if img == nil {
		return fmt.Errorf("%w: image is nil", ErrInvalidImage)
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return fmt.Errorf("%w: dimensions %dx%d", ErrInvalidImage, b.Dx(), b.Dy())
	}
	return nil
}
