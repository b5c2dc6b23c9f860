// Package grip tracks an anchor pixel through the rotations of the angle ladder.
//
// The grip of a rotated variant is computed in closed form instead of being
// read back from rendered pixels. Each angle falls into one of four 90 degree
// bands. Within a band the rotated canvas is bounded on the left and top by two
// fixed corners of the source rectangle, so the anchor's new x is its projected
// distance from the left-bounding corner and its new y the projected distance
// from the top-bounding corner. The legs of those two right triangles depend on
// the band and are kept in a lookup table.
//
// The formula has been checked against rendered output at the ladder angles
// only; callers should not rely on continuity across band boundaries.
package grip

import (
	"errors"
	"fmt"
	"image"
	"math"

	"github.com/menta2k/sprite-rotator/pkg/types"
)

var (
	// ErrInvalidImage is returned for non-positive source dimensions
	ErrInvalidImage = errors.New("invalid image dimensions")
	// ErrInvalidAnchor is returned when the anchor lies outside the source image
	ErrInvalidAnchor = errors.New("anchor outside source image")
	// ErrGripOutOfBounds is returned when a grip falls outside its rotated canvas
	ErrGripOutOfBounds = errors.New("grip out of bounds")
)

// legs are the construction lengths for one band: (ax, bx) locate the anchor
// relative to the corner touching the left canvas edge, (ay, by) relative to
// the corner touching the top edge.
type legs struct {
	ax, bx float64
	ay, by float64
}

type band struct {
	start float64
	legs  func(x, y, w, h float64) legs
}

var bands = [4]band{
	{0, func(x, y, w, h float64) legs { return legs{x, h - y, x, y} }},
	{90, func(x, y, w, h float64) legs { return legs{h - y, w - x, h - y, x} }},
	{180, func(x, y, w, h float64) legs { return legs{w - x, y, w - x, h - y} }},
	{270, func(x, y, w, h float64) legs { return legs{y, x, y, w - x} }},
}

// bandFor maps a normalised angle to its band. Band upper bounds are inclusive
// so 90, 180 and 270 are evaluated as the end of the preceding band.
func bandFor(angle float64) int {
	switch {
	case angle <= 90:
		return 0
	case angle <= 180:
		return 1
	case angle <= 270:
		return 2
	default:
		return 3
	}
}

func normalizeAngle(angle float64) float64 {
	angle = math.Mod(angle, 360)
	if angle < 0 {
		angle += 360
	}
	return angle
}

// Track returns where anchor lands after a width x height image is rotated
// clockwise by angle degrees onto an expanded canvas.
func Track(width, height int, anchor types.SourcePoint, angle float64) (types.CanvasPoint, error) {
	if width <= 0 || height <= 0 {
		return types.CanvasPoint{}, fmt.Errorf("%w: %dx%d", ErrInvalidImage, width, height)
	}
	if anchor.X < 0 || anchor.Y < 0 || anchor.X > width || anchor.Y > height {
		return types.CanvasPoint{}, fmt.Errorf("%w: (%d, %d) not within %dx%d",
			ErrInvalidAnchor, anchor.X, anchor.Y, width, height)
	}

	angle = normalizeAngle(angle)
	b := bands[bandFor(angle)]
	l := b.legs(float64(anchor.X), float64(anchor.Y), float64(width), float64(height))
	beta := (angle - b.start) * math.Pi / 180

	cx := math.Hypot(l.ax, l.bx)
	alpha := math.Asin(1)
	if cx != 0 {
		alpha = math.Asin(l.ax / cx)
	}

	cy := math.Hypot(l.ay, l.by)
	omega := math.Acos(0)
	if cy != 0 {
		omega = math.Acos(l.ay / cy)
	}

	return types.CanvasPoint{
		X: roundHalfUp(math.Sin(alpha+beta) * cx),
		Y: roundHalfUp(math.Sin(omega+beta) * cy),
	}, nil
}

func roundHalfUp(v float64) int {
	return int(math.Floor(v + 0.5))
}

// CheckBounds reports ErrGripOutOfBounds unless the grip lies on the canvas.
// The far edges are inclusive because grips are lattice points, not pixels.
func CheckBounds(grip types.CanvasPoint, bounds image.Rectangle) error {
	w, h := bounds.Dx(), bounds.Dy()
	if grip.X < 0 || grip.Y < 0 || grip.X > w || grip.Y > h {
		return fmt.Errorf("%w: %v outside %dx%d canvas", ErrGripOutOfBounds, grip, w, h)
	}
	return nil
}
