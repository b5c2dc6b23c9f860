package grip

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"

	"github.com/menta2k/sprite-rotator/pkg/types"
)

var (
	markerColor = color.NRGBA{0, 0, 0, 255}
	// centre of the marker, left see-through so the grip pixel stays findable
	markerCenter = color.NRGBA{255, 255, 255, 0}
)

// Mirror flips img horizontally into a new buffer and reflects the grip with it
func Mirror(img image.Image, grip types.CanvasPoint) (*image.NRGBA, types.CanvasPoint) {
	mirrored := imaging.FlipH(img)
	return mirrored, types.CanvasPoint{
		X: mirrored.Bounds().Dx() - grip.X,
		Y: grip.Y,
	}
}

// Mark returns a copy of img with a 3x3 black block centred on the grip.
// The centre pixel is set to transparent white. Marker pixels that fall
// outside the canvas are dropped.
func Mark(img image.Image, grip types.CanvasPoint) *image.NRGBA {
	marked := imaging.Clone(img)
	b := marked.Bounds()

	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			p := image.Pt(grip.X+dx, grip.Y+dy)
			if !p.In(b) {
				continue
			}
			marked.SetNRGBA(p.X, p.Y, markerColor)
		}
	}

	if c := image.Pt(grip.X, grip.Y); c.In(b) {
		marked.SetNRGBA(c.X, c.Y, markerCenter)
	}

	return marked
}
