package types

import (
	"fmt"
	"image"
)

// SourcePoint is a pixel coordinate in the space of the unrotated source image
type SourcePoint struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func (p SourcePoint) String() string {
	return fmt.Sprintf("(%d, %d)", p.X, p.Y)
}

// CanvasPoint is a pixel coordinate in the space of a rotated, canvas-expanded image
type CanvasPoint struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// String formats the point the way the grip log stores it
func (p CanvasPoint) String() string {
	return fmt.Sprintf("(%d, %d)", p.X, p.Y)
}

// FailurePolicy decides what a batch does when one variant fails
type FailurePolicy int

const (
	// AbortBatch stops the whole batch on the first failing variant
	AbortBatch FailurePolicy = iota
	// SkipVariant drops the failing variant (and its mirror) and continues
	SkipVariant
)

func (p FailurePolicy) String() string {
	switch p {
	case SkipVariant:
		return "skip"
	default:
		return "abort"
	}
}

// ParseFailurePolicy maps a config value to a FailurePolicy
func ParseFailurePolicy(s string) (FailurePolicy, error) {
	switch s {
	case "", "abort":
		return AbortBatch, nil
	case "skip":
		return SkipVariant, nil
	default:
		return AbortBatch, fmt.Errorf("unknown failure policy %q (use abort or skip)", s)
	}
}

// VariantOptions controls a single batch generation
type VariantOptions struct {
	IncludeMirror bool
	QualityScale  int
	Workers       int
	OnError       FailurePolicy
}

// Request carries everything one generation run needs
type Request struct {
	Image   image.Image
	Anchor  SourcePoint
	Options VariantOptions
}

// Variant is one rotated (and possibly mirrored) frame of the sprite
type Variant struct {
	Index    int
	Angle    float64
	Mirrored bool
	Label    string
	Image    *image.NRGBA
	Preview  *image.NRGBA
	Grip     CanvasPoint
}

// GripRecord pairs a variant index with its grip coordinate
type GripRecord struct {
	Index int         `json:"index"`
	Grip  CanvasPoint `json:"grip"`
}
