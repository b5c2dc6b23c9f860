package variants

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"

	"github.com/menta2k/sprite-rotator/internal/logger"
	"github.com/menta2k/sprite-rotator/pkg/grip"
	"github.com/menta2k/sprite-rotator/pkg/rotator"
	"github.com/menta2k/sprite-rotator/pkg/types"
)

// Generator produces the rotated and mirrored frames of a sprite
type Generator struct {
	rotator *rotator.Rotator
	log     *logger.Logger
}

// New creates a Generator with the default rotator and a silent logger
func New() *Generator {
	return &Generator{rotator: rotator.New(), log: logger.Nop()}
}

// NewWithRotator creates a Generator around a configured rotator
func NewWithRotator(r *rotator.Rotator, log *logger.Logger) *Generator {
	if log == nil {
		log = logger.Nop()
	}
	return &Generator{rotator: r, log: log}
}

// DefaultOptions returns the options of a standard run: mirrors on,
// default quality scale, one worker per CPU, abort on failure.
func (g *Generator) DefaultOptions() types.VariantOptions {
	return types.VariantOptions{
		IncludeMirror: true,
		QualityScale:  g.rotator.QualityScale(),
		OnError:       types.AbortBatch,
	}
}

type job struct {
	index int
	angle float64
}

type outcome struct {
	variant types.Variant
	err     error
}

// Generate builds one variant per ladder angle and, if requested, one mirrored
// variant for each of those. Variants come back in ladder order followed by
// mirror order, independent of the number of workers.
func (g *Generator) Generate(ctx context.Context, req types.Request) ([]types.Variant, error) {
	if req.Image == nil {
		return nil, fmt.Errorf("%w: image is nil", rotator.ErrInvalidImage)
	}
	b := req.Image.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, fmt.Errorf("%w: dimensions %dx%d", rotator.ErrInvalidImage, b.Dx(), b.Dy())
	}
	if req.Options.QualityScale < 0 {
		return nil, fmt.Errorf("%w: quality scale %d is negative", rotator.ErrInvalidScale, req.Options.QualityScale)
	}
	// Validate the anchor once up front rather than failing 40 times.
	if _, err := grip.Track(b.Dx(), b.Dy(), req.Anchor, 0); err != nil {
		return nil, err
	}

	ladder := grip.AngleLadder()
	results := make([]outcome, len(ladder))

	workers := req.Options.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > len(ladder) {
		workers = len(ladder)
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	jobs := make(chan job)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				v, err := g.rotateOne(req, j.index, j.angle)
				results[j.index] = outcome{variant: v, err: err}
				if err != nil && req.Options.OnError == types.AbortBatch {
					cancel()
				}
			}
		}()
	}

send:
	for i, angle := range ladder {
		select {
		case <-runCtx.Done():
			break send
		case jobs <- job{index: i, angle: angle}:
		}
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("variant generation cancelled: %w", err)
	}

	// Jobs are dispatched in ladder order, so under AbortBatch the first
	// error found here precedes every job that was never sent.
	variants := make([]types.Variant, 0, 2*len(ladder))
	for i, res := range results {
		if res.err != nil {
			if req.Options.OnError == types.AbortBatch {
				return nil, res.err
			}
			g.log.Warn().Err(res.err).Int("index", i).Float64("angle", ladder[i]).Msg("skipping variant")
			continue
		}
		variants = append(variants, res.variant)
	}

	if req.Options.IncludeMirror {
		base := len(variants)
		for _, v := range variants[:base] {
			variants = append(variants, mirrorOf(v, len(ladder)))
		}
	}

	g.log.Debug().Int("variants", len(variants)).Bool("mirror", req.Options.IncludeMirror).Msg("generated variants")
	return variants, nil
}

func (g *Generator) rotateOne(req types.Request, index int, angle float64) (types.Variant, error) {
	b := req.Image.Bounds()
	gp, err := grip.Track(b.Dx(), b.Dy(), req.Anchor, angle)
	if err != nil {
		return types.Variant{}, fmt.Errorf("variant %02d (%v°): %w", index, angle, err)
	}

	rotated, err := g.rotator.Rotate(req.Image, angle, req.Options.QualityScale)
	if err != nil {
		return types.Variant{}, fmt.Errorf("variant %02d (%v°): %w", index, angle, err)
	}

	if err := grip.CheckBounds(gp, rotated.Bounds()); err != nil {
		return types.Variant{}, fmt.Errorf("variant %02d (%v°): %w", index, angle, err)
	}

	g.log.Debug().
		Int("index", index).
		Float64("angle", angle).
		Int("grip_x", gp.X).
		Int("grip_y", gp.Y).
		Int("width", rotated.Bounds().Dx()).
		Int("height", rotated.Bounds().Dy()).
		Msg("rotated")

	return types.Variant{
		Index:   index,
		Angle:   angle,
		Label:   grip.Label(index, angle, false),
		Image:   rotated,
		Preview: grip.Mark(rotated, gp),
		Grip:    gp,
	}, nil
}

// mirrorOf derives the mirrored variant of v. Mirrored indices follow the
// full ladder so a skipped base variant leaves a gap in both halves.
func mirrorOf(v types.Variant, offset int) types.Variant {
	img, gp := grip.Mirror(v.Image, v.Grip)
	index := v.Index + offset
	return types.Variant{
		Index:    index,
		Angle:    v.Angle,
		Mirrored: true,
		Label:    grip.Label(index, v.Angle, true),
		Image:    img,
		Preview:  grip.Mark(img, gp),
		Grip:     gp,
	}
}

// Grips lists the grip coordinates of variants in their output order
func Grips(variants []types.Variant) []types.GripRecord {
	records := make([]types.GripRecord, len(variants))
	for i, v := range variants {
		records[i] = types.GripRecord{Index: v.Index, Grip: v.Grip}
	}
	return records
}

// IsValidationError reports whether err came from rejected input rather than
// from the batch itself.
func IsValidationError(err error) bool {
	return errors.Is(err, rotator.ErrInvalidImage) ||
		errors.Is(err, rotator.ErrInvalidScale) ||
		errors.Is(err, grip.ErrInvalidImage) ||
		errors.Is(err, grip.ErrInvalidAnchor)
}
