package output

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"
	"github.com/gofrs/uuid"

	"github.com/menta2k/sprite-rotator/internal/logger"
	"github.com/menta2k/sprite-rotator/internal/utils"
	"github.com/menta2k/sprite-rotator/pkg/processing"
	"github.com/menta2k/sprite-rotator/pkg/rotator"
	"github.com/menta2k/sprite-rotator/pkg/types"
)

const lockName = ".sprite-rotator.lock"

// ErrOutputLocked is returned when another run holds the output directory
var ErrOutputLocked = errors.New("output directory is locked by another run")

// Config holds configuration for persisting variants
type Config struct {
	Dir          string
	Format       string
	Quality      int
	Lossless     bool
	Previews     bool
	PreviewScale int
	Manifest     bool
	GripFile     string
	// NameByLabel names frames by their full label instead of the bare index
	NameByLabel bool
}

// DefaultConfig returns the output layout of a standard run
func DefaultConfig() Config {
	return Config{
		Dir:          "output",
		Format:       "png",
		Quality:      90,
		PreviewScale: 1,
		GripFile:     "grip_list.txt",
	}
}

// Writer stores variants on disk
type Writer struct {
	config    Config
	processor *processing.Processor
	log       *logger.Logger
}

// NewWriter creates a Writer
func NewWriter(config Config, log *logger.Logger) *Writer {
	if log == nil {
		log = logger.Nop()
	}
	if config.PreviewScale < 1 {
		config.PreviewScale = 1
	}
	return &Writer{config: config, processor: processing.NewProcessor(), log: log}
}

// ManifestEntry describes one written frame
type ManifestEntry struct {
	Index    int               `json:"index"`
	Label    string            `json:"label"`
	Angle    float64           `json:"angle"`
	Mirrored bool              `json:"mirrored"`
	Grip     types.CanvasPoint `json:"grip"`
	Width    int               `json:"width"`
	Height   int               `json:"height"`
	File     string            `json:"file"`
	Preview  string            `json:"preview,omitempty"`
}

// Manifest is the summary written next to the frames
type Manifest struct {
	// Run identifies the Write call that produced the frames
	Run    string            `json:"run"`
	Anchor types.SourcePoint `json:"anchor"`
	Source struct {
		Width  int `json:"width"`
		Height int `json:"height"`
	} `json:"source"`
	Frames []ManifestEntry `json:"frames"`
}

// Write stores every variant image, the grip log and, if enabled, previews
// and a manifest. The grip log lists grips in the order of variants.
func (w *Writer) Write(req types.Request, variants []types.Variant) (*Manifest, error) {
	if err := utils.EnsureDir(w.config.Dir); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	lock := flock.New(filepath.Join(w.config.Dir, lockName))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("failed to lock output directory: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("%w: %s", ErrOutputLocked, w.config.Dir)
	}
	defer lock.Unlock()

	ext := strings.ToLower(w.config.Format)
	manifest := &Manifest{Run: uuid.Must(uuid.NewV4()).String(), Anchor: req.Anchor}
	if req.Image != nil {
		manifest.Source.Width = req.Image.Bounds().Dx()
		manifest.Source.Height = req.Image.Bounds().Dy()
	}

	for _, v := range variants {
		entry := ManifestEntry{
			Index:    v.Index,
			Label:    v.Label,
			Angle:    v.Angle,
			Mirrored: v.Mirrored,
			Grip:     v.Grip,
			Width:    v.Image.Bounds().Dx(),
			Height:   v.Image.Bounds().Dy(),
			File:     w.frameName(v, "", ext),
		}

		if err := w.save(v.Image, entry.File, ext); err != nil {
			return nil, fmt.Errorf("save %s: %w", entry.File, err)
		}

		if w.config.Previews && v.Preview != nil {
			entry.Preview = w.frameName(v, "_preview", ext)
			preview := v.Preview
			if w.config.PreviewScale > 1 {
				preview, err = rotator.Resize(v.Preview, float64(w.config.PreviewScale), rotator.Nearest)
				if err != nil {
					return nil, fmt.Errorf("scale preview %s: %w", entry.Preview, err)
				}
			}
			if err := w.save(preview, entry.Preview, ext); err != nil {
				return nil, fmt.Errorf("save %s: %w", entry.Preview, err)
			}
		}

		w.log.Debug().Str("file", entry.File).Str("label", v.Label).Msg("wrote frame")
		manifest.Frames = append(manifest.Frames, entry)
	}

	if w.config.GripFile != "" {
		if err := w.writeGrips(variants); err != nil {
			return nil, err
		}
	}

	if w.config.Manifest {
		if err := w.writeManifest(manifest); err != nil {
			return nil, err
		}
	}

	w.log.Info().Str("run", manifest.Run).Int("frames", len(variants)).Str("dir", w.config.Dir).Msg("variants written")
	return manifest, nil
}

func (w *Writer) frameName(v types.Variant, suffix, ext string) string {
	name := fmt.Sprintf("%02d", v.Index)
	if w.config.NameByLabel {
		name = utils.SanitizeFilename(v.Label)
	}
	return name + suffix + "." + ext
}

func (w *Writer) save(img image.Image, name, ext string) error {
	return w.processor.SaveImage(img, filepath.Join(w.config.Dir, name), ext, w.config.Quality, w.config.Lossless)
}

// writeGrips writes one "(x, y)" line per variant.
func (w *Writer) writeGrips(variants []types.Variant) error {
	path := filepath.Join(w.config.Dir, w.config.GripFile)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create grip file: %w", err)
	}
	defer f.Close()

	bw := bufio.NewWriter(f)
	for _, v := range variants {
		if _, err := fmt.Fprintln(bw, v.Grip.String()); err != nil {
			return fmt.Errorf("failed to write grip file: %w", err)
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("failed to write grip file: %w", err)
	}
	return f.Close()
}

func (w *Writer) writeManifest(m *Manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}
	if err := os.WriteFile(filepath.Join(w.config.Dir, "manifest.json"), data, 0o644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}

// ReadGrips parses a grip log written by Write
func ReadGrips(path string) ([]types.CanvasPoint, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var grips []types.CanvasPoint
	sc := bufio.NewScanner(f)
	for line := 1; sc.Scan(); line++ {
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		var p types.CanvasPoint
		if _, err := fmt.Sscanf(text, "(%d, %d)", &p.X, &p.Y); err != nil {
			return nil, fmt.Errorf("%s:%d: %w", path, line, err)
		}
		grips = append(grips, p)
	}
	return grips, sc.Err()
}
