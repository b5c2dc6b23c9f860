package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/kkyr/fig"

	"github.com/menta2k/sprite-rotator/pkg/output"
	"github.com/menta2k/sprite-rotator/pkg/processing"
	"github.com/menta2k/sprite-rotator/pkg/rotator"
	"github.com/menta2k/sprite-rotator/pkg/types"
)

// EnvPrefix prefixes environment overrides, e.g. SPRITE_ROTATOR_ROTATION_QUALITY_SCALE
const EnvPrefix = "SPRITE_ROTATOR"

// DefaultFile is the configuration file looked up when no path is given
const DefaultFile = "sprite-rotator.yaml"

// Config holds the application configuration
type Config struct {
	Rotation RotationConfig `fig:"rotation" json:"rotation"`
	Variants VariantsConfig `fig:"variants" json:"variants"`
	Output   OutputConfig   `fig:"output" json:"output"`
	Log      LogConfig      `fig:"log" json:"log"`
}

// RotationConfig holds configuration for the rotator
type RotationConfig struct {
	QualityScale int    `fig:"quality_scale" json:"quality_scale"`
	Upscale      string `fig:"upscale" json:"upscale"`
	Downscale    string `fig:"downscale" json:"downscale"`
}

// VariantsConfig holds configuration for batch generation
type VariantsConfig struct {
	Mirror  bool   `fig:"mirror" json:"mirror"`
	Workers int    `fig:"workers" json:"workers"`
	OnError string `fig:"on_error" json:"on_error"`
}

// OutputConfig holds configuration for output generation
type OutputConfig struct {
	Dir          string `fig:"dir" json:"dir"`
	Format       string `fig:"format" json:"format"`
	Quality      int    `fig:"quality" json:"quality"`
	Lossless     bool   `fig:"lossless" json:"lossless"`
	Previews     bool   `fig:"previews" json:"previews"`
	PreviewScale int    `fig:"preview_scale" json:"preview_scale"`
	Manifest     bool   `fig:"manifest" json:"manifest"`
	GripFile     string `fig:"grip_file" json:"grip_file"`
	NameByLabel  bool   `fig:"name_by_label" json:"name_by_label"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Debug   bool `fig:"debug" json:"debug"`
	Console bool `fig:"console" json:"console"`
	NoColor bool `fig:"no_color" json:"no_color"`
}

// Default returns a configuration with default values
func Default() *Config {
	out := output.DefaultConfig()
	return &Config{
		Rotation: RotationConfig{
			QualityScale: rotator.DefaultQualityScale,
			Upscale:      rotator.Nearest.String(),
			Downscale:    rotator.Area.String(),
		},
		Variants: VariantsConfig{
			Mirror:  true,
			Workers: 0,
			OnError: types.AbortBatch.String(),
		},
		Output: OutputConfig{
			Dir:          out.Dir,
			Format:       out.Format,
			Quality:      out.Quality,
			PreviewScale: out.PreviewScale,
			GripFile:     out.GripFile,
		},
		Log: LogConfig{
			Console: true,
		},
	}
}

// Load reads configuration on top of the defaults. With an empty path the
// default file is searched for in the working directory, ./configs and the
// user config directory; a missing default file is not an error. Environment
// variables prefixed with SPRITE_ROTATOR_ override file values.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		err := fig.Load(cfg, fig.File(filepath.Base(path)), fig.Dirs(filepath.Dir(path)), fig.UseEnv(EnvPrefix))
		if err != nil {
			return nil, fmt.Errorf("failed to load config %s: %w", path, err)
		}
		return cfg, nil
	}

	err := fig.Load(cfg, fig.File(DefaultFile), fig.Dirs(searchDirs()...), fig.UseEnv(EnvPrefix))
	if errors.Is(err, fig.ErrFileNotFound) {
		cfg = Default()
		err = fig.Load(cfg, fig.IgnoreFile(), fig.UseEnv(EnvPrefix))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

func searchDirs() []string {
	dirs := []string{".", "configs"}
	if home, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs, filepath.Join(home, ".config", "sprite-rotator"))
	}
	return dirs
}

// SaveToFile saves configuration to a JSON file
func (c *Config) SaveToFile(filename string) error {
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Rotation.QualityScale < 0 {
		return fmt.Errorf("rotation.quality_scale must not be negative")
	}

	if _, err := rotator.ParseInterpolation(c.Rotation.Upscale); err != nil {
		return fmt.Errorf("rotation.upscale: %w", err)
	}

	if _, err := rotator.ParseInterpolation(c.Rotation.Downscale); err != nil {
		return fmt.Errorf("rotation.downscale: %w", err)
	}

	if _, err := types.ParseFailurePolicy(c.Variants.OnError); err != nil {
		return fmt.Errorf("variants.on_error: %w", err)
	}

	if !isSupportedFormat(c.Output.Format) {
		return fmt.Errorf("output.format %q is not supported", c.Output.Format)
	}

	if c.Output.Quality < 1 || c.Output.Quality > 100 {
		return fmt.Errorf("output.quality must be between 1 and 100")
	}

	if c.Output.PreviewScale < 1 {
		return fmt.Errorf("output.preview_scale must be at least 1")
	}

	if c.Output.Dir == "" {
		return fmt.Errorf("output.dir cannot be empty")
	}

	return nil
}

func isSupportedFormat(format string) bool {
	for _, f := range processing.SupportedFormats() {
		if f == format {
			return true
		}
	}
	return false
}

// RotatorConfig converts the rotation section for the rotator package
func (c *Config) RotatorConfig() (rotator.Config, error) {
	up, err := rotator.ParseInterpolation(c.Rotation.Upscale)
	if err != nil {
		return rotator.Config{}, err
	}
	down, err := rotator.ParseInterpolation(c.Rotation.Downscale)
	if err != nil {
		return rotator.Config{}, err
	}
	return rotator.Config{QualityScale: c.Rotation.QualityScale, Upscale: up, Downscale: down}, nil
}

// VariantOptions converts the variants section for a generation request
func (c *Config) VariantOptions() (types.VariantOptions, error) {
	policy, err := types.ParseFailurePolicy(c.Variants.OnError)
	if err != nil {
		return types.VariantOptions{}, err
	}
	return types.VariantOptions{
		IncludeMirror: c.Variants.Mirror,
		QualityScale:  c.Rotation.QualityScale,
		Workers:       c.Variants.Workers,
		OnError:       policy,
	}, nil
}

// OutputConfig converts the output section for the output writer
func (c *Config) OutputConfig() output.Config {
	return output.Config{
		Dir:          c.Output.Dir,
		Format:       c.Output.Format,
		Quality:      c.Output.Quality,
		Lossless:     c.Output.Lossless,
		Previews:     c.Output.Previews,
		PreviewScale: c.Output.PreviewScale,
		Manifest:     c.Output.Manifest,
		GripFile:     c.Output.GripFile,
		NameByLabel:  c.Output.NameByLabel,
	}
}
