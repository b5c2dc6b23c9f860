package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/pflag"
	_ "go.uber.org/automaxprocs"

	"github.com/menta2k/sprite-rotator/internal/config"
	"github.com/menta2k/sprite-rotator/internal/logger"
	"github.com/menta2k/sprite-rotator/internal/utils"
	"github.com/menta2k/sprite-rotator/internal/watch"
	"github.com/menta2k/sprite-rotator/pkg/analyzer"
	"github.com/menta2k/sprite-rotator/pkg/output"
	"github.com/menta2k/sprite-rotator/pkg/processing"
	"github.com/menta2k/sprite-rotator/pkg/rotator"
	"github.com/menta2k/sprite-rotator/pkg/types"
	"github.com/menta2k/sprite-rotator/pkg/variants"
)

type options struct {
	in         string
	anchor     string
	conf       string
	watch      bool
	dumpConfig string
}

func main() {
	var opts options
	fs := pflag.NewFlagSet(filepath.Base(os.Args[0]), pflag.ExitOnError)
	fs.StringVarP(&opts.in, "in", "i", "", "input sprite path or URL (png/jpg/webp/tga)")
	fs.StringVarP(&opts.anchor, "anchor", "a", "", "grip anchor in source pixels as x,y")
	fs.StringVarP(&opts.conf, "conf", "c", "", "config file (defaults to ./sprite-rotator.yaml if present)")
	fs.BoolVarP(&opts.watch, "watch", "w", false, "regenerate when the input file changes")
	fs.StringVar(&opts.dumpConfig, "dump-config", "", "write the effective config as JSON to this path and exit")

	fs.StringP("out", "o", "", "output directory")
	fs.Int("quality-scale", 0, "supersampling factor, 0 rotates at native resolution")
	fs.Bool("no-mirror", false, "skip the mirrored half of the batch")
	fs.Int("workers", 0, "parallel rotations, 0 uses one per CPU")
	fs.String("ext", "", "output format: png|jpg|webp")
	fs.Bool("lossless", false, "WebP lossless mode")
	fs.Bool("previews", false, "also write frames with the grip marked")
	fs.Int("preview-scale", 0, "nearest-neighbour enlargement of preview frames")
	fs.Bool("manifest", false, "write manifest.json next to the frames")
	fs.String("on-error", "", "failure policy for a single variant: abort|skip")
	fs.Bool("debug", false, "debug logging")
	_ = fs.Parse(os.Args[1:])

	cfg, err := config.Load(opts.conf)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	if err := applyFlags(cfg, fs); err != nil {
		fmt.Fprintf(os.Stderr, "flags: %v\n", err)
		os.Exit(2)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	if opts.dumpConfig != "" {
		if err := cfg.SaveToFile(opts.dumpConfig); err != nil {
			fmt.Fprintf(os.Stderr, "dump config: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if opts.in == "" || opts.anchor == "" {
		fmt.Fprintf(os.Stderr, "usage: %s --in sprite.png --anchor x,y [--out dir] [--conf file] [--watch]\n", fs.Name())
		fs.PrintDefaults()
		os.Exit(2)
	}

	anchor, err := parseAnchor(opts.anchor)
	if err != nil {
		fmt.Fprintf(os.Stderr, "anchor: %v\n", err)
		os.Exit(2)
	}

	remote := strings.HasPrefix(opts.in, "http://") || strings.HasPrefix(opts.in, "https://")
	if remote && opts.watch {
		fmt.Fprintln(os.Stderr, "--watch needs a local input file")
		os.Exit(2)
	}
	if !remote && (!utils.FileExists(opts.in) || !utils.IsImageFile(opts.in)) {
		fmt.Fprintf(os.Stderr, "input %s is not an image file\n", opts.in)
		os.Exit(2)
	}

	log := newLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner, err := newJob(cfg, opts.in, anchor, log)
	if err != nil {
		log.Fatal().Err(err).Msg("init")
	}

	if err := runner.run(ctx); err != nil {
		if !opts.watch {
			log.Fatal().Err(err).Msg("generation failed")
		}
		log.Error().Err(err).Msg("generation failed")
	}

	if opts.watch {
		if err := watch.Run(ctx, opts.in, watch.DefaultDebounce, func() error { return runner.run(ctx) }, log); err != nil {
			log.Fatal().Err(err).Msg("watch")
		}
	}
}

func newLogger(cfg *config.Config) *logger.Logger {
	if cfg.Log.Console {
		return logger.NewConsole(cfg.Log.Debug, "rotator", cfg.Log.NoColor)
	}
	return logger.New(cfg.Log.Debug)
}

// applyFlags overrides config values with the flags set on the command line
func applyFlags(cfg *config.Config, fs *pflag.FlagSet) error {
	var err error
	if fs.Changed("out") {
		cfg.Output.Dir, err = fs.GetString("out")
	}
	if err == nil && fs.Changed("quality-scale") {
		cfg.Rotation.QualityScale, err = fs.GetInt("quality-scale")
	}
	if err == nil && fs.Changed("no-mirror") {
		var noMirror bool
		noMirror, err = fs.GetBool("no-mirror")
		cfg.Variants.Mirror = !noMirror
	}
	if err == nil && fs.Changed("workers") {
		cfg.Variants.Workers, err = fs.GetInt("workers")
	}
	if err == nil && fs.Changed("ext") {
		cfg.Output.Format, err = fs.GetString("ext")
		cfg.Output.Format = strings.ToLower(cfg.Output.Format)
	}
	if err == nil && fs.Changed("lossless") {
		cfg.Output.Lossless, err = fs.GetBool("lossless")
	}
	if err == nil && fs.Changed("previews") {
		cfg.Output.Previews, err = fs.GetBool("previews")
	}
	if err == nil && fs.Changed("preview-scale") {
		cfg.Output.PreviewScale, err = fs.GetInt("preview-scale")
	}
	if err == nil && fs.Changed("manifest") {
		cfg.Output.Manifest, err = fs.GetBool("manifest")
	}
	if err == nil && fs.Changed("on-error") {
		cfg.Variants.OnError, err = fs.GetString("on-error")
	}
	if err == nil && fs.Changed("debug") {
		cfg.Log.Debug, err = fs.GetBool("debug")
	}
	return err
}

// parseAnchor reads "x,y" in source pixel coordinates
func parseAnchor(s string) (types.SourcePoint, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return types.SourcePoint{}, fmt.Errorf("expected x,y, got %q", s)
	}
	x, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return types.SourcePoint{}, fmt.Errorf("bad x in %q: %w", s, err)
	}
	y, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return types.SourcePoint{}, fmt.Errorf("bad y in %q: %w", s, err)
	}
	return types.SourcePoint{X: x, Y: y}, nil
}

// job is one load, generate and write cycle
type job struct {
	source    string
	anchor    types.SourcePoint
	opts      types.VariantOptions
	processor *processing.Processor
	analyzer  *analyzer.SpriteAnalyzer
	generator *variants.Generator
	writer    *output.Writer
	log       *logger.Logger
}

func newJob(cfg *config.Config, source string, anchor types.SourcePoint, log *logger.Logger) (*job, error) {
	rc, err := cfg.RotatorConfig()
	if err != nil {
		return nil, err
	}
	opts, err := cfg.VariantOptions()
	if err != nil {
		return nil, err
	}
	return &job{
		source:    source,
		anchor:    anchor,
		opts:      opts,
		processor: processing.NewProcessor(),
		analyzer:  analyzer.New(),
		generator: variants.NewWithRotator(rotator.NewWithConfig(rc), log.Extend(log.With().Str("c", "variants"))),
		writer:    output.NewWriter(cfg.OutputConfig(), log.Extend(log.With().Str("c", "output"))),
		log:       log,
	}, nil
}

func (j *job) run(ctx context.Context) error {
	img, err := j.processor.LoadImageSmart(j.source)
	if err != nil {
		return err
	}
	if err := j.analyzer.ValidateImage(img); err != nil {
		return fmt.Errorf("%s: %w", j.source, err)
	}
	info := j.analyzer.GetImageInfo(img)
	if !info.AnchorOnSprite(j.anchor) {
		j.log.Warn().Str("anchor", j.anchor.String()).Str("opaque", info.Opaque.String()).Msg("anchor is off the visible sprite")
	}
	j.log.Info().Str("in", j.source).Int("w", info.Width).Int("h", info.Height).
		Str("anchor", j.anchor.String()).Int("scale", j.opts.QualityScale).Msg("generating variants")

	req := types.Request{Image: img, Anchor: j.anchor, Options: j.opts}
	vs, err := j.generator.Generate(ctx, req)
	if err != nil {
		return err
	}
	_, err = j.writer.Write(req, vs)
	return err
}
