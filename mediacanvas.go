// Package mediacanvas fits photos and videos to the aspect ratio, width
// and encoding rules of an upload surface.
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
//		mediacanvas "github.com/menta2k/media-canvas"
//	)
//
//	func main() {
//		cfg := mediacanvas.DefaultConfig()
//		cfg.Processing.Feed = "story"
//
//		mc, err := mediacanvas.New(cfg, nil, nil)
//		if err != nil {
//			log.Fatal(err)
//		}
//
//		job, err := mc.Job("photo.jpg")
//		if err != nil {
//			log.Fatal(err)
//		}
//
//		res, err := mc.Process(context.Background(), job)
//		if err != nil {
//			log.Fatal(err)
//		}
//		fmt.Printf("%s -> %s (%s)\n", res.Input, res.Output, res.Spec.Canvas)
//	}
//
// A job passes through these components:
//
// 1. Media probing (pkg/media): dimensions, orientation and stream facts
// 2. Policy resolution (pkg/constraints, pkg/policy): the legal ratio range
// 3. Decision (pkg/decision): whether the file needs work at all
// 4. Canvas calculation (pkg/canvas): the exact output size, even for video
// 5. Transform planning (pkg/transform): source and destination rectangles
// 6. Rendering (pkg/backend): imaging for photos, ffmpeg for videos
//
// Crop jobs can pick their focus with an offline saliency estimator or a
// vision model served by Ollama or llama.cpp (pkg/focus).
package mediacanvas

import (
	"context"
	"image/color"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/menta2k/media-canvas/internal/config"
	"github.com/menta2k/media-canvas/internal/logging"
	"github.com/menta2k/media-canvas/pkg/backend"
	"github.com/menta2k/media-canvas/pkg/canvas"
	"github.com/menta2k/media-canvas/pkg/client"
	"github.com/menta2k/media-canvas/pkg/ffmpeg"
	"github.com/menta2k/media-canvas/pkg/focus"
	"github.com/menta2k/media-canvas/pkg/llamacpp"
	"github.com/menta2k/media-canvas/pkg/media"
	"github.com/menta2k/media-canvas/pkg/ollama"
	"github.com/menta2k/media-canvas/pkg/processor"
)

// Version of the media canvas library
const Version = "1.0.0"

// Config is the complete runtime configuration
type Config = config.Config

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return config.Default()
}

// LoadConfig reads a JSON configuration file when it exists and applies
// MEDIACANVAS_* environment overrides.
func LoadConfig(path string) (*Config, error) {
	return config.Load(path)
}

// NewLogger builds the logger described by cfg.Log
func NewLogger(cfg *Config) *zap.Logger {
	return logging.New(cfg.Log)
}

// MediaCanvas is a configured processor with its ffmpeg binaries and
// rendering backends.
type MediaCanvas struct {
	config    *Config
	logger    *zap.Logger
	binaries  *ffmpeg.Cache
	processor *processor.Processor
}

// New wires the components described by cfg. A nil logger discards logs
// and a nil registerer keeps metrics unexported.
func New(cfg *Config, logger *zap.Logger, reg prometheus.Registerer) (*MediaCanvas, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	binaries := ffmpeg.NewCache(ffmpeg.NewResolver(cfg.Video.SearchPaths...))
	runner := ffmpeg.NewExecRunner(logger.Named("ffmpeg"), cfg.Timeout())

	photo := backend.NewPhoto(logger.Named("photo"))
	photo.Format = cfg.Photo.Format
	photo.Quality = cfg.Photo.Quality
	photo.BlurSigma = cfg.Photo.BlurSigma
	photo.TempDir = cfg.Processing.TempDir

	video := backend.NewVideo(binaries, runner, logger.Named("video"))
	video.Preset = cfg.Video.Preset
	video.CRF = cfg.Video.CRF
	video.AudioBitrate = cfg.Video.AudioBitrate
	video.TempDir = cfg.Processing.TempDir

	thumbnail := backend.NewThumbnail(binaries, runner, logger.Named("thumbnail"))
	thumbnail.TempDir = cfg.Processing.TempDir

	estimator, err := NewEstimator(cfg.Focus, logger.Named("focus"))
	if err != nil {
		return nil, err
	}

	proc := &processor.Processor{
		Photo:        photo,
		Video:        video,
		Thumbnail:    thumbnail,
		Prober:       media.NewProber(binaries, runner),
		Frames:       focus.NewFrames(binaries, runner),
		Estimator:    estimator,
		DefaultFocus: cfg.CropFocus(),
		OutputDir:    cfg.Processing.OutputDir,
		Suffix:       cfg.Processing.Suffix,
		Concurrency:  cfg.Processing.Concurrency,
		Metrics:      processor.NewMetrics(reg),
		Logger:       logger,
	}
	// A fixed focus needs no frame, the processor uses DefaultFocus.
	if _, ok := estimator.(focus.Fixed); ok {
		proc.Estimator = nil
	}

	return &MediaCanvas{config: cfg, logger: logger, binaries: binaries, processor: proc}, nil
}

// NewEstimator builds the focus estimator selected by cfg.Mode. Model
// estimators fall back to the fixed focus when the model is unavailable.
func NewEstimator(cfg config.FocusConfig, logger *zap.Logger) (focus.Estimator, error) {
	fixed := focus.Fixed{Focus: cfg.CropFocus()}

	switch cfg.Mode {
	case "", "fixed":
		return fixed, nil
	case "saliency":
		return focus.NewSaliency(), nil
	case "model":
		vc, err := newVisionClient(cfg)
		if err != nil {
			return nil, err
		}
		model := focus.NewModel(vc, cfg.Model, logger)
		model.Timeout = cfg.Timeout()
		return focus.Fallback{Primary: model, Secondary: fixed, Logger: logger}, nil
	}
	return nil, errors.Errorf("unknown focus mode %q", cfg.Mode)
}

func newVisionClient(cfg config.FocusConfig) (client.VisionClient, error) {
	switch cfg.Provider {
	case "ollama":
		return ollama.NewClient(cfg.Endpoint)
	case "llamacpp":
		return llamacpp.NewClient(cfg.Endpoint)
	}
	return nil, errors.Errorf("unknown vision provider %q", cfg.Provider)
}

// Job returns a job for input carrying the configured request defaults
func (mc *MediaCanvas) Job(input string) (processor.Job, error) {
	op, err := canvas.ParseOperation(mc.config.Processing.Operation)
	if err != nil {
		return processor.Job{}, err
	}
	bg := mc.config.Processing.Background
	return processor.Job{
		Input:         input,
		Operation:     op,
		Feed:          mc.config.Processing.Feed,
		Background:    color.NRGBA{R: bg[0], G: bg[1], B: bg[2], A: 255},
		BlurredBorder: mc.config.Processing.BlurredBorder,
		Debug:         mc.config.Photo.DebugBoxes,
	}, nil
}

// Process runs a single job
func (mc *MediaCanvas) Process(ctx context.Context, job processor.Job) (processor.Result, error) {
	return mc.processor.Process(ctx, job)
}

// ProcessAll runs jobs concurrently, see processor.Processor.ProcessAll
func (mc *MediaCanvas) ProcessAll(ctx context.Context, jobs []processor.Job) ([]processor.Result, error) {
	return mc.processor.ProcessAll(ctx, jobs)
}

// CheckBinaries resolves ffmpeg and ffprobe up front
func (mc *MediaCanvas) CheckBinaries() error {
	for _, name := range []string{ffmpeg.FFmpeg, ffmpeg.FFprobe} {
		if _, err := mc.binaries.Get(name); err != nil {
			return err
		}
	}
	return nil
}

// CheckModel verifies the vision model answers when focus mode is model.
// Other modes need no model and always pass.
func (mc *MediaCanvas) CheckModel(ctx context.Context) error {
	fb, ok := mc.processor.Estimator.(focus.Fallback)
	if !ok {
		return nil
	}
	m, ok := fb.Primary.(*focus.Model)
	if !ok {
		return nil
	}
	return m.Ping(ctx)
}

// Processor exposes the underlying processor
func (mc *MediaCanvas) Processor() *processor.Processor {
	return mc.processor
}

// Config returns the configuration in use
func (mc *MediaCanvas) Config() *Config {
	return mc.config
}

// GetVersion returns the library version
func GetVersion() string {
	return Version
}
