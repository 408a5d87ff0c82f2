package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	mediacanvas "github.com/menta2k/media-canvas"
	"github.com/menta2k/media-canvas/internal/config"
	"github.com/menta2k/media-canvas/internal/fileutil"
	"github.com/menta2k/media-canvas/pkg/canvas"
	"github.com/menta2k/media-canvas/pkg/processor"
	"github.com/menta2k/media-canvas/pkg/transform"
)

func main() {
	var in, outDir, configPath, op, feed, recommended, bg, focusMode, metricsFile, saveConfig string
	var minRatio, maxRatio, forceRatio float64
	var hFocus, vFocus, concurrency int
	var allowDeviation, blurred, thumbnail, debug, version bool
	var thumbnailAt time.Duration

	flag.StringVar(&in, "in", "", "input photo, video or directory")
	flag.StringVar(&outDir, "out", "", "output directory (default from config)")
	flag.StringVar(&configPath, "config", config.GetConfigPath(), "configuration file")
	flag.StringVar(&op, "op", "", "operation: crop|expand (default from config)")
	flag.StringVar(&feed, "feed", "", "upload surface: timeline|album|direct|story|direct_story|igtv")

	flag.Float64Var(&minRatio, "min", 0, "minimum aspect ratio, 0 keeps the feed bound")
	flag.Float64Var(&maxRatio, "max", 0, "maximum aspect ratio, 0 keeps the feed bound")
	flag.Float64Var(&forceRatio, "force", 0, "force an exact aspect ratio")
	flag.StringVar(&recommended, "recommended", "", "use the recommended feed ratio: true|false (default per feed)")
	flag.BoolVar(&allowDeviation, "allow-deviation", false, "accept a canvas slightly outside the ratio range")

	flag.IntVar(&hFocus, "hfocus", 0, "horizontal crop focus -50..50")
	flag.IntVar(&vFocus, "vfocus", 0, "vertical crop focus -50..50")
	flag.StringVar(&focusMode, "focus", "", "focus estimation: fixed|saliency|model (default from config)")

	flag.StringVar(&bg, "bg", "", "expand background color R,G,B")
	flag.BoolVar(&blurred, "blur", false, "fill expand borders with a blurred copy")
	flag.BoolVar(&thumbnail, "thumbnail", false, "render a JPEG thumbnail of videos")
	flag.DurationVar(&thumbnailAt, "thumbnail-at", 0, "thumbnail timestamp (default per feed)")
	flag.BoolVar(&debug, "debug", false, "write debug overlays for photos")

	flag.IntVar(&concurrency, "j", 0, "parallel jobs (default from config)")
	flag.StringVar(&metricsFile, "metrics-file", "", "write Prometheus metrics to this file when done")
	flag.StringVar(&saveConfig, "save-config", "", "write the effective configuration to this file and exit")
	flag.BoolVar(&version, "version", false, "print the version and exit")

	flag.Parse()
	if version {
		fmt.Println(mediacanvas.GetVersion())
		return
	}

	set := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })

	cfg, err := mediacanvas.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	applyFlags(cfg, set, outDir, op, feed, bg, focusMode, blurred, debug, concurrency, hFocus, vFocus)
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	if saveConfig != "" {
		if err := cfg.SaveToFile(saveConfig); err != nil {
			log.Fatal(err)
		}
		log.Printf("wrote %s", saveConfig)
		return
	}

	if in == "" {
		log.Fatalf("usage: %s -in photo.jpg|video.mp4|dir [-feed story] [-op crop|expand] [-force 1.0] [-out outdir] [-thumbnail]", filepath.Base(os.Args[0]))
	}

	logger := mediacanvas.NewLogger(cfg)
	defer func() { _ = logger.Sync() }()

	reg := prometheus.NewRegistry()
	mc, err := mediacanvas.New(cfg, logger, reg)
	if err != nil {
		logger.Fatal("setup failed", zap.Error(err))
	}
	if err := mc.CheckBinaries(); err != nil {
		logger.Warn("ffmpeg not found, video inputs will fail", zap.Error(err))
	}
	if err := mc.CheckModel(context.Background()); err != nil {
		logger.Warn("vision model unreachable, using the configured focus", zap.Error(err))
	}

	inputs, err := collectInputs(in)
	if err != nil {
		logger.Fatal("no input", zap.Error(err))
	}

	var useRecommended *bool
	if recommended != "" {
		v, err := strconv.ParseBool(recommended)
		if err != nil {
			logger.Fatal("invalid -recommended", zap.Error(err))
		}
		useRecommended = &v
	}

	jobs := make([]processor.Job, 0, len(inputs))
	for _, input := range inputs {
		job, err := mc.Job(input)
		if err != nil {
			logger.Fatal("invalid job", zap.Error(err))
		}
		job.Options.MinAspectRatio = minRatio
		job.Options.MaxAspectRatio = maxRatio
		job.Options.ForceAspectRatio = forceRatio
		job.Options.UseRecommendedRatio = useRecommended
		job.Options.AllowNewAspectDeviation = allowDeviation
		job.Thumbnail = thumbnail && fileutil.IsVideoFile(input)
		if set["thumbnail-at"] {
			at := thumbnailAt
			job.ThumbnailAt = &at
		}
		job.Focus = focusOverride(cfg, set)
		jobs = append(jobs, job)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	results, err := mc.ProcessAll(ctx, jobs)
	for _, res := range results {
		switch {
		case res.Processed:
			log.Printf("wrote %s (%s, %s)", res.Output, res.Spec.Canvas, res.Elapsed.Round(time.Millisecond))
		case res.Output != "":
			log.Printf("kept %s, already fits %s", res.Input, cfg.Processing.Feed)
		}
	}

	if err := writeResults(cfg.Processing.OutputDir, results); err != nil {
		logger.Warn("results export failed", zap.Error(err))
	}
	if metricsFile != "" {
		if err := prometheus.WriteToTextfile(metricsFile, reg); err != nil {
			logger.Warn("metrics export failed", zap.Error(err))
		}
	}
	if err != nil {
		logger.Error("some files failed", zap.Error(err))
		os.Exit(1)
	}
}

// focusOverride pins the crop focus when either focus flag was given. The
// axis that was not given keeps its configured value.
func focusOverride(cfg *config.Config, set map[string]bool) *transform.CropFocus {
	if !set["hfocus"] && !set["vfocus"] {
		return nil
	}
	f := cfg.CropFocus()
	return &f
}

func writeResults(dir string, results []processor.Result) error {
	if err := fileutil.EnsureDir(dir); err != nil {
		return err
	}
	js, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, "results.json"), js, 0o644)
}

// applyFlags overrides configuration values with explicitly set flags
func applyFlags(cfg *config.Config, set map[string]bool, outDir, op, feed, bg, focusMode string, blurred, debug bool, concurrency, hFocus, vFocus int) {
	if outDir != "" {
		cfg.Processing.OutputDir = outDir
	}
	if op != "" {
		if _, err := canvas.ParseOperation(op); err != nil {
			log.Fatal(err)
		}
		cfg.Processing.Operation = strings.ToLower(op)
	}
	if feed != "" {
		cfg.Processing.Feed = feed
	}
	if bg != "" {
		rgb, err := parseColor(bg)
		if err != nil {
			log.Fatalf("invalid -bg: %v", err)
		}
		cfg.Processing.Background = rgb
	}
	if set["blur"] {
		cfg.Processing.BlurredBorder = blurred
	}
	if set["debug"] {
		cfg.Photo.DebugBoxes = debug
	}
	if concurrency > 0 {
		cfg.Processing.Concurrency = concurrency
	}
	if focusMode != "" {
		cfg.Focus.Mode = focusMode
	}
	if set["hfocus"] {
		cfg.Focus.Horizontal = hFocus
	}
	if set["vfocus"] {
		cfg.Focus.Vertical = vFocus
	}
}

// parseColor reads "R,G,B" with components in 0..255
func parseColor(s string) ([3]uint8, error) {
	var rgb [3]uint8
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return rgb, fmt.Errorf("%q is not R,G,B", s)
	}
	for i, p := range parts {
		v, err := strconv.ParseUint(strings.TrimSpace(p), 10, 8)
		if err != nil {
			return rgb, fmt.Errorf("%q is not R,G,B: %v", s, err)
		}
		rgb[i] = uint8(v)
	}
	return rgb, nil
}

// collectInputs expands a directory into its media files
func collectInputs(in string) ([]string, error) {
	if fileutil.FileExists(in) {
		return []string{in}, nil
	}
	files, err := fileutil.ListMediaFiles(in)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no media files in %s", in)
	}
	return files, nil
}
