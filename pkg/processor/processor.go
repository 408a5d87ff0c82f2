// Package processor runs a media job end to end: it probes the input,
// resolves the aspect ratio policy of the target feed, decides whether
// the file needs work at all, computes the canvas and transform plan and
// hands the plan to a rendering backend.
package processor

import (
	"context"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/menta2k/media-canvas/internal/fileutil"
	"github.com/menta2k/media-canvas/pkg/backend"
	"github.com/menta2k/media-canvas/pkg/canvas"
	"github.com/menta2k/media-canvas/pkg/constraints"
	"github.com/menta2k/media-canvas/pkg/decision"
	"github.com/menta2k/media-canvas/pkg/focus"
	"github.com/menta2k/media-canvas/pkg/geometry"
	"github.com/menta2k/media-canvas/pkg/media"
	"github.com/menta2k/media-canvas/pkg/mediaerr"
	"github.com/menta2k/media-canvas/pkg/policy"
	"github.com/menta2k/media-canvas/pkg/transform"
)

// Media kinds
const (
	MediaPhoto = "photo"
	MediaVideo = "video"
)

// Job is one request to fit a file to a feed
type Job struct {
	Input string
	// Output is derived from the processor's output directory when empty
	Output    string
	Operation canvas.Operation
	Feed      string
	Options   policy.Options
	// Focus overrides the estimator when set
	Focus *transform.CropFocus
	// A zero Background means backend.DefaultBackground
	Background    color.NRGBA
	BlurredBorder bool
	Thumbnail     bool
	ThumbnailAt   *time.Duration
	Debug         bool
}

// Result describes what happened to a job. When Processed is false the
// input already satisfied the feed and Output equals Input.
type Result struct {
	JobID        string              `json:"job_id"`
	Input        string              `json:"input"`
	Output       string              `json:"output"`
	OutputBytes  int64               `json:"output_bytes,omitempty"`
	Media        string              `json:"media"`
	Backend      string              `json:"backend,omitempty"`
	Processed    bool                `json:"processed"`
	Reason       string              `json:"reason,omitempty"`
	InputSize    geometry.Dimensions `json:"input_size"`
	Spec         canvas.Spec         `json:"spec"`
	Plan         transform.Plan      `json:"plan"`
	Focus        transform.CropFocus `json:"focus"`
	DebugOverlay string              `json:"debug_overlay,omitempty"`
	Elapsed      time.Duration       `json:"elapsed"`
}

// VideoProber reads stream facts of a video file
type VideoProber interface {
	ProbeVideo(ctx context.Context, path string) (*media.Video, error)
}

// FrameSource loads display-oriented frames for focus estimation
type FrameSource interface {
	Photo(path string) (image.Image, error)
	Video(ctx context.Context, path string, at time.Duration) (image.Image, error)
}

// DebugWriter is implemented by backends that can draw their plan
type DebugWriter interface {
	SaveDebugOverlay(r backend.Render, path string) error
}

// Processor wires probing, planning and rendering together. Photo and
// Video are required; Thumbnail, Frames and Estimator are optional.
type Processor struct {
	Photo     backend.Backend
	Video     backend.Backend
	Thumbnail backend.Backend
	Prober    VideoProber
	Frames    FrameSource
	Estimator focus.Estimator

	DefaultFocus transform.CropFocus
	OutputDir    string
	Suffix       string
	Concurrency  int

	Metrics *Metrics
	Logger  *zap.Logger

	metricsOnce sync.Once
}

// Process runs job. Errors keep their mediaerr identity so callers can
// tell bad requests from unreachable canvases.
func (p *Processor) Process(ctx context.Context, job Job) (Result, error) {
	start := time.Now()
	res := Result{JobID: uuid.NewString(), Input: job.Input}
	log := p.logger().With(zap.String("job_id", res.JobID), zap.String("input", job.Input))

	m := p.metrics()
	m.JobsInFlight.Inc()
	defer m.JobsInFlight.Dec()

	err := p.run(ctx, job, &res, log)
	res.Elapsed = time.Since(start)

	outcome := OutcomeProcessed
	switch {
	case err != nil:
		outcome = OutcomeFailed
	case !res.Processed:
		outcome = OutcomeSkipped
	}
	m.observeJob(res.Media, res.Backend, outcome, res.Elapsed)

	if err != nil {
		log.Error("job failed", zap.Error(err), zap.Duration("elapsed", res.Elapsed))
		return res, err
	}
	log.Info("job finished",
		zap.String("outcome", outcome),
		zap.String("output", res.Output),
		zap.Stringer("canvas", res.Spec.Canvas),
		zap.Duration("elapsed", res.Elapsed))
	return res, nil
}

func (p *Processor) run(ctx context.Context, job Job, res *Result, log *zap.Logger) error {
	facts, kind, err := p.probe(ctx, job.Input)
	if err != nil {
		return err
	}
	res.Media = kind
	input := media.InputDimensions(facts)
	res.InputSize = input

	feed := job.Feed
	if feed == "" {
		feed = constraints.FeedTimeline
	}
	c, err := constraints.ForFeed(feed)
	if err != nil {
		return mediaerr.InvalidInputf("%v", err)
	}
	pol, err := policy.Resolve(c, job.Options)
	if err != nil {
		return err
	}

	b, err := p.backendFor(kind, job.Thumbnail)
	if err != nil {
		return err
	}
	res.Backend = b.Name()

	// Thumbnails are always rendered.
	if !job.Thumbnail {
		d := decision.Check(facts, pol)
		if !d.Process {
			res.Output = job.Input
			log.Debug("input already satisfies the feed", zap.String("feed", feed))
			return nil
		}
		res.Reason = d.Reason
		log.Debug("processing required", zap.String("reason", d.Reason))
	}

	calc := canvas.Calculator{
		Policy:       pol,
		MinWidth:     facts.MinAllowedWidth(),
		MaxWidth:     facts.MaxAllowedWidth(),
		Mod2Required: b.Mod2Required(),
	}
	spec, err := calc.Calculate(job.Operation, input)
	if err != nil {
		return err
	}
	res.Spec = spec

	res.Focus = p.cropFocus(ctx, job, kind, facts, feed, log)
	if err := ctx.Err(); err != nil {
		return err
	}

	plan, err := transform.Build(job.Operation, input, spec, facts, res.Focus)
	if err != nil {
		return err
	}
	res.Plan = plan

	render := backend.Render{
		Input:         job.Input,
		Operation:     job.Operation,
		Plan:          plan,
		Facts:         facts,
		Background:    job.Background,
		BlurredBorder: job.BlurredBorder,
		Feed:          feed,
		ThumbnailAt:   job.ThumbnailAt,
	}
	if render.Background.A == 0 {
		render.Background = backend.DefaultBackground
	}

	tmp, err := b.CreateOutputFile(ctx, render)
	if err != nil {
		return errors.Wrapf(err, "%s backend", b.Name())
	}
	defer func() {
		if cerr := tmp.Cleanup(); cerr != nil {
			log.Warn("temp file cleanup failed", zap.Error(cerr))
		}
	}()

	out := job.Output
	if out == "" {
		out = fileutil.GenerateOutputFilename(job.Input, p.OutputDir, p.Suffix, fileutil.Extension(tmp.Path()))
	}
	if err := fileutil.EnsureDir(filepath.Dir(out)); err != nil {
		return errors.Wrap(err, "create output directory")
	}
	if err := tmp.MoveTo(out); err != nil {
		return err
	}
	res.Output = out
	res.Processed = true
	if info, err := os.Stat(out); err == nil {
		res.OutputBytes = info.Size()
		log.Info("output written",
			zap.String("output", out),
			zap.String("size", fileutil.FormatFileSize(info.Size())))
	}

	if job.Debug {
		if dw, ok := b.(DebugWriter); ok {
			path := fileutil.GenerateOutputFilename(out, filepath.Dir(out), "_debug", "png")
			if err := dw.SaveDebugOverlay(render, path); err != nil {
				log.Warn("debug overlay failed", zap.Error(err))
			} else {
				res.DebugOverlay = path
			}
		}
	}
	return nil
}

// probe picks the media kind from the file extension
func (p *Processor) probe(ctx context.Context, path string) (media.Facts, string, error) {
	switch {
	case fileutil.IsVideoFile(path):
		if p.Prober == nil {
			return nil, MediaVideo, errors.New("no video prober configured")
		}
		v, err := p.Prober.ProbeVideo(ctx, path)
		if err != nil {
			return nil, MediaVideo, err
		}
		return v, MediaVideo, nil
	case fileutil.IsImageFile(path):
		ph, err := media.ProbePhoto(path)
		if err != nil {
			return nil, MediaPhoto, err
		}
		return ph, MediaPhoto, nil
	}
	return nil, "", mediaerr.InvalidInputf("unsupported media file %s", path)
}

func (p *Processor) backendFor(kind string, thumbnail bool) (backend.Backend, error) {
	var b backend.Backend
	switch {
	case thumbnail && kind != MediaVideo:
		return nil, mediaerr.InvalidInputf("thumbnails can only be taken from videos")
	case thumbnail:
		b = p.Thumbnail
	case kind == MediaVideo:
		b = p.Video
	default:
		b = p.Photo
	}
	if b == nil {
		return nil, errors.Errorf("no backend configured for %s", kind)
	}
	return b, nil
}

// cropFocus resolves the focus of a Crop. Estimation failures fall back to
// the default focus and never fail the job.
func (p *Processor) cropFocus(ctx context.Context, job Job, kind string, facts media.Facts, feed string, log *zap.Logger) transform.CropFocus {
	if job.Focus != nil {
		return *job.Focus
	}
	if job.Operation != canvas.Crop || p.Estimator == nil || p.Frames == nil {
		return p.DefaultFocus
	}

	var (
		img image.Image
		err error
	)
	if kind == MediaVideo {
		var duration time.Duration
		if v, ok := facts.(*media.Video); ok {
			duration = v.Duration
		}
		img, err = p.Frames.Video(ctx, job.Input, backend.ThumbnailTimestamp(feed, duration, job.ThumbnailAt))
	} else {
		img, err = p.Frames.Photo(job.Input)
	}
	if err == nil {
		var f transform.CropFocus
		if f, err = p.Estimator.Estimate(ctx, img); err == nil {
			err = f.Validate()
		}
		if err == nil {
			p.metrics().FocusEstimates.WithLabelValues(p.Estimator.Name(), "ok").Inc()
			log.Debug("crop focus estimated",
				zap.String("estimator", p.Estimator.Name()),
				zap.Int("horizontal", f.Horizontal),
				zap.Int("vertical", f.Vertical))
			return f
		}
	}

	status := "failed"
	if errors.Is(err, focus.ErrNoSubject) {
		status = "no_subject"
	}
	p.metrics().FocusEstimates.WithLabelValues(p.Estimator.Name(), status).Inc()
	log.Warn("crop focus estimation failed, using default", zap.Error(err))
	return p.DefaultFocus
}

func (p *Processor) logger() *zap.Logger {
	if p.Logger == nil {
		return zap.NewNop()
	}
	return p.Logger
}

func (p *Processor) metrics() *Metrics {
	p.metricsOnce.Do(func() {
		if p.Metrics == nil {
			p.Metrics = NewMetrics(nil)
		}
	})
	return p.Metrics
}
