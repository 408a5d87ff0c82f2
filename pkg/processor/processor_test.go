package processor

import (
	"context"
	"errors"
	"image"
	"image/color"
	_ "image/jpeg"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
	"go.uber.org/zap/zaptest"

	"github.com/menta2k/media-canvas/internal/fileutil"
	"github.com/menta2k/media-canvas/pkg/backend"
	"github.com/menta2k/media-canvas/pkg/canvas"
	"github.com/menta2k/media-canvas/pkg/geometry"
	"github.com/menta2k/media-canvas/pkg/media"
	"github.com/menta2k/media-canvas/pkg/mediaerr"
	"github.com/menta2k/media-canvas/pkg/policy"
	"github.com/menta2k/media-canvas/pkg/transform"
)

type fakeBackend struct {
	name    string
	mod2    bool
	dir     string
	renders []backend.Render
}

func (f *fakeBackend) Name() string       { return f.name }
func (f *fakeBackend) Mod2Required() bool { return f.mod2 }

func (f *fakeBackend) CreateOutputFile(_ context.Context, r backend.Render) (*fileutil.TempFile, error) {
	f.renders = append(f.renders, r)
	tmp, err := fileutil.Create(f.dir, f.name, "mp4")
	if err != nil {
		return nil, err
	}
	return tmp, os.WriteFile(tmp.Path(), []byte("rendered"), 0o644)
}

type fakeProber struct {
	video *media.Video
}

func (f fakeProber) ProbeVideo(_ context.Context, path string) (*media.Video, error) {
	v := *f.video
	v.Path = path
	return &v, nil
}

type fakeFrames struct {
	at time.Duration
}

func (f *fakeFrames) Photo(string) (image.Image, error) {
	return imaging.New(8, 8, color.White), nil
}

func (f *fakeFrames) Video(_ context.Context, _ string, at time.Duration) (image.Image, error) {
	f.at = at
	return imaging.New(8, 8, color.White), nil
}

type fakeEstimator struct {
	focus transform.CropFocus
	err   error
}

func (f fakeEstimator) Name() string { return "fake" }

func (f fakeEstimator) Estimate(context.Context, image.Image) (transform.CropFocus, error) {
	return f.focus, f.err
}

func fullHD() *media.Video {
	return &media.Video{
		Size:        geometry.NewDimensions(1920, 1080),
		Duration:    10 * time.Second,
		VideoCodec:  "h264",
		AudioCodec:  "aac",
		Container:   "mov,mp4,m4a,3gp,3g2,mj2",
		PixelFormat: "yuv420p",
	}
}

type fixture struct {
	proc      *Processor
	video     *fakeBackend
	thumbnail *fakeBackend
	dir       string
}

func newFixture(t *testing.T, v *media.Video) *fixture {
	t.Helper()
	dir := t.TempDir()
	logger := zaptest.NewLogger(t)

	photo := backend.NewPhoto(logger)
	photo.TempDir = dir
	video := &fakeBackend{name: "video", mod2: true, dir: dir}
	thumb := &fakeBackend{name: "thumbnail", dir: dir}

	return &fixture{
		proc: &Processor{
			Photo:        photo,
			Video:        video,
			Thumbnail:    thumb,
			Prober:       fakeProber{video: v},
			DefaultFocus: transform.DefaultCropFocus(),
			OutputDir:    filepath.Join(dir, "out"),
			Suffix:       "_canvas",
			Metrics:      NewMetrics(prometheus.NewRegistry()),
			Logger:       logger,
		},
		video:     video,
		thumbnail: thumb,
		dir:       dir,
	}
}

func writePhoto(t *testing.T, dir, name string, w, h int) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, imaging.Save(imaging.New(w, h, color.NRGBA{R: 200, A: 255}), path))
	return path
}

func decodeSize(t *testing.T, path string) image.Point {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	cfg, _, err := image.DecodeConfig(f)
	require.NoError(t, err)
	return image.Pt(cfg.Width, cfg.Height)
}

func TestProcessSkipsCompliantPhoto(t *testing.T) {
	fx := newFixture(t, fullHD())
	input := writePhoto(t, fx.dir, "square.jpg", 1080, 1080)

	res, err := fx.proc.Process(context.Background(), Job{Input: input, Operation: canvas.Crop})
	require.NoError(t, err)
	assert.False(t, res.Processed)
	assert.Equal(t, input, res.Output)
	assert.Equal(t, MediaPhoto, res.Media)
	assert.NotEmpty(t, res.JobID)
	assert.Equal(t, 1.0, testutil.ToFloat64(fx.proc.Metrics.JobsTotal.WithLabelValues(MediaPhoto, OutcomeSkipped)))
}

func TestProcessCropsTallPhoto(t *testing.T) {
	fx := newFixture(t, fullHD())
	input := writePhoto(t, fx.dir, "tall.jpg", 1000, 2000)

	res, err := fx.proc.Process(context.Background(), Job{Input: input, Operation: canvas.Crop, Debug: true})
	require.NoError(t, err)
	assert.True(t, res.Processed)
	assert.NotEmpty(t, res.Reason)
	assert.Equal(t, geometry.NewDimensions(1000, 1250), res.Spec.Canvas)
	assert.Equal(t, geometry.NewRectangle(0, 0, 1000, 1250), res.Plan.Src)
	assert.Equal(t, filepath.Join(fx.dir, "out", "tall_canvas.jpg"), res.Output)
	assert.Equal(t, image.Pt(1000, 1250), decodeSize(t, res.Output))
	info, err := os.Stat(res.Output)
	require.NoError(t, err)
	assert.Equal(t, info.Size(), res.OutputBytes)

	require.NotEmpty(t, res.DebugOverlay)
	assert.True(t, fileutil.FileExists(res.DebugOverlay))
	assert.Equal(t, 1.0, testutil.ToFloat64(fx.proc.Metrics.JobsTotal.WithLabelValues(MediaPhoto, OutcomeProcessed)))
}

func TestProcessExpandsWidePhotoToExplicitOutput(t *testing.T) {
	fx := newFixture(t, fullHD())
	input := writePhoto(t, fx.dir, "wide.jpg", 3000, 1000)
	output := filepath.Join(fx.dir, "custom", "wide.jpg")

	res, err := fx.proc.Process(context.Background(), Job{Input: input, Output: output, Operation: canvas.Expand})
	require.NoError(t, err)
	assert.Equal(t, output, res.Output)
	assert.Equal(t, geometry.NewDimensions(1080, 566), res.Spec.Canvas)
	assert.Equal(t, image.Pt(1080, 566), decodeSize(t, output))
}

func TestProcessVideo(t *testing.T) {
	fx := newFixture(t, fullHD())
	input := filepath.Join(fx.dir, "clip.mp4")

	res, err := fx.proc.Process(context.Background(), Job{
		Input:      input,
		Operation:  canvas.Crop,
		Background: color.NRGBA{R: 1, G: 2, B: 3, A: 255},
	})
	require.NoError(t, err)
	assert.Equal(t, MediaVideo, res.Media)
	assert.Equal(t, "video", res.Backend)
	assert.Equal(t, canvas.Spec{Canvas: geometry.NewDimensions(720, 406), Mod2HeightDiff: 1}, res.Spec)
	assert.True(t, res.Plan.Src.Within(geometry.NewDimensions(1920, 1080)))
	assert.Equal(t, filepath.Join(fx.dir, "out", "clip_canvas.mp4"), res.Output)
	assert.True(t, fileutil.FileExists(res.Output))

	require.Len(t, fx.video.renders, 1)
	r := fx.video.renders[0]
	assert.Equal(t, color.NRGBA{R: 1, G: 2, B: 3, A: 255}, r.Background)
	assert.Equal(t, "timeline", r.Feed)
	assert.Equal(t, res.Plan, r.Plan)
}

func TestProcessThumbnailIgnoresDecision(t *testing.T) {
	compliant := fullHD()
	compliant.Size = geometry.NewDimensions(720, 720)
	fx := newFixture(t, compliant)
	input := filepath.Join(fx.dir, "square.mov")

	res, err := fx.proc.Process(context.Background(), Job{Input: input, Operation: canvas.Crop})
	require.NoError(t, err)
	assert.False(t, res.Processed)

	res, err = fx.proc.Process(context.Background(), Job{Input: input, Operation: canvas.Crop, Thumbnail: true})
	require.NoError(t, err)
	assert.True(t, res.Processed)
	assert.Equal(t, "thumbnail", res.Backend)
	assert.Equal(t, geometry.NewDimensions(720, 720), res.Spec.Canvas)
	assert.Len(t, fx.thumbnail.renders, 1)
}

func TestProcessFocus(t *testing.T) {
	fx := newFixture(t, fullHD())
	frames := &fakeFrames{}
	fx.proc.Frames = frames
	fx.proc.Estimator = fakeEstimator{focus: transform.CropFocus{Horizontal: 10, Vertical: 20}}
	input := filepath.Join(fx.dir, "clip.mp4")

	res, err := fx.proc.Process(context.Background(), Job{Input: input, Operation: canvas.Crop})
	require.NoError(t, err)
	assert.Equal(t, transform.CropFocus{Horizontal: 10, Vertical: 20}, res.Focus)
	assert.Equal(t, time.Second, frames.at)

	explicit := transform.CropFocus{Horizontal: -50}
	res, err = fx.proc.Process(context.Background(), Job{Input: input, Operation: canvas.Crop, Focus: &explicit})
	require.NoError(t, err)
	assert.Equal(t, explicit, res.Focus)

	fx.proc.Estimator = fakeEstimator{err: errors.New("model offline")}
	res, err = fx.proc.Process(context.Background(), Job{Input: input, Operation: canvas.Crop})
	require.NoError(t, err)
	assert.Equal(t, transform.DefaultCropFocus(), res.Focus)
	assert.Equal(t, 1.0, testutil.ToFloat64(fx.proc.Metrics.FocusEstimates.WithLabelValues("fake", "failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(fx.proc.Metrics.FocusEstimates.WithLabelValues("fake", "ok")))
}

func TestProcessErrors(t *testing.T) {
	fx := newFixture(t, fullHD())
	photo := writePhoto(t, fx.dir, "tall.jpg", 1000, 2000)
	square := fullHD()
	square.Size = geometry.NewDimensions(1000, 1000)

	tests := []struct {
		name  string
		video *media.Video
		job   Job
		want  error
	}{
		{"unsupported file", fullHD(), Job{Input: "notes.txt"}, mediaerr.ErrInvalidInput},
		{"thumbnail of a photo", fullHD(), Job{Input: photo, Thumbnail: true}, mediaerr.ErrInvalidInput},
		{"unknown feed", fullHD(), Job{Input: "clip.mp4", Feed: "reels"}, mediaerr.ErrInvalidInput},
		{
			"user bound outside the feed",
			fullHD(),
			Job{Input: "clip.mp4", Options: policy.Options{MinAspectRatio: 0.2}},
			mediaerr.ErrInvalidInput,
		},
		{
			"unreachable canvas",
			square,
			Job{Input: "clip.mp4", Options: policy.Options{MinAspectRatio: 1.0001, MaxAspectRatio: 1.0002}},
			mediaerr.ErrCanvasUnreachable,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fx.proc.Prober = fakeProber{video: tt.video}
			_, err := fx.proc.Process(context.Background(), tt.job)
			assert.ErrorIs(t, err, tt.want)
		})
	}
	assert.Equal(t, 3.0, testutil.ToFloat64(fx.proc.Metrics.JobsTotal.WithLabelValues(MediaVideo, OutcomeFailed)))
}

func TestProcessAll(t *testing.T) {
	fx := newFixture(t, fullHD())
	fx.proc.Concurrency = 2
	jobs := []Job{
		{Input: writePhoto(t, fx.dir, "a.jpg", 1000, 2000), Operation: canvas.Crop},
		{Input: "broken.txt"},
		{Input: writePhoto(t, fx.dir, "b.jpg", 1080, 1080), Operation: canvas.Crop},
		{Input: filepath.Join(fx.dir, "c.mp4"), Operation: canvas.Expand},
	}

	results, err := fx.proc.ProcessAll(context.Background(), jobs)
	require.Error(t, err)
	assert.Len(t, multierr.Errors(err), 1)
	require.Len(t, results, len(jobs))

	assert.True(t, results[0].Processed)
	assert.Equal(t, "broken.txt", results[1].Input)
	assert.False(t, results[2].Processed)
	assert.True(t, results[3].Processed)
}

func TestProcessAllCancelled(t *testing.T) {
	fx := newFixture(t, fullHD())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results, err := fx.proc.ProcessAll(ctx, []Job{{Input: "a.mp4"}, {Input: "b.mp4"}})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, results, 2)
}
