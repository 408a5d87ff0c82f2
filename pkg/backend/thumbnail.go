package backend

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/menta2k/media-canvas/internal/fileutil"
	"github.com/menta2k/media-canvas/pkg/ffmpeg"
	"github.com/menta2k/media-canvas/pkg/media"
)

// Thumbnail extracts a single JPEG frame from a video, transformed onto
// the canvas like the video itself.
type Thumbnail struct {
	Binaries *ffmpeg.Cache
	Runner   ffmpeg.Runner
	BoxBlur  int
	TempDir  string
	Logger   *zap.Logger
}

// NewThumbnail creates a thumbnail backend
func NewThumbnail(binaries *ffmpeg.Cache, runner ffmpeg.Runner, logger *zap.Logger) *Thumbnail {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Thumbnail{Binaries: binaries, Runner: runner, BoxBlur: DefaultBoxBlur, Logger: logger}
}

func (t *Thumbnail) Name() string       { return "thumbnail" }
func (t *Thumbnail) Mod2Required() bool { return false }

func (t *Thumbnail) CreateOutputFile(ctx context.Context, r Render) (*fileutil.TempFile, error) {
	bin, err := t.Binaries.Get(ffmpeg.FFmpeg)
	if err != nil {
		return nil, err
	}

	tmp, err := fileutil.Create(t.TempDir, "thumb", "jpg")
	if err != nil {
		return nil, err
	}

	var duration time.Duration
	if v, ok := r.Facts.(*media.Video); ok {
		duration = v.Duration
	}
	at := ThumbnailTimestamp(r.Feed, duration, r.ThumbnailAt)

	if _, err := t.Runner.Run(ctx, bin, t.args(r, at, tmp.Path())...); err != nil {
		_ = tmp.Cleanup()
		return nil, err
	}

	if t.Logger != nil {
		t.Logger.Debug("thumbnail rendered",
			zap.String("input", r.Input),
			zap.Duration("at", at),
			zap.String("output", tmp.Path()),
		)
	}
	return tmp, nil
}

func (t *Thumbnail) args(r Render, at time.Duration, output string) []string {
	return []string{
		"-y", "-hide_banner", "-loglevel", "error",
		"-noautorotate",
		"-ss", fmt.Sprintf("%.3f", at.Seconds()),
		"-i", r.Input,
		"-filter_complex", filterGraph(r, t.BoxBlur),
		"-map", "[v]",
		"-frames:v", "1",
		"-q:v", "2",
		"-f", "image2",
		output,
	}
}

// ThumbnailTimestamp picks the frame to extract. A requested timestamp is
// clamped into the video. Otherwise every named feed takes the frame at one
// second when the video is that long, and an unnamed feed takes the first
// frame.
func ThumbnailTimestamp(feed string, duration time.Duration, requested *time.Duration) time.Duration {
	if requested != nil {
		at := *requested
		if at < 0 {
			return 0
		}
		if duration > 0 && at > duration {
			return duration
		}
		return at
	}

	// Every named feed shares the timeline rule, story and igtv included.
	if feed != "" && duration >= time.Second {
		return time.Second
	}
	return 0
}
