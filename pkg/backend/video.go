package backend

import (
	"context"
	"strconv"

	"go.uber.org/zap"

	"github.com/menta2k/media-canvas/internal/fileutil"
	"github.com/menta2k/media-canvas/pkg/ffmpeg"
)

// Video re-encodes videos to H.264/AAC MP4 with ffmpeg
type Video struct {
	Binaries     *ffmpeg.Cache
	Runner       ffmpeg.Runner
	Preset       string
	CRF          int
	AudioBitrate string
	BoxBlur      int
	TempDir      string
	Logger       *zap.Logger
}

// NewVideo creates a video backend with the default encoder settings
func NewVideo(binaries *ffmpeg.Cache, runner ffmpeg.Runner, logger *zap.Logger) *Video {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Video{
		Binaries:     binaries,
		Runner:       runner,
		Preset:       "veryfast",
		CRF:          20,
		AudioBitrate: "128k",
		BoxBlur:      DefaultBoxBlur,
		Logger:       logger,
	}
}

func (v *Video) Name() string       { return "video" }
func (v *Video) Mod2Required() bool { return true }

func (v *Video) CreateOutputFile(ctx context.Context, r Render) (*fileutil.TempFile, error) {
	bin, err := v.Binaries.Get(ffmpeg.FFmpeg)
	if err != nil {
		return nil, err
	}

	tmp, err := fileutil.Create(v.TempDir, "video", "mp4")
	if err != nil {
		return nil, err
	}

	args := v.args(r, tmp.Path())
	if _, err := v.Runner.Run(ctx, bin, args...); err != nil {
		_ = tmp.Cleanup()
		return nil, err
	}

	if v.Logger != nil {
		v.Logger.Debug("video rendered",
			zap.String("input", r.Input),
			zap.String("plan", r.Plan.String()),
			zap.String("output", tmp.Path()),
		)
	}
	return tmp, nil
}

func (v *Video) args(r Render, output string) []string {
	return []string{
		"-y", "-hide_banner", "-loglevel", "error",
		"-noautorotate",
		"-i", r.Input,
		"-filter_complex", filterGraph(r, v.BoxBlur),
		"-map", "[v]",
		"-map", "0:a?",
		"-map_metadata", "-1",
		"-c:v", "libx264",
		"-preset", v.Preset,
		"-crf", strconv.Itoa(v.CRF),
		"-pix_fmt", "yuv420p",
		"-c:a", "aac",
		"-b:a", v.AudioBitrate,
		"-movflags", "+faststart",
		"-f", "mp4",
		output,
	}
}
