package focus

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/png"
	"time"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
	_ "golang.org/x/image/webp"

	"github.com/menta2k/media-canvas/pkg/ffmpeg"
)

// DefaultFrameSide bounds the frames extracted for estimation
const DefaultFrameSide = 512

// Frames loads the image an estimator looks at, always in display
// orientation.
type Frames struct {
	Binaries *ffmpeg.Cache
	Runner   ffmpeg.Runner
	MaxSide  int
}

func NewFrames(binaries *ffmpeg.Cache, runner ffmpeg.Runner) *Frames {
	return &Frames{Binaries: binaries, Runner: runner, MaxSide: DefaultFrameSide}
}

// Photo decodes the photo at path and applies its EXIF orientation
func (f *Frames) Photo(path string) (image.Image, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load %s for focus estimation", path)
	}
	return img, nil
}

// Video grabs one frame at the given offset. ffmpeg applies the rotation
// metadata on its own.
func (f *Frames) Video(ctx context.Context, path string, at time.Duration) (image.Image, error) {
	bin, err := f.Binaries.Get(ffmpeg.FFmpeg)
	if err != nil {
		return nil, err
	}
	out, err := f.Runner.Run(ctx, bin, f.frameArgs(path, at)...)
	if err != nil {
		return nil, errors.Wrap(err, "extract focus frame")
	}
	img, _, err := image.Decode(bytes.NewReader(out))
	if err != nil {
		return nil, errors.Wrap(err, "decode focus frame")
	}
	return img, nil
}

func (f *Frames) frameArgs(path string, at time.Duration) []string {
	side := f.MaxSide
	if side <= 0 {
		side = DefaultFrameSide
	}
	return []string{
		"-hide_banner", "-loglevel", "error",
		"-ss", fmt.Sprintf("%.3f", at.Seconds()),
		"-i", path,
		"-frames:v", "1",
		"-vf", fmt.Sprintf("scale=%d:%d:force_original_aspect_ratio=decrease", side, side),
		"-f", "image2pipe",
		"-vcodec", "png",
		"-",
	}
}
