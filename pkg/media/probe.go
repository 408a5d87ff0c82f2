package media

import (
	"context"
	"encoding/json"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rwcarlsen/goexif/exif"
	_ "golang.org/x/image/webp"

	"github.com/menta2k/media-canvas/pkg/ffmpeg"
	"github.com/menta2k/media-canvas/pkg/geometry"
)

// ProbePhoto reads the header and EXIF orientation of the image at path
// without decoding its pixels.
func ProbePhoto(path string) (*Photo, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open photo")
	}
	defer f.Close()

	cfg, format, err := image.DecodeConfig(f)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to decode photo header of %s", path)
	}

	orientation := 1
	if _, err := f.Seek(0, io.SeekStart); err == nil {
		orientation = readOrientation(f)
	}

	return &Photo{
		Path:        path,
		Size:        geometry.NewDimensions(cfg.Width, cfg.Height),
		Format:      format,
		Orientation: orientation,
	}, nil
}

// readOrientation returns 1 when the file carries no usable EXIF data
func readOrientation(r io.Reader) int {
	x, err := exif.Decode(r)
	if err != nil {
		return 1
	}
	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return 1
	}
	o, err := tag.Int(0)
	if err != nil || o < 1 || o > 8 {
		return 1
	}
	return o
}

// Prober inspects video files with ffprobe
type Prober struct {
	Binaries *ffmpeg.Cache
	Runner   ffmpeg.Runner
}

// NewProber creates a prober resolving ffprobe through binaries
func NewProber(binaries *ffmpeg.Cache, runner ffmpeg.Runner) *Prober {
	return &Prober{Binaries: binaries, Runner: runner}
}

// ProbeVideo runs ffprobe on path and describes its first video stream
func (p *Prober) ProbeVideo(ctx context.Context, path string) (*Video, error) {
	bin, err := p.Binaries.Get(ffmpeg.FFprobe)
	if err != nil {
		return nil, err
	}

	out, err := p.Runner.Run(ctx, bin,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to probe %s", path)
	}

	v, err := parseProbe(out)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse probe output for %s", path)
	}
	v.Path = path
	return v, nil
}

type probeOutput struct {
	Streams []probeStream `json:"streams"`
	Format  struct {
		FormatName string `json:"format_name"`
		Duration   string `json:"duration"`
	} `json:"format"`
}

type probeStream struct {
	CodecType    string            `json:"codec_type"`
	CodecName    string            `json:"codec_name"`
	Width        int               `json:"width"`
	Height       int               `json:"height"`
	PixFmt       string            `json:"pix_fmt"`
	Duration     string            `json:"duration"`
	Tags         map[string]string `json:"tags"`
	SideDataList []struct {
		SideDataType string  `json:"side_data_type"`
		Rotation     float64 `json:"rotation"`
	} `json:"side_data_list"`
}

func parseProbe(data []byte) (*Video, error) {
	var out probeOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, errors.Wrap(err, "invalid ffprobe json")
	}

	v := &Video{Container: out.Format.FormatName}
	var video *probeStream
	for i := range out.Streams {
		s := &out.Streams[i]
		switch s.CodecType {
		case "video":
			if video == nil {
				video = s
			}
		case "audio":
			if v.AudioCodec == "" {
				v.AudioCodec = s.CodecName
			}
		}
	}
	if video == nil {
		return nil, errors.New("no video stream")
	}

	v.Size = geometry.NewDimensions(video.Width, video.Height)
	v.VideoCodec = video.CodecName
	v.PixelFormat = video.PixFmt
	v.Rotation = streamRotation(video)

	duration := out.Format.Duration
	if duration == "" {
		duration = video.Duration
	}
	if duration != "" {
		secs, err := strconv.ParseFloat(duration, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid duration %q", duration)
		}
		v.Duration = time.Duration(secs * float64(time.Second))
	}
	return v, nil
}

// streamRotation prefers the legacy rotate tag and falls back to the
// display matrix, whose angle is counter-clockwise.
func streamRotation(s *probeStream) int {
	if tag, ok := s.Tags["rotate"]; ok {
		if deg, err := strconv.Atoi(strings.TrimSpace(tag)); err == nil {
			return normalizeRotation(deg)
		}
	}
	for _, sd := range s.SideDataList {
		if sd.SideDataType == "Display Matrix" {
			return normalizeRotation(-roundDegrees(sd.Rotation))
		}
	}
	return 0
}
