package media

import (
	"strings"
	"time"

	"github.com/menta2k/media-canvas/pkg/constraints"
	"github.com/menta2k/media-canvas/pkg/geometry"
)

const (
	VideoMinWidth = 480
	VideoMaxWidth = 720
)

// Video is a probed video file. Rotation is the clockwise display rotation
// in degrees, normalized to 0, 90, 180 or 270.
type Video struct {
	Path        string              `json:"path"`
	Size        geometry.Dimensions `json:"size"`
	Duration    time.Duration       `json:"duration"`
	VideoCodec  string              `json:"video_codec"`
	AudioCodec  string              `json:"audio_codec,omitempty"`
	Container   string              `json:"container"`
	PixelFormat string              `json:"pixel_format"`
	Rotation    int                 `json:"rotation"`
}

func (v *Video) Width() int  { return v.Size.Width }
func (v *Video) Height() int { return v.Size.Height }

func (v *Video) AspectRatio() float64 { return displayRatio(v) }

func (v *Video) MinAllowedWidth() int { return VideoMinWidth }
func (v *Video) MaxAllowedWidth() int { return VideoMaxWidth }

// DisplayRotation returns Rotation normalized to 0, 90, 180 or 270
func (v *Video) DisplayRotation() int { return normalizeRotation(v.Rotation) }

func (v *Video) HasSwappedAxes() bool { return v.DisplayRotation()%180 != 0 }

func (v *Video) IsHorizontallyFlipped() bool {
	r := v.DisplayRotation()
	return r == 90 || r == 180
}

func (v *Video) IsVerticallyFlipped() bool {
	r := v.DisplayRotation()
	return r == 180 || r == 270
}

var supportedContainers = []string{"mp4", "mov"}

// Validate checks the video can be uploaded without transcoding
func (v *Video) Validate(c constraints.Constraints) error {
	if r := v.DisplayRotation(); r != 0 {
		return invalid("rotation", "%d degree rotation must be applied", r)
	}
	if v.VideoCodec != "h264" {
		return invalid("video_codec", "%q is not h264", v.VideoCodec)
	}
	if v.AudioCodec != "" && v.AudioCodec != "aac" {
		return invalid("audio_codec", "%q is not aac", v.AudioCodec)
	}
	if !containerSupported(v.Container) {
		return invalid("container", "%q is not mp4 or mov", v.Container)
	}
	if v.PixelFormat != "yuv420p" {
		return invalid("pixel_format", "%q is not yuv420p", v.PixelFormat)
	}
	if c.MinDuration > 0 && v.Duration < c.MinDuration {
		return invalid("duration", "%s is shorter than %s", v.Duration, c.MinDuration)
	}
	if c.MaxDuration > 0 && v.Duration > c.MaxDuration {
		return invalid("duration", "%s is longer than %s", v.Duration, c.MaxDuration)
	}
	if err := validateWidth(InputDimensions(v).Width, VideoMinWidth, VideoMaxWidth); err != nil {
		return err
	}
	if v.Size.Width%2 != 0 || v.Size.Height%2 != 0 {
		return invalid("size", "%s is not even on both axes", v.Size)
	}
	return validateRatio(v.AspectRatio(), c)
}

// containerSupported accepts ffprobe's comma separated format names
func containerSupported(container string) bool {
	for _, name := range strings.Split(container, ",") {
		for _, ok := range supportedContainers {
			if strings.TrimSpace(name) == ok {
				return true
			}
		}
	}
	return false
}
