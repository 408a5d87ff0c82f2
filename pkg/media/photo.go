package media

import (
	"github.com/menta2k/media-canvas/pkg/constraints"
	"github.com/menta2k/media-canvas/pkg/geometry"
)

const (
	PhotoMinWidth = 320
	PhotoMaxWidth = 1080
)

// Photo is a probed still image. Orientation is the EXIF orientation tag,
// 1 through 8; zero is treated as 1.
type Photo struct {
	Path        string              `json:"path"`
	Size        geometry.Dimensions `json:"size"`
	Format      string              `json:"format"`
	Orientation int                 `json:"orientation"`
}

func (p *Photo) Width() int  { return p.Size.Width }
func (p *Photo) Height() int { return p.Size.Height }

func (p *Photo) AspectRatio() float64 { return displayRatio(p) }

func (p *Photo) MinAllowedWidth() int { return PhotoMinWidth }
func (p *Photo) MaxAllowedWidth() int { return PhotoMaxWidth }

func (p *Photo) orientation() int {
	if p.Orientation < 1 || p.Orientation > 8 {
		return 1
	}
	return p.Orientation
}

// HasSwappedAxes is true for the orientations that rotate by 90 or 270 degrees
func (p *Photo) HasSwappedAxes() bool {
	switch p.orientation() {
	case 5, 6, 7, 8:
		return true
	}
	return false
}

func (p *Photo) IsHorizontallyFlipped() bool {
	switch p.orientation() {
	case 2, 3, 6, 7:
		return true
	}
	return false
}

func (p *Photo) IsVerticallyFlipped() bool {
	switch p.orientation() {
	case 3, 4, 7, 8:
		return true
	}
	return false
}

// Validate checks the photo can be uploaded without re-encoding
func (p *Photo) Validate(c constraints.Constraints) error {
	if o := p.orientation(); o != 1 {
		return invalid("orientation", "exif orientation %d must be applied", o)
	}
	if p.Format != "jpeg" {
		return invalid("format", "%q is not jpeg", p.Format)
	}
	if err := validateWidth(InputDimensions(p).Width, PhotoMinWidth, PhotoMaxWidth); err != nil {
		return err
	}
	return validateRatio(p.AspectRatio(), c)
}
