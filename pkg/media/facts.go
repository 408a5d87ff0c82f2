// Package media describes probed photos and videos: their stored size,
// orientation and encoding, and whether they already satisfy an upload
// surface's constraints.
package media

import (
	"fmt"
	"math"

	"github.com/menta2k/media-canvas/pkg/constraints"
	"github.com/menta2k/media-canvas/pkg/geometry"
)

// Facts is what the canvas and transform layers need to know about a
// media file. Width and Height are the stored pixel dimensions;
// AspectRatio is the ratio as displayed.
type Facts interface {
	Width() int
	Height() int
	AspectRatio() float64
	MinAllowedWidth() int
	MaxAllowedWidth() int
	HasSwappedAxes() bool
	IsHorizontallyFlipped() bool
	IsVerticallyFlipped() bool
	Validate(c constraints.Constraints) error
}

// ValidationError names the first property that keeps a file from being
// uploaded as-is.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func invalid(field, format string, args ...interface{}) *ValidationError {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// InputDimensions returns the dimensions of f as displayed
func InputDimensions(f Facts) geometry.Dimensions {
	d := geometry.NewDimensions(f.Width(), f.Height())
	if f.HasSwappedAxes() {
		return d.WithSwappedAxes()
	}
	return d
}

func displayRatio(f Facts) float64 {
	return InputDimensions(f).AspectRatio()
}

func validateRatio(ratio float64, c constraints.Constraints) error {
	if c.MinAspectRatio > 0 && ratio < c.MinAspectRatio {
		return invalid("aspect_ratio", "%.4f is below %.4f", ratio, c.MinAspectRatio)
	}
	if c.MaxAspectRatio > 0 && ratio > c.MaxAspectRatio {
		return invalid("aspect_ratio", "%.4f is above %.4f", ratio, c.MaxAspectRatio)
	}
	return nil
}

func validateWidth(width, minWidth, maxWidth int) error {
	if width < minWidth || width > maxWidth {
		return invalid("width", "%d is outside [%d, %d]", width, minWidth, maxWidth)
	}
	return nil
}

// normalizeRotation maps any angle onto [0, 360)
func normalizeRotation(deg int) int {
	return ((deg % 360) + 360) % 360
}

func roundDegrees(f float64) int {
	return int(math.Round(f))
}
