// Package mediaerr holds the errors shared by the canvas and policy layers.
package mediaerr

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput is returned before any computation when the input
	// dimensions, the policy or the operation cannot be used.
	ErrInvalidInput = errors.New("invalid input")

	// ErrCanvasUnreachable means no achievable canvas satisfies the
	// requested aspect ratio range and width bounds.
	ErrCanvasUnreachable = errors.New("canvas unreachable")
)

// InvalidInputf wraps ErrInvalidInput with a formatted reason
func InvalidInputf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// UnreachableError describes why a canvas could not be produced
type UnreachableError struct {
	Reason         string
	Width          int
	Height         int
	AchievedRatio  float64
	MinAspectRatio float64
	MaxAspectRatio float64
	MinWidth       int
	MaxWidth       int
}

func (e *UnreachableError) Error() string {
	return fmt.Sprintf("canvas unreachable: %s (canvas %dx%d, ratio %.4f, allowed ratio [%.4f, %.4f], allowed width [%d, %d])",
		e.Reason, e.Width, e.Height, e.AchievedRatio, e.MinAspectRatio, e.MaxAspectRatio, e.MinWidth, e.MaxWidth)
}

// Is lets errors.Is match ErrCanvasUnreachable
func (e *UnreachableError) Is(target error) bool {
	return target == ErrCanvasUnreachable
}
