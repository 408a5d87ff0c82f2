// Package focus chooses the crop focus that decides which part of an
// image survives a Crop. Estimators look at a decoded frame in display
// orientation and return a transform.CropFocus.
package focus

import (
	"context"
	"image"
	"math"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/menta2k/media-canvas/pkg/transform"
)

// ErrNoSubject is returned when an estimator cannot find anything worth
// keeping in view.
var ErrNoSubject = errors.New("no subject found")

// Estimator picks a crop focus for an image in display orientation
type Estimator interface {
	Name() string
	Estimate(ctx context.Context, img image.Image) (transform.CropFocus, error)
}

// FromCenter maps a normalized subject centre to a crop focus. A subject
// at 0.5 keeps the centre, one at 0 keeps the left or top edge.
func FromCenter(cx, cy float64) transform.CropFocus {
	return transform.CropFocus{
		Horizontal: toFocus(cx),
		Vertical:   toFocus(cy),
	}
}

func toFocus(v float64) int {
	if math.IsNaN(v) {
		return 0
	}
	return int(math.Round((clamp(v, 0, 1) - 0.5) * 100))
}

// Fixed always returns the same focus
type Fixed struct {
	Focus transform.CropFocus
}

func (f Fixed) Name() string { return "fixed" }

func (f Fixed) Estimate(ctx context.Context, _ image.Image) (transform.CropFocus, error) {
	return f.Focus, ctx.Err()
}

// Fallback tries Primary and uses Secondary when it fails for any reason
// other than cancellation.
type Fallback struct {
	Primary   Estimator
	Secondary Estimator
	Logger    *zap.Logger
}

func (f Fallback) Name() string {
	return f.Primary.Name() + "+" + f.Secondary.Name()
}

func (f Fallback) Estimate(ctx context.Context, img image.Image) (transform.CropFocus, error) {
	focus, err := f.Primary.Estimate(ctx, img)
	if err == nil {
		return focus, nil
	}
	if ctx.Err() != nil {
		return transform.CropFocus{}, ctx.Err()
	}
	if f.Logger != nil {
		f.Logger.Debug("focus estimator fell back",
			zap.String("estimator", f.Primary.Name()),
			zap.String("fallback", f.Secondary.Name()),
			zap.Error(err))
	}
	return f.Secondary.Estimate(ctx, img)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
