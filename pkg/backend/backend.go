// Package backend renders a planned transform into an output file. Photos
// are resampled in process with imaging; videos and thumbnails are
// rendered by ffmpeg.
package backend

import (
	"context"
	"fmt"
	"image/color"
	"time"

	"github.com/menta2k/media-canvas/internal/fileutil"
	"github.com/menta2k/media-canvas/pkg/canvas"
	"github.com/menta2k/media-canvas/pkg/media"
	"github.com/menta2k/media-canvas/pkg/transform"
)

// Render is everything a backend needs to produce one output file. Plan is
// expressed in display space; backends convert it to storage space
// themselves.
type Render struct {
	Input         string
	Operation     canvas.Operation
	Plan          transform.Plan
	Facts         media.Facts
	Background    color.NRGBA
	BlurredBorder bool

	// Feed and ThumbnailAt only matter to the thumbnail backend. A nil
	// ThumbnailAt picks the timestamp from the feed.
	Feed        string
	ThumbnailAt *time.Duration
}

// Backend produces an output file of exactly Plan.Canvas pixels. The
// returned file is removed by Cleanup unless the caller keeps it.
type Backend interface {
	Name() string
	Mod2Required() bool
	CreateOutputFile(ctx context.Context, r Render) (*fileutil.TempFile, error)
}

// storagePlan converts the display space plan to the pixel layout of the
// stored file.
func storagePlan(r Render) transform.Plan {
	if r.Facts != nil && r.Facts.HasSwappedAxes() {
		return r.Plan.WithSwappedAxes()
	}
	return r.Plan
}

func hexColor(c color.NRGBA) string {
	return fmt.Sprintf("0x%02X%02X%02X", c.R, c.G, c.B)
}

// DefaultBackground is white
var DefaultBackground = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
