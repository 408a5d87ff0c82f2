package backend

import (
	"context"
	"image"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/menta2k/media-canvas/internal/fileutil"
	"github.com/menta2k/media-canvas/pkg/canvas"
	"github.com/menta2k/media-canvas/pkg/geometry"
	"github.com/menta2k/media-canvas/pkg/media"
)

// Photo renders still images in process
type Photo struct {
	Format    string
	Quality   int
	BlurSigma float64
	TempDir   string
	Logger    *zap.Logger
}

// NewPhoto creates a photo backend writing JPEG at quality 95
func NewPhoto(logger *zap.Logger) *Photo {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Photo{Format: "jpeg", Quality: 95, BlurSigma: 20, Logger: logger}
}

func (p *Photo) Name() string       { return "photo" }
func (p *Photo) Mod2Required() bool { return false }

func (p *Photo) CreateOutputFile(ctx context.Context, r Render) (*fileutil.TempFile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	src, err := LoadImage(r.Input)
	if err != nil {
		return nil, err
	}

	out, err := p.RenderImage(src, r)
	if err != nil {
		return nil, err
	}

	tmp, err := fileutil.Create(p.TempDir, "photo", extension(p.Format))
	if err != nil {
		return nil, err
	}
	if err := SaveImage(out, tmp.Path(), p.Format, p.Quality); err != nil {
		_ = tmp.Cleanup()
		return nil, err
	}

	p.logger().Debug("photo rendered",
		zap.String("input", r.Input),
		zap.String("plan", r.Plan.String()),
		zap.String("output", tmp.Path()),
	)
	return tmp, nil
}

// RenderImage applies the plan to the stored pixels of src and returns the
// canvas in display orientation.
func (p *Photo) RenderImage(src image.Image, r Render) (*image.NRGBA, error) {
	plan := storagePlan(r)
	b := src.Bounds()
	if !plan.Src.Within(geometry.NewDimensions(b.Dx(), b.Dy())) {
		return nil, errors.Errorf("source rectangle %s exceeds image %dx%d", plan.Src, b.Dx(), b.Dy())
	}

	region := imaging.Crop(src, plan.Src.Image().Add(b.Min))
	scaled := imaging.Resize(region, plan.Dst.Width, plan.Dst.Height, imaging.Lanczos)

	var bg *image.NRGBA
	if r.Operation == canvas.Expand && r.BlurredBorder {
		bg = imaging.Fill(src, plan.Canvas.Width, plan.Canvas.Height, imaging.Center, imaging.Linear)
		bg = imaging.Blur(bg, p.BlurSigma)
	} else {
		bg = imaging.New(plan.Canvas.Width, plan.Canvas.Height, r.Background)
	}

	out := imaging.Paste(bg, scaled, image.Pt(plan.Dst.X, plan.Dst.Y))
	return orient(out, exifOrientation(r.Facts)), nil
}

func (p *Photo) logger() *zap.Logger {
	if p.Logger == nil {
		return zap.NewNop()
	}
	return p.Logger
}

func exifOrientation(f media.Facts) int {
	if photo, ok := f.(*media.Photo); ok {
		return photo.Orientation
	}
	return 1
}

// orient turns stored pixels into display orientation
func orient(img *image.NRGBA, orientation int) *image.NRGBA {
	switch orientation {
	case 2:
		return imaging.FlipH(img)
	case 3:
		return imaging.Rotate180(img)
	case 4:
		return imaging.FlipV(img)
	case 5:
		return imaging.Transpose(img)
	case 6:
		return imaging.Rotate270(img)
	case 7:
		return imaging.Transverse(img)
	case 8:
		return imaging.Rotate90(img)
	}
	return img
}

// SaveDebugOverlay writes DebugOverlay for r to path as PNG
func (p *Photo) SaveDebugOverlay(r Render, path string) error {
	src, err := LoadImage(r.Input)
	if err != nil {
		return err
	}
	display := orient(imaging.Clone(src), exifOrientation(r.Facts))
	return SaveImage(DebugOverlay(display, r.Plan), path, "png", 0)
}
