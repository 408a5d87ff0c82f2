package transform

import (
	"fmt"

	"github.com/menta2k/media-canvas/pkg/canvas"
	"github.com/menta2k/media-canvas/pkg/geometry"
	"github.com/menta2k/media-canvas/pkg/mediaerr"
)

// CropFocus biases which side of a cropped axis is kept. Both values lie
// in [-50, 50]; 0 keeps the centre and negative values keep the left or
// top edge.
type CropFocus struct {
	Horizontal int `json:"horizontal"`
	Vertical   int `json:"vertical"`
}

// DefaultCropFocus centres horizontally and keeps the top edge, where
// faces usually are.
func DefaultCropFocus() CropFocus {
	return CropFocus{Horizontal: 0, Vertical: -50}
}

// Validate checks both values are within [-50, 50]
func (f CropFocus) Validate() error {
	if f.Horizontal < -50 || f.Horizontal > 50 {
		return mediaerr.InvalidInputf("horizontal crop focus %d must be within [-50, 50]", f.Horizontal)
	}
	if f.Vertical < -50 || f.Vertical > 50 {
		return mediaerr.InvalidInputf("vertical crop focus %d must be within [-50, 50]", f.Vertical)
	}
	return nil
}

// Orientation exposes the mirroring of the stored pixels
type Orientation interface {
	IsHorizontallyFlipped() bool
	IsVerticallyFlipped() bool
}

// Plan maps input pixels onto the output canvas
type Plan struct {
	Src    geometry.Rectangle  `json:"src"`
	Dst    geometry.Rectangle  `json:"dst"`
	Canvas geometry.Dimensions `json:"canvas"`
}

// WithSwappedAxes converts the plan between display and storage space for
// media stored rotated by 90 or 270 degrees.
func (p Plan) WithSwappedAxes() Plan {
	return Plan{
		Src:    p.Src.WithSwappedAxes(),
		Dst:    p.Dst.WithSwappedAxes(),
		Canvas: p.Canvas.WithSwappedAxes(),
	}
}

func (p Plan) String() string {
	return fmt.Sprintf("src=%s dst=%s canvas=%s", p.Src, p.Dst, p.Canvas)
}

// Build derives the source and destination rectangles for spec
func Build(op canvas.Operation, input geometry.Dimensions, spec canvas.Spec, orientation Orientation, focus CropFocus) (Plan, error) {
	if !input.Valid() {
		return Plan{}, mediaerr.InvalidInputf("input dimensions %s must be positive", input)
	}
	if !spec.Canvas.Valid() {
		return Plan{}, mediaerr.InvalidInputf("canvas %s must be positive", spec.Canvas)
	}
	if err := focus.Validate(); err != nil {
		return Plan{}, err
	}

	switch op {
	case canvas.Crop:
		return planCrop(input, spec, orientation, focus), nil
	case canvas.Expand:
		return planExpand(input, spec.Canvas), nil
	}
	return Plan{}, mediaerr.InvalidInputf("unknown operation %s", op)
}

func planCrop(input geometry.Dimensions, spec canvas.Spec, orientation Orientation, focus CropFocus) Plan {
	ideal := spec.Ideal()
	widthScale := float64(ideal.Width) / float64(input.Width)
	heightScale := float64(ideal.Height) / float64(input.Height)

	// The untouched axis carries the scale between input and canvas.
	var overallRescale float64
	switch idealRatio, inputRatio := ideal.AspectRatio(), input.AspectRatio(); {
	case idealRatio < inputRatio:
		overallRescale = heightScale
	case idealRatio > inputRatio:
		overallRescale = widthScale
	default:
		overallRescale = widthScale
	}

	inverse := 1 / overallRescale
	cropped := ideal.WithRescaling(inverse, geometry.Round)
	cropped.Width += geometry.Round.Apply(float64(spec.Mod2WidthDiff) * inverse)
	cropped.Height += geometry.Round.Apply(float64(spec.Mod2HeightDiff) * inverse)
	cropped.Width = clamp(cropped.Width, 1, input.Width)
	cropped.Height = clamp(cropped.Height, 1, input.Height)

	hor, ver := focus.Horizontal, focus.Vertical
	if orientation != nil && orientation.IsHorizontallyFlipped() {
		hor = -hor
	}
	if orientation != nil && orientation.IsVerticallyFlipped() {
		ver = -ver
	}

	x1, x2 := cropSpan(input.Width, cropped.Width, hor)
	y1, y2 := cropSpan(input.Height, cropped.Height, ver)

	return Plan{
		Src:    geometry.NewRectangle(x1, y1, x2-x1, y2-y1),
		Dst:    geometry.NewRectangle(0, 0, spec.Canvas.Width, spec.Canvas.Height),
		Canvas: spec.Canvas,
	}
}

// cropSpan returns the kept [start, end) range of an axis of length full
// when it is trimmed to length kept.
func cropSpan(full, kept, focus int) (int, int) {
	diff := full - kept
	if diff <= 0 {
		return 0, full
	}
	start := diff * (50 + focus) / 100
	return start, full - (diff - start)
}

func planExpand(input, canvasSize geometry.Dimensions) Plan {
	src := geometry.NewRectangle(0, 0, input.Width, input.Height)

	scale := min(
		float64(canvasSize.Width)/float64(input.Width),
		float64(canvasSize.Height)/float64(input.Height),
	)
	dst := src.WithRescaling(scale, geometry.Ceil)
	dst.Width = min(dst.Width, canvasSize.Width)
	dst.Height = min(dst.Height, canvasSize.Height)
	dst.X = (canvasSize.Width - dst.Width) / 2
	dst.Y = (canvasSize.Height - dst.Height) / 2

	return Plan{Src: src, Dst: dst, Canvas: canvasSize}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
