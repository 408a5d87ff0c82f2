package canvas

import (
	"math"

	"github.com/menta2k/media-canvas/pkg/geometry"
	"github.com/menta2k/media-canvas/pkg/mediaerr"
	"github.com/menta2k/media-canvas/pkg/policy"
)

// Spec is the computed output canvas. The Mod2 diffs record how many
// pixels the even-size adjustment added (positive) or removed (negative)
// relative to the ideal canvas.
type Spec struct {
	Canvas         geometry.Dimensions `json:"canvas"`
	Mod2WidthDiff  int                 `json:"mod2_width_diff"`
	Mod2HeightDiff int                 `json:"mod2_height_diff"`
}

// Ideal returns the canvas as it was before the Mod2 adjustment
func (s Spec) Ideal() geometry.Dimensions {
	return geometry.Dimensions{
		Width:  s.Canvas.Width - s.Mod2WidthDiff,
		Height: s.Canvas.Height - s.Mod2HeightDiff,
	}
}

// Calculator computes legal output canvases for one kind of media
type Calculator struct {
	Policy       policy.Policy
	MinWidth     int
	MaxWidth     int
	Mod2Required bool
}

// Calculate returns the canvas the input must be transformed to. It is a
// pure function of its receiver and arguments.
func (c Calculator) Calculate(op Operation, input geometry.Dimensions) (Spec, error) {
	if err := c.validate(op, input); err != nil {
		return Spec{}, err
	}

	p := c.Policy
	width, height := input.Width, input.Height
	targetAspect := input.AspectRatio()

	switch {
	case c.belowRange(targetAspect):
		targetAspect = c.correction(p.MinAspectRatio)
		if op == Crop {
			height = geometry.Floor.Apply(float64(width) / targetAspect)
		} else {
			width = geometry.Ceil.Apply(float64(height) * targetAspect)
		}
	case c.aboveRange(targetAspect):
		targetAspect = c.correction(p.MaxAspectRatio)
		if op == Crop {
			width = geometry.Floor.Apply(float64(height) * targetAspect)
		} else {
			height = geometry.Ceil.Apply(float64(width) / targetAspect)
		}
	}

	// The rounding direction is fixed here and reused for every later
	// height recalculation so the ratio stays on the legal side of the
	// nearest bound.
	useFloor := math.Abs(p.MinOrZero()-targetAspect) <= math.Abs(p.MaxOrInf()-targetAspect)

	if targetAspect == 1.0 && width != height {
		if op == Crop {
			width = min(width, height)
		} else {
			width = max(width, height)
		}
		height = width
	}

	if width < c.MinWidth {
		width = c.MinWidth
		height = AccurateHeight(useFloor, targetAspect, width)
	} else if width > c.MaxWidth {
		width = c.MaxWidth
		height = AccurateHeight(useFloor, targetAspect, width)
	}

	spec := Spec{}
	if c.Mod2Required && (width%2 != 0 || height%2 != 0) {
		adjusted, err := c.adjustMod2(input, useFloor, width, height, targetAspect)
		if err != nil {
			return Spec{}, err
		}
		spec.Mod2WidthDiff = adjusted.Width - width
		spec.Mod2HeightDiff = adjusted.Height - height
		width, height = adjusted.Width, adjusted.Height
	}
	spec.Canvas = geometry.NewDimensions(width, height)

	if err := c.check(spec.Canvas); err != nil {
		return Spec{}, err
	}
	return spec, nil
}

// AccurateHeight derives a height from a width and a target ratio. It is
// the only place a height is computed from a ratio, so the rounding bias
// is the same everywhere.
func AccurateHeight(useFloor bool, targetAspect float64, width int) int {
	if useFloor {
		return geometry.Floor.Apply(float64(width) / targetAspect)
	}
	return geometry.Ceil.Apply(float64(width) / targetAspect)
}

func (c Calculator) validate(op Operation, input geometry.Dimensions) error {
	if !op.Valid() {
		return mediaerr.InvalidInputf("unknown operation %s", op)
	}
	if !input.Valid() {
		return mediaerr.InvalidInputf("input dimensions %s must be positive", input)
	}
	if c.MinWidth < 1 || c.MaxWidth < c.MinWidth {
		return mediaerr.InvalidInputf("width bounds [%d, %d] are inconsistent", c.MinWidth, c.MaxWidth)
	}
	return c.Policy.Validate()
}

func (c Calculator) belowRange(ratio float64) bool {
	if c.Policy.HasForce() {
		return ratio < c.Policy.ForceAspectRatio
	}
	return c.Policy.HasMin() && ratio < c.Policy.MinAspectRatio
}

func (c Calculator) aboveRange(ratio float64) bool {
	if c.Policy.HasForce() {
		return ratio > c.Policy.ForceAspectRatio
	}
	return c.Policy.HasMax() && ratio > c.Policy.MaxAspectRatio
}

func (c Calculator) correction(bound float64) float64 {
	if c.Policy.HasForce() {
		return c.Policy.ForceAspectRatio
	}
	return bound
}

func (c Calculator) check(canvas geometry.Dimensions) error {
	switch {
	case !canvas.Valid():
		return c.unreachable(canvas, "canvas has an empty side")
	case canvas.Width < c.MinWidth || canvas.Width > c.MaxWidth:
		return c.unreachable(canvas, "width is out of range")
	case !c.Policy.AllowDeviation && !c.Policy.Contains(canvas.AspectRatio()):
		return c.unreachable(canvas, "aspect ratio is out of range")
	}
	return nil
}

func (c Calculator) unreachable(canvas geometry.Dimensions, reason string) error {
	ratio := 0.0
	if canvas.Height > 0 {
		ratio = canvas.AspectRatio()
	}
	return &mediaerr.UnreachableError{
		Reason:         reason,
		Width:          canvas.Width,
		Height:         canvas.Height,
		AchievedRatio:  ratio,
		MinAspectRatio: c.Policy.MinOrZero(),
		MaxAspectRatio: c.Policy.MaxOrInf(),
		MinWidth:       c.MinWidth,
		MaxWidth:       c.MaxWidth,
	}
}
