package geometry

import (
	"fmt"
	"image"
	"math"
)

// Rounding selects how a scaled side is turned back into whole pixels
type Rounding int

const (
	Floor Rounding = iota
	Ceil
	Round
)

// noise absorbs float error left over from divisions such as
// 1080/(4032/3024), which lands a hair above 810.
const noise = 1e-9

// Apply rounds v with the selected mode
func (r Rounding) Apply(v float64) int {
	switch r {
	case Floor:
		return int(math.Floor(v + noise))
	case Ceil:
		return int(math.Ceil(v - noise))
	default:
		return int(math.Round(v))
	}
}

func (r Rounding) String() string {
	switch r {
	case Floor:
		return "floor"
	case Ceil:
		return "ceil"
	case Round:
		return "round"
	}
	return fmt.Sprintf("rounding(%d)", int(r))
}

// Dimensions is an immutable width/height pair in pixels
type Dimensions struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// NewDimensions returns a width/height pair
func NewDimensions(width, height int) Dimensions {
	return Dimensions{Width: width, Height: height}
}

// Valid reports whether both sides are strictly positive
func (d Dimensions) Valid() bool {
	return d.Width > 0 && d.Height > 0
}

// AspectRatio returns width/height as a float
func (d Dimensions) AspectRatio() float64 {
	return float64(d.Width) / float64(d.Height)
}

// WithRescaling multiplies both sides by scale; neither side drops below 1
func (d Dimensions) WithRescaling(scale float64, r Rounding) Dimensions {
	return Dimensions{
		Width:  atLeastOne(r.Apply(float64(d.Width) * scale)),
		Height: atLeastOne(r.Apply(float64(d.Height) * scale)),
	}
}

// WithSwappedAxes exchanges width and height
func (d Dimensions) WithSwappedAxes() Dimensions {
	return Dimensions{Width: d.Height, Height: d.Width}
}

func (d Dimensions) String() string {
	return fmt.Sprintf("%dx%d", d.Width, d.Height)
}

// Rectangle is an immutable pixel region
type Rectangle struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// NewRectangle returns a rectangle anchored at x,y
func NewRectangle(x, y, width, height int) Rectangle {
	return Rectangle{X: x, Y: y, Width: width, Height: height}
}

// X2 returns the exclusive right edge
func (r Rectangle) X2() int { return r.X + r.Width }

// Y2 returns the exclusive bottom edge
func (r Rectangle) Y2() int { return r.Y + r.Height }

// AspectRatio returns width/height as a float
func (r Rectangle) AspectRatio() float64 {
	return float64(r.Width) / float64(r.Height)
}

// Size returns the rectangle's dimensions
func (r Rectangle) Size() Dimensions {
	return Dimensions{Width: r.Width, Height: r.Height}
}

// WithRescaling rescales width and height, keeping the origin
func (r Rectangle) WithRescaling(scale float64, rounding Rounding) Rectangle {
	size := r.Size().WithRescaling(scale, rounding)
	return Rectangle{X: r.X, Y: r.Y, Width: size.Width, Height: size.Height}
}

// WithSwappedAxes exchanges the x/y origin together with width/height
func (r Rectangle) WithSwappedAxes() Rectangle {
	return Rectangle{X: r.Y, Y: r.X, Width: r.Height, Height: r.Width}
}

// Within reports whether r lies entirely inside a canvas of size d
func (r Rectangle) Within(d Dimensions) bool {
	return r.X >= 0 && r.Y >= 0 && r.X2() <= d.Width && r.Y2() <= d.Height
}

// Image converts the rectangle to the standard library representation
func (r Rectangle) Image() image.Rectangle {
	return image.Rect(r.X, r.Y, r.X2(), r.Y2())
}

func (r Rectangle) String() string {
	return fmt.Sprintf("%dx%d@%d,%d", r.Width, r.Height, r.X, r.Y)
}

func atLeastOne(v int) int {
	if v < 1 {
		return 1
	}
	return v
}
