package transform

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/menta2k/media-canvas/pkg/canvas"
	"github.com/menta2k/media-canvas/pkg/geometry"
	"github.com/menta2k/media-canvas/pkg/mediaerr"
	"github.com/menta2k/media-canvas/pkg/policy"
)

type flips struct {
	horizontal, vertical bool
}

func (f flips) IsHorizontallyFlipped() bool { return f.horizontal }
func (f flips) IsVerticallyFlipped() bool   { return f.vertical }

func spec(w, h int) canvas.Spec {
	return canvas.Spec{Canvas: geometry.NewDimensions(w, h)}
}

func TestBuildCrop(t *testing.T) {
	tests := []struct {
		name        string
		input       geometry.Dimensions
		spec        canvas.Spec
		orientation Orientation
		focus       CropFocus
		wantSrc     geometry.Rectangle
	}{
		{
			name:    "focus -50 keeps the left edge",
			input:   geometry.NewDimensions(1100, 1000),
			spec:    spec(1000, 1000),
			focus:   CropFocus{Horizontal: -50},
			wantSrc: geometry.NewRectangle(0, 0, 1000, 1000),
		},
		{
			name:    "focus +50 keeps the right edge",
			input:   geometry.NewDimensions(1100, 1000),
			spec:    spec(1000, 1000),
			focus:   CropFocus{Horizontal: 50},
			wantSrc: geometry.NewRectangle(100, 0, 1000, 1000),
		},
		{
			name:    "centre focus splits the difference",
			input:   geometry.NewDimensions(1100, 1000),
			spec:    spec(1000, 1000),
			focus:   CropFocus{},
			wantSrc: geometry.NewRectangle(50, 0, 1000, 1000),
		},
		{
			name:        "horizontal flip mirrors the focus",
			input:       geometry.NewDimensions(1100, 1000),
			spec:        spec(1000, 1000),
			orientation: flips{horizontal: true},
			focus:       CropFocus{Horizontal: -50},
			wantSrc:     geometry.NewRectangle(100, 0, 1000, 1000),
		},
		{
			name:    "default focus keeps the top of a tall input",
			input:   geometry.NewDimensions(1080, 1920),
			spec:    spec(1080, 1350),
			focus:   DefaultCropFocus(),
			wantSrc: geometry.NewRectangle(0, 0, 1080, 1350),
		},
		{
			name:        "vertical flip keeps the bottom instead",
			input:       geometry.NewDimensions(1080, 1920),
			spec:        spec(1080, 1350),
			orientation: flips{vertical: true},
			focus:       DefaultCropFocus(),
			wantSrc:     geometry.NewRectangle(0, 570, 1080, 1350),
		},
		{
			name:    "scaled crop reprojects into input pixels",
			input:   geometry.NewDimensions(2160, 3840),
			spec:    spec(1080, 1350),
			focus:   CropFocus{Vertical: 0},
			wantSrc: geometry.NewRectangle(0, 570, 2160, 2700),
		},
		{
			name:    "mod2 padding is clamped to the input",
			input:   geometry.NewDimensions(1920, 1080),
			spec:    canvas.Spec{Canvas: geometry.NewDimensions(720, 406), Mod2HeightDiff: 1},
			focus:   DefaultCropFocus(),
			wantSrc: geometry.NewRectangle(0, 0, 1920, 1080),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Build(canvas.Crop, tt.input, tt.spec, tt.orientation, tt.focus)
			require.NoError(t, err)

			want := Plan{
				Src:    tt.wantSrc,
				Dst:    geometry.NewRectangle(0, 0, tt.spec.Canvas.Width, tt.spec.Canvas.Height),
				Canvas: tt.spec.Canvas,
			}
			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("Build mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestBuildExpand(t *testing.T) {
	tests := []struct {
		name    string
		input   geometry.Dimensions
		spec    canvas.Spec
		wantDst geometry.Rectangle
	}{
		{
			name:    "tall input is pillarboxed",
			input:   geometry.NewDimensions(1080, 1920),
			spec:    spec(1080, 1350),
			wantDst: geometry.NewRectangle(160, 0, 760, 1350),
		},
		{
			name:    "wide input is letterboxed",
			input:   geometry.NewDimensions(3000, 1000),
			spec:    spec(1080, 566),
			wantDst: geometry.NewRectangle(0, 103, 1080, 360),
		},
		{
			name:    "small input is scaled up to fit",
			input:   geometry.NewDimensions(100, 200),
			spec:    spec(400, 400),
			wantDst: geometry.NewRectangle(100, 0, 200, 400),
		},
		{
			name:    "exact fit fills the canvas",
			input:   geometry.NewDimensions(640, 480),
			spec:    spec(640, 480),
			wantDst: geometry.NewRectangle(0, 0, 640, 480),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Build(canvas.Expand, tt.input, tt.spec, nil, DefaultCropFocus())
			require.NoError(t, err)

			assert.Equal(t, geometry.NewRectangle(0, 0, tt.input.Width, tt.input.Height), got.Src)
			assert.Equal(t, tt.wantDst, got.Dst)
			assert.Equal(t, tt.spec.Canvas, got.Canvas)
		})
	}
}

func TestBuildContainment(t *testing.T) {
	inputs := []geometry.Dimensions{
		{Width: 1, Height: 1},
		{Width: 333, Height: 2001},
		{Width: 1920, Height: 1080},
		{Width: 1080, Height: 1920},
		{Width: 4032, Height: 3024},
		{Width: 5000, Height: 800},
		{Width: 639, Height: 1136},
	}
	policies := []policy.Policy{
		{MinAspectRatio: 0.8, MaxAspectRatio: 1.91},
		{MinAspectRatio: 0.56, MaxAspectRatio: 0.67, ForceAspectRatio: 0.5625, UserForced: true},
		{MinAspectRatio: 0.8, MaxAspectRatio: 1.91, ForceAspectRatio: 1.0, UserForced: true},
	}
	focuses := []CropFocus{{-50, -50}, {0, 0}, {50, 50}, DefaultCropFocus()}

	for _, p := range policies {
		for _, mod2 := range []bool{false, true} {
			calc := canvas.Calculator{Policy: p, MinWidth: 480, MaxWidth: 1080, Mod2Required: mod2}
			for _, op := range []canvas.Operation{canvas.Crop, canvas.Expand} {
				for _, input := range inputs {
					s, err := calc.Calculate(op, input)
					if err != nil {
						continue
					}
					for _, focus := range focuses {
						plan, err := Build(op, input, s, flips{horizontal: true}, focus)
						require.NoError(t, err)

						if op == canvas.Crop {
							assert.True(t, plan.Src.Within(input), "src %s escapes input %s", plan.Src, input)
							assert.Equal(t, geometry.NewRectangle(0, 0, s.Canvas.Width, s.Canvas.Height), plan.Dst)
						} else {
							assert.True(t, plan.Dst.Within(s.Canvas), "dst %s escapes canvas %s", plan.Dst, s.Canvas)
						}
						assert.GreaterOrEqual(t, plan.Src.Width, 1)
						assert.GreaterOrEqual(t, plan.Src.Height, 1)
					}
				}
			}
		}
	}
}

func TestBuildInvalidInput(t *testing.T) {
	_, err := Build(canvas.Crop, geometry.NewDimensions(0, 10), spec(10, 10), nil, CropFocus{})
	assert.True(t, errors.Is(err, mediaerr.ErrInvalidInput))

	_, err = Build(canvas.Operation(7), geometry.NewDimensions(10, 10), spec(10, 10), nil, CropFocus{})
	assert.True(t, errors.Is(err, mediaerr.ErrInvalidInput))

	_, err = Build(canvas.Crop, geometry.NewDimensions(10, 10), spec(10, 10), nil, CropFocus{Vertical: 51})
	assert.True(t, errors.Is(err, mediaerr.ErrInvalidInput))
}

func TestPlanWithSwappedAxes(t *testing.T) {
	p := Plan{
		Src:    geometry.NewRectangle(0, 570, 1080, 1350),
		Dst:    geometry.NewRectangle(0, 0, 1080, 1350),
		Canvas: geometry.NewDimensions(1080, 1350),
	}
	swapped := p.WithSwappedAxes()
	assert.Equal(t, geometry.NewRectangle(570, 0, 1350, 1080), swapped.Src)
	assert.Equal(t, geometry.NewDimensions(1350, 1080), swapped.Canvas)
	assert.Equal(t, p, swapped.WithSwappedAxes())
}
