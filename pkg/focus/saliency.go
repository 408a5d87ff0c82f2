package focus

import (
	"context"
	"image"

	"github.com/disintegration/imaging"

	"github.com/menta2k/media-canvas/pkg/transform"
)

// SaliencyConfig tunes the saliency estimator
type SaliencyConfig struct {
	// MaxSide bounds the analysed copy of the image
	MaxSide int
	// EdgeThreshold is the minimum window score accepted as a subject
	EdgeThreshold  float64
	ContrastWeight float64
	ColorWeight    float64
	// WindowRatio is the window side relative to the shorter image side
	WindowRatio float64
}

// DefaultSaliencyConfig returns the default tuning
func DefaultSaliencyConfig() SaliencyConfig {
	return SaliencyConfig{
		MaxSide:        256,
		EdgeThreshold:  0.01,
		ContrastWeight: 0.8,
		ColorWeight:    0.2,
		WindowRatio:    0.25,
	}
}

// Saliency locates the region with the most edges and contrast. It runs
// offline on a downscaled grayscale copy.
type Saliency struct {
	config SaliencyConfig
}

func NewSaliency() *Saliency {
	return &Saliency{config: DefaultSaliencyConfig()}
}

func NewSaliencyWithConfig(config SaliencyConfig) *Saliency {
	return &Saliency{config: config}
}

func (s *Saliency) Name() string { return "saliency" }

func (s *Saliency) Estimate(ctx context.Context, img image.Image) (transform.CropFocus, error) {
	if err := ctx.Err(); err != nil {
		return transform.CropFocus{}, err
	}
	cx, cy, ok := s.locate(img)
	if !ok {
		return transform.CropFocus{}, ErrNoSubject
	}
	return FromCenter(cx, cy), nil
}

// locate returns the normalized centre of the best scoring window
func (s *Saliency) locate(img image.Image) (float64, float64, bool) {
	small := imaging.Grayscale(imaging.Fit(img, s.config.MaxSide, s.config.MaxSide, imaging.Box))
	w, h := small.Bounds().Dx(), small.Bounds().Dy()
	if w < 3 || h < 3 {
		return 0, 0, false
	}

	table := summedArea(s.saliencyMap(small), w, h)

	win := int(float64(min(w, h)) * s.config.WindowRatio)
	win = max(win, 3)
	step := max(win/4, 1)

	best, bx, by := -1.0, 0, 0
	for y := 0; y+win <= h; y += step {
		for x := 0; x+win <= w; x += step {
			score := table.sum(x, y, win, win) / float64(win*win)
			if score > best {
				best, bx, by = score, x, y
			}
		}
	}
	if best < s.config.EdgeThreshold {
		return 0, 0, false
	}
	return (float64(bx) + float64(win)/2) / float64(w),
		(float64(by) + float64(win)/2) / float64(h), true
}

// saliencyMap combines neighbour differences with the distance from the
// mean brightness.
func (s *Saliency) saliencyMap(img *image.NRGBA) []float64 {
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	lum := make([]float64, w*h)
	mean := 0.0
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := float64(img.Pix[y*img.Stride+x*4]) / 255
			lum[y*w+x] = v
			mean += v
		}
	}
	mean /= float64(w * h)

	out := make([]float64, w*h)
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			c := lum[y*w+x]
			var edge float64
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					if dx == 0 && dy == 0 {
						continue
					}
					d := c - lum[(y+dy)*w+x+dx]
					if d < 0 {
						d = -d
					}
					edge += d
				}
			}
			contrast := c - mean
			if contrast < 0 {
				contrast = -contrast
			}
			out[y*w+x] = s.config.ContrastWeight*edge/8 + s.config.ColorWeight*contrast
		}
	}
	return out
}

type areaTable struct {
	w    int
	vals []float64
}

func summedArea(m []float64, w, h int) areaTable {
	t := areaTable{w: w + 1, vals: make([]float64, (w+1)*(h+1))}
	for y := 0; y < h; y++ {
		row := 0.0
		for x := 0; x < w; x++ {
			row += m[y*w+x]
			t.vals[(y+1)*t.w+x+1] = t.vals[y*t.w+x+1] + row
		}
	}
	return t
}

func (t areaTable) sum(x, y, w, h int) float64 {
	return t.vals[(y+h)*t.w+x+w] - t.vals[y*t.w+x+w] - t.vals[(y+h)*t.w+x] + t.vals[y*t.w+x]
}
