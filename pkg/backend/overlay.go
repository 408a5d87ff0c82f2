package backend

import (
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
	xdraw "golang.org/x/image/draw"

	"github.com/menta2k/media-canvas/pkg/geometry"
	"github.com/menta2k/media-canvas/pkg/transform"
)

// DebugOverlay draws the plan over a display oriented copy of the input:
// the kept source region in gold, its centre in red and the image centre in
// blue. Next to it, scaled to the same height, it shows where the source
// lands on the canvas in green.
func DebugOverlay(img image.Image, plan transform.Plan) *image.NRGBA {
	src := imaging.Clone(img)
	w := src.Bounds().Dx()
	h := src.Bounds().Dy()

	gold := color.NRGBA{255, 204, 0, 255}
	red := color.NRGBA{255, 0, 0, 255}
	blue := color.NRGBA{0, 170, 255, 255}
	green := color.NRGBA{0, 255, 0, 255}
	stroke := int(math.Max(2, 0.004*float64(min(w, h))))
	cross := int(math.Max(4, 0.01*float64(min(w, h))))

	drawRect(src, plan.Src, gold, stroke)

	cx, cy := plan.Src.X+plan.Src.Width/2, plan.Src.Y+plan.Src.Height/2
	drawHLine(src, cy, cx-cross, cx+cross, red)
	drawVLine(src, cx, cy-cross, cy+cross, red)

	ix, iy := w/2, h/2
	drawHLine(src, iy, ix-6, ix+6, blue)
	drawVLine(src, ix, iy-6, iy+6, blue)

	// Canvas preview at the input's height
	scale := float64(h) / float64(plan.Canvas.Height)
	preview := plan.Canvas.WithRescaling(scale, geometry.Round)
	canvasImg := image.NewNRGBA(image.Rect(0, 0, preview.Width, preview.Height))
	xdraw.Draw(canvasImg, canvasImg.Bounds(), image.NewUniform(color.NRGBA{32, 32, 32, 255}), image.Point{}, xdraw.Src)
	dst := plan.Dst.WithRescaling(scale, geometry.Round)
	dst.X = int(math.Round(float64(plan.Dst.X) * scale))
	dst.Y = int(math.Round(float64(plan.Dst.Y) * scale))
	xdraw.ApproxBiLinear.Scale(canvasImg, dst.Image(), src, plan.Src.Image(), xdraw.Over, nil)
	drawRect(canvasImg, dst, green, stroke)

	out := imaging.New(w+preview.Width, max(h, preview.Height), color.NRGBA{0, 0, 0, 255})
	out = imaging.Paste(out, src, image.Pt(0, 0))
	return imaging.Paste(out, canvasImg, image.Pt(w, 0))
}

func drawRect(img *image.NRGBA, r geometry.Rectangle, c color.NRGBA, stroke int) {
	x0, y0, x1, y1 := r.X, r.Y, r.X2(), r.Y2()
	if x1 <= x0 {
		x1 = x0 + 1
	}
	if y1 <= y0 {
		y1 = y0 + 1
	}
	for s := 0; s < stroke; s++ {
		drawHLine(img, y0+s, x0, x1, c)
		drawHLine(img, y1-1-s, x0, x1, c)
		drawVLine(img, x0+s, y0, y1, c)
		drawVLine(img, x1-1-s, y0, y1, c)
	}
}

func drawHLine(img *image.NRGBA, y, x0, x1 int, c color.NRGBA) {
	if y < 0 || y >= img.Bounds().Dy() {
		return
	}
	if x0 > x1 {
		x0, x1 = x1, x0
	}
	x0 = max(x0, 0)
	x1 = min(x1, img.Bounds().Dx())
	for x := x0; x < x1; x++ {
		img.SetNRGBA(x, y, c)
	}
}

func drawVLine(img *image.NRGBA, x, y0, y1 int, c color.NRGBA) {
	if x < 0 || x >= img.Bounds().Dx() {
		return
	}
	if y0 > y1 {
		y0, y1 = y1, y0
	}
	y0 = max(y0, 0)
	y1 = min(y1, img.Bounds().Dy())
	for y := y0; y < y1; y++ {
		img.SetNRGBA(x, y, c)
	}
}
