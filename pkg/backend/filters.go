package backend

import (
	"fmt"
	"strings"

	"github.com/menta2k/media-canvas/pkg/canvas"
	"github.com/menta2k/media-canvas/pkg/media"
)

// DefaultBoxBlur is the boxblur luma radius used for blurred borders
const DefaultBoxBlur = 20

// filterGraph builds the -filter_complex graph for r. The graph reads the
// stored frames ([0:v]), applies the storage space plan, rotates the result
// into display orientation and labels it [v].
func filterGraph(r Render, boxBlur int) string {
	p := storagePlan(r)
	rotate := rotationFilters(r.Facts)

	var graph string
	switch {
	case r.Operation == canvas.Crop:
		graph = fmt.Sprintf("[0:v]crop=%d:%d:%d:%d,scale=%d:%d,setsar=1",
			p.Src.Width, p.Src.Height, p.Src.X, p.Src.Y,
			p.Dst.Width, p.Dst.Height)
	case r.BlurredBorder:
		if boxBlur <= 0 {
			boxBlur = DefaultBoxBlur
		}
		graph = fmt.Sprintf("[0:v]split=2[bg][fg];"+
			"[bg]scale=%d:%d:force_original_aspect_ratio=increase,crop=%d:%d,boxblur=%d:5[blur];"+
			"[fg]scale=%d:%d[fit];"+
			"[blur][fit]overlay=%d:%d,setsar=1",
			p.Canvas.Width, p.Canvas.Height, p.Canvas.Width, p.Canvas.Height, boxBlur,
			p.Dst.Width, p.Dst.Height,
			p.Dst.X, p.Dst.Y)
	default:
		graph = fmt.Sprintf("[0:v]scale=%d:%d,pad=%d:%d:%d:%d:color=%s,setsar=1",
			p.Dst.Width, p.Dst.Height,
			p.Canvas.Width, p.Canvas.Height, p.Dst.X, p.Dst.Y,
			hexColor(r.Background))
	}

	if len(rotate) > 0 {
		graph += "," + strings.Join(rotate, ",")
	}
	return graph + "[v]"
}

// rotationFilters turns frames decoded with -noautorotate upright
func rotationFilters(f media.Facts) []string {
	v, ok := f.(*media.Video)
	if !ok {
		return nil
	}
	switch v.DisplayRotation() {
	case 90:
		return []string{"transpose=1"}
	case 180:
		return []string{"hflip", "vflip"}
	case 270:
		return []string{"transpose=2"}
	}
	return nil
}
