package canvas

import (
	"math"

	"github.com/menta2k/media-canvas/pkg/geometry"
)

// Candidate height offsets, in evaluation order. Earlier offsets win ties.
var mod2Offsets = []int{0, +2, -2, +4, -4, +6, -6}

type candidateKind int

const (
	// legal ratio, no upsampling
	kindPerfect candidateKind = iota
	// legal ratio, needs upsampling
	kindStretch
	// illegal ratio
	kindBad
)

type mod2Candidate struct {
	height    int
	ratio     float64
	deviation float64
	kind      candidateKind
}

// adjustMod2 moves width and height to even values while staying as close
// as possible to targetAspect.
func (c Calculator) adjustMod2(input geometry.Dimensions, useFloor bool, width, height int, targetAspect float64) (geometry.Dimensions, error) {
	canCutWidth := width > c.MinWidth
	step := 1
	if canCutWidth {
		step = -1
	}

	if width%2 != 0 {
		width += step
		height = AccurateHeight(useFloor, targetAspect, width)
	}
	// Makes the height even regardless of the ratio; the candidate search
	// below repairs the ratio.
	if height%2 != 0 {
		height += step
	}

	var best *mod2Candidate
	for _, offset := range mod2Offsets {
		h := height + offset
		if h < 1 {
			continue
		}
		cand := c.evaluate(input, width, h, targetAspect)
		if best == nil || cand.kind < best.kind || (cand.kind == best.kind && cand.deviation < best.deviation) {
			best = &cand
		}
	}

	if best == nil {
		return geometry.Dimensions{}, c.unreachable(geometry.NewDimensions(width, height), "no positive even height")
	}
	if best.kind == kindBad && !c.Policy.AllowDeviation {
		return geometry.Dimensions{}, c.unreachable(geometry.NewDimensions(width, best.height),
			"no even canvas satisfies the aspect ratio range")
	}
	return geometry.NewDimensions(width, best.height), nil
}

func (c Calculator) evaluate(input geometry.Dimensions, width, height int, targetAspect float64) mod2Candidate {
	ratio := float64(width) / float64(height)
	cand := mod2Candidate{
		height:    height,
		ratio:     ratio,
		deviation: math.Abs(ratio - targetAspect),
	}

	// A forced square stays exact; every other ratio only needs the range.
	legal := c.Policy.Contains(ratio)
	if c.Policy.ForceAspectRatio == 1.0 {
		legal = legal && ratio == 1.0
	}
	switch {
	case !legal:
		cand.kind = kindBad
	case height > input.Height:
		cand.kind = kindStretch
	default:
		cand.kind = kindPerfect
	}
	return cand
}
