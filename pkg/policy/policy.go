package policy

import (
	"math"

	"github.com/menta2k/media-canvas/pkg/constraints"
	"github.com/menta2k/media-canvas/pkg/mediaerr"
)

// Policy is the aspect ratio policy resolved for a single request.
// A zero ratio means the bound is unset.
type Policy struct {
	MinAspectRatio   float64 `json:"min_aspect_ratio,omitempty"`
	MaxAspectRatio   float64 `json:"max_aspect_ratio,omitempty"`
	ForceAspectRatio float64 `json:"force_aspect_ratio,omitempty"`
	UserForced       bool    `json:"user_forced"`
	AllowDeviation   bool    `json:"allow_deviation"`

	Constraints constraints.Constraints `json:"constraints"`
}

// Options are the aspect ratio related request options
type Options struct {
	MinAspectRatio          float64
	MaxAspectRatio          float64
	ForceAspectRatio        float64
	UseRecommendedRatio     *bool
	AllowNewAspectDeviation bool
}

func (p Policy) HasMin() bool   { return p.MinAspectRatio > 0 }
func (p Policy) HasMax() bool   { return p.MaxAspectRatio > 0 }
func (p Policy) HasForce() bool { return p.ForceAspectRatio > 0 }

// MinOrZero returns the lower bound, 0 when unset
func (p Policy) MinOrZero() float64 {
	return p.MinAspectRatio
}

// MaxOrInf returns the upper bound, +Inf when unset
func (p Policy) MaxOrInf() float64 {
	if !p.HasMax() {
		return math.Inf(1)
	}
	return p.MaxAspectRatio
}

// Contains reports whether ratio lies inside the configured bounds
func (p Policy) Contains(ratio float64) bool {
	if p.HasMin() && ratio < p.MinAspectRatio {
		return false
	}
	if p.HasMax() && ratio > p.MaxAspectRatio {
		return false
	}
	return true
}

// ForceTolerance is the band accepted around a forced ratio other than 1:1
const ForceTolerance = 0.003

// MatchesForce reports whether ratio satisfies the forced ratio. A forced
// square must be exact; any other forced ratio accepts ±ForceTolerance.
// Without a forced ratio every ratio matches.
func (p Policy) MatchesForce(ratio float64) bool {
	if !p.HasForce() {
		return true
	}
	if p.ForceAspectRatio == 1.0 {
		return ratio == 1.0
	}
	return math.Abs(ratio-p.ForceAspectRatio) <= ForceTolerance
}

// Validate rejects inconsistent policies
func (p Policy) Validate() error {
	if p.MinAspectRatio < 0 || p.MaxAspectRatio < 0 || p.ForceAspectRatio < 0 {
		return mediaerr.InvalidInputf("aspect ratios must not be negative")
	}
	if p.HasMin() && p.HasMax() && p.MinAspectRatio > p.MaxAspectRatio {
		return mediaerr.InvalidInputf("min aspect ratio %.4f exceeds max aspect ratio %.4f",
			p.MinAspectRatio, p.MaxAspectRatio)
	}
	if p.UserForced {
		if !p.HasForce() {
			return mediaerr.InvalidInputf("forced aspect ratio is missing")
		}
		if !p.Contains(p.ForceAspectRatio) {
			return mediaerr.InvalidInputf("forced aspect ratio %.4f is outside [%.4f, %.4f]",
				p.ForceAspectRatio, p.MinOrZero(), p.MaxOrInf())
		}
	}
	return nil
}

// Resolve combines the surface constraints with the request options
func Resolve(c constraints.Constraints, o Options) (Policy, error) {
	p := Policy{
		MinAspectRatio: c.MinAspectRatio,
		MaxAspectRatio: c.MaxAspectRatio,
		AllowDeviation: o.AllowNewAspectDeviation,
		Constraints:    c,
	}

	if o.MinAspectRatio != 0 {
		if o.MinAspectRatio < c.MinAspectRatio || o.MinAspectRatio > c.MaxAspectRatio {
			return Policy{}, mediaerr.InvalidInputf("min aspect ratio %.4f must be within [%.4f, %.4f] for %s",
				o.MinAspectRatio, c.MinAspectRatio, c.MaxAspectRatio, c.Title)
		}
		p.MinAspectRatio = o.MinAspectRatio
	}
	if o.MaxAspectRatio != 0 {
		if o.MaxAspectRatio < c.MinAspectRatio || o.MaxAspectRatio > c.MaxAspectRatio {
			return Policy{}, mediaerr.InvalidInputf("max aspect ratio %.4f must be within [%.4f, %.4f] for %s",
				o.MaxAspectRatio, c.MinAspectRatio, c.MaxAspectRatio, c.Title)
		}
		p.MaxAspectRatio = o.MaxAspectRatio
	}

	useRecommended := c.UseRecommendedRatioByDefault
	if o.UseRecommendedRatio != nil {
		useRecommended = *o.UseRecommendedRatio
	}

	switch {
	case o.ForceAspectRatio != 0:
		p.ForceAspectRatio = o.ForceAspectRatio
		p.UserForced = true
	case useRecommended && c.RecommendedRatio > 0:
		p.ForceAspectRatio = c.RecommendedRatio
		p.MinAspectRatio = math.Max(p.MinAspectRatio, c.RecommendedRatio-c.RecommendedRatioDeviation)
		p.MaxAspectRatio = math.Min(p.MaxAspectRatio, c.RecommendedRatio+c.RecommendedRatioDeviation)
	}

	if err := p.Validate(); err != nil {
		return Policy{}, err
	}
	return p, nil
}
