// Package decision decides whether a media file needs any processing at
// all before it can be uploaded to a surface.
package decision

import (
	"fmt"

	"github.com/menta2k/media-canvas/pkg/constraints"
	"github.com/menta2k/media-canvas/pkg/policy"
)

// Facts is the part of the probed media the decision looks at
type Facts interface {
	AspectRatio() float64
	Validate(c constraints.Constraints) error
}

// Decision is the outcome of Check. Reason is empty when no processing is
// needed.
type Decision struct {
	Process bool   `json:"process"`
	Reason  string `json:"reason,omitempty"`
}

// Check reports whether facts must be processed to satisfy p
func Check(facts Facts, p policy.Policy) Decision {
	ratio := facts.AspectRatio()

	if p.HasMin() && ratio < p.MinAspectRatio {
		return Decision{Process: true, Reason: fmt.Sprintf("aspect ratio %.4f is below %.4f", ratio, p.MinAspectRatio)}
	}
	if p.HasMax() && ratio > p.MaxAspectRatio {
		return Decision{Process: true, Reason: fmt.Sprintf("aspect ratio %.4f is above %.4f", ratio, p.MaxAspectRatio)}
	}

	if p.UserForced && !p.MatchesForce(ratio) {
		if p.ForceAspectRatio == 1.0 {
			return Decision{Process: true, Reason: fmt.Sprintf("aspect ratio %.4f is not square", ratio)}
		}
		return Decision{Process: true, Reason: fmt.Sprintf("aspect ratio %.4f is not %.4f", ratio, p.ForceAspectRatio)}
	}

	// Validation failures are a reason to process, never an error.
	if err := facts.Validate(p.Constraints); err != nil {
		return Decision{Process: true, Reason: err.Error()}
	}
	return Decision{}
}

// ShouldProcess is Check reduced to its boolean outcome
func ShouldProcess(facts Facts, p policy.Policy) bool {
	return Check(facts, p).Process
}
