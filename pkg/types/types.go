package types

// Box is a bounding box normalized to the [0,1] range of the image
type Box struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Center returns the middle of the box
func (b Box) Center() (float64, float64) {
	return b.X + b.W/2, b.Y + b.H/2
}

// Empty reports whether the box covers no area
func (b Box) Empty() bool {
	return b.W <= 0 || b.H <= 0
}

// Subject is the dominant subject a vision model located in an image.
// Cx and Cy are the normalized subject centre; they may be zero when the
// model only returned a box.
type Subject struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
	Box        Box     `json:"box"`
	Cx         float64 `json:"cx"`
	Cy         float64 `json:"cy"`
}

// Center returns the explicit centre when present and the box centre
// otherwise.
func (s Subject) Center() (float64, float64) {
	if s.Cx == 0 && s.Cy == 0 && !s.Box.Empty() {
		return s.Box.Center()
	}
	return s.Cx, s.Cy
}

// AnalysisResult is the decoded answer of a subject-location query
type AnalysisResult struct {
	Primary     Subject  `json:"primary"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	// Fallback is set when the model answer could not be used and the
	// result was synthesized locally.
	Fallback bool `json:"-"`
}

// FallbackResult is a centred placeholder for unusable model output
func FallbackResult(description string, tags ...string) *AnalysisResult {
	return &AnalysisResult{
		Primary: Subject{
			Label:      "none",
			Confidence: 0,
			Box:        Box{X: 0.25, Y: 0.25, W: 0.5, H: 0.5},
			Cx:         0.5,
			Cy:         0.5,
		},
		Description: description,
		Tags:        append([]string{"fallback"}, tags...),
		Fallback:    true,
	}
}
