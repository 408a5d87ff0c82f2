// Package client defines the vision model interface used for subject
// location and the response parsing shared by its implementations.
package client

import (
	"context"

	"github.com/menta2k/media-canvas/pkg/types"
)

// VisionClient is implemented by every vision model backend
type VisionClient interface {
	SimpleQuery(ctx context.Context, model, prompt, imgB64 string) (string, error)
	AnalyzeImage(ctx context.Context, model, prompt, imgB64 string) (*types.AnalysisResult, error)
}
