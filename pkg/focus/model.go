package focus

import (
	"bytes"
	"context"
	"encoding/base64"
	"image"
	"image/jpeg"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/menta2k/media-canvas/pkg/client"
	"github.com/menta2k/media-canvas/pkg/transform"
	"github.com/menta2k/media-canvas/pkg/types"
)

// DefaultPrompt asks the model to locate the dominant subject
const DefaultPrompt = `You are an image subject locator.

Return JSON only:
{
  "primary": {
    "label": "string",
    "confidence": 0.0,
    "box": {"x": 0.0, "y": 0.0, "w": 0.0, "h": 0.0},
    "cx": 0.0,
    "cy": 0.0
  },
  "description": "short neutral sentence (≤ 20 words)",
  "tags": ["tag1", "tag2", "tag3"]
}

HARD RULES
- All coordinates are normalized to [0,1] (NOT pixels).
- cx and cy are the centre of the subject, the point that must stay visible if the image is cropped.
- The box should tightly include the visually dominant subject (prefer people/vehicles/animals; else the most salient object).
- Do not guess real identities.
- If no subject is found, return label "none" with confidence 0.0.
- JSON only. No markdown, no code fences, no comments, no trailing commas.`

const (
	DefaultModelMaxSide  = 768
	DefaultModelQuality  = 85
	DefaultMinConfidence = 0.2
)

// fallbackIndicators mark labels or descriptions of answers that carry no
// real subject.
var fallbackIndicators = []string{"unclear", "empty", "parse", "error", "fallback", "non-json", "generic"}

// Model asks a vision model where the subject of the image is
type Model struct {
	Client        client.VisionClient
	Model         string
	Prompt        string
	MaxSide       int
	Quality       int
	MinConfidence float64
	// Timeout bounds a single query, zero leaves it to the client
	Timeout       time.Duration
	Logger        *zap.Logger
}

func NewModel(vc client.VisionClient, model string, logger *zap.Logger) *Model {
	return &Model{
		Client:        vc,
		Model:         model,
		Prompt:        DefaultPrompt,
		MaxSide:       DefaultModelMaxSide,
		Quality:       DefaultModelQuality,
		MinConfidence: DefaultMinConfidence,
		Logger:        logger,
	}
}

func (m *Model) Name() string { return "model" }

func (m *Model) Estimate(ctx context.Context, img image.Image) (transform.CropFocus, error) {
	encoded, sent, err := PrepareImageForModel(img, m.MaxSide, m.Quality)
	if err != nil {
		return transform.CropFocus{}, err
	}

	if m.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.Timeout)
		defer cancel()
	}

	result, err := m.Client.AnalyzeImage(ctx, m.Model, m.Prompt, encoded)
	if err != nil {
		return transform.CropFocus{}, errors.Wrap(err, "subject detection")
	}
	if !m.usable(result) {
		return transform.CropFocus{}, ErrNoSubject
	}

	cx, cy := normalizeCenter(result.Primary, sent)
	focus := FromCenter(cx, cy)
	if m.Logger != nil {
		m.Logger.Debug("subject located",
			zap.String("label", result.Primary.Label),
			zap.Float64("confidence", result.Primary.Confidence),
			zap.Float64("cx", cx),
			zap.Float64("cy", cy),
			zap.Strings("tags", normalizeTags(result.Tags)),
			zap.Int("horizontal", focus.Horizontal),
			zap.Int("vertical", focus.Vertical))
	}
	return focus, nil
}

const pingPrompt = "Reply with the single word ok."

// Ping asks the model a trivial question about a blank image
func (m *Model) Ping(ctx context.Context) error {
	encoded, _, err := PrepareImageForModel(image.NewGray(image.Rect(0, 0, 8, 8)), 0, m.Quality)
	if err != nil {
		return err
	}
	if m.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.Timeout)
		defer cancel()
	}

	reply, err := m.Client.SimpleQuery(ctx, m.Model, pingPrompt, encoded)
	if err != nil {
		return errors.Wrapf(err, "model %s", m.Model)
	}
	if strings.TrimSpace(reply) == "" {
		return errors.Errorf("model %s returned an empty reply", m.Model)
	}
	return nil
}

// usable rejects synthesized, empty and low-confidence answers
func (m *Model) usable(r *types.AnalysisResult) bool {
	if r == nil || r.Fallback {
		return false
	}
	label := strings.ToLower(r.Primary.Label)
	if label == "none" || r.Primary.Confidence < m.MinConfidence {
		return false
	}
	desc := strings.ToLower(r.Description)
	for _, indicator := range fallbackIndicators {
		if strings.Contains(label, indicator) || strings.Contains(desc, indicator) {
			return false
		}
	}
	return true
}

// PrepareImageForModel downscales img so its longer side is at most
// maxSide and encodes it as base64 JPEG. It also returns the size sent.
func PrepareImageForModel(img image.Image, maxSide, quality int) (string, image.Point, error) {
	b := img.Bounds()
	if maxSide > 0 && (b.Dx() > maxSide || b.Dy() > maxSide) {
		if b.Dx() >= b.Dy() {
			img = imaging.Resize(img, maxSide, 0, imaging.Lanczos)
		} else {
			img = imaging.Resize(img, 0, maxSide, imaging.Lanczos)
		}
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return "", image.Point{}, errors.Wrap(err, "encode model image")
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), img.Bounds().Size(), nil
}

// normalizeCenter returns the subject centre in [0,1]. Models sometimes
// answer in pixels of the image they were sent.
func normalizeCenter(s types.Subject, sent image.Point) (float64, float64) {
	cx, cy := s.Center()
	if (cx > 1 || cy > 1) && sent.X > 0 && sent.Y > 0 {
		cx /= float64(sent.X)
		cy /= float64(sent.Y)
	}
	return clamp(cx, 0, 1), clamp(cy, 0, 1)
}

// normalizeTags lowercases and deduplicates tags, keeping at most five
func normalizeTags(tags []string) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, 5)
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
		if len(out) == 5 {
			break
		}
	}
	return out
}
