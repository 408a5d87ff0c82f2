package constraints

import (
	"fmt"
	"strings"
	"time"
)

// Upload surfaces
const (
	FeedTimeline    = "timeline"
	FeedAlbum       = "album"
	FeedDirect      = "direct"
	FeedStory       = "story"
	FeedDirectStory = "direct_story"
	FeedTV          = "igtv"
)

// Constraints is the aspect ratio and duration policy of one upload surface
type Constraints struct {
	Title                        string        `json:"title"`
	MinAspectRatio               float64       `json:"min_aspect_ratio"`
	MaxAspectRatio               float64       `json:"max_aspect_ratio"`
	RecommendedRatio             float64       `json:"recommended_ratio"`
	RecommendedRatioDeviation    float64       `json:"recommended_ratio_deviation"`
	UseRecommendedRatioByDefault bool          `json:"use_recommended_ratio_by_default"`
	MinDuration                  time.Duration `json:"min_duration"`
	MaxDuration                  time.Duration `json:"max_duration"`
}

var (
	Timeline = Constraints{
		Title:            "timeline",
		MinAspectRatio:   0.8,
		MaxAspectRatio:   1.91,
		RecommendedRatio: 1.0,
		MinDuration:      3 * time.Second,
		MaxDuration:      60 * time.Second,
	}
	Story = Constraints{
		Title:                        "story",
		MinAspectRatio:               0.56,
		MaxAspectRatio:               0.67,
		RecommendedRatio:             0.5625,
		RecommendedRatioDeviation:    0.0025,
		UseRecommendedRatioByDefault: true,
		MinDuration:                  1 * time.Second,
		MaxDuration:                  15 * time.Second,
	}
	TV = Constraints{
		Title:                        "igtv",
		MinAspectRatio:               0.5,
		MaxAspectRatio:               0.8,
		RecommendedRatio:             0.5625,
		RecommendedRatioDeviation:    0.0025,
		UseRecommendedRatioByDefault: true,
		MinDuration:                  15 * time.Second,
		MaxDuration:                  10 * time.Minute,
	}
)

// ForFeed returns the constraints of an upload surface; an empty feed
// means the timeline.
func ForFeed(feed string) (Constraints, error) {
	switch strings.ToLower(strings.TrimSpace(feed)) {
	case "", FeedTimeline:
		return Timeline, nil
	case FeedAlbum:
		return titled(Timeline, FeedAlbum), nil
	case FeedDirect:
		return titled(Timeline, FeedDirect), nil
	case FeedStory:
		return Story, nil
	case FeedDirectStory:
		return titled(Story, FeedDirectStory), nil
	case FeedTV:
		return TV, nil
	}
	return Constraints{}, fmt.Errorf("unknown feed %q", feed)
}

// Feeds lists every supported upload surface
func Feeds() []string {
	return []string{FeedTimeline, FeedAlbum, FeedDirect, FeedStory, FeedDirectStory, FeedTV}
}

func titled(c Constraints, title string) Constraints {
	c.Title = title
	return c
}
