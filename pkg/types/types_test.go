package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSubjectCenter(t *testing.T) {
	s := Subject{Box: Box{X: 0.2, Y: 0.4, W: 0.2, H: 0.4}}
	cx, cy := s.Center()
	assert.InDelta(t, 0.3, cx, 1e-9)
	assert.InDelta(t, 0.6, cy, 1e-9)

	s.Cx, s.Cy = 0.9, 0.1
	cx, cy = s.Center()
	assert.Equal(t, 0.9, cx)
	assert.Equal(t, 0.1, cy)

	cx, cy = Subject{}.Center()
	assert.Zero(t, cx)
	assert.Zero(t, cy)
}

func TestFallbackResult(t *testing.T) {
	r := FallbackResult("no json", "no-json")
	assert.True(t, r.Fallback)
	assert.Equal(t, "none", r.Primary.Label)
	assert.Equal(t, []string{"fallback", "no-json"}, r.Tags)
	assert.False(t, r.Primary.Box.Empty())
}
