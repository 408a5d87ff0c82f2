package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/menta2k/media-canvas/pkg/transform"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, transform.DefaultCropFocus(), cfg.CropFocus())
	assert.Equal(t, 300*time.Second, cfg.Timeout())
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	require.NoError(t, err)
	if diff := cmp.Diff(Default(), cfg); diff != "" {
		t.Errorf("Load mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadFromFileKeepsDefaultsForMissingKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"processing":{"feed":"story"},"photo":{"format":"webp"}}`), 0644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "story", cfg.Processing.Feed)
	assert.Equal(t, "webp", cfg.Photo.Format)
	assert.Equal(t, 95, cfg.Photo.Quality)
	assert.Equal(t, "crop", cfg.Processing.Operation)
}

func TestSaveToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.json")
	cfg := Default()
	cfg.Video.CRF = 28

	require.NoError(t, cfg.SaveToFile(path))
	loaded, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, 28, loaded.Video.CRF)
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"photo":{"quality":80}}`), 0644))

	t.Setenv("MEDIACANVAS_PHOTO_QUALITY", "70")
	t.Setenv("MEDIACANVAS_FOCUS_MODE", "saliency")
	t.Setenv("MEDIACANVAS_LOG_LEVEL", "debug")
	t.Setenv("MEDIACANVAS_VIDEO_SEARCH_PATHS", "/opt/ffmpeg/bin,/usr/bin")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 70, cfg.Photo.Quality)
	assert.Equal(t, "saliency", cfg.Focus.Mode)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, []string{"/opt/ffmpeg/bin", "/usr/bin"}, cfg.Video.SearchPaths)
}

func TestEnvInvalidValue(t *testing.T) {
	t.Setenv("MEDIACANVAS_PHOTO_QUALITY", "high")
	_, err := Load("")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"operation", func(c *Config) { c.Processing.Operation = "stretch" }},
		{"feed", func(c *Config) { c.Processing.Feed = "reels" }},
		{"concurrency", func(c *Config) { c.Processing.Concurrency = 0 }},
		{"photo format", func(c *Config) { c.Photo.Format = "gif" }},
		{"photo quality", func(c *Config) { c.Photo.Quality = 101 }},
		{"crf", func(c *Config) { c.Video.CRF = 60 }},
		{"focus range", func(c *Config) { c.Focus.Vertical = -80 }},
		{"focus mode", func(c *Config) { c.Focus.Mode = "random" }},
		{"model provider", func(c *Config) { c.Focus.Mode = "model"; c.Focus.Provider = "openai" }},
		{"model name", func(c *Config) { c.Focus.Mode = "model"; c.Focus.Model = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestGetConfigPath(t *testing.T) {
	assert.Equal(t, "config.json", filepath.Base(GetConfigPath()))
}
