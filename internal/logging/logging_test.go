package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, ParseLevel("DEBUG"))
	assert.Equal(t, zapcore.WarnLevel, ParseLevel("warning"))
	assert.Equal(t, zapcore.ErrorLevel, ParseLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, ParseLevel(""))
	assert.Equal(t, zapcore.InfoLevel, ParseLevel("verbose"))
}

func TestJSONCore(t *testing.T) {
	var buf bytes.Buffer
	logger := zap.New(newCore(Config{Level: "info", Format: "json"}, zapcore.AddSync(&buf)))

	logger.Debug("hidden")
	logger.Info("canvas computed", zap.String("canvas", "1080x1350"))
	require.NoError(t, logger.Sync())

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "canvas computed", entry["msg"])
	assert.Equal(t, "1080x1350", entry["canvas"])
	assert.Equal(t, "info", entry["level"])
}

func TestFileSink(t *testing.T) {
	var buf bytes.Buffer
	file := filepath.Join(t.TempDir(), "media-canvas.log")
	cfg := DefaultConfig()
	cfg.File = file

	logger := zap.New(newCore(cfg, zapcore.AddSync(&buf)))
	logger.Warn("ffmpeg slow")
	require.NoError(t, logger.Sync())

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Contains(t, string(data), "ffmpeg slow")
	assert.Contains(t, buf.String(), "ffmpeg slow")
}
