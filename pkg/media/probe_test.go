package media

import (
	"context"
	"image/color"
	"path/filepath"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/menta2k/media-canvas/pkg/ffmpeg"
	"github.com/menta2k/media-canvas/pkg/geometry"
)

const probeJSON = `{
  "streams": [
    {
      "codec_type": "video",
      "codec_name": "h264",
      "width": 1920,
      "height": 1080,
      "pix_fmt": "yuv420p",
      "side_data_list": [
        {"side_data_type": "Display Matrix", "rotation": -90}
      ]
    },
    {"codec_type": "audio", "codec_name": "aac"}
  ],
  "format": {"format_name": "mov,mp4,m4a,3gp,3g2,mj2", "duration": "12.500000"}
}`

func TestParseProbe(t *testing.T) {
	v, err := parseProbe([]byte(probeJSON))
	require.NoError(t, err)

	assert.Equal(t, geometry.NewDimensions(1920, 1080), v.Size)
	assert.Equal(t, "h264", v.VideoCodec)
	assert.Equal(t, "aac", v.AudioCodec)
	assert.Equal(t, "yuv420p", v.PixelFormat)
	assert.Equal(t, 90, v.Rotation)
	assert.Equal(t, 12500*time.Millisecond, v.Duration)
	assert.True(t, containerSupported(v.Container))
}

func TestParseProbeRotateTag(t *testing.T) {
	data := `{"streams":[{"codec_type":"video","codec_name":"h264","width":640,"height":480,
		"tags":{"rotate":"270"},"side_data_list":[{"side_data_type":"Display Matrix","rotation":-90}]}],
		"format":{"format_name":"mp4"}}`

	v, err := parseProbe([]byte(data))
	require.NoError(t, err)
	assert.Equal(t, 270, v.Rotation)
	assert.Zero(t, v.Duration)
	assert.Empty(t, v.AudioCodec)
}

func TestParseProbeErrors(t *testing.T) {
	_, err := parseProbe([]byte(`not json`))
	assert.Error(t, err)

	_, err = parseProbe([]byte(`{"streams":[{"codec_type":"audio","codec_name":"aac"}],"format":{}}`))
	assert.Error(t, err)
}

type fakeRunner struct {
	out  []byte
	bin  ffmpeg.Binary
	args []string
}

func (f *fakeRunner) Run(_ context.Context, bin ffmpeg.Binary, args ...string) ([]byte, error) {
	f.bin = bin
	f.args = args
	return f.out, nil
}

func TestProberProbeVideo(t *testing.T) {
	cache := ffmpeg.NewCache(ffmpeg.Resolver{
		SearchPaths: []string{"/usr/bin"},
		Stat:        func(string) bool { return true },
	})
	runner := &fakeRunner{out: []byte(probeJSON)}

	v, err := NewProber(cache, runner).ProbeVideo(context.Background(), "/videos/clip.mp4")
	require.NoError(t, err)

	assert.Equal(t, "/usr/bin/ffprobe", runner.bin.Path)
	assert.Equal(t, "/videos/clip.mp4", runner.args[len(runner.args)-1])
	assert.Contains(t, runner.args, "-show_streams")
	assert.Equal(t, "/videos/clip.mp4", v.Path)
	assert.Equal(t, geometry.NewDimensions(1080, 1920), InputDimensions(v))
}

func TestProbePhoto(t *testing.T) {
	dir := t.TempDir()
	img := imaging.New(64, 48, color.NRGBA{R: 200, A: 255})

	for _, tt := range []struct {
		file, format string
	}{
		{"photo.jpg", "jpeg"},
		{"photo.png", "png"},
	} {
		path := filepath.Join(dir, tt.file)
		require.NoError(t, imaging.Save(img, path))

		p, err := ProbePhoto(path)
		require.NoError(t, err)
		assert.Equal(t, tt.format, p.Format)
		assert.Equal(t, geometry.NewDimensions(64, 48), p.Size)
		assert.Equal(t, 1, p.Orientation)
		assert.Equal(t, path, p.Path)
	}
}

func TestProbePhotoMissing(t *testing.T) {
	_, err := ProbePhoto(filepath.Join(t.TempDir(), "missing.jpg"))
	assert.Error(t, err)
}
