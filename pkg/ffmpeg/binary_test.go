package ffmpeg

import (
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func statOf(existing ...string) (StatFunc, *int) {
	calls := 0
	set := make(map[string]bool)
	for _, p := range existing {
		set[p] = true
	}
	return func(path string) bool {
		calls++
		return set[path]
	}, &calls
}

func TestResolveFirstMatchWins(t *testing.T) {
	stat, _ := statOf("/opt/bin/ffmpeg", "/usr/bin/ffmpeg")
	r := Resolver{SearchPaths: []string{"/usr/local/bin", "/opt/bin", "/usr/bin"}, Stat: stat}

	b, err := r.Resolve(FFmpeg)
	require.NoError(t, err)
	assert.Equal(t, Binary{Name: "ffmpeg", Path: "/opt/bin/ffmpeg"}, b)
}

func TestResolveFallsBackToLookPath(t *testing.T) {
	stat, _ := statOf()
	r := Resolver{
		SearchPaths: []string{"/usr/local/bin"},
		Stat:        stat,
		LookPath:    func(file string) (string, error) { return "/home/me/bin/" + file, nil },
	}

	b, err := r.Resolve(FFprobe)
	require.NoError(t, err)
	assert.Equal(t, "/home/me/bin/ffprobe", b.Path)
}

func TestResolveNotFound(t *testing.T) {
	stat, _ := statOf()
	r := Resolver{SearchPaths: []string{"/usr/local/bin"}, Stat: stat}

	_, err := r.Resolve(FFmpeg)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrBinaryNotFound))
}

func TestCacheResolvesOnce(t *testing.T) {
	stat, calls := statOf("/usr/bin/ffmpeg")
	cache := NewCache(Resolver{SearchPaths: []string{"/usr/bin"}, Stat: stat})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			b, err := cache.Get(FFmpeg)
			assert.NoError(t, err)
			assert.Equal(t, "/usr/bin/ffmpeg", b.Path)
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, *calls)

	cache.Reset()
	_, err := cache.Get(FFmpeg)
	require.NoError(t, err)
	assert.Equal(t, 2, *calls)
}

func TestCacheDoesNotCacheFailures(t *testing.T) {
	stat, calls := statOf()
	cache := NewCache(Resolver{SearchPaths: []string{"/usr/bin"}, Stat: stat})

	_, err := cache.Get(FFprobe)
	assert.Error(t, err)
	_, err = cache.Get(FFprobe)
	assert.Error(t, err)
	assert.Equal(t, 2, *calls)
}

func TestLastLines(t *testing.T) {
	assert.Equal(t, "c\nd", lastLines("a\nb\nc\nd\n", 2))
	assert.Equal(t, "a", lastLines("a", 5))
}
