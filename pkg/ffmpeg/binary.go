// Package ffmpeg locates the ffmpeg and ffprobe binaries and runs them.
package ffmpeg

import (
	"os"
	"os/exec"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"
)

const (
	FFmpeg  = "ffmpeg"
	FFprobe = "ffprobe"
)

// ErrBinaryNotFound is returned when no candidate location holds the binary
var ErrBinaryNotFound = errors.New("binary not found")

// DefaultSearchPaths are tried in order before falling back to $PATH
var DefaultSearchPaths = []string{"/usr/local/bin", "/usr/bin", "/opt/homebrew/bin", "/bin"}

// Binary is a resolved executable
type Binary struct {
	Name string
	Path string
}

// StatFunc reports whether path names an executable file
type StatFunc func(path string) bool

// Resolver looks binaries up in a fixed list of directories
type Resolver struct {
	SearchPaths []string
	// Stat defaults to an os.Stat based check
	Stat StatFunc
	// LookPath is consulted when no search path matched. Nil disables it.
	LookPath func(file string) (string, error)
}

// NewResolver returns a resolver over DefaultSearchPaths that falls back to $PATH
func NewResolver(searchPaths ...string) Resolver {
	if len(searchPaths) == 0 {
		searchPaths = DefaultSearchPaths
	}
	return Resolver{SearchPaths: searchPaths, Stat: isExecutable, LookPath: exec.LookPath}
}

// Resolve finds name. It depends only on the search list and Stat, so
// repeated calls agree.
func (r Resolver) Resolve(name string) (Binary, error) {
	stat := r.Stat
	if stat == nil {
		stat = isExecutable
	}
	for _, dir := range r.SearchPaths {
		candidate := filepath.Join(dir, name)
		if stat(candidate) {
			return Binary{Name: name, Path: candidate}, nil
		}
	}
	if r.LookPath != nil {
		if path, err := r.LookPath(name); err == nil {
			return Binary{Name: name, Path: path}, nil
		}
	}
	return Binary{}, errors.Wrapf(ErrBinaryNotFound, "%s not found in %v", name, r.SearchPaths)
}

func isExecutable(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular() && info.Mode().Perm()&0o111 != 0
}

// Cache memoizes successful resolutions. The zero value is not usable;
// create one with NewCache and share it between the components that need
// binaries.
type Cache struct {
	resolver Resolver

	mu       sync.Mutex
	binaries map[string]Binary
}

// NewCache wraps resolver with a cache
func NewCache(resolver Resolver) *Cache {
	return &Cache{resolver: resolver, binaries: make(map[string]Binary)}
}

// Get returns the cached binary or resolves it. Failures are not cached.
func (c *Cache) Get(name string) (Binary, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if b, ok := c.binaries[name]; ok {
		return b, nil
	}
	b, err := c.resolver.Resolve(name)
	if err != nil {
		return Binary{}, err
	}
	c.binaries[name] = b
	return b, nil
}

// Reset drops every cached entry
func (c *Cache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.binaries = make(map[string]Binary)
}
