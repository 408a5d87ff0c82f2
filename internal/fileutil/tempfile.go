// Package fileutil holds file naming helpers and the scoped temporary
// output file used by the render backends.
package fileutil

import (
	"io"
	"os"
	"path/filepath"
	"sync"
	"syscall"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// TempFile is an output file that is deleted by Cleanup unless ownership
// was taken with Keep. Call Cleanup in a defer right after Create.
type TempFile struct {
	path string

	mu      sync.Mutex
	kept    bool
	removed bool
}

// Create reserves a new empty file named <prefix>-<uuid>.<ext> in dir. An
// empty dir means os.TempDir().
func Create(dir, prefix, ext string) (*TempFile, error) {
	if dir == "" {
		dir = os.TempDir()
	}
	if err := EnsureDir(dir); err != nil {
		return nil, errors.Wrapf(err, "failed to create temp dir %s", dir)
	}

	name := prefix + "-" + uuid.NewString()
	if ext != "" {
		name += "." + ext
	}
	path := filepath.Join(dir, name)

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create temp file")
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return nil, errors.Wrap(err, "failed to close temp file")
	}
	return &TempFile{path: path}, nil
}

func (t *TempFile) Path() string { return t.path }

// Keep transfers ownership of the file to the caller and returns its path
func (t *TempFile) Keep() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.kept = true
	return t.path
}

var rename = os.Rename

// MoveTo renames the file to dst and keeps it. When dst is on another
// filesystem the file is copied and the temp file removed.
func (t *TempFile) MoveTo(dst string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.removed {
		return errors.Errorf("temp file %s was already removed", t.path)
	}
	if err := rename(t.path, dst); err != nil {
		if !errors.Is(err, syscall.EXDEV) {
			return errors.Wrapf(err, "failed to move %s to %s", t.path, dst)
		}
		if err := copyFile(t.path, dst); err != nil {
			return errors.Wrapf(err, "failed to copy %s to %s", t.path, dst)
		}
		if err := os.Remove(t.path); err != nil && !os.IsNotExist(err) {
			return errors.Wrapf(err, "failed to remove temp file %s", t.path)
		}
	}
	t.path = dst
	t.kept = true
	return nil
}

func copyFile(src, dst string) (err error) {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := out.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			_ = os.Remove(dst)
		}
	}()

	_, err = io.Copy(out, in)
	return err
}

// Cleanup removes the file unless it was kept. It is safe to call more
// than once.
func (t *TempFile) Cleanup() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.kept || t.removed {
		return nil
	}
	t.removed = true
	if err := os.Remove(t.path); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "failed to remove temp file %s", t.path)
	}
	return nil
}
