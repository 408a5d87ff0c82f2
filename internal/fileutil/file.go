package fileutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var (
	imageExts = []string{"jpg", "jpeg", "png", "webp", "gif", "bmp", "tiff"}
	videoExts = []string{"mp4", "mov", "m4v", "mkv", "webm", "avi", "3gp"}
)

// EnsureDir creates a directory if it doesn't exist
func EnsureDir(dir string) error {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return os.MkdirAll(dir, 0755)
	}
	return nil
}

// Extension returns the lower-cased file extension without the dot
func Extension(filename string) string {
	ext := filepath.Ext(filename)
	if len(ext) > 0 {
		return strings.ToLower(ext[1:])
	}
	return ""
}

func hasExtension(filename string, exts []string) bool {
	ext := Extension(filename)
	for _, e := range exts {
		if ext == e {
			return true
		}
	}
	return false
}

// IsImageFile checks if a file has an image extension
func IsImageFile(filename string) bool {
	return hasExtension(filename, imageExts)
}

// IsVideoFile checks if a file has a video extension
func IsVideoFile(filename string) bool {
	return hasExtension(filename, videoExts)
}

// GenerateOutputFilename builds <outputDir>/<name><suffix>.<format>. An
// empty format keeps the input extension.
func GenerateOutputFilename(inputFile, outputDir, suffix, format string) string {
	baseName := filepath.Base(inputFile)
	nameWithoutExt := strings.TrimSuffix(baseName, filepath.Ext(baseName))

	if format == "" {
		format = Extension(inputFile)
		if format == "" {
			format = "jpg"
		}
	}

	return filepath.Join(outputDir, fmt.Sprintf("%s%s.%s", nameWithoutExt, suffix, format))
}

// ListMediaFiles recursively lists all image and video files in a directory
func ListMediaFiles(dir string) ([]string, error) {
	var files []string

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && (IsImageFile(path) || IsVideoFile(path)) {
			files = append(files, path)
		}
		return nil
	})

	return files, err
}

// FileExists checks if a file exists and is not a directory
func FileExists(filename string) bool {
	info, err := os.Stat(filename)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// FormatFileSize formats file size in human-readable format
func FormatFileSize(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}

	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}

	return fmt.Sprintf("%.1f %cB", float64(size)/float64(div), "KMGTPE"[exp])
}
