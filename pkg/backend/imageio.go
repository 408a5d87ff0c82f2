package backend

import (
	"image"
	"image/png"
	"os"
	"strings"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
	_ "golang.org/x/image/webp"
)

// LoadImage loads the stored pixels of an image without applying EXIF
// orientation.
func LoadImage(path string) (image.Image, error) {
	// Try imaging.Open (registered decoders)
	if img, err := imaging.Open(path); err == nil {
		return img, nil
	}

	// Fallback: explicit WebP decode
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open image")
	}
	defer f.Close()

	if img, err := webp.Decode(f); err == nil {
		return img, nil
	}
	if _, err := f.Seek(0, 0); err == nil {
		if img, _, err := image.Decode(f); err == nil {
			return img, nil
		}
	}
	return nil, errors.Errorf("image: unknown format for %s", path)
}

// SaveImage saves an image to a file with the specified format and quality
func SaveImage(img image.Image, path, format string, quality int) error {
	switch strings.ToLower(format) {
	case "webp":
		f, err := os.Create(path)
		if err != nil {
			return errors.Wrap(err, "failed to create webp file")
		}
		defer f.Close()
		opts := &webp.Options{Quality: float32(quality)}
		return errors.Wrap(webp.Encode(f, img, opts), "failed to encode webp")
	case "png":
		return errors.Wrap(imaging.Save(img, path, imaging.PNGCompressionLevel(png.BestCompression)), "failed to save png")
	default: // jpg/jpeg
		return errors.Wrap(imaging.Save(img, path, imaging.JPEGQuality(quality)), "failed to save jpeg")
	}
}

// extension maps an output format to its file extension
func extension(format string) string {
	switch strings.ToLower(format) {
	case "webp":
		return "webp"
	case "png":
		return "png"
	default:
		return "jpg"
	}
}
