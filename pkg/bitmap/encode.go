package bitmap

import (
	"errors"
	"fmt"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/tiff"
)

// Format is an image file format for snapshots
type Format int

const (
	PNG Format = iota
	TIFF
)

var ErrUnknownFormat = errors.New("bitmap: unknown image format")

func (f Format) String() string {
	switch f {
	case PNG:
		return "png"
	case TIFF:
		return "tiff"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}

// FormatFromPath picks the format from a file extension. Paths without a
// recognized extension are written as PNG.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".tif", ".tiff":
		return TIFF
	default:
		return PNG
	}
}

// Encode writes the bitmap in the given format
func Encode(w io.Writer, b *Bitmap, format Format) error {
	switch format {
	case PNG:
		return png.Encode(w, b.ToRGBA())
	case TIFF:
		return tiff.Encode(w, b.ToRGBA(), &tiff.Options{Compression: tiff.Deflate})
	default:
		return fmt.Errorf("%w: %v", ErrUnknownFormat, format)
	}
}

// WriteFile encodes the bitmap to path, choosing the format from its extension
func WriteFile(path string, b *Bitmap) (err error) {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		if cerr := file.Close(); err == nil && cerr != nil {
			err = cerr
		}
	}()

	if err = Encode(file, b, FormatFromPath(path)); err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	return nil
}
