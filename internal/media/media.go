// Package media reads image metadata for attachment previews.
package media

import (
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// SmallImageSize is the edge length in pixels under which an image gets an
// enlarged click target in previews.
const SmallImageSize = 48

// ErrNotImage is returned by Probe for data no registered decoder accepts.
var ErrNotImage = errors.New("not a supported image")

// Info is the header-level metadata of an image.
type Info struct {
	Format string
	Width  int
	Height int
}

// Probe decodes only the image header from r.
func Probe(r io.Reader) (Info, error) {
	cfg, format, err := image.DecodeConfig(r)
	if err != nil {
		if errors.Is(err, image.ErrFormat) {
			return Info{}, ErrNotImage
		}
		return Info{}, fmt.Errorf("decode image header: %w", err)
	}
	return Info{Format: format, Width: cfg.Width, Height: cfg.Height}, nil
}

// IsImageMime reports whether a MIME type is worth probing.
func IsImageMime(mimeType string) bool {
	return strings.HasPrefix(mimeType, "image/")
}

// IsSmall reports whether either side is below SmallImageSize. Zero
// dimensions are unknown, not small.
func IsSmall(width, height int) bool {
	if width <= 0 || height <= 0 {
		return false
	}
	return width < SmallImageSize || height < SmallImageSize
}

// Dimensions formats a preview header label such as "640 × 480".
func Dimensions(width, height int) string {
	if width <= 0 || height <= 0 {
		return ""
	}
	return fmt.Sprintf("%d × %d", width, height)
}

// HumanSize formats a byte count for file previews.
func HumanSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%dB", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f%cB", float64(n)/float64(div), "KMGTPE"[exp])
}
