package media

import (
	"fmt"
	"image"
	"io"
	"math"

	"github.com/disintegration/imaging"
)

const (
	ThumbnailJpegQuality = 90
	ThumbnailContentType = "image/jpeg"
)

// Processor renders previews of stored photos on demand. Nothing it produces
// is persisted.
type Processor struct {
	maxSize int
}

// NewProcessor creates a processor whose thumbnails have their longest side
// equal to maxSize pixels.
func NewProcessor(maxSize int) *Processor {
	return &Processor{maxSize: maxSize}
}

// MaxSize returns the configured longest side of a thumbnail.
func (p *Processor) MaxSize() int {
	return p.maxSize
}

// WriteThumbnail decodes src, shrinks it so the longest side is at most
// MaxSize and writes it to w as JPEG. Images already small enough are only
// re-encoded.
func (p *Processor) WriteThumbnail(w io.Writer, src io.Reader) error {
	img, err := imaging.Decode(src, imaging.AutoOrientation(true))
	if err != nil {
		return fmt.Errorf("failed to decode image: %w", err)
	}

	thumb, err := p.resize(img)
	if err != nil {
		return err
	}

	if err := imaging.Encode(w, thumb, imaging.JPEG, imaging.JPEGQuality(ThumbnailJpegQuality)); err != nil {
		return fmt.Errorf("thumbnail encoding failed: %w", err)
	}
	return nil
}

func (p *Processor) resize(img image.Image) (image.Image, error) {
	bounds := img.Bounds()
	width, height, err := ThumbnailSize(bounds.Dx(), bounds.Dy(), p.maxSize)
	if err != nil {
		return nil, err
	}
	if width == bounds.Dx() && height == bounds.Dy() {
		return img, nil
	}
	return imaging.Resize(img, width, height, imaging.Lanczos), nil
}

// ThumbnailSize scales width x height so the longest side equals maxSize,
// keeping the aspect ratio. It never upscales.
func ThumbnailSize(width, height, maxSize int) (int, int, error) {
	if width <= 0 || height <= 0 {
		return 0, 0, fmt.Errorf("invalid original image dimensions: %dx%d", width, height)
	}

	var newWidth, newHeight int
	if width > height {
		if width <= maxSize {
			return width, height, nil
		}
		newWidth = maxSize
		newHeight = int(math.Round(float64(height) * (float64(maxSize) / float64(width))))
	} else {
		if height <= maxSize {
			return width, height, nil
		}
		newHeight = maxSize
		newWidth = int(math.Round(float64(width) * (float64(maxSize) / float64(height))))
	}
	return max(1, newWidth), max(1, newHeight), nil
}
