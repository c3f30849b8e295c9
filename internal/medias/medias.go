// Package medias handles the image side of the editor: filename
// generation and recognition across naming generations, pixel dimensions,
// resizing, and the per-image resize history.
package medias

import (
	"fmt"
	"image"
	"io"
	"os"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// Dimensions in pixels.
type Dimensions struct {
	Width  int
	Height int
}

// Zero returns if the dimensions are not available.
func (d Dimensions) Zero() bool {
	return d.Width == 0 && d.Height == 0
}

func (d Dimensions) String() string {
	return fmt.Sprintf("%dx%d", d.Width, d.Height)
}

// ScaleToWidth keeps the aspect ratio while changing the width. Used by
// the resize dialog when the ratio is locked.
func (d Dimensions) ScaleToWidth(width int) Dimensions {
	if d.Width == 0 {
		return Dimensions{Width: width}
	}
	return Dimensions{
		Width:  width,
		Height: (width*d.Height + d.Width/2) / d.Width,
	}
}

// ReadDimensions decodes only the header of an image stream.
func ReadDimensions(r io.Reader) (Dimensions, error) {
	cfg, _, err := image.DecodeConfig(r)
	if err != nil {
		return Dimensions{}, fmt.Errorf("unreadable image: %w", err)
	}
	return Dimensions{Width: cfg.Width, Height: cfg.Height}, nil
}

// ReadDimensionsFile reads the dimensions of an image on disk.
func ReadDimensionsFile(path string) (Dimensions, error) {
	f, err := os.Open(path)
	if err != nil {
		return Dimensions{}, err
	}
	defer f.Close()
	return ReadDimensions(f)
}
