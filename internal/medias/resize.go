package medias

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"

	"golang.org/x/image/draw"
)

var ErrBadDimensions = errors.New("dimensions must be positive")

// Resize scales an image to the target dimensions with Catmull-Rom
// resampling and re-encodes it. The original format is kept when an
// encoder exists for it; everything else (webp, bmp) comes back as PNG.
// The returned format is the encoded one.
func Resize(data []byte, target Dimensions) ([]byte, string, error) {
	if target.Width <= 0 || target.Height <= 0 {
		return nil, "", ErrBadDimensions
	}

	src, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("decoding image: %w", err)
	}

	dst := image.NewRGBA(image.Rect(0, 0, target.Width, target.Height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)

	var buf bytes.Buffer
	switch format {
	case "jpeg":
		err = jpeg.Encode(&buf, dst, &jpeg.Options{Quality: 90})
	case "gif":
		err = gif.Encode(&buf, dst, nil)
	default:
		format = "png"
		err = png.Encode(&buf, dst)
	}
	if err != nil {
		return nil, "", fmt.Errorf("encoding resized image: %w", err)
	}
	return buf.Bytes(), format, nil
}
