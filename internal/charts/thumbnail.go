package charts

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"

	xdraw "golang.org/x/image/draw"
)

// MaxThumbnailWidth caps requested thumbnail widths.
const MaxThumbnailWidth = 2000

// Thumbnail scales an encoded image to width pixels, keeping its aspect
// ratio, and re-encodes it as PNG. Images already narrower than width are
// returned unchanged.
func Thumbnail(data []byte, width int) ([]byte, error) {
	if width <= 0 || width > MaxThumbnailWidth {
		return nil, fmt.Errorf("thumbnail width %d out of range (1-%d)", width, MaxThumbnailWidth)
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	b := src.Bounds()
	if b.Dx() <= width {
		return data, nil
	}
	height := max(1, b.Dy()*width/b.Dx())

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, b, xdraw.Over, nil)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, fmt.Errorf("encode thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}
