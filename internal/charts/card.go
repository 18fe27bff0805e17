package charts

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"sync"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// CardWidth and CardHeight are the standard Open Graph image dimensions.
const (
	CardWidth  = 1200
	CardHeight = 630
)

var (
	fontHeadline font.Face
	fontBody     font.Face
	fontOnce     sync.Once
	fontErr      error
)

func loadFonts() {
	fontOnce.Do(func() {
		bold, err := opentype.Parse(gobold.TTF)
		if err != nil {
			fontErr = fmt.Errorf("parse bold font: %w", err)
			return
		}
		fontHeadline, err = opentype.NewFace(bold, &opentype.FaceOptions{
			Size:    72,
			DPI:     72,
			Hinting: font.HintingFull,
		})
		if err != nil {
			fontErr = fmt.Errorf("create headline face: %w", err)
			return
		}

		regular, err := opentype.Parse(goregular.TTF)
		if err != nil {
			fontErr = fmt.Errorf("parse regular font: %w", err)
			return
		}
		fontBody, err = opentype.NewFace(regular, &opentype.FaceOptions{
			Size:    34,
			DPI:     72,
			Hinting: font.HintingFull,
		})
		if err != nil {
			fontErr = fmt.Errorf("create body face: %w", err)
		}
	})
}

// CardData is the text drawn on a share card.
type CardData struct {
	Title    string // e.g. "Seattle"
	Subtitle string // e.g. "Prophet forecast 2025-2027"
	Footer   string
}

// Card composites the forecast image, if any, under a text overlay sized
// for link previews. With no background a plain gradient is used.
func Card(background []byte, data CardData) ([]byte, error) {
	loadFonts()
	if fontErr != nil {
		return nil, fmt.Errorf("load fonts: %w", fontErr)
	}

	dst := image.NewRGBA(image.Rect(0, 0, CardWidth, CardHeight))
	if background != nil {
		src, _, err := image.Decode(bytes.NewReader(background))
		if err != nil {
			return nil, fmt.Errorf("decode background: %w", err)
		}
		coverScale(dst, src)
	} else {
		fillGradient(dst)
	}

	drawShade(dst)
	drawCardText(dst, data)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, fmt.Errorf("encode card: %w", err)
	}
	return buf.Bytes(), nil
}

// coverScale fills dst with src, scaled to cover and centre cropped.
func coverScale(dst *image.RGBA, src image.Image) {
	sb := src.Bounds()
	srcW, srcH := float64(sb.Dx()), float64(sb.Dy())
	scale := max(float64(CardWidth)/srcW, float64(CardHeight)/srcH)

	cropW := int(float64(CardWidth) / scale)
	cropH := int(float64(CardHeight) / scale)
	offX := (sb.Dx() - cropW) / 2
	offY := (sb.Dy() - cropH) / 2
	crop := image.Rect(sb.Min.X+offX, sb.Min.Y+offY, sb.Min.X+offX+cropW, sb.Min.Y+offY+cropH)

	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, crop, xdraw.Src, nil)
}

func fillGradient(img *image.RGBA) {
	for y := 0; y < CardHeight; y++ {
		progress := float64(y) / float64(CardHeight)
		c := color.RGBA{uint8(15 + progress*10), uint8(40 + progress*30), uint8(35 + progress*20), 255}
		for x := 0; x < CardWidth; x++ {
			img.SetRGBA(x, y, c)
		}
	}
}

// drawShade darkens the lower part of the image so text stays readable.
func drawShade(img *image.RGBA) {
	bounds := img.Bounds()
	shadeHeight := 320

	for y := bounds.Max.Y - shadeHeight; y < bounds.Max.Y; y++ {
		progress := float64(y-(bounds.Max.Y-shadeHeight)) / float64(shadeHeight)
		alpha := progress * progress * 0.85

		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			c := img.RGBAAt(x, y)
			c.R = uint8(float64(c.R) * (1 - alpha))
			c.G = uint8(float64(c.G) * (1 - alpha))
			c.B = uint8(float64(c.B) * (1 - alpha))
			img.SetRGBA(x, y, c)
		}
	}
}

func drawCardText(img *image.RGBA, data CardData) {
	white := color.RGBA{255, 255, 255, 255}
	grey := color.RGBA{205, 210, 210, 255}

	drawText(img, data.Title, 60, CardHeight-170, white, fontHeadline)
	if data.Subtitle != "" {
		drawText(img, data.Subtitle, 60, CardHeight-100, grey, fontBody)
	}
	if data.Footer != "" {
		drawText(img, data.Footer, 60, CardHeight-40, grey, fontBody)
	}
}

func drawText(img *image.RGBA, text string, x, y int, col color.Color, face font.Face) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(col),
		Face: face,
		Dot:  fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y)},
	}
	d.DrawString(text)
}
