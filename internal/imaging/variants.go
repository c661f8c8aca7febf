package imaging

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"

	"golang.org/x/image/draw"

	"github.com/your-org/photoshare/internal/config"
)

// Variants holds the three independently-servable encodings of one photo.
// Full is always the unmodified input bytes.
type Variants struct {
	Small  []byte
	Medium []byte
	Full   []byte
}

// Generator derives the small and medium encodings of an accepted image.
// Sizing rules are deterministic: small is a fixed square center crop at low
// quality, medium preserves aspect ratio bounded to a maximum dimension and
// is never enlarged.
type Generator struct {
	cfg config.VariantsConfig
}

func NewGenerator(cfg config.VariantsConfig) *Generator {
	return &Generator{cfg: cfg}
}

// Generate decodes the input once and produces all variants. Any decode or
// encode failure is fatal for the photo: a partially-broken variant set must
// never be served.
func (g *Generator) Generate(data []byte) (*Variants, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	small, err := g.encodeSmall(src)
	if err != nil {
		return nil, fmt.Errorf("encode small variant: %w", err)
	}

	medium, err := g.encodeMedium(src)
	if err != nil {
		return nil, fmt.Errorf("encode medium variant: %w", err)
	}

	return &Variants{Small: small, Medium: medium, Full: data}, nil
}

// encodeSmall crops the centered square and scales it to the thumbnail edge.
func (g *Generator) encodeSmall(src image.Image) ([]byte, error) {
	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	edge := w
	if h < edge {
		edge = h
	}
	x0 := bounds.Min.X + (w-edge)/2
	y0 := bounds.Min.Y + (h-edge)/2
	crop := image.Rect(x0, y0, x0+edge, y0+edge)

	dst := image.NewRGBA(image.Rect(0, 0, g.cfg.SmallSize, g.cfg.SmallSize))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, crop, draw.Src, nil)

	return encodeJPEG(dst, g.cfg.SmallQuality)
}

// encodeMedium scales the image down so its longest side fits the configured
// bound. Images already within the bound are re-encoded at original size.
func (g *Generator) encodeMedium(src image.Image) ([]byte, error) {
	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	bound := g.cfg.MediumBound
	targetW, targetH := w, h
	if w > bound || h > bound {
		if w >= h {
			targetW = bound
			targetH = h * bound / w
		} else {
			targetH = bound
			targetW = w * bound / h
		}
	}
	if targetW < 1 {
		targetW = 1
	}
	if targetH < 1 {
		targetH = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, targetW, targetH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Src, nil)

	return encodeJPEG(dst, g.cfg.MediumQuality)
}

func encodeJPEG(img image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
