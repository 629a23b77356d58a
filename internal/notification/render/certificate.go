package render

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg" // template may be JPEG
	"image/png"
	"os"

	"golang.org/x/image/draw"
)

const (
	blankCertificateWidth  = 1600
	blankCertificateHeight = 1130
)

var certificateInk = hex(0x5b031d)

// Certificates renders participation certificates over an optional template
// image. Without a template the name is drawn on a plain white page.
type Certificates struct {
	template image.Image
}

// NewCertificates loads the template at path. An empty path selects the
// blank page.
func NewCertificates(path string) (*Certificates, error) {
	if path == "" {
		return &Certificates{}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open certificate template: %w", err)
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode certificate template: %w", err)
	}
	return &Certificates{template: img}, nil
}

// Render draws the display name centred at two thirds of the page height and
// returns a PNG.
func (c *Certificates) Render(title, name string) ([]byte, error) {
	var page *image.RGBA
	if c.template != nil {
		b := c.template.Bounds()
		page = image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(page, page.Bounds(), c.template, b.Min, draw.Src)
	} else {
		page = image.NewRGBA(image.Rect(0, 0, blankCertificateWidth, blankCertificateHeight))
		fillRect(page, page.Bounds(), hex(0xffffff))
	}

	width, height := page.Bounds().Dx(), page.Bounds().Dy()
	scale := max(1, int(float64(width)*0.03)/glyphHeight)
	text := DisplayName(title, name)
	x := width/2 - textWidth(text, scale)/2
	y := int(float64(height)*0.67) - glyphHeight*scale/2
	drawText(page, text, x, y, scale, certificateInk)

	var buf bytes.Buffer
	if err := png.Encode(&buf, page); err != nil {
		return nil, fmt.Errorf("encode certificate: %w", err)
	}
	return buf.Bytes(), nil
}
