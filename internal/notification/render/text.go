// Package render draws the entry card and participation certificate images
// and persists them as publicly served artifacts.
package render

import (
	"image"
	"image/color"
	"strings"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	glyphHeight = 13
	glyphAscent = 11
)

// textWidth is the rendered width of s at the given scale.
func textWidth(s string, scale int) int {
	return font.MeasureString(basicfont.Face7x13, s).Ceil() * scale
}

// drawText renders s with its top-left corner at (x, y), magnified by scale.
func drawText(dst draw.Image, s string, x, y, scale int, c color.Color) {
	if s == "" {
		return
	}
	if scale < 1 {
		scale = 1
	}
	w := textWidth(s, 1)
	glyphs := image.NewRGBA(image.Rect(0, 0, w, glyphHeight))
	d := &font.Drawer{
		Dst:  glyphs,
		Src:  image.NewUniform(c),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(0, glyphAscent),
	}
	d.DrawString(s)

	target := image.Rect(x, y, x+w*scale, y+glyphHeight*scale)
	draw.NearestNeighbor.Scale(dst, target, glyphs, glyphs.Bounds(), draw.Over, nil)
}

// wrap breaks s into lines no wider than maxWidth at the given scale. A single
// word longer than maxWidth gets its own line.
func wrap(s string, maxWidth, scale int) []string {
	words := strings.Fields(s)
	if len(words) == 0 {
		return nil
	}
	var lines []string
	line := words[0]
	for _, word := range words[1:] {
		candidate := line + " " + word
		if textWidth(candidate, scale) > maxWidth {
			lines = append(lines, line)
			line = word
			continue
		}
		line = candidate
	}
	return append(lines, line)
}

func fillRect(dst draw.Image, r image.Rectangle, c color.Color) {
	draw.Draw(dst, r, image.NewUniform(c), image.Point{}, draw.Src)
}

// strokeRect draws an outline of the given thickness inside r.
func strokeRect(dst draw.Image, r image.Rectangle, thickness int, c color.Color) {
	fillRect(dst, image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+thickness), c)
	fillRect(dst, image.Rect(r.Min.X, r.Max.Y-thickness, r.Max.X, r.Max.Y), c)
	fillRect(dst, image.Rect(r.Min.X, r.Min.Y, r.Min.X+thickness, r.Max.Y), c)
	fillRect(dst, image.Rect(r.Max.X-thickness, r.Min.Y, r.Max.X, r.Max.Y), c)
}

func hex(rgb uint32) color.RGBA {
	return color.RGBA{R: uint8(rgb >> 16), G: uint8(rgb >> 8), B: uint8(rgb), A: 0xff}
}

// DisplayName prefixes the registrant's title, as printed on cards and
// certificates.
func DisplayName(title, name string) string {
	title = strings.TrimSuffix(strings.TrimSpace(title), ".")
	if title == "" {
		return name
	}
	return title + ". " + name
}
