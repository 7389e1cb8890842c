// Package ansi renders composite images as truecolor half-block art
// for terminal preview of a drawn hand.
package ansi

import (
	"fmt"
	"image"
	"image/color"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/nfnt/resize"
)

// Render converts an image to ANSI art, cols characters wide. Each
// character cell covers a 2x2 pixel block using the upper-half glyph.
func Render(img image.Image, cols int) string {
	if cols < 4 {
		cols = 4
	}
	bounds := img.Bounds()
	if bounds.Dx() == 0 || bounds.Dy() == 0 {
		return ""
	}
	rows := cols * bounds.Dy() / bounds.Dx() / 2
	if rows < 1 {
		rows = 1
	}

	resized := resize.Resize(uint(cols*2), uint(rows*2), img, resize.Lanczos3)

	var buffer strings.Builder
	for y := 0; y < rows*2; y += 2 {
		for x := 0; x < cols*2; x += 2 {
			c1 := colorAt(resized, x, y)
			c2 := colorAt(resized, x+1, y)
			c3 := colorAt(resized, x, y+1)
			c4 := colorAt(resized, x+1, y+1)

			col1, _ := colorful.MakeColor(c1)
			col2, _ := colorful.MakeColor(c2)
			col3, _ := colorful.MakeColor(c3)
			col4, _ := colorful.MakeColor(c4)

			fg := toRGBA(averageColor(col1, col2))
			bg := toRGBA(averageColor(col3, col4))
			buffer.WriteString(cell('▀', fg, bg))
		}
		buffer.WriteString("\x1b[0m\n")
	}
	return buffer.String()
}

// colorAt returns the color at a coordinate, black when out of bounds.
func colorAt(img image.Image, x, y int) color.Color {
	bounds := img.Bounds()
	if x >= bounds.Min.X && x < bounds.Max.X && y >= bounds.Min.Y && y < bounds.Max.Y {
		return img.At(x, y)
	}
	return color.RGBA{0, 0, 0, 255}
}

// averageColor calculates the average of multiple colors.
func averageColor(colors ...colorful.Color) colorful.Color {
	var r, g, b float64
	for _, c := range colors {
		r += c.R
		g += c.G
		b += c.B
	}
	count := float64(len(colors))
	return colorful.Color{R: r / count, G: g / count, B: b / count}
}

func toRGBA(c colorful.Color) color.RGBA {
	return color.RGBA{
		R: uint8(c.R * 255),
		G: uint8(c.G * 255),
		B: uint8(c.B * 255),
		A: 255,
	}
}

// cell formats one half-block character with truecolor escapes.
func cell(char rune, fg, bg color.RGBA) string {
	return fmt.Sprintf("\x1b[38;2;%d;%d;%dm\x1b[48;2;%d;%d;%dm%c",
		fg.R, fg.G, fg.B, bg.R, bg.G, bg.B, char)
}

// Strip removes ANSI escape sequences, leaving the visible glyphs.
func Strip(s string) string {
	var result strings.Builder
	inEscape := false
	for _, c := range s {
		if inEscape {
			if c == 'm' {
				inEscape = false
			}
		} else if c == '\033' {
			inEscape = true
		} else {
			result.WriteRune(c)
		}
	}
	return result.String()
}
