// Package overlay renders button boxes onto screenshots so the model
// can critique its own placements. Rectangles get an outline, quadrant
// cross-hairs, a center dot, and a number label matching the button's
// 1-based position in the prompt.
package overlay

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/uialign/uialign/internal/models"
)

// Options control annotation rendering.
type Options struct {
	// LineWidth is the outline thickness in pixels.
	LineWidth int

	// DrawCrosshairs toggles the quadrant dividers and center dot.
	DrawCrosshairs bool

	// DrawLabels toggles the number beside each box.
	DrawLabels bool
}

// DefaultOptions matches the config defaults.
func DefaultOptions() Options {
	return Options{LineWidth: 3, DrawCrosshairs: true, DrawLabels: true}
}

// palette cycles per button index so adjacent boxes stay apart.
var palette = []color.RGBA{
	{R: 0xE5, G: 0x39, B: 0x35, A: 0xFF}, // red
	{R: 0x43, G: 0xA0, B: 0x47, A: 0xFF}, // green
	{R: 0x1E, G: 0x88, B: 0xE5, A: 0xFF}, // blue
	{R: 0xFB, G: 0x8C, B: 0x00, A: 0xFF}, // orange
	{R: 0x8E, G: 0x24, B: 0xAA, A: 0xFF}, // purple
	{R: 0x00, G: 0xAC, B: 0xC1, A: 0xFF}, // cyan
}

// Color returns the annotation color for the 0-based button index.
func Color(index int) color.RGBA {
	if index < 0 {
		index = 0
	}
	return palette[index%len(palette)]
}

// Render draws every button onto a copy of img. The source image is
// never modified.
func Render(img image.Image, buttons []models.Button, opts Options) *image.RGBA {
	out := cloneRGBA(img)
	for i, b := range buttons {
		drawButton(out, b.BoundingBox, Color(i), i+1, opts)
	}
	return out
}

// RenderSingle highlights one button, for the per-button alignment
// check where only a single box is under scrutiny.
func RenderSingle(img image.Image, button models.Button, opts Options) *image.RGBA {
	out := cloneRGBA(img)
	drawButton(out, button.BoundingBox, Color(0), 1, opts)
	return out
}

func cloneRGBA(img image.Image) *image.RGBA {
	bounds := img.Bounds()
	out := image.NewRGBA(bounds)
	draw.Draw(out, bounds, img, bounds.Min, draw.Src)
	return out
}

func drawButton(dst *image.RGBA, box models.BoundingBox, col color.RGBA, number int, opts Options) {
	lw := opts.LineWidth
	if lw < 1 {
		lw = 1
	}

	x0, y0 := box.X, box.Y
	x1, y1 := box.X+box.Width, box.Y+box.Height

	// Outline, drawn inward from the edges.
	fillRect(dst, x0, y0, x1, y0+lw, col)
	fillRect(dst, x0, y1-lw, x1, y1, col)
	fillRect(dst, x0, y0, x0+lw, y1, col)
	fillRect(dst, x1-lw, y0, x1, y1, col)

	if opts.DrawCrosshairs {
		cx, cy := box.Center()
		fillRect(dst, cx, y0, cx+1, y1, col)
		fillRect(dst, x0, cy, x1, cy+1, col)
		fillDot(dst, cx, cy, 3, col)
	}

	if opts.DrawLabels {
		drawLabel(dst, box, fmt.Sprintf("%d", number), col)
	}
}

// fillRect paints the half-open rectangle [x0,x1)x[y0,y1). Set clips
// out-of-bounds pixels, so callers never need to.
func fillRect(dst *image.RGBA, x0, y0, x1, y1 int, col color.RGBA) {
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			dst.Set(x, y, col)
		}
	}
}

func fillDot(dst *image.RGBA, cx, cy, radius int, col color.RGBA) {
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			if dx*dx+dy*dy <= radius*radius {
				dst.Set(cx+dx, cy+dy, col)
			}
		}
	}
}

// drawLabel puts the number just above the box's top-left corner, or
// inside it when the box already touches the top of the image.
func drawLabel(dst *image.RGBA, box models.BoundingBox, text string, col color.RGBA) {
	face := basicfont.Face7x13
	textWidth := len(text) * 7

	x := box.X
	baseline := box.Y - 4
	if baseline-face.Ascent < dst.Bounds().Min.Y {
		baseline = box.Y + face.Height + 2
	}

	// White backing keeps the number readable on busy screenshots.
	fillRect(dst, x-1, baseline-face.Ascent-1, x+textWidth+1, baseline+3, color.RGBA{0xFF, 0xFF, 0xFF, 0xFF})

	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(col),
		Face: face,
		Dot:  fixed.P(x, baseline),
	}
	d.DrawString(text)
}
