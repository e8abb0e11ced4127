package models

// BoundingBox is an axis-aligned rectangle in image pixel coordinates.
// X and Y locate the top-left corner; the origin is the image's top-left.
type BoundingBox struct {
	X      int `json:"x" yaml:"x"`
	Y      int `json:"y" yaml:"y"`
	Width  int `json:"width" yaml:"width"`
	Height int `json:"height" yaml:"height"`
}

// CenteredBox is the same rectangle expressed around its center point.
// This is the shape downstream consumers want for click targeting.
type CenteredBox struct {
	CenterX int `json:"center_x" yaml:"center_x"`
	CenterY int `json:"center_y" yaml:"center_y"`
	Width   int `json:"width" yaml:"width"`
	Height  int `json:"height" yaml:"height"`
}

// Center returns the pixel coordinates of the box center.
func (b BoundingBox) Center() (int, int) {
	return b.X + b.Width/2, b.Y + b.Height/2
}

// IsValid reports whether the box has positive area.
func (b BoundingBox) IsValid() bool {
	return b.Width > 0 && b.Height > 0
}

// Contains reports whether the point (x, y) falls inside the box.
func (b BoundingBox) Contains(x, y int) bool {
	return x >= b.X && x < b.X+b.Width && y >= b.Y && y < b.Y+b.Height
}

// Intersects reports whether the two boxes share any area.
func (b BoundingBox) Intersects(o BoundingBox) bool {
	return b.X < o.X+o.Width && o.X < b.X+b.Width &&
		b.Y < o.Y+o.Height && o.Y < b.Y+b.Height
}

// Shift returns a copy of the box moved by (dx, dy).
func (b BoundingBox) Shift(dx, dy int) BoundingBox {
	return BoundingBox{X: b.X + dx, Y: b.Y + dy, Width: b.Width, Height: b.Height}
}

// Clamp constrains the box to an image of the given dimensions. The
// top-left corner is pulled inside the image and the extent trimmed so
// the box never leaves it. Width and height never drop below 1.
func (b BoundingBox) Clamp(imageWidth, imageHeight int) BoundingBox {
	c := b
	if c.X < 0 {
		c.Width += c.X
		c.X = 0
	}
	if c.Y < 0 {
		c.Height += c.Y
		c.Y = 0
	}
	if c.X > imageWidth-1 {
		c.X = imageWidth - 1
	}
	if c.Y > imageHeight-1 {
		c.Y = imageHeight - 1
	}
	if c.X+c.Width > imageWidth {
		c.Width = imageWidth - c.X
	}
	if c.Y+c.Height > imageHeight {
		c.Height = imageHeight - c.Y
	}
	if c.Width < 1 {
		c.Width = 1
	}
	if c.Height < 1 {
		c.Height = 1
	}
	return c
}

// Centered converts the box to its center-point representation.
func (b BoundingBox) Centered() CenteredBox {
	cx, cy := b.Center()
	return CenteredBox{CenterX: cx, CenterY: cy, Width: b.Width, Height: b.Height}
}
