package models

import (
	"testing"
)

func TestBoundingBox_Center(t *testing.T) {
	tests := []struct {
		name  string
		box   BoundingBox
		wantX int
		wantY int
	}{
		{
			name:  "even dimensions",
			box:   BoundingBox{X: 100, Y: 200, Width: 80, Height: 40},
			wantX: 140,
			wantY: 220,
		},
		{
			name:  "odd dimensions truncate",
			box:   BoundingBox{X: 0, Y: 0, Width: 5, Height: 3},
			wantX: 2,
			wantY: 1,
		},
		{
			name:  "zero size",
			box:   BoundingBox{X: 10, Y: 10},
			wantX: 10,
			wantY: 10,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotX, gotY := tt.box.Center()
			if gotX != tt.wantX || gotY != tt.wantY {
				t.Errorf("Center() = (%d, %d), want (%d, %d)", gotX, gotY, tt.wantX, tt.wantY)
			}
		})
	}
}

func TestBoundingBox_Contains(t *testing.T) {
	box := BoundingBox{X: 10, Y: 10, Width: 20, Height: 10}

	tests := []struct {
		name string
		x, y int
		want bool
	}{
		{name: "center", x: 20, y: 15, want: true},
		{name: "top-left corner inclusive", x: 10, y: 10, want: true},
		{name: "right edge exclusive", x: 30, y: 15, want: false},
		{name: "bottom edge exclusive", x: 20, y: 20, want: false},
		{name: "outside", x: 0, y: 0, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := box.Contains(tt.x, tt.y); got != tt.want {
				t.Errorf("Contains(%d, %d) = %v, want %v", tt.x, tt.y, got, tt.want)
			}
		})
	}
}

func TestBoundingBox_Intersects(t *testing.T) {
	base := BoundingBox{X: 0, Y: 0, Width: 100, Height: 100}

	tests := []struct {
		name  string
		other BoundingBox
		want  bool
	}{
		{
			name:  "overlapping",
			other: BoundingBox{X: 50, Y: 50, Width: 100, Height: 100},
			want:  true,
		},
		{
			name:  "contained",
			other: BoundingBox{X: 10, Y: 10, Width: 20, Height: 20},
			want:  true,
		},
		{
			name:  "touching edges do not intersect",
			other: BoundingBox{X: 100, Y: 0, Width: 50, Height: 100},
			want:  false,
		},
		{
			name:  "disjoint",
			other: BoundingBox{X: 200, Y: 200, Width: 10, Height: 10},
			want:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := base.Intersects(tt.other); got != tt.want {
				t.Errorf("Intersects(%+v) = %v, want %v", tt.other, got, tt.want)
			}
			// Intersection is symmetric
			if got := tt.other.Intersects(base); got != tt.want {
				t.Errorf("reverse Intersects = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBoundingBox_Clamp(t *testing.T) {
	tests := []struct {
		name string
		box  BoundingBox
		want BoundingBox
	}{
		{
			name: "already inside",
			box:  BoundingBox{X: 10, Y: 10, Width: 50, Height: 50},
			want: BoundingBox{X: 10, Y: 10, Width: 50, Height: 50},
		},
		{
			name: "negative origin trims extent",
			box:  BoundingBox{X: -20, Y: -10, Width: 50, Height: 50},
			want: BoundingBox{X: 0, Y: 0, Width: 30, Height: 40},
		},
		{
			name: "overflows right and bottom",
			box:  BoundingBox{X: 150, Y: 180, Width: 100, Height: 100},
			want: BoundingBox{X: 150, Y: 180, Width: 50, Height: 20},
		},
		{
			name: "fully outside snaps to edge with unit size",
			box:  BoundingBox{X: 500, Y: 500, Width: 40, Height: 40},
			want: BoundingBox{X: 199, Y: 199, Width: 1, Height: 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.box.Clamp(200, 200)
			if got != tt.want {
				t.Errorf("Clamp(200, 200) = %+v, want %+v", got, tt.want)
			}
			if got.Width < 1 || got.Height < 1 {
				t.Errorf("clamped box has non-positive size: %+v", got)
			}
		})
	}
}

func TestBoundingBox_Shift(t *testing.T) {
	box := BoundingBox{X: 100, Y: 100, Width: 30, Height: 20}
	got := box.Shift(-10, 25)
	want := BoundingBox{X: 90, Y: 125, Width: 30, Height: 20}
	if got != want {
		t.Errorf("Shift(-10, 25) = %+v, want %+v", got, want)
	}
}

func TestButton_Centered(t *testing.T) {
	b := Button{
		ReferenceName: "submit_button",
		BoundingBox:   BoundingBox{X: 100, Y: 200, Width: 80, Height: 40},
	}
	got := b.Centered()
	want := CenteredButton{
		ReferenceName: "submit_button",
		CenterX:       140,
		CenterY:       220,
		Width:         80,
		Height:        40,
	}
	if got != want {
		t.Errorf("Centered() = %+v, want %+v", got, want)
	}
}

func TestParseDirection(t *testing.T) {
	tests := []struct {
		in     string
		want   Direction
		wantOK bool
	}{
		{in: "up", want: DirectionUp, wantOK: true},
		{in: "down", want: DirectionDown, wantOK: true},
		{in: "left", want: DirectionLeft, wantOK: true},
		{in: "right", want: DirectionRight, wantOK: true},
		{in: "none", want: DirectionNone, wantOK: true},
		{in: "sideways", want: DirectionNone, wantOK: false},
		{in: "", want: DirectionNone, wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseDirection(tt.in)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("ParseDirection(%q) = (%q, %v), want (%q, %v)", tt.in, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}
