package parse

import (
	"strings"
	"testing"

	"github.com/uialign/uialign/internal/models"
)

const detectionResponse = `I found two clickable elements.
<buttons>
  <button>
    <reference_name>submit_button</reference_name>
    <description>Blue submit button at the bottom of the form</description>
    <element_type>button</element_type>
    <confidence>0.9</confidence>
    <bbox_x>100</bbox_x>
    <bbox_y>200</bbox_y>
    <bbox_width>80</bbox_width>
    <bbox_height>40</bbox_height>
  </button>
  <button>
    <reference_name>cancel_link</reference_name>
    <element_type>link</element_type>
    <confidence>75</confidence>
    <bbox_x>220</bbox_x>
    <bbox_y>200</bbox_y>
    <bbox_width>60</bbox_width>
    <bbox_height>30</bbox_height>
  </button>
</buttons>`

func TestParseButtons(t *testing.T) {
	buttons, err := ParseButtons(detectionResponse, 800, 600)
	if err != nil {
		t.Fatalf("ParseButtons() error = %v", err)
	}
	if len(buttons) != 2 {
		t.Fatalf("len(buttons) = %d, want 2", len(buttons))
	}

	first := buttons[0]
	if first.ReferenceName != "submit_button" {
		t.Errorf("ReferenceName = %q, want submit_button", first.ReferenceName)
	}
	if first.ElementType != "button" {
		t.Errorf("ElementType = %q, want button", first.ElementType)
	}
	if first.Confidence != 0.9 {
		t.Errorf("Confidence = %v, want 0.9", first.Confidence)
	}
	wantBox := models.BoundingBox{X: 100, Y: 200, Width: 80, Height: 40}
	if first.BoundingBox != wantBox {
		t.Errorf("BoundingBox = %+v, want %+v", first.BoundingBox, wantBox)
	}

	// Percentage-scale confidence is normalized to [0, 1].
	if buttons[1].Confidence != 0.75 {
		t.Errorf("second Confidence = %v, want 0.75", buttons[1].Confidence)
	}
}

func TestParseButtons_WrapperOptional(t *testing.T) {
	raw := `<button>
  <bbox_x>10</bbox_x><bbox_y>20</bbox_y><bbox_width>30</bbox_width><bbox_height>40</bbox_height>
</button>`

	buttons, err := ParseButtons(raw, 0, 0)
	if err != nil {
		t.Fatalf("ParseButtons() error = %v", err)
	}
	if len(buttons) != 1 {
		t.Fatalf("len(buttons) = %d, want 1", len(buttons))
	}
	if buttons[0].ReferenceName != "button_1" {
		t.Errorf("missing name should default, got %q", buttons[0].ReferenceName)
	}
	if buttons[0].Confidence != 0.5 {
		t.Errorf("missing confidence should default to 0.5, got %v", buttons[0].Confidence)
	}
}

func TestParseButtons_SkipsIncompleteRecords(t *testing.T) {
	raw := `<buttons>
  <button>
    <reference_name>broken</reference_name>
    <bbox_x>10</bbox_x><bbox_y>20</bbox_y>
  </button>
  <button>
    <reference_name>ok</reference_name>
    <bbox_x>1</bbox_x><bbox_y>2</bbox_y><bbox_width>3</bbox_width><bbox_height>4</bbox_height>
  </button>
</buttons>`

	buttons, err := ParseButtons(raw, 0, 0)
	if err != nil {
		t.Fatalf("ParseButtons() error = %v", err)
	}
	if len(buttons) != 1 || buttons[0].ReferenceName != "ok" {
		t.Errorf("buttons = %+v, want just the complete record", buttons)
	}
}

func TestParseButtons_ClampsToImage(t *testing.T) {
	raw := `<button>
  <bbox_x>750</bbox_x><bbox_y>-10</bbox_y><bbox_width>200</bbox_width><bbox_height>50</bbox_height>
</button>`

	buttons, err := ParseButtons(raw, 800, 600)
	if err != nil {
		t.Fatalf("ParseButtons() error = %v", err)
	}
	box := buttons[0].BoundingBox
	if box.X < 0 || box.Y < 0 || box.X+box.Width > 800 || box.Y+box.Height > 600 {
		t.Errorf("box %+v escapes an 800x600 image", box)
	}
}

func TestParseButtons_NoRecords(t *testing.T) {
	tests := []string{
		"",
		"I couldn't find any buttons in this screenshot.",
		"<buttons></buttons>",
		"<button><bbox_x>oops</bbox_x></button>",
	}

	for _, raw := range tests {
		if _, err := ParseButtons(raw, 800, 600); err == nil {
			t.Errorf("ParseButtons(%q) expected error, got nil", raw)
		} else if !strings.Contains(err.Error(), "no parseable button") {
			t.Errorf("unexpected error text: %v", err)
		}
	}
}
