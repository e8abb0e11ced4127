package parse

import (
	"fmt"
	"strings"

	"github.com/uialign/uialign/internal/models"
)

// ParseButtons extracts detected buttons from a detection response.
// Records live in <button> blocks, ideally inside a <buttons> wrapper,
// but the wrapper is optional. A record needs all four box fields;
// names default to button_N and confidence to 0.5. Boxes are clamped
// to the image when its dimensions are known.
//
// Unlike the feedback parsers this one can fail: a detection pass that
// yields no usable buttons leaves the loop with nothing to refine.
func ParseButtons(raw string, imageWidth, imageHeight int) ([]models.Button, error) {
	text := strings.TrimSpace(raw)

	scope := text
	if body, ok := tagValue(text, "buttons"); ok {
		scope = body
	}

	var buttons []models.Button
	for i, block := range tagBlocks(scope, "button") {
		x, okX := tagIntStrict(block, "bbox_x")
		y, okY := tagIntStrict(block, "bbox_y")
		width, okW := tagIntStrict(block, "bbox_width")
		height, okH := tagIntStrict(block, "bbox_height")
		if !okX || !okY || !okW || !okH {
			continue
		}

		box := models.BoundingBox{X: x, Y: y, Width: width, Height: height}
		if !box.IsValid() {
			continue
		}
		if imageWidth > 0 && imageHeight > 0 {
			box = box.Clamp(imageWidth, imageHeight)
		}

		name, ok := tagValue(block, "reference_name")
		if !ok || name == "" {
			name = fmt.Sprintf("button_%d", i+1)
		}

		confidence := tagFloat(block, "confidence", 0.5)
		if confidence > 1 {
			// Models often answer on a 0-100 scale.
			confidence /= 100
		}
		if confidence < 0 {
			confidence = 0
		}

		button := models.Button{
			ReferenceName: name,
			Confidence:    confidence,
			BoundingBox:   box,
		}
		button.Description, _ = tagValue(block, "description")
		button.ElementType, _ = tagValue(block, "element_type")
		buttons = append(buttons, button)
	}

	if len(buttons) == 0 {
		return nil, fmt.Errorf("no parseable button records in response")
	}
	return buttons, nil
}
