// Package detect performs the initial button discovery pass: one
// vision call that enumerates clickable elements and their rough
// boxes, which the feedback loop then refines.
package detect

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/uialign/uialign/internal/logging"
	"github.com/uialign/uialign/internal/models"
	"github.com/uialign/uialign/internal/parse"
	"github.com/uialign/uialign/internal/retry"
	"github.com/uialign/uialign/internal/vision"
)

// detectMaxTokens leaves room for a dozen button records.
const detectMaxTokens = 2000

// Detector runs the discovery pass.
type Detector struct {
	client vision.Client
	policy retry.Policy
	log    *slog.Logger
	trace  *logging.Trace
}

// New builds a Detector. The policy governs how often a failed or
// unparseable discovery call is re-asked.
func New(client vision.Client, policy retry.Policy, logger *slog.Logger, trace *logging.Trace) *Detector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Detector{client: client, policy: policy, log: logger, trace: trace}
}

// Detect asks the model to enumerate clickable elements on the
// screenshot. Boxes are clamped to the image. Unlike the feedback
// loop, detection fails loudly: without buttons there is nothing to
// align.
func (d *Detector) Detect(ctx context.Context, imageDataURL string, width, height int) ([]models.Button, error) {
	prompt := buildDetectPrompt(width, height)

	var buttons []models.Button
	err := d.policy.Do(ctx, func(attempt int) (bool, error) {
		response, err := d.client.Complete(ctx, vision.Request{
			Prompt:       prompt,
			ImageDataURL: imageDataURL,
			MaxTokens:    detectMaxTokens,
			Temperature:  0.0,
		})
		if err != nil {
			d.log.Warn("detection call failed", "attempt", attempt, "error", err)
			return vision.Retryable(err), err
		}

		parsed, err := parse.ParseButtons(response, width, height)
		if err != nil {
			// A model that answered prose once may follow the tag
			// contract when re-asked.
			d.log.Warn("detection response unparseable", "attempt", attempt)
			d.trace.Event("detect", "unparseable detection response", map[string]any{
				"attempt":  attempt,
				"response": response,
			})
			return true, err
		}

		buttons = parsed
		return false, nil
	})
	if err != nil {
		return nil, fmt.Errorf("detect buttons: %w", err)
	}

	d.log.Info("detected buttons", "count", len(buttons))
	d.trace.Event("detect", "initial detection", map[string]any{"buttons": buttons})
	return buttons, nil
}

// LoadFile reads a pre-detected button list from a JSON file, for
// callers that already know their elements and only want alignment.
func LoadFile(path string) ([]models.Button, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read buttons file: %w", err)
	}

	var buttons []models.Button
	if err := json.Unmarshal(data, &buttons); err != nil {
		return nil, fmt.Errorf("parse buttons file: %w", err)
	}
	if len(buttons) == 0 {
		return nil, fmt.Errorf("buttons file %s is empty", path)
	}
	for i, b := range buttons {
		if !b.BoundingBox.IsValid() {
			return nil, fmt.Errorf("button %d (%s) has an invalid box", i+1, b.ReferenceName)
		}
	}
	return buttons, nil
}

func buildDetectPrompt(width, height int) string {
	return fmt.Sprintf(`You are looking at a UI screenshot that is %d x %d pixels. The origin (0,0) is the top-left corner.

Find every clickable button, link, or interactive control visible in the screenshot.

Respond with EXACTLY this XML structure and nothing else:

<buttons>
  <button>
    <reference_name>short_snake_case_name</reference_name>
    <description>what the element is and where it sits</description>
    <element_type>button</element_type>
    <confidence>0.9</confidence>
    <bbox_x>LEFT_EDGE_PIXELS</bbox_x>
    <bbox_y>TOP_EDGE_PIXELS</bbox_y>
    <bbox_width>WIDTH_PIXELS</bbox_width>
    <bbox_height>HEIGHT_PIXELS</bbox_height>
  </button>
</buttons>

One <button> block per element. Coordinates must be integers inside the image.`, width, height)
}
