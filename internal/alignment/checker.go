// Package alignment runs per-button checks: render one highlighted
// box, ask the model whether it sits on its target, and optionally
// walk misaligned boxes toward their targets in fixed pixel steps.
package alignment

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"strings"

	"github.com/uialign/uialign/internal/logging"
	"github.com/uialign/uialign/internal/models"
	"github.com/uialign/uialign/internal/overlay"
	"github.com/uialign/uialign/internal/parse"
	"github.com/uialign/uialign/internal/vision"
)

// checkMaxTokens keeps the verdict terse; three tags need no more.
const checkMaxTokens = 300

// CheckerConfig tunes the per-button pass.
type CheckerConfig struct {
	// NudgeStep is the pixel distance one step moves a box.
	NudgeStep int

	// MaxNudges bounds checks per button in a nudge pass.
	MaxNudges int

	// Overlay controls how the single box is drawn.
	Overlay overlay.Options
}

// DefaultCheckerConfig returns the standard knobs.
func DefaultCheckerConfig() CheckerConfig {
	return CheckerConfig{
		NudgeStep: 10,
		MaxNudges: 3,
		Overlay:   overlay.DefaultOptions(),
	}
}

// Checker asks the model for single-button verdicts.
type Checker struct {
	client vision.Client
	cfg    CheckerConfig
	log    *slog.Logger
	trace  *logging.Trace
}

// NewChecker validates cfg and builds a Checker.
func NewChecker(client vision.Client, cfg CheckerConfig, logger *slog.Logger, trace *logging.Trace) (*Checker, error) {
	if cfg.NudgeStep < 1 {
		return nil, fmt.Errorf("alignment: nudge step must be at least 1, got %d", cfg.NudgeStep)
	}
	if cfg.MaxNudges < 1 {
		return nil, fmt.Errorf("alignment: max nudges must be at least 1, got %d", cfg.MaxNudges)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Checker{client: client, cfg: cfg, log: logger, trace: trace}, nil
}

// Check renders the button onto the screenshot and asks for a verdict.
// Failures fail open, reporting the box aligned, so one flaky call
// never wedges a run; a wrong "aligned" only costs a refinement.
func (c *Checker) Check(ctx context.Context, img image.Image, button models.Button) models.AlignmentCheck {
	failOpen := models.AlignmentCheck{
		IsAligned:   true,
		Direction:   models.DirectionNone,
		ParseMethod: models.ParseMethodTransportError,
	}

	annotated := overlay.RenderSingle(img, button, c.cfg.Overlay)
	data, err := overlay.EncodePNG(annotated)
	if err != nil {
		c.log.Warn("alignment check could not encode overlay", "button", button.ReferenceName, "error", err)
		return failOpen
	}

	response, err := c.client.Complete(ctx, vision.Request{
		Prompt:       buildCheckPrompt(button),
		ImageDataURL: vision.DataURL(data),
		MaxTokens:    checkMaxTokens,
		Temperature:  0.0,
	})
	if err != nil {
		c.log.Warn("alignment check failed, assuming aligned", "button", button.ReferenceName, "error", err)
		return failOpen
	}

	check := parse.ParseAlignment(response)
	c.trace.Event("check", "alignment verdict", map[string]any{
		"button":       button.ReferenceName,
		"aligned":      check.IsAligned,
		"direction":    check.Direction,
		"parse_method": check.ParseMethod,
	})
	return check
}

// NudgePass checks every button and walks misaligned ones step by
// step until the model is satisfied or the nudge budget runs out. The
// returned corrections feed the same applier as cycle corrections.
func (c *Checker) NudgePass(ctx context.Context, img image.Image, buttons []models.Button) []models.Correction {
	bounds := img.Bounds()

	var corrections []models.Correction
	for i, button := range buttons {
		current := button
		var moves []string

		for n := 0; n < c.cfg.MaxNudges; n++ {
			check := c.Check(ctx, img, current)
			if !check.NeedsMovement {
				break
			}
			current.BoundingBox = nudge(current.BoundingBox, check.Direction, c.cfg.NudgeStep).
				Clamp(bounds.Dx(), bounds.Dy())
			moves = append(moves, string(check.Direction))
		}

		if len(moves) > 0 {
			corrections = append(corrections, models.Correction{
				ButtonNumber: i + 1,
				NewBox:       current.BoundingBox,
				Issue:        "nudged " + strings.Join(moves, ", "),
			})
		}
	}
	return corrections
}

func nudge(box models.BoundingBox, direction models.Direction, step int) models.BoundingBox {
	switch direction {
	case models.DirectionUp:
		return box.Shift(0, -step)
	case models.DirectionDown:
		return box.Shift(0, step)
	case models.DirectionLeft:
		return box.Shift(-step, 0)
	case models.DirectionRight:
		return box.Shift(step, 0)
	}
	return box
}

func buildCheckPrompt(button models.Button) string {
	description := button.Description
	if description == "" {
		description = button.ReferenceName
	}
	return fmt.Sprintf(`The screenshot has ONE rectangle drawn on it, with a cross through its middle and a dot at its center. The rectangle is supposed to enclose this UI element: %q (%s).

Judge the drawn rectangle only.

Respond with EXACTLY these three tags and nothing else:
<aligned>yes or no</aligned>
<overlapping>yes or no</overlapping>
<direction>up, down, left, right or none</direction>

aligned: does the rectangle enclose the element well?
overlapping: does the rectangle touch the element at all?
direction: which way should the rectangle move? Use none when aligned.`, description, button.ElementType)
}
