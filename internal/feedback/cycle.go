// Package feedback drives the correction loop: show the model its own
// boxes drawn on the screenshot, parse the critique, apply the box
// replacements, and repeat until the model is satisfied or the budget
// runs out.
package feedback

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/uialign/uialign/internal/logging"
	"github.com/uialign/uialign/internal/models"
	"github.com/uialign/uialign/internal/parse"
	"github.com/uialign/uialign/internal/retry"
	"github.com/uialign/uialign/internal/vision"
)

// syntheticConfidence marks a cycle that never got a response at all.
// It sits below the generic-advice floor so downstream consumers can
// tell "the model talked nonsense" from "nobody answered".
const syntheticConfidence = 25

// CycleConfig tunes one feedback cycle.
type CycleConfig struct {
	// MaxRetries is how many re-asks follow an unusable response,
	// beyond the first attempt.
	MaxRetries int

	// MaxTokens bounds the critique length.
	MaxTokens int

	// Temperature pins sampling. Slightly above zero helps a model
	// rephrase rather than repeat an unparseable answer.
	Temperature float32

	// Backoff paces re-asks.
	Backoff retry.Policy
}

// DefaultCycleConfig returns the standard knobs.
func DefaultCycleConfig() CycleConfig {
	return CycleConfig{
		MaxRetries:  2,
		MaxTokens:   2000,
		Temperature: 0.1,
		Backoff:     retry.DefaultPolicy(),
	}
}

func (c CycleConfig) validate() error {
	if c.MaxRetries < 0 {
		return fmt.Errorf("feedback: max retries must not be negative, got %d", c.MaxRetries)
	}
	if c.MaxTokens < 1 {
		return fmt.Errorf("feedback: max tokens must be at least 1, got %d", c.MaxTokens)
	}
	return nil
}

// Cycle asks the model to critique every box at once.
type Cycle struct {
	client vision.Client
	cfg    CycleConfig
	log    *slog.Logger
	trace  *logging.Trace
}

// NewCycle validates cfg and builds a Cycle.
func NewCycle(client vision.Client, cfg CycleConfig, logger *slog.Logger, trace *logging.Trace) (*Cycle, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Cycle{client: client, cfg: cfg, log: logger, trace: trace}, nil
}

// Run executes one feedback cycle against the annotated screenshot.
// Every attempt is one vision call; unusable responses are re-asked
// with escalating insistence. Run never fails: when the final attempt
// dies in transport a synthetic low-confidence result comes back, and
// when every received response was unusable the last one is returned
// retagged all_retries_failed. The int reports vision calls consumed.
func (c *Cycle) Run(ctx context.Context, imageDataURL string, buttons []models.Button, cycleNumber int) (models.CycleResult, int) {
	attempts := c.cfg.MaxRetries + 1
	calls := 0
	var last models.CycleResult

	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			// Ignore cancellation here; a dead context makes the
			// next call fail immediately anyway.
			_ = retry.Sleep(ctx, c.cfg.Backoff.Delay(attempt-1))
		}

		response, err := c.client.Complete(ctx, vision.Request{
			Prompt:       buildFeedbackPrompt(buttons, cycleNumber, attempt),
			ImageDataURL: imageDataURL,
			MaxTokens:    c.cfg.MaxTokens,
			Temperature:  c.cfg.Temperature,
		})
		calls++

		if err != nil {
			c.log.Warn("feedback attempt failed", "cycle", cycleNumber, "attempt", attempt, "error", err)
			if attempt == attempts {
				return models.CycleResult{
					ResponseType:    models.ResponseTransportError,
					Confidence:      syntheticConfidence,
					OverallAccuracy: 0,
				}, calls
			}
			continue
		}

		result := parse.ParseFeedback(response)
		c.trace.Event("cycle", "feedback parsed", map[string]any{
			"cycle":         cycleNumber,
			"attempt":       attempt,
			"response_type": result.ResponseType,
			"analyses":      len(result.Analyses),
			"corrections":   len(result.Corrections),
		})

		if result.ParsingSuccessful {
			return result, calls
		}
		c.log.Warn("feedback response unusable",
			"cycle", cycleNumber, "attempt", attempt, "response_type", result.ResponseType)
		last = result
	}

	last.ResponseType = models.ResponseAllRetriesFailed
	return last, calls
}

// buildFeedbackPrompt describes the annotated screenshot and demands
// the XML critique. Retry attempts prepend escalating insistence,
// since by then the model has already ignored the contract once.
func buildFeedbackPrompt(buttons []models.Button, cycleNumber, attempt int) string {
	var b strings.Builder

	switch {
	case attempt == 2:
		b.WriteString("Your previous response could not be parsed. Follow the XML format EXACTLY as specified below. Do not add any text outside the tags.\n\n")
	case attempt > 2:
		b.WriteString("FINAL ATTEMPT. Respond with ONLY the XML structure below. No explanations, no markdown, no apologies. Any deviation makes the response unusable.\n\n")
	}

	fmt.Fprintf(&b, "This is refinement cycle %d. The screenshot shows %d numbered rectangles, each supposed to enclose a UI element. Each rectangle has a cross through its middle and a dot at its center.\n\n", cycleNumber, len(buttons))

	b.WriteString("The rectangles:\n")
	for i, button := range buttons {
		box := button.BoundingBox
		fmt.Fprintf(&b, "%d. %s", i+1, button.ReferenceName)
		if button.Description != "" {
			fmt.Fprintf(&b, " (%s)", button.Description)
		}
		fmt.Fprintf(&b, " at x=%d y=%d width=%d height=%d", box.X, box.Y, box.Width, box.Height)
		if button.LastIssue != "" {
			fmt.Fprintf(&b, " [previous issue: %s]", button.LastIssue)
		}
		b.WriteString("\n")
	}

	b.WriteString(`
Inspect every rectangle and respond with EXACTLY this structure:

<feedback>
  <button_analysis>
    <button_number>N</button_number>
    <coverage>full, partial or none</coverage>
    <quadrants>which quadrants of the element the box covers, comma separated</quadrants>
    <center_accurate>yes or no</center_accurate>
    <needs_adjustment>yes or no</needs_adjustment>
    <suggested_action>short description</suggested_action>
  </button_analysis>
</feedback>
<corrections>
  <correction>
    <button_number>N</button_number>
    <new_bbox_x>X</new_bbox_x>
    <new_bbox_y>Y</new_bbox_y>
    <new_bbox_width>W</new_bbox_width>
    <new_bbox_height>H</new_bbox_height>
    <issue>what was wrong</issue>
  </correction>
</corrections>
<summary>
  <confidence>0-100</confidence>
  <overall_accuracy>0-100</overall_accuracy>
</summary>

One button_analysis per rectangle. Include a correction ONLY for rectangles that need to move or resize; a perfect screenshot has an empty corrections block. All coordinates are integers in image pixels.`)

	return b.String()
}
