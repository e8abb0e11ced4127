package feedback

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/uialign/uialign/internal/alignment"
	"github.com/uialign/uialign/internal/config"
	"github.com/uialign/uialign/internal/detect"
	"github.com/uialign/uialign/internal/logging"
	"github.com/uialign/uialign/internal/models"
	"github.com/uialign/uialign/internal/overlay"
	"github.com/uialign/uialign/internal/retry"
	"github.com/uialign/uialign/internal/vision"
)

// OrchestratorConfig tunes a full alignment run.
type OrchestratorConfig struct {
	// MaxCycles caps the feedback loop.
	MaxCycles int

	// AccuracyTarget is the overall accuracy (0-100) at which a
	// correction-free cycle ends the run early.
	AccuracyTarget int

	// ConsecutiveFailureLimit ends the run after this many unusable
	// cycles in a row.
	ConsecutiveFailureLimit int

	// NudgePass runs the per-button checker before the first cycle.
	NudgePass bool

	Cycle   CycleConfig
	Checker alignment.CheckerConfig
	Detect  retry.Policy
	Overlay overlay.Options
}

// DefaultOrchestratorConfig returns the standard knobs.
func DefaultOrchestratorConfig() OrchestratorConfig {
	return OrchestratorConfig{
		MaxCycles:               3,
		AccuracyTarget:          90,
		ConsecutiveFailureLimit: 2,
		NudgePass:               false,
		Cycle:                   DefaultCycleConfig(),
		Checker:                 alignment.DefaultCheckerConfig(),
		Detect:                  retry.DefaultPolicy(),
		Overlay:                 overlay.DefaultOptions(),
	}
}

// FromConfig maps the loaded file configuration onto loop knobs.
func FromConfig(conf config.Config) OrchestratorConfig {
	cfg := DefaultOrchestratorConfig()
	cfg.MaxCycles = conf.Loop.MaxCycles
	cfg.AccuracyTarget = conf.Loop.AccuracyTarget
	cfg.ConsecutiveFailureLimit = conf.Loop.ConsecutiveFailureLimit
	cfg.Cycle.MaxRetries = conf.Loop.MaxRetries
	cfg.Cycle.Backoff = conf.RetryPolicy()
	cfg.Detect = conf.RetryPolicy()
	cfg.Checker.NudgeStep = conf.Loop.NudgeStep
	cfg.Overlay = overlay.Options{
		LineWidth:      conf.Overlay.LineWidth,
		DrawCrosshairs: conf.Overlay.DrawCrosshairs,
		DrawLabels:     conf.Overlay.DrawLabels,
	}
	return cfg
}

func (c OrchestratorConfig) validate() error {
	if c.MaxCycles < 1 {
		return fmt.Errorf("feedback: max cycles must be at least 1, got %d", c.MaxCycles)
	}
	if c.AccuracyTarget < 1 || c.AccuracyTarget > 100 {
		return fmt.Errorf("feedback: accuracy target must be between 1 and 100, got %d", c.AccuracyTarget)
	}
	if c.ConsecutiveFailureLimit < 1 {
		return fmt.Errorf("feedback: consecutive failure limit must be at least 1, got %d", c.ConsecutiveFailureLimit)
	}
	return c.Cycle.validate()
}

// Orchestrator owns full alignment runs. It is safe for concurrent
// use: every Run gets its own call counter and loop components.
type Orchestrator struct {
	client vision.Client
	cfg    OrchestratorConfig
	log    *slog.Logger
	trace  *logging.Trace
}

// NewOrchestrator validates cfg and builds an Orchestrator.
func NewOrchestrator(client vision.Client, cfg OrchestratorConfig, logger *slog.Logger, trace *logging.Trace) (*Orchestrator, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if cfg.NudgePass {
		if _, err := alignment.NewChecker(client, cfg.Checker, logger, trace); err != nil {
			return nil, err
		}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{client: client, cfg: cfg, log: logger, trace: trace}, nil
}

// Run aligns buttons on the screenshot and reports the full history.
// A nil or empty initial list triggers detection first; a detection
// failure aborts the run since there is nothing to refine. Past that
// point Run always returns a result: transport and parsing trouble is
// recorded in the history, not surfaced as an error.
func (o *Orchestrator) Run(ctx context.Context, img image.Image, imagePath string, initial []models.Button) (*models.RunResult, error) {
	counter := vision.NewCounter(o.client)
	bounds := img.Bounds()

	result := &models.RunResult{
		RunID:       uuid.New().String(),
		ImagePath:   imagePath,
		ImageWidth:  bounds.Dx(),
		ImageHeight: bounds.Dy(),
		StartedAt:   time.Now().UTC(),
	}

	buttons := cloneButtons(initial)
	if len(buttons) == 0 {
		data, err := overlay.EncodePNG(img)
		if err != nil {
			return nil, fmt.Errorf("encode screenshot: %w", err)
		}
		detector := detect.New(counter, o.cfg.Detect, o.log, o.trace)
		buttons, err = detector.Detect(ctx, vision.DataURL(data), result.ImageWidth, result.ImageHeight)
		if err != nil {
			return nil, err
		}
	}

	cycle, err := NewCycle(counter, o.cfg.Cycle, o.log, o.trace)
	if err != nil {
		return nil, err
	}

	if o.cfg.NudgePass {
		checker, err := alignment.NewChecker(counter, o.cfg.Checker, o.log, o.trace)
		if err != nil {
			return nil, err
		}
		nudges := checker.NudgePass(ctx, img, buttons)
		ApplyCorrections(buttons, nudges, 0)
		o.log.Info("nudge pass complete", "run_id", result.RunID, "nudged", len(nudges))
	}

	consecutiveFailures := 0
	for n := 1; n <= o.cfg.MaxCycles; n++ {
		data, err := overlay.EncodePNG(overlay.Render(img, buttons, o.cfg.Overlay))
		if err != nil {
			return nil, fmt.Errorf("encode cycle %d overlay: %w", n, err)
		}

		cycleResult, attempts := cycle.Run(ctx, vision.DataURL(data), buttons, n)

		record := models.CycleRecord{
			Cycle:             n,
			ResponseType:      cycleResult.ResponseType,
			ParsingSuccessful: cycleResult.ParsingSuccessful,
			Confidence:        cycleResult.Confidence,
			OverallAccuracy:   cycleResult.OverallAccuracy,
			Attempts:          attempts,
		}

		if cycleResult.ParsingSuccessful {
			consecutiveFailures = 0
			record.CorrectionsApplied = ApplyCorrections(buttons, cycleResult.Corrections, n)
			if len(cycleResult.Corrections) == 0 && cycleResult.OverallAccuracy >= o.cfg.AccuracyTarget {
				record.TerminationReason = models.TerminationHighAccuracy
			}
		} else {
			consecutiveFailures++
			if consecutiveFailures >= o.cfg.ConsecutiveFailureLimit {
				record.TerminationReason = models.TerminationConsecutiveFailures
			}
		}

		record.Buttons = cloneButtons(buttons)
		result.History = append(result.History, record)

		o.log.Info("cycle complete",
			"run_id", result.RunID,
			"cycle", n,
			"response_type", record.ResponseType,
			"corrections_applied", record.CorrectionsApplied,
			"accuracy", record.OverallAccuracy)

		if record.TerminationReason != "" {
			result.TerminationReason = record.TerminationReason
			break
		}
	}

	if result.TerminationReason == "" {
		result.TerminationReason = models.TerminationMaxCycles
		if len(result.History) > 0 {
			result.History[len(result.History)-1].TerminationReason = models.TerminationMaxCycles
		}
	}

	result.Buttons = buttons
	result.Centered = centeredButtons(buttons)
	result.VisionCalls = counter.Calls()
	result.FinishedAt = time.Now().UTC()

	o.log.Info("run complete",
		"run_id", result.RunID,
		"cycles", len(result.History),
		"termination", result.TerminationReason,
		"vision_calls", result.VisionCalls)
	return result, nil
}

// cloneButtons copies the slice and the boxes hanging off it so a
// caller's input survives the loop untouched.
func cloneButtons(buttons []models.Button) []models.Button {
	out := make([]models.Button, len(buttons))
	copy(out, buttons)
	for i := range out {
		if out[i].PreviousBox != nil {
			previous := *out[i].PreviousBox
			out[i].PreviousBox = &previous
		}
	}
	return out
}

func centeredButtons(buttons []models.Button) []models.CenteredButton {
	out := make([]models.CenteredButton, len(buttons))
	for i, b := range buttons {
		out[i] = b.Centered()
	}
	return out
}
