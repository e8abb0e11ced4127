// Package mcp exposes alignment runs over the Model Context Protocol
// so AI coding tools can call them as tools over stdio.
package mcp

import (
	"context"
	"fmt"
	"os"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/uialign/uialign/internal/alignment"
	"github.com/uialign/uialign/internal/config"
	"github.com/uialign/uialign/internal/feedback"
	"github.com/uialign/uialign/internal/logging"
	"github.com/uialign/uialign/internal/models"
	"github.com/uialign/uialign/internal/overlay"
	"github.com/uialign/uialign/internal/store"
	"github.com/uialign/uialign/internal/vision"
)

// Config holds MCP server configuration.
type Config struct {
	Name    string
	Version string
	Root    string
}

// Server wraps the MCP protocol server with the alignment loop and
// run store behind it.
type Server struct {
	server       *sdk.Server
	store        store.RunStore
	orchestrator *feedback.Orchestrator
	checker      *alignment.Checker
	root         string
	closed       bool
}

// NewServer builds the server, creating the state directory under
// root when it does not exist yet.
func NewServer(cfg *Config) (*Server, error) {
	root := cfg.Root
	if root == "" {
		root = "."
	}
	if err := os.MkdirAll(config.Dir(root), 0o755); err != nil {
		return nil, fmt.Errorf("create state directory: %w", err)
	}

	conf, err := config.Load(root)
	if err != nil {
		return nil, err
	}

	// Stdout carries JSON-RPC frames, so all logging goes to stderr.
	logger, trace, err := logging.New(logging.Options{
		Level:     conf.Log.Level,
		Console:   os.Stderr,
		TracePath: conf.TracePath(root),
	})
	if err != nil {
		return nil, err
	}

	client, err := vision.NewOpenAIClient(vision.ClientConfig{
		BaseURL: conf.API.BaseURL,
		APIKey:  conf.APIKey(),
		Model:   conf.API.Model,
		Detail:  conf.API.Detail,
		Proxy:   conf.API.Proxy,
		Timeout: conf.Timeout(),
	}, logger, trace)
	if err != nil {
		return nil, err
	}

	orchestrator, err := feedback.NewOrchestrator(client, feedback.FromConfig(conf), logger, trace)
	if err != nil {
		return nil, err
	}

	checkerCfg := alignment.DefaultCheckerConfig()
	checkerCfg.NudgeStep = conf.Loop.NudgeStep
	checker, err := alignment.NewChecker(client, checkerCfg, logger, trace)
	if err != nil {
		return nil, err
	}

	runStore, err := store.NewSQLiteStore(conf.DBPath(root))
	if err != nil {
		return nil, err
	}

	s := &Server{
		store:        runStore,
		orchestrator: orchestrator,
		checker:      checker,
		root:         root,
	}

	s.server = sdk.NewServer(&sdk.Implementation{Name: cfg.Name, Version: cfg.Version}, nil)
	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "align_buttons",
		Description: "Detect (or take) button bounding boxes on a screenshot and refine them through vision feedback cycles. Returns the final boxes, their center points, and the cycle history.",
	}, s.alignButtons)
	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "check_alignment",
		Description: "Ask whether one bounding box encloses its UI element on a screenshot. Returns the verdict and, when misaligned, the direction to move.",
	}, s.checkAlignment)
	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "list_runs",
		Description: "List stored alignment runs, newest first.",
	}, s.listRuns)

	return s, nil
}

// AlignButtonsInput is the align_buttons tool request.
type AlignButtonsInput struct {
	ImagePath string          `json:"image_path" jsonschema:"path to the screenshot file"`
	Buttons   []models.Button `json:"buttons,omitempty" jsonschema:"known button boxes; omit to detect them from the screenshot"`
}

// AlignButtonsOutput is the align_buttons tool response.
type AlignButtonsOutput struct {
	RunID             string                  `json:"run_id"`
	TerminationReason string                  `json:"termination_reason"`
	Cycles            int                     `json:"cycles"`
	VisionCalls       int                     `json:"vision_calls"`
	Buttons           []models.Button         `json:"buttons"`
	Centered          []models.CenteredButton `json:"centered"`
}

func (s *Server) alignButtons(ctx context.Context, req *sdk.CallToolRequest, in AlignButtonsInput) (*sdk.CallToolResult, AlignButtonsOutput, error) {
	img, _, err := overlay.Decode(in.ImagePath)
	if err != nil {
		return nil, AlignButtonsOutput{}, err
	}

	result, err := s.orchestrator.Run(ctx, img, in.ImagePath, in.Buttons)
	if err != nil {
		return nil, AlignButtonsOutput{}, err
	}
	if err := s.store.SaveRun(ctx, result); err != nil {
		return nil, AlignButtonsOutput{}, err
	}

	out := AlignButtonsOutput{
		RunID:             result.RunID,
		TerminationReason: result.TerminationReason,
		Cycles:            len(result.History),
		VisionCalls:       result.VisionCalls,
		Buttons:           result.Buttons,
		Centered:          result.Centered,
	}
	return nil, out, nil
}

// CheckAlignmentInput is the check_alignment tool request.
type CheckAlignmentInput struct {
	ImagePath     string `json:"image_path" jsonschema:"path to the screenshot file"`
	ReferenceName string `json:"reference_name,omitempty" jsonschema:"name of the element inside the box"`
	X             int    `json:"x"`
	Y             int    `json:"y"`
	Width         int    `json:"width"`
	Height        int    `json:"height"`
}

// CheckAlignmentOutput is the check_alignment tool response.
type CheckAlignmentOutput struct {
	IsAligned     bool   `json:"is_aligned"`
	Overlapping   bool   `json:"overlapping"`
	Direction     string `json:"direction"`
	NeedsMovement bool   `json:"needs_movement"`
	ParseMethod   string `json:"parse_method"`
}

func (s *Server) checkAlignment(ctx context.Context, req *sdk.CallToolRequest, in CheckAlignmentInput) (*sdk.CallToolResult, CheckAlignmentOutput, error) {
	box := models.BoundingBox{X: in.X, Y: in.Y, Width: in.Width, Height: in.Height}
	if !box.IsValid() {
		return nil, CheckAlignmentOutput{}, fmt.Errorf("invalid bounding box: %+v", box)
	}

	img, _, err := overlay.Decode(in.ImagePath)
	if err != nil {
		return nil, CheckAlignmentOutput{}, err
	}

	name := in.ReferenceName
	if name == "" {
		name = "element"
	}
	check := s.checker.Check(ctx, img, models.Button{ReferenceName: name, BoundingBox: box})

	out := CheckAlignmentOutput{
		IsAligned:     check.IsAligned,
		Overlapping:   check.Overlapping,
		Direction:     string(check.Direction),
		NeedsMovement: check.NeedsMovement,
		ParseMethod:   check.ParseMethod,
	}
	return nil, out, nil
}

// ListRunsInput is the list_runs tool request.
type ListRunsInput struct {
	Limit int `json:"limit,omitempty" jsonschema:"maximum number of runs to return; 0 means all"`
}

// ListRunsOutput is the list_runs tool response.
type ListRunsOutput struct {
	Runs []store.RunSummary `json:"runs"`
}

func (s *Server) listRuns(ctx context.Context, req *sdk.CallToolRequest, in ListRunsInput) (*sdk.CallToolResult, ListRunsOutput, error) {
	summaries, err := s.store.ListRuns(ctx, in.Limit)
	if err != nil {
		return nil, ListRunsOutput{}, err
	}
	return nil, ListRunsOutput{Runs: summaries}, nil
}

// Run serves MCP over stdio until the client disconnects or ctx ends.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &sdk.StdioTransport{})
}

// Close releases the run store. Safe to call more than once.
func (s *Server) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.store.Close()
}
