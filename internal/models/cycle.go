package models

import "time"

// Direction is a coarse movement hint for a misaligned box.
type Direction string

const (
	DirectionUp    Direction = "up"
	DirectionDown  Direction = "down"
	DirectionLeft  Direction = "left"
	DirectionRight Direction = "right"
	DirectionNone  Direction = "none"
)

// ParseDirection maps free text onto a Direction. The bool reports
// whether the input named a known direction.
func ParseDirection(s string) (Direction, bool) {
	switch Direction(s) {
	case DirectionUp, DirectionDown, DirectionLeft, DirectionRight, DirectionNone:
		return Direction(s), true
	}
	return DirectionNone, false
}

// Valid reports whether d is one of the five known directions.
func (d Direction) Valid() bool {
	_, ok := ParseDirection(string(d))
	return ok
}

// Response types a feedback cycle can produce. Only
// ResponseStructuredFeedback counts as a parsing success.
const (
	ResponseStructuredFeedback = "structured_feedback"
	ResponseGenericAdvice      = "generic_advice"
	ResponseNoXMLStructure     = "no_xml_structure"
	ResponsePartialXML         = "partial_xml"
	ResponseAllRetriesFailed   = "all_retries_failed"
	ResponseTransportError     = "transport_error"
)

// Parse methods recorded on a single-button alignment check.
const (
	ParseMethodStandardXML    = "standard_xml"
	ParseMethodWordFrequency  = "word_frequency"
	ParseMethodKeywordScan    = "keyword_scan"
	ParseMethodTransportError = "transport_error"
)

// Reasons a run can stop.
const (
	TerminationHighAccuracy        = "high_accuracy_achieved"
	TerminationConsecutiveFailures = "consecutive_parsing_failures"
	TerminationMaxCycles           = "max_cycles_reached"
)

// AlignmentCheck is the outcome of asking the model whether one box
// sits on its target. It is always populated; transport failures yield
// the aligned default so a flaky endpoint never wedges a run.
type AlignmentCheck struct {
	IsAligned     bool      `json:"is_aligned"`
	Overlapping   bool      `json:"overlapping"`
	Direction     Direction `json:"direction"`
	NeedsMovement bool      `json:"needs_movement"`

	// Which parsing tier produced the verdict
	ParseMethod string `json:"parse_method"`

	// Model text the verdict was derived from, empty on transport failure
	RawResponse string `json:"raw_response,omitempty"`
}

// CycleResult is the parsed outcome of one feedback cycle.
type CycleResult struct {
	ParsingSuccessful bool   `json:"parsing_successful"`
	ResponseType      string `json:"response_type"`

	// Per-button assessments, present only on structured responses
	Analyses []ButtonAnalysis `json:"button_analyses,omitempty"`

	// Box replacements to apply, present only on structured responses
	Corrections []Correction `json:"corrections,omitempty"`

	// Model self-reported confidence 0-100, defaults to 50
	Confidence int `json:"confidence"`

	// Model-estimated overall accuracy 0-100, defaults to 50
	OverallAccuracy int `json:"overall_accuracy"`

	RawResponse string `json:"raw_response,omitempty"`
}

// CycleRecord is the audit entry for one completed cycle.
type CycleRecord struct {
	// 1-based cycle number
	Cycle int `json:"cycle"`

	// Button state after this cycle's corrections were applied
	Buttons []Button `json:"buttons"`

	ResponseType      string `json:"response_type"`
	ParsingSuccessful bool   `json:"parsing_successful"`
	Confidence        int    `json:"confidence"`
	OverallAccuracy   int    `json:"overall_accuracy"`

	// How many proposed corrections actually landed on a button
	CorrectionsApplied int `json:"corrections_applied"`

	// Vision requests this cycle consumed, including failed attempts
	Attempts int `json:"attempts"`

	// Set on the cycle that stopped the run
	TerminationReason string `json:"termination_reason,omitempty"`
}

// RunResult is the complete outcome of an alignment run.
type RunResult struct {
	RunID       string `json:"run_id"`
	ImagePath   string `json:"image_path,omitempty"`
	ImageWidth  int    `json:"image_width"`
	ImageHeight int    `json:"image_height"`

	// Final button state in top-left box coordinates
	Buttons []Button `json:"buttons"`

	// Final button state in center coordinates
	Centered []CenteredButton `json:"centered"`

	History []CycleRecord `json:"history"`

	TerminationReason string `json:"termination_reason"`

	// Total vision API requests issued for this run
	VisionCalls int `json:"vision_calls"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// Cycles returns how many feedback cycles the run executed.
func (r *RunResult) Cycles() int {
	return len(r.History)
}
