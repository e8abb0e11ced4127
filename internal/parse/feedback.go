package parse

import (
	"strings"

	"github.com/uialign/uialign/internal/models"
)

// Confidence values assigned when a response cannot supply its own.
const (
	// defaultConfidence is used whenever a summary omits a value.
	defaultConfidence = 50

	// genericAdviceConfidence marks a conversational non-answer.
	genericAdviceConfidence = 30

	// noStructureConfidence marks a response with no tags at all.
	noStructureConfidence = 20
)

// hedgingPhrases mark a response where the model talked about the task
// instead of doing it. Matching is lowercase substring.
var hedgingPhrases = []string{
	"i can guide you",
	"based on your description",
	"i cannot directly",
	"i can't directly",
	"i'm unable to view",
	"i am unable to view",
	"i don't have the ability",
	"as an ai",
}

// ParseFeedback classifies a feedback-cycle response and extracts the
// per-button analyses and corrections it carries. Strategies run in
// order and the first verdict wins:
//
//  1. Generic advice: a hedging phrase means the model answered around
//     the question, regardless of any tags also present.
//  2. No structure: none of the feedback/corrections/summary blocks
//     exist, so there is nothing to extract.
//  3. Structured extraction: pull analyses and corrections out of
//     whichever blocks exist. At least one extracted record makes the
//     parse a success; blocks that yielded nothing make it partial.
//
// Summary confidence and overall accuracy default to 50 when the
// summary block is missing or incomplete.
func ParseFeedback(raw string) models.CycleResult {
	text := strings.TrimSpace(raw)

	result := models.CycleResult{
		RawResponse:     raw,
		Confidence:      defaultConfidence,
		OverallAccuracy: defaultConfidence,
	}

	if isGenericAdvice(text) {
		result.ResponseType = models.ResponseGenericAdvice
		result.Confidence = genericAdviceConfidence
		result.OverallAccuracy = 0
		return result
	}

	feedbackBody, hasFeedback := tagValue(text, "feedback")
	correctionsBody, hasCorrections := tagValue(text, "corrections")
	summaryBody, hasSummary := tagValue(text, "summary")

	if !hasFeedback && !hasCorrections && !hasSummary {
		result.ResponseType = models.ResponseNoXMLStructure
		result.Confidence = noStructureConfidence
		result.OverallAccuracy = 0
		return result
	}

	if hasFeedback {
		result.Analyses = parseAnalyses(feedbackBody)
	}
	if hasCorrections {
		result.Corrections = parseCorrections(correctionsBody)
	}
	if hasSummary {
		result.Confidence = tagInt(summaryBody, "confidence", defaultConfidence)
		result.OverallAccuracy = tagInt(summaryBody, "overall_accuracy", defaultConfidence)
	}

	if len(result.Analyses) > 0 || len(result.Corrections) > 0 {
		result.ParsingSuccessful = true
		result.ResponseType = models.ResponseStructuredFeedback
	} else {
		result.ResponseType = models.ResponsePartialXML
	}
	return result
}

func isGenericAdvice(text string) bool {
	lower := strings.ToLower(text)
	for _, phrase := range hedgingPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}

// parseAnalyses extracts button_analysis records from a feedback block.
// A record needs a positive button_number; everything else is optional.
func parseAnalyses(body string) []models.ButtonAnalysis {
	var analyses []models.ButtonAnalysis
	for _, block := range tagBlocks(body, "button_analysis") {
		number, ok := tagIntStrict(block, "button_number")
		if !ok || number < 1 {
			continue
		}
		analysis := models.ButtonAnalysis{ButtonNumber: number}
		analysis.Coverage, _ = tagValue(block, "coverage")
		analysis.SuggestedAction, _ = tagValue(block, "suggested_action")
		analysis.CenterAccurate, _ = tagBool(block, "center_accurate")
		analysis.NeedsAdjustment, _ = tagBool(block, "needs_adjustment")
		if quadrants, ok := tagValue(block, "quadrants"); ok {
			analysis.Quadrants = splitList(quadrants)
		}
		analyses = append(analyses, analysis)
	}
	return analyses
}

// parseCorrections extracts correction records from a corrections
// block. A record needs the button number and all four box fields;
// anything incomplete is rejected rather than guessed at.
func parseCorrections(body string) []models.Correction {
	var corrections []models.Correction
	for _, block := range tagBlocks(body, "correction") {
		number, ok := tagIntStrict(block, "button_number")
		if !ok || number < 1 {
			continue
		}
		x, okX := tagIntStrict(block, "new_bbox_x")
		y, okY := tagIntStrict(block, "new_bbox_y")
		width, okW := tagIntStrict(block, "new_bbox_width")
		height, okH := tagIntStrict(block, "new_bbox_height")
		if !okX || !okY || !okW || !okH {
			continue
		}
		issue, _ := tagValue(block, "issue")
		corrections = append(corrections, models.Correction{
			ButtonNumber: number,
			NewBox:       models.BoundingBox{X: x, Y: y, Width: width, Height: height},
			Issue:        issue,
		})
	}
	return corrections
}

// splitList splits a comma-separated tag body into trimmed items.
func splitList(body string) []string {
	var items []string
	for _, part := range strings.Split(body, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}
