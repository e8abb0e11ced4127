package parse

import (
	"strings"

	"github.com/uialign/uialign/internal/models"
)

// Word votes for the frequency tier. "yes"/"no" style answers and their
// common paraphrases each pull the verdict one way.
var (
	alignedVotes    = []string{"yes", "aligned", "correct", "accurate", "centered", "good"}
	misalignedVotes = []string{"no", "not", "misaligned", "incorrect", "off", "adjust", "move", "shift", "wrong"}
)

// alignedPhrases are last-resort signals that the box is fine, checked
// only when neither structured tags nor word votes exist.
var alignedPhrases = []string{
	"looks good",
	"looks correct",
	"perfectly",
	"no adjustment",
	"no change",
	"well aligned",
	"well-aligned",
}

// ParseAlignment extracts a single-button alignment verdict from model
// text. Three tiers run in order, each a weaker read than the last:
//
//  1. standard_xml: the prompt's exact <aligned>/<direction> contract,
//     with <overlapping> optional.
//  2. word_frequency: count yes/no-style votes and direction words in
//     the whole response and take the majority.
//  3. keyword_scan: phrase sniffing. When nothing signals alignment and
//     no direction word appears, the verdict is "move down": a known
//     bias, but a stable one that keeps the nudge loop deterministic.
//
// The result is always usable: NeedsMovement holds exactly when the box
// is misaligned and a direction other than "none" was chosen.
func ParseAlignment(raw string) models.AlignmentCheck {
	text := strings.TrimSpace(raw)

	if check, ok := parseStandardXML(text); ok {
		check.RawResponse = raw
		return check
	}
	if check, ok := parseWordFrequency(text); ok {
		check.RawResponse = raw
		return check
	}
	check := parseKeywordScan(text)
	check.RawResponse = raw
	return check
}

// parseStandardXML handles the exact tag contract. It succeeds only
// when <aligned> carries a yes/no and <direction> names a known
// direction; anything weaker falls to the next tier.
func parseStandardXML(text string) (models.AlignmentCheck, bool) {
	aligned, alignedOK := tagBool(text, "aligned")
	if !alignedOK {
		return models.AlignmentCheck{}, false
	}
	directionBody, directionOK := tagValue(text, "direction")
	if !directionOK {
		return models.AlignmentCheck{}, false
	}
	direction, ok := models.ParseDirection(strings.ToLower(directionBody))
	if !ok {
		return models.AlignmentCheck{}, false
	}
	overlapping, _ := tagBool(text, "overlapping")

	return models.AlignmentCheck{
		IsAligned:     aligned,
		Overlapping:   overlapping,
		Direction:     direction,
		NeedsMovement: !aligned && direction != models.DirectionNone,
		ParseMethod:   models.ParseMethodStandardXML,
	}, true
}

// parseWordFrequency takes a majority vote over the response tokens.
// It succeeds when at least one vote or direction word appears.
func parseWordFrequency(text string) (models.AlignmentCheck, bool) {
	words := reWord.FindAllString(strings.ToLower(text), -1)
	if len(words) == 0 {
		return models.AlignmentCheck{}, false
	}

	counts := make(map[string]int, len(words))
	for _, w := range words {
		counts[w]++
	}

	var yes, no int
	for _, w := range alignedVotes {
		yes += counts[w]
	}
	for _, w := range misalignedVotes {
		no += counts[w]
	}

	direction := models.DirectionNone
	best := 0
	for _, d := range []models.Direction{models.DirectionUp, models.DirectionDown, models.DirectionLeft, models.DirectionRight} {
		if c := counts[string(d)]; c > best {
			best = c
			direction = d
		}
	}

	if yes == 0 && no == 0 && best == 0 {
		return models.AlignmentCheck{}, false
	}

	aligned := yes > no
	if aligned {
		direction = models.DirectionNone
	} else if direction == models.DirectionNone {
		direction = models.DirectionDown
	}
	overlapping := counts["overlap"] > 0 || counts["overlapping"] > 0 || counts["overlaps"] > 0

	return models.AlignmentCheck{
		IsAligned:     aligned,
		Overlapping:   overlapping,
		Direction:     direction,
		NeedsMovement: !aligned && direction != models.DirectionNone,
		ParseMethod:   models.ParseMethodWordFrequency,
	}, true
}

// parseKeywordScan is the desperation tier. It always yields a verdict.
func parseKeywordScan(text string) models.AlignmentCheck {
	lower := strings.ToLower(text)

	for _, phrase := range alignedPhrases {
		if strings.Contains(lower, phrase) {
			return models.AlignmentCheck{
				IsAligned:   true,
				Overlapping: strings.Contains(lower, "overlap"),
				Direction:   models.DirectionNone,
				ParseMethod: models.ParseMethodKeywordScan,
			}
		}
	}

	// Misaligned: take the first direction mentioned, or the down
	// default when the text names none.
	direction := models.DirectionDown
	firstAt := len(lower)
	for _, d := range []models.Direction{models.DirectionUp, models.DirectionDown, models.DirectionLeft, models.DirectionRight} {
		if at := strings.Index(lower, string(d)); at >= 0 && at < firstAt {
			firstAt = at
			direction = d
		}
	}

	return models.AlignmentCheck{
		IsAligned:     false,
		Overlapping:   strings.Contains(lower, "overlap"),
		Direction:     direction,
		NeedsMovement: true,
		ParseMethod:   models.ParseMethodKeywordScan,
	}
}
