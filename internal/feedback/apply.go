package feedback

import "github.com/uialign/uialign/internal/models"

// ApplyCorrections replaces targeted boxes in place and returns how
// many corrections landed. Button numbers are 1-based; corrections
// aimed at unknown buttons, or carrying boxes that are degenerate or
// start off-image, are dropped silently, since one bad record should
// not poison the rest of an otherwise usable cycle. Each replaced
// button remembers its old box, the reported issue, and the cycle
// that moved it.
func ApplyCorrections(buttons []models.Button, corrections []models.Correction, cycle int) int {
	applied := 0
	for _, correction := range corrections {
		idx := correction.ButtonNumber - 1
		if idx < 0 || idx >= len(buttons) {
			continue
		}
		box := correction.NewBox
		if !box.IsValid() || box.X < 0 || box.Y < 0 {
			continue
		}

		button := &buttons[idx]
		previous := button.BoundingBox
		button.PreviousBox = &previous
		button.BoundingBox = box
		button.LastIssue = correction.Issue
		button.CorrectedInCycle = cycle
		applied++
	}
	return applied
}
