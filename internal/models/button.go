package models

// Button is a detected UI element and the box the loop is refining for it.
type Button struct {
	// Stable name the model assigned at detection time ("submit_button")
	ReferenceName string `json:"reference_name" yaml:"reference_name"`

	// Human-readable description of the element
	Description string `json:"description,omitempty" yaml:"description,omitempty"`

	// Element kind as reported by the model ("button", "link", "icon")
	ElementType string `json:"element_type,omitempty" yaml:"element_type,omitempty"`

	// Detection confidence in [0, 1]
	Confidence float64 `json:"confidence" yaml:"confidence"`

	// Current box estimate, replaced wholesale by corrections
	BoundingBox BoundingBox `json:"bounding_box" yaml:"bounding_box"`

	// Box before the most recent correction, nil until first corrected
	PreviousBox *BoundingBox `json:"previous_box,omitempty" yaml:"previous_box,omitempty"`

	// Issue text from the most recent correction
	LastIssue string `json:"last_issue,omitempty" yaml:"last_issue,omitempty"`

	// Cycle number of the most recent correction, 0 if never corrected
	CorrectedInCycle int `json:"corrected_in_cycle,omitempty" yaml:"corrected_in_cycle,omitempty"`
}

// Correction is one box replacement proposed by the model. Button numbers
// are 1-based and index into the button list in presentation order.
type Correction struct {
	ButtonNumber int         `json:"button_number" yaml:"button_number"`
	NewBox       BoundingBox `json:"new_box" yaml:"new_box"`
	Issue        string      `json:"issue,omitempty" yaml:"issue,omitempty"`
}

// ButtonAnalysis is the model's per-button assessment from a feedback
// cycle. It carries no coordinates; corrections do.
type ButtonAnalysis struct {
	ButtonNumber    int      `json:"button_number" yaml:"button_number"`
	Coverage        string   `json:"coverage,omitempty" yaml:"coverage,omitempty"`
	Quadrants       []string `json:"quadrants,omitempty" yaml:"quadrants,omitempty"`
	CenterAccurate  bool     `json:"center_accurate" yaml:"center_accurate"`
	NeedsAdjustment bool     `json:"needs_adjustment" yaml:"needs_adjustment"`
	SuggestedAction string   `json:"suggested_action,omitempty" yaml:"suggested_action,omitempty"`
}

// CenteredButton pairs a button name with its center-point box. This is
// the final output shape of a run.
type CenteredButton struct {
	ReferenceName string `json:"reference_name" yaml:"reference_name"`
	CenterX       int    `json:"center_x" yaml:"center_x"`
	CenterY       int    `json:"center_y" yaml:"center_y"`
	Width         int    `json:"width" yaml:"width"`
	Height        int    `json:"height" yaml:"height"`
}

// Centered converts the button's current box to its center representation.
func (b Button) Centered() CenteredButton {
	cb := b.BoundingBox.Centered()
	return CenteredButton{
		ReferenceName: b.ReferenceName,
		CenterX:       cb.CenterX,
		CenterY:       cb.CenterY,
		Width:         cb.Width,
		Height:        cb.Height,
	}
}
