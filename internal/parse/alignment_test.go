package parse

import (
	"testing"

	"github.com/uialign/uialign/internal/models"
)

func TestParseAlignment_StandardXML(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want models.AlignmentCheck
	}{
		{
			name: "aligned with explicit none direction",
			raw:  "<aligned>yes</aligned><overlapping>yes</overlapping><direction>none</direction>",
			want: models.AlignmentCheck{
				IsAligned:     true,
				Overlapping:   true,
				Direction:     models.DirectionNone,
				NeedsMovement: false,
				ParseMethod:   models.ParseMethodStandardXML,
			},
		},
		{
			name: "misaligned moving left",
			raw:  "<aligned>no</aligned><overlapping>no</overlapping><direction>left</direction>",
			want: models.AlignmentCheck{
				IsAligned:     false,
				Overlapping:   false,
				Direction:     models.DirectionLeft,
				NeedsMovement: true,
				ParseMethod:   models.ParseMethodStandardXML,
			},
		},
		{
			name: "overlapping tag optional",
			raw:  "Sure!\n<aligned>no</aligned>\n<direction>up</direction>\nHope that helps.",
			want: models.AlignmentCheck{
				IsAligned:     false,
				Overlapping:   false,
				Direction:     models.DirectionUp,
				NeedsMovement: true,
				ParseMethod:   models.ParseMethodStandardXML,
			},
		},
		{
			name: "mixed case tags and values",
			raw:  "<ALIGNED>Yes</ALIGNED><DIRECTION>None</DIRECTION>",
			want: models.AlignmentCheck{
				IsAligned:   true,
				Direction:   models.DirectionNone,
				ParseMethod: models.ParseMethodStandardXML,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseAlignment(tt.raw)
			got.RawResponse = ""
			if got != tt.want {
				t.Errorf("ParseAlignment() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestParseAlignment_WordFrequency(t *testing.T) {
	tests := []struct {
		name          string
		raw           string
		wantAligned   bool
		wantDirection models.Direction
	}{
		{
			name:          "negative votes with direction",
			raw:           "No, the box is off. Move it up a little.",
			wantAligned:   false,
			wantDirection: models.DirectionUp,
		},
		{
			name:          "positive majority",
			raw:           "Yes yes, the placement is correct and accurate.",
			wantAligned:   true,
			wantDirection: models.DirectionNone,
		},
		{
			name:          "negation flips a lone aligned token",
			raw:           "It is not aligned.",
			wantAligned:   false,
			wantDirection: models.DirectionDown,
		},
		{
			name:          "direction words only",
			raw:           "left left left",
			wantAligned:   false,
			wantDirection: models.DirectionLeft,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseAlignment(tt.raw)
			if got.ParseMethod != models.ParseMethodWordFrequency {
				t.Fatalf("ParseMethod = %q, want %q", got.ParseMethod, models.ParseMethodWordFrequency)
			}
			if got.IsAligned != tt.wantAligned {
				t.Errorf("IsAligned = %v, want %v", got.IsAligned, tt.wantAligned)
			}
			if got.Direction != tt.wantDirection {
				t.Errorf("Direction = %q, want %q", got.Direction, tt.wantDirection)
			}
		})
	}
}

func TestParseAlignment_KeywordScan(t *testing.T) {
	tests := []struct {
		name          string
		raw           string
		wantAligned   bool
		wantDirection models.Direction
	}{
		{
			name:          "aligned phrase",
			raw:           "The overlay sits perfectly on its target.",
			wantAligned:   true,
			wantDirection: models.DirectionNone,
		},
		{
			name:          "no signal defaults to down",
			raw:           "The placement seems questionable to me.",
			wantAligned:   false,
			wantDirection: models.DirectionDown,
		},
		{
			name:          "empty response defaults to down",
			raw:           "",
			wantAligned:   false,
			wantDirection: models.DirectionDown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseAlignment(tt.raw)
			if got.ParseMethod != models.ParseMethodKeywordScan {
				t.Fatalf("ParseMethod = %q, want %q", got.ParseMethod, models.ParseMethodKeywordScan)
			}
			if got.IsAligned != tt.wantAligned {
				t.Errorf("IsAligned = %v, want %v", got.IsAligned, tt.wantAligned)
			}
			if got.Direction != tt.wantDirection {
				t.Errorf("Direction = %q, want %q", got.Direction, tt.wantDirection)
			}
		})
	}
}

// Whatever tier fires, the movement flag must agree with the verdict
// and the direction must be one of the five known values.
func TestParseAlignment_Invariants(t *testing.T) {
	inputs := []string{
		"",
		"<aligned>yes</aligned><direction>none</direction>",
		"<aligned>no</aligned><direction>right</direction>",
		"<aligned>maybe</aligned><direction>sideways</direction>",
		"no no no",
		"move it down",
		"looks good to me",
		"complete nonsense 12345",
		"<direction>up</direction>",
	}

	for _, raw := range inputs {
		got := ParseAlignment(raw)
		if !got.Direction.Valid() {
			t.Errorf("input %q: invalid direction %q", raw, got.Direction)
		}
		wantMove := !got.IsAligned && got.Direction != models.DirectionNone
		if got.NeedsMovement != wantMove {
			t.Errorf("input %q: NeedsMovement = %v, want %v (aligned %v direction %q)",
				raw, got.NeedsMovement, wantMove, got.IsAligned, got.Direction)
		}
		if got.ParseMethod == "" {
			t.Errorf("input %q: empty ParseMethod", raw)
		}
	}
}
