package parse

import "testing"

func TestTagValue_Tolerance(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		tag    string
		want   string
		wantOK bool
	}{
		{
			name:   "plain tag",
			text:   "<direction>up</direction>",
			tag:    "direction",
			want:   "up",
			wantOK: true,
		},
		{
			name:   "attribute junk",
			text:   `<direction confidence="high">left</direction>`,
			tag:    "direction",
			want:   "left",
			wantOK: true,
		},
		{
			name:   "whitespace in closing tag",
			text:   "<aligned>yes</ aligned >",
			tag:    "aligned",
			want:   "yes",
			wantOK: true,
		},
		{
			name:   "case mismatch",
			text:   "<Aligned>NO</ALIGNED>",
			tag:    "aligned",
			want:   "NO",
			wantOK: true,
		},
		{
			name:   "multiline body trimmed",
			text:   "<issue>\n  box drifts right\n</issue>",
			tag:    "issue",
			want:   "box drifts right",
			wantOK: true,
		},
		{
			name:   "unclosed tag is not a match",
			text:   "<direction>up",
			tag:    "direction",
			wantOK: false,
		},
		{
			name:   "prefix tag name does not match",
			text:   "<button_number>4</button_number>",
			tag:    "button",
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tagValue(tt.text, tt.tag)
			if ok != tt.wantOK {
				t.Fatalf("tagValue() ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("tagValue() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTagInt(t *testing.T) {
	tests := []struct {
		name string
		text string
		want int
	}{
		{name: "bare number", text: "<confidence>85</confidence>", want: 85},
		{name: "percent suffix", text: "<confidence>85%</confidence>", want: 85},
		{name: "number in prose", text: "<confidence>roughly 60 or so</confidence>", want: 60},
		{name: "negative", text: "<confidence>-5</confidence>", want: -5},
		{name: "missing tag falls back", text: "no tags here", want: 50},
		{name: "non-numeric body falls back", text: "<confidence>high</confidence>", want: 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tagInt(tt.text, "confidence", 50); got != tt.want {
				t.Errorf("tagInt() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestTagBlocks(t *testing.T) {
	text := `<correction>a</correction> noise <correction>b</correction>`
	got := tagBlocks(text, "correction")
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("tagBlocks() = %v, want [a b]", got)
	}
	if tagBlocks("nothing", "correction") != nil {
		t.Error("tagBlocks() on no matches should be nil")
	}
}

func TestTagBool(t *testing.T) {
	tests := []struct {
		body   string
		want   bool
		wantOK bool
	}{
		{body: "yes", want: true, wantOK: true},
		{body: "Yes", want: true, wantOK: true},
		{body: "true", want: true, wantOK: true},
		{body: "no", want: false, wantOK: true},
		{body: "FALSE", want: false, wantOK: true},
		{body: "maybe", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.body, func(t *testing.T) {
			got, ok := tagBool("<flag>"+tt.body+"</flag>", "flag")
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("tagBool(%q) = (%v, %v), want (%v, %v)", tt.body, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}
