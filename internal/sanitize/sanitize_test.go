package sanitize

import (
	"strings"
	"testing"
)

func TestCollapseDataURLs(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			"png payload collapsed",
			"see data:image/png;base64,AAAABBBB here",
			"see data:image/png;base64,[8 bytes omitted] here",
		},
		{
			"two payloads",
			"data:image/png;base64,AAAA data:image/jpeg;base64,BB",
			"data:image/png;base64,[4 bytes omitted] data:image/jpeg;base64,[2 bytes omitted]",
		},
		{
			"plain text untouched",
			"the box at x=10 looks fine",
			"the box at x=10 looks fine",
		},
		{
			"non-base64 url untouched",
			"data:text/plain,hello",
			"data:text/plain,hello",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CollapseDataURLs(tt.input); got != tt.want {
				t.Errorf("CollapseDataURLs(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestRedactSecrets(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			"bearer token",
			"Authorization: Bearer sk-proj-abc123xyz",
			"Authorization: Bearer [redacted]",
		},
		{
			"bearer is case insensitive",
			"sent bearer MYTOKEN123",
			"sent Bearer [redacted]",
		},
		{
			"bare secret key",
			"request failed for key sk-abcdef123456",
			"request failed for key [redacted]",
		},
		{
			"json api_key field keeps its name",
			`{"api_key": "super-secret-value"}`,
			`{"api_key": "[redacted]"}`,
		},
		{
			"query token parameter",
			"GET /v1/chat?token=abc123def",
			"GET /v1/chat?token=[redacted]",
		},
		{
			"max_tokens is not a credential",
			`{"max_tokens": 300}`,
			`{"max_tokens": 300}`,
		},
		{
			"innocent text untouched",
			"move the box left by 10 pixels",
			"move the box left by 10 pixels",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RedactSecrets(tt.input); got != tt.want {
				t.Errorf("RedactSecrets(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestScrub(t *testing.T) {
	input := "line one\x00\x07\nBearer abc123 and data:image/png;base64,AAAA\tend"
	got := Scrub(input)

	if strings.ContainsAny(got, "\x00\x07") {
		t.Errorf("control characters survived: %q", got)
	}
	if !strings.Contains(got, "\n") || !strings.Contains(got, "\t") {
		t.Errorf("newline or tab was stripped: %q", got)
	}
	if strings.Contains(got, "abc123") {
		t.Errorf("bearer token survived: %q", got)
	}
	if strings.Contains(got, "base64,AAAA") {
		t.Errorf("image payload survived: %q", got)
	}
}

func TestScrubEmpty(t *testing.T) {
	if got := Scrub(""); got != "" {
		t.Errorf("Scrub(\"\") = %q, want empty", got)
	}
}
