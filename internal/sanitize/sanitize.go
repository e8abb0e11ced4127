// Package sanitize scrubs text headed for the trace file. Model
// exchanges can carry bearer tokens in error bodies and multi-megabyte
// base64 screenshots in requests; neither belongs in a JSONL trace.
package sanitize

import (
	"fmt"
	"regexp"
	"strings"
)

// Pre-compiled regular expressions for performance.
var (
	// reDataURL matches inline base64 data URLs of any media type.
	reDataURL = regexp.MustCompile(`data:[a-zA-Z0-9.+/-]+;base64,[A-Za-z0-9+/=]+`)

	// reBearer matches Authorization header values like "Bearer sk-...".
	reBearer = regexp.MustCompile(`(?i)\bbearer\s+[A-Za-z0-9._~+/=-]+`)

	// reSecretKey matches OpenAI-style secret keys wherever they appear.
	reSecretKey = regexp.MustCompile(`\bsk-[A-Za-z0-9_-]{8,}\b`)

	// reKeyField matches api_key-style fields in JSON bodies or query
	// strings, capturing the field prefix so only the value is lost.
	reKeyField = regexp.MustCompile(`(?i)("?(?:api[_-]?key|token)"?\s*[:=]\s*"?)[A-Za-z0-9._~+/=-]+`)
)

// Scrub prepares free-form text for the trace file:
//  1. Strip control characters (except \n, \t)
//  2. Collapse inline base64 data URLs to a short note
//  3. Redact bearer tokens, secret keys, and key-bearing fields
func Scrub(input string) string {
	if input == "" {
		return ""
	}
	s := stripControlChars(input)
	s = CollapseDataURLs(s)
	s = RedactSecrets(s)
	return s
}

// CollapseDataURLs replaces inline base64 payloads with a note naming
// the media type and how many bytes were dropped.
func CollapseDataURLs(s string) string {
	return reDataURL.ReplaceAllStringFunc(s, func(match string) string {
		head, _, ok := strings.Cut(match, ",")
		if !ok {
			return match
		}
		return fmt.Sprintf("%s,[%d bytes omitted]", head, len(match)-len(head)-1)
	})
}

// RedactSecrets blanks credential material while leaving the
// surrounding text readable.
func RedactSecrets(s string) string {
	s = reBearer.ReplaceAllString(s, "Bearer [redacted]")
	s = reSecretKey.ReplaceAllString(s, "[redacted]")
	s = reKeyField.ReplaceAllString(s, "${1}[redacted]")
	return s
}

// stripControlChars removes ASCII control characters (0x00-0x1F) and DEL
// (0x7F) from the string, except for newline (0x0A) and tab (0x09).
func stripControlChars(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if (r < 0x20 || r == 0x7F) && r != '\n' && r != '\t' {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
