// Package parse extracts structured alignment data from vision model
// responses. The prompts ask for XML-like tags, but models drift from
// that contract constantly: tags arrive with attribute junk, mixed case,
// stray whitespace, or not at all. Every parser here is therefore
// tolerant and total; instead of returning an error for bad text it
// degrades to a typed fallback result.
package parse

import (
	"regexp"
	"strconv"
	"strings"
	"sync"
)

// Pre-compiled expressions shared across the parsers.
var (
	// reInt matches the first optionally-signed integer in a tag body.
	reInt = regexp.MustCompile(`-?\d+`)

	// reFloat matches the first decimal number in a tag body.
	reFloat = regexp.MustCompile(`-?\d+(?:\.\d+)?`)

	// reWord tokenizes lowercased response text for frequency scans.
	reWord = regexp.MustCompile(`[a-z]+`)
)

// tagCache holds one compiled expression per tag name. The tag set is
// fixed by the prompts, so the cache stays small.
var tagCache sync.Map // string -> *regexp.Regexp

// tagExpr returns a case-insensitive expression matching the first
// <name ...>body</name> pair, tolerating attributes and whitespace.
func tagExpr(name string) *regexp.Regexp {
	if cached, ok := tagCache.Load(name); ok {
		return cached.(*regexp.Regexp)
	}
	quoted := regexp.QuoteMeta(name)
	re := regexp.MustCompile(`(?is)<` + quoted + `(?:\s[^>]*)?>(.*?)</\s*` + quoted + `\s*>`)
	actual, _ := tagCache.LoadOrStore(name, re)
	return actual.(*regexp.Regexp)
}

// tagValue returns the trimmed body of the first <name> pair in text.
func tagValue(text, name string) (string, bool) {
	m := tagExpr(name).FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return strings.TrimSpace(m[1]), true
}

// tagBlocks returns the bodies of every <name> pair in text, in order.
func tagBlocks(text, name string) []string {
	matches := tagExpr(name).FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil
	}
	blocks := make([]string, 0, len(matches))
	for _, m := range matches {
		blocks = append(blocks, strings.TrimSpace(m[1]))
	}
	return blocks
}

// tagInt extracts the first integer inside the first <name> pair,
// returning def when the tag is absent or carries no number. Models
// like to answer "85%" or "about 90", so anything around the number
// is ignored.
func tagInt(text, name string, def int) int {
	n, ok := tagIntStrict(text, name)
	if !ok {
		return def
	}
	return n
}

// tagIntStrict is tagInt without a fallback, for fields that are
// required rather than defaulted.
func tagIntStrict(text, name string) (int, bool) {
	body, ok := tagValue(text, name)
	if !ok {
		return 0, false
	}
	digits := reInt.FindString(body)
	if digits == "" {
		return 0, false
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0, false
	}
	return n, true
}

// tagFloat extracts the first decimal number inside the first <name>
// pair, returning def when absent or non-numeric.
func tagFloat(text, name string, def float64) float64 {
	body, ok := tagValue(text, name)
	if !ok {
		return def
	}
	digits := reFloat.FindString(body)
	if digits == "" {
		return def
	}
	f, err := strconv.ParseFloat(digits, 64)
	if err != nil {
		return def
	}
	return f
}

// tagBool interprets the first <name> pair as a yes/no answer. The
// second return reports whether the tag was present with a
// recognizable value.
func tagBool(text, name string) (bool, bool) {
	body, ok := tagValue(text, name)
	if !ok {
		return false, false
	}
	switch strings.ToLower(body) {
	case "yes", "true", "1", "y":
		return true, true
	case "no", "false", "0", "n":
		return false, true
	}
	return false, false
}
