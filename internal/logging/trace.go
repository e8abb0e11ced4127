package logging

import (
	"log/slog"
	"os"

	"github.com/uialign/uialign/internal/sanitize"
)

// Trace is the run's debug sink. Events land as debug-level records,
// so they reach the JSONL file without cluttering the console. A nil
// Trace is safe to call; components never need to guard their tracing.
type Trace struct {
	log     *slog.Logger
	file    *os.File
	enabled bool
}

// Enabled reports whether events actually reach a trace file.
func (t *Trace) Enabled() bool {
	return t != nil && t.enabled
}

// Event records one pipeline step. kind groups related events
// ("cycle", "parse", "correction"), label says what happened, and
// payload carries whatever structured detail is worth keeping.
func (t *Trace) Event(kind, label string, payload any) {
	if t == nil || t.log == nil {
		return
	}
	if s, ok := payload.(string); ok {
		payload = sanitize.Scrub(s)
	}
	t.log.Debug(label, "trace_kind", kind, "payload", payload)
}

// Conversation records one full model exchange: the prompt that went
// out, the text that came back, and any call metadata. Both sides are
// scrubbed so inline screenshots and credentials stay out of the file.
func (t *Trace) Conversation(stage, prompt, response string, meta map[string]any) {
	if t == nil || t.log == nil {
		return
	}
	args := []any{
		"trace_kind", "llm_conversation",
		"stage", stage,
		"prompt", sanitize.Scrub(prompt),
		"response", sanitize.Scrub(response),
	}
	for k, v := range meta {
		if s, ok := v.(string); ok {
			v = sanitize.Scrub(s)
		}
		args = append(args, k, v)
	}
	t.log.Debug("model exchange", args...)
}

// Close flushes the trace file if one is open.
func (t *Trace) Close() error {
	if t == nil || t.file == nil {
		return nil
	}
	return t.file.Close()
}
