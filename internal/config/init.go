package config

import (
	"fmt"
	"os"
)

// defaultConfigYAML is written by Init. Kept as a literal so the
// comments survive into the generated file.
const defaultConfigYAML = `# uialign configuration.
# Values here override the built-in defaults. The API key is never read
# from this file: set UIALIGN_API_KEY (or OPENAI_API_KEY) instead.

api:
  # Any OpenAI-compatible endpoint works here.
  base_url: https://api.openai.com/v1
  model: gpt-4o
  timeout_seconds: 60
  # Image detail hint: low, high or auto.
  detail: high
  # Optional proxy, e.g. socks5://127.0.0.1:1080
  # proxy: ""

loop:
  max_cycles: 3
  max_retries: 2
  accuracy_target: 90
  consecutive_failure_limit: 2
  nudge_step: 10
  retry_base_ms: 1000
  retry_max_ms: 8000
  retry_jitter: false

overlay:
  line_width: 3
  draw_crosshairs: true
  draw_labels: true

store:
  # Relative paths resolve under .uialign/
  # path: uialign.db

log:
  level: info
  # Uncomment to capture a full JSONL trace of every model exchange.
  # trace_file: trace.jsonl

serve:
  addr: ":8787"
`

// Init creates the state directory and a commented default config
// file. Running it again is safe; an existing config is left alone.
// The bool reports whether a new config file was written.
func Init(root string) (bool, error) {
	if err := os.MkdirAll(Dir(root), 0755); err != nil {
		return false, fmt.Errorf("create state directory: %w", err)
	}

	path := Path(root)
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !os.IsNotExist(err) {
		return false, fmt.Errorf("stat %s: %w", path, err)
	}

	if err := os.WriteFile(path, []byte(defaultConfigYAML), 0644); err != nil {
		return false, fmt.Errorf("write %s: %w", path, err)
	}
	return true, nil
}
