package llm

import (
	"encoding/json"
	"strings"
)

// StripFences removes a ```json ... ``` (or bare ```) wrapper that chat
// models like to put around structured output.
func StripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}

	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")

	return strings.TrimSpace(s)
}

// DecodeJSON unmarshals model output into v, tolerating fenced output.
func DecodeJSON(raw json.RawMessage, v interface{}) error {
	return json.Unmarshal([]byte(StripFences(string(raw))), v)
}
