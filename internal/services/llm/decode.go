package llm

import (
	"encoding/json"
	"strings"
)

// thoughtDelimiter marks the end of a model's private reasoning.
// Everything at or before a line equal to this marker is discarded.
const thoughtDelimiter = "</think>"

// decodeAnswer locates the JSON object embedded in a model's free-form
// reply and unmarshals it into v. Lines at or before the thought
// delimiter are dropped, then any line whose trimmed form starts with a
// code fence, and the remainder is joined and parsed.
func decodeAnswer(answer string, v any) error {
	lines := strings.Split(answer, "\n")

	for i, line := range lines {
		if strings.TrimSpace(line) == thoughtDelimiter {
			lines = lines[i+1:]
			break
		}
	}

	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			continue
		}
		kept = append(kept, line)
	}

	return json.Unmarshal([]byte(strings.Join(kept, "")), v)
}
