package llm

import (
	"encoding/json"
	"strings"

	"github.com/oukeidos/tlqc/internal/glossary"
)

// responsePayload is the JSON object the prompt instructs the model to
// produce.
type responsePayload struct {
	Lines    []string         `json:"lines"`
	Glossary []glossary.Entry `json:"glossary"`
}

// Decode extracts destination lines and glossary candidates from raw
// model output. It accepts the instructed JSON object, a bare JSON
// array of strings, or (as a last resort) plain newline-separated text.
// Decode never fails: unusable output yields empty destinations, which
// the checker classifies as FAIL_DATA.
func Decode(result string) (dsts []string, candidates []glossary.Entry) {
	text := stripCodeFence(strings.TrimSpace(result))
	if text == "" {
		return nil, nil
	}

	var payload responsePayload
	if err := json.Unmarshal([]byte(text), &payload); err == nil && payload.Lines != nil {
		return payload.Lines, payload.Glossary
	}

	var lines []string
	if err := json.Unmarshal([]byte(text), &lines); err == nil {
		return lines, nil
	}

	for _, line := range strings.Split(text, "\n") {
		dsts = append(dsts, strings.TrimSpace(line))
	}
	return dsts, nil
}

// stripCodeFence removes a surrounding markdown code fence, which some
// models insist on adding around JSON output.
func stripCodeFence(text string) string {
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```")
	if idx := strings.Index(text, "\n"); idx >= 0 {
		text = text[idx+1:] // drop the language tag line
	}
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}
