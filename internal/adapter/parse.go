package adapter

import (
	"encoding/json"
	"strings"
)

// detection is the structured item expected inside the model reply.
type detection struct {
	Label          string  `json:"label"`
	Confidence     float64 `json:"confidence"`
	Severity       string  `json:"severity"`
	Description    string  `json:"description"`
	Recommendation string  `json:"recommendation"`
}

type detectionEnvelope struct {
	Detections []detection `json:"detections"`
}

// parseDetections pulls a {"detections":[...]} object out of a model reply.
// Models wrap JSON in code fences or surround it with prose often enough
// that a strict unmarshal of the whole reply would reject valid answers, so
// the first balanced JSON object in the text is tried as well. Returns
// ok=false when no structured payload can be recovered.
func parseDetections(content string) ([]detection, bool) {
	trimmed := strings.TrimSpace(stripCodeFences(content))

	var envelope detectionEnvelope
	if err := json.Unmarshal([]byte(trimmed), &envelope); err == nil && envelope.Detections != nil {
		return envelope.Detections, true
	}

	if obj, ok := firstJSONObject(trimmed); ok {
		if err := json.Unmarshal([]byte(obj), &envelope); err == nil && envelope.Detections != nil {
			return envelope.Detections, true
		}
	}

	return nil, false
}

// stripCodeFences removes a leading ```json (or bare ```) fence and its
// closing fence.
func stripCodeFences(content string) string {
	s := strings.TrimSpace(content)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:] // drop the language tag line
	}
	if i := strings.LastIndex(s, "```"); i >= 0 {
		s = s[:i]
	}
	return s
}

// firstJSONObject extracts the first balanced top-level JSON object from the
// text, tolerating braces inside string literals.
func firstJSONObject(content string) (string, bool) {
	start := strings.IndexByte(content, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(content); i++ {
		c := content[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return content[start : i+1], true
			}
		}
	}
	return "", false
}
