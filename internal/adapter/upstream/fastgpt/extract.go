package fastgpt

import (
	"encoding/json"
	"strconv"
)

// The upstream's response shape is not fixed: depending on the app
// configuration the score may sit at the root, under "data", inside a
// JSON-encoded "content" string, or inside choices[0].message.content.
// Extraction walks these shapes in order and stops at the first match; a
// 2xx response that matches nothing yields (0, "") rather than an error.

type scoreResult struct {
	score    float64
	analysis string
}

// maxDepth caps recursion through nested content strings.
const maxDepth = 4

// ExtractScore pulls (score, analysis) out of a raw upstream response body.
func ExtractScore(raw []byte) (float64, string) {
	v, ok := parseObject(string(raw))
	if !ok {
		return 0, ""
	}
	if r, ok := tryExtract(v, 0); ok {
		return r.score, r.analysis
	}
	return 0, ""
}

// ExtractContent pulls a free-text content field out of a raw upstream
// response body, used for question generation.
func ExtractContent(raw []byte) (string, bool) {
	v, ok := parseObject(string(raw))
	if !ok {
		return "", false
	}
	return tryContent(v, 0)
}

func tryExtract(v map[string]any, depth int) (scoreResult, bool) {
	if depth > maxDepth {
		return scoreResult{}, false
	}
	if r, ok := fromFields(v); ok {
		return r, true
	}
	if data, ok := v["data"].(map[string]any); ok {
		if r, ok := tryExtract(data, depth+1); ok {
			return r, true
		}
	}
	if s, ok := v["content"].(string); ok {
		if inner, ok := parseObject(s); ok {
			if r, ok := tryExtract(inner, depth+1); ok {
				return r, true
			}
		}
	}
	if s, ok := choiceContent(v); ok {
		if inner, ok := parseObject(s); ok {
			if r, ok := tryExtract(inner, depth+1); ok {
				return r, true
			}
		}
	}
	return scoreResult{}, false
}

func tryContent(v map[string]any, depth int) (string, bool) {
	if depth > maxDepth {
		return "", false
	}
	if s, ok := v["content"].(string); ok && s != "" {
		return s, true
	}
	if s, ok := choiceContent(v); ok && s != "" {
		return s, true
	}
	if data, ok := v["data"].(map[string]any); ok {
		return tryContent(data, depth+1)
	}
	return "", false
}

// fromFields matches an object carrying a score directly. The analysis text
// may be spelled "analysis" or "feedback".
func fromFields(v map[string]any) (scoreResult, bool) {
	score, ok := asNumber(v["score"])
	if !ok {
		return scoreResult{}, false
	}
	analysis, _ := v["analysis"].(string)
	if analysis == "" {
		analysis, _ = v["feedback"].(string)
	}
	return scoreResult{score: score, analysis: analysis}, true
}

func choiceContent(v map[string]any) (string, bool) {
	choices, ok := v["choices"].([]any)
	if !ok || len(choices) == 0 {
		return "", false
	}
	first, ok := choices[0].(map[string]any)
	if !ok {
		return "", false
	}
	message, ok := first["message"].(map[string]any)
	if !ok {
		return "", false
	}
	s, ok := message["content"].(string)
	return s, ok
}

// asNumber accepts JSON numbers and numeric strings.
func asNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

func parseObject(s string) (map[string]any, bool) {
	var v map[string]any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return nil, false
	}
	return v, true
}
