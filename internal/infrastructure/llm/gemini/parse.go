package gemini

import (
	"encoding/json"
	"fmt"

	"github.com/cgint/simple-knowledge-pool-ai/internal/core/domain"
)

// ParseExtraction locates the first balanced JSON object in the model's
// free-form reply and validates its shape. A shape violation is a terminal
// failure: it signals a prompt defect, not a transient fault, so it is never
// wrapped as temporary.
func ParseExtraction(raw string) (*domain.ExtractionResult, error) {
	object, ok := firstJSONObject(raw)
	if !ok {
		return nil, fmt.Errorf("analysis reply contains no JSON object: %q", truncate(raw, 200))
	}

	var parsed struct {
		Summary    *string   `json:"summary"`
		KeyPoints  *[]string `json:"keyPoints"`
		Categories *[]string `json:"categories"`
	}
	if err := json.Unmarshal([]byte(object), &parsed); err != nil {
		return nil, fmt.Errorf("parse analysis json: %w", err)
	}
	if parsed.Summary == nil {
		return nil, fmt.Errorf("analysis json: summary must be a string")
	}
	if parsed.KeyPoints == nil {
		return nil, fmt.Errorf("analysis json: keyPoints must be an array")
	}
	if parsed.Categories == nil {
		return nil, fmt.Errorf("analysis json: categories must be an array")
	}

	return &domain.ExtractionResult{
		Summary:    *parsed.Summary,
		KeyPoints:  *parsed.KeyPoints,
		Categories: *parsed.Categories,
	}, nil
}

// firstJSONObject scans for the first balanced {...} span, tracking string
// literals and escapes so braces inside values do not end the object early.
func firstJSONObject(raw string) (string, bool) {
	start := -1
	depth := 0
	inString := false
	escaped := false

	for i := 0; i < len(raw); i++ {
		ch := raw[i]

		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}

		switch ch {
		case '"':
			if start >= 0 {
				inString = true
			}
		case '{':
			if start < 0 {
				start = i
			}
			depth++
		case '}':
			if start < 0 {
				continue
			}
			depth--
			if depth == 0 {
				return raw[start : i+1], true
			}
		}
	}
	return "", false
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
