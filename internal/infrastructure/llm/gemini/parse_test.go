package gemini

import (
	"reflect"
	"strings"
	"testing"
)

func TestParseExtractionFromNoisyReply(t *testing.T) {
	raw := "Sure, here is the analysis you asked for:\n\n" +
		`{"summary": "A report about {budget} planning.", "keyPoints": ["q1", "q2"], "categories": ["finance"]}` +
		"\n\nLet me know if you need more."

	result, err := ParseExtraction(raw)
	if err != nil {
		t.Fatalf("ParseExtraction() error = %v", err)
	}
	if result.Summary != "A report about {budget} planning." {
		t.Fatalf("unexpected summary %q", result.Summary)
	}
	if !reflect.DeepEqual(result.KeyPoints, []string{"q1", "q2"}) {
		t.Fatalf("unexpected key points %v", result.KeyPoints)
	}
	if !reflect.DeepEqual(result.Categories, []string{"finance"}) {
		t.Fatalf("unexpected categories %v", result.Categories)
	}
}

func TestParseExtractionTakesFirstBalancedObject(t *testing.T) {
	raw := `{"summary": "first", "keyPoints": [], "categories": []} {"summary": "second", "keyPoints": [], "categories": []}`
	result, err := ParseExtraction(raw)
	if err != nil {
		t.Fatalf("ParseExtraction() error = %v", err)
	}
	if result.Summary != "first" {
		t.Fatalf("expected first object, got summary %q", result.Summary)
	}
}

func TestParseExtractionHandlesEscapedQuotes(t *testing.T) {
	raw := `{"summary": "says \"hello\" twice", "keyPoints": ["a"], "categories": ["b"]}`
	result, err := ParseExtraction(raw)
	if err != nil {
		t.Fatalf("ParseExtraction() error = %v", err)
	}
	if !strings.Contains(result.Summary, `"hello"`) {
		t.Fatalf("unexpected summary %q", result.Summary)
	}
}

func TestParseExtractionRejectsBadShapes(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{"no object", "the model refused to answer"},
		{"unbalanced", `{"summary": "x"`},
		{"summary missing", `{"keyPoints": [], "categories": []}`},
		{"summary wrong type", `{"summary": 5, "keyPoints": [], "categories": []}`},
		{"keyPoints missing", `{"summary": "x", "categories": []}`},
		{"keyPoints not array", `{"summary": "x", "keyPoints": "nope", "categories": []}`},
		{"categories missing", `{"summary": "x", "keyPoints": []}`},
		{"categories not array", `{"summary": "x", "keyPoints": [], "categories": {"a": 1}}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := ParseExtraction(tc.raw); err == nil {
				t.Fatalf("expected parse failure for %q", tc.raw)
			}
		})
	}
}
