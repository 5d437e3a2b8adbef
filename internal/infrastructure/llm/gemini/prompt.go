package gemini

import "strings"

// BuildAnalysisPrompt produces the fixed document-analysis instruction. The
// category list is the allowed vocabulary the model must choose from.
func BuildAnalysisPrompt(categories []string) string {
	return `You are a document analyst.
Read the attached document and return a strict JSON object with exactly these keys:
summary (string, 2-4 sentences), keyPoints (array of strings), categories (array of strings).
Pick categories only from this list: ` + strings.Join(categories, ", ") + `.
No markdown, no commentary, no extra keys.`
}
