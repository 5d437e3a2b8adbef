package usecase

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

var whitespaceRuns = regexp.MustCompile(`\s+`)
var dashRuns = regexp.MustCompile(`-+`)

// SanitizeFilename normalizes an untrusted client-supplied filename into a
// filesystem-safe basename. It is pure and total: the result is never empty
// and never contains a path separator.
func SanitizeFilename(name string) string {
	// Directory components are dropped, not escaped.
	if idx := strings.LastIndexAny(name, `/\`); idx >= 0 {
		name = name[idx+1:]
	}

	// Control characters go first: a tab or newline is replaced, not
	// collapsed as whitespace.
	name = strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f || strings.ContainsRune(`/?%*:|"<>`, r) {
			return '_'
		}
		return r
	}, name)
	name = whitespaceRuns.ReplaceAllString(name, "-")
	name = dashRuns.ReplaceAllString(name, "-")

	// Leading/trailing dashes and dots can expose each other, so trim to a
	// fixed point.
	for {
		trimmed := strings.Trim(strings.Trim(name, "-"), ".")
		if trimmed == name {
			break
		}
		name = trimmed
	}

	if name == "" {
		return fmt.Sprintf("untitled_%d", time.Now().UnixMilli())
	}
	return name
}
