package domain

// TagMatchMode selects the set semantics of tag-based file resolution.
// Both call sites are intentional and kept distinct: session context uses
// MatchAll, fresh tag-based chat requests use MatchAny.
type TagMatchMode string

const (
	// MatchAny resolves files carrying at least one of the requested tags.
	MatchAny TagMatchMode = "any"
	// MatchAll resolves files carrying every requested tag.
	MatchAll TagMatchMode = "all"
)
