package session

import "strings"

const (
	DefaultPage  = 1
	DefaultLimit = 20
	MaxLimit     = 100
)

// ListParams are normalized paging and filter parameters. Build them with
// NewListParams so the defaults and clamps are always applied.
type ListParams struct {
	Page  int
	Limit int
	Query string
}

// NewListParams applies defaults: page < 1 becomes 1, limit < 1 becomes 20 and
// limit is clamped to 100. The query is trimmed.
func NewListParams(page, limit int, query string) ListParams {
	if page < 1 {
		page = DefaultPage
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return ListParams{
		Page:  page,
		Limit: limit,
		Query: strings.TrimSpace(query),
	}
}

// Offset is the number of matching records skipped before this page.
func (p ListParams) Offset() int {
	return (p.Page - 1) * p.Limit
}

// HasQuery reports whether a substring filter applies.
func (p ListParams) HasQuery() bool {
	return p.Query != ""
}

// Matches reports whether s satisfies the substring filter on title, speakers
// or description. Stores that filter in memory use it directly.
func (p ListParams) Matches(s Session) bool {
	if !p.HasQuery() {
		return true
	}
	needle := strings.ToLower(p.Query)
	return strings.Contains(strings.ToLower(s.Title), needle) ||
		strings.Contains(strings.ToLower(s.Speakers), needle) ||
		strings.Contains(strings.ToLower(s.Description), needle)
}
