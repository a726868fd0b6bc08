package domain

import (
	"sort"
	"strings"
)

// Filters narrows the candidate set before any scoring happens.
// CategoryID matches the category and all of its descendants.
type Filters struct {
	CategoryID    string
	Tags          []string
	Language      string
	IncludeHidden bool
}

// IsZero reports whether no filter criteria are set.
func (f Filters) IsZero() bool {
	return f.CategoryID == "" && len(f.Tags) == 0 && f.Language == "" && !f.IncludeHidden
}

// Key returns a canonical serialization used in cache keys. Tag order is
// normalized so logically equal filters produce the same key.
func (f Filters) Key() string {
	tags := make([]string, len(f.Tags))
	copy(tags, f.Tags)
	sort.Strings(tags)

	var b strings.Builder
	b.WriteString("cat=")
	b.WriteString(f.CategoryID)
	b.WriteString(";tags=")
	b.WriteString(strings.Join(tags, ","))
	b.WriteString(";lang=")
	b.WriteString(f.Language)
	if f.IncludeHidden {
		b.WriteString(";hidden")
	}
	return b.String()
}

// MatchesTags reports whether the document shares at least one tag with the
// filter, or the filter has no tag criteria.
func (f Filters) MatchesTags(docTags []string) bool {
	if len(f.Tags) == 0 {
		return true
	}
	for _, want := range f.Tags {
		for _, have := range docTags {
			if strings.EqualFold(want, have) {
				return true
			}
		}
	}
	return false
}
