package domain

import "time"

// Visibility controls who may see a document.
type Visibility string

// Visibility values.
const (
	VisibilityPublic   Visibility = "public"
	VisibilityUnlisted Visibility = "unlisted"
	VisibilityHidden   Visibility = "hidden"
)

// Document is the read model of a corpus entry as seen by the retrieval
// engine. The underlying record is owned by the ingestion pipeline; this
// subsystem never writes it.
type Document struct {
	ID            string
	Title         string
	Description   string
	Summary       string
	KeyPoints     []string
	Tags          []string
	SuggestedTags []string
	Language      string
	CategoryID    string
	Visibility    Visibility
	Approved      bool
	UpdatedAt     time.Time
}

// Searchable reports whether the document may appear in results at all.
func (d Document) Searchable(includeHidden bool) bool {
	if !d.Approved {
		return false
	}
	if d.Visibility == VisibilityHidden && !includeHidden {
		return false
	}
	return true
}
