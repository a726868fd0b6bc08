package document

import (
	"strings"
	"time"

	"github.com/kailas-cloud/docdex/internal/domain"
)

// Hash field names of a document record.
const (
	fieldTitle         = "title"
	fieldDescription   = "description"
	fieldSummary       = "summary"
	fieldKeyPoints     = "key_points"
	fieldTags          = "tags"
	fieldSuggestedTags = "suggested_tags"
	fieldLanguage      = "language"
	fieldCategoryID    = "category_id"
	fieldVisibility    = "visibility"
	fieldApproved      = "approved"
	fieldUpdatedAt     = "updated_at"
)

// parseDocument maps a flat hash into the domain read model. Unknown or
// malformed fields degrade to zero values; the record stays usable.
func parseDocument(id string, fields map[string]string) domain.Document {
	doc := domain.Document{
		ID:            id,
		Title:         fields[fieldTitle],
		Description:   fields[fieldDescription],
		Summary:       fields[fieldSummary],
		KeyPoints:     splitList(fields[fieldKeyPoints], "\n"),
		Tags:          splitList(fields[fieldTags], ","),
		SuggestedTags: splitList(fields[fieldSuggestedTags], ","),
		Language:      fields[fieldLanguage],
		CategoryID:    fields[fieldCategoryID],
		Visibility:    domain.Visibility(fields[fieldVisibility]),
		Approved:      fields[fieldApproved] == "1" || fields[fieldApproved] == "true",
	}
	if doc.Visibility == "" {
		doc.Visibility = domain.VisibilityPublic
	}
	if ts := fields[fieldUpdatedAt]; ts != "" {
		if t, err := time.Parse(time.RFC3339, ts); err == nil {
			doc.UpdatedAt = t
		}
	}
	return doc
}

func splitList(s, sep string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, sep)
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
