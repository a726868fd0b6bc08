// Package document reads the corpus owned by the ingestion pipeline and
// applies hard filters (visibility, approval, category, tags, language)
// ahead of any scoring.
package document

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/kailas-cloud/docdex/internal/domain"
)

// DefaultKeyPrefix namespaces all corpus keys.
const DefaultKeyPrefix = "docdex:"

// store is the consumer interface for document reads (ISP).
type store interface {
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	Scan(ctx context.Context, pattern string) ([]string, error)
}

// Repo implements candidate selection over document hashes.
type Repo struct {
	store  store
	prefix string
}

// New creates a document repository.
func New(s store, prefix string) *Repo {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &Repo{store: s, prefix: prefix}
}

// Candidates returns every searchable document passing the filters. Category
// filtering includes descendants of the requested category.
func (r *Repo) Candidates(ctx context.Context, f domain.Filters) ([]domain.Document, error) {
	keys, err := r.store.Scan(ctx, r.prefix+"doc:*")
	if err != nil {
		return nil, fmt.Errorf("scan documents: %w", err)
	}
	if len(keys) == 0 {
		return nil, nil
	}

	rows, err := r.store.HGetAllMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("fetch documents: %w", err)
	}

	var categories map[string]struct{}
	if f.CategoryID != "" {
		categories, err = r.descendantCategories(ctx, f.CategoryID)
		if err != nil {
			return nil, fmt.Errorf("resolve category tree: %w", err)
		}
	}

	docs := make([]domain.Document, 0, len(rows))
	for i, fields := range rows {
		if len(fields) == 0 {
			continue
		}
		doc := parseDocument(strings.TrimPrefix(keys[i], r.prefix+"doc:"), fields)
		if !r.matches(doc, f, categories) {
			continue
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// Fetch returns the documents for the given ids, in input order. Missing ids
// are skipped rather than reported: the caller already holds a ranking and a
// concurrently deleted document should simply drop out.
func (r *Repo) Fetch(ctx context.Context, ids []string) ([]domain.Document, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = r.prefix + "doc:" + id
	}
	rows, err := r.store.HGetAllMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("fetch documents: %w", err)
	}
	docs := make([]domain.Document, 0, len(rows))
	for i, fields := range rows {
		if len(fields) == 0 {
			continue
		}
		docs = append(docs, parseDocument(ids[i], fields))
	}
	return docs, nil
}

// RecentSample returns up to n of the most recently updated documents in the
// filtered set. It backs the keyword retriever's never-empty-candidates
// fallback.
func (r *Repo) RecentSample(ctx context.Context, f domain.Filters, n int) ([]domain.Document, error) {
	if n <= 0 {
		return nil, nil
	}
	docs, err := r.Candidates(ctx, f)
	if err != nil {
		return nil, err
	}
	sort.Slice(docs, func(i, j int) bool {
		return docs[i].UpdatedAt.After(docs[j].UpdatedAt)
	})
	if len(docs) > n {
		docs = docs[:n]
	}
	return docs, nil
}

func (r *Repo) matches(doc domain.Document, f domain.Filters, categories map[string]struct{}) bool {
	if !doc.Searchable(f.IncludeHidden) {
		return false
	}
	if categories != nil {
		if _, ok := categories[doc.CategoryID]; !ok {
			return false
		}
	}
	if !f.MatchesTags(doc.Tags) {
		return false
	}
	if f.Language != "" && !strings.EqualFold(doc.Language, f.Language) {
		return false
	}
	return true
}

// descendantCategories resolves a category id to the set containing itself
// and every descendant. The tree is stored as parent pointers in category
// hashes.
func (r *Repo) descendantCategories(ctx context.Context, root string) (map[string]struct{}, error) {
	keys, err := r.store.Scan(ctx, r.prefix+"category:*")
	if err != nil {
		return nil, fmt.Errorf("scan categories: %w", err)
	}

	children := make(map[string][]string)
	if len(keys) > 0 {
		rows, err := r.store.HGetAllMulti(ctx, keys)
		if err != nil {
			return nil, fmt.Errorf("fetch categories: %w", err)
		}
		for i, fields := range rows {
			id := strings.TrimPrefix(keys[i], r.prefix+"category:")
			if parent := fields["parent_id"]; parent != "" {
				children[parent] = append(children[parent], id)
			}
		}
	}

	set := map[string]struct{}{root: {}}
	queue := []string{root}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, child := range children[cur] {
			if _, ok := set[child]; ok {
				continue
			}
			set[child] = struct{}{}
			queue = append(queue, child)
		}
	}
	return set, nil
}
