package search

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/kailas-cloud/docdex/internal/domain"
	"github.com/kailas-cloud/docdex/internal/querynorm"
)

// keywordLeg scores the filtered candidate set lexically across six
// document fields. Only rows with a positive score leave the leg.
func (s *Service) keywordLeg(
	ctx context.Context, variants querynorm.Variants, f domain.Filters, limit int,
) ([]domain.KeywordResult, error) {
	docs, err := s.docs.Candidates(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("fetch candidates: %w", err)
	}

	cands := textCandidates(docs, variants)
	if len(cands) == 0 {
		// Never return zero candidates outright when the corpus is
		// non-empty: fall back to a bounded recently-updated sample.
		cands, err = s.docs.RecentSample(ctx, f, s.cfg.RecentSampleSize)
		if err != nil {
			return nil, fmt.Errorf("fetch recent sample: %w", err)
		}
	}

	results := make([]domain.KeywordResult, 0, len(cands))
	for _, doc := range cands {
		score := scoreDocument(doc, variants, s.cfg.FieldWeights)
		if score <= 0 {
			continue
		}
		results = append(results, domain.KeywordResult{DocumentID: doc.ID, TextScore: score})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].TextScore != results[j].TextScore {
			return results[i].TextScore > results[j].TextScore
		}
		return results[i].DocumentID < results[j].DocumentID
	})
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// textCandidates keeps documents whose title, description or summary
// contains the trimmed query, the normalized query, or any single token,
// case-insensitively.
func textCandidates(docs []domain.Document, v querynorm.Variants) []domain.Document {
	out := make([]domain.Document, 0, len(docs))
	for _, doc := range docs {
		haystack := strings.ToLower(doc.Title + "\n" + doc.Description + "\n" + doc.Summary)
		if containsAny(haystack, v) {
			out = append(out, doc)
		}
	}
	return out
}

func containsAny(haystack string, v querynorm.Variants) bool {
	if v.TrimmedLower != "" && strings.Contains(haystack, v.TrimmedLower) {
		return true
	}
	if v.Lower != "" && strings.Contains(haystack, v.Lower) {
		return true
	}
	for _, tok := range v.Tokens {
		if strings.Contains(haystack, tok) {
			return true
		}
	}
	return false
}

// scoreDocument combines per-field scores with fixed weights summing to 1,
// clamped to 1.
func scoreDocument(doc domain.Document, v querynorm.Variants, w FieldWeights) float64 {
	score := w.Title*fieldScore(doc.Title, v) +
		w.Description*fieldScore(doc.Description, v) +
		w.Summary*fieldScore(doc.Summary, v) +
		w.KeyPoints*fieldScore(strings.Join(doc.KeyPoints, " "), v) +
		w.Tags*fieldScore(strings.Join(doc.Tags, " "), v) +
		w.SuggestedTags*fieldScore(strings.Join(doc.SuggestedTags, " "), v)
	return min(1, score)
}

// fieldScore is the maximum of four signals: exact substring match of the
// raw lowercase query, of the normalized query, substring match after
// condensing both sides to letters and digits (defeats punctuation and
// spacing mismatches), and token coverage (fraction of query tokens present
// individually).
func fieldScore(text string, v querynorm.Variants) float64 {
	if text == "" {
		return 0
	}
	lower := strings.ToLower(text)

	if v.TrimmedLower != "" && strings.Contains(lower, v.TrimmedLower) {
		return 1
	}
	if v.Lower != "" && strings.Contains(lower, v.Lower) {
		return 1
	}
	if v.Condensed != "" && strings.Contains(querynorm.Condense(lower), v.Condensed) {
		return 1
	}
	return tokenCoverage(lower, v.Tokens)
}

// tokenCoverage gives partial credit to multi-word queries matching
// most-but-not-all terms.
func tokenCoverage(haystack string, tokens []string) float64 {
	if len(tokens) == 0 {
		return 0
	}
	hits := 0
	for _, tok := range tokens {
		if strings.Contains(haystack, tok) {
			hits++
		}
	}
	return float64(hits) / float64(len(tokens))
}
