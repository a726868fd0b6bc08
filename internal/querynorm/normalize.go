// Package querynorm turns a raw search query into the canonical text
// variants and tokens the retrieval legs score against.
package querynorm

import (
	"strings"
	"unicode"
)

// Variants holds the derived forms of a raw query. It is immutable and
// scoped to a single request.
type Variants struct {
	Raw          string
	Trimmed      string
	Collapsed    string // whitespace runs collapsed to single spaces
	TrimmedLower string
	Lower        string // lowercase of Collapsed
	Condensed    string // lowercase Unicode letters and digits only
	Tokens       []string
}

// Empty reports whether the query carries no searchable text. Downstream
// components treat an empty query as "no candidates", not as an error.
func (v Variants) Empty() bool {
	return v.Trimmed == ""
}

// Preferred returns the text handed to the embedding provider.
func (v Variants) Preferred() string {
	if v.Collapsed != "" {
		return v.Collapsed
	}
	return v.Trimmed
}

// Short technical suffixes recognized during tokenization. A token ending in
// one of these is additionally emitted split, so a compound like "nodejs"
// contributes "nodejs", "node" and "js".
var techSuffixes = []string{
	"js", "ts", "py", "ml", "ai", "db",
	"api", "sdk", "cli", "sql", "css",
}

// Normalize derives all query variants from raw input.
func Normalize(raw string) Variants {
	trimmed := strings.TrimSpace(raw)
	collapsed := strings.Join(strings.Fields(trimmed), " ")
	lower := strings.ToLower(collapsed)

	return Variants{
		Raw:          raw,
		Trimmed:      trimmed,
		Collapsed:    collapsed,
		TrimmedLower: strings.ToLower(trimmed),
		Lower:        lower,
		Condensed:    Condense(lower),
		Tokens:       Tokenize(lower),
	}
}

// Condense strips everything but Unicode letters and digits, lowercased.
// "Node.js" and "nodejs" condense to the same string.
func Condense(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}

// Tokenize splits text on punctuation and whitespace, then further splits
// each token at letter/digit boundaries and at recognized technical
// suffixes. Compounds contribute both the whole token and its parts.
// The result is de-duplicated, preserving first-seen order.
func Tokenize(s string) []string {
	segments := strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	var tokens []string
	seen := make(map[string]struct{})
	add := func(tok string) {
		if tok == "" {
			return
		}
		if _, ok := seen[tok]; ok {
			return
		}
		seen[tok] = struct{}{}
		tokens = append(tokens, tok)
	}

	for _, seg := range segments {
		add(seg)
		for _, part := range splitLetterDigit(seg) {
			add(part)
		}
		if head, tail, ok := splitTechSuffix(seg); ok {
			add(head)
			add(tail)
		}
	}
	return tokens
}

// splitLetterDigit breaks a segment at transitions between letters and
// digits: "node2vec" becomes ["node", "2", "vec"]. Returns nil when the
// segment has no transition.
func splitLetterDigit(seg string) []string {
	runes := []rune(seg)
	var parts []string
	start := 0
	for i := 1; i < len(runes); i++ {
		if unicode.IsDigit(runes[i]) != unicode.IsDigit(runes[i-1]) {
			parts = append(parts, string(runes[start:i]))
			start = i
		}
	}
	if start == 0 {
		return nil
	}
	return append(parts, string(runes[start:]))
}

// splitTechSuffix splits off a recognized 2-3 letter technical suffix.
// Both halves must be non-trivial for the split to apply.
func splitTechSuffix(seg string) (head, tail string, ok bool) {
	for _, suf := range techSuffixes {
		if len(seg) > len(suf)+1 && strings.HasSuffix(seg, suf) {
			return seg[:len(seg)-len(suf)], suf, true
		}
	}
	return "", "", false
}
