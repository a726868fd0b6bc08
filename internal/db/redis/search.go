package redis

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/docdex/internal/db"
)

// SearchKNN runs a vector similarity search via FT.SEARCH, optionally
// restricted to a candidate id set through a TAG pre-filter.
func (s *Store) SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
	if q.IndexName == "" {
		return nil, fmt.Errorf("index name is required")
	}
	if len(q.Vector) == 0 {
		return nil, fmt.Errorf("vector is required")
	}
	if q.K <= 0 {
		return nil, fmt.Errorf("k must be positive")
	}

	knnPart := fmt.Sprintf("[KNN %d @vector $BLOB]", q.K)
	var queryStr string
	if filterStr := buildIDFilter(q.IDs); filterStr != "" {
		queryStr = fmt.Sprintf("(%s)=>%s", filterStr, knnPart)
	} else {
		queryStr = fmt.Sprintf("*=>%s", knnPart)
	}

	args := []string{q.IndexName, queryStr}

	if len(q.ReturnFields) > 0 {
		args = append(args, "RETURN", strconv.Itoa(len(q.ReturnFields)))
		args = append(args, q.ReturnFields...)
	}

	// RediSearch pages with a default LIMIT 0 10; request the full K.
	args = append(args, "LIMIT", "0", strconv.Itoa(q.K))
	args = append(args, "PARAMS", "2", "BLOB", vectorToBytes(q.Vector), "DIALECT", "2")

	cmd := s.b().Arbitrary("FT.SEARCH").Args(args...).Build()
	raw, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		return nil, &db.Error{Op: db.OpSearch, Err: err}
	}

	return parseKNNResult(raw)
}

// SupportsVectorSearch probes for the search module once and memoizes a
// positive or negative answer. Probe failures are not memoized so a store
// that comes up later is still detected.
func (s *Store) SupportsVectorSearch(ctx context.Context) bool {
	s.probeMu.Lock()
	defer s.probeMu.Unlock()

	if s.probeDone {
		return s.probeResult
	}

	supported, err := s.probeSearchModule(ctx)
	if err != nil {
		return false
	}
	s.probeDone = true
	s.probeResult = supported
	return supported
}

func (s *Store) probeSearchModule(ctx context.Context) (bool, error) {
	cmd := s.b().Arbitrary("MODULE", "LIST").Build()
	raw, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		return false, &db.Error{Op: db.OpModuleList, Err: err}
	}

	for _, msg := range raw {
		fields, err := msg.ToArray()
		if err != nil {
			continue
		}
		for i := 0; i+1 < len(fields); i += 2 {
			name, err := fields[i].ToString()
			if err != nil || name != "name" {
				continue
			}
			value, err := fields[i+1].ToString()
			if err != nil {
				continue
			}
			if strings.EqualFold(value, "search") || strings.EqualFold(value, "ft") {
				return true, nil
			}
		}
	}
	return false, nil
}

// --- Result parsing ---

func parseKNNResult(raw []rueidis.RedisMessage) (*db.SearchResult, error) {
	if len(raw) == 0 {
		return &db.SearchResult{}, nil
	}

	total, err := raw[0].AsInt64()
	if err != nil {
		return nil, fmt.Errorf("parse total: %w", err)
	}
	if total == 0 {
		return &db.SearchResult{}, nil
	}

	entries := make([]db.SearchEntry, 0, total)
	// 2-stride: [total, key1, fields1, key2, fields2, ...]
	for i := 1; i+1 < len(raw); i += 2 {
		key, err := raw[i].ToString()
		if err != nil {
			continue
		}

		fields, err := raw[i+1].ToArray()
		if err != nil {
			continue
		}

		entry := db.SearchEntry{
			Key:    key,
			Fields: parseFieldPairs(fields),
		}

		if scoreStr, ok := entry.Fields["__vector_score"]; ok {
			if d, err := strconv.ParseFloat(scoreStr, 64); err == nil {
				entry.Score = max(0, 1.0-d) // cosine distance -> similarity, clamped to [0,1]
			}
			delete(entry.Fields, "__vector_score")
		}

		entries = append(entries, entry)
	}

	return &db.SearchResult{Total: int(total), Entries: entries}, nil
}

func parseFieldPairs(fields []rueidis.RedisMessage) map[string]string {
	m := make(map[string]string, len(fields)/2)
	for j := 0; j+1 < len(fields); j += 2 {
		name, err := fields[j].ToString()
		if err != nil {
			continue
		}
		value, err := fields[j+1].ToString()
		if err != nil {
			continue
		}
		m[name] = value
	}
	return m
}

// --- Query building ---

// buildIDFilter renders a TAG pre-filter over document ids.
func buildIDFilter(ids []string) string {
	if len(ids) == 0 {
		return ""
	}
	escaped := make([]string, len(ids))
	for i, id := range ids {
		escaped[i] = escapeTag(id)
	}
	return fmt.Sprintf("@id:{%s}", strings.Join(escaped, "|"))
}

// escapeTag escapes characters with special meaning inside TAG queries.
func escapeTag(v string) string {
	var b strings.Builder
	b.Grow(len(v))
	for _, r := range v {
		switch r {
		case ',', '.', '<', '>', '{', '}', '[', ']', '"', '\'', ':', ';',
			'!', '@', '#', '$', '%', '^', '&', '*', '(', ')', '-', '+',
			'=', '~', '|', ' ', '\\', '/':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// vectorToBytes converts a float32 vector to its binary FT.SEARCH BLOB form.
func vectorToBytes(v []float32) string {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return string(buf)
}
