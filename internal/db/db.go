// Package db defines the backing-store contract. The retrieval engine is
// read-only against document and embedding data; the only write path is the
// append-only history stream.
package db

import (
	"context"
	"time"
)

// Store is the main database facade combining all sub-interfaces.
// Consumers depend on the narrow sub-interfaces (ISP).
type Store interface {
	Pinger
	HashReader
	VectorSearcher
	StreamAppender
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HashReader provides read-only hash operations.
type HashReader interface {
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	Scan(ctx context.Context, pattern string) ([]string, error)
}

// KNNQuery describes a vector similarity search restricted to a candidate
// id set.
type KNNQuery struct {
	IndexName    string
	Vector       []float32
	K            int
	IDs          []string // candidate document ids; empty means unrestricted
	ReturnFields []string
}

// SearchEntry is one row of a search result.
type SearchEntry struct {
	Key    string
	Score  float64
	Fields map[string]string
}

// SearchResult is a parsed FT.SEARCH reply.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

// VectorSearcher provides the native similarity operator, when available.
// SupportsVectorSearch is an explicit capability probe; callers branch on it
// rather than matching error strings.
type VectorSearcher interface {
	SearchKNN(ctx context.Context, q *KNNQuery) (*SearchResult, error)
	SupportsVectorSearch(ctx context.Context) bool
}

// StreamAppender appends entries to a capped stream.
type StreamAppender interface {
	XAdd(ctx context.Context, stream string, maxLen int64, fields map[string]string) error
}
