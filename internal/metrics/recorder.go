package metrics

import (
	"sync"
	"time"
)

// Kind labels the search flavor for counters.
type Kind string

// Search kinds.
const (
	KindVector  Kind = "vector"
	KindKeyword Kind = "keyword"
	KindHybrid  Kind = "hybrid"
)

// Snapshot is a point-in-time copy of the recorder state.
type Snapshot struct {
	TotalSearches   int64
	VectorSearches  int64
	KeywordSearches int64
	HybridSearches  int64
	CacheHits       int64
	AvgLatency      time.Duration
}

// Recorder keeps process-wide search counters and a running average latency.
// It lives for the process lifetime and resets only on restart. All updates
// are mutex-guarded; the average update is a read-modify-write.
type Recorder struct {
	mu              sync.Mutex
	totalSearches   int64
	vectorSearches  int64
	keywordSearches int64
	hybridSearches  int64
	cacheHits       int64
	avgLatency      time.Duration
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// RecordSearch registers a caller-facing search of the given kind and folds
// its latency into the running average: avg' = (avg*(n-1) + latency) / n.
func (r *Recorder) RecordSearch(kind Kind, latency time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.bumpKind(kind)
	r.totalSearches++
	n := r.totalSearches
	r.avgLatency = time.Duration((int64(r.avgLatency)*(n-1) + int64(latency)) / n)
}

// RecordInternal registers a de-duplicating sub-call: the per-kind counter
// moves but the total (and the latency average it drives) must not.
func (r *Recorder) RecordInternal(kind Kind) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bumpKind(kind)
}

// RecordCacheHit registers a result served from the cache.
func (r *Recorder) RecordCacheHit() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cacheHits++
}

// Snapshot returns a consistent copy of all counters.
func (r *Recorder) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Snapshot{
		TotalSearches:   r.totalSearches,
		VectorSearches:  r.vectorSearches,
		KeywordSearches: r.keywordSearches,
		HybridSearches:  r.hybridSearches,
		CacheHits:       r.cacheHits,
		AvgLatency:      r.avgLatency,
	}
}

func (r *Recorder) bumpKind(kind Kind) {
	switch kind {
	case KindVector:
		r.vectorSearches++
	case KindKeyword:
		r.keywordSearches++
	case KindHybrid:
		r.hybridSearches++
	}
}
