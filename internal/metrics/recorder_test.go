package metrics

import (
	"sync"
	"testing"
	"time"
)

func TestRecorder_RunningAverage(t *testing.T) {
	r := NewRecorder()

	r.RecordSearch(KindHybrid, 100*time.Millisecond)
	r.RecordSearch(KindHybrid, 300*time.Millisecond)

	snap := r.Snapshot()
	if snap.TotalSearches != 2 {
		t.Errorf("TotalSearches = %d, want 2", snap.TotalSearches)
	}
	if snap.HybridSearches != 2 {
		t.Errorf("HybridSearches = %d, want 2", snap.HybridSearches)
	}
	if snap.AvgLatency != 200*time.Millisecond {
		t.Errorf("AvgLatency = %v, want 200ms", snap.AvgLatency)
	}
}

func TestRecorder_InternalDoesNotBumpTotal(t *testing.T) {
	r := NewRecorder()

	r.RecordSearch(KindHybrid, 50*time.Millisecond)
	r.RecordInternal(KindVector)
	r.RecordInternal(KindKeyword)

	snap := r.Snapshot()
	if snap.TotalSearches != 1 {
		t.Errorf("TotalSearches = %d, want 1", snap.TotalSearches)
	}
	if snap.VectorSearches != 1 || snap.KeywordSearches != 1 {
		t.Errorf("leg counters = (%d, %d), want (1, 1)",
			snap.VectorSearches, snap.KeywordSearches)
	}
	// The internal calls must not disturb the average.
	if snap.AvgLatency != 50*time.Millisecond {
		t.Errorf("AvgLatency = %v, want 50ms", snap.AvgLatency)
	}
}

func TestRecorder_CacheHits(t *testing.T) {
	r := NewRecorder()
	r.RecordCacheHit()
	r.RecordCacheHit()
	if got := r.Snapshot().CacheHits; got != 2 {
		t.Errorf("CacheHits = %d, want 2", got)
	}
}

func TestRecorder_ConcurrentUpdates(t *testing.T) {
	r := NewRecorder()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.RecordSearch(KindVector, 10*time.Millisecond)
			r.RecordCacheHit()
		}()
	}
	wg.Wait()

	snap := r.Snapshot()
	if snap.TotalSearches != 50 {
		t.Errorf("TotalSearches = %d, want 50", snap.TotalSearches)
	}
	if snap.CacheHits != 50 {
		t.Errorf("CacheHits = %d, want 50", snap.CacheHits)
	}
	if snap.AvgLatency != 10*time.Millisecond {
		t.Errorf("AvgLatency = %v, want 10ms", snap.AvgLatency)
	}
}
