package search

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/kailas-cloud/docdex/internal/domain"
)

// --- Mocks ---

type mockDocs struct {
	candidates    []domain.Document
	candidatesErr error
	recent        []domain.Document
	recentErr     error

	candidatesCalls int
	recentCalls     int
}

func (m *mockDocs) Candidates(_ context.Context, _ domain.Filters) ([]domain.Document, error) {
	m.candidatesCalls++
	return m.candidates, m.candidatesErr
}

func (m *mockDocs) RecentSample(_ context.Context, _ domain.Filters, n int) ([]domain.Document, error) {
	m.recentCalls++
	if m.recentErr != nil {
		return nil, m.recentErr
	}
	if len(m.recent) > n {
		return m.recent[:n], nil
	}
	return m.recent, nil
}

type mockVectors struct {
	supports   bool
	knnResults []domain.VectorResult
	knnErr     error
	embeddings []domain.Embedding
	vectorsErr error

	knnCalled     bool
	vectorsCalled bool
}

func (m *mockVectors) SupportsVectorSearch(_ context.Context) bool {
	return m.supports
}

func (m *mockVectors) NativeKNN(
	_ context.Context, _ []float32, _ []string, limit int, threshold float64,
) ([]domain.VectorResult, error) {
	m.knnCalled = true
	if m.knnErr != nil {
		return nil, m.knnErr
	}
	out := make([]domain.VectorResult, 0, len(m.knnResults))
	for _, r := range m.knnResults {
		if r.Similarity >= threshold {
			out = append(out, r)
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *mockVectors) Vectors(_ context.Context, _ []string) ([]domain.Embedding, error) {
	m.vectorsCalled = true
	return m.embeddings, m.vectorsErr
}

type mockEmbedder struct {
	vec   []float32
	err   error
	calls int
}

func (m *mockEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	m.calls++
	if m.err != nil {
		return domain.EmbeddingResult{}, m.err
	}
	return domain.EmbeddingResult{Embedding: m.vec, TotalTokens: 7}, nil
}

type mockHistory struct {
	mu      sync.Mutex
	entries []domain.HistoryEntry
	err     error
	done    chan struct{}
}

func newMockHistory() *mockHistory {
	return &mockHistory{done: make(chan struct{}, 16)}
}

func (m *mockHistory) Record(_ context.Context, e domain.HistoryEntry) error {
	m.mu.Lock()
	m.entries = append(m.entries, e)
	m.mu.Unlock()
	m.done <- struct{}{}
	return m.err
}

func (m *mockHistory) recorded() []domain.HistoryEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.HistoryEntry, len(m.entries))
	copy(out, m.entries)
	return out
}

func (m *mockHistory) wait(t *testing.T) {
	t.Helper()
	select {
	case <-m.done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for history record")
	}
}

// --- Fixtures ---

func doc(id, title string) domain.Document {
	return domain.Document{
		ID:         id,
		Title:      title,
		Language:   "en",
		Visibility: domain.VisibilityPublic,
		Approved:   true,
		UpdatedAt:  time.Unix(1700000000, 0),
	}
}

func newTestService(t *testing.T, docs *mockDocs, vectors *mockVectors, embedder *mockEmbedder) *Service {
	t.Helper()
	return New(docs, vectors, embedder, Config{}, nil)
}
