package search

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/kailas-cloud/docdex/internal/domain"
)

func TestVectorSearch_ThresholdAndLimit(t *testing.T) {
	docs := &mockDocs{candidates: []domain.Document{
		doc("a", "x"), doc("b", "x"), doc("c", "x"), doc("d", "x"),
	}}
	vectors := &mockVectors{
		supports: true,
		knnResults: []domain.VectorResult{
			{DocumentID: "a", Similarity: 0.9},
			{DocumentID: "b", Similarity: 0.7},
			{DocumentID: "c", Similarity: 0.55},
			{DocumentID: "d", Similarity: 0.3},
		},
	}
	svc := newTestService(t, docs, vectors, &mockEmbedder{vec: []float32{1}})

	results, err := svc.Search(context.Background(), Request{
		Query: "q", Type: TypeVector, Limit: 2, Threshold: 0.5,
	})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	for i, r := range results {
		if r.VectorScore < 0.5 {
			t.Errorf("result %d score %v below threshold", i, r.VectorScore)
		}
		if i > 0 && results[i-1].VectorScore < r.VectorScore {
			t.Errorf("results not sorted descending at %d", i)
		}
	}
}

func TestVectorLeg_FallbackCosine(t *testing.T) {
	// Backend without the native operator: similarity is recomputed in
	// process. Vectors chosen so the expected cosine values are exact.
	docs := &mockDocs{candidates: []domain.Document{
		doc("same", "x"), doc("orthogonal", "x"), doc("diagonal", "x"),
		doc("zero", "x"), doc("negative", "x"),
	}}
	vectors := &mockVectors{
		supports: false,
		embeddings: []domain.Embedding{
			{DocumentID: "same", Vector: []float32{2, 0}},
			{DocumentID: "orthogonal", Vector: []float32{0, 1}},
			{DocumentID: "diagonal", Vector: []float32{1, 1}},
			{DocumentID: "zero", Vector: []float32{0, 0}},
			{DocumentID: "negative", Vector: []float32{-1, 0}},
		},
	}
	svc := newTestService(t, docs, vectors, &mockEmbedder{vec: []float32{1, 0}})

	results, err := svc.Search(context.Background(), Request{
		Query: "q", Type: TypeVector, Limit: 10, Threshold: 0.5,
	})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if !vectors.vectorsCalled {
		t.Fatal("fallback must bulk-fetch raw vectors")
	}
	if vectors.knnCalled {
		t.Fatal("native operator must not be called when unsupported")
	}

	// cos(same)=1, cos(diagonal)=1/sqrt(2)~0.707; orthogonal (0),
	// negative (clamped 0) and zero-length vectors fall below 0.5.
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2: %+v", len(results), results)
	}
	if results[0].DocumentID != "same" || !roughly(results[0].VectorScore, 1) {
		t.Errorf("top = %+v, want same at 1.0", results[0])
	}
	if results[1].DocumentID != "diagonal" || !roughly(results[1].VectorScore, 1/math.Sqrt2) {
		t.Errorf("second = %+v, want diagonal at %v", results[1], 1/math.Sqrt2)
	}
}

func TestVectorLeg_FallbackOnUnsupportedError(t *testing.T) {
	// The probe can race the backend: NativeKNN itself may still report
	// the capability gap, which must route to the fallback, not fail.
	docs := &mockDocs{candidates: []domain.Document{doc("a", "x")}}
	vectors := &mockVectors{
		supports: true,
		knnErr:   domain.ErrVectorSearchUnsupported,
		embeddings: []domain.Embedding{
			{DocumentID: "a", Vector: []float32{1, 0}},
		},
	}
	svc := newTestService(t, docs, vectors, &mockEmbedder{vec: []float32{1, 0}})

	results, err := svc.Search(context.Background(), Request{Query: "q", Type: TypeVector})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 1 || !roughly(results[0].VectorScore, 1) {
		t.Errorf("results = %+v, want single exact match", results)
	}
	if !vectors.vectorsCalled {
		t.Error("expected fallback vector fetch")
	}
}

func TestVectorLeg_NativeAndFallbackAgree(t *testing.T) {
	embeddings := []domain.Embedding{
		{DocumentID: "a", Vector: []float32{0.6, 0.8}},
		{DocumentID: "b", Vector: []float32{1, 0}},
		{DocumentID: "c", Vector: []float32{0.9, 0.1}},
	}
	query := []float32{1, 0}

	// Native scores computed the way the backend would: cosine mapped
	// through 1 - distance.
	native := make([]domain.VectorResult, len(embeddings))
	for i, e := range embeddings {
		native[i] = domain.VectorResult{
			DocumentID: e.DocumentID,
			Similarity: cosineSimilarity(query, e.Vector),
		}
	}

	var candidates []domain.Document
	for _, e := range embeddings {
		candidates = append(candidates, doc(e.DocumentID, "x"))
	}

	run := func(t *testing.T, vectors *mockVectors) []domain.HybridResult {
		t.Helper()
		svc := newTestService(t, &mockDocs{candidates: candidates}, vectors, &mockEmbedder{vec: query})
		results, err := svc.Search(context.Background(), Request{
			Query: "q", Type: TypeVector, Limit: 10, Threshold: 0.1,
		})
		if err != nil {
			t.Fatalf("search: %v", err)
		}
		return results
	}

	nativeResults := run(t, &mockVectors{supports: true, knnResults: native})
	fallbackResults := run(t, &mockVectors{supports: false, embeddings: embeddings})

	if len(nativeResults) != len(fallbackResults) {
		t.Fatalf("native %d rows, fallback %d rows", len(nativeResults), len(fallbackResults))
	}
	for i := range nativeResults {
		if nativeResults[i].DocumentID != fallbackResults[i].DocumentID {
			t.Errorf("row %d: native %s, fallback %s",
				i, nativeResults[i].DocumentID, fallbackResults[i].DocumentID)
		}
		if !roughly(nativeResults[i].VectorScore, fallbackResults[i].VectorScore) {
			t.Errorf("row %d: native %v, fallback %v",
				i, nativeResults[i].VectorScore, fallbackResults[i].VectorScore)
		}
	}
}

func TestVectorSearch_EmbedderFailurePropagates(t *testing.T) {
	svc := newTestService(t, &mockDocs{}, &mockVectors{supports: true},
		&mockEmbedder{err: errors.New("quota exceeded")})

	_, err := svc.Search(context.Background(), Request{Query: "q", Type: TypeVector})
	if err == nil {
		t.Fatal("direct vector search must surface the provider failure")
	}
	if !errors.Is(err, domain.ErrSearchFailed) {
		t.Errorf("error = %v, want wrapped ErrSearchFailed", err)
	}
}

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical direction", []float32{1, 0}, []float32{5, 0}, 1},
		{"orthogonal", []float32{1, 0}, []float32{0, 3}, 0},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cosineSimilarity(tt.a, tt.b); !roughly(got, tt.want) {
				t.Errorf("cosineSimilarity = %v, want %v", got, tt.want)
			}
		})
	}

	if !math.IsNaN(cosineSimilarity([]float32{0, 0}, []float32{1, 0})) {
		t.Error("zero-length vector must yield NaN")
	}
	if !math.IsNaN(cosineSimilarity([]float32{1}, []float32{1, 0})) {
		t.Error("dimension mismatch must yield NaN")
	}
}
