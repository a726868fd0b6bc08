package domain

import "errors"

var (
	// ErrDocumentNotFound signals a missing document.
	ErrDocumentNotFound = errors.New("document not found")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrVectorSearchUnsupported signals that the backend lacks a native
	// vector similarity operator.
	ErrVectorSearchUnsupported = errors.New("vector search not supported by backend")
	// ErrSearchFailed is the generic failure surfaced to callers when
	// retrieval cannot produce a ranking at all.
	ErrSearchFailed = errors.New("search failed")
)
