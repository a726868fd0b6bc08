package docdex

import "github.com/kailas-cloud/docdex/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrDocumentNotFound        = domain.ErrDocumentNotFound
	ErrEmbeddingProviderError  = domain.ErrEmbeddingProviderError
	ErrVectorSearchUnsupported = domain.ErrVectorSearchUnsupported
	ErrSearchFailed            = domain.ErrSearchFailed
)
