package domain

// VectorResult is one row of the semantic leg. Similarity is cosine
// similarity mapped into [0, 1], validated at the store boundary.
type VectorResult struct {
	DocumentID string
	Similarity float64
}

// KeywordResult is one row of the lexical leg. TextScore is in (0, 1];
// zero-score rows are dropped before they leave the retriever.
type KeywordResult struct {
	DocumentID string
	TextScore  float64
}

// HybridResult is a fused row. HasVector/HasText record which legs
// contributed, since a zero score is a legal value.
type HybridResult struct {
	DocumentID  string
	VectorScore float64
	TextScore   float64
	HasVector   bool
	HasText     bool
	Combined    float64
}
