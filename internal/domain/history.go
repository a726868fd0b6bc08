package domain

import "time"

// HistoryEntry is one best-effort record of a past search. Entries without a
// user identity are skipped entirely by the sink.
type HistoryEntry struct {
	UserID      string
	Query       string
	Embedding   []float32
	Method      string
	Score       float64
	ResultCount int
	Filters     Filters
	At          time.Time
}
