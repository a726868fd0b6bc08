// Package history appends past-query records to a capped stream. Writes are
// strictly best-effort: a failure here must never affect a returned ranking.
package history

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/docdex/internal/domain"
)

// DefaultStream is the stream key used when none is configured.
const DefaultStream = "docdex:search_history"

// DefaultMaxLen caps the stream length (approximate trim).
const DefaultMaxLen = 10000

// store is the consumer interface for history writes (ISP).
type store interface {
	XAdd(ctx context.Context, stream string, maxLen int64, fields map[string]string) error
}

// Recorder writes history entries to the stream.
type Recorder struct {
	store  store
	stream string
	maxLen int64
	logger *zap.Logger
}

// New creates a history recorder.
func New(s store, stream string, maxLen int64, logger *zap.Logger) *Recorder {
	if stream == "" {
		stream = DefaultStream
	}
	if maxLen <= 0 {
		maxLen = DefaultMaxLen
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recorder{store: s, stream: stream, maxLen: maxLen, logger: logger}
}

// Record appends one entry. Entries without a user identity are skipped
// entirely; write failures are logged and discarded.
func (r *Recorder) Record(ctx context.Context, e domain.HistoryEntry) error {
	if e.UserID == "" {
		return nil
	}
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}

	fields := map[string]string{
		"user_id":      e.UserID,
		"query":        e.Query,
		"method":       e.Method,
		"score":        strconv.FormatFloat(e.Score, 'f', 6, 64),
		"result_count": strconv.Itoa(e.ResultCount),
		"filters":      e.Filters.Key(),
		"at":           e.At.Format(time.RFC3339Nano),
	}
	if len(e.Embedding) > 0 {
		fields["embedding"] = encodeVector(e.Embedding)
	}

	if err := r.store.XAdd(ctx, r.stream, r.maxLen, fields); err != nil {
		r.logger.Warn("history write failed",
			zap.String("method", e.Method),
			zap.Error(err),
		)
		return fmt.Errorf("append history: %w", err)
	}
	return nil
}

func encodeVector(v []float32) string {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return string(buf)
}
