package redis

import (
	"context"
	"strconv"

	"github.com/kailas-cloud/docdex/internal/db"
)

// XAdd appends an entry to a stream, trimming it approximately to maxLen.
func (s *Store) XAdd(ctx context.Context, stream string, maxLen int64, fields map[string]string) error {
	cmd := s.b().Xadd().Key(stream).Maxlen().Almost().
		Threshold(strconv.FormatInt(maxLen, 10)).Id("*").FieldValue()
	for k, v := range fields {
		cmd = cmd.FieldValue(k, v)
	}
	if err := s.do(ctx, cmd.Build()).Error(); err != nil {
		return &db.Error{Op: db.OpXAdd, Err: err}
	}
	return nil
}
