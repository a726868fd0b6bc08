package redis

import (
	"context"
	"errors"
	"testing"

	"github.com/redis/rueidis"
	"github.com/redis/rueidis/mock"
	"go.uber.org/mock/gomock"

	"github.com/kailas-cloud/docdex/internal/db"
)

// --- client.go tests ---

func TestPing_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("PING")).
		Return(mock.Result(mock.RedisString("PONG")))

	s := NewStoreForTest(c)
	if err := s.Ping(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestPing_Error(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("PING")).
		Return(mock.ErrorResult(context.DeadlineExceeded))

	s := NewStoreForTest(c)
	err := s.Ping(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	var dbErr *db.Error
	if !errors.As(err, &dbErr) || dbErr.Op != db.OpPing {
		t.Errorf("expected db.Error with op %s, got %v", db.OpPing, err)
	}
}

// --- hash.go tests ---

func TestHGetAll_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("HGETALL", "docdex:doc:a")).
		Return(mock.Result(mock.RedisMap(map[string]rueidis.RedisMessage{
			"title": mock.RedisString("go tutorial"),
		})))

	s := NewStoreForTest(c)
	m, err := s.HGetAll(context.Background(), "docdex:doc:a")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m["title"] != "go tutorial" {
		t.Errorf("unexpected map: %v", m)
	}
}

func TestHGetAllMulti_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		DoMulti(gomock.Any(), gomock.Any(), gomock.Any()).
		Return([]rueidis.RedisResult{
			mock.Result(mock.RedisMap(map[string]rueidis.RedisMessage{
				"f": mock.RedisString("a"),
			})),
			mock.Result(mock.RedisMap(map[string]rueidis.RedisMessage{
				"f": mock.RedisString("b"),
			})),
		})

	s := NewStoreForTest(c)
	results, err := s.HGetAllMulti(context.Background(), []string{"k1", "k2"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0]["f"] != "a" || results[1]["f"] != "b" {
		t.Errorf("unexpected results: %v", results)
	}
}

func TestHGetAllMulti_Empty(t *testing.T) {
	s := NewStoreForTest(nil) // client not called
	results, err := s.HGetAllMulti(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if results != nil {
		t.Errorf("expected nil, got %v", results)
	}
}

func TestScan_MultiPage(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	first := true
	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			return cmd[0] == "SCAN"
		})).
		DoAndReturn(func(_ context.Context, _ rueidis.Completed) rueidis.RedisResult {
			if first {
				first = false
				return mock.Result(mock.RedisArray(
					mock.RedisInt64(42), // cursor=42 means more
					mock.RedisArray(mock.RedisString("key1")),
				))
			}
			return mock.Result(mock.RedisArray(
				mock.RedisInt64(0), // cursor=0 means done
				mock.RedisArray(mock.RedisString("key2")),
			))
		}).Times(2)

	s := NewStoreForTest(c)
	keys, err := s.Scan(context.Background(), "docdex:doc:*")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(keys) != 2 {
		t.Fatalf("expected 2 keys, got %d", len(keys))
	}
}

// --- stream.go tests ---

func TestXAdd_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			return cmd[0] == "XADD" && cmd[1] == "docdex:search_history" &&
				cmd[2] == "MAXLEN" && cmd[3] == "~" && cmd[4] == "10000"
		})).
		Return(mock.Result(mock.RedisString("1-0")))

	s := NewStoreForTest(c)
	err := s.XAdd(context.Background(), "docdex:search_history", 10000,
		map[string]string{"query": "go"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestXAdd_Error(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), gomock.Any()).
		Return(mock.ErrorResult(errors.New("NOPERM")))

	s := NewStoreForTest(c)
	err := s.XAdd(context.Background(), "stream", 100, map[string]string{"k": "v"})
	var dbErr *db.Error
	if !errors.As(err, &dbErr) || dbErr.Op != db.OpXAdd {
		t.Errorf("expected db.Error with op %s, got %v", db.OpXAdd, err)
	}
}

// --- search.go tests ---

func TestSupportsVectorSearch_ProbeMemoized(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("MODULE", "LIST")).
		Return(mock.Result(mock.RedisArray(
			mock.RedisArray(
				mock.RedisString("name"), mock.RedisString("search"),
				mock.RedisString("ver"), mock.RedisString("21005"),
			),
		))).
		Times(1) // second call must hit the memoized answer

	s := NewStoreForTest(c)
	if !s.SupportsVectorSearch(context.Background()) {
		t.Fatal("expected probe to report support")
	}
	if !s.SupportsVectorSearch(context.Background()) {
		t.Fatal("memoized answer changed")
	}
}

func TestSupportsVectorSearch_NoModule(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("MODULE", "LIST")).
		Return(mock.Result(mock.RedisArray())).
		Times(1)

	s := NewStoreForTest(c)
	if s.SupportsVectorSearch(context.Background()) {
		t.Fatal("expected no support without the search module")
	}
	if s.SupportsVectorSearch(context.Background()) {
		t.Fatal("negative answer must be memoized too")
	}
}

func TestSupportsVectorSearch_ProbeErrorNotMemoized(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	gomock.InOrder(
		c.EXPECT().
			Do(gomock.Any(), mock.Match("MODULE", "LIST")).
			Return(mock.ErrorResult(errors.New("LOADING"))),
		c.EXPECT().
			Do(gomock.Any(), mock.Match("MODULE", "LIST")).
			Return(mock.Result(mock.RedisArray(
				mock.RedisArray(
					mock.RedisString("name"), mock.RedisString("search"),
				),
			))),
	)

	s := NewStoreForTest(c)
	if s.SupportsVectorSearch(context.Background()) {
		t.Fatal("probe error must read as unsupported")
	}
	if !s.SupportsVectorSearch(context.Background()) {
		t.Fatal("store that comes up later must be detected")
	}
}

func TestSearchKNN_Validation(t *testing.T) {
	s := NewStoreForTest(nil)

	if _, err := s.SearchKNN(context.Background(), &db.KNNQuery{Vector: []float32{1}, K: 1}); err == nil {
		t.Error("expected error for missing index name")
	}
	if _, err := s.SearchKNN(context.Background(), &db.KNNQuery{IndexName: "i", K: 1}); err == nil {
		t.Error("expected error for missing vector")
	}
	if _, err := s.SearchKNN(context.Background(), &db.KNNQuery{IndexName: "i", Vector: []float32{1}}); err == nil {
		t.Error("expected error for non-positive k")
	}
}

func TestSearchKNN_QueryString(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			return cmd[0] == "FT.SEARCH" && cmd[1] == "docdex:emb:idx" &&
				cmd[2] == "(@id:{a|b\\-c})=>[KNN 5 @vector $BLOB]" &&
				cmd[3] == "LIMIT" && cmd[4] == "0" && cmd[5] == "5"
		})).
		Return(mock.Result(mock.RedisArray(mock.RedisInt64(0))))

	s := NewStoreForTest(c)
	res, err := s.SearchKNN(context.Background(), &db.KNNQuery{
		IndexName: "docdex:emb:idx",
		Vector:    []float32{1, 0},
		K:         5,
		IDs:       []string{"a", "b-c"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Total != 0 {
		t.Errorf("total = %d, want 0", res.Total)
	}
}

func TestSearchKNN_LimitMatchesK(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	// Without an explicit LIMIT the server pages at 10 rows and a K above
	// that is silently truncated.
	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			return cmd[0] == "FT.SEARCH" &&
				cmd[2] == "*=>[KNN 40 @vector $BLOB]" &&
				cmd[3] == "LIMIT" && cmd[4] == "0" && cmd[5] == "40"
		})).
		Return(mock.Result(mock.RedisArray(mock.RedisInt64(0))))

	s := NewStoreForTest(c)
	_, err := s.SearchKNN(context.Background(), &db.KNNQuery{
		IndexName: "docdex:emb:idx",
		Vector:    []float32{1, 0},
		K:         40,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestSearchKNN_ParsesScores(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			return cmd[0] == "FT.SEARCH"
		})).
		Return(mock.Result(mock.RedisArray(
			mock.RedisInt64(2),
			mock.RedisString("docdex:emb:a"),
			mock.RedisArray(
				mock.RedisString("__vector_score"), mock.RedisString("0.1"),
			),
			mock.RedisString("docdex:emb:b"),
			mock.RedisArray(
				mock.RedisString("__vector_score"), mock.RedisString("1.7"),
			),
		)))

	s := NewStoreForTest(c)
	res, err := s.SearchKNN(context.Background(), &db.KNNQuery{
		IndexName: "docdex:emb:idx",
		Vector:    []float32{1},
		K:         2,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Entries) != 2 {
		t.Fatalf("entries = %+v", res.Entries)
	}
	if got := res.Entries[0].Score; got < 0.89 || got > 0.91 {
		t.Errorf("score = %v, want 1 - 0.1", got)
	}
	if res.Entries[1].Score != 0 {
		t.Errorf("distance beyond 1 must clamp similarity to 0, got %v", res.Entries[1].Score)
	}
}

// --- query building tests ---

func TestBuildIDFilter(t *testing.T) {
	if got := buildIDFilter(nil); got != "" {
		t.Errorf("empty ids: got %q", got)
	}
	if got, want := buildIDFilter([]string{"a", "b"}), "@id:{a|b}"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestEscapeTag(t *testing.T) {
	cases := map[string]string{
		"plain":        "plain",
		"with-dash":    `with\-dash`,
		"dot.and:sep":  `dot\.and\:sep`,
		"sp ace":       `sp\ ace`,
		"pipe|brace{}": `pipe\|brace\{\}`,
	}
	for in, want := range cases {
		if got := escapeTag(in); got != want {
			t.Errorf("escapeTag(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestVectorToBytes(t *testing.T) {
	b := vectorToBytes([]float32{1, 2, 3})
	if len(b) != 12 {
		t.Errorf("len = %d, want 12", len(b))
	}
}
