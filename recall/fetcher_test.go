package recall

import (
	"context"
	"testing"

	"github.com/rushteam/flickrec/core"
)

func TestFetchK(t *testing.T) {
	tests := []struct {
		name         string
		excludeCount int
		topK         int
		want         int
	}{
		{name: "small request clamps to lower bound", excludeCount: 0, topK: 10, want: 250},
		{name: "exactly at lower bound", excludeCount: 40, topK: 10, want: 250},
		{name: "above lower bound", excludeCount: 100, topK: 20, want: 320},
		{name: "large exclusion", excludeCount: 2000, topK: 50, want: 2250},
		{name: "clamps to upper bound", excludeCount: 5000, topK: 50, want: 3000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FetchK(tt.excludeCount, tt.topK); got != tt.want {
				t.Errorf("FetchK(%d, %d) = %d, want %d", tt.excludeCount, tt.topK, got, tt.want)
			}
		})
	}
}

func TestFetchK_Monotonic(t *testing.T) {
	// 对 excludeCount 单调不减
	prev := 0
	for exclude := 0; exclude <= 4000; exclude += 100 {
		got := FetchK(exclude, 10)
		if got < prev {
			t.Fatalf("FetchK not monotonic at excludeCount=%d: %d < %d", exclude, got, prev)
		}
		prev = got
	}
}

// stubIndex 返回预置命中的索引桩。
type stubIndex struct {
	result  *core.VectorQueryResult
	err     error
	lastReq *core.VectorQueryRequest
}

func (s *stubIndex) Query(_ context.Context, req *core.VectorQueryRequest) (*core.VectorQueryResult, error) {
	s.lastReq = req
	return s.result, s.err
}

func (s *stubIndex) Upsert(context.Context, *core.VectorUpsertRequest) error { return nil }
func (s *stubIndex) Get(context.Context, string, string) (*core.VectorRecord, error) {
	return nil, core.ErrStoreNotFound
}
func (s *stubIndex) Close() error { return nil }

func TestFetcher_Process(t *testing.T) {
	index := &stubIndex{result: &core.VectorQueryResult{
		Hits: []core.VectorHit{
			{ID: "m1", Distance: 0.1, Metadata: map[string]any{
				"language": "en",
				"year":     2015,
				"payload":  `{"title":"The Martian","genres":[{"id":878,"name":"Science Fiction"}],"keywords":["space","rescue"]}`,
			}},
			{ID: "m2", Distance: 0.2, Metadata: map[string]any{}},
		},
	}}

	f := &Fetcher{
		Index:        index,
		Collection:   "movies",
		Vector:       []float64{0.1, 0.2},
		TopK:         10,
		ExcludeCount: 500,
	}

	got, err := f.Process(context.Background(), nil, nil)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d candidates, want 2", len(got))
	}

	// 取数池按排除集合放大
	if index.lastReq.TopK != FetchK(500, 10) {
		t.Errorf("query TopK = %d, want %d", index.lastReq.TopK, FetchK(500, 10))
	}

	// 索引原生序保持不变
	if got[0].ID != "m1" || got[1].ID != "m2" {
		t.Errorf("order = [%s, %s], want [m1, m2]", got[0].ID, got[1].ID)
	}

	c := got[0]
	if c.Language != "en" || c.Year != 2015 {
		t.Errorf("metadata: language=%q year=%d", c.Language, c.Year)
	}
	if len(c.Genres) != 1 || c.Genres[0] != "Science Fiction" {
		t.Errorf("genres = %v", c.Genres)
	}
	if len(c.Keywords) != 2 {
		t.Errorf("keywords = %v", c.Keywords)
	}
	if title, _ := c.Payload["title"].(string); title != "The Martian" {
		t.Errorf("payload title = %q", title)
	}
}

func TestFetcher_IndexUnavailablePassesThrough(t *testing.T) {
	index := &stubIndex{err: core.ErrIndexUnavailable}
	f := &Fetcher{Index: index, Collection: "movies", Vector: []float64{0.1}, TopK: 5}

	_, err := f.Process(context.Background(), nil, nil)
	if !core.IsIndexUnavailable(err) {
		t.Fatalf("expected INDEX_UNAVAILABLE, got %v", err)
	}
}

func TestCandidateFromHit_YearTypes(t *testing.T) {
	tests := []struct {
		name string
		year any
		want int
	}{
		{"int", int(1999), 1999},
		{"int64", int64(1999), 1999},
		{"float64 from json", float64(1999), 1999},
		{"missing", nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			metadata := map[string]any{}
			if tt.year != nil {
				metadata["year"] = tt.year
			}
			c := CandidateFromHit(&core.VectorHit{ID: "m1", Metadata: metadata})
			if c.Year != tt.want {
				t.Errorf("Year = %d, want %d", c.Year, tt.want)
			}
		})
	}
}
