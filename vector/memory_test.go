package vector

import (
	"context"
	"reflect"
	"testing"

	"github.com/rushteam/flickrec/core"
)

func seedMovies(t *testing.T, s *MemoryService) {
	t.Helper()
	ctx := context.Background()

	movies := []struct {
		id       string
		vector   []float64
		metadata map[string]any
	}{
		{"m1", []float64{1, 0}, map[string]any{"is_Action": true, "language": "en", "year": 2015}},
		{"m2", []float64{0.9, 0.1}, map[string]any{"is_Action": true, "language": "fr", "year": 1975}},
		{"m3", []float64{0, 1}, map[string]any{"is_Drama": true, "language": "en", "year": 2020}},
	}
	for _, m := range movies {
		if err := s.Upsert(ctx, &core.VectorUpsertRequest{
			Collection: "movies",
			ID:         m.id,
			Vector:     m.vector,
			Metadata:   m.metadata,
		}); err != nil {
			t.Fatalf("upsert %s: %v", m.id, err)
		}
	}
}

func TestMemoryService_QueryOrdering(t *testing.T) {
	s := NewMemoryService()
	seedMovies(t, s)

	result, err := s.Query(context.Background(), &core.VectorQueryRequest{
		Collection: "movies",
		Vector:     []float64{1, 0},
		TopK:       3,
	})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(result.Hits) != 3 {
		t.Fatalf("hits = %d, want 3", len(result.Hits))
	}

	// 距离升序
	if result.Hits[0].ID != "m1" {
		t.Errorf("closest = %s, want m1", result.Hits[0].ID)
	}
	for i := 1; i < len(result.Hits); i++ {
		if result.Hits[i].Distance < result.Hits[i-1].Distance {
			t.Fatal("hits not in ascending distance order")
		}
	}
}

func TestMemoryService_QueryFilters(t *testing.T) {
	s := NewMemoryService()
	seedMovies(t, s)

	tests := []struct {
		name   string
		filter *core.MetadataFilter
		want   []string
	}{
		{name: "no filter", filter: nil, want: []string{"m1", "m2", "m3"}},
		{name: "single genre", filter: &core.MetadataFilter{Genres: []string{"Drama"}}, want: []string{"m3"}},
		{name: "genre or", filter: &core.MetadataFilter{Genres: []string{"Action", "Drama"}}, want: []string{"m1", "m2", "m3"}},
		{name: "language", filter: &core.MetadataFilter{Language: "en"}, want: []string{"m1", "m3"}},
		{name: "min year inclusive", filter: &core.MetadataFilter{MinYear: 2015}, want: []string{"m1", "m3"}},
		{name: "combined and", filter: &core.MetadataFilter{Genres: []string{"Action"}, Language: "en", MinYear: 2000}, want: []string{"m1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := s.Query(context.Background(), &core.VectorQueryRequest{
				Collection: "movies",
				Vector:     []float64{1, 0},
				TopK:       10,
				Filter:     tt.filter,
			})
			if err != nil {
				t.Fatalf("query: %v", err)
			}
			got := make(map[string]bool)
			for _, h := range result.Hits {
				got[h.ID] = true
			}
			if len(got) != len(tt.want) {
				t.Fatalf("hit ids = %v, want %v", got, tt.want)
			}
			for _, id := range tt.want {
				if !got[id] {
					t.Errorf("missing %s", id)
				}
			}
		})
	}
}

func TestMemoryService_GetUpsert(t *testing.T) {
	s := NewMemoryService()
	ctx := context.Background()

	if _, err := s.Get(ctx, "users", "u1"); !core.IsStoreNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}

	s.Upsert(ctx, &core.VectorUpsertRequest{
		Collection: "users", ID: "u1", Vector: []float64{0.1, 0.2}, Document: "Genres: Action",
	})

	record, err := s.Get(ctx, "users", "u1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if record.Document != "Genres: Action" || len(record.Vector) != 2 {
		t.Errorf("record = %+v", record)
	}

	// 覆盖写
	s.Upsert(ctx, &core.VectorUpsertRequest{
		Collection: "users", ID: "u1", Vector: []float64{0.3, 0.4},
	})
	record, _ = s.Get(ctx, "users", "u1")
	if record.Vector[0] != 0.3 {
		t.Error("upsert must overwrite")
	}
}

func TestBuildWhere(t *testing.T) {
	tests := []struct {
		name   string
		filter *core.MetadataFilter
		want   map[string]any
	}{
		{name: "nil filter", filter: nil, want: nil},
		{name: "empty filter", filter: &core.MetadataFilter{}, want: nil},
		{
			name:   "single genre",
			filter: &core.MetadataFilter{Genres: []string{"Action"}},
			want:   map[string]any{"is_Action": true},
		},
		{
			name:   "multiple genres",
			filter: &core.MetadataFilter{Genres: []string{"Action", "Drama"}},
			want: map[string]any{"$or": []map[string]any{
				{"is_Action": true},
				{"is_Drama": true},
			}},
		},
		{
			name:   "language only",
			filter: &core.MetadataFilter{Language: "en"},
			want:   map[string]any{"language": "en"},
		},
		{
			name:   "min year only",
			filter: &core.MetadataFilter{MinYear: 1990},
			want:   map[string]any{"year": map[string]any{"$gte": 1990}},
		},
		{
			name:   "combined uses and",
			filter: &core.MetadataFilter{Genres: []string{"Action"}, Language: "en"},
			want: map[string]any{"$and": []map[string]any{
				{"is_Action": true},
				{"language": "en"},
			}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BuildWhere(tt.filter)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("BuildWhere = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestCosineDistance(t *testing.T) {
	tests := []struct {
		name string
		a, b []float64
		want float64
	}{
		{"identical", []float64{1, 0}, []float64{1, 0}, 0},
		{"orthogonal", []float64{1, 0}, []float64{0, 1}, 1},
		{"opposite", []float64{1, 0}, []float64{-1, 0}, 2},
		{"zero vector", []float64{0, 0}, []float64{1, 0}, 1},
		{"dimension mismatch", []float64{1}, []float64{1, 0}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := cosineDistance(tt.a, tt.b)
			if diff := got - tt.want; diff > 1e-9 || diff < -1e-9 {
				t.Errorf("cosineDistance = %v, want %v", got, tt.want)
			}
		})
	}
}
