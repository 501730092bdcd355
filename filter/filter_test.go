package filter

import (
	"context"
	"testing"

	"github.com/rushteam/flickrec/core"
)

func TestBuildMetadataFilter(t *testing.T) {
	tests := []struct {
		name     string
		genres   []string
		language string
		minYear  int
		wantNil  bool
	}{
		{name: "all empty returns nil", wantNil: true},
		{name: "blank genres only returns nil", genres: []string{"", ""}, wantNil: true},
		{name: "genres only", genres: []string{"Action"}},
		{name: "language only", language: "en"},
		{name: "min year only", minYear: 1990},
		{name: "combined", genres: []string{"Action", "Drama"}, language: "en", minYear: 2000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BuildMetadataFilter(tt.genres, tt.language, tt.minYear)
			if tt.wantNil {
				if got != nil {
					t.Fatalf("want nil, got %+v", got)
				}
				return
			}
			if got == nil {
				t.Fatal("want non-nil filter")
			}
			for _, g := range got.Genres {
				if g == "" {
					t.Error("blank genre not cleaned")
				}
			}
		})
	}
}

func TestExcludeFilter(t *testing.T) {
	f := NewExcludeFilter()
	rctx := &core.RecommendContext{
		ExcludeIDs: core.NewIDSet("m1", "m2"),
	}

	tests := []struct {
		id   string
		want bool
	}{
		{"m1", true},
		{"m2", true},
		{"m3", false},
	}
	for _, tt := range tests {
		got, err := f.ShouldFilter(context.Background(), rctx, core.NewCandidate(tt.id, 0.1))
		if err != nil {
			t.Fatalf("ShouldFilter(%s): %v", tt.id, err)
		}
		if got != tt.want {
			t.Errorf("ShouldFilter(%s) = %v, want %v", tt.id, got, tt.want)
		}
	}

	// 排除集合为空时全部放行
	got, _ := f.ShouldFilter(context.Background(), &core.RecommendContext{}, core.NewCandidate("m1", 0.1))
	if got {
		t.Error("empty exclude set must not filter")
	}
}

func TestNode_Process(t *testing.T) {
	rctx := &core.RecommendContext{ExcludeIDs: core.NewIDSet("m2")}
	node := &Node{Filters: []Filter{NewExcludeFilter()}}

	candidates := []*core.Candidate{
		core.NewCandidate("m1", 0.1),
		core.NewCandidate("m2", 0.2),
		core.NewCandidate("m3", 0.3),
	}

	got, err := node.Process(context.Background(), rctx, candidates)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(got) != 2 || got[0].ID != "m1" || got[1].ID != "m3" {
		ids := make([]string, len(got))
		for i, c := range got {
			ids[i] = c.ID
		}
		t.Errorf("surviving ids = %v, want [m1 m3]", ids)
	}
}

func TestExprFilter(t *testing.T) {
	tests := []struct {
		name       string
		expr       string
		candidate  *core.Candidate
		wantFilter bool
	}{
		{
			name:       "year rule keeps new movie",
			expr:       "candidate.year == 0 || candidate.year >= 1980",
			candidate:  &core.Candidate{ID: "m1", Year: 2015},
			wantFilter: false,
		},
		{
			name:       "year rule drops old movie",
			expr:       "candidate.year == 0 || candidate.year >= 1980",
			candidate:  &core.Candidate{ID: "m1", Year: 1960},
			wantFilter: true,
		},
		{
			name:       "genre block rule",
			expr:       `!("Horror" in candidate.genres)`,
			candidate:  &core.Candidate{ID: "m1", Genres: []string{"Horror", "Thriller"}},
			wantFilter: true,
		},
		{
			name:       "language and distance",
			expr:       `candidate.language == "en" && candidate.distance < 0.9`,
			candidate:  &core.Candidate{ID: "m1", Language: "en", Distance: 0.5},
			wantFilter: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := NewExprFilter(tt.expr)
			if err != nil {
				t.Fatalf("NewExprFilter: %v", err)
			}
			got, err := f.ShouldFilter(context.Background(), nil, tt.candidate)
			if err != nil {
				t.Fatalf("ShouldFilter: %v", err)
			}
			if got != tt.wantFilter {
				t.Errorf("ShouldFilter = %v, want %v", got, tt.wantFilter)
			}
		})
	}
}

func TestExprFilter_CompileError(t *testing.T) {
	if _, err := NewExprFilter("candidate.year >=>"); err == nil {
		t.Fatal("invalid expression must fail at construction")
	}
}
