package profile

import (
	"testing"

	"github.com/rushteam/flickrec/core"
)

func TestBuildProfileText(t *testing.T) {
	tests := []struct {
		name   string
		genres []string
		want   string
	}{
		{name: "nil record genres", genres: nil, want: ""},
		{name: "empty genres", genres: []string{}, want: ""},
		{name: "single genre", genres: []string{"Action"}, want: "Genres: Action"},
		{name: "multiple genres", genres: []string{"Action", "Science Fiction"}, want: "Genres: Action, Science Fiction"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := core.NewAffinityRecord("u1")
			r.GenrePrefs = tt.genres
			if got := BuildProfileText(r); got != tt.want {
				t.Errorf("BuildProfileText = %q, want %q", got, tt.want)
			}
		})
	}

	if got := BuildProfileText(nil); got != "" {
		t.Errorf("BuildProfileText(nil) = %q", got)
	}
}

func TestBuildPersonaText(t *testing.T) {
	got := BuildPersonaText("The Dreamer", "Sci-fi worlds, fantasy epics, and magical realism.")
	want := "The Dreamer. Sci-fi worlds, fantasy epics, and magical realism."
	if got != want {
		t.Errorf("BuildPersonaText = %q, want %q", got, want)
	}
}

func TestNeedsReembed(t *testing.T) {
	tests := []struct {
		change Change
		want   bool
	}{
		{ChangeCreated, true},
		{ChangeGenres, true},
		{ChangeRating, false},
		{ChangeWatchlist, false},
		{ChangeShown, false},
		{ChangeKeywords, false},
	}
	for _, tt := range tests {
		if got := NeedsReembed(tt.change); got != tt.want {
			t.Errorf("NeedsReembed(%d) = %v, want %v", tt.change, got, tt.want)
		}
	}
}
