package identification_test

import (
	"testing"

	"ovtracker/internal/identification"
	"ovtracker/internal/identification/tmdb"
)

func TestScore(t *testing.T) {
	cases := []struct {
		name      string
		query     string
		year      int
		candidate tmdb.Result
		want      float64
	}{
		{"exact localized", "Der Wilde Roboter", 0, tmdb.Result{Title: "Der wilde Roboter"}, 100},
		{"exact original", "The Wild Robot", 0, tmdb.Result{Title: "Der wilde Roboter", OriginalTitle: "The Wild Robot"}, 100},
		{"substring", "Wicked", 0, tmdb.Result{Title: "Wicked: For Good"}, 30},
		{"no match", "Anora", 0, tmdb.Result{Title: "Conclave"}, 0},
		{"year bonus", "Nosferatu", 2024, tmdb.Result{Title: "Nosferatu", ReleaseDate: "2024-12-25"}, 120},
		{"year mismatch", "Nosferatu", 2024, tmdb.Result{Title: "Nosferatu", ReleaseDate: "1922-03-04"}, 100},
		{"year ignored when unknown", "Nosferatu", 0, tmdb.Result{Title: "Nosferatu", ReleaseDate: "2024-12-25"}, 100},
		{"vote tiebreak", "Dune", 0, tmdb.Result{Title: "Dune", VoteCount: 2500}, 102.5},
		{"vote cap", "Dune", 0, tmdb.Result{Title: "Dune", VoteCount: 250000}, 110},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := identification.Score(tc.query, tc.year, tc.candidate); got != tc.want {
				t.Fatalf("Score = %v, want %v", got, tc.want)
			}
		})
	}
}
