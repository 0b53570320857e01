package identification

import (
	"fmt"
	"log/slog"
	"math"
	"strings"

	"ovtracker/internal/identification/tmdb"
	"ovtracker/internal/logging"
)

const (
	// AcceptThreshold is the minimum score for a search candidate to be accepted.
	AcceptThreshold = 80.0

	exactTitleScore     = 100.0
	substringTitleScore = 30.0
	yearMatchScore      = 20.0
	maxVoteScore        = 10.0
)

// Score rates a candidate for the normalized query title. year 0 means unknown.
func Score(query string, year int, candidate tmdb.Result) float64 {
	queryLower := strings.ToLower(strings.TrimSpace(query))
	title := strings.ToLower(candidate.Title)
	original := strings.ToLower(candidate.OriginalTitle)

	score := 0.0
	switch matchType(queryLower, title, original) {
	case "exact":
		score += exactTitleScore
	case "contains":
		score += substringTitleScore
	}
	if year > 0 && candidate.ReleaseYear() == year {
		score += yearMatchScore
	}
	return score + math.Min(float64(candidate.VoteCount)/1000.0, maxVoteScore)
}

func matchType(queryLower, titleLower, originalLower string) string {
	if queryLower == titleLower || queryLower == originalLower {
		return "exact"
	}
	if queryLower != "" && (strings.Contains(titleLower, queryLower) || strings.Contains(originalLower, queryLower)) {
		return "contains"
	}
	return "none"
}

// selectBest returns the highest scoring candidate; ties keep the earlier one.
func selectBest(logger *slog.Logger, query string, year int, candidates []tmdb.Result) (tmdb.Result, float64) {
	var best tmdb.Result
	bestScore := -1.0
	queryLower := strings.ToLower(strings.TrimSpace(query))
	for idx, candidate := range candidates {
		score := Score(query, year, candidate)
		logger.Debug("candidate scored",
			logging.Int("result_index", idx),
			logging.Int64("tmdb_id", candidate.ID),
			logging.String("candidate_title", candidate.Title),
			logging.String("original_title", candidate.OriginalTitle),
			logging.String("release_date", candidate.ReleaseDate),
			logging.Int64("vote_count", candidate.VoteCount),
			logging.String("match_type", matchType(queryLower, strings.ToLower(candidate.Title), strings.ToLower(candidate.OriginalTitle))),
			logging.Float64("score", score),
		)
		if score > bestScore {
			best = candidate
			bestScore = score
		}
	}
	return best, bestScore
}

func lowScoreReason(score float64) string {
	return fmt.Sprintf("%s%.1f", ReasonLowScorePrefix, score)
}
