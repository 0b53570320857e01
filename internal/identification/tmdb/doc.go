// Package tmdb provides the minimal TMDB API client used for film resolution.
//
// It authenticates requests, exposes localized movie search with an optional
// release-year filter and movie detail retrieval, and paces outbound calls
// with a token-bucket limiter. Options allow tests to supply custom HTTP
// clients without modifying production code.
package tmdb
