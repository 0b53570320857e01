// Package identification resolves normalized film titles to TMDB identifiers.
//
// The Resolver consults the user override table first, then the persisted
// resolution cache, and finally a scored TMDB search that tries the primary
// locale before the fallback. Accepted search matches are written back to the
// cache so a title is searched at most once. Failures are reported as reasons
// on the Resolution rather than errors so one bad title never stops a batch.
package identification
