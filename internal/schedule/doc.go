// Package schedule retrieves and parses the cinema's weekly programme.
//
// The Fetcher downloads the kinoprogramm.com cinema page with a fixed-backoff
// retry policy and follows the city listing when the configured page has
// moved. Parse turns the markup into Session values anchored in the cinema's
// time zone; FilterOV keeps the original-version screenings.
package schedule
