// Package services holds the pieces every ovtracker package shares: the run
// identity carried in context.Context and the error classes that decide the
// exit status. Fetch exhaustion and configuration errors are fatal and leave
// state untouched; transport failures leave the publish fields untouched so
// the next run retries.
package services
