// Package history keeps a SQLite journal of delivered digests.
//
// Each successful send appends one row with the week, content fingerprint,
// item count and whether the send was forced. The journal is an audit trail
// only; the publish gate reads the state file.
package history
