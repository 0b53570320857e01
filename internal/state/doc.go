// Package state persists the publish tracker between runs.
//
// The document records the last published week and its content fingerprint
// plus the title resolution cache. Load never fails: a missing or unreadable
// file yields an empty, fully initialized State so a run can proceed. Save
// replaces the file atomically.
package state
