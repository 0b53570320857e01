// Package pipeline runs one tracker pass: fetch the schedule, gate on the
// week's completeness, build and render the OV digest, and publish it at most
// once per cinema week.
//
// Gate skips (incomplete week, empty digest, already sent) are reported as
// Outcome values with a nil error. Fatal errors leave the publish fields of the
// state untouched.
package pipeline
