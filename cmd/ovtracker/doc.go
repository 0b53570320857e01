// Package main hosts the ovtracker CLI entrypoint and command graph.
//
// The Cobra-based command tree runs the weekly OV digest pipeline, inspects and
// edits the film resolution cache, lists the publish history, reports the
// current week's publish status, and scaffolds configuration. It centralizes
// .env loading, configuration resolution and structured logging setup so
// subcommands can focus on output.
//
// Keep this package lean: new behaviour belongs in the internal packages and
// is surfaced here through dedicated commands or flags.
package main
