package main

import (
	"encoding/json"

	"github.com/spf13/cobra"
)

// writeJSON writes v to stdout as indented JSON. URLs in digests stay
// readable because HTML escaping is off.
func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}

// shortHash abbreviates a content fingerprint for tables.
func shortHash(hash string) string {
	if len(hash) > 12 {
		return hash[:12]
	}
	return hash
}
