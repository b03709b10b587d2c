package main

import (
	"encoding/json"

	"github.com/spf13/cobra"
)

const jsonFlagUsage = "Emit machine-readable JSON instead of a table"

// writeJSON encodes v as indented JSON to the command's stdout.
func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
