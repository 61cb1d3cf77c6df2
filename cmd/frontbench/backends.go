package main

import (
	"fmt"

	"github.com/gogpu/frontend/backend"
	"github.com/spf13/cobra"
)

var backendsCmd = &cobra.Command{
	Use:   "backends",
	Short: "List registered backends",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		w := cmd.OutOrStdout()
		names := backend.Names()
		if jsonOut {
			return printJSON(w, names)
		}
		for _, name := range names {
			fmt.Fprintln(w, name)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(backendsCmd)
}
