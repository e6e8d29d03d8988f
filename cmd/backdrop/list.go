package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/phanxgames/backdrop"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the available effects",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, name := range backdrop.Names() {
			fmt.Fprintln(cmd.OutOrStdout(), name)
		}
		return nil
	},
}
