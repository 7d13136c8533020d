package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"loa/internal/driver"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the build cache",
}

var cacheCleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove every cached program",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := driver.OpenStore("loa")
		if err != nil {
			return err
		}
		n, err := store.Clean()
		if err != nil {
			return fmt.Errorf("failed to clean cache: %w", err)
		}
		if !quiet(cmd) {
			fmt.Fprintf(cmd.OutOrStdout(), "removed %d cached programs\n", n)
		}
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cacheCleanCmd)
}
