package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"loa/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show the loa version",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		out := cmd.OutOrStdout()
		switch strings.ToLower(format) {
		case "pretty":
			_, err := fmt.Fprintln(out, version.Line(useColor(cmd, os.Stdout)))
			return err
		case "json":
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(version.Current())
		case "yaml":
			enc := yaml.NewEncoder(out)
			enc.SetIndent(2)
			if err := enc.Encode(version.Current()); err != nil {
				return err
			}
			return enc.Close()
		}
		return fmt.Errorf("unsupported format %q (must be pretty, json or yaml)", format)
	},
}

func init() {
	versionCmd.Flags().String("format", "pretty", "output format (pretty|json|yaml)")
}
