package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/akila/convert-api/models"
)

var formatsCmd = &cobra.Command{
	Use:   "formats",
	Short: "List supported formats by category",
	Run: func(cmd *cobra.Command, args []string) {
		printFormats(cmd, models.DefaultRegistry())
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version of convert-api",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "convert-api %s\n", version)
	},
}

func init() {
	rootCmd.AddCommand(formatsCmd)
	rootCmd.AddCommand(versionCmd)
}

func printFormats(cmd *cobra.Command, registry models.FormatRegistry) {
	for _, cat := range models.Categories {
		fmt.Fprintf(cmd.OutOrStdout(), "%-10s %s\n", cat, strings.Join(registry.Formats(cat), ", "))
	}
}
