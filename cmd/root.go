// Package cmd is the convert-api command line: the HTTP server and one-shot conversions.
package cmd

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/akila/convert-api/config"
	"github.com/akila/convert-api/logging"
)

// version is set at build time via ldflags.
var version = "dev"

var (
	cfg    *config.Config
	logger zerolog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "convert-api",
	Short: "File conversion service for images, PDF, Word and Excel documents",
	Long: `convert-api converts uploaded files between image formats and between
PDF, Word and Excel documents. Run "serve" for the HTTP API or "convert"
to convert a single local file.

Settings come from the environment and an optional .env file.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		envFile, _ := cmd.Flags().GetString("env-file")
		var files []string
		if envFile != "" {
			files = append(files, envFile)
		}
		c, err := config.Load(files...)
		if err != nil {
			return err
		}
		if level, _ := cmd.Flags().GetString("log-level"); level != "" {
			c.LogLevel = level
		}
		cfg = c
		logger = logging.New(cfg.LogLevel, cfg.LogFormat, os.Stderr)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("env-file", "", "dotenv file to load (default: .env)")
	rootCmd.PersistentFlags().String("log-level", "", "override LOG_LEVEL")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
