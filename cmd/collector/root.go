package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"tradelens/internal/config"
	"tradelens/internal/logging"
)

var (
	cfgFile  string
	settings config.Settings
)

func getRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "collector",
		Short: "Collects customs trade statistics into the local store",
		Long: `collector ingests Korea Customs Service OpenAPI trade statistics into
the local SQLite store that backs the dashboard API.

Two collection modes exist:
  - run:     the full tracked-commodity pipeline (items, countries, regions,
             sub-items, companies) over the trailing window
  - ranking: the incremental all-headings 6-digit export sweep

Configuration precedence (highest to lowest):
  1. CLI flags
  2. Environment variables (TRADELENS_*)
  3. Config file (tradelens.yaml)
  4. Built-in defaults

The customs service key is required and is usually supplied through
TRADELENS_API_KEY.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := config.Load(cfgFile)
			if err != nil {
				return fmt.Errorf("load configuration: %w", err)
			}
			settings = loaded
			if err := settings.Validate(); err != nil {
				return err
			}
			logging.Init(settings.LogLevel, settings.LogFormat)
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default: ./tradelens.yaml)")

	rootCmd.AddCommand(getRunCmd())
	rootCmd.AddCommand(getRankingCmd())
	return rootCmd
}
