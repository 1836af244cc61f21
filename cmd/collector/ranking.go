package main

import (
	"github.com/spf13/cobra"
)

func getRankingCmd() *cobra.Command {
	var (
		months   int
		progress bool
	)

	cmd := &cobra.Command{
		Use:   "ranking",
		Short: "Run the incremental 6-digit export sweep",
		Long: `ranking sweeps every 4-digit heading of the harmonized system and records
6-digit export series. Months already present in the store are skipped, so
routine runs only fetch the newest month. The sweep is long; --progress
shows a bar.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if months > 0 {
				settings.Months = months
			}
			runner, st, err := newRunner(progress)
			if err != nil {
				return err
			}
			defer st.Close()

			ctx, stop := signalContext()
			defer stop()
			return runner.RunRanking(ctx)
		},
	}

	cmd.Flags().IntVar(&months, "months", 0,
		"trailing window in months (overrides config)")
	cmd.Flags().BoolVar(&progress, "progress", true, "show a progress bar")
	return cmd
}
