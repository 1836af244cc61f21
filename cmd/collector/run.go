package main

import (
	"context"
	"errors"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"tradelens/internal/collect"
	"tradelens/internal/config"
	"tradelens/internal/kcsapi"
	"tradelens/internal/store/sqlite"
)

// newRunner wires the pipeline from the loaded settings. The caller owns
// closing the returned store.
func newRunner(progress bool) (*collect.Runner, *sqlite.Store, error) {
	if strings.TrimSpace(settings.APIKey) == "" {
		return nil, nil, errors.New("customs service key is required (TRADELENS_API_KEY)")
	}

	st, err := sqlite.New(settings.DBPath)
	if err != nil {
		return nil, nil, err
	}

	client := kcsapi.New(kcsapi.Config{
		BaseURL:     settings.BaseURL,
		ServiceKey:  settings.APIKey,
		MaxAttempts: settings.MaxAttempts,
		RetryDelay:  settings.RetryDelay,
		CallDelay:   settings.CallDelay,
	})

	runner := &collect.Runner{
		Fetcher:  client,
		Store:    st,
		Dataset:  config.DefaultDataset(),
		Months:   settings.Months,
		Progress: progress,
	}
	return runner, st, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

func getRunCmd() *cobra.Command {
	var months int

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the full tracked-commodity collection pipeline",
		Long: `run collects the trailing window for every tracked commodity: item and
per-country series, district breakdowns, sub-items, company tracks, and the
grand totals. The result replaces the matching rows of the store in one
transaction.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if months > 0 {
				settings.Months = months
			}
			runner, st, err := newRunner(false)
			if err != nil {
				return err
			}
			defer st.Close()

			ctx, stop := signalContext()
			defer stop()
			return runner.Run(ctx)
		},
	}

	cmd.Flags().IntVar(&months, "months", 0,
		"trailing window in months (overrides config)")
	return cmd
}
