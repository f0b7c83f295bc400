package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/vitos/breakout_monitor/internal/config"
	"github.com/vitos/breakout_monitor/internal/usecase"
	"go.uber.org/zap"
)

func newScanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scan",
		Short: "Fetch tickers once and print the watchlist that would be monitored",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			tickers, err := newMarketData(cfg).ListTickers(ctx)
			if err != nil {
				return err
			}

			selector := usecase.NewWatchlistSelector(cfg.Monitor.QuoteAsset, cfg.Monitor.Tiers, usecase.NewStateStore(), zap.NewNop())
			entries := selector.Select(tickers, time.Now())

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "#\tSYMBOL\tTIER\t24H %\tQUOTE VOLUME")
			for i, e := range entries {
				fmt.Fprintf(w, "%d\t%s\t%s\t%+.2f\t%.0f\n", i+1, e.Symbol, e.Tier, e.Gain24h, e.QuoteVolume)
			}
			return w.Flush()
		},
	}
}
