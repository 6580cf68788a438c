package main

import (
	"context"
	"log"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/you/onthisday/internal/config"
	"github.com/you/onthisday/internal/igdb"
	"github.com/you/onthisday/internal/metrics"
	"github.com/you/onthisday/internal/pipeline"
	"github.com/you/onthisday/internal/store"
)

func newDailyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "daily",
		Short: "Refresh the store with today's anniversaries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(config.RunDaily)
			if err != nil {
				return err
			}
			if err := runDaily(cmd.Context(), cfg); err != nil {
				// A failed refresh keeps yesterday's records; the scheduler
				// should not treat it as a crash.
				logCritical("daily run failed", err)
				return &exitError{code: 0}
			}
			return nil
		},
	}
}

func runDaily(ctx context.Context, cfg config.Config) error {
	windows, err := igdb.Windows(time.Now(), cfg.IGDB.StartYear)
	if err != nil {
		return errors.Wrap(err, "build date windows")
	}

	client, err := igdb.NewClient(ctx, igdb.Options{
		ClientID:          cfg.IGDB.ClientID,
		ClientSecret:      cfg.IGDB.ClientSecret,
		Token:             cfg.IGDB.Token,
		TokenFile:         cfg.IGDB.TokenFile,
		RequestsPerSecond: cfg.IGDB.RequestsPerSecond,
	})
	if err != nil {
		return err
	}

	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	m := metrics.New()
	daily := &pipeline.Daily{
		Catalog:   client,
		Store:     st,
		Windows:   windows,
		BatchSize: cfg.Store.BatchSize,
		Metrics:   m,
	}
	_, runErr := daily.Run(ctx)

	if err := m.Push(ctx, cfg.PushgatewayURL, "onthisday_daily"); err != nil {
		log.Printf("onthisday: %v", err)
	}
	return runErr
}

func openStore(ctx context.Context, cfg config.Config) (store.Store, error) {
	st, err := store.Open(ctx, store.Options{
		Backend:      cfg.Store.Backend,
		RedisURL:     cfg.Store.RedisURL,
		SQLitePath:   cfg.Store.SQLitePath,
		SQLiteTuning: cfg.Store.SQLiteTuning,
	})
	if err != nil {
		return nil, errors.Wrap(err, "open store")
	}
	return st, nil
}
