package main

import (
	"context"
	"log"

	"github.com/spf13/cobra"

	"github.com/you/onthisday/internal/announce"
	"github.com/you/onthisday/internal/config"
	"github.com/you/onthisday/internal/metrics"
	"github.com/you/onthisday/internal/pipeline"
	"github.com/you/onthisday/internal/social"
)

func newHourlyCmd() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "hourly",
		Short: "Post one stored anniversary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if cmd.Flags().Changed("dry-run") {
				cfg.Hourly.DryRun = dryRun
			}
			cfg, err := validated(cfg, config.RunHourly)
			if err != nil {
				return err
			}
			if err := runHourly(cmd.Context(), cfg); err != nil {
				logCritical("hourly run failed", err)
				return &exitError{code: 1}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "render and log without posting (the record is still consumed)")
	return cmd
}

func runHourly(ctx context.Context, cfg config.Config) error {
	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	m := metrics.New()
	hourly := &pipeline.Hourly{
		Store:    st,
		Renderer: announce.New(announce.Hebrew(), nil),
		MaxMedia: cfg.Hourly.MaxMedia,
		DryRun:   cfg.Hourly.DryRun,
		Metrics:  m,
	}
	if !cfg.Hourly.DryRun {
		client, err := social.New(ctx, social.Credentials{
			APIKey:            cfg.Twitter.APIKey,
			APISecret:         cfg.Twitter.APISecret,
			AccessToken:       cfg.Twitter.AccessToken,
			AccessTokenSecret: cfg.Twitter.AccessTokenSecret,
			UserID:            cfg.Twitter.UserID,
		}, nil)
		if err != nil {
			return err
		}
		hourly.Publisher = client
	}

	_, runErr := hourly.Run(ctx)

	if err := m.Push(ctx, cfg.PushgatewayURL, "onthisday_hourly"); err != nil {
		log.Printf("onthisday: %v", err)
	}
	return runErr
}
