package main

import (
	"context"
	"io"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/you/onthisday/internal/config"
	"github.com/you/onthisday/internal/pipeline"
)

type rootOptions struct {
	envFile  string
	logLevel string
	logFile  string
}

var openLogFile *os.File

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "onthisday",
		Short: "Post game release anniversaries",
		Long: `onthisday refreshes a store of games released on today's date in past
years (daily) and posts one of them with its artwork (hourly).

Example usage:
  onthisday daily --log-file run_daily.log
  onthisday hourly --log-file run_hourly.log
  onthisday status`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := loadEnvFile(opts.envFile); err != nil {
				return err
			}
			return setupLogging(opts.logLevel, opts.logFile)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "dotenv file loaded before reading the environment (missing file is ignored)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "info", "log level: debug, info, warn, error")
	cmd.PersistentFlags().StringVar(&opts.logFile, "log-file", "", "also write logs to this file, truncated on start")

	cmd.AddCommand(newDailyCmd(), newHourlyCmd(), newStatusCmd(), newVersionCmd())
	return cmd
}

func loadEnvFile(path string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "load env file %s", path)
	}
	return nil
}

func parseLevel(raw string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, errors.Errorf("unknown log level %q", raw)
	}
}

func newHandler(w io.Writer, level slog.Level) slog.Handler {
	return slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.LevelKey && len(groups) == 0 {
				if lvl, ok := a.Value.Any().(slog.Level); ok && lvl >= pipeline.LevelCritical {
					a.Value = slog.StringValue("CRITICAL")
				}
			}
			return a
		},
	})
}

// setupLogging routes slog and the log package to stdout and, when path is
// set, to a freshly truncated file as well.
func setupLogging(levelName, path string) error {
	level, err := parseLevel(levelName)
	if err != nil {
		return err
	}

	var w io.Writer = os.Stdout
	if path = strings.TrimSpace(path); path != "" {
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
		if err != nil {
			return errors.Wrapf(err, "open log file %s", path)
		}
		openLogFile = f
		w = io.MultiWriter(os.Stdout, f)
	}

	slog.SetDefault(slog.New(newHandler(w, level)))
	return nil
}

func closeLogFile() {
	if openLogFile != nil {
		_ = openLogFile.Sync()
		_ = openLogFile.Close()
		openLogFile = nil
	}
}

func logCritical(msg string, err error) {
	slog.Default().Log(context.Background(), pipeline.LevelCritical, msg, "severity", "critical", "err", err)
}

func loadConfig(run config.Run) (config.Config, error) {
	return validated(config.Load(), run)
}

func validated(cfg config.Config, run config.Run) (config.Config, error) {
	log.Printf("onthisday: %s", cfg.SummaryJSON())
	if len(cfg.LegacyEnv) > 0 {
		log.Printf("onthisday: using legacy variables %s; prefer the ONTHISDAY_ names", strings.Join(cfg.LegacyEnv, ", "))
	}
	if err := cfg.Validate(run); err != nil {
		logCritical("configuration invalid", err)
		return cfg, &exitError{code: 1}
	}
	return cfg, nil
}
