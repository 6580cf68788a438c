package main

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/you/onthisday/internal/pipeline"
	"github.com/you/onthisday/internal/version"
)

func TestExitCode(t *testing.T) {
	assert.Equal(t, 0, exitCode(nil))
	assert.Equal(t, 0, exitCode(&exitError{code: 0}))
	assert.Equal(t, 1, exitCode(&exitError{code: 1}))
	assert.Equal(t, 1, exitCode(errors.New("boom")))
	assert.Equal(t, 3, exitCode(errors.Wrap(&exitError{code: 3, err: errors.New("inner")}, "outer")))
}

func TestParseLevel(t *testing.T) {
	lvl, err := parseLevel("DEBUG")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, lvl)

	lvl, err = parseLevel("")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelInfo, lvl)

	_, err = parseLevel("loud")
	assert.Error(t, err)
}

func TestCriticalLevelName(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(newHandler(&buf, slog.LevelInfo))
	logger.Log(t.Context(), pipeline.LevelCritical, "daily run failed", "severity", "critical")

	out := buf.String()
	assert.Contains(t, out, "level=CRITICAL")
	assert.Contains(t, out, "severity=critical")
}

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	assert.NoError(t, loadEnvFile(filepath.Join(dir, "missing.env")))
	assert.NoError(t, loadEnvFile(""))

	path := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(path, []byte("ONTHISDAY_TEST_VALUE=from-file\n"), 0o600))
	t.Setenv("ONTHISDAY_TEST_VALUE", "")
	require.NoError(t, os.Unsetenv("ONTHISDAY_TEST_VALUE"))

	require.NoError(t, loadEnvFile(path))
	assert.Equal(t, "from-file", os.Getenv("ONTHISDAY_TEST_VALUE"))
}

func TestSetupLoggingTruncatesFile(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() {
		closeLogFile()
		slog.SetDefault(prev)
	})

	path := filepath.Join(t.TempDir(), "run_hourly.log")
	require.NoError(t, os.WriteFile(path, []byte("yesterday\n"), 0o644))

	require.NoError(t, setupLogging("info", path))
	slog.Info("hourly run started")
	closeLogFile()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "yesterday")
	assert.Contains(t, string(data), "hourly run started")
}

func TestVersionCommand(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--env-file", "", "version"})
	require.NoError(t, cmd.Execute())
	assert.Equal(t, version.String(), strings.TrimSpace(out.String()))
}

func TestStatusCommandCountsSQLiteRecords(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	t.Setenv("ONTHISDAY_STORE", "sqlite")
	t.Setenv("ONTHISDAY_SQLITE_PATH", filepath.Join(t.TempDir(), "status.db"))

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--env-file", "", "status"})
	require.NoError(t, cmd.Execute())
	assert.Equal(t, "store=sqlite pending=0", strings.TrimSpace(out.String()))
}

func TestDailyInvalidConfigExitsNonZero(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	for _, name := range []string{"ONTHISDAY_IGDB_CLIENT_ID", "IGDB_CLIENT_ID", "ONTHISDAY_IGDB_CLIENT_SECRET", "IGDB_CLIENT_SECRET", "ONTHISDAY_IGDB_TOKEN"} {
		t.Setenv(name, "")
	}
	t.Setenv("ONTHISDAY_STORE", "sqlite")
	t.Setenv("ONTHISDAY_SQLITE_PATH", filepath.Join(t.TempDir(), "daily.db"))

	cmd := newRootCmd()
	cmd.SetArgs([]string{"--env-file", "", "daily"})
	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, 1, exitCode(err))
}
