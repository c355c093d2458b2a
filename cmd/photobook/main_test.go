package main

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseLogLevel(t *testing.T) {
	require.Equal(t, slog.LevelDebug, parseLogLevel("debug"))
	require.Equal(t, slog.LevelWarn, parseLogLevel("WARN"))
	require.Equal(t, slog.LevelError, parseLogLevel("error"))
	require.Equal(t, slog.LevelInfo, parseLogLevel(""))
	require.Equal(t, slog.LevelInfo, parseLogLevel("verbose"))
}

func TestLogFileWriter_Truncates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "photobook.log")
	w, err := openLogFileWriter(path, 100, 40)
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })

	_, err = w.Write([]byte("short line\n"))
	require.NoError(t, err)

	payload := strings.Repeat("0123456789", 15)
	_, err = w.Write([]byte(payload))
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Len(t, data, 40)
	require.Equal(t, payload[len(payload)-40:], string(data))
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestCLI(t *testing.T) {
	t.Setenv("PHOTOBOOK_CONFIG_PATH", "")
	t.Setenv("PHOTOBOOK_DB_PATH", filepath.Join(t.TempDir(), "data", "photobook.db"))

	t.Run("migrate", func(t *testing.T) {
		out, err := runCLI(t, "migrate")
		require.NoError(t, err)
		require.Contains(t, out, "schema version 1")
	})

	t.Run("spine", func(t *testing.T) {
		out, err := runCLI(t, "spine", "--paper", "silk-200", "--cover", "hardcover", "--pages", "100")
		require.NoError(t, err)
		require.Equal(t, "14.0 mm\n", out)
	})

	t.Run("spine unknown paper", func(t *testing.T) {
		_, err := runCLI(t, "spine", "--paper", "vellum", "--cover", "hardcover", "--pages", "100")
		require.Error(t, err)
	})

	t.Run("catalog json", func(t *testing.T) {
		out, err := runCLI(t, "catalog", "--format", "json")
		require.NoError(t, err)
		require.Contains(t, out, `"square-20"`)
		require.Contains(t, out, `"layflat"`)
	})

	t.Run("apikey create", func(t *testing.T) {
		out, err := runCLI(t, "apikey", "create", "--tenant", "studio", "--user", "alice", "--description", "laptop")
		require.NoError(t, err)
		require.True(t, strings.HasPrefix(out, "pbk_"))

		out, err = runCLI(t, "apikey", "list", "--tenant", "studio")
		require.NoError(t, err)
		require.Contains(t, out, "laptop")
	})

	t.Run("history of unknown project", func(t *testing.T) {
		_, err := runCLI(t, "history", "missing")
		require.Error(t, err)
	})
}
