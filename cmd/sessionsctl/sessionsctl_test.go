package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/janhq/sessions-api/internal/config"
	domain "github.com/janhq/sessions-api/internal/domain/session"
	sessionrepo "github.com/janhq/sessions-api/internal/infrastructure/repository/session"
)

const seedJSON = `[
  {"website_index": 2, "title": "Panel A", "watch_live_link": "https://youtu.be/dQw4w9WgXcQ"},
  {"website_index": 1, "title": "Keynote", "watch_live_link": "Don't have"}
]`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// execute runs rootCmd with args after restoring every flag to its default,
// since cobra keeps parsed values between runs in one process.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var reset func(*cobra.Command)
	reset = func(c *cobra.Command) {
		c.Flags().VisitAll(func(f *pflag.Flag) {
			_ = f.Value.Set(f.DefValue)
			f.Changed = false
		})
		for _, sub := range c.Commands() {
			reset(sub)
		}
	}
	reset(rootCmd)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs(args)
	t.Cleanup(func() { rootCmd.SetArgs(nil) })

	err := rootCmd.Execute()
	return out.String(), err
}

func TestReadSeedFileDetectsFormat(t *testing.T) {
	sessions, err := readSeedFile(writeFile(t, "sessions.json", seedJSON), "")
	require.NoError(t, err)
	assert.Len(t, sessions, 2)

	yamlPath := writeFile(t, "sessions.txt", "- website_index: 4\n  title: Closing\n")
	_, err = readSeedFile(yamlPath, "")
	require.Error(t, err)

	sessions, err = readSeedFile(yamlPath, "YAML")
	require.NoError(t, err)
	assert.Equal(t, "Closing", sessions[0].Title)
}

func TestSeedReplacesStore(t *testing.T) {
	repo := sessionrepo.NewInMemoryRepository(domain.Session{WebsiteIndex: 9, Title: "Stale"})
	sessions, err := readSeedFile(writeFile(t, "sessions.json", seedJSON), "")
	require.NoError(t, err)

	inserted, err := seed(context.Background(), repo, sessions, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, 2, inserted)

	page, total, err := repo.List(context.Background(), domain.NewListParams(1, 20, ""))
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Equal(t, "Keynote", page[0].Title)
}

func TestReport(t *testing.T) {
	sessions, err := readSeedFile(writeFile(t, "sessions.json", seedJSON), "")
	require.NoError(t, err)

	var out bytes.Buffer
	report(&out, sessions, 2, false)
	assert.Equal(t, "inserted 2 sessions, 1 with a YouTube link\n", out.String())

	out.Reset()
	report(&out, sessions, 0, true)
	assert.Equal(t, "valid seed file: 2 sessions, 1 with a YouTube link\n", out.String())
}

func TestSeedCommandDryRun(t *testing.T) {
	t.Setenv("STORE_BACKEND", "memory")
	path := writeFile(t, "sessions.json", seedJSON)

	out, err := execute(t, "seed", "--file", path, "--dry-run")
	require.NoError(t, err)
	assert.Contains(t, out, "valid seed file: 2 sessions")
}

func TestSeedCommandRejectsMemoryBackend(t *testing.T) {
	t.Setenv("STORE_BACKEND", "mongo")
	path := writeFile(t, "sessions.json", seedJSON)

	out, err := execute(t, "seed", "--file", path, "--backend", "memory")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not outlive this command")
	assert.NotContains(t, out, "inserted")
}

func TestSummarizeRedactsSecrets(t *testing.T) {
	eff := summarize(&config.Config{
		StoreBackend: config.BackendPostgres,
		DatabaseURL:  "postgres://app:hunter2@db:5432/sessions",
		RedisURL:     "redis://:s3cret@cache:6379/0",
	})
	assert.NotContains(t, eff.Postgres, "hunter2")
	assert.NotContains(t, eff.Redis, "s3cret")
	assert.Equal(t, "<redacted>", redact("host=db password=x"))
}
