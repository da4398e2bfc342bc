package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/janhq/sessions-api/internal/config"
	domain "github.com/janhq/sessions-api/internal/domain/session"
	"github.com/janhq/sessions-api/internal/infrastructure/logger"
	"github.com/janhq/sessions-api/internal/infrastructure/store"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Replace the session store contents with a seed file",
	Long: `Decode a JSON array (or YAML sequence) of sessions, default missing
transcript and people fields, check website_index uniqueness and replace the
whole store. Mongo collections are cleared and re-indexed; Postgres tables are
truncated with their id sequence restarted.`,
	RunE: runSeed,
}

func init() {
	seedCmd.Flags().StringP("file", "f", "", "Seed file (.json, .yaml or .yml)")
	seedCmd.Flags().String("format", "", "Override the format detected from the extension: json or yaml")
	seedCmd.Flags().String("backend", "", "Override STORE_BACKEND: mongo or postgres")
	seedCmd.Flags().Bool("dry-run", false, "Validate the file without touching the store")
	_ = seedCmd.MarkFlagRequired("file")
}

func runSeed(cmd *cobra.Command, args []string) error {
	loadEnvFiles()

	path, _ := cmd.Flags().GetString("file")
	format, _ := cmd.Flags().GetString("format")
	backend, _ := cmd.Flags().GetString("backend")
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	verbose, _ := cmd.Flags().GetBool("verbose")

	cfg, err := loadConfig(backend)
	if err != nil {
		return err
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	log := logger.NewWithWriter(cfg, cmd.ErrOrStderr())

	sessions, err := readSeedFile(path, format)
	if err != nil {
		return err
	}
	if dryRun {
		report(cmd.OutOrStdout(), sessions, 0, true)
		return nil
	}
	if err := requirePersistentStore(cfg); err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	st, err := store.Open(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("connect %s store: %w", cfg.StoreBackend, err)
	}
	defer func() {
		if err := st.Close(context.Background()); err != nil {
			log.Error().Err(err).Msg("close store")
		}
	}()

	seeder, ok := st.WithCache(ctx, cfg, log).(domain.Seeder)
	if !ok {
		seeder = st.Backend
	}
	inserted, err := seed(ctx, seeder, sessions, log)
	if err != nil {
		return err
	}
	report(cmd.OutOrStdout(), sessions, inserted, false)
	return nil
}

// loadConfig loads the environment config, with backend overriding STORE_BACKEND.
func loadConfig(backend string) (*config.Config, error) {
	if backend != "" {
		if err := os.Setenv("STORE_BACKEND", backend); err != nil {
			return nil, err
		}
	}
	return config.Load()
}

// requirePersistentStore rejects the in-memory backend, whose contents vanish
// when the command exits.
func requirePersistentStore(cfg *config.Config) error {
	if cfg.StoreBackend == config.BackendMemory {
		return fmt.Errorf("STORE_BACKEND %q does not outlive this command; use mongo or postgres, or --dry-run", config.BackendMemory)
	}
	return nil
}

func readSeedFile(path, format string) ([]domain.Session, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open seed file: %w", err)
	}
	defer f.Close()

	seedFormat := domain.SeedFormatForPath(path)
	if format != "" {
		seedFormat = domain.SeedFormat(strings.ToLower(format))
	}
	return domain.DecodeSeed(f, seedFormat)
}

func seed(ctx context.Context, seeder domain.Seeder, sessions []domain.Session, log zerolog.Logger) (int, error) {
	inserted, err := seeder.ReplaceAll(ctx, sessions)
	if err != nil {
		return 0, fmt.Errorf("replace sessions: %w", err)
	}
	log.Info().Int("inserted", inserted).Msg("sessions seeded")
	return inserted, nil
}

func report(out io.Writer, sessions []domain.Session, inserted int, dryRun bool) {
	withVideo := 0
	for _, s := range sessions {
		if _, ok := domain.YouTubeVideoID(s.WatchLiveLink); ok {
			withVideo++
		}
	}
	if dryRun {
		fmt.Fprintf(out, "valid seed file: %d sessions, %d with a YouTube link\n", len(sessions), withVideo)
		return
	}
	fmt.Fprintf(out, "inserted %d sessions, %d with a YouTube link\n", inserted, withVideo)
}

func loadEnvFiles() {
	for _, path := range []string{".env", "../.env"} {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Overload(path); err != nil {
				fmt.Fprintf(os.Stderr, "warning: failed to load %s: %v\n", path, err)
			}
		}
	}
}
