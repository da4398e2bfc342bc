package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	domain "github.com/janhq/sessions-api/internal/domain/session"
	"github.com/janhq/sessions-api/internal/infrastructure/logger"
	"github.com/janhq/sessions-api/internal/infrastructure/store"
	"github.com/janhq/sessions-api/internal/infrastructure/youtube"
)

var fetchTranscriptsCmd = &cobra.Command{
	Use:   "fetch-transcripts",
	Short: "Fill session transcripts from YouTube captions",
	Long: `Select every session whose watch_live_link is a YouTube video and whose
transcript is empty (or every such session with --overwrite), download the
video's captions and store them as the transcript. Failures are reported per
session and do not stop the run.`,
	RunE: runFetchTranscripts,
}

func init() {
	fetchTranscriptsCmd.Flags().Bool("overwrite", false, "Replace transcripts that are already set (also FETCH_OVERWRITE=1)")
	fetchTranscriptsCmd.Flags().String("backend", "", "Override STORE_BACKEND: mongo or postgres")
	fetchTranscriptsCmd.Flags().String("lang", "en", "Preferred caption language; the first track is used when absent")
	fetchTranscriptsCmd.Flags().Duration("delay", 500*time.Millisecond, "Pause between videos")
	fetchTranscriptsCmd.Flags().Bool("dry-run", false, "List the sessions that would be fetched")
}

// transcriptFetcher downloads the caption text of a YouTube video.
type transcriptFetcher interface {
	FetchTranscript(ctx context.Context, videoID string) (string, error)
}

type fetchOptions struct {
	overwrite bool
	dryRun    bool
	delay     time.Duration
}

type fetchResult struct {
	Selected int
	Updated  int
	Failed   int
}

func runFetchTranscripts(cmd *cobra.Command, args []string) error {
	loadEnvFiles()

	overwrite, _ := cmd.Flags().GetBool("overwrite")
	backend, _ := cmd.Flags().GetString("backend")
	lang, _ := cmd.Flags().GetString("lang")
	delay, _ := cmd.Flags().GetDuration("delay")
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	verbose, _ := cmd.Flags().GetBool("verbose")
	if os.Getenv("FETCH_OVERWRITE") == "1" {
		overwrite = true
	}

	cfg, err := loadConfig(backend)
	if err != nil {
		return err
	}
	if err := requirePersistentStore(cfg); err != nil {
		return err
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	log := logger.NewWithWriter(cfg, cmd.ErrOrStderr())

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

	repo := st.WithCache(ctx, cfg, log)
	opts := fetchOptions{overwrite: overwrite, dryRun: dryRun, delay: delay}
	res, err := fetchTranscripts(ctx, repo, youtube.NewClient("", lang), opts, cmd.OutOrStdout(), log)
	if err != nil {
		return err
	}
	if res.Failed > 0 {
		return fmt.Errorf("%d of %d transcripts failed", res.Failed, res.Selected)
	}
	return nil
}

func fetchTranscripts(ctx context.Context, repo domain.Repository, fetcher transcriptFetcher, opts fetchOptions, out io.Writer, log zerolog.Logger) (fetchResult, error) {
	targets, err := transcriptTargets(ctx, repo, opts.overwrite)
	if err != nil {
		return fetchResult{}, err
	}

	res := fetchResult{Selected: len(targets)}
	mode := ""
	if opts.overwrite {
		mode = " (overwrite mode)"
	}
	fmt.Fprintf(out, "found %d sessions with YouTube links to process%s\n", len(targets), mode)
	if opts.dryRun {
		for _, t := range targets {
			fmt.Fprintf(out, "  %s %s\n", label(t.session), t.videoID)
		}
		return res, nil
	}

	for i, t := range targets {
		if i > 0 && opts.delay > 0 {
			select {
			case <-ctx.Done():
				return res, ctx.Err()
			case <-time.After(opts.delay):
			}
		}

		text, err := fetcher.FetchTranscript(ctx, t.videoID)
		if err == nil {
			id := domain.Identifier{Kind: domain.KindNativeID, Raw: t.session.ID.String(), NativeID: t.session.ID}
			_, err = repo.UpdateTranscript(ctx, id, text)
		}
		if err != nil {
			if ctx.Err() != nil {
				return res, ctx.Err()
			}
			res.Failed++
			log.Debug().Err(err).Str("video_id", t.videoID).Int64("website_index", t.session.WebsiteIndex).Msg("transcript fetch failed")
			fmt.Fprintf(out, "FAIL %s: %v\n", label(t.session), err)
			continue
		}
		res.Updated++
		fmt.Fprintf(out, "ok   %s\n", label(t.session))
	}

	fmt.Fprintf(out, "done: %d updated, %d failed\n", res.Updated, res.Failed)
	return res, nil
}

type transcriptTarget struct {
	session domain.Session
	videoID string
}

// transcriptTargets walks every page in website_index order.
func transcriptTargets(ctx context.Context, repo domain.Repository, overwrite bool) ([]transcriptTarget, error) {
	var targets []transcriptTarget
	for page := 1; ; page++ {
		params := domain.NewListParams(page, domain.MaxLimit, "")
		sessions, total, err := repo.List(ctx, params)
		if err != nil {
			return nil, fmt.Errorf("list sessions: %w", err)
		}
		for _, s := range sessions {
			if videoID, ok := s.TranscriptTarget(overwrite); ok {
				targets = append(targets, transcriptTarget{session: s, videoID: videoID})
			}
		}
		if len(sessions) == 0 || int64(params.Offset()+len(sessions)) >= total {
			return targets, nil
		}
	}
}

func label(s domain.Session) string {
	title := []rune(s.Title)
	if len(title) > 40 {
		title = append(title[:40], '.', '.', '.')
	}
	return fmt.Sprintf("#%d %s", s.WebsiteIndex, string(title))
}
