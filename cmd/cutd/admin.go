package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/adrianhumphrey111/bolt-new-hackathon-final-sub001/internal/billing"
	"github.com/adrianhumphrey111/bolt-new-hackathon-final-sub001/internal/catalog"
	"github.com/adrianhumphrey111/bolt-new-hackathon-final-sub001/internal/db"
	"github.com/adrianhumphrey111/bolt-new-hackathon-final-sub001/internal/media"
	"github.com/adrianhumphrey111/bolt-new-hackathon-final-sub001/internal/transcript"
)

// withDB loads config, opens the database (applying migrations) and hands
// both to fn.
func withDB(cmd *cobra.Command, fn func(ctx context.Context, e *env, database *db.DB) error) error {
	e, err := loadEnv(cmd)
	if err != nil {
		return err
	}
	database, err := e.openDB()
	if err != nil {
		return err
	}
	defer database.Close()
	return fn(cmd.Context(), e, database)
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withDB(cmd, func(_ context.Context, e *env, database *db.DB) error {
				e.logger.Info("database is up to date", "dialect", database.Dialect())
				return nil
			})
		},
	}
}

func newImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Register a video, optionally with its transcript",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			owner, _ := cmd.Flags().GetString("owner")
			title, _ := cmd.Flags().GetString("title")
			duration, _ := cmd.Flags().GetFloat64("duration")
			transcriptPath, _ := cmd.Flags().GetString("transcript")
			mediaPath, _ := cmd.Flags().GetString("media")
			ffprobePath, _ := cmd.Flags().GetString("ffprobe")

			video := &catalog.Video{
				OwnerID:         owner,
				Title:           title,
				DurationSeconds: duration,
				StoragePath:     mediaPath,
			}
			var transcriptEnd float64
			if transcriptPath != "" {
				data, err := os.ReadFile(transcriptPath)
				if err != nil {
					return fmt.Errorf("read transcript: %w", err)
				}
				tr, err := transcript.Parse(data)
				if err != nil {
					return err
				}
				video.TranscriptJSON = string(data)
				transcriptEnd = tr.DurationSec()
			}

			return withDB(cmd, func(ctx context.Context, e *env, database *db.DB) error {
				if video.DurationSeconds == 0 {
					video.DurationSeconds = resolveDuration(ctx, e.logger, media.NewFFprobe(ffprobePath), mediaPath, transcriptEnd)
				}
				svc := catalog.NewService(catalog.NewRepository(database.Conn(), database.Dialect()), e.logger)
				v, err := svc.ImportVideo(ctx, video)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), v.ID)
				return nil
			})
		},
	}
	cmd.Flags().String("owner", "", "Owning user id")
	cmd.Flags().String("title", "", "Video title")
	cmd.Flags().Float64("duration", 0, "Duration in seconds (defaults to the probed media, then the transcript's end)")
	cmd.Flags().String("transcript", "", "Path to a word-level transcript JSON file")
	cmd.Flags().String("media", "", "Path to the source video file")
	cmd.Flags().String("ffprobe", "ffprobe", "ffprobe binary used to read the media duration")
	_ = cmd.MarkFlagRequired("owner")
	return cmd
}

// resolveDuration prefers the probed media length and falls back to the end of
// the last transcribed word.
func resolveDuration(ctx context.Context, logger *slog.Logger, prober media.Prober, mediaPath string, transcriptEnd float64) float64 {
	if mediaPath == "" {
		return transcriptEnd
	}
	d, err := prober.Duration(ctx, mediaPath)
	if err != nil {
		logger.Warn("could not probe media duration", "path", mediaPath, "error", err)
		return transcriptEnd
	}
	return d
}

func newTokenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "token <user-id>",
		Short: "Issue an API bearer token for a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(cmd, func(ctx context.Context, e *env, database *db.DB) error {
				svc := catalog.NewService(catalog.NewRepository(database.Conn(), database.Dialect()), e.logger)
				token, err := svc.IssueToken(ctx, args[0])
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), token)
				return nil
			})
		},
	}
}

func newCreditsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "credits <user-id> <amount>",
		Short: "Grant (or with a negative amount, revoke) analysis credits",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("amount must be an integer: %w", err)
			}
			return withDB(cmd, func(ctx context.Context, e *env, database *db.DB) error {
				gate := billing.NewSQLGate(database.Conn(), database.Dialect(), e.cfg.AnalysisCost())
				balance, err := gate.Grant(ctx, args[0], amount)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %d credits\n", args[0], balance)
				return nil
			})
		},
	}
}
