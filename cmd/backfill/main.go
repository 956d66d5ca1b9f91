package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/zatekoja/fellowship/backend/internal/application/services"
	"github.com/zatekoja/fellowship/backend/internal/bootstrap"
	"github.com/zatekoja/fellowship/backend/internal/infrastructure/observability"
	"github.com/zatekoja/fellowship/backend/pkg/config"
	"github.com/zatekoja/fellowship/backend/pkg/secrets"
)

var (
	groupID  string
	callerID string
	verseID  string
	workers  int
)

var rootCmd = &cobra.Command{
	Use:   "backfill",
	Short: "Re-run verse enrichment for pending and failed verses",
	Long: `Re-run the verse enrichment pipeline outside the HTTP path.

With --verse a single verse is enriched. With --group every pending or
errored verse in the group is enriched by a pool of workers. Every run
acts as the --as user and passes through the same authorization gate.`,
	SilenceUsage: true,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		if _, err := uuid.Parse(callerID); err != nil {
			return errors.New("--as must be a user uuid")
		}
		if (groupID == "") == (verseID == "") {
			return errors.New("exactly one of --group or --verse is required")
		}
		return nil
	},
	RunE: runBackfill,
}

func init() {
	rootCmd.Flags().StringVar(&groupID, "group", "", "Group whose pending and errored verses are enriched")
	rootCmd.Flags().StringVar(&verseID, "verse", "", "Single verse ID to enrich")
	rootCmd.Flags().StringVar(&callerID, "as", "", "User ID the runs are authorized as")
	rootCmd.Flags().IntVar(&workers, "workers", 3, "Number of concurrent workers")
	_ = rootCmd.MarkFlagRequired("as")
}

func runBackfill(cmd *cobra.Command, args []string) error {
	if _, err := secrets.ApplyVaultSecrets(cmd.Context(), secrets.LoadVaultConfigFromEnv()); err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	observability.InitLogger("fellowship-backfill", cfg.App.Env, cfg.App.LogLevel)
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	pipeline, err := bootstrap.NewPipeline(ctx, cfg)
	if err != nil {
		return err
	}
	defer pipeline.Close()

	svc := services.NewVerseBackfillService(pipeline.Verses, pipeline.Enrichment, workers)
	start := time.Now()

	if verseID != "" {
		log.Info().Str("verse_id", verseID).Msg("Backfilling single verse")
		if _, err := svc.BackfillSingle(ctx, verseID, callerID); err != nil {
			return err
		}
		log.Info().Str("verse_id", verseID).Dur("elapsed", time.Since(start)).Msg("Verse enriched")
		return nil
	}

	log.Info().Str("group_id", groupID).Int("workers", workers).Msg("Starting group backfill")
	summary, err := svc.BackfillGroup(ctx, groupID, callerID)
	if summary != nil {
		log.Info().
			Dur("elapsed", time.Since(start)).
			Int("total", summary.TotalProcessed).
			Int("success", summary.SuccessCount).
			Int("failed", summary.FailureCount).
			Msg("Backfill complete")
	}
	return err
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		log.Error().Err(err).Msg("Backfill failed")
		os.Exit(1)
	}
}
