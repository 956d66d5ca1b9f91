package services

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/zatekoja/fellowship/backend/internal/domain/entities"
	"github.com/zatekoja/fellowship/backend/internal/domain/repositories"
	"github.com/zatekoja/fellowship/backend/internal/infrastructure/observability"
)

// BackfillBatchSize is how many verse ids are listed per round.
const BackfillBatchSize = 100

// BackfillSummary counts the outcome of a backfill run.
type BackfillSummary struct {
	TotalProcessed int `json:"total_processed"`
	SuccessCount   int `json:"success_count"`
	FailureCount   int `json:"failure_count"`
}

// VerseEnricher runs the enrichment pipeline for one verse.
type VerseEnricher interface {
	Enrich(ctx context.Context, verseID, callerID string) (*EnrichmentResult, error)
}

// VerseBackfillService re-runs the pipeline over a group's pending and failed verses.
type VerseBackfillService struct {
	verses      repositories.VerseRepository
	enricher    VerseEnricher
	workerCount int
}

// NewVerseBackfillService creates a backfill service with a fixed worker pool.
func NewVerseBackfillService(verses repositories.VerseRepository, enricher VerseEnricher, workers int) *VerseBackfillService {
	if workers <= 0 {
		workers = 1
	}
	return &VerseBackfillService{
		verses:      verses,
		enricher:    enricher,
		workerCount: workers,
	}
}

// BackfillGroup enriches every pending or errored verse of groupID as callerID.
// Ids are paged by keyset so each verse is attempted at most once per run.
func (s *VerseBackfillService) BackfillGroup(ctx context.Context, groupID, callerID string) (*BackfillSummary, error) {
	logger := observability.LoggerFromContext(ctx)
	var processed, success, failure int64

	idChan := make(chan string, BackfillBatchSize)
	var wg sync.WaitGroup

	for i := 0; i < s.workerCount; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for id := range idChan {
				_, err := s.enricher.Enrich(ctx, id, callerID)
				atomic.AddInt64(&processed, 1)
				if err != nil {
					atomic.AddInt64(&failure, 1)
					logger.Warn().Err(err).Str("verse_id", id).Msg("Backfill failed for verse")
				} else {
					atomic.AddInt64(&success, 1)
				}
			}
		}()
	}

	statuses := []entities.VerseStatus{entities.VerseStatusPending, entities.VerseStatusError}

	produce := func() error {
		cursor := ""
		for {
			ids, err := s.verses.ListIDsByStatus(ctx, groupID, statuses, cursor, BackfillBatchSize)
			if err != nil {
				return fmt.Errorf("failed to list verses needing enrichment: %w", err)
			}

			for _, id := range ids {
				select {
				case idChan <- id:
				case <-ctx.Done():
					return ctx.Err()
				}
			}

			if len(ids) < BackfillBatchSize {
				return nil
			}
			cursor = ids[len(ids)-1]
		}
	}

	err := produce()
	close(idChan)
	wg.Wait()

	summary := &BackfillSummary{
		TotalProcessed: int(processed),
		SuccessCount:   int(success),
		FailureCount:   int(failure),
	}
	if err != nil {
		return summary, err
	}

	logger.Info().
		Str("group_id", groupID).
		Int("processed", summary.TotalProcessed).
		Int("succeeded", summary.SuccessCount).
		Int("failed", summary.FailureCount).
		Msg("Verse backfill complete")
	return summary, nil
}

// BackfillSingle enriches one verse as callerID.
func (s *VerseBackfillService) BackfillSingle(ctx context.Context, verseID, callerID string) (*BackfillSummary, error) {
	summary := &BackfillSummary{TotalProcessed: 1}
	if _, err := s.enricher.Enrich(ctx, verseID, callerID); err != nil {
		summary.FailureCount = 1
		return summary, err
	}
	summary.SuccessCount = 1
	return summary, nil
}
