package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/zatekoja/fellowship/backend/internal/domain/entities"
	"github.com/zatekoja/fellowship/backend/internal/domain/providers"
	"github.com/zatekoja/fellowship/backend/internal/domain/repositories"
	"github.com/zatekoja/fellowship/backend/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/fellowship/backend/pkg/errors"
	"github.com/zatekoja/fellowship/backend/pkg/scripture"
)

// ErrVerseTextUnresolved is the terminal resolution failure recorded on a verse
// when no scripture provider returned text.
var ErrVerseTextUnresolved = errors.New("Bible API: unable to resolve verse_text")

// Authorizer decides whether a caller may act on a group's verses.
type Authorizer interface {
	Authorize(ctx context.Context, callerID, groupID string) error
}

// VerseTextResolver fetches canonical text for a parsed reference.
type VerseTextResolver interface {
	Resolve(ctx context.Context, ref scripture.Reference, versionHint string) (string, string, bool)
}

// EnrichmentResult is what a successful run reports back to the caller.
type EnrichmentResult struct {
	VerseID string               `json:"verse_id"`
	Status  entities.VerseStatus `json:"status"`
}

// VerseEnrichmentService drives one verse through
// pending -> enriching -> enriched|error.
type VerseEnrichmentService struct {
	verses     repositories.VerseRepository
	authorizer Authorizer
	resolver   VerseTextResolver
	generator  providers.VerseEnrichmentProvider
	events     providers.EventBus
	now        func() time.Time
}

// NewVerseEnrichmentService creates the pipeline coordinator. events may be nil.
func NewVerseEnrichmentService(
	verses repositories.VerseRepository,
	authorizer Authorizer,
	resolver VerseTextResolver,
	generator providers.VerseEnrichmentProvider,
	events providers.EventBus,
) *VerseEnrichmentService {
	return &VerseEnrichmentService{
		verses:     verses,
		authorizer: authorizer,
		resolver:   resolver,
		generator:  generator,
		events:     events,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Enrich runs the pipeline for verseID on behalf of callerID.
func (s *VerseEnrichmentService) Enrich(ctx context.Context, verseID, callerID string) (*EnrichmentResult, error) {
	ctx, span := observability.StartSpan(ctx, "verse.enrich")
	defer span.End()
	observability.SetSpanAttributes(span, attribute.String("verse.id", verseID))

	result, err := s.enrich(ctx, verseID, callerID)
	if err != nil {
		observability.RecordError(span, err)
		return nil, err
	}
	return result, nil
}

func (s *VerseEnrichmentService) enrich(ctx context.Context, verseID, callerID string) (*EnrichmentResult, error) {
	logger := observability.LoggerFromContext(ctx).With().Str("verse_id", verseID).Logger()

	verse, err := s.verses.GetByID(ctx, verseID)
	if err != nil {
		return nil, err
	}

	if err := s.authorizer.Authorize(ctx, callerID, verse.GroupID); err != nil {
		return nil, err
	}

	text := ""
	if verse.HasText() {
		text = *verse.VerseText
	}
	var testament scripture.Testament
	if verse.HasTestament() {
		testament = *verse.Testament
	}

	if !verse.HasText() || !verse.HasTestament() {
		ref, err := scripture.ParseReference(verse.Reference)
		if err != nil {
			return nil, apperrors.NewValidationError("invalid scripture reference", err)
		}

		if !verse.HasText() {
			resolved, source, ok := s.resolver.Resolve(ctx, ref, verse.VersionHint())
			if !ok {
				logger.Warn().Str("reference", verse.Reference).Msg("No scripture provider could resolve verse text")
				s.markError(ctx, verse, ErrVerseTextUnresolved.Error())
				observability.RecordPipelineOutcome(ctx, string(entities.VerseStatusError))
				return nil, apperrors.NewExternalError(ErrVerseTextUnresolved.Error(), ErrVerseTextUnresolved)
			}
			logger.Debug().Str("provider", source).Msg("Resolved verse text")
			text = resolved
		}
		if !verse.HasTestament() {
			testament = scripture.ClassifyTestament(ref.Book)
		}

		if err := s.verses.SaveResolution(ctx, verse.ID, text, testament); err != nil {
			return nil, err
		}
	}

	if err := s.verses.UpdateStatus(ctx, verse.ID, entities.VerseStatusEnriching, nil); err != nil {
		return nil, err
	}
	s.publish(ctx, verse, entities.VerseStatusEnriching, "")

	if err := s.generateAndSave(ctx, verse, text, testament, callerID); err != nil {
		logger.Error().Err(err).Msg("Verse enrichment failed")
		s.markError(ctx, verse, err.Error())
		observability.RecordPipelineOutcome(ctx, string(entities.VerseStatusError))
		return nil, err
	}

	logger.Info().Str("testament", string(testament)).Msg("Verse enriched")
	s.publish(ctx, verse, entities.VerseStatusEnriched, "")
	observability.RecordPipelineOutcome(ctx, string(entities.VerseStatusEnriched))

	return &EnrichmentResult{VerseID: verse.ID, Status: entities.VerseStatusEnriched}, nil
}

// generateAndSave covers every step whose failure the caller-facing handler
// turns into an error status.
func (s *VerseEnrichmentService) generateAndSave(ctx context.Context, verse *entities.Verse, text string, testament scripture.Testament, callerID string) error {
	genCtx, span := observability.StartSpan(ctx, "enrichment.generate")
	enrichment, err := s.generator.GenerateEnrichment(genCtx, providers.EnrichmentRequest{
		Reference: verse.Reference,
		VerseText: text,
		Testament: testament,
	})
	observability.RecordError(span, err)
	span.End()
	if err != nil {
		return apperrors.NewExternalError("enrichment generation failed", err)
	}

	enrichment.Finalize(testament)

	return s.verses.SaveEnrichment(ctx, verse.ID, enrichment, testament, callerID, s.now())
}

// markError records a failure on the verse. It never fails the caller: the
// write runs detached from request cancellation and its own error is logged.
func (s *VerseEnrichmentService) markError(ctx context.Context, verse *entities.Verse, message string) {
	message = entities.TruncateErrorMessage(message)
	writeCtx := context.WithoutCancel(ctx)

	if err := s.verses.UpdateStatus(writeCtx, verse.ID, entities.VerseStatusError, &message); err != nil {
		observability.LoggerFromContext(ctx).Error().
			Err(err).
			Str("verse_id", verse.ID).
			Msg("Failed to record verse error status")
		return
	}
	s.publish(writeCtx, verse, entities.VerseStatusError, message)
}

func (s *VerseEnrichmentService) publish(ctx context.Context, verse *entities.Verse, status entities.VerseStatus, message string) {
	if s.events == nil {
		return
	}

	event := &entities.VerseEvent{
		ID:        uuid.NewString(),
		VerseID:   verse.ID,
		GroupID:   verse.GroupID,
		Status:    status,
		Message:   message,
		Timestamp: s.now(),
	}
	for _, channel := range []string{providers.GetVerseChannel(verse.ID), providers.EventChannelVerseUpdates} {
		if err := s.events.Publish(ctx, channel, event); err != nil {
			observability.LoggerFromContext(ctx).Warn().
				Err(err).
				Str("verse_id", verse.ID).
				Str("channel", channel).
				Msg("Failed to publish verse event")
		}
	}
}
