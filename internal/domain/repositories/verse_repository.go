package repositories

import (
	"context"
	"time"

	"github.com/zatekoja/fellowship/backend/internal/domain/entities"
	"github.com/zatekoja/fellowship/backend/pkg/scripture"
)

// VerseRepository defines the interface for verse storage. Implementations
// return a NOT_FOUND AppError for unknown ids and INTERNAL AppErrors for
// datastore failures.
type VerseRepository interface {
	GetByID(ctx context.Context, id string) (*entities.Verse, error)

	// SaveResolution stores resolved text and testament without touching status.
	SaveResolution(ctx context.Context, id string, text string, testament scripture.Testament) error

	// UpdateStatus sets status and error_message (nil clears it).
	UpdateStatus(ctx context.Context, id string, status entities.VerseStatus, errorMessage *string) error

	// SaveEnrichment stores a finalized enrichment and marks the verse enriched.
	SaveEnrichment(ctx context.Context, id string, enrichment *entities.Enrichment, testament scripture.Testament, enrichedBy string, enrichedAt time.Time) error

	// ListIDsByStatus returns up to limit verse ids of a group in any of the
	// statuses, ordered by id and strictly greater than afterID when set.
	ListIDsByStatus(ctx context.Context, groupID string, statuses []entities.VerseStatus, afterID string, limit int) ([]string, error)
}
