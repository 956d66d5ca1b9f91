package providers

import (
	"context"

	"github.com/zatekoja/fellowship/backend/internal/domain/entities"
	"github.com/zatekoja/fellowship/backend/pkg/scripture"
)

// EnrichmentRequest is the input to a generative enrichment backend.
type EnrichmentRequest struct {
	Reference string
	VerseText string
	Testament scripture.Testament
}

// VerseEnrichmentProvider generates normalized study material for a verse.
// Failures are reported as *enrichment.GenerationError.
type VerseEnrichmentProvider interface {
	GenerateEnrichment(ctx context.Context, req EnrichmentRequest) (*entities.Enrichment, error)
}
