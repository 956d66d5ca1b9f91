package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/zatekoja/fellowship/backend/internal/application/services"
	"github.com/zatekoja/fellowship/backend/internal/domain/entities"
	"github.com/zatekoja/fellowship/backend/internal/domain/providers"
	"github.com/zatekoja/fellowship/backend/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/fellowship/backend/pkg/errors"
)

// VerseEnricher runs the enrichment pipeline for one verse.
type VerseEnricher interface {
	Enrich(ctx context.Context, verseID, callerID string) (*services.EnrichmentResult, error)
}

// VerseHandler serves the verse enrichment endpoint.
type VerseHandler struct {
	identity providers.IdentityProvider
	enricher VerseEnricher
}

// NewVerseHandler creates a new verse handler
func NewVerseHandler(identity providers.IdentityProvider, enricher VerseEnricher) *VerseHandler {
	return &VerseHandler{
		identity: identity,
		enricher: enricher,
	}
}

type enrichResponse struct {
	OK      bool                 `json:"ok"`
	Status  entities.VerseStatus `json:"status"`
	VerseID string               `json:"verse_id"`
}

// EnrichVerse handles POST /api/verses/{id}/enrich
func (h *VerseHandler) EnrichVerse(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	token, ok := bearerToken(r)
	if !ok {
		respondWithAppError(w, apperrors.NewUnauthorizedError("missing bearer token"))
		return
	}

	callerID, err := h.identity.Authenticate(ctx, token)
	if err != nil {
		if !apperrors.Is(err, apperrors.ErrorTypeUnauthorized) {
			err = apperrors.NewUnauthorizedError("invalid or expired token")
		}
		respondWithAppError(w, err)
		return
	}

	verseID := r.PathValue("id")
	if _, err := uuid.Parse(verseID); err != nil {
		respondWithAppError(w, apperrors.NewValidationError("invalid verse id", err))
		return
	}

	result, err := h.enricher.Enrich(ctx, verseID, callerID)
	if err != nil {
		logger := observability.LoggerFromContext(ctx)
		event := logger.Warn()
		if t := apperrors.TypeOf(err); t == apperrors.ErrorTypeInternal || t == apperrors.ErrorTypeExternal {
			event = logger.Error()
		}
		event.Err(err).Str("verse_id", verseID).Str("caller_id", callerID).Msg("Verse enrichment request failed")
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, enrichResponse{
		OK:      true,
		Status:  result.Status,
		VerseID: result.VerseID,
	})
}

// bearerToken extracts the credential from an "Authorization: Bearer" header
func bearerToken(r *http.Request) (string, bool) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
