package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/lib/pq"
	"github.com/zatekoja/fellowship/backend/internal/domain/entities"
	"github.com/zatekoja/fellowship/backend/internal/domain/repositories"
	"github.com/zatekoja/fellowship/backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/zatekoja/fellowship/backend/pkg/errors"
	"github.com/zatekoja/fellowship/backend/pkg/scripture"
)

// VerseAdapter implements VerseRepository on the verses table.
type VerseAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewVerseAdapter creates a new verse adapter
func NewVerseAdapter(client *postgres.Client) repositories.VerseRepository {
	return &VerseAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// GetByID retrieves a verse with any stored enrichment
func (a *VerseAdapter) GetByID(ctx context.Context, id string) (*entities.Verse, error) {
	query, args, err := a.db.Select(
		"id",
		"group_id",
		"reference",
		"version",
		"verse_text",
		"testament",
		"status",
		"error_message",
		"author_name",
		"author_role",
		"setting_context",
		"simplified_explanation",
		"book_context_summary",
		"classification",
		"tags",
		"heart_snapshot",
		"emotional_climate",
		"then_now_bridge",
		"cross_references",
		"hebrew_keywords",
		"greek_keywords",
		"enriched_at",
		"enriched_by",
		"created_at",
		"updated_at",
	).
		From("verses").
		Where(goqu.Ex{"id": id}).
		ToSQL()

	if err != nil {
		return nil, apperrors.NewInternalError("failed to build verse query", err)
	}

	var version, verseText, testament, errorMessage sql.NullString
	var authorName, authorRole, settingContext, simplified sql.NullString
	var bookSummary, classification, heartSnapshot, thenNowBridge sql.NullString
	var enrichedBy sql.NullString
	var enrichedAt sql.NullTime
	var tags, emotionalClimate, crossReferences []string
	var hebrewRaw, greekRaw []byte
	verse := &entities.Verse{}

	err = a.client.DB().QueryRowContext(ctx, query, args...).Scan(
		&verse.ID,
		&verse.GroupID,
		&verse.Reference,
		&version,
		&verseText,
		&testament,
		&verse.Status,
		&errorMessage,
		&authorName,
		&authorRole,
		&settingContext,
		&simplified,
		&bookSummary,
		&classification,
		pq.Array(&tags),
		&heartSnapshot,
		pq.Array(&emotionalClimate),
		&thenNowBridge,
		pq.Array(&crossReferences),
		&hebrewRaw,
		&greekRaw,
		&enrichedAt,
		&enrichedBy,
		&verse.CreatedAt,
		&verse.UpdatedAt,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("verse with id %s not found", id))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get verse", err)
	}

	verse.Version = nullStringPtr(version)
	verse.VerseText = nullStringPtr(verseText)
	verse.ErrorMessage = nullStringPtr(errorMessage)
	verse.EnrichedBy = nullStringPtr(enrichedBy)
	if testament.Valid {
		t := scripture.Testament(testament.String)
		verse.Testament = &t
	}
	if enrichedAt.Valid {
		at := enrichedAt.Time
		verse.EnrichedAt = &at

		e := &entities.Enrichment{
			AuthorName:            authorName.String,
			AuthorRole:            authorRole.String,
			SettingContext:        settingContext.String,
			SimplifiedExplanation: simplified.String,
			BookContextSummary:    bookSummary.String,
			Classification:        classification.String,
			Tags:                  tags,
			HeartSnapshot:         heartSnapshot.String,
			EmotionalClimate:      emotionalClimate,
			ThenNowBridge:         thenNowBridge.String,
			CrossReferences:       crossReferences,
		}
		if len(hebrewRaw) > 0 {
			_ = json.Unmarshal(hebrewRaw, &e.HebrewKeywords)
		}
		if len(greekRaw) > 0 {
			_ = json.Unmarshal(greekRaw, &e.GreekKeywords)
		}
		verse.Enrichment = e
	}

	return verse, nil
}

// SaveResolution stores resolved text and testament
func (a *VerseAdapter) SaveResolution(ctx context.Context, id string, text string, testament scripture.Testament) error {
	query, args, err := a.db.Update("verses").
		Set(goqu.Record{
			"verse_text": text,
			"testament":  string(testament),
			"updated_at": time.Now().UTC(),
		}).
		Where(goqu.Ex{"id": id}).
		ToSQL()

	if err != nil {
		return apperrors.NewInternalError("failed to build resolution update", err)
	}

	return a.execOne(ctx, id, "failed to save verse text", query, args...)
}

// UpdateStatus sets status and error message; a nil message clears it
func (a *VerseAdapter) UpdateStatus(ctx context.Context, id string, status entities.VerseStatus, errorMessage *string) error {
	var message interface{}
	if errorMessage != nil {
		message = entities.TruncateErrorMessage(*errorMessage)
	}

	query, args, err := a.db.Update("verses").
		Set(goqu.Record{
			"status":        string(status),
			"error_message": message,
			"updated_at":    time.Now().UTC(),
		}).
		Where(goqu.Ex{"id": id}).
		ToSQL()

	if err != nil {
		return apperrors.NewInternalError("failed to build status update", err)
	}

	return a.execOne(ctx, id, "failed to update verse status", query, args...)
}

// SaveEnrichment writes the finalized enrichment and marks the verse enriched
func (a *VerseAdapter) SaveEnrichment(ctx context.Context, id string, enrichment *entities.Enrichment, testament scripture.Testament, enrichedBy string, enrichedAt time.Time) error {
	if enrichment == nil {
		return apperrors.NewValidationError("enrichment is required", nil)
	}

	var hebrew, greek interface{}
	keywords, err := json.Marshal(enrichment.Keywords())
	if err != nil {
		return apperrors.NewInternalError("failed to encode keywords", err)
	}
	if testament == scripture.TestamentOld {
		hebrew = string(keywords)
	} else {
		greek = string(keywords)
	}

	query := `
		UPDATE verses SET
			testament = $2,
			status = $3,
			error_message = NULL,
			author_name = $4,
			author_role = $5,
			setting_context = $6,
			simplified_explanation = $7,
			book_context_summary = $8,
			classification = $9,
			tags = $10,
			heart_snapshot = $11,
			emotional_climate = $12,
			then_now_bridge = $13,
			cross_references = $14,
			hebrew_keywords = $15::jsonb,
			greek_keywords = $16::jsonb,
			enriched_at = $17,
			enriched_by = $18,
			updated_at = $17
		WHERE id = $1
	`

	return a.execOne(ctx, id, "failed to save verse enrichment", query,
		id,
		string(testament),
		string(entities.VerseStatusEnriched),
		enrichment.AuthorName,
		enrichment.AuthorRole,
		enrichment.SettingContext,
		enrichment.SimplifiedExplanation,
		enrichment.BookContextSummary,
		enrichment.Classification,
		pq.Array(enrichment.Tags),
		enrichment.HeartSnapshot,
		pq.Array(enrichment.EmotionalClimate),
		enrichment.ThenNowBridge,
		pq.Array(enrichment.CrossReferences),
		hebrew,
		greek,
		enrichedAt,
		enrichedBy,
	)
}

// ListIDsByStatus pages through a group's verse ids in any of statuses
func (a *VerseAdapter) ListIDsByStatus(ctx context.Context, groupID string, statuses []entities.VerseStatus, afterID string, limit int) ([]string, error) {
	if len(statuses) == 0 {
		return []string{}, nil
	}
	values := make([]string, len(statuses))
	for i, s := range statuses {
		values[i] = string(s)
	}

	ds := a.db.Select("id").
		From("verses").
		Where(goqu.Ex{
			"group_id": groupID,
			"status":   values,
		}).
		Order(goqu.I("id").Asc())
	if afterID != "" {
		ds = ds.Where(goqu.C("id").Gt(afterID))
	}
	if limit > 0 {
		ds = ds.Limit(uint(limit))
	}

	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build verse list query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list verses", err)
	}
	defer rows.Close()

	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, apperrors.NewInternalError("failed to scan verse id", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to iterate verses", err)
	}

	return ids, nil
}

func (a *VerseAdapter) execOne(ctx context.Context, id, failure, query string, args ...interface{}) error {
	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError(failure, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("verse with id %s not found", id))
	}
	return nil
}

func nullStringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
