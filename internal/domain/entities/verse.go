package entities

import (
	"time"

	"github.com/zatekoja/fellowship/backend/pkg/scripture"
)

// VerseStatus is the processing state of a verse record.
type VerseStatus string

const (
	VerseStatusPending   VerseStatus = "pending"
	VerseStatusEnriching VerseStatus = "enriching"
	VerseStatusEnriched  VerseStatus = "enriched"
	VerseStatusError     VerseStatus = "error"
)

// MaxErrorMessageLength bounds error_message on persisted verses.
const MaxErrorMessageLength = 500

// Verse is a scripture reference saved by a group, plus everything the
// enrichment pipeline has learned about it.
type Verse struct {
	ID           string               `json:"id" db:"id"`
	GroupID      string               `json:"group_id" db:"group_id"`
	Reference    string               `json:"reference" db:"reference"`
	Version      *string              `json:"version,omitempty" db:"version"`
	VerseText    *string              `json:"verse_text,omitempty" db:"verse_text"`
	Testament    *scripture.Testament `json:"testament,omitempty" db:"testament"`
	Status       VerseStatus          `json:"status" db:"status"`
	ErrorMessage *string              `json:"error_message,omitempty" db:"error_message"`
	Enrichment   *Enrichment          `json:"enrichment,omitempty"`
	EnrichedAt   *time.Time           `json:"enriched_at,omitempty" db:"enriched_at"`
	EnrichedBy   *string              `json:"enriched_by,omitempty" db:"enriched_by"`
	CreatedAt    time.Time            `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time            `json:"updated_at" db:"updated_at"`
}

// HasText reports whether canonical text has already been resolved.
func (v *Verse) HasText() bool {
	return v.VerseText != nil && *v.VerseText != ""
}

// HasTestament reports whether the verse has already been classified.
func (v *Verse) HasTestament() bool {
	return v.Testament != nil && v.Testament.Valid()
}

// VersionHint returns the requested translation code, or "".
func (v *Verse) VersionHint() string {
	if v.Version == nil {
		return ""
	}
	return *v.Version
}

// TruncateErrorMessage bounds msg to MaxErrorMessageLength runes.
func TruncateErrorMessage(msg string) string {
	r := []rune(msg)
	if len(r) <= MaxErrorMessageLength {
		return msg
	}
	return string(r[:MaxErrorMessageLength])
}
