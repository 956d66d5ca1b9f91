package entities

import "time"

// VerseEvent announces a persisted status transition of a verse.
type VerseEvent struct {
	ID        string      `json:"id"`
	VerseID   string      `json:"verse_id"`
	GroupID   string      `json:"group_id"`
	Status    VerseStatus `json:"status"`
	Message   string      `json:"message,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}
