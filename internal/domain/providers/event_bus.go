package providers

import (
	"context"

	"github.com/zatekoja/fellowship/backend/internal/domain/entities"
)

// EventBus publishes verse status events
type EventBus interface {
	// Publish publishes an event on a channel
	Publish(ctx context.Context, channel string, event *entities.VerseEvent) error
}

const (
	// EventChannelVerseUpdates carries every verse status change
	EventChannelVerseUpdates = "verse:updates"

	// EventChannelVersePrefix is the prefix for verse-specific channels
	EventChannelVersePrefix = "verse:"
)

// GetVerseChannel returns the channel name for a specific verse
func GetVerseChannel(verseID string) string {
	return EventChannelVersePrefix + verseID
}
