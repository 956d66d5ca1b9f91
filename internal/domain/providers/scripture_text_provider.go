package providers

import (
	"context"
	"errors"
)

// ErrProviderNotConfigured is returned by a text provider that lacks its URL or key.
var ErrProviderNotConfigured = errors.New("scripture provider not configured")

// VerseLookup identifies a single verse to fetch from a text provider.
type VerseLookup struct {
	Book    string
	Chapter int
	Verse   int
	// VersionHint is the caller's requested translation code, possibly empty.
	VersionHint string
}

// ScriptureTextProvider fetches canonical verse text from one external source.
// Any error, or an empty string, means the caller should try the next source.
type ScriptureTextProvider interface {
	Name() string
	LookupVerse(ctx context.Context, lookup VerseLookup) (string, error)
}
