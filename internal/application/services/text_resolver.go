package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/zatekoja/fellowship/backend/internal/domain/providers"
	"github.com/zatekoja/fellowship/backend/internal/infrastructure/observability"
	"github.com/zatekoja/fellowship/backend/pkg/scripture"
)

const textCacheKeyPrefix = "scripture:v1:"

// TextResolver walks an ordered chain of scripture text providers and
// returns the first usable text. Absence is a normal result, not an error.
type TextResolver struct {
	chain           []providers.ScriptureTextProvider
	cache           providers.CacheProvider
	cacheTTLSeconds int
}

// NewTextResolver creates a resolver over chain. cache may be nil.
func NewTextResolver(chain []providers.ScriptureTextProvider, cache providers.CacheProvider, cacheTTLSeconds int) *TextResolver {
	return &TextResolver{
		chain:           chain,
		cache:           cache,
		cacheTTLSeconds: cacheTTLSeconds,
	}
}

// Resolve looks up the first verse of ref. It reports the text, the name of
// the provider that supplied it and whether anything was found.
func (r *TextResolver) Resolve(ctx context.Context, ref scripture.Reference, versionHint string) (string, string, bool) {
	ctx, span := observability.StartSpan(ctx, "scripture.resolve")
	defer span.End()

	lookup := providers.VerseLookup{
		Book:        ref.Book,
		Chapter:     ref.Chapter,
		Verse:       ref.FirstVerse(),
		VersionHint: strings.TrimSpace(versionHint),
	}
	observability.SetSpanAttributes(span,
		attribute.String("scripture.book", lookup.Book),
		attribute.Int("scripture.chapter", lookup.Chapter),
		attribute.Int("scripture.verse", lookup.Verse),
	)
	logger := observability.LoggerFromContext(ctx)

	key := cacheKey(lookup)
	if r.cache != nil {
		if cached, err := r.cache.Get(ctx, key); err == nil && len(cached) > 0 {
			observability.SetSpanAttributes(span, attribute.String("scripture.source", "cache"))
			return string(cached), "cache", true
		} else if err != nil && !errors.Is(err, providers.ErrCacheMiss) {
			logger.Warn().Err(err).Str("key", key).Msg("Scripture cache read failed")
		}
	}

	for _, p := range r.chain {
		text, err := p.LookupVerse(ctx, lookup)
		text = strings.TrimSpace(text)
		if err != nil || text == "" {
			if !errors.Is(err, providers.ErrProviderNotConfigured) {
				observability.RecordScriptureLookup(ctx, p.Name(), false)
				logger.Debug().Err(err).Str("provider", p.Name()).Msg("Scripture provider returned no text")
			}
			continue
		}

		observability.RecordScriptureLookup(ctx, p.Name(), true)
		observability.SetSpanAttributes(span, attribute.String("scripture.source", p.Name()))

		if r.cache != nil {
			if err := r.cache.Set(ctx, key, []byte(text), r.cacheTTLSeconds); err != nil {
				logger.Warn().Err(err).Str("key", key).Msg("Scripture cache write failed")
			}
		}
		return text, p.Name(), true
	}

	return "", "", false
}

func cacheKey(lookup providers.VerseLookup) string {
	return fmt.Sprintf("%s%s:%d:%d:%s",
		textCacheKeyPrefix,
		strings.ToLower(scripture.NormalizeBookName(lookup.Book)),
		lookup.Chapter,
		lookup.Verse,
		strings.ToLower(lookup.VersionHint),
	)
}
