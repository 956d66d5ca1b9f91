// Package bootstrap assembles the enrichment pipeline from configuration so
// the API server and the backfill CLI share one wiring.
package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/zatekoja/fellowship/backend/internal/adapters/cache"
	"github.com/zatekoja/fellowship/backend/internal/adapters/database"
	"github.com/zatekoja/fellowship/backend/internal/adapters/events"
	"github.com/zatekoja/fellowship/backend/internal/adapters/identity"
	"github.com/zatekoja/fellowship/backend/internal/adapters/providers/scripture"
	"github.com/zatekoja/fellowship/backend/internal/application/services"
	"github.com/zatekoja/fellowship/backend/internal/domain/providers"
	"github.com/zatekoja/fellowship/backend/internal/domain/repositories"
	"github.com/zatekoja/fellowship/backend/internal/infrastructure/clients/gemini"
	"github.com/zatekoja/fellowship/backend/internal/infrastructure/clients/openai"
	"github.com/zatekoja/fellowship/backend/internal/infrastructure/clients/postgres"
	"github.com/zatekoja/fellowship/backend/internal/infrastructure/clients/redis"
	"github.com/zatekoja/fellowship/backend/pkg/config"
)

// Pipeline bundles the wired services and the clients that must be closed.
type Pipeline struct {
	Identity   providers.IdentityProvider
	Enrichment *services.VerseEnrichmentService
	Verses     repositories.VerseRepository

	pg    *postgres.Client
	redis *redis.Client
}

// NewPipeline connects to the datastores and builds the enrichment service.
// Redis is optional: without it the text cache and live events are disabled.
func NewPipeline(ctx context.Context, cfg *config.Config) (*Pipeline, error) {
	identityProvider, err := identity.NewJWTIdentityProvider(&cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("identity provider: %w", err)
	}

	generator, err := NewGenerator(ctx, cfg)
	if err != nil {
		return nil, err
	}

	pgClient, err := postgres.NewClient(ctx, &cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("postgres: %w", err)
	}

	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient, err = redis.NewClient(ctx, &cfg.Redis)
		if err != nil {
			log.Warn().Err(err).Msg("Redis unavailable; continuing without text cache and events")
			redisClient = nil
		}
	}

	var cacheProvider providers.CacheProvider
	var eventBus providers.EventBus
	if redisClient != nil {
		cacheProvider = cache.NewRedisAdapter(redisClient)
		eventBus = events.NewRedisEventBus(redisClient)
	}

	httpClient := &http.Client{Timeout: time.Duration(cfg.Scripture.TimeoutSeconds) * time.Second}
	resolver := services.NewTextResolver(ScriptureChain(&cfg.Scripture, httpClient), cacheProvider, cfg.Scripture.CacheTTLSeconds)

	verseRepo := database.NewVerseAdapter(pgClient)
	gate := services.NewAuthorizationGate(database.NewMembershipAdapter(pgClient))

	return &Pipeline{
		Identity:   identityProvider,
		Enrichment: services.NewVerseEnrichmentService(verseRepo, gate, resolver, generator, eventBus),
		Verses:     verseRepo,
		pg:         pgClient,
		redis:      redisClient,
	}, nil
}

// ScriptureChain returns the text providers in lookup order. The primary
// provider reports itself unconfigured when its URL or key is unset.
func ScriptureChain(cfg *config.ScriptureConfig, httpClient *http.Client) []providers.ScriptureTextProvider {
	return []providers.ScriptureTextProvider{
		scripture.NewPrimaryProvider(cfg.PrimaryURL, cfg.PrimaryAPIKey, httpClient),
		scripture.NewBibleAPIProvider(cfg.FallbackURL, httpClient),
	}
}

// NewGenerator builds the generative backend named by GENERATION_PROVIDER.
func NewGenerator(ctx context.Context, cfg *config.Config) (providers.VerseEnrichmentProvider, error) {
	timeout := time.Duration(cfg.Generation.TimeoutSeconds) * time.Second
	switch cfg.Generation.Provider {
	case "openai":
		client, err := openai.NewClient(&cfg.OpenAI, timeout)
		if err != nil {
			return nil, fmt.Errorf("openai client: %w", err)
		}
		return client, nil
	case "gemini":
		client, err := gemini.NewClient(ctx, &cfg.Gemini, timeout)
		if err != nil {
			return nil, fmt.Errorf("gemini client: %w", err)
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unsupported generation provider %q", cfg.Generation.Provider)
	}
}

// Close releases the datastore connections.
func (p *Pipeline) Close() {
	if p.redis != nil {
		if err := p.redis.Close(); err != nil {
			log.Warn().Err(err).Msg("Error closing Redis client")
		}
	}
	if p.pg != nil {
		if err := p.pg.Close(); err != nil {
			log.Warn().Err(err).Msg("Error closing PostgreSQL client")
		}
	}
}
