package identity

import (
	"context"
	"errors"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/zatekoja/fellowship/backend/internal/domain/providers"
	"github.com/zatekoja/fellowship/backend/internal/infrastructure/observability"
	"github.com/zatekoja/fellowship/backend/pkg/config"
	apperrors "github.com/zatekoja/fellowship/backend/pkg/errors"
)

// JWTIdentityProvider validates HS256 access tokens issued by the auth service
// and returns the subject as the caller id.
type JWTIdentityProvider struct {
	secret []byte
	parser *jwt.Parser
}

// NewJWTIdentityProvider creates an identity provider from auth configuration.
func NewJWTIdentityProvider(cfg *config.AuthConfig) (providers.IdentityProvider, error) {
	if cfg == nil || strings.TrimSpace(cfg.JWTSecret) == "" {
		return nil, errors.New("jwt secret is required")
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	if cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(cfg.Audience))
	}

	return &JWTIdentityProvider{
		secret: []byte(cfg.JWTSecret),
		parser: jwt.NewParser(opts...),
	}, nil
}

// Authenticate parses and verifies token and returns its subject.
func (p *JWTIdentityProvider) Authenticate(ctx context.Context, token string) (string, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", apperrors.NewUnauthorizedError("missing bearer token")
	}

	claims := &jwt.RegisteredClaims{}
	parsed, err := p.parser.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return p.secret, nil
	})
	if err != nil || parsed == nil || !parsed.Valid {
		observability.LoggerFromContext(ctx).Debug().Err(err).Msg("Rejected bearer token")
		return "", apperrors.NewUnauthorizedError("invalid or expired token")
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return "", apperrors.NewUnauthorizedError("token subject is not a user id")
	}
	return userID.String(), nil
}
