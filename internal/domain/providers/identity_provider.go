package providers

import "context"

// IdentityProvider resolves a bearer credential to the caller's user id.
type IdentityProvider interface {
	Authenticate(ctx context.Context, token string) (string, error)
}
