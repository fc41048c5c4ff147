package ports

import "context"

// TokenStore persists the credential token across process restarts. It is
// the only durable state the client owns.
type TokenStore interface {
	// Load returns ok=false when no token is stored.
	Load(ctx context.Context) (token string, ok bool, err error)
	Save(ctx context.Context, token string) error
	// Clear is idempotent.
	Clear(ctx context.Context) error
}
