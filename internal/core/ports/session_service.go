package ports

import (
	"context"

	"github.com/storerate/rating-client/internal/core/domain"
)

// SessionEventType enumerates session lifecycle changes.
type SessionEventType string

const (
	EventLogin   SessionEventType = "login"
	EventRestore SessionEventType = "restore"
	EventLogout  SessionEventType = "logout"
	// EventExpired: the server rejected the token with a 401.
	EventExpired SessionEventType = "expired"
)

// SessionEvent is delivered to subscribers after the session changed.
type SessionEvent struct {
	Type    SessionEventType
	Session domain.Session // zero after logout/expiry
}

// Authorizer issues role-gated, token-authenticated calls. The Synchronizer
// depends on it; it never depends on the Synchronizer.
type Authorizer interface {
	Authorized(ctx context.Context, op domain.Operation, query domain.Filters, body any) (*Response, *domain.Failure)
	Current() (domain.Session, bool)
	Subscribe(fn func(SessionEvent)) (cancel func())
}

// SessionService is the full Session Manager surface used by consumers.
type SessionService interface {
	Authorizer
	Restore(ctx context.Context) bool
	Login(ctx context.Context, email, password string) domain.Result[domain.User]
	Signup(ctx context.Context, profile domain.SignupProfile) domain.Result[string]
	Logout(ctx context.Context)
	UpdatePassword(ctx context.Context, oldPassword, newPassword string) domain.Result[string]
}
