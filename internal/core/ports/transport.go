package ports

import (
	"context"
	"net/url"

	"github.com/storerate/rating-client/internal/core/domain"
)

// Request is a single call against the remote REST API.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   any
	// Token is copied into the Authorization header. Empty means anonymous.
	Token string
}

// Response is a completed HTTP exchange, whatever its status.
type Response struct {
	StatusCode int
	Body       []byte
	// Scope is the session scope an authorized call was issued under. The
	// Authorizer sets it; it is zero for anonymous calls.
	Scope domain.Scope
}

func (r *Response) Success() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Transport performs requests. It returns an error only when no response
// was received; non-2xx responses are returned as a Response.
type Transport interface {
	Do(ctx context.Context, req Request) (*Response, error)
}
