package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/storerate/rating-client/internal/core/domain"
	"github.com/storerate/rating-client/internal/core/ports"
)

// ---------------------------------------------------------------------------
// Stubs
// ---------------------------------------------------------------------------

type handlerFunc func(ctx context.Context, req ports.Request) (*ports.Response, error)

// stubTransport routes requests by "METHOD /path" and records every call.
type stubTransport struct {
	mu     sync.Mutex
	routes map[string]handlerFunc
	calls  []ports.Request
}

func newStubTransport() *stubTransport {
	return &stubTransport{routes: make(map[string]handlerFunc)}
}

func (t *stubTransport) on(method, path string, h handlerFunc) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.routes[method+" "+path] = h
}

func (t *stubTransport) Do(ctx context.Context, req ports.Request) (*ports.Response, error) {
	t.mu.Lock()
	t.calls = append(t.calls, req)
	h, ok := t.routes[req.Method+" "+req.Path]
	t.mu.Unlock()
	if !ok {
		return jsonResponse(404, map[string]string{"error": "no route " + req.Path}), nil
	}
	return h(ctx, req)
}

func (t *stubTransport) callCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.calls)
}

func (t *stubTransport) lastCall() ports.Request {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.calls[len(t.calls)-1]
}

func (t *stubTransport) paths() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]string, 0, len(t.calls))
	for _, c := range t.calls {
		out = append(out, c.Method+" "+c.Path)
	}
	return out
}

var errOffline = errors.New("dial tcp: connection refused")

func offline(context.Context, ports.Request) (*ports.Response, error) {
	return nil, errOffline
}

func reply(status int, body any) handlerFunc {
	return func(context.Context, ports.Request) (*ports.Response, error) {
		return jsonResponse(status, body), nil
	}
}

func jsonResponse(status int, body any) *ports.Response {
	b, err := json.Marshal(body)
	if err != nil {
		panic(err)
	}
	return &ports.Response{StatusCode: status, Body: b}
}

type stubTokenStore struct {
	mu       sync.Mutex
	token    string
	saveErr  error
	loadErr  error
	clearErr error
	clears   int
}

func (s *stubTokenStore) Load(context.Context) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loadErr != nil {
		return "", false, s.loadErr
	}
	return s.token, s.token != "", nil
}

func (s *stubTokenStore) Save(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	s.token = token
	return nil
}

func (s *stubTokenStore) Clear(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clears++
	if s.clearErr != nil {
		return s.clearErr
	}
	s.token = ""
	return nil
}

func (s *stubTokenStore) stored() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func newSessionSvc(tr *stubTransport, ts *stubTokenStore) *SessionManager {
	return NewSessionManager(tr, ts, zerolog.Nop())
}

// loginAs logs a session in through the stub login route.
func loginAs(t *testing.T, sm *SessionManager, tr *stubTransport, u domain.User, token string) {
	t.Helper()
	tr.on("POST", "/auth/login", reply(200, map[string]any{"token": token, "user": u}))
	res := sm.Login(context.Background(), u.Email, "Secr3t!pass")
	require.True(t, res.OK(), "login failed: %+v", res.Failure)
}

func signedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("unit-test"))
	require.NoError(t, err)
	return tok
}

var (
	adminUser = domain.User{ID: 1, Name: "Platform Administrator Account", Email: "admin@example.com", Role: domain.RoleAdmin}
	plainUser = domain.User{ID: 2, Name: "A", Email: "a@b.com", Role: domain.RoleUser}
	ownerUser = domain.User{ID: 3, Name: "Owner of the Corner Bakery", Email: "owner@example.com", Role: domain.RoleOwner}
)

func ptr[T any](v T) *T { return &v }
