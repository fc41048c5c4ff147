package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storerate/rating-client/internal/core/domain"
	"github.com/storerate/rating-client/internal/core/ports"
)

// ---------------------------------------------------------------------------
// Login
// ---------------------------------------------------------------------------

func TestLogin_EstablishesAndPersistsSession(t *testing.T) {
	tr := newStubTransport()
	ts := &stubTokenStore{}
	sm := newSessionSvc(tr, ts)

	var events []ports.SessionEvent
	sm.Subscribe(func(ev ports.SessionEvent) { events = append(events, ev) })

	tr.on("POST", "/auth/login", func(_ context.Context, req ports.Request) (*ports.Response, error) {
		assert.Empty(t, req.Token)
		assert.Equal(t, loginRequest{Email: "a@b.com", Password: "Secr3t!pass"}, req.Body)
		return jsonResponse(200, map[string]any{
			"token": "T1",
			"user":  map[string]any{"id": 2, "name": "A", "email": "a@b.com", "role": "user"},
		}), nil
	})

	res := sm.Login(context.Background(), "a@b.com", "Secr3t!pass")

	require.True(t, res.OK())
	assert.Equal(t, domain.RoleUser, res.Value.Role)
	assert.Equal(t, "T1", ts.stored())

	sess, ok := sm.Current()
	require.True(t, ok)
	assert.Equal(t, "T1", sess.Token)
	assert.Equal(t, int64(2), sess.Identity.ID)
	assert.False(t, sess.Restored)

	require.Len(t, events, 1)
	assert.Equal(t, ports.EventLogin, events[0].Type)
}

func TestLogin_AcceptsFlatBody(t *testing.T) {
	tr := newStubTransport()
	sm := newSessionSvc(tr, &stubTokenStore{})

	tr.on("POST", "/auth/login", reply(200, map[string]any{
		"token": "T2", "id": 9, "name": "Flat Owner", "email": "o@x.com", "role": "owner", "storeId": 4,
	}))

	res := sm.Login(context.Background(), "o@x.com", "pw")

	require.True(t, res.OK())
	assert.Equal(t, domain.RoleOwner, res.Value.Role)
	require.NotNil(t, res.Value.StoreID)
	assert.Equal(t, int64(4), *res.Value.StoreID)
}

func TestLogin_RejectedLeavesNoSession(t *testing.T) {
	tr := newStubTransport()
	ts := &stubTokenStore{}
	sm := newSessionSvc(tr, ts)

	tr.on("POST", "/auth/login", reply(401, map[string]string{"error": "Invalid email or password"}))

	res := sm.Login(context.Background(), "a@b.com", "wrong")

	require.Equal(t, domain.StatusFailure, res.Status)
	assert.Equal(t, domain.KindUnauthenticated, res.Failure.Kind)
	assert.Equal(t, "Invalid email or password", res.Failure.Message)
	assert.Equal(t, 401, res.Failure.StatusCode)

	_, ok := sm.Current()
	assert.False(t, ok)
	assert.Empty(t, ts.stored())
}

func TestLogin_TransportFailureKeepsExistingSession(t *testing.T) {
	tr := newStubTransport()
	ts := &stubTokenStore{}
	sm := newSessionSvc(tr, ts)
	loginAs(t, sm, tr, plainUser, "T1")

	tr.on("POST", "/auth/login", offline)
	res := sm.Login(context.Background(), "other@b.com", "pw")

	require.Equal(t, domain.StatusFailure, res.Status)
	assert.Equal(t, domain.KindTransport, res.Failure.Kind)
	assert.Equal(t, "network error", res.Failure.Message)

	sess, ok := sm.Current()
	require.True(t, ok)
	assert.Equal(t, "T1", sess.Token)
	assert.Equal(t, "T1", ts.stored())
}

func TestLogin_UnknownRoleIsInvalidResponse(t *testing.T) {
	tr := newStubTransport()
	sm := newSessionSvc(tr, &stubTokenStore{})

	tr.on("POST", "/auth/login", reply(200, map[string]any{
		"token": "T1", "user": map[string]any{"id": 1, "role": "superuser"},
	}))

	res := sm.Login(context.Background(), "a@b.com", "pw")

	require.Equal(t, domain.StatusFailure, res.Status)
	assert.Equal(t, domain.KindRemote, res.Failure.Kind)
	assert.Equal(t, invalidResponseMessage, res.Failure.Message)
	_, ok := sm.Current()
	assert.False(t, ok)
}

func TestLogin_PersistFailureStillLogsIn(t *testing.T) {
	tr := newStubTransport()
	ts := &stubTokenStore{saveErr: errors.New("disk full")}
	sm := newSessionSvc(tr, ts)

	loginAs(t, sm, tr, plainUser, "T1")

	_, ok := sm.Current()
	assert.True(t, ok)
	assert.Empty(t, ts.stored())
}

// ---------------------------------------------------------------------------
// Signup
// ---------------------------------------------------------------------------

func TestSignup_NeverCreatesSession(t *testing.T) {
	tr := newStubTransport()
	sm := newSessionSvc(tr, &stubTokenStore{})

	tr.on("POST", "/auth/signup", reply(201, map[string]string{"message": "User registered successfully"}))

	res := sm.Signup(context.Background(), domain.SignupProfile{
		Name: "A person with a long enough name", Email: "new@b.com", Password: "Secr3t!pass", Address: "1 Main St",
	})

	require.True(t, res.OK())
	assert.Equal(t, "User registered successfully", res.Message)
	_, ok := sm.Current()
	assert.False(t, ok)
	assert.Empty(t, tr.lastCall().Token)
}

func TestSignup_DuplicateEmail(t *testing.T) {
	tr := newStubTransport()
	sm := newSessionSvc(tr, &stubTokenStore{})

	tr.on("POST", "/auth/signup", reply(400, map[string]string{"error": "Email already registered"}))

	res := sm.Signup(context.Background(), domain.SignupProfile{Email: "dup@b.com"})

	require.Equal(t, domain.StatusFailure, res.Status)
	assert.Equal(t, domain.KindRemote, res.Failure.Kind)
	assert.Equal(t, "Email already registered", res.Failure.Message)
}

// ---------------------------------------------------------------------------
// Logout
// ---------------------------------------------------------------------------

func TestLogout_Idempotent(t *testing.T) {
	tr := newStubTransport()
	ts := &stubTokenStore{}
	sm := newSessionSvc(tr, ts)

	var logouts int
	sm.Subscribe(func(ev ports.SessionEvent) {
		if ev.Type == ports.EventLogout {
			logouts++
		}
	})

	sm.Logout(context.Background())
	loginAs(t, sm, tr, plainUser, "T1")
	sm.Logout(context.Background())
	sm.Logout(context.Background())

	_, ok := sm.Current()
	assert.False(t, ok)
	assert.Empty(t, ts.stored())
	assert.Equal(t, 1, logouts)
	assert.Equal(t, 3, ts.clears)
}

func TestLogout_ClearErrorIsSwallowed(t *testing.T) {
	tr := newStubTransport()
	ts := &stubTokenStore{}
	sm := newSessionSvc(tr, ts)
	loginAs(t, sm, tr, plainUser, "T1")

	ts.clearErr = errors.New("redis down")
	sm.Logout(context.Background())

	_, ok := sm.Current()
	assert.False(t, ok)
}

// ---------------------------------------------------------------------------
// Restore
// ---------------------------------------------------------------------------

func TestRestore_IdentityFromClaims(t *testing.T) {
	tr := newStubTransport()
	token := signedToken(t, jwt.MapClaims{
		"id": 3, "name": "Owner of the Corner Bakery", "email": "owner@example.com", "role": "owner", "storeId": 7,
	})
	ts := &stubTokenStore{token: token}
	sm := newSessionSvc(tr, ts)

	var got []ports.SessionEventType
	sm.Subscribe(func(ev ports.SessionEvent) { got = append(got, ev.Type) })

	require.True(t, sm.Restore(context.Background()))

	sess, ok := sm.Current()
	require.True(t, ok)
	assert.True(t, sess.Restored)
	assert.Equal(t, token, sess.Token)
	assert.Equal(t, domain.RoleOwner, sess.Identity.Role)
	assert.Equal(t, int64(3), sess.Identity.ID)
	require.NotNil(t, sess.Identity.StoreID)
	assert.Equal(t, int64(7), *sess.Identity.StoreID)
	assert.Equal(t, []ports.SessionEventType{ports.EventRestore}, got)
	assert.Zero(t, tr.callCount())
}

func TestRestore_OpaqueTokenNeedsNewLogin(t *testing.T) {
	tr := newStubTransport()
	sm := newSessionSvc(tr, &stubTokenStore{token: "opaque"})

	require.True(t, sm.Restore(context.Background()))
	_, known := sm.Role()
	assert.False(t, known)

	_, f := sm.Authorized(context.Background(), domain.OpListStores, nil, nil)
	require.NotNil(t, f)
	assert.Equal(t, domain.KindUnauthenticated, f.Kind)
	assert.Zero(t, tr.callCount())
}

func TestRestore_NothingStored(t *testing.T) {
	sm := newSessionSvc(newStubTransport(), &stubTokenStore{})
	assert.False(t, sm.Restore(context.Background()))

	sm = newSessionSvc(newStubTransport(), &stubTokenStore{loadErr: errors.New("permission denied")})
	assert.False(t, sm.Restore(context.Background()))
}

// ---------------------------------------------------------------------------
// Authorized
// ---------------------------------------------------------------------------

func TestAuthorized_NoSessionNoNetwork(t *testing.T) {
	tr := newStubTransport()
	sm := newSessionSvc(tr, &stubTokenStore{})

	_, f := sm.Authorized(context.Background(), domain.OpListStores, nil, nil)

	require.NotNil(t, f)
	assert.Equal(t, domain.KindUnauthenticated, f.Kind)
	assert.Zero(t, tr.callCount())
}

func TestAuthorized_RoleGateForbidsWithoutNetwork(t *testing.T) {
	tr := newStubTransport()
	sm := newSessionSvc(tr, &stubTokenStore{})
	loginAs(t, sm, tr, plainUser, "T1")
	before := tr.callCount()

	_, f := sm.Authorized(context.Background(), domain.OpListUsers, nil, nil)

	require.NotNil(t, f)
	assert.Equal(t, domain.KindForbidden, f.Kind)
	assert.True(t, errors.Is(f, &domain.Failure{Kind: domain.KindForbidden}))
	assert.Equal(t, before, tr.callCount())
}

func TestAuthorized_SendsBearerTokenAndQuery(t *testing.T) {
	tr := newStubTransport()
	sm := newSessionSvc(tr, &stubTokenStore{})
	loginAs(t, sm, tr, adminUser, "ADM")

	tr.on("GET", "/admin/users", reply(200, []domain.User{}))

	resp, f := sm.Authorized(context.Background(), domain.OpListUsers, domain.Filters{"role": "owner", "name": "ann"}, nil)

	require.Nil(t, f)
	assert.Equal(t, 200, resp.StatusCode)
	call := tr.lastCall()
	assert.Equal(t, "ADM", call.Token)
	assert.Equal(t, "owner", call.Query.Get("role"))
	assert.Equal(t, "ann", call.Query.Get("name"))
	assert.Equal(t, domain.Scope{UserID: adminUser.ID, Role: domain.RoleAdmin}, resp.Scope)
}

func TestAuthorized_UnauthorizedClearsSession(t *testing.T) {
	tr := newStubTransport()
	ts := &stubTokenStore{}
	sm := newSessionSvc(tr, ts)
	loginAs(t, sm, tr, plainUser, "T1")

	var expired int
	sm.Subscribe(func(ev ports.SessionEvent) {
		if ev.Type == ports.EventExpired {
			expired++
		}
	})

	tr.on("GET", "/user/stores", reply(401, map[string]string{"error": "Invalid token"}))

	_, f := sm.Authorized(context.Background(), domain.OpListStores, nil, nil)
	require.NotNil(t, f)
	assert.Equal(t, domain.KindUnauthenticated, f.Kind)
	assert.Equal(t, "Invalid token", f.Message)

	_, ok := sm.Current()
	assert.False(t, ok)
	assert.Empty(t, ts.stored())
	assert.Equal(t, 1, expired)

	calls := tr.callCount()
	_, f = sm.Authorized(context.Background(), domain.OpListStores, nil, nil)
	require.NotNil(t, f)
	assert.Equal(t, domain.KindUnauthenticated, f.Kind)
	assert.Equal(t, calls, tr.callCount())
}

func TestAuthorized_ForbiddenResponseKeepsSession(t *testing.T) {
	tr := newStubTransport()
	sm := newSessionSvc(tr, &stubTokenStore{})
	loginAs(t, sm, tr, plainUser, "T1")

	tr.on("POST", "/user/ratings", reply(403, map[string]string{"error": "Access denied"}))

	_, f := sm.Authorized(context.Background(), domain.OpSubmitRating, nil, nil)
	require.NotNil(t, f)
	assert.Equal(t, domain.KindForbidden, f.Kind)
	_, ok := sm.Current()
	assert.True(t, ok)
}

func TestAuthorized_TokenCopiedAtCallStart(t *testing.T) {
	tr := newStubTransport()
	sm := newSessionSvc(tr, &stubTokenStore{})
	loginAs(t, sm, tr, plainUser, "T1")

	tr.on("GET", "/user/stores", func(_ context.Context, req ports.Request) (*ports.Response, error) {
		sm.Logout(context.Background())
		assert.Equal(t, "T1", req.Token)
		return jsonResponse(200, []domain.Store{}), nil
	})

	_, f := sm.Authorized(context.Background(), domain.OpListStores, nil, nil)
	require.Nil(t, f)
}

func TestAuthorized_UnauthorizedAfterRelogin(t *testing.T) {
	tr := newStubTransport()
	ts := &stubTokenStore{}
	sm := newSessionSvc(tr, ts)
	loginAs(t, sm, tr, plainUser, "T1")

	tr.on("GET", "/user/stores", func(_ context.Context, req ports.Request) (*ports.Response, error) {
		// a newer login lands while the stale call is in flight
		loginAs(t, sm, tr, ownerUser, "T2")
		return jsonResponse(401, map[string]string{"error": "Token expired"}), nil
	})

	_, f := sm.Authorized(context.Background(), domain.OpListStores, nil, nil)
	require.NotNil(t, f)

	_, ok := sm.Current()
	assert.False(t, ok)
	assert.Empty(t, ts.stored())
}

func TestAuthorized_CancelledContextStillClearsToken(t *testing.T) {
	tr := newStubTransport()
	ts := &stubTokenStore{}
	sm := newSessionSvc(tr, ts)
	loginAs(t, sm, tr, plainUser, "T1")

	ctx, cancel := context.WithCancel(context.Background())
	tr.on("GET", "/user/stores", func(context.Context, ports.Request) (*ports.Response, error) {
		cancel()
		return jsonResponse(401, map[string]string{"error": "Invalid token"}), nil
	})

	_, f := sm.Authorized(ctx, domain.OpListStores, nil, nil)
	require.NotNil(t, f)
	assert.Empty(t, ts.stored())
}

// ---------------------------------------------------------------------------
// UpdatePassword
// ---------------------------------------------------------------------------

func TestUpdatePassword(t *testing.T) {
	tr := newStubTransport()
	sm := newSessionSvc(tr, &stubTokenStore{})

	res := sm.UpdatePassword(context.Background(), "old", "N3w!password")
	require.Equal(t, domain.StatusFailure, res.Status)
	assert.Equal(t, domain.KindUnauthenticated, res.Failure.Kind)
	assert.Zero(t, tr.callCount())

	loginAs(t, sm, tr, ownerUser, "T3")
	tr.on("PUT", "/auth/password", func(_ context.Context, req ports.Request) (*ports.Response, error) {
		raw, err := json.Marshal(req.Body)
		require.NoError(t, err)
		assert.JSONEq(t, `{"oldPassword":"old","newPassword":"N3w!password"}`, string(raw))
		assert.Equal(t, "T3", req.Token)
		return jsonResponse(200, map[string]string{"message": "Password updated successfully"}), nil
	})

	res = sm.UpdatePassword(context.Background(), "old", "N3w!password")
	require.True(t, res.OK())
	assert.Equal(t, "Password updated successfully", res.Value)

	sess, ok := sm.Current()
	require.True(t, ok)
	assert.Equal(t, "T3", sess.Token)
}

func TestUpdatePassword_WrongCurrentPassword(t *testing.T) {
	tr := newStubTransport()
	sm := newSessionSvc(tr, &stubTokenStore{})
	loginAs(t, sm, tr, plainUser, "T1")

	tr.on("PUT", "/auth/password", reply(400, map[string]string{"error": "Current password is incorrect"}))

	res := sm.UpdatePassword(context.Background(), "bad", "N3w!password")
	require.Equal(t, domain.StatusFailure, res.Status)
	assert.Equal(t, domain.KindRemote, res.Failure.Kind)
	assert.Equal(t, "Current password is incorrect", res.Failure.Message)
}
