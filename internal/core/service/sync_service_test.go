package service

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storerate/rating-client/internal/core/domain"
	"github.com/storerate/rating-client/internal/core/ports"
)

type syncFixture struct {
	tr *stubTransport
	ts *stubTokenStore
	sm *SessionManager
	sy *Synchronizer
}

func newSyncFixture(t *testing.T, u domain.User, token string) *syncFixture {
	t.Helper()
	f := &syncFixture{tr: newStubTransport(), ts: &stubTokenStore{}}
	f.sm = newSessionSvc(f.tr, f.ts)
	f.sy = NewSynchronizer(f.sm, zerolog.Nop())
	t.Cleanup(f.sy.Close)
	loginAs(t, f.sm, f.tr, u, token)
	return f
}

// ratingBackend is a tiny stateful stand-in for the stores and ratings
// endpoints of the user role.
type ratingBackend struct {
	mu     sync.Mutex
	stores []domain.Store
	mine   map[int64]int
}

func (b *ratingBackend) install(tr *stubTransport) {
	tr.on("GET", "/user/stores", func(context.Context, ports.Request) (*ports.Response, error) {
		b.mu.Lock()
		defer b.mu.Unlock()
		out := make([]domain.Store, len(b.stores))
		for i, s := range b.stores {
			if v, ok := b.mine[s.ID]; ok {
				s.MyRating = ptr(v)
				s.Rating = ptr(float64(v))
			}
			out[i] = s
		}
		return jsonResponse(200, out), nil
	})
	tr.on("POST", "/user/ratings", func(_ context.Context, req ports.Request) (*ports.Response, error) {
		r := req.Body.(ratingRequest)
		if r.Rating < domain.MinRating || r.Rating > domain.MaxRating {
			return jsonResponse(400, map[string]string{"error": "Rating must be between 1 and 5"}), nil
		}
		b.mu.Lock()
		defer b.mu.Unlock()
		b.mine[r.StoreID] = r.Rating
		return jsonResponse(200, map[string]string{"message": "Rating submitted successfully"}), nil
	})
}

// ---------------------------------------------------------------------------
// Fetch
// ---------------------------------------------------------------------------

func TestFetchUsers_ReplacesCacheWholesale(t *testing.T) {
	f := newSyncFixture(t, adminUser, "ADM")

	f.tr.on("GET", "/admin/users", reply(200, []domain.User{
		{ID: 10, Name: "Zed", Role: domain.RoleUser},
		{ID: 4, Name: "Amy", Role: domain.RoleOwner},
		{ID: 7, Name: "Bob", Role: domain.RoleAdmin},
	}))
	res := f.sy.FetchUsers(context.Background(), nil)
	require.True(t, res.OK())
	require.Len(t, f.sy.Users(), 3)
	assert.Equal(t, []int64{10, 4, 7}, userIDs(f.sy.Users()))

	f.tr.on("GET", "/admin/users", reply(200, []domain.User{{ID: 4, Name: "Amy", Role: domain.RoleOwner}}))
	res = f.sy.FetchUsers(context.Background(), domain.Filters{"role": "owner"})
	require.True(t, res.OK())
	assert.Equal(t, []int64{4}, userIDs(f.sy.Users()))
	assert.Equal(t, "owner", f.tr.lastCall().Query.Get("role"))
}

func TestFetchUsers_EmptyListingIsNotNil(t *testing.T) {
	f := newSyncFixture(t, adminUser, "ADM")
	f.tr.on("GET", "/admin/users", func(context.Context, ports.Request) (*ports.Response, error) {
		return &ports.Response{StatusCode: 200, Body: []byte("null")}, nil
	})

	res := f.sy.FetchUsers(context.Background(), nil)
	require.True(t, res.OK())
	assert.NotNil(t, res.Value)
	assert.Empty(t, res.Value)
}

func TestFetch_FailureLeavesCacheUnchanged(t *testing.T) {
	f := newSyncFixture(t, adminUser, "ADM")
	f.tr.on("GET", "/admin/stores", reply(200, []domain.Store{{ID: 1, Name: "Corner Bakery"}}))
	require.True(t, f.sy.FetchStores(context.Background(), nil).OK())

	cases := map[string]handlerFunc{
		"remote":    reply(500, map[string]string{"error": "Internal server error"}),
		"transport": offline,
		"garbage": func(context.Context, ports.Request) (*ports.Response, error) {
			return &ports.Response{StatusCode: 200, Body: []byte("<html>")}, nil
		},
	}
	for name, h := range cases {
		t.Run(name, func(t *testing.T) {
			f.tr.on("GET", "/admin/stores", h)
			res := f.sy.FetchStores(context.Background(), nil)
			require.Equal(t, domain.StatusFailure, res.Status)
			require.Len(t, f.sy.Stores(), 1)
			assert.Equal(t, "Corner Bakery", f.sy.Stores()[0].Name)
		})
	}
}

func TestFetchStores_EndpointByRole(t *testing.T) {
	cases := []struct {
		user domain.User
		path string
	}{
		{adminUser, "/admin/stores"},
		{plainUser, "/user/stores"},
		{ownerUser, "/user/stores"},
	}
	for _, tc := range cases {
		t.Run(string(tc.user.Role), func(t *testing.T) {
			f := newSyncFixture(t, tc.user, "T")
			f.tr.on("GET", tc.path, reply(200, []domain.Store{}))

			res := f.sy.FetchStores(context.Background(), nil)
			require.True(t, res.OK())
			assert.Equal(t, tc.path, f.tr.lastCall().Path)
		})
	}
}

func TestFetchStores_NullAggregateStaysAbsent(t *testing.T) {
	f := newSyncFixture(t, adminUser, "ADM")
	f.tr.on("GET", "/admin/stores", func(context.Context, ports.Request) (*ports.Response, error) {
		return &ports.Response{StatusCode: 200, Body: []byte(
			`[{"id":1,"name":"Quiet Shop","overallRating":null},{"id":2,"name":"Busy Shop","overallRating":4.5}]`,
		)}, nil
	})

	res := f.sy.FetchStores(context.Background(), nil)
	require.True(t, res.OK())
	assert.Nil(t, res.Value[0].Aggregate())
	require.NotNil(t, res.Value[1].Aggregate())
	assert.Equal(t, 4.5, *res.Value[1].Aggregate())
}

func TestFetchUsers_UserRoleForbidden(t *testing.T) {
	f := newSyncFixture(t, plainUser, "T1")
	calls := f.tr.callCount()

	res := f.sy.FetchUsers(context.Background(), nil)

	require.Equal(t, domain.StatusFailure, res.Status)
	assert.Equal(t, domain.KindForbidden, res.Failure.Kind)
	assert.Equal(t, calls, f.tr.callCount())
}

func TestFetchUsers_LastResolvedWins(t *testing.T) {
	f := newSyncFixture(t, adminUser, "ADM")

	arrived := make(chan string, 2)
	release := map[string]chan struct{}{"A": make(chan struct{}), "B": make(chan struct{})}
	f.tr.on("GET", "/admin/users", func(_ context.Context, req ports.Request) (*ports.Response, error) {
		tag := req.Query.Get("name")
		arrived <- tag
		<-release[tag]
		return jsonResponse(200, []domain.User{{ID: 1, Name: tag}}), nil
	})

	done := map[string]chan struct{}{"A": make(chan struct{}), "B": make(chan struct{})}
	fetch := func(tag string) {
		defer close(done[tag])
		f.sy.FetchUsers(context.Background(), domain.Filters{"name": tag})
	}

	go fetch("A")
	require.Equal(t, "A", <-arrived)
	go fetch("B")
	require.Equal(t, "B", <-arrived)

	close(release["B"])
	<-done["B"]
	assert.Equal(t, "B", f.sy.Users()[0].Name)

	close(release["A"])
	<-done["A"]
	assert.Equal(t, "A", f.sy.Users()[0].Name)
}

func TestFetch_StaleScopeDiscarded(t *testing.T) {
	f := newSyncFixture(t, adminUser, "ADM")

	other := adminUser
	other.ID = 99
	f.tr.on("GET", "/admin/users", func(context.Context, ports.Request) (*ports.Response, error) {
		f.sm.Logout(context.Background())
		loginAs(t, f.sm, f.tr, other, "ADM2")
		return jsonResponse(200, []domain.User{{ID: 5, Name: "stale"}}), nil
	})

	res := f.sy.FetchUsers(context.Background(), nil)

	require.Equal(t, domain.StatusFailure, res.Status)
	assert.Equal(t, domain.KindUnauthenticated, res.Failure.Kind)
	assert.Equal(t, sessionChangedMessage, res.Failure.Message)
	assert.Empty(t, f.sy.Users())
}

func TestUsers_ReturnsCopy(t *testing.T) {
	f := newSyncFixture(t, adminUser, "ADM")
	f.tr.on("GET", "/admin/users", reply(200, []domain.User{{ID: 1, Name: "Amy"}}))
	require.True(t, f.sy.FetchUsers(context.Background(), nil).OK())

	snap := f.sy.Users()
	snap[0].Name = "mutated"
	assert.Equal(t, "Amy", f.sy.Users()[0].Name)
}

// ---------------------------------------------------------------------------
// Session scoping
// ---------------------------------------------------------------------------

func TestCaches_ResetOnLogoutAndLogin(t *testing.T) {
	f := newSyncFixture(t, adminUser, "ADM")
	f.tr.on("GET", "/admin/users", reply(200, []domain.User{{ID: 1}}))
	f.tr.on("GET", "/admin/stores", reply(200, []domain.Store{{ID: 1}}))
	require.True(t, f.sy.FetchUsers(context.Background(), nil).OK())
	require.True(t, f.sy.FetchStores(context.Background(), nil).OK())

	var resets int
	f.sy.Subscribe(func(ev ports.CacheEvent) {
		if ev.Reset {
			resets++
		}
	})

	f.sm.Logout(context.Background())
	assert.Empty(t, f.sy.Users())
	assert.Empty(t, f.sy.Stores())
	assert.Equal(t, 2, resets)

	loginAs(t, f.sm, f.tr, plainUser, "T1")
	assert.Equal(t, 4, resets)
}

func TestCaches_KeptOnExpiry(t *testing.T) {
	f := newSyncFixture(t, plainUser, "T1")
	f.tr.on("GET", "/user/stores", reply(200, []domain.Store{{ID: 1, Name: "Corner Bakery"}}))
	require.True(t, f.sy.FetchStores(context.Background(), nil).OK())

	f.tr.on("GET", "/user/stores", reply(401, map[string]string{"error": "Token expired"}))
	res := f.sy.FetchStores(context.Background(), nil)

	require.Equal(t, domain.StatusFailure, res.Status)
	assert.Equal(t, domain.KindUnauthenticated, res.Failure.Kind)
	assert.Len(t, f.sy.Stores(), 1)
	_, ok := f.sm.Current()
	assert.False(t, ok)
}

// ---------------------------------------------------------------------------
// Mutations
// ---------------------------------------------------------------------------

func TestSubmitRating_VisibleAfterReturn(t *testing.T) {
	f := newSyncFixture(t, plainUser, "T1")
	b := &ratingBackend{
		stores: []domain.Store{{ID: 5, Name: "Corner Bakery"}, {ID: 6, Name: "Hardware Hub"}},
		mine:   map[int64]int{},
	}
	b.install(f.tr)

	res := f.sy.SubmitRating(context.Background(), 5, 4)

	require.True(t, res.OK())
	assert.Equal(t, "Rating submitted successfully", res.Message)
	assert.True(t, res.Value.Reconciled)

	stores := f.sy.Stores()
	require.Len(t, stores, 2)
	require.NotNil(t, stores[0].MyRating)
	assert.Equal(t, 4, *stores[0].MyRating)
	assert.Nil(t, stores[1].MyRating)
}

func TestSubmitRating_RejectedSkipsReconciliation(t *testing.T) {
	f := newSyncFixture(t, plainUser, "T1")
	b := &ratingBackend{stores: []domain.Store{{ID: 5}}, mine: map[int64]int{}}
	b.install(f.tr)
	before := f.tr.callCount()

	res := f.sy.SubmitRating(context.Background(), 5, 7)

	require.Equal(t, domain.StatusFailure, res.Status)
	assert.Equal(t, domain.KindRemote, res.Failure.Kind)
	assert.Equal(t, "Rating must be between 1 and 5", res.Failure.Message)
	assert.Equal(t, before+1, f.tr.callCount())
	assert.Empty(t, f.sy.Stores())
}

func TestSubmitRating_OwnerForbidden(t *testing.T) {
	f := newSyncFixture(t, ownerUser, "T3")

	res := f.sy.SubmitRating(context.Background(), 5, 4)

	require.Equal(t, domain.StatusFailure, res.Status)
	assert.Equal(t, domain.KindForbidden, res.Failure.Kind)
}

func TestAddUser_ReconcilesBeforeReturning(t *testing.T) {
	f := newSyncFixture(t, adminUser, "ADM")

	var mu sync.Mutex
	users := []domain.User{adminUser}
	f.tr.on("POST", "/admin/users", func(_ context.Context, req ports.Request) (*ports.Response, error) {
		p := req.Body.(domain.NewUserProfile)
		mu.Lock()
		users = append(users, domain.User{ID: int64(len(users) + 1), Name: p.Name, Email: p.Email, Role: p.Role})
		mu.Unlock()
		return jsonResponse(201, map[string]string{"message": "User created successfully"}), nil
	})
	f.tr.on("GET", "/admin/users", func(_ context.Context, req ports.Request) (*ports.Response, error) {
		assert.Nil(t, req.Query)
		mu.Lock()
		defer mu.Unlock()
		return jsonResponse(200, users), nil
	})
	start := len(f.tr.paths())

	res := f.sy.AddUser(context.Background(), domain.NewUserProfile{
		Name: "Newly Created Store Owner Account", Email: "new@example.com", Password: "Secr3t!pass", Role: domain.RoleOwner,
	})

	require.True(t, res.OK())
	assert.Equal(t, "User created successfully", res.Message)
	assert.True(t, res.Value.Reconciled)
	assert.Equal(t, []string{"POST /admin/users", "GET /admin/users"}, f.tr.paths()[start:])
	assert.Contains(t, emails(f.sy.Users()), "new@example.com")
}

func TestAddStore_ReconcileFailureStillSucceeds(t *testing.T) {
	f := newSyncFixture(t, adminUser, "ADM")
	f.tr.on("GET", "/admin/stores", reply(200, []domain.Store{{ID: 1, Name: "Corner Bakery"}}))
	require.True(t, f.sy.FetchStores(context.Background(), nil).OK())

	f.tr.on("POST", "/admin/stores", func(_ context.Context, req ports.Request) (*ports.Response, error) {
		raw, err := json.Marshal(req.Body)
		require.NoError(t, err)
		assert.JSONEq(t, `{"name":"Hardware Hub","email":"hub@example.com","address":"2 Side St","ownerId":3}`, string(raw))
		return jsonResponse(201, map[string]string{"message": "Store created successfully"}), nil
	})
	f.tr.on("GET", "/admin/stores", offline)

	res := f.sy.AddStore(context.Background(), domain.NewStoreProfile{
		Name: "Hardware Hub", Email: "hub@example.com", Address: "2 Side St", OwnerID: ptr(int64(3)),
	})

	require.True(t, res.OK())
	assert.False(t, res.Value.Reconciled)
	require.NotNil(t, res.Value.ReconcileFailure)
	assert.Equal(t, domain.KindTransport, res.Value.ReconcileFailure.Kind)
	require.Len(t, f.sy.Stores(), 1)
	assert.Equal(t, "Corner Bakery", f.sy.Stores()[0].Name)
}

// ---------------------------------------------------------------------------
// Dashboards and listings
// ---------------------------------------------------------------------------

func TestFetchDashboard_Admin(t *testing.T) {
	f := newSyncFixture(t, adminUser, "ADM")
	f.tr.on("GET", "/admin/dashboard", reply(200, map[string]any{
		"totalUsers": 12, "totalStores": 4, "totalRatings": 30, "averageRating": 3.8,
	}))

	res := f.sy.FetchDashboard(context.Background())

	require.True(t, res.OK())
	require.NotNil(t, res.Value.Admin)
	assert.Nil(t, res.Value.Owner)
	assert.Equal(t, 12, res.Value.Admin.TotalUsers)
	assert.Equal(t, 30, res.Value.Admin.TotalRatings)
}

func TestFetchDashboard_OwnerWithoutStore(t *testing.T) {
	f := newSyncFixture(t, ownerUser, "T3")
	f.tr.on("GET", "/owner/dashboard", reply(200, map[string]any{
		"hasStore": false, "message": "No store assigned to this owner",
	}))

	res := f.sy.FetchDashboard(context.Background())

	assert.Equal(t, domain.StatusUnassigned, res.Status)
	assert.Equal(t, "No store assigned to this owner", res.Message)
	assert.Nil(t, res.Failure)

	label := domain.Match(res,
		func(domain.Dashboard) string { return "dashboard" },
		func(_ domain.Dashboard, msg string) string { return msg },
		func(f *domain.Failure) string { return f.Message },
	)
	assert.Equal(t, "No store assigned to this owner", label)
}

func TestFetchDashboard_OwnerWithStore(t *testing.T) {
	f := newSyncFixture(t, ownerUser, "T3")
	f.tr.on("GET", "/owner/dashboard", reply(200, map[string]any{
		"storeId": 7, "storeName": "Corner Bakery", "averageRating": 4.25, "totalRatings": 4,
		"ratings": []map[string]any{{"id": 1, "userName": "Amy", "rating": 5}},
	}))

	res := f.sy.FetchDashboard(context.Background())

	require.True(t, res.OK())
	require.NotNil(t, res.Value.Owner)
	assert.Equal(t, "Corner Bakery", res.Value.Owner.StoreName)
	assert.Len(t, res.Value.Owner.Ratings, 1)
}

func TestFetchOwnerRatings(t *testing.T) {
	f := newSyncFixture(t, ownerUser, "T3")

	f.tr.on("GET", "/owner/ratings", reply(200, map[string]any{"hasStore": false}))
	res := f.sy.FetchOwnerRatings(context.Background())
	assert.Equal(t, domain.StatusUnassigned, res.Status)
	assert.Equal(t, noStoreMessage, res.Message)

	f.tr.on("GET", "/owner/ratings", reply(200, map[string]any{"storeId": 7, "storeName": "Corner Bakery"}))
	res = f.sy.FetchOwnerRatings(context.Background())
	require.True(t, res.OK())
	assert.NotNil(t, res.Value.Ratings)
	assert.Empty(t, res.Value.Ratings)
}

func TestListOwners(t *testing.T) {
	f := newSyncFixture(t, adminUser, "ADM")
	f.tr.on("GET", "/admin/owners", reply(200, []domain.Owner{{ID: 3, Name: "Owner of the Corner Bakery"}}))

	res := f.sy.ListOwners(context.Background())
	require.True(t, res.OK())
	require.Len(t, res.Value, 1)
	assert.Equal(t, int64(3), res.Value[0].ID)

	g := newSyncFixture(t, plainUser, "T1")
	assert.Equal(t, domain.KindForbidden, g.sy.ListOwners(context.Background()).Failure.Kind)
}

func userIDs(us []domain.User) []int64 {
	out := make([]int64, len(us))
	for i, u := range us {
		out[i] = u.ID
	}
	return out
}

func emails(us []domain.User) []string {
	out := make([]string, len(us))
	for i, u := range us {
		out[i] = u.Email
	}
	return out
}

// shiftingAuthorizer reports one session from Current while calls go out
// under the real one, as when a login lands between the two reads.
type shiftingAuthorizer struct {
	*SessionManager
	reported domain.Session
}

func (a shiftingAuthorizer) Current() (domain.Session, bool) {
	return a.reported, true
}

func TestFetchDashboard_DecodesForIssuingRole(t *testing.T) {
	tr := newStubTransport()
	sm := newSessionSvc(tr, &stubTokenStore{})
	loginAs(t, sm, tr, ownerUser, "T3")
	tr.on("GET", "/owner/dashboard", reply(200, map[string]any{
		"storeId": 7, "storeName": "Corner Bakery", "totalRatings": 0, "ratings": []any{},
	}))

	auth := shiftingAuthorizer{SessionManager: sm, reported: domain.Session{Identity: adminUser, Token: "ADM"}}
	sy := NewSynchronizer(auth, zerolog.Nop())
	t.Cleanup(sy.Close)

	res := sy.FetchDashboard(context.Background())

	require.True(t, res.OK(), "%+v", res.Failure)
	assert.Equal(t, domain.RoleOwner, res.Value.Role)
	assert.Nil(t, res.Value.Admin)
	require.NotNil(t, res.Value.Owner)
	assert.Equal(t, "Corner Bakery", res.Value.Owner.StoreName)
	assert.Equal(t, "/owner/dashboard", tr.lastCall().Path)
}
