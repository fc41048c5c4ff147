package service

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/storerate/rating-client/internal/core/domain"
	"github.com/storerate/rating-client/internal/core/ports"
	"github.com/storerate/rating-client/internal/metrics"
)

const (
	noStoreMessage        = "No store assigned"
	sessionChangedMessage = "session changed while the request was in flight"
)

// Synchronizer caches the users and stores collections for the current
// session scope and mediates every data read and write.
//
// Caches are only ever replaced wholesale by a successful fetch. Writes use a
// two-step protocol: the remote write, then an awaited reconciliation fetch.
// There is no optimistic patching; a caller that sees success can read the
// cache and find the server's view of the mutation.
type Synchronizer struct {
	auth ports.Authorizer
	log  zerolog.Logger

	mu     sync.RWMutex
	scope  domain.Scope
	users  []domain.User
	stores []domain.Store

	subs          subscribers[ports.CacheEvent]
	cancelSession func()
}

var _ ports.SyncService = (*Synchronizer)(nil)

func NewSynchronizer(auth ports.Authorizer, log zerolog.Logger) *Synchronizer {
	s := &Synchronizer{auth: auth, log: log}
	if sess, ok := auth.Current(); ok {
		s.scope = sess.Scope()
	}
	s.cancelSession = auth.Subscribe(s.onSession)
	return s
}

// Close detaches the Synchronizer from session events.
func (s *Synchronizer) Close() {
	s.cancelSession()
}

// onSession rescopes the caches. Login, restore and logout reset them; an
// expired session keeps its last snapshots, since a failed call never
// clears a cache, but no later fetch can land in them until a new login.
func (s *Synchronizer) onSession(ev ports.SessionEvent) {
	s.mu.Lock()
	s.scope = ev.Session.Scope()
	if ev.Type == ports.EventExpired {
		s.mu.Unlock()
		return
	}
	s.users = nil
	s.stores = nil
	s.mu.Unlock()

	for _, c := range []ports.Collection{ports.CollectionUsers, ports.CollectionStores} {
		metrics.CacheSize.WithLabelValues(string(c)).Set(0)
		s.subs.publish(ports.CacheEvent{Collection: c, Reset: true})
	}
}

func (s *Synchronizer) Subscribe(fn func(ports.CacheEvent)) (cancel func()) {
	return s.subs.add(fn)
}

// Users returns a copy of the cached users snapshot.
func (s *Synchronizer) Users() []domain.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneSlice(s.users)
}

// Stores returns a copy of the cached stores snapshot.
func (s *Synchronizer) Stores() []domain.Store {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneSlice(s.stores)
}

// FetchUsers replaces the users cache with the server's filtered listing.
func (s *Synchronizer) FetchUsers(ctx context.Context, filters domain.Filters) domain.Result[[]domain.User] {
	return fetchCollection(ctx, s, domain.OpListUsers, ports.CollectionUsers, filters, func(v []domain.User) {
		s.users = v
	})
}

// FetchStores replaces the stores cache. The endpoint depends on the role:
// admins get the administrative listing, users and owners the user-facing
// one carrying their own prior rating.
func (s *Synchronizer) FetchStores(ctx context.Context, filters domain.Filters) domain.Result[[]domain.Store] {
	return fetchCollection(ctx, s, domain.OpListStores, ports.CollectionStores, filters, func(v []domain.Store) {
		s.stores = v
	})
}

// fetchCollection runs a list operation and, on success, replaces the cache
// through assign. Results that arrive after the session scope changed are
// dropped. Concurrent fetches apply in resolution order.
func fetchCollection[T any](
	ctx context.Context,
	s *Synchronizer,
	op domain.Operation,
	coll ports.Collection,
	filters domain.Filters,
	assign func([]T),
) domain.Result[[]T] {
	resp, f := s.auth.Authorized(ctx, op, filters, nil)
	if f != nil {
		return domain.Fail[[]T](f)
	}
	scope := resp.Scope
	items, f := decodeBody[[]T](resp)
	if f != nil {
		s.log.Warn().Str("collection", string(coll)).Msg("undecodable listing")
		return domain.Fail[[]T](f)
	}
	if items == nil {
		items = []T{}
	}

	s.mu.Lock()
	if s.scope != scope {
		s.mu.Unlock()
		metrics.CacheDiscardsTotal.WithLabelValues(string(coll)).Inc()
		s.log.Debug().Str("collection", string(coll)).Msg("stale fetch discarded")
		return domain.Fail[[]T](domain.NewFailure(domain.KindUnauthenticated, sessionChangedMessage))
	}
	assign(items)
	s.mu.Unlock()

	metrics.CacheReplacementsTotal.WithLabelValues(string(coll)).Inc()
	metrics.CacheSize.WithLabelValues(string(coll)).Set(float64(len(items)))
	s.subs.publish(ports.CacheEvent{Collection: coll, Size: len(items)})

	return domain.Success(cloneSlice(items))
}

// FetchDashboard returns the role's dashboard. It is not cached. An owner
// without a store gets an Unassigned result. The body is decoded for the
// role the call was issued under.
func (s *Synchronizer) FetchDashboard(ctx context.Context) domain.Result[domain.Dashboard] {
	resp, f := s.auth.Authorized(ctx, domain.OpDashboard, nil, nil)
	if f != nil {
		return domain.Fail[domain.Dashboard](f)
	}
	role := resp.Scope.Role

	switch role {
	case domain.RoleAdmin:
		d, f := decodeBody[domain.AdminDashboard](resp)
		if f != nil {
			return domain.Fail[domain.Dashboard](f)
		}
		return domain.Success(domain.Dashboard{Role: role, Admin: &d})
	default:
		d, f := decodeBody[domain.OwnerDashboard](resp)
		if f != nil {
			return domain.Fail[domain.Dashboard](f)
		}
		dash := domain.Dashboard{Role: role, Owner: &d}
		if d.Unassigned() {
			return domain.Unassigned(dash, unassignedMessage(d))
		}
		return domain.Success(dash)
	}
}

// FetchOwnerRatings returns the full rating list of the owner's store. It is
// not cached.
func (s *Synchronizer) FetchOwnerRatings(ctx context.Context) domain.Result[domain.OwnerRatings] {
	resp, f := s.auth.Authorized(ctx, domain.OpOwnerRatings, nil, nil)
	if f != nil {
		return domain.Fail[domain.OwnerRatings](f)
	}
	r, f := decodeBody[domain.OwnerRatings](resp)
	if f != nil {
		return domain.Fail[domain.OwnerRatings](f)
	}
	if r.Unassigned() {
		return domain.Unassigned(r, unassignedMessage(r))
	}
	if r.Ratings == nil {
		r.Ratings = []domain.Rating{}
	}
	return domain.Success(r)
}

// ListOwners returns the owner accounts an admin can assign a store to.
func (s *Synchronizer) ListOwners(ctx context.Context) domain.Result[[]domain.Owner] {
	resp, f := s.auth.Authorized(ctx, domain.OpListOwners, nil, nil)
	if f != nil {
		return domain.Fail[[]domain.Owner](f)
	}
	owners, f := decodeBody[[]domain.Owner](resp)
	if f != nil {
		return domain.Fail[[]domain.Owner](f)
	}
	if owners == nil {
		owners = []domain.Owner{}
	}
	return domain.Success(owners)
}

// AddUser creates a user, then refetches the users cache before returning.
func (s *Synchronizer) AddUser(ctx context.Context, profile domain.NewUserProfile) domain.Result[domain.MutationOutcome] {
	return s.mutate(ctx, domain.OpCreateUser, profile, func(ctx context.Context) *domain.Failure {
		return s.FetchUsers(ctx, nil).Failure
	})
}

// AddStore creates a store, then refetches the stores cache before returning.
func (s *Synchronizer) AddStore(ctx context.Context, profile domain.NewStoreProfile) domain.Result[domain.MutationOutcome] {
	return s.mutate(ctx, domain.OpCreateStore, profile, func(ctx context.Context) *domain.Failure {
		return s.FetchStores(ctx, nil).Failure
	})
}

type ratingRequest struct {
	StoreID int64 `json:"storeId"`
	Rating  int   `json:"rating"`
}

// SubmitRating writes the caller's rating, then refetches the stores cache
// so the new aggregate and the caller's own rating are visible. The 1..5
// range is enforced by the server.
func (s *Synchronizer) SubmitRating(ctx context.Context, storeID int64, value int) domain.Result[domain.MutationOutcome] {
	return s.mutate(ctx, domain.OpSubmitRating, ratingRequest{StoreID: storeID, Rating: value}, func(ctx context.Context) *domain.Failure {
		return s.FetchStores(ctx, nil).Failure
	})
}

// mutate performs the write and the awaited reconciliation fetch. A failed
// reconciliation does not undo the write: the result is still a success,
// flagged Reconciled=false, and the cache keeps its previous snapshot.
func (s *Synchronizer) mutate(
	ctx context.Context,
	op domain.Operation,
	body any,
	reconcile func(context.Context) *domain.Failure,
) domain.Result[domain.MutationOutcome] {
	resp, f := s.auth.Authorized(ctx, op, nil, body)
	if f != nil {
		return domain.Fail[domain.MutationOutcome](f)
	}
	out := domain.MutationOutcome{Message: decodeMessage(resp)}

	if rf := reconcile(ctx); rf != nil {
		s.log.Warn().Str("operation", op.String()).Str("reason", rf.Message).Msg("reconciliation fetch failed")
		out.ReconcileFailure = rf
	} else {
		out.Reconciled = true
	}
	return domain.SuccessWithMessage(out, out.Message)
}

func unassignedMessage(o domain.OwnerSummary) string {
	if o.Message != "" {
		return o.Message
	}
	return noStoreMessage
}

func cloneSlice[T any](in []T) []T {
	if in == nil {
		return nil
	}
	out := make([]T, len(in))
	copy(out, in)
	return out
}
