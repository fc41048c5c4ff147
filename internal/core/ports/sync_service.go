package ports

import (
	"context"

	"github.com/storerate/rating-client/internal/core/domain"
)

// Collection names a cached collection.
type Collection string

const (
	CollectionUsers  Collection = "users"
	CollectionStores Collection = "stores"
)

// CacheEvent is delivered after a cache was replaced or reset.
type CacheEvent struct {
	Collection Collection
	Size       int
	Reset      bool
}

// SyncService is the Data Synchronizer surface used by consumers.
type SyncService interface {
	FetchUsers(ctx context.Context, filters domain.Filters) domain.Result[[]domain.User]
	FetchStores(ctx context.Context, filters domain.Filters) domain.Result[[]domain.Store]
	FetchDashboard(ctx context.Context) domain.Result[domain.Dashboard]
	FetchOwnerRatings(ctx context.Context) domain.Result[domain.OwnerRatings]
	ListOwners(ctx context.Context) domain.Result[[]domain.Owner]

	AddUser(ctx context.Context, profile domain.NewUserProfile) domain.Result[domain.MutationOutcome]
	AddStore(ctx context.Context, profile domain.NewStoreProfile) domain.Result[domain.MutationOutcome]
	SubmitRating(ctx context.Context, storeID int64, value int) domain.Result[domain.MutationOutcome]

	Users() []domain.User
	Stores() []domain.Store
	Subscribe(fn func(CacheEvent)) (cancel func())
}
