package domain

import "time"

// Store is a rated store. The admin listing reports its aggregate as
// "rating", the user-facing listing as "overallRating" together with the
// caller's own rating.
type Store struct {
	ID            int64    `json:"id"`
	Name          string   `json:"name"`
	Email         string   `json:"email"`
	Address       string   `json:"address"`
	OverallRating *float64 `json:"overallRating,omitempty"`
	Rating        *float64 `json:"rating,omitempty"`
	OwnerID       *int64   `json:"ownerId,omitempty"`
	MyRating      *int     `json:"myRating,omitempty"`
}

// Aggregate returns the server-computed aggregate, or nil when the store
// has no ratings yet. Nil must never be presented as 0.0.
func (s Store) Aggregate() *float64 {
	if s.OverallRating != nil {
		return s.OverallRating
	}
	return s.Rating
}

// Rating is a single rating as embedded in owner dashboard responses.
type Rating struct {
	ID        int64     `json:"id"`
	StoreID   int64     `json:"storeId"`
	UserID    int64     `json:"userId"`
	UserName  string    `json:"userName"`
	Rating    int       `json:"rating"`
	CreatedAt time.Time `json:"createdAt"`
}

// MinRating and MaxRating bound a rating value.
const (
	MinRating = 1
	MaxRating = 5
)

// AdminDashboard holds the platform totals.
type AdminDashboard struct {
	TotalUsers    int      `json:"totalUsers"`
	TotalStores   int      `json:"totalStores"`
	TotalRatings  int      `json:"totalRatings"`
	AverageRating *float64 `json:"averageRating,omitempty"`
}

// OwnerSummary is the body shared by the owner dashboard and the owner
// ratings listing. HasStore=false is the "no store assigned" channel.
type OwnerSummary struct {
	HasStore      *bool    `json:"hasStore,omitempty"`
	Message       string   `json:"message,omitempty"`
	StoreID       *int64   `json:"storeId,omitempty"`
	StoreName     string   `json:"storeName,omitempty"`
	AverageRating *float64 `json:"averageRating,omitempty"`
	TotalRatings  int      `json:"totalRatings"`
	Ratings       []Rating `json:"ratings"`
}

// Unassigned reports whether the server flagged the owner as storeless.
func (o OwnerSummary) Unassigned() bool {
	return o.HasStore != nil && !*o.HasStore
}

type (
	OwnerDashboard = OwnerSummary
	OwnerRatings   = OwnerSummary
)

// Dashboard is the role-dependent dashboard payload; exactly one of Admin
// or Owner is set, matching Role.
type Dashboard struct {
	Role  Role
	Admin *AdminDashboard
	Owner *OwnerDashboard
}

// MutationOutcome describes a successful write and its reconciliation fetch.
type MutationOutcome struct {
	Message string
	// Reconciled is false when the follow-up fetch failed; the cache then
	// still holds the pre-mutation snapshot.
	Reconciled       bool
	ReconcileFailure *Failure
}
