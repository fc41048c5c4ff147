package handler

import (
	"context"

	"github.com/storerate/rating-client/internal/core/domain"
)

// Backend is the data layer the handlers serve from.
type Backend interface {
	CreateAccount(ctx context.Context, p domain.NewUserProfile) (domain.User, error)
	Authenticate(ctx context.Context, email, password string) (domain.User, error)
	UpdatePassword(ctx context.Context, userID int64, oldPassword, newPassword string) error
	Users(ctx context.Context, f domain.Filters) []domain.User
	Owners(ctx context.Context) []domain.Owner

	CreateStore(ctx context.Context, p domain.NewStoreProfile) (domain.Store, error)
	AdminStores(ctx context.Context, f domain.Filters) []domain.Store
	UserStores(ctx context.Context, userID int64, f domain.Filters) []domain.Store
	SubmitRating(ctx context.Context, userID, storeID int64, value int) (updated bool, err error)

	AdminDashboard(ctx context.Context) domain.AdminDashboard
	OwnerSummary(ctx context.Context, ownerID int64) domain.OwnerSummary
}

// TokenIssuer signs session tokens.
type TokenIssuer interface {
	Issue(u domain.User) (string, error)
}

type messageResponse struct {
	Message string `json:"message"`
}
