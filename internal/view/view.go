// Package view derives the local, display-side projections of the cached
// collections: search, filters, sorts, rankings and rating summaries. It
// never talks to the network.
package view

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/storerate/rating-client/internal/core/domain"
)

// NoRatingsLabel is shown for a store without any rating.
const NoRatingsLabel = "No ratings yet"

type UserQuery struct {
	// Search matches name, email or address, case-insensitively.
	Search string
	// Role keeps a single role; empty or "all" keeps every role.
	Role string
	// SortBy is one of name, email, role. Anything else keeps server order.
	SortBy string
	Desc   bool
}

// Users filters and sorts a users snapshot without modifying it.
func Users(users []domain.User, q UserQuery) []domain.User {
	out := make([]domain.User, 0, len(users))
	for _, u := range users {
		if !matchesAny(q.Search, u.Name, u.Email, u.Address) {
			continue
		}
		if q.Role != "" && q.Role != "all" && string(u.Role) != q.Role {
			continue
		}
		out = append(out, u)
	}

	switch q.SortBy {
	case "name":
		sortStrings(out, q.Desc, func(u domain.User) string { return u.Name })
	case "email":
		sortStrings(out, q.Desc, func(u domain.User) string { return u.Email })
	case "role":
		sortStrings(out, q.Desc, func(u domain.User) string { return string(u.Role) })
	}
	return out
}

type StoreQuery struct {
	// Search matches name, email or address, case-insensitively.
	Search string
	// Address additionally narrows by address substring.
	Address string
	// SortBy is one of name, email, rating. Rating sorts highest first,
	// unrated stores counting as zero; Desc reverses it.
	SortBy string
	Desc   bool
}

// Stores filters and sorts a stores snapshot without modifying it.
func Stores(stores []domain.Store, q StoreQuery) []domain.Store {
	out := make([]domain.Store, 0, len(stores))
	for _, s := range stores {
		if !matchesAny(q.Search, s.Name, s.Email, s.Address) {
			continue
		}
		if !matchesAny(q.Address, s.Address) {
			continue
		}
		out = append(out, s)
	}

	switch q.SortBy {
	case "name":
		sortStrings(out, q.Desc, func(s domain.Store) string { return s.Name })
	case "email":
		sortStrings(out, q.Desc, func(s domain.Store) string { return s.Email })
	case "rating":
		sort.SliceStable(out, func(i, j int) bool {
			if q.Desc {
				return aggregateOrZero(out[i]) < aggregateOrZero(out[j])
			}
			return aggregateOrZero(out[i]) > aggregateOrZero(out[j])
		})
	}
	return out
}

// BrowseStores is the user-facing search: name or address only.
func BrowseStores(stores []domain.Store, search string) []domain.Store {
	out := make([]domain.Store, 0, len(stores))
	for _, s := range stores {
		if matchesAny(search, s.Name, s.Address) {
			out = append(out, s)
		}
	}
	return out
}

// TopRated returns up to n rated stores, highest aggregate first.
func TopRated(stores []domain.Store, n int) []domain.Store {
	out := make([]domain.Store, 0, len(stores))
	for _, s := range stores {
		if s.Aggregate() != nil {
			out = append(out, s)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return *out[i].Aggregate() > *out[j].Aggregate()
	})
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// RecentUsers returns the last n users of the snapshot, newest first.
func RecentUsers(users []domain.User, n int) []domain.User {
	return lastReversed(users, n)
}

// RatingLabel renders an aggregate with one decimal, or NoRatingsLabel.
func RatingLabel(r *float64) string {
	if r == nil {
		return NoRatingsLabel
	}
	return decimal.NewFromFloat(*r).StringFixed(1)
}

// MyRatingLabel renders the caller's own rating, or "-" when unrated.
func MyRatingLabel(s domain.Store) string {
	if s.MyRating == nil || *s.MyRating == 0 {
		return "-"
	}
	return strings.Repeat("★", *s.MyRating) + strings.Repeat("☆", domain.MaxRating-*s.MyRating)
}

func matchesAny(needle string, fields ...string) bool {
	needle = strings.ToLower(strings.TrimSpace(needle))
	if needle == "" {
		return true
	}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), needle) {
			return true
		}
	}
	return false
}

func sortStrings[T any](items []T, desc bool, key func(T) string) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := strings.ToLower(key(items[i])), strings.ToLower(key(items[j]))
		if desc {
			return a > b
		}
		return a < b
	})
}

func aggregateOrZero(s domain.Store) float64 {
	if r := s.Aggregate(); r != nil {
		return *r
	}
	return 0
}

func lastReversed[T any](items []T, n int) []T {
	if n < 0 || n > len(items) {
		n = len(items)
	}
	out := make([]T, 0, n)
	for i := len(items) - 1; i >= len(items)-n; i-- {
		out = append(out, items[i])
	}
	return out
}
