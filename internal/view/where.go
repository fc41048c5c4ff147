package view

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/storerate/rating-client/internal/core/domain"
)

// WhereUsers keeps the users for which the boolean expression holds, e.g.
//
//	role == "owner" && hasStore && storeRating >= 4
//
// Variables: id, name, email, address, role, hasStore, storeName,
// storeRating (0 when unrated).
func WhereUsers(users []domain.User, expression string) ([]domain.User, error) {
	return where(users, expression, userEnv)
}

// WhereStores keeps the stores for which the boolean expression holds, e.g.
//
//	rated && rating >= 4 && address contains "Main"
//
// Variables: id, name, email, address, rating (0 when unrated), rated,
// myRating (0 when unrated), owned.
func WhereStores(stores []domain.Store, expression string) ([]domain.Store, error) {
	return where(stores, expression, storeEnv)
}

func where[T any](items []T, expression string, env func(T) map[string]any) ([]T, error) {
	var zero T
	program, err := compile(expression, env(zero))
	if err != nil {
		return nil, err
	}

	out := make([]T, 0, len(items))
	for _, item := range items {
		ok, err := expr.Run(program, env(item))
		if err != nil {
			return nil, fmt.Errorf("evaluate %q: %w", expression, err)
		}
		if ok.(bool) {
			out = append(out, item)
		}
	}
	return out, nil
}

func compile(expression string, sample map[string]any) (*vm.Program, error) {
	if expression == "" {
		return nil, fmt.Errorf("expression must not be empty")
	}
	program, err := expr.Compile(expression, expr.Env(sample), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("compile %q: %w", expression, err)
	}
	return program, nil
}

func userEnv(u domain.User) map[string]any {
	storeName, storeRating := "", 0.0
	if u.StoreName != nil {
		storeName = *u.StoreName
	}
	if u.StoreRating != nil {
		storeRating = *u.StoreRating
	}
	return map[string]any{
		"id":          u.ID,
		"name":        u.Name,
		"email":       u.Email,
		"address":     u.Address,
		"role":        string(u.Role),
		"hasStore":    u.StoreID != nil,
		"storeName":   storeName,
		"storeRating": storeRating,
	}
}

func storeEnv(s domain.Store) map[string]any {
	myRating := 0
	if s.MyRating != nil {
		myRating = *s.MyRating
	}
	return map[string]any{
		"id":       s.ID,
		"name":     s.Name,
		"email":    s.Email,
		"address":  s.Address,
		"rating":   aggregateOrZero(s),
		"rated":    s.Aggregate() != nil,
		"myRating": myRating,
		"owned":    s.OwnerID != nil,
	}
}
