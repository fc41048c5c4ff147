package service

import (
	"strconv"

	"github.com/golang-jwt/jwt/v5"

	"github.com/storerate/rating-client/internal/core/domain"
)

// identityFromToken reads the identity claims of a restored token without
// verifying its signature; the server remains the judge of validity. Opaque
// tokens yield ok=false.
func identityFromToken(token string) (domain.User, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return domain.User{}, false
	}

	role, err := domain.ParseRole(claimString(claims, "role"))
	if err != nil {
		return domain.User{}, false
	}

	u := domain.User{
		Name:    claimString(claims, "name"),
		Email:   claimString(claims, "email"),
		Address: claimString(claims, "address"),
		Role:    role,
	}
	if id, ok := claimInt(claims, "id"); ok {
		u.ID = id
	} else if id, ok := claimInt(claims, "sub"); ok {
		u.ID = id
	}
	if sid, ok := claimInt(claims, "storeId"); ok {
		u.StoreID = &sid
	}
	return u, true
}

func claimString(claims jwt.MapClaims, key string) string {
	s, _ := claims[key].(string)
	return s
}

func claimInt(claims jwt.MapClaims, key string) (int64, bool) {
	switch v := claims[key].(type) {
	case float64:
		return int64(v), true
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		return n, err == nil
	default:
		return 0, false
	}
}
