// Package memdb is the in-memory data layer of the development backend:
// accounts, stores and ratings with the listing, aggregation and mutation
// rules the real API applies.
package memdb

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/storerate/rating-client/internal/core/domain"
)

type account struct {
	id           int64
	name         string
	email        string
	address      string
	role         domain.Role
	passwordHash []byte
}

type storeRec struct {
	id      int64
	name    string
	email   string
	address string
	ownerID *int64
}

type ratingRec struct {
	id        int64
	storeID   int64
	userID    int64
	value     int
	createdAt time.Time
}

type Options struct {
	// BcryptCost defaults to bcrypt.DefaultCost.
	BcryptCost int
	Now        func() time.Time
}

// DB is safe for concurrent use.
type DB struct {
	mu       sync.RWMutex
	accounts []*account
	stores   []*storeRec
	ratings  []*ratingRec
	nextID   int64

	cost int
	now  func() time.Time
}

func New(opts Options) *DB {
	cost := opts.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &DB{cost: cost, now: now}
}

// Ping reports readiness. The in-memory store is always ready unless ctx
// is done.
func (db *DB) Ping(ctx context.Context) error {
	return ctx.Err()
}

// ---------------------------------------------------------------------------
// Accounts
// ---------------------------------------------------------------------------

// CreateAccount registers an account with a bcrypt-hashed password.
func (db *DB) CreateAccount(_ context.Context, p domain.NewUserProfile) (domain.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(p.Password), db.cost)
	if err != nil {
		return domain.User{}, err
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	if db.accountByEmail(p.Email) != nil {
		return domain.User{}, ErrEmailTaken
	}
	db.nextID++
	a := &account{
		id:           db.nextID,
		name:         p.Name,
		email:        strings.ToLower(strings.TrimSpace(p.Email)),
		address:      p.Address,
		role:         p.Role,
		passwordHash: hash,
	}
	db.accounts = append(db.accounts, a)
	return db.userView(a), nil
}

// Authenticate checks credentials. Unknown email and wrong password are
// indistinguishable to the caller.
func (db *DB) Authenticate(_ context.Context, email, password string) (domain.User, error) {
	db.mu.RLock()
	a := db.accountByEmail(email)
	var u domain.User
	var hash []byte
	if a != nil {
		u = db.userView(a)
		hash = a.passwordHash
	}
	db.mu.RUnlock()

	if a == nil {
		return domain.User{}, ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword(hash, []byte(password)) != nil {
		return domain.User{}, ErrInvalidCredentials
	}
	return u, nil
}

func (db *DB) UpdatePassword(_ context.Context, userID int64, oldPassword, newPassword string) error {
	db.mu.RLock()
	a := db.accountByID(userID)
	var hash []byte
	if a != nil {
		hash = a.passwordHash
	}
	db.mu.RUnlock()

	if a == nil {
		return ErrUserNotFound
	}
	if bcrypt.CompareHashAndPassword(hash, []byte(oldPassword)) != nil {
		return ErrWrongPassword
	}
	next, err := bcrypt.GenerateFromPassword([]byte(newPassword), db.cost)
	if err != nil {
		return err
	}

	db.mu.Lock()
	a.passwordHash = next
	db.mu.Unlock()
	return nil
}

// Users lists accounts matching the name/email/address substring filters
// and the exact role filter, sorted by sortBy/sortOrder.
func (db *DB) Users(_ context.Context, f domain.Filters) []domain.User {
	db.mu.RLock()
	defer db.mu.RUnlock()

	out := make([]domain.User, 0, len(db.accounts))
	for _, a := range db.accounts {
		if !contains(a.name, f["name"]) || !contains(a.email, f["email"]) || !contains(a.address, f["address"]) {
			continue
		}
		if r := f["role"]; r != "" && string(a.role) != r {
			continue
		}
		out = append(out, db.userView(a))
	}

	desc := strings.EqualFold(f["sortOrder"], "desc")
	switch f["sortBy"] {
	case "email":
		sortBy(out, desc, func(u domain.User) string { return u.Email })
	case "role":
		sortBy(out, desc, func(u domain.User) string { return string(u.Role) })
	case "address":
		sortBy(out, desc, func(u domain.User) string { return u.Address })
	case "name":
		sortBy(out, desc, func(u domain.User) string { return strings.ToLower(u.Name) })
	}
	return out
}

// Owners lists owner accounts that have no store yet.
func (db *DB) Owners(_ context.Context) []domain.Owner {
	db.mu.RLock()
	defer db.mu.RUnlock()

	out := []domain.Owner{}
	for _, a := range db.accounts {
		if a.role == domain.RoleOwner && db.storeOfOwner(a.id) == nil {
			out = append(out, domain.Owner{ID: a.id, Name: a.name, Email: a.email})
		}
	}
	return out
}

// ---------------------------------------------------------------------------
// Stores and ratings
// ---------------------------------------------------------------------------

func (db *DB) CreateStore(_ context.Context, p domain.NewStoreProfile) (domain.Store, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	email := strings.ToLower(strings.TrimSpace(p.Email))
	for _, s := range db.stores {
		if s.email == email {
			return domain.Store{}, ErrStoreEmailTaken
		}
	}
	if p.OwnerID != nil {
		owner := db.accountByID(*p.OwnerID)
		if owner == nil || owner.role != domain.RoleOwner {
			return domain.Store{}, ErrOwnerNotFound
		}
		if db.storeOfOwner(owner.id) != nil {
			return domain.Store{}, ErrOwnerHasStore
		}
	}

	db.nextID++
	s := &storeRec{id: db.nextID, name: p.Name, email: email, address: p.Address}
	if p.OwnerID != nil {
		id := *p.OwnerID
		s.ownerID = &id
	}
	db.stores = append(db.stores, s)
	return db.adminStoreView(s), nil
}

// AdminStores lists every store with its aggregate in "rating".
func (db *DB) AdminStores(_ context.Context, f domain.Filters) []domain.Store {
	db.mu.RLock()
	defer db.mu.RUnlock()

	out := make([]domain.Store, 0, len(db.stores))
	for _, s := range db.stores {
		if !contains(s.name, f["name"]) || !contains(s.email, f["email"]) || !contains(s.address, f["address"]) {
			continue
		}
		out = append(out, db.adminStoreView(s))
	}
	sortStores(out, f)
	return out
}

// UserStores lists stores with the aggregate in "overallRating" and the
// caller's own rating in "myRating".
func (db *DB) UserStores(_ context.Context, userID int64, f domain.Filters) []domain.Store {
	db.mu.RLock()
	defer db.mu.RUnlock()

	out := make([]domain.Store, 0, len(db.stores))
	for _, s := range db.stores {
		if !contains(s.name, f["name"]) || !contains(s.address, f["address"]) {
			continue
		}
		v := domain.Store{
			ID:            s.id,
			Name:          s.name,
			Email:         s.email,
			Address:       s.address,
			OverallRating: db.average(s.id),
		}
		if r := db.ratingOf(userID, s.id); r != nil {
			mine := r.value
			v.MyRating = &mine
		}
		out = append(out, v)
	}
	sortStores(out, f)
	return out
}

// SubmitRating records or replaces the caller's rating of a store. It
// reports whether an existing rating was replaced.
func (db *DB) SubmitRating(_ context.Context, userID, storeID int64, value int) (updated bool, err error) {
	if value < domain.MinRating || value > domain.MaxRating {
		return false, ErrRatingRange
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	if db.storeByID(storeID) == nil {
		return false, ErrStoreNotFound
	}
	if r := db.ratingOf(userID, storeID); r != nil {
		r.value = value
		r.createdAt = db.now().UTC()
		return true, nil
	}
	db.nextID++
	db.ratings = append(db.ratings, &ratingRec{
		id:        db.nextID,
		storeID:   storeID,
		userID:    userID,
		value:     value,
		createdAt: db.now().UTC(),
	})
	return false, nil
}

func (db *DB) AdminDashboard(_ context.Context) domain.AdminDashboard {
	db.mu.RLock()
	defer db.mu.RUnlock()

	d := domain.AdminDashboard{
		TotalUsers:   len(db.accounts),
		TotalStores:  len(db.stores),
		TotalRatings: len(db.ratings),
	}
	values := make([]int, 0, len(db.ratings))
	for _, r := range db.ratings {
		values = append(values, r.value)
	}
	d.AverageRating = averageOf(values)
	return d
}

// OwnerSummary returns the owner's store with its ratings, newest first.
func (db *DB) OwnerSummary(_ context.Context, ownerID int64) domain.OwnerSummary {
	db.mu.RLock()
	defer db.mu.RUnlock()

	s := db.storeOfOwner(ownerID)
	if s == nil {
		no := false
		return domain.OwnerSummary{HasStore: &no, Message: "No store assigned to this owner"}
	}

	yes := true
	id := s.id
	sum := domain.OwnerSummary{
		HasStore:      &yes,
		StoreID:       &id,
		StoreName:     s.name,
		AverageRating: db.average(s.id),
		Ratings:       []domain.Rating{},
	}
	for _, r := range db.ratings {
		if r.storeID != s.id {
			continue
		}
		name := ""
		if a := db.accountByID(r.userID); a != nil {
			name = a.name
		}
		sum.Ratings = append(sum.Ratings, domain.Rating{
			ID: r.id, StoreID: r.storeID, UserID: r.userID, UserName: name, Rating: r.value, CreatedAt: r.createdAt,
		})
	}
	sort.SliceStable(sum.Ratings, func(i, j int) bool {
		return sum.Ratings[i].CreatedAt.After(sum.Ratings[j].CreatedAt)
	})
	sum.TotalRatings = len(sum.Ratings)
	return sum
}

// ---------------------------------------------------------------------------
// Helpers; callers hold db.mu.
// ---------------------------------------------------------------------------

func (db *DB) accountByEmail(email string) *account {
	email = strings.ToLower(strings.TrimSpace(email))
	for _, a := range db.accounts {
		if a.email == email {
			return a
		}
	}
	return nil
}

func (db *DB) accountByID(id int64) *account {
	for _, a := range db.accounts {
		if a.id == id {
			return a
		}
	}
	return nil
}

func (db *DB) storeByID(id int64) *storeRec {
	for _, s := range db.stores {
		if s.id == id {
			return s
		}
	}
	return nil
}

func (db *DB) storeOfOwner(ownerID int64) *storeRec {
	for _, s := range db.stores {
		if s.ownerID != nil && *s.ownerID == ownerID {
			return s
		}
	}
	return nil
}

func (db *DB) ratingOf(userID, storeID int64) *ratingRec {
	for _, r := range db.ratings {
		if r.userID == userID && r.storeID == storeID {
			return r
		}
	}
	return nil
}

func (db *DB) average(storeID int64) *float64 {
	var values []int
	for _, r := range db.ratings {
		if r.storeID == storeID {
			values = append(values, r.value)
		}
	}
	return averageOf(values)
}

func (db *DB) userView(a *account) domain.User {
	u := domain.User{ID: a.id, Name: a.name, Email: a.email, Address: a.address, Role: a.role}
	if a.role == domain.RoleOwner {
		if s := db.storeOfOwner(a.id); s != nil {
			id, name := s.id, s.name
			u.StoreID = &id
			u.StoreName = &name
			u.StoreRating = db.average(s.id)
		}
	}
	return u
}

func (db *DB) adminStoreView(s *storeRec) domain.Store {
	v := domain.Store{ID: s.id, Name: s.name, Email: s.email, Address: s.address, Rating: db.average(s.id)}
	if s.ownerID != nil {
		id := *s.ownerID
		v.OwnerID = &id
	}
	return v
}

// averageOf is the mean rounded to two places, or nil without values.
func averageOf(values []int) *float64 {
	if len(values) == 0 {
		return nil
	}
	sum := decimal.Zero
	for _, v := range values {
		sum = sum.Add(decimal.NewFromInt(int64(v)))
	}
	avg, _ := sum.DivRound(decimal.NewFromInt(int64(len(values))), 2).Float64()
	return &avg
}

func contains(field, needle string) bool {
	if needle == "" {
		return true
	}
	return strings.Contains(strings.ToLower(field), strings.ToLower(strings.TrimSpace(needle)))
}

func sortBy[T any](items []T, desc bool, key func(T) string) {
	sort.SliceStable(items, func(i, j int) bool {
		if desc {
			return key(items[i]) > key(items[j])
		}
		return key(items[i]) < key(items[j])
	})
}

func sortStores(out []domain.Store, f domain.Filters) {
	desc := strings.EqualFold(f["sortOrder"], "desc")
	switch f["sortBy"] {
	case "name":
		sortBy(out, desc, func(s domain.Store) string { return strings.ToLower(s.Name) })
	case "email":
		sortBy(out, desc, func(s domain.Store) string { return s.Email })
	case "address":
		sortBy(out, desc, func(s domain.Store) string { return s.Address })
	case "rating":
		sort.SliceStable(out, func(i, j int) bool {
			a, b := ratingKey(out[i]), ratingKey(out[j])
			if desc {
				return a > b
			}
			return a < b
		})
	}
}

func ratingKey(s domain.Store) float64 {
	if r := s.Aggregate(); r != nil {
		return *r
	}
	return 0
}
