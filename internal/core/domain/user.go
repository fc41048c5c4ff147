package domain

// User is a platform account as the server describes it. Owner accounts
// additionally carry their assigned store.
type User struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Address string `json:"address"`
	Role    Role   `json:"role"`

	StoreID     *int64   `json:"storeId,omitempty"`
	StoreName   *string  `json:"storeName,omitempty"`
	StoreRating *float64 `json:"storeRating,omitempty"`
}

// HasStore reports whether an owner account has a store assigned.
func (u User) HasStore() bool {
	return u.Role == RoleOwner && u.StoreID != nil
}

// Owner is the trimmed user record returned by the owner picker listing.
type Owner struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Session is the authenticated identity plus its credential token.
type Session struct {
	Identity User
	Token    string
	// Restored marks a session rebuilt from durable storage. Its identity
	// comes from unverified token claims and may be incomplete.
	Restored bool
}

// Scope identifies whose data a cache snapshot belongs to.
type Scope struct {
	UserID int64
	Role   Role
}

func (s Session) Scope() Scope {
	return Scope{UserID: s.Identity.ID, Role: s.Identity.Role}
}

// Filters are forwarded verbatim as query parameters.
type Filters map[string]string

// SignupProfile is the self-registration payload. New accounts are users.
type SignupProfile struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Address  string `json:"address"`
}

// NewUserProfile is the admin user-creation payload.
type NewUserProfile struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Address  string `json:"address"`
	Role     Role   `json:"role"`
}

// NewStoreProfile is the admin store-creation payload.
type NewStoreProfile struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Address string `json:"address"`
	OwnerID *int64 `json:"ownerId,omitempty"`
}
