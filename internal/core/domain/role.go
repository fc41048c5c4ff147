package domain

import (
	"fmt"
	"net/http"
	"strings"
)

// Role is the closed set of platform roles a session can hold.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
	RoleOwner Role = "owner"
)

// Roles lists every valid role in display order.
var Roles = []Role{RoleAdmin, RoleUser, RoleOwner}

// ParseRole converts a wire value into a Role.
func ParseRole(s string) (Role, error) {
	switch r := Role(strings.ToLower(strings.TrimSpace(s))); r {
	case RoleAdmin, RoleUser, RoleOwner:
		return r, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownRole, s)
	}
}

func (r Role) Valid() bool {
	_, err := ParseRole(string(r))
	return err == nil
}

// DisplayName is the human label used by consumers.
func (r Role) DisplayName() string {
	switch r {
	case RoleAdmin:
		return "System Administrator"
	case RoleOwner:
		return "Store Owner"
	case RoleUser:
		return "Normal User"
	default:
		return string(r)
	}
}

// Operation enumerates every authenticated remote operation of the core.
type Operation int

const (
	OpListUsers Operation = iota + 1
	OpListStores
	OpDashboard
	OpOwnerRatings
	OpListOwners
	OpCreateUser
	OpCreateStore
	OpSubmitRating
	OpUpdatePassword
)

var operationNames = map[Operation]string{
	OpListUsers:      "list_users",
	OpListStores:     "list_stores",
	OpDashboard:      "dashboard",
	OpOwnerRatings:   "owner_ratings",
	OpListOwners:     "list_owners",
	OpCreateUser:     "create_user",
	OpCreateStore:    "create_store",
	OpSubmitRating:   "submit_rating",
	OpUpdatePassword: "update_password",
}

func (o Operation) String() string {
	if name, ok := operationNames[o]; ok {
		return name
	}
	return fmt.Sprintf("operation(%d)", int(o))
}

// Endpoint is a fixed method/path pair of the remote API.
type Endpoint struct {
	Method string
	Path   string
}

func (e Endpoint) String() string { return e.Method + " " + e.Path }

// Unauthenticated endpoints.
var (
	EndpointLogin  = Endpoint{http.MethodPost, "/auth/login"}
	EndpointSignup = Endpoint{http.MethodPost, "/auth/signup"}
)

var (
	endpointAdminUsers     = Endpoint{http.MethodGet, "/admin/users"}
	endpointAdminStores    = Endpoint{http.MethodGet, "/admin/stores"}
	endpointUserStores     = Endpoint{http.MethodGet, "/user/stores"}
	endpointAdminDashboard = Endpoint{http.MethodGet, "/admin/dashboard"}
	endpointOwnerDashboard = Endpoint{http.MethodGet, "/owner/dashboard"}
	endpointCreateUser     = Endpoint{http.MethodPost, "/admin/users"}
	endpointCreateStore    = Endpoint{http.MethodPost, "/admin/stores"}
	endpointSubmitRating   = Endpoint{http.MethodPost, "/user/ratings"}
	endpointListOwners     = Endpoint{http.MethodGet, "/admin/owners"}
	endpointOwnerRatings   = Endpoint{http.MethodGet, "/owner/ratings"}
	endpointPassword       = Endpoint{http.MethodPut, "/auth/password"}
)

type endpointRow struct {
	role Role
	op   Operation
	ep   Endpoint
}

// endpointTable is the role gate: a role may only run the operations listed
// for it, and each pair resolves to exactly one endpoint.
var endpointTable = mustEndpointTable([]endpointRow{
	{RoleAdmin, OpListUsers, endpointAdminUsers},
	{RoleAdmin, OpListStores, endpointAdminStores},
	{RoleAdmin, OpDashboard, endpointAdminDashboard},
	{RoleAdmin, OpListOwners, endpointListOwners},
	{RoleAdmin, OpCreateUser, endpointCreateUser},
	{RoleAdmin, OpCreateStore, endpointCreateStore},
	{RoleAdmin, OpUpdatePassword, endpointPassword},

	{RoleUser, OpListStores, endpointUserStores},
	{RoleUser, OpSubmitRating, endpointSubmitRating},
	{RoleUser, OpUpdatePassword, endpointPassword},

	{RoleOwner, OpListStores, endpointUserStores},
	{RoleOwner, OpDashboard, endpointOwnerDashboard},
	{RoleOwner, OpOwnerRatings, endpointOwnerRatings},
	{RoleOwner, OpUpdatePassword, endpointPassword},
})

func mustEndpointTable(rows []endpointRow) map[Role]map[Operation]Endpoint {
	table := make(map[Role]map[Operation]Endpoint, len(Roles))
	for _, row := range rows {
		if !row.role.Valid() {
			panic(fmt.Sprintf("domain: endpoint table has unknown role %q", row.role))
		}
		if _, ok := operationNames[row.op]; !ok {
			panic(fmt.Sprintf("domain: endpoint table has unknown %s", row.op))
		}
		ops, ok := table[row.role]
		if !ok {
			ops = make(map[Operation]Endpoint)
			table[row.role] = ops
		}
		if _, dup := ops[row.op]; dup {
			panic(fmt.Sprintf("domain: duplicate endpoint for %s/%s", row.role, row.op))
		}
		ops[row.op] = row.ep
	}
	return table
}

// Endpoint resolves op for the role, or ErrOperationNotPermitted.
func (r Role) Endpoint(op Operation) (Endpoint, error) {
	ep, ok := endpointTable[r][op]
	if !ok {
		return Endpoint{}, fmt.Errorf("%w: %s cannot %s", ErrOperationNotPermitted, r, op)
	}
	return ep, nil
}

// Allows reports whether the role gate permits op.
func (r Role) Allows(op Operation) bool {
	_, ok := endpointTable[r][op]
	return ok
}
