package access

import (
	"errors"
	"slices"
)

// Roles known to the marketplace.
const (
	RoleUser  = "User"
	RoleAdmin = "Admin"
)

// Domain errors
var (
	ErrRequiresAuthentication = errors.New("authentication required")
	ErrForbidden              = errors.New("access forbidden")
)

// Caller is the identity attached to a request by the identity provider.
// A nil *Caller means the request carries no valid session.
type Caller struct {
	UserID   int64
	UserName string
	Roles    []string
}

// HasRole reports whether the caller holds role.
func (c *Caller) HasRole(role string) bool {
	if c == nil {
		return false
	}
	return slices.Contains(c.Roles, role)
}

// IsPrivileged reports whether the caller bypasses ownership checks.
func (c *Caller) IsPrivileged() bool {
	return c.HasRole(RoleAdmin)
}

// Privilege is the right an operation demands of its caller.
type Privilege int

const (
	// RequireAuthenticated admits any signed-in caller.
	RequireAuthenticated Privilege = iota
	// RequireAdmin admits privileged callers only.
	RequireAdmin
	// RequireOwner admits the target's owner and privileged callers.
	RequireOwner
)

func (p Privilege) String() string {
	switch p {
	case RequireAuthenticated:
		return "authenticated"
	case RequireAdmin:
		return "admin"
	case RequireOwner:
		return "owner"
	default:
		return "unknown"
	}
}

// Decision is the outcome of an authorization check.
type Decision int

const (
	Allow Decision = iota
	RequiresAuthentication
	Forbidden
)

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case RequiresAuthentication:
		return "requires_authentication"
	case Forbidden:
		return "forbidden"
	default:
		return "unknown"
	}
}

// Err maps the decision onto the package sentinels, nil for Allow.
func (d Decision) Err() error {
	switch d {
	case Allow:
		return nil
	case RequiresAuthentication:
		return ErrRequiresAuthentication
	default:
		return ErrForbidden
	}
}

// Facts are the inputs of the decision table.
type Facts struct {
	Authenticated bool
	Privileged    bool
	OwnerMatch    bool
	Required      Privilege
}

// Evaluate applies the decision table. The steps are ordered: a missing
// session always wins over a missing role, which wins over ownership.
func Evaluate(f Facts) Decision {
	if !f.Authenticated {
		return RequiresAuthentication
	}
	if f.Required == RequireAdmin && !f.Privileged {
		return Forbidden
	}
	if f.Required == RequireOwner && !f.OwnerMatch && !f.Privileged {
		return Forbidden
	}
	return Allow
}

// Authorize decides whether caller may act on a resource owned by ownerID.
// ownerID is ignored unless required is RequireOwner.
func Authorize(caller *Caller, ownerID int64, required Privilege) Decision {
	return Evaluate(Facts{
		Authenticated: caller != nil,
		Privileged:    caller.IsPrivileged(),
		OwnerMatch:    caller != nil && caller.UserID == ownerID,
		Required:      required,
	})
}
