package model

// Role grants access to operations.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Caller is the authenticated subject issuing a request.
type Caller struct {
	ID   string
	Role Role
}

// IsReviewer reports whether the caller may approve, reject or archive withdrawals.
func (c Caller) IsReviewer() bool {
	return c.Role == RoleAdmin
}

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}
