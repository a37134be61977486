package models

// Permissions understood by the analytics API
const (
	PermissionAnalyticsRead   = "analytics:read"
	PermissionAnalyticsExport = "analytics:export"
)

// Roles
const (
	RoleAdmin   = "admin"
	RoleManager = "manager"
	RoleMember  = "member"
)

// Caller is the authenticated identity a request runs as. Aggregators receive it explicitly and never
// read identity from ambient request state.
type Caller struct {
	UserID         string   `json:"user_id"`
	OrganizationID string   `json:"organization_id"`
	Role           string   `json:"role"`
	Permissions    []string `json:"permissions"`
}

// IsAdmin reports whether the caller holds the admin role
func (c Caller) IsAdmin() bool {
	return c.Role == RoleAdmin
}

// Can reports whether the caller holds permission. Admins hold every permission.
func (c Caller) Can(permission string) bool {
	if c.IsAdmin() {
		return true
	}
	for _, p := range c.Permissions {
		if p == permission {
			return true
		}
	}
	return false
}
