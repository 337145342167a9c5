package types

// Caller is the authenticated principal of an API request.
// A nil *Caller means authentication is disabled.
type Caller struct {
	Subject string
	Role    CallerRole
}

// CanAccess reports whether c may read or create payments owned by userID.
func (c *Caller) CanAccess(userID string) bool {
	if c == nil {
		return true
	}
	switch c.Role {
	case CallerRoleAdmin, CallerRoleService:
		return true
	}
	return c.Subject != "" && c.Subject == userID
}

func (c *Caller) IsAdmin() bool {
	return c == nil || c.Role == CallerRoleAdmin || c.Role == CallerRoleService
}
