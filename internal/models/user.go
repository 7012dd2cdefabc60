package models

import (
	"time"
)

// Role is the closed set of administrative roles.
type Role string

const (
	RoleViewer     Role = "viewer"
	RoleManager    Role = "manager"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "super_admin"
)

// AllRoles lists every valid role, lowest tier first.
var AllRoles = []Role{RoleViewer, RoleManager, RoleAdmin, RoleSuperAdmin}

// IsValidRole reports whether s names a known role.
func IsValidRole(s string) bool {
	switch Role(s) {
	case RoleViewer, RoleManager, RoleAdmin, RoleSuperAdmin:
		return true
	}
	return false
}

type AdminUser struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	FullName     string
	Role         Role
	Active       bool
	LastLoginAt  *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsSuperAdmin reports whether the user holds the top-tier role.
func (u *AdminUser) IsSuperAdmin() bool {
	return u.Role == RoleSuperAdmin
}
