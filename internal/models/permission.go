package models

import "time"

// Permission is a named capability. The set is closed: handlers reference
// the constants below and storage rejects anything outside the catalog.
type Permission string

const (
	PermUsersView   Permission = "users.view"
	PermUsersCreate Permission = "users.create"
	PermUsersEdit   Permission = "users.edit"
	PermUsersDelete Permission = "users.delete"

	PermPermissionsManage Permission = "permissions.manage"

	PermRequestsView Permission = "requests.view"
	PermRequestsEdit Permission = "requests.edit"

	PermFeedbackView Permission = "feedback.view"

	PermSignupsView   Permission = "signups.view"
	PermSignupsReview Permission = "signups.review"

	PermAuditView Permission = "audit.view"

	PermCatalogView   Permission = "catalog.view"
	PermCatalogImport Permission = "catalog.import"
)

// PermissionInfo is the static reference record backing the catalog UI.
type PermissionInfo struct {
	Name        Permission
	Description string
	Category    string
	CreatedAt   time.Time
}

// PermissionCatalog is the seed data for the permissions table.
var PermissionCatalog = []PermissionInfo{
	{Name: PermUsersView, Description: "View admin user accounts", Category: "users"},
	{Name: PermUsersCreate, Description: "Create admin user accounts", Category: "users"},
	{Name: PermUsersEdit, Description: "Edit admin user accounts", Category: "users"},
	{Name: PermUsersDelete, Description: "Delete admin user accounts", Category: "users"},
	{Name: PermPermissionsManage, Description: "Grant or revoke per-user permissions", Category: "users"},
	{Name: PermRequestsView, Description: "View service requests", Category: "requests"},
	{Name: PermRequestsEdit, Description: "Update service requests and add comments", Category: "requests"},
	{Name: PermFeedbackView, Description: "View feedback and analytics", Category: "feedback"},
	{Name: PermSignupsView, Description: "View signup requests", Category: "signups"},
	{Name: PermSignupsReview, Description: "Approve or reject signup requests", Category: "signups"},
	{Name: PermAuditView, Description: "View the audit log", Category: "audit"},
	{Name: PermCatalogView, Description: "View the product catalog", Category: "catalog"},
	{Name: PermCatalogImport, Description: "Import product catalog spreadsheets", Category: "catalog"},
}

var validPermissions = func() map[Permission]bool {
	m := make(map[Permission]bool, len(PermissionCatalog))
	for _, p := range PermissionCatalog {
		m[p.Name] = true
	}
	return m
}()

// IsValidPermission reports whether s names a cataloged permission.
func IsValidPermission(s string) bool {
	return validPermissions[Permission(s)]
}

// AllPermissions returns the universal permission set.
func AllPermissions() []Permission {
	perms := make([]Permission, 0, len(PermissionCatalog))
	for _, p := range PermissionCatalog {
		perms = append(perms, p.Name)
	}
	return perms
}

// roleDefaults maps each role to its default permission set.
// Super admin is intentionally absent: it resolves to the universal set.
var roleDefaults = map[Role][]Permission{
	RoleViewer: {
		PermRequestsView,
		PermFeedbackView,
		PermCatalogView,
	},
	RoleManager: {
		PermRequestsView,
		PermRequestsEdit,
		PermFeedbackView,
		PermCatalogView,
		PermUsersView,
	},
	// Signup review stays super-admin territory; signups.* can still be
	// granted to individuals through overrides.
	RoleAdmin: {
		PermRequestsView,
		PermRequestsEdit,
		PermFeedbackView,
		PermCatalogView,
		PermCatalogImport,
		PermUsersView,
		PermUsersCreate,
		PermUsersEdit,
		PermUsersDelete,
		PermAuditView,
	},
}

// RoleDefaultPermissions returns the default permission set for a role.
// Super admin maps to the universal set regardless of seed data.
func RoleDefaultPermissions(role Role) []Permission {
	if role == RoleSuperAdmin {
		return AllPermissions()
	}
	defaults := roleDefaults[role]
	out := make([]Permission, len(defaults))
	copy(out, defaults)
	return out
}

// PermissionOverride is a per-user grant or explicit revoke layered on top
// of the role defaults. Absence of a row means "use role default".
type PermissionOverride struct {
	UserID     string
	Permission Permission
	Granted    bool
	CreatedAt  time.Time
}

// EffectivePermissions computes (role defaults) plus granted overrides
// minus revoked overrides. Super admin short-circuits to the universal set
// without consulting override rows.
func EffectivePermissions(role Role, overrides []PermissionOverride) []Permission {
	if role == RoleSuperAdmin {
		return AllPermissions()
	}

	effective := make(map[Permission]bool)
	for _, p := range RoleDefaultPermissions(role) {
		effective[p] = true
	}
	for _, o := range overrides {
		if o.Granted {
			effective[o.Permission] = true
		} else {
			delete(effective, o.Permission)
		}
	}

	// Preserve catalog order for stable output
	perms := make([]Permission, 0, len(effective))
	for _, p := range AllPermissions() {
		if effective[p] {
			perms = append(perms, p)
		}
	}
	return perms
}

// HasPermission reports whether the permission set contains the required
// capability.
func HasPermission(perms []Permission, required Permission) bool {
	for _, p := range perms {
		if p == required {
			return true
		}
	}
	return false
}
