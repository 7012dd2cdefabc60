package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"
)

// Action keywords for audit logging
const (
	AuditActionLogin             = "login"
	AuditActionLoginFailed       = "login_failed"
	AuditActionLogout            = "logout"
	AuditActionUserCreate        = "user_create"
	AuditActionUserUpdate        = "user_update"
	AuditActionUserDelete        = "user_delete"
	AuditActionPermissionChange  = "permission_change"
	AuditActionSignupApprove     = "signup_approve"
	AuditActionSignupReject      = "signup_reject"
	AuditActionRequestUpdate     = "request_update"
	AuditActionCatalogImport     = "catalog_import"
	AuditActionPasswordUpgraded  = "password_hash_upgraded"
)

// AuditLogEntry is an append-only record of who did what to whom.
type AuditLogEntry struct {
	ID           string
	ActorID      *string
	Action       string
	TargetUserID *string
	Details      AuditDetails
	IPAddress    string
	CreatedAt    time.Time
}

// AuditDetails holds additional context for audit entries
type AuditDetails map[string]interface{}

// Scan implements sql.Scanner for JSONB
func (ad *AuditDetails) Scan(value interface{}) error {
	if value == nil {
		*ad = make(AuditDetails)
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		return ErrBadRequest
	}

	var m map[string]interface{}
	if err := json.Unmarshal(bytes, &m); err != nil {
		return err
	}
	*ad = AuditDetails(m)
	return nil
}

// Value implements driver.Valuer for JSONB
func (ad AuditDetails) Value() (driver.Value, error) {
	if ad == nil {
		return nil, nil
	}
	return json.Marshal(ad)
}
