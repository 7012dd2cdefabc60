package models

import "errors"

// Sentinel errors for common failure conditions
var (
	ErrNotFound       = errors.New("resource not found")
	ErrConflict       = errors.New("resource already exists")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrBadRequest     = errors.New("bad request")
	ErrInternalServer = errors.New("internal server error")

	// Session / account state errors
	ErrSessionInvalid = errors.New("session is invalid or expired")
	ErrUserInactive   = errors.New("account is deactivated")

	// Guard rails surfaced as 400/403 by handlers
	ErrSelfDelete         = errors.New("cannot delete your own account")
	ErrSuperAdminRequired = errors.New("only a super admin may manage super admin accounts")

	// Signup state machine
	ErrAlreadyReviewed = errors.New("signup request has already been reviewed")

	// Returned when the optional permission-override schema is not deployed
	ErrSchemaMissing = errors.New("backing table is not deployed")
)
