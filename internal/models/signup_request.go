package models

import "time"

// Signup request statuses. pending is the only non-terminal state.
const (
	SignupStatusPending  = "pending"
	SignupStatusApproved = "approved"
	SignupStatusRejected = "rejected"
)

// SignupRequest is an unauthenticated application for an admin account.
// Approval atomically creates the AdminUser and marks the request approved.
type SignupRequest struct {
	ID             string
	Username       string
	Email          string
	PasswordHash   string
	FullName       string
	Reason         string
	Organization   string
	Status         string
	ReviewedBy     *string
	DecisionReason *string
	CreatedAt      time.Time
	ReviewedAt     *time.Time
}

// Reviewed reports whether the request is in a terminal state.
func (r *SignupRequest) Reviewed() bool {
	return r.Status != SignupStatusPending
}
