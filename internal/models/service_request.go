package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"
)

// Service request statuses and priorities
const (
	RequestStatusPending    = "pending"
	RequestStatusInProgress = "in-progress"
	RequestStatusCompleted  = "completed"
	RequestStatusCancelled  = "cancelled"

	RequestPriorityLow    = "low"
	RequestPriorityNormal = "normal"
	RequestPriorityHigh   = "high"
	RequestPriorityUrgent = "urgent"
)

// IsValidRequestStatus reports whether s is a known status.
func IsValidRequestStatus(s string) bool {
	switch s {
	case RequestStatusPending, RequestStatusInProgress, RequestStatusCompleted, RequestStatusCancelled:
		return true
	}
	return false
}

// IsValidRequestPriority reports whether s is a known priority.
func IsValidRequestPriority(s string) bool {
	switch s {
	case RequestPriorityLow, RequestPriorityNormal, RequestPriorityHigh, RequestPriorityUrgent:
		return true
	}
	return false
}

// RequestDetails holds the free-form fields captured by the public form.
type RequestDetails map[string]interface{}

// Scan implements sql.Scanner for JSONB
func (rd *RequestDetails) Scan(value interface{}) error {
	if value == nil {
		*rd = make(RequestDetails)
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
	*rd = RequestDetails(m)
	return nil
}

// Value implements driver.Valuer for JSONB
func (rd RequestDetails) Value() (driver.Value, error) {
	if rd == nil {
		return nil, nil
	}
	return json.Marshal(rd)
}

// RequestComment is one entry in a request's append-only comment list.
type RequestComment struct {
	ID        string
	RequestID string
	AuthorID  string
	Author    string
	Content   string
	CreatedAt time.Time
}

// ServiceRequest is a customer-submitted work item. Requests are never
// deleted; staff update status, priority, notes and append comments.
type ServiceRequest struct {
	ID               string
	OfferingCategory string
	OfferingName     string
	CustomerName     string
	CustomerEmail    string
	CustomerPhone    string
	CustomerAddress  string
	Details          RequestDetails
	Status           string
	Priority         string
	Notes            string
	Comments         []RequestComment
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
