// Package models - audit_log.go defines the AuditLog model for recording
// security-relevant events, capturing actor, action, affected resource,
// client IP, and arbitrary metadata.
package models

import "time"

// AuditLog represents an audit log entry for tracking user actions
type AuditLog struct {
	ID           string
	UserID       *string // Nullable for unauthenticated or system actions
	CommitteeID  *string
	Action       string  // "committee.create", "contribution.verify", "payout.confirm"
	ResourceType *string // "committee", "membership", "contribution", "payout", "user"
	ResourceID   *string
	Metadata     map[string]interface{} // JSONB: additional context
	IPAddress    *string
	CreatedAt    time.Time
}
