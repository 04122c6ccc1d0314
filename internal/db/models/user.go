// Package models - user.go defines the User account model with contact details
// and the role flags that drive authorization decisions.
package models

import (
	"strings"
	"time"
)

// User represents an account in the system. Organizer status is a flag on the
// account rather than a separate table; verification and approval are tracked
// independently so an organizer can exist before an admin approves them.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	Phone        string
	IsOrganizer  bool
	IsVerified   bool
	IsApproved   bool
	IsActive     bool
	IsStaff      bool
	IsSuperuser  bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// FullName returns the first and last name joined with a space, trimmed so a
// user with only one of the two names does not get a stray leading or
// trailing space.
func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}
