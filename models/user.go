package models

import (
	"time"
)

type UserRole string

const (
	RoleAuthor   UserRole = "Author"
	RoleEditor   UserRole = "Editor"
	RoleReviewer UserRole = "Reviewer"
	RoleAdmin    UserRole = "Admin"
)

func (r UserRole) Valid() bool {
	switch r {
	case RoleAuthor, RoleEditor, RoleReviewer, RoleAdmin:
		return true
	}
	return false
}

// User ids are issued by the identity provider.
type User struct {
	ID        string    `json:"id" gorm:"primaryKey;size:128"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Email     string    `json:"email" gorm:"uniqueIndex;not null"`
	Role      UserRole  `json:"role" gorm:"size:16;not null;default:'Author'"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PlaceholderEmail is the unique address given to users created before they registered.
func PlaceholderEmail(userID string) string {
	return userID + "@placeholder.invalid"
}

// Actor is the authenticated caller of an operation.
type Actor struct {
	ID            string
	Email         string
	EmailVerified bool
	Role          UserRole
}

func (a Actor) IsStaff() bool {
	return a.Role == RoleEditor || a.Role == RoleAdmin
}
