package models

import (
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// Role is the closed set of roles a user can hold.
type Role string

const (
	RoleLeader  Role = "leader"
	RoleManager Role = "manager"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleLeader, RoleManager:
		return true
	}
	return false
}

// ParseRole normalizes and validates a role string.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

type UserStatus string

const (
	UserActive   UserStatus = "active"
	UserInactive UserStatus = "inactive"
)

func (s UserStatus) Valid() bool {
	return s == UserActive || s == UserInactive
}

// User represents an account that can sign in as a leader or a manager
type User struct {
	gorm.Model

	Name         string     `gorm:"not null" json:"name"`
	Email        string     `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string     `gorm:"not null" json:"-"`
	Role         Role       `gorm:"type:varchar(16);not null;index" json:"role"`
	Status       UserStatus `gorm:"type:varchar(16);not null;default:'active'" json:"status"`

	// Relations
	Projects []Project `gorm:"foreignKey:LeaderID" json:"projects,omitempty"`
}

func (u *User) IsActive() bool {
	return u.Status == UserActive
}

func (u *User) IsManager() bool {
	return u.Role == RoleManager
}
