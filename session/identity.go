package session

import (
	"nexus/models"
	"nexus/notify"
)

// Identity is who a session belongs to. It is fixed for the session lifetime.
type Identity struct {
	UserID uint        `json:"user_id"`
	Name   string      `json:"name"`
	Email  string      `json:"email"`
	Role   models.Role `json:"role"`
}

func IdentityOf(u *models.User) Identity {
	return Identity{UserID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role}
}

func (i Identity) IsManager() bool {
	return i.Role == models.RoleManager
}

// Audience is the notification audience of this identity.
func (i Identity) Audience() notify.Audience {
	return notify.Audience{UserID: i.UserID, Role: i.Role}
}
