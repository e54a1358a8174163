package model

import (
	"time"
)

// SessionSnapshot is the account state cached server-side for the lifetime of a login.
type SessionSnapshot struct {
	AccountID int64     `json:"account_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	ClientID  *int64    `json:"client_id,omitempty"`
	Username  string    `json:"username,omitempty"`
	Avatar    *string   `json:"avatar,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func (s *SessionSnapshot) HasRole(role Role) bool {
	return s != nil && s.Role == role
}
