package model

import (
	"time"
)

type Account struct {
	ID           int64     `db:"user_id" json:"user_id"`
	Name         string    `db:"user_name" json:"user_name"`
	Email        string    `db:"email" json:"email"`
	PasswordHash *string   `db:"password_hash" json:"-"`
	Role         Role      `db:"role" json:"role"`
	IsVerified   bool      `db:"is_verified" json:"is_verified"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

type CreateAccountParams struct {
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	IsVerified   bool
}

// ClientAccount is a client-role account joined with the client row it owns.
type ClientAccount struct {
	Account
	ClientID int64   `db:"client_id"`
	Username string  `db:"username"`
	Avatar   *string `db:"avatar"`
}
