package model

import (
	"time"
)

// Client is a client row joined with the display name and email of its account.
type Client struct {
	ID         int64     `db:"client_id" json:"client_id"`
	AccountID  int64     `db:"user_id" json:"user_id"`
	Name       string    `db:"user_name" json:"user_name"`
	Email      string    `db:"email" json:"email"`
	Username   string    `db:"username" json:"username"`
	TikTokLink string    `db:"tiktok_link" json:"tiktok_link"`
	BasePrice  float64   `db:"base_price" json:"base_price"`
	Status     string    `db:"status" json:"status"`
	ManagerID  *int64    `db:"manager_id" json:"manager_id,omitempty"`
	Avatar     *string   `db:"avatar" json:"avatar,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

type ClientSummary struct {
	Client
	Niches          string `db:"niches" json:"niches"`
	ActiveCampaigns int    `db:"active_campaigns" json:"active_campaigns"`
}

type ClientDetail struct {
	Client          *Client    `json:"client"`
	NicheIDs        []int64    `json:"client_niches"`
	CampaignIDs     []int64    `json:"client_campaigns"`
	AllNiches       []Niche    `json:"all_niches"`
	ActiveCampaigns []Campaign `json:"all_campaigns"`
}

type ClientStats struct {
	Total   int `db:"total" json:"total"`
	Pending int `db:"pending" json:"pending"`
	Active  int `db:"active" json:"active"`
}

type CreateClientInput struct {
	Name       string   `json:"user_name" validate:"required,max=100"`
	Email      string   `json:"email" validate:"omitempty,email,max=255"`
	TikTokLink string   `json:"tiktok_link" validate:"required,max=255"`
	Username   string   `json:"username" validate:"required,max=64"`
	BasePrice  *float64 `json:"base_price" validate:"omitnil,gte=0"`
	ManagerID  *int64   `json:"manager_id" validate:"omitnil,gt=0"`
}

type CreateClientResult struct {
	ClientID          int64  `json:"client_id"`
	AccountID         int64  `json:"user_id"`
	TemporaryPassword string `json:"temporary_password"`
}

type CreateClientParams struct {
	AccountID  int64
	Username   string
	TikTokLink string
	BasePrice  float64
	Status     string
	ManagerID  int64
}

// UpdateClientInput leaves nil fields unchanged. A non-nil Niches or
// Campaigns replaces the whole association set, so an empty slice clears it.
type UpdateClientInput struct {
	Name       *string  `json:"user_name" validate:"omitnil,min=1,max=100"`
	TikTokLink *string  `json:"tiktok_link" validate:"omitnil,min=1,max=255"`
	Username   *string  `json:"username" validate:"omitnil,min=1,max=64"`
	BasePrice  *float64 `json:"base_price" validate:"omitnil,gte=0"`
	Status     *string  `json:"status" validate:"omitnil,min=1,max=32"`
	Niches     *[]int64 `json:"niches"`
	Campaigns  *[]int64 `json:"campaigns"`
}

type UpdateClientParams struct {
	Username   *string
	TikTokLink *string
	BasePrice  *float64
	Status     *string
}
