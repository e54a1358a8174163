package model

type Role string

const (
	RoleManager Role = "manager"
	RoleClient  Role = "client"
)

const (
	ClientStatusPending = "Pending"
	ClientStatusActive  = "Active"
)

const CampaignStatusActive = "active"
