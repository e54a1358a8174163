package model

type Niche struct {
	ID   int64  `db:"niche_id" json:"niche_id"`
	Name string `db:"niche_name" json:"niche_name"`
}

type Campaign struct {
	ID     int64  `db:"campaign_id" json:"campaign_id"`
	Title  string `db:"title" json:"title"`
	Status string `db:"status" json:"status"`
}
