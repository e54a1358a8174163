package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/soundwave-agency/agency-server/internal/model"
)

// CatalogRepository lists the niches and campaigns clients can be linked to.
type CatalogRepository interface {
	Niches(ctx context.Context) ([]model.Niche, error)
	ActiveCampaigns(ctx context.Context) ([]model.Campaign, error)
}

type catalogRepo struct {
	db sqlxDB
}

func NewCatalogRepository(db *sqlx.DB) CatalogRepository {
	return &catalogRepo{db: db}
}

func (r *catalogRepo) Niches(ctx context.Context) ([]model.Niche, error) {
	niches := []model.Niche{}
	err := r.db.SelectContext(ctx, &niches, `
		SELECT niche_id, niche_name FROM niches ORDER BY niche_name
	`)
	if err != nil {
		return nil, err
	}
	return niches, nil
}

func (r *catalogRepo) ActiveCampaigns(ctx context.Context) ([]model.Campaign, error) {
	campaigns := []model.Campaign{}
	err := r.db.SelectContext(ctx, &campaigns, `
		SELECT campaign_id, title, status FROM campaigns
		WHERE status = $1
		ORDER BY title
	`, model.CampaignStatusActive)
	if err != nil {
		return nil, err
	}
	return campaigns, nil
}
