package repository

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// AssociationRepository owns the client↔niche and client↔campaign join
// tables. Replace* reconciles the stored set to exactly the given ids.
type AssociationRepository interface {
	NicheIDs(ctx context.Context, clientID int64) ([]int64, error)
	CampaignIDs(ctx context.Context, clientID int64) ([]int64, error)
	ReplaceNiches(ctx context.Context, clientID int64, nicheIDs []int64) error
	ReplaceCampaigns(ctx context.Context, clientID int64, campaignIDs []int64) error
	WithTx(tx *sqlx.Tx) AssociationRepository
}

type associationRepo struct {
	db sqlxDB
}

func NewAssociationRepository(db *sqlx.DB) AssociationRepository {
	return &associationRepo{db: db}
}

func (r *associationRepo) WithTx(tx *sqlx.Tx) AssociationRepository {
	return &associationRepo{db: tx}
}

func (r *associationRepo) NicheIDs(ctx context.Context, clientID int64) ([]int64, error) {
	ids := []int64{}
	err := r.db.SelectContext(ctx, &ids, `
		SELECT niche_id FROM client_niches WHERE client_id = $1 ORDER BY niche_id
	`, clientID)
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *associationRepo) CampaignIDs(ctx context.Context, clientID int64) ([]int64, error) {
	ids := []int64{}
	err := r.db.SelectContext(ctx, &ids, `
		SELECT campaign_id FROM client_campaigns WHERE client_id = $1 ORDER BY campaign_id
	`, clientID)
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *associationRepo) ReplaceNiches(ctx context.Context, clientID int64, nicheIDs []int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM client_niches WHERE client_id = $1`, clientID); err != nil {
		return err
	}
	if len(nicheIDs) == 0 {
		return nil
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO client_niches (client_id, niche_id)
		SELECT $1, UNNEST($2::bigint[])
	`, clientID, pq.Array(uniqueIDs(nicheIDs)))
	return err
}

func (r *associationRepo) ReplaceCampaigns(ctx context.Context, clientID int64, campaignIDs []int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM client_campaigns WHERE client_id = $1`, clientID); err != nil {
		return err
	}
	if len(campaignIDs) == 0 {
		return nil
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO client_campaigns (client_id, campaign_id)
		SELECT $1, UNNEST($2::bigint[])
	`, clientID, pq.Array(uniqueIDs(campaignIDs)))
	return err
}
