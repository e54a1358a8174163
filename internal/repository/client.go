package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/soundwave-agency/agency-server/internal/model"
)

// ClientRepository reads and writes client rows. Reads join the owning
// account for its display name and email.
type ClientRepository interface {
	List(ctx context.Context) ([]model.ClientSummary, error)
	FindByID(ctx context.Context, id int64) (*model.Client, error)
	FindByAccountID(ctx context.Context, accountID int64) (*model.Client, error)
	Create(ctx context.Context, params model.CreateClientParams) (*model.Client, error)
	Update(ctx context.Context, id int64, params model.UpdateClientParams) (bool, error)
	UpdateAvatar(ctx context.Context, id int64, avatar string) (bool, error)
	Delete(ctx context.Context, id int64) (bool, error)
	Stats(ctx context.Context) (*model.ClientStats, error)
	WithTx(tx *sqlx.Tx) ClientRepository
}

type clientRepo struct {
	db sqlxDB
}

func NewClientRepository(db *sqlx.DB) ClientRepository {
	return &clientRepo{db: db}
}

func (r *clientRepo) WithTx(tx *sqlx.Tx) ClientRepository {
	return &clientRepo{db: tx}
}

const clientColumns = `
	c.client_id, c.user_id, u.user_name, u.email, c.username, c.tiktok_link,
	c.base_price, c.status, c.manager_id, c.avatar, c.created_at`

func (r *clientRepo) List(ctx context.Context) ([]model.ClientSummary, error) {
	clients := []model.ClientSummary{}
	err := r.db.SelectContext(ctx, &clients, `
		SELECT `+clientColumns+`,
			COALESCE(STRING_AGG(DISTINCT n.niche_name, ', '), '') AS niches,
			COUNT(DISTINCT cp.campaign_id) FILTER (WHERE cp.status = $1) AS active_campaigns
		FROM clients c
		JOIN users u ON u.user_id = c.user_id
		LEFT JOIN client_niches cn ON cn.client_id = c.client_id
		LEFT JOIN niches n ON n.niche_id = cn.niche_id
		LEFT JOIN client_campaigns cc ON cc.client_id = c.client_id
		LEFT JOIN campaigns cp ON cp.campaign_id = cc.campaign_id
		GROUP BY c.client_id, u.user_id
		ORDER BY c.created_at DESC, c.client_id DESC
	`, model.CampaignStatusActive)
	if err != nil {
		return nil, err
	}
	return clients, nil
}

func (r *clientRepo) FindByID(ctx context.Context, id int64) (*model.Client, error) {
	var client model.Client
	err := r.db.GetContext(ctx, &client, `
		SELECT `+clientColumns+`
		FROM clients c
		JOIN users u ON u.user_id = c.user_id
		WHERE c.client_id = $1
	`, id)
	return HandleNotFound(&client, err)
}

func (r *clientRepo) FindByAccountID(ctx context.Context, accountID int64) (*model.Client, error) {
	var client model.Client
	err := r.db.GetContext(ctx, &client, `
		SELECT `+clientColumns+`
		FROM clients c
		JOIN users u ON u.user_id = c.user_id
		WHERE c.user_id = $1
	`, accountID)
	return HandleNotFound(&client, err)
}

func (r *clientRepo) Create(ctx context.Context, params model.CreateClientParams) (*model.Client, error) {
	var client model.Client
	err := r.db.GetContext(ctx, &client, `
		INSERT INTO clients (user_id, username, tiktok_link, base_price, status, manager_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING *
	`, params.AccountID, params.Username, params.TikTokLink, params.BasePrice, params.Status, params.ManagerID)
	if err != nil {
		return nil, err
	}
	return &client, nil
}

func (r *clientRepo) Update(ctx context.Context, id int64, params model.UpdateClientParams) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE clients SET
			username = COALESCE($2, username),
			tiktok_link = COALESCE($3, tiktok_link),
			base_price = COALESCE($4, base_price),
			status = COALESCE($5, status)
		WHERE client_id = $1
	`, id, params.Username, params.TikTokLink, params.BasePrice, params.Status)
	if err != nil {
		return false, err
	}
	return rowsAffected(res)
}

func (r *clientRepo) UpdateAvatar(ctx context.Context, id int64, avatar string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE clients SET avatar = $2 WHERE client_id = $1`, id, avatar)
	if err != nil {
		return false, err
	}
	return rowsAffected(res)
}

func (r *clientRepo) Delete(ctx context.Context, id int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM clients WHERE client_id = $1`, id)
	if err != nil {
		return false, err
	}
	return rowsAffected(res)
}

func (r *clientRepo) Stats(ctx context.Context) (*model.ClientStats, error) {
	var stats model.ClientStats
	err := r.db.GetContext(ctx, &stats, `
		SELECT
			COUNT(*) AS total,
			COUNT(*) FILTER (WHERE status = $1) AS pending,
			COUNT(*) FILTER (WHERE status = $2) AS active
		FROM clients
	`, model.ClientStatusPending, model.ClientStatusActive)
	if err != nil {
		return nil, err
	}
	return &stats, nil
}
