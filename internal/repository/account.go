package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/soundwave-agency/agency-server/internal/model"
)

// AccountRepository is the credential store over the users table.
type AccountRepository interface {
	FindByID(ctx context.Context, id int64) (*model.Account, error)
	FindByEmailAndRole(ctx context.Context, email string, role model.Role) (*model.Account, error)
	FindClientByUsername(ctx context.Context, username string) (*model.ClientAccount, error)
	Create(ctx context.Context, params model.CreateAccountParams) (*model.Account, error)
	UpdateName(ctx context.Context, id int64, name string) (bool, error)
	UpdatePasswordHash(ctx context.Context, id int64, passwordHash string) (bool, error)
	Delete(ctx context.Context, id int64) (bool, error)
	// WithTx returns a new repository that uses the given transaction
	WithTx(tx *sqlx.Tx) AccountRepository
}

type accountRepo struct {
	db sqlxDB
}

func NewAccountRepository(db *sqlx.DB) AccountRepository {
	return &accountRepo{db: db}
}

func (r *accountRepo) WithTx(tx *sqlx.Tx) AccountRepository {
	return &accountRepo{db: tx}
}

func (r *accountRepo) FindByID(ctx context.Context, id int64) (*model.Account, error) {
	var account model.Account
	err := r.db.GetContext(ctx, &account, `SELECT * FROM users WHERE user_id = $1`, id)
	return HandleNotFound(&account, err)
}

func (r *accountRepo) FindByEmailAndRole(ctx context.Context, email string, role model.Role) (*model.Account, error) {
	var account model.Account
	err := r.db.GetContext(ctx, &account, `
		SELECT * FROM users
		WHERE email = $1 AND role = $2
	`, email, role)
	return HandleNotFound(&account, err)
}

func (r *accountRepo) FindClientByUsername(ctx context.Context, username string) (*model.ClientAccount, error) {
	var account model.ClientAccount
	err := r.db.GetContext(ctx, &account, `
		SELECT u.*, c.client_id, c.username, c.avatar
		FROM users u
		JOIN clients c ON c.user_id = u.user_id
		WHERE c.username = $1 AND u.role = $2
	`, username, model.RoleClient)
	return HandleNotFound(&account, err)
}

func (r *accountRepo) Create(ctx context.Context, params model.CreateAccountParams) (*model.Account, error) {
	var account model.Account
	err := r.db.GetContext(ctx, &account, `
		INSERT INTO users (user_name, email, password_hash, role, is_verified)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING *
	`, params.Name, params.Email, params.PasswordHash, params.Role, params.IsVerified)
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *accountRepo) UpdateName(ctx context.Context, id int64, name string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE users SET user_name = $2 WHERE user_id = $1`, id, name)
	if err != nil {
		return false, err
	}
	return rowsAffected(res)
}

func (r *accountRepo) UpdatePasswordHash(ctx context.Context, id int64, passwordHash string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE users SET password_hash = $2 WHERE user_id = $1`, id, passwordHash)
	if err != nil {
		return false, err
	}
	return rowsAffected(res)
}

func (r *accountRepo) Delete(ctx context.Context, id int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE user_id = $1`, id)
	if err != nil {
		return false, err
	}
	return rowsAffected(res)
}
