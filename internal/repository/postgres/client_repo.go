package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/jonmsawyer/cmdb/internal/errs"
	"github.com/jonmsawyer/cmdb/internal/model"
)

// ClientRepo implements ClientRepository using PostgreSQL.
type ClientRepo struct{ db *DB }

// NewClientRepo constructs a client repository.
func NewClientRepo(db *DB) *ClientRepo { return &ClientRepo{db: db} }

const clientCols = `id, client_name, api_key, date_created, is_disabled, is_blacklisted`

// Create inserts a new client row.
func (r *ClientRepo) Create(ctx context.Context, c *model.Client) error {
	const q = `
INSERT INTO clients (client_name, api_key, is_disabled, is_blacklisted)
VALUES ($1,$2,$3,$4)
RETURNING id, date_created`
	err := r.db.Pool.QueryRow(ctx, q, c.Name, c.APIKey, c.IsDisabled, c.IsBlacklisted).
		Scan(&c.ID, &c.DateCreated)
	if isUniqueViolation(err) {
		return errs.ErrAlreadyRegistered
	}
	return err
}

// GetByName loads a client by its normalized name.
func (r *ClientRepo) GetByName(ctx context.Context, name string) (*model.Client, error) {
	const q = `SELECT ` + clientCols + ` FROM clients WHERE client_name=$1`
	return r.scanClient(r.db.Pool.QueryRow(ctx, q, name))
}

// GetByAPIKey loads a client by its bearer key.
func (r *ClientRepo) GetByAPIKey(ctx context.Context, apiKey string) (*model.Client, error) {
	const q = `SELECT ` + clientCols + ` FROM clients WHERE api_key=$1`
	return r.scanClient(r.db.Pool.QueryRow(ctx, q, apiKey))
}

// SetDisabled flips the disabled flag.
func (r *ClientRepo) SetDisabled(ctx context.Context, id int64, disabled bool) error {
	const q = `UPDATE clients SET is_disabled=$2 WHERE id=$1`
	tag, err := r.db.Pool.Exec(ctx, q, id, disabled)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrUnknownClient
	}
	return nil
}

func (r *ClientRepo) scanClient(row pgx.Row) (*model.Client, error) {
	var c model.Client
	err := row.Scan(&c.ID, &c.Name, &c.APIKey, &c.DateCreated, &c.IsDisabled, &c.IsBlacklisted)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, errs.ErrUnknownClient
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}
