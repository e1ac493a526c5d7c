package credentials

import (
	"context"
	"database/sql"
	"errors"
)

type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

func (r *PostgresRepo) Get(ctx context.Context, accountID string) (Credentials, error) {
	const q = `
SELECT account_id, account_sid, auth_token, COALESCE(phone_number, ''), created_at, updated_at
FROM provider_credentials
WHERE account_id = $1
`
	var c Credentials
	err := r.db.QueryRowContext(ctx, q, accountID).Scan(&c.AccountID, &c.AccountSID, &c.AuthToken, &c.PhoneNumber, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Credentials{}, ErrNotFound
	}
	return c, err
}

func (r *PostgresRepo) Upsert(ctx context.Context, c Credentials) error {
	const q = `
INSERT INTO provider_credentials (account_id, account_sid, auth_token, phone_number, created_at, updated_at)
VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6)
ON CONFLICT (account_id) DO UPDATE
SET account_sid = EXCLUDED.account_sid,
    auth_token = EXCLUDED.auth_token,
    phone_number = EXCLUDED.phone_number,
    updated_at = EXCLUDED.updated_at
`
	_, err := r.db.ExecContext(ctx, q, c.AccountID, c.AccountSID, c.AuthToken, c.PhoneNumber, c.CreatedAt, c.UpdatedAt)
	return err
}

func (r *PostgresRepo) Delete(ctx context.Context, accountID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM provider_credentials WHERE account_id = $1`, accountID)
	return err
}
