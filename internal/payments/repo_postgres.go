package payments

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

const checkoutColumns = `id, account_id, amount_minor, method, status, COALESCE(provider_ref, ''), created_at, updated_at`

func (r *PostgresRepo) Create(ctx context.Context, c Checkout) error {
	const q = `
INSERT INTO checkouts (id, account_id, amount_minor, method, status, provider_ref, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7, $8)
`
	_, err := r.db.ExecContext(ctx, q, c.ID, c.AccountID, c.AmountMinor, string(c.Method), string(c.Status), c.ProviderRef, c.CreatedAt, c.UpdatedAt)
	return err
}

func (r *PostgresRepo) Get(ctx context.Context, id string) (Checkout, error) {
	return scanCheckout(r.db.QueryRowContext(ctx, `SELECT `+checkoutColumns+` FROM checkouts WHERE id = $1`, id))
}

func (r *PostgresRepo) GetByRef(ctx context.Context, providerRef string) (Checkout, error) {
	return scanCheckout(r.db.QueryRowContext(ctx, `SELECT `+checkoutColumns+` FROM checkouts WHERE provider_ref = $1`, providerRef))
}

func (r *PostgresRepo) Settle(ctx context.Context, id string, status Status) (bool, error) {
	const q = `UPDATE checkouts SET status = $2, updated_at = now() WHERE id = $1 AND status = 'pending'`
	res, err := r.db.ExecContext(ctx, q, id, string(status))
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n == 1, err
}

func (r *PostgresRepo) ListFor(ctx context.Context, accountID string, limit int) ([]Checkout, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.db.QueryContext(ctx, `SELECT `+checkoutColumns+` FROM checkouts WHERE account_id = $1 ORDER BY created_at DESC LIMIT $2`, accountID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Checkout{}
	for rows.Next() {
		c, err := scanCheckout(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCheckout(r rowScanner) (Checkout, error) {
	var c Checkout
	var method, status string
	err := r.Scan(&c.ID, &c.AccountID, &c.AmountMinor, &method, &status, &c.ProviderRef, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Checkout{}, ErrNotFound
	}
	if err != nil {
		return Checkout{}, err
	}
	c.Method, c.Status = Method(method), Status(status)
	return c, nil
}
