package accounts

import (
	"context"
	"database/sql"
	"errors"

	"sms-platform/pkg/utils"

	"github.com/jackc/pgx/v5/pgconn"
)

type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

const accountColumns = `id, email, password_hash, first_name, last_name, phone, role, COALESCE(parent_id, ''), plan, created_at, updated_at`

func (r *PostgresRepo) Create(ctx context.Context, a Account) error {
	const q = `
INSERT INTO accounts (
  id, email, password_hash, first_name, last_name, phone, role, parent_id, plan, created_at, updated_at
) VALUES (
  $1,$2,$3,$4,$5,$6,$7,NULLIF($8, ''),$9,$10,$11
)
`
	_, err := r.db.ExecContext(ctx, q,
		a.ID,
		a.Email,
		a.PasswordHash,
		a.FirstName,
		a.LastName,
		a.Phone,
		string(a.Role),
		a.ParentID,
		string(a.Plan),
		a.CreatedAt,
		a.UpdatedAt,
	)
	return mapUniqueViolation(err)
}

func (r *PostgresRepo) Get(ctx context.Context, id string) (Account, error) {
	q := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`
	return scanAccount(r.db.QueryRowContext(ctx, q, id))
}

func (r *PostgresRepo) GetByEmail(ctx context.Context, email string) (Account, error) {
	q := `SELECT ` + accountColumns + ` FROM accounts WHERE email = $1`
	return scanAccount(r.db.QueryRowContext(ctx, q, email))
}

func (r *PostgresRepo) Update(ctx context.Context, a Account) error {
	const q = `
UPDATE accounts
SET email = $2, password_hash = $3, first_name = $4, last_name = $5, phone = $6,
    role = $7, plan = $8, updated_at = $9
WHERE id = $1
`
	res, err := r.db.ExecContext(ctx, q,
		a.ID,
		a.Email,
		a.PasswordHash,
		a.FirstName,
		a.LastName,
		a.Phone,
		string(a.Role),
		string(a.Plan),
		a.UpdatedAt,
	)
	if err != nil {
		return mapUniqueViolation(err)
	}
	return utils.AffectedOne(res, ErrNotFound)
}

func (r *PostgresRepo) ListSubs(ctx context.Context, parentID string) ([]Account, error) {
	q := `SELECT ` + accountColumns + ` FROM accounts WHERE role = 'sub' AND parent_id = $1 ORDER BY created_at DESC`
	return r.list(ctx, q, parentID)
}

func (r *PostgresRepo) List(ctx context.Context) ([]Account, error) {
	q := `SELECT ` + accountColumns + ` FROM accounts ORDER BY created_at DESC`
	return r.list(ctx, q)
}

func (r *PostgresRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM accounts WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return utils.AffectedOne(res, ErrNotFound)
}

func (r *PostgresRepo) list(ctx context.Context, q string, args ...any) ([]Account, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(r rowScanner) (Account, error) {
	var a Account
	if err := r.Scan(
		&a.ID,
		&a.Email,
		&a.PasswordHash,
		&a.FirstName,
		&a.LastName,
		&a.Phone,
		&a.Role,
		&a.ParentID,
		&a.Plan,
		&a.CreatedAt,
		&a.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Account{}, ErrNotFound
		}
		return Account{}, err
	}
	return a, nil
}

func mapUniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrEmailTaken
	}
	return err
}
