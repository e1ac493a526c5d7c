package numbers

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

const numberColumns = `id, phone_number, country, owner_id, COALESCE(assigned_to, ''), COALESCE(provider_id, ''), created_at, updated_at`

func (r *PostgresRepo) Create(ctx context.Context, n PhoneNumber) error {
	const q = `
INSERT INTO phone_numbers (id, phone_number, country, owner_id, assigned_to, provider_id, created_at, updated_at)
VALUES ($1, $2, $3, $4, NULLIF($5, ''), NULLIF($6, ''), $7, $8)
`
	_, err := r.db.ExecContext(ctx, q, n.ID, n.PhoneNumber, n.Country, n.OwnerID, n.AssignedTo, n.ProviderID, n.CreatedAt, n.UpdatedAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrNumberExists
	}
	return err
}

func (r *PostgresRepo) Get(ctx context.Context, id string) (PhoneNumber, error) {
	return scanNumber(r.db.QueryRowContext(ctx, `SELECT `+numberColumns+` FROM phone_numbers WHERE id = $1`, id))
}

func (r *PostgresRepo) GetByNumber(ctx context.Context, e164 string) (PhoneNumber, error) {
	return scanNumber(r.db.QueryRowContext(ctx, `SELECT `+numberColumns+` FROM phone_numbers WHERE phone_number = $1`, e164))
}

func (r *PostgresRepo) SetHolders(ctx context.Context, id, ownerID, assignedTo string) error {
	const q = `UPDATE phone_numbers SET owner_id = $2, assigned_to = NULLIF($3, ''), updated_at = now() WHERE id = $1`
	res, err := r.db.ExecContext(ctx, q, id, ownerID, assignedTo)
	if err != nil {
		return err
	}
	return utils.AffectedOne(res, ErrNotFound)
}

func (r *PostgresRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM phone_numbers WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return utils.AffectedOne(res, ErrNotFound)
}

func (r *PostgresRepo) ListOwnedBy(ctx context.Context, ownerID string) ([]PhoneNumber, error) {
	return r.list(ctx, `SELECT `+numberColumns+` FROM phone_numbers WHERE owner_id = $1 ORDER BY created_at, phone_number`, ownerID)
}

func (r *PostgresRepo) ListAssignedTo(ctx context.Context, subID string) ([]PhoneNumber, error) {
	return r.list(ctx, `SELECT `+numberColumns+` FROM phone_numbers WHERE assigned_to = $1 ORDER BY created_at, phone_number`, subID)
}

func (r *PostgresRepo) List(ctx context.Context) ([]PhoneNumber, error) {
	return r.list(ctx, `SELECT `+numberColumns+` FROM phone_numbers ORDER BY created_at, phone_number`)
}

func (r *PostgresRepo) UnassignAll(ctx context.Context, subID string) (int, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE phone_numbers SET assigned_to = NULL, updated_at = now() WHERE assigned_to = $1`, subID)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

func (r *PostgresRepo) list(ctx context.Context, q string, args ...any) ([]PhoneNumber, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []PhoneNumber{}
	for rows.Next() {
		n, err := scanNumber(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNumber(r rowScanner) (PhoneNumber, error) {
	var n PhoneNumber
	err := r.Scan(&n.ID, &n.PhoneNumber, &n.Country, &n.OwnerID, &n.AssignedTo, &n.ProviderID, &n.CreatedAt, &n.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return PhoneNumber{}, ErrNotFound
	}
	return n, err
}
