package messaging

import (
	"context"
	"database/sql"
	"time"
)

const dayLayout = "2006-01-02"

type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

const messageColumns = `id, COALESCE(number_id, ''), COALESCE(owner_id, ''), COALESCE(assigned_to, ''), from_number, to_number, body, direction, COALESCE(provider_sid, ''), status, COALESCE(error, ''), created_at, updated_at`

func (r *PostgresRepo) Create(ctx context.Context, m Message) error {
	const q = `
INSERT INTO messages (
  id, number_id, owner_id, assigned_to, from_number, to_number, body, direction, provider_sid, status, error, created_at, updated_at
) VALUES (
  $1, NULLIF($2, ''), NULLIF($3, ''), NULLIF($4, ''), $5, $6, $7, $8, NULLIF($9, ''), $10, NULLIF($11, ''), $12, $13
)
`
	_, err := r.db.ExecContext(ctx, q,
		m.ID,
		m.NumberID,
		m.OwnerID,
		m.AssignedTo,
		m.From,
		m.To,
		m.Body,
		string(m.Direction),
		m.ProviderSID,
		m.Status,
		m.Error,
		m.CreatedAt,
		m.UpdatedAt,
	)
	return err
}

func (r *PostgresRepo) UpdateStatus(ctx context.Context, providerSID, status, errorCode string) (int, error) {
	const q = `
UPDATE messages
SET status = $2, error = COALESCE(NULLIF($3, ''), error), updated_at = now()
WHERE provider_sid = $1
`
	res, err := r.db.ExecContext(ctx, q, providerSID, status, errorCode)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

func (r *PostgresRepo) Conversation(ctx context.Context, numberID, other string) ([]Message, error) {
	q := `SELECT ` + messageColumns + ` FROM messages
WHERE number_id = $1 AND (to_number = $2 OR from_number = $2)
ORDER BY created_at ASC`
	return r.list(ctx, q, numberID, other)
}

func (r *PostgresRepo) Recent(ctx context.Context, numberIDs []string, limit int) ([]Message, error) {
	if len(numberIDs) == 0 {
		return []Message{}, nil
	}
	q := `SELECT ` + messageColumns + ` FROM messages
WHERE number_id = ANY($1)
ORDER BY created_at DESC
LIMIT $2`
	return r.list(ctx, q, numberIDs, limit)
}

func (r *PostgresRepo) CountOutbound(ctx context.Context, numberIDs []string) (int, error) {
	if len(numberIDs) == 0 {
		return 0, nil
	}
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM messages WHERE number_id = ANY($1) AND direction = 'outbound'`, numberIDs).Scan(&n)
	return n, err
}

func (r *PostgresRepo) DailyCounts(ctx context.Context, numberIDs []string, since time.Time) (map[string]int, error) {
	counts := map[string]int{}
	if len(numberIDs) == 0 {
		return counts, nil
	}
	const q = `
SELECT to_char(created_at AT TIME ZONE 'UTC', 'YYYY-MM-DD') AS day, count(*)
FROM messages
WHERE number_id = ANY($1) AND created_at >= $2
GROUP BY day
`
	rows, err := r.db.QueryContext(ctx, q, numberIDs, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var day string
		var n int
		if err := rows.Scan(&day, &n); err != nil {
			return nil, err
		}
		counts[day] = n
	}
	return counts, rows.Err()
}

func (r *PostgresRepo) list(ctx context.Context, q string, args ...any) ([]Message, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Message{}
	for rows.Next() {
		var m Message
		if err := rows.Scan(
			&m.ID,
			&m.NumberID,
			&m.OwnerID,
			&m.AssignedTo,
			&m.From,
			&m.To,
			&m.Body,
			&m.Direction,
			&m.ProviderSID,
			&m.Status,
			&m.Error,
			&m.CreatedAt,
			&m.UpdatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
