package audit

import (
	"context"
	"database/sql"
)

// PostgresRepo writes to audit_events, which only ever receives INSERTs.
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

func (r *PostgresRepo) Append(ctx context.Context, e Event) error {
	const q = `
INSERT INTO audit_events (id, type, actor_id, actor_role, ip_address, account_id, ref, message, metadata, created_at)
VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), NULLIF($5, ''), NULLIF($6, ''), NULLIF($7, ''), $8, COALESCE(NULLIF($9, ''), '{}')::jsonb, $10)
`
	_, err := r.db.ExecContext(ctx, q, e.ID, string(e.Type), e.ActorID, e.ActorRole, e.IPAddress, e.AccountID, e.Ref, e.Message, e.Metadata, e.CreatedAt)
	return err
}

func (r *PostgresRepo) List(ctx context.Context, accountID string, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 100
	}
	const q = `
SELECT id, type, COALESCE(actor_id, ''), COALESCE(actor_role, ''), COALESCE(ip_address, ''), COALESCE(account_id, ''), COALESCE(ref, ''), message, metadata::text, created_at
FROM audit_events
WHERE ($1 = '' OR account_id = $1)
ORDER BY created_at DESC
LIMIT $2
`
	rows, err := r.db.QueryContext(ctx, q, accountID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Event{}
	for rows.Next() {
		var e Event
		var typ string
		if err := rows.Scan(&e.ID, &typ, &e.ActorID, &e.ActorRole, &e.IPAddress, &e.AccountID, &e.Ref, &e.Message, &e.Metadata, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Type = EventType(typ)
		out = append(out, e)
	}
	return out, rows.Err()
}
