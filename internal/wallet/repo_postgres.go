package wallet

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"sms-platform/pkg/utils"

	"github.com/jackc/pgx/v5/pgconn"
)

// PostgresStore assumes the wallets and transactions tables from internal/storage/migrations,
// including UNIQUE (account_id, idempotency_key) on transactions.
type PostgresStore struct {
	db    *sql.DB
	clock func() time.Time
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db, clock: time.Now}
}

func (s *PostgresStore) Open(ctx context.Context, w Wallet) error {
	const q = `
INSERT INTO wallets (account_id, parent_id, balance_minor, limit_minor, updated_at)
VALUES ($1, NULLIF($2, ''), 0, $3, $4)
ON CONFLICT (account_id) DO NOTHING
`
	_, err := s.db.ExecContext(ctx, q, w.AccountID, w.ParentID, nullInt64(w.LimitMinor), s.clock().UTC())
	return err
}

func (s *PostgresStore) Get(ctx context.Context, accountID string) (Wallet, error) {
	return getWallet(ctx, s.db, accountID, false)
}

func (s *PostgresStore) Apply(ctx context.Context, entries []Entry) ([]Transaction, error) {
	out := make([]Transaction, 0, len(entries))
	now := s.clock().UTC()

	err := utils.WithTx(ctx, s.db, &sql.TxOptions{}, func(ctx context.Context, tx *sql.Tx) error {
		for _, e := range entries {
			if err := insertTransaction(ctx, tx, e.Tx); err != nil {
				return err
			}
			if err := applyGuardedDelta(ctx, tx, e, now); err != nil {
				return err
			}
			out = append(out, e.Tx)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *PostgresStore) SetLimit(ctx context.Context, accountID string, limitMinor *int64) error {
	const q = `UPDATE wallets SET limit_minor = $2, updated_at = $3 WHERE account_id = $1`
	res, err := s.db.ExecContext(ctx, q, accountID, nullInt64(limitMinor), s.clock().UTC())
	if err != nil {
		return err
	}
	return utils.AffectedOne(res, ErrAccountNotFound)
}

func (s *PostgresStore) Transactions(ctx context.Context, accountID string, limit int) ([]Transaction, error) {
	const q = `
SELECT id, account_id, type, direction, amount_minor, meta, COALESCE(idempotency_key, ''), created_at
FROM transactions
WHERE account_id = $1
ORDER BY created_at DESC, seq DESC
LIMIT $2
`
	rows, err := s.db.QueryContext(ctx, q, accountID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *PostgresStore) FindByIdempotency(ctx context.Context, accountID, key string) (Transaction, bool, error) {
	const q = `
SELECT id, account_id, type, direction, amount_minor, meta, COALESCE(idempotency_key, ''), created_at
FROM transactions
WHERE account_id = $1 AND idempotency_key = $2
LIMIT 1
`
	t, err := scanTransaction(s.db.QueryRowContext(ctx, q, accountID, key))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Transaction{}, false, nil
		}
		return Transaction{}, false, err
	}
	return t, true, nil
}

func (s *PostgresStore) Close(ctx context.Context, accountID string) error {
	return utils.WithTx(ctx, s.db, &sql.TxOptions{}, func(ctx context.Context, tx *sql.Tx) error {
		w, err := getWallet(ctx, tx, accountID, true)
		if err != nil {
			return err
		}
		if w.BalanceMinor != 0 {
			return ErrBalanceNotZero
		}
		_, err = tx.ExecContext(ctx, `DELETE FROM wallets WHERE account_id = $1`, accountID)
		return err
	})
}

func getWallet(ctx context.Context, q utils.Querier, accountID string, forUpdate bool) (Wallet, error) {
	query := `
SELECT account_id, COALESCE(parent_id, ''), balance_minor, limit_minor, updated_at
FROM wallets
WHERE account_id = $1
`
	if forUpdate {
		query += "FOR UPDATE\n"
	}
	var (
		w     Wallet
		limit sql.NullInt64
	)
	if err := q.QueryRowContext(ctx, query, accountID).Scan(
		&w.AccountID,
		&w.ParentID,
		&w.BalanceMinor,
		&limit,
		&w.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Wallet{}, ErrAccountNotFound
		}
		return Wallet{}, err
	}
	if limit.Valid {
		v := limit.Int64
		w.LimitMinor = &v
	}
	return w, nil
}

func insertTransaction(ctx context.Context, tx *sql.Tx, t Transaction) error {
	meta, err := json.Marshal(t.Meta)
	if err != nil {
		return err
	}
	const q = `
INSERT INTO transactions (
  id, account_id, type, direction, amount_minor, meta, idempotency_key, created_at
) VALUES (
  $1,$2,$3,$4,$5,$6,NULLIF($7, ''),$8
)
`
	_, err = tx.ExecContext(ctx, q,
		t.ID,
		t.AccountID,
		string(t.Type),
		string(t.Direction),
		t.AmountMinor,
		meta,
		t.IdempotencyKey,
		t.CreatedAt,
	)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrDuplicate
	}
	return err
}

// applyGuardedDelta increments the balance in place. The WHERE clause is the guard,
// so two concurrent batches can never both pass a check they would jointly violate.
func applyGuardedDelta(ctx context.Context, tx *sql.Tx, e Entry, now time.Time) error {
	const q = `
UPDATE wallets
SET balance_minor = balance_minor + $2,
    updated_at = $3
WHERE account_id = $1
  AND balance_minor + $2 >= 0
  AND (NOT $4 OR limit_minor IS NULL OR balance_minor + $2 <= limit_minor)
`
	res, err := tx.ExecContext(ctx, q, e.Tx.AccountID, e.DeltaMinor, now, e.EnforceLimit)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 1 {
		return nil
	}
	return classifyGuardFailure(ctx, tx, e)
}

func classifyGuardFailure(ctx context.Context, tx *sql.Tx, e Entry) error {
	w, err := getWallet(ctx, tx, e.Tx.AccountID, false)
	if err != nil {
		return err
	}
	if w.BalanceMinor+e.DeltaMinor < 0 {
		return ErrInsufficientFunds
	}
	return ErrLimitExceeded
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(r rowScanner) (Transaction, error) {
	var (
		t    Transaction
		meta []byte
	)
	if err := r.Scan(
		&t.ID,
		&t.AccountID,
		&t.Type,
		&t.Direction,
		&t.AmountMinor,
		&meta,
		&t.IdempotencyKey,
		&t.CreatedAt,
	); err != nil {
		return Transaction{}, err
	}
	if len(meta) > 0 && string(meta) != "null" {
		if err := json.Unmarshal(meta, &t.Meta); err != nil {
			return Transaction{}, err
		}
	}
	return t, nil
}

func nullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}
