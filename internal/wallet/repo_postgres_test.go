package wallet

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func newMockStore(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	s := NewPostgresStore(db)
	s.clock = func() time.Time { return time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC) }
	return s, mock
}

func transferEntries() []Entry {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	return []Entry{
		{DeltaMinor: -1500, Tx: Transaction{ID: "t1", AccountID: "M", Type: TxTransfer, Direction: DirectionDebit, AmountMinor: 1500, Meta: map[string]string{"to": "S"}, CreatedAt: now}},
		{DeltaMinor: 1500, EnforceLimit: true, Tx: Transaction{ID: "t2", AccountID: "S", Type: TxTransfer, Direction: DirectionCredit, AmountMinor: 1500, Meta: map[string]string{"from": "M"}, CreatedAt: now}},
	}
}

func TestPostgresApply_BothLegsInOneTx(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO transactions").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE wallets").
		WithArgs("M", int64(-1500), sqlmock.AnyArg(), false).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO transactions").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE wallets").
		WithArgs("S", int64(1500), sqlmock.AnyArg(), true).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	txs, err := s.Apply(context.Background(), transferEntries())
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if len(txs) != 2 {
		t.Fatalf("expected 2 transactions, got %d", len(txs))
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPostgresApply_LimitGuardRollsBackFirstLeg(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO transactions").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE wallets").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO transactions").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE wallets").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT account_id").
		WithArgs("S").
		WillReturnRows(sqlmock.NewRows([]string{"account_id", "parent_id", "balance_minor", "limit_minor", "updated_at"}).
			AddRow("S", "M", int64(1500), int64(2000), time.Now()))
	mock.ExpectRollback()

	_, err := s.Apply(context.Background(), transferEntries())
	if !errors.Is(err, ErrLimitExceeded) {
		t.Fatalf("expected ErrLimitExceeded, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPostgresApply_InsufficientFunds(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO transactions").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE wallets").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT account_id").
		WillReturnRows(sqlmock.NewRows([]string{"account_id", "parent_id", "balance_minor", "limit_minor", "updated_at"}).
			AddRow("M", "", int64(100), nil, time.Now()))
	mock.ExpectRollback()

	_, err := s.Apply(context.Background(), transferEntries()[:1])
	if !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPostgresGet_NotFound(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery("SELECT account_id").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"account_id", "parent_id", "balance_minor", "limit_minor", "updated_at"}))

	if _, err := s.Get(context.Background(), "missing"); !errors.Is(err, ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}

func TestPostgresSetLimit_UnknownAccount(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectExec("UPDATE wallets SET limit_minor").WillReturnResult(sqlmock.NewResult(0, 0))

	limit := int64(2000)
	if err := s.SetLimit(context.Background(), "missing", &limit); !errors.Is(err, ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}

func TestPostgresTransactions_DecodesMeta(t *testing.T) {
	s, mock := newMockStore(t)
	now := time.Now().UTC()
	mock.ExpectQuery("SELECT id, account_id, type").
		WithArgs("M", 100).
		WillReturnRows(sqlmock.NewRows([]string{"id", "account_id", "type", "direction", "amount_minor", "meta", "idempotency_key", "created_at"}).
			AddRow("t1", "M", "purchase", "debit", int64(250), []byte(`{"kind":"number"}`), "", now))

	txs, err := s.Transactions(context.Background(), "M", 100)
	if err != nil {
		t.Fatalf("transactions: %v", err)
	}
	if len(txs) != 1 || txs[0].Meta["kind"] != "number" || txs[0].Type != TxPurchase {
		t.Fatalf("unexpected transactions %+v", txs)
	}
}
