package messaging

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func newMockRepo(t *testing.T) (*PostgresRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return NewPostgresRepo(db), mock
}

func TestPostgresUpdateStatus_ReportsRows(t *testing.T) {
	r, mock := newMockRepo(t)
	mock.ExpectExec("UPDATE messages").
		WithArgs("SM1", "delivered", "").
		WillReturnResult(sqlmock.NewResult(0, 1))

	n, err := r.UpdateStatus(context.Background(), "SM1", "delivered", "")
	if err != nil || n != 1 {
		t.Fatalf("expected 1 row, got %d %v", n, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPostgresConversation_Scans(t *testing.T) {
	r, mock := newMockRepo(t)
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	cols := []string{"id", "number_id", "owner_id", "assigned_to", "from_number", "to_number", "body", "direction", "provider_sid", "status", "error", "created_at", "updated_at"}
	mock.ExpectQuery("SELECT (.+) FROM messages WHERE number_id = \\$1").
		WithArgs("n1", "+15559990000").
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("m1", "n1", "o1", "", "+15550000001", "+15559990000", "hi", "outbound", "SM1", "sent", "", now, now).
			AddRow("m2", "n1", "o1", "", "+15559990000", "+15550000001", "yo", "inbound", "SM2", "received", "", now, now))

	msgs, err := r.Conversation(context.Background(), "n1", "+15559990000")
	if err != nil {
		t.Fatalf("conversation: %v", err)
	}
	if len(msgs) != 2 || msgs[0].Direction != Outbound || msgs[1].Direction != Inbound || msgs[1].Body != "yo" {
		t.Fatalf("unexpected messages %+v", msgs)
	}
}

func TestPostgresAggregates_EmptyIDsSkipQuery(t *testing.T) {
	r, mock := newMockRepo(t)
	ctx := context.Background()

	if n, err := r.CountOutbound(ctx, nil); err != nil || n != 0 {
		t.Fatalf("expected 0, got %d %v", n, err)
	}
	if m, err := r.DailyCounts(ctx, nil, time.Now()); err != nil || len(m) != 0 {
		t.Fatalf("expected empty counts, got %v %v", m, err)
	}
	if l, err := r.Recent(ctx, nil, 20); err != nil || len(l) != 0 {
		t.Fatalf("expected no messages, got %v %v", l, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
