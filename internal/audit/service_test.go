package audit

import (
	"context"
	"strings"
	"testing"

	"sms-platform/pkg/logger"
)

func TestService_AppendRequiresTypeAndActor(t *testing.T) {
	svc := NewService(NewMemoryRepo(), logger.Discard())

	if err := svc.Append(context.Background(), Event{ActorID: "a"}); err != ErrInvalidEvent {
		t.Fatalf("expected ErrInvalidEvent without type, got %v", err)
	}
	if err := svc.Append(context.Background(), Event{Type: EventWalletAdjust}); err != ErrInvalidEvent {
		t.Fatalf("expected ErrInvalidEvent without actor, got %v", err)
	}
}

func TestService_RecordCapturesContextIPAndMetadata(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo, logger.Discard())
	ctx := WithClientIP(context.Background(), "1.2.3.4")

	svc.Record(ctx, Actor{ID: "root", Role: "admin"}, EventWalletAdjust, "acct", "tx1", "wallet adjusted", map[string]string{"reason": "refund"})

	evs := repo.Events()
	if len(evs) != 1 {
		t.Fatalf("expected 1 event, got %d", len(evs))
	}
	e := evs[0]
	if e.IPAddress != "1.2.3.4" || e.ID == "" || e.CreatedAt.IsZero() {
		t.Fatalf("expected ip, id and time filled, got %+v", e)
	}
	if !strings.Contains(e.Metadata, `"reason":"refund"`) {
		t.Fatalf("expected JSON metadata, got %q", e.Metadata)
	}
}

func TestService_RecordSwallowsInvalidEvents(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo, logger.Discard())
	svc.Record(context.Background(), Actor{}, EventAdminSend, "", "", "", nil)
	if len(repo.Events()) != 0 {
		t.Fatalf("expected nothing appended")
	}
}

func TestMemoryRepo_ListNewestFirstByAccount(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo, logger.Discard())
	ctx := context.Background()
	for _, acct := range []string{"a", "b", "a"} {
		svc.Record(ctx, Actor{ID: "root"}, EventNumberChange, acct, "", acct, nil)
	}

	all, _ := svc.List(ctx, "", 0)
	onlyA, _ := svc.List(ctx, "a", 1)
	if len(all) != 3 || all[0].AccountID != "a" || all[1].AccountID != "b" {
		t.Fatalf("unexpected order %+v", all)
	}
	if len(onlyA) != 1 || onlyA[0].AccountID != "a" {
		t.Fatalf("unexpected filtered list %+v", onlyA)
	}
}
