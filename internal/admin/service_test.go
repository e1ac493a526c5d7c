package admin

import (
	"context"
	"errors"
	"testing"

	"sms-platform/internal/accounts"
	"sms-platform/internal/audit"
	"sms-platform/internal/messaging"
	"sms-platform/internal/numbers"
	"sms-platform/internal/pricing"
	"sms-platform/internal/stream"
	"sms-platform/internal/telephony"
	"sms-platform/internal/wallet"
	"sms-platform/pkg/logger"
)

type okProvider struct{ sends int }

func (p *okProvider) Name() string                      { return "ok" }
func (p *okProvider) HealthCheck(context.Context) error { return nil }
func (p *okProvider) SendSMS(context.Context, telephony.SendRequest) (telephony.SendResult, error) {
	p.sends++
	return telephony.SendResult{SID: "SM1", Status: "queued"}, nil
}
func (p *okProvider) SearchNumbers(context.Context, telephony.SearchRequest) ([]string, error) {
	return nil, nil
}
func (p *okProvider) BuyNumber(_ context.Context, n string) (telephony.BuyResult, error) {
	return telephony.BuyResult{PhoneNumber: n}, nil
}
func (p *okProvider) ReleaseNumber(context.Context, string) error { return nil }

type fixture struct {
	svc    *Service
	accts  *accounts.Service
	ledger *wallet.Ledger
	nums   *numbers.Service
	audits *audit.MemoryRepo
	root   audit.Actor
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	ctx := context.Background()
	rates := pricing.DefaultRates()
	rates.SMSPriceMinor = 5
	prices := pricing.NewService(rates)
	ledger := wallet.NewLedger(wallet.NewMemoryStore(), prices, nil)
	accts := accounts.NewService(accounts.NewMemoryRepo(), ledger, prices)
	provider := &okProvider{}
	nums := numbers.NewService(numbers.NewMemoryRepo(), accts, ledger, provider, prices, logger.Discard())
	msgs := messaging.NewService(messaging.NewMemoryRepo(), nums, ledger, provider, stream.NewHub(4, logger.Discard()), prices, logger.Discard())
	audits := audit.NewMemoryRepo()

	root, err := accts.EnsureAdmin(ctx, "root@example.com", "rootpass1")
	if err != nil {
		t.Fatalf("admin: %v", err)
	}
	return fixture{
		svc:    NewService(accts, ledger, nums, msgs, audit.NewService(audits, logger.Discard()), logger.Discard()),
		accts:  accts,
		ledger: ledger,
		nums:   nums,
		audits: audits,
		root:   audit.Actor{ID: root.ID, Role: string(root.Role), IP: "10.0.0.1"},
	}
}

func (f fixture) signup(t *testing.T, email string) accounts.Account {
	t.Helper()
	a, err := f.accts.Signup(context.Background(), accounts.NewAccount{Email: email, Password: "secret123"})
	if err != nil {
		t.Fatalf("signup: %v", err)
	}
	return a
}

func TestWalletAdjust_CreditAndDebitAreAudited(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.signup(t, "u@example.com")

	in, err := f.svc.WalletAdjust(ctx, f.root, u.ID, 500, "")
	if err != nil {
		t.Fatalf("credit: %v", err)
	}
	if in.Type != wallet.TxDeposit || in.Meta["reason"] != "admin_adjust" || in.Meta["admin_id"] != f.root.ID {
		t.Fatalf("unexpected credit %+v", in)
	}
	out, err := f.svc.WalletAdjust(ctx, f.root, u.ID, -200, "chargeback")
	if err != nil {
		t.Fatalf("debit: %v", err)
	}
	if out.Type != wallet.TxTransfer || out.Direction != wallet.DirectionDebit || out.AmountMinor != 200 {
		t.Fatalf("unexpected debit %+v", out)
	}
	w, _ := f.ledger.Balance(ctx, u.ID)
	if w.BalanceMinor != 300 {
		t.Fatalf("expected 300, got %d", w.BalanceMinor)
	}

	if _, err := f.svc.WalletAdjust(ctx, f.root, u.ID, -1000, ""); !errors.Is(err, wallet.ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
	if _, err := f.svc.WalletAdjust(ctx, f.root, u.ID, 0, ""); !errors.Is(err, ErrZeroDelta) {
		t.Fatalf("expected ErrZeroDelta, got %v", err)
	}
	if _, err := f.svc.WalletAdjust(ctx, f.root, "missing", 10, ""); !errors.Is(err, accounts.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	evs := f.audits.Events()
	if len(evs) != 2 || evs[0].Type != audit.EventWalletAdjust || evs[1].Ref != out.ID || evs[1].IPAddress != "10.0.0.1" {
		t.Fatalf("unexpected audit trail %+v", evs)
	}
}

func TestDeleteUser_RefusesOwnersAndFreesAssignments(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	m := f.signup(t, "m@example.com")
	_, _ = f.ledger.Credit(ctx, m.ID, 900, wallet.TxDeposit, nil)
	if _, _, err := f.accts.SetPlan(ctx, m.ID, pricing.PlanStarter); err != nil {
		t.Fatalf("plan: %v", err)
	}
	sub, err := f.accts.CreateSub(ctx, m.ID, accounts.NewAccount{Email: "s@example.com", Password: "secret123"}, nil)
	if err != nil {
		t.Fatalf("sub: %v", err)
	}
	n, _ := f.svc.AddNumber(ctx, f.root, m.ID, "5550000001", "")
	if _, err := f.svc.AssignNumber(ctx, f.root, n.PhoneNumber, sub.ID); err != nil {
		t.Fatalf("assign: %v", err)
	}

	if err := f.svc.DeleteUser(ctx, f.root, m.ID); !errors.Is(err, ErrOwnsNumbers) {
		t.Fatalf("expected ErrOwnsNumbers, got %v", err)
	}
	if err := f.svc.DeleteUser(ctx, f.root, f.root.ID); !errors.Is(err, ErrDeleteSelf) {
		t.Fatalf("expected ErrDeleteSelf, got %v", err)
	}
	if err := f.svc.DeleteUser(ctx, f.root, sub.ID); err != nil {
		t.Fatalf("delete sub: %v", err)
	}
	got, _ := f.nums.FindByNumber(ctx, n.PhoneNumber)
	if got.AssignedTo != "" || got.OwnerID != m.ID {
		t.Fatalf("expected assignment cleared, got %+v", got)
	}
	if _, err := f.accts.Get(ctx, sub.ID); !errors.Is(err, accounts.ErrNotFound) {
		t.Fatalf("expected sub gone, got %v", err)
	}
}

type stuckNumbers struct {
	*numbers.Service
}

func (stuckNumbers) UnassignAllFrom(context.Context, string) (int, error) {
	return 0, errors.New("numbers store unavailable")
}

func TestDeleteUser_KeepsAccountWhenUnassignFails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	m := f.signup(t, "m@example.com")
	_, _ = f.ledger.Credit(ctx, m.ID, 900, wallet.TxDeposit, nil)
	if _, _, err := f.accts.SetPlan(ctx, m.ID, pricing.PlanStarter); err != nil {
		t.Fatalf("plan: %v", err)
	}
	sub, err := f.accts.CreateSub(ctx, m.ID, accounts.NewAccount{Email: "s@example.com", Password: "secret123"}, nil)
	if err != nil {
		t.Fatalf("sub: %v", err)
	}
	n, _ := f.svc.AddNumber(ctx, f.root, m.ID, "5550000001", "")
	if _, err := f.svc.AssignNumber(ctx, f.root, n.PhoneNumber, sub.ID); err != nil {
		t.Fatalf("assign: %v", err)
	}

	svc := NewService(f.accts, f.ledger, stuckNumbers{f.nums}, nil, audit.NewService(f.audits, logger.Discard()), logger.Discard())
	if err := svc.DeleteUser(ctx, f.root, sub.ID); err == nil {
		t.Fatalf("expected unassign failure to abort the delete")
	}
	if _, err := f.accts.Get(ctx, sub.ID); err != nil {
		t.Fatalf("sub must survive a failed delete: %v", err)
	}
	got, _ := f.nums.FindByNumber(ctx, n.PhoneNumber)
	if got.AssignedTo != sub.ID {
		t.Fatalf("assignment should be intact, got %+v", got)
	}
}

func TestDeleteUser_RefusesFundedAccountWithoutTouchingAssignments(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	m := f.signup(t, "m@example.com")
	_, _ = f.ledger.Credit(ctx, m.ID, 1000, wallet.TxDeposit, nil)
	if _, _, err := f.accts.SetPlan(ctx, m.ID, pricing.PlanStarter); err != nil {
		t.Fatalf("plan: %v", err)
	}
	sub, err := f.accts.CreateSub(ctx, m.ID, accounts.NewAccount{Email: "s@example.com", Password: "secret123"}, nil)
	if err != nil {
		t.Fatalf("sub: %v", err)
	}
	if _, err := f.ledger.TransferToSub(ctx, m.ID, sub.ID, 50); err != nil {
		t.Fatalf("fund sub: %v", err)
	}
	n, _ := f.svc.AddNumber(ctx, f.root, m.ID, "5550000001", "")
	if _, err := f.svc.AssignNumber(ctx, f.root, n.PhoneNumber, sub.ID); err != nil {
		t.Fatalf("assign: %v", err)
	}

	if err := f.svc.DeleteUser(ctx, f.root, sub.ID); !errors.Is(err, accounts.ErrBalanceRemaining) {
		t.Fatalf("expected ErrBalanceRemaining, got %v", err)
	}
	got, _ := f.nums.FindByNumber(ctx, n.PhoneNumber)
	if got.AssignedTo != sub.ID {
		t.Fatalf("assignment should be intact, got %+v", got)
	}
}

func TestUsersAndNumbers_ListHoldersWithEmails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	m := f.signup(t, "m@example.com")
	other := f.signup(t, "o@example.com")
	_, _ = f.svc.AddNumber(ctx, f.root, m.ID, "+15550000001", "us")
	_, _ = f.svc.WalletAdjust(ctx, f.root, m.ID, 123, "")

	if _, err := f.svc.TransferNumber(ctx, f.root, "+15550000001", other.ID); err != nil {
		t.Fatalf("transfer: %v", err)
	}

	rows, err := f.svc.Numbers(ctx)
	if err != nil {
		t.Fatalf("numbers: %v", err)
	}
	if len(rows) != 1 || rows[0].OwnerEmail != "o@example.com" || rows[0].Country != "US" {
		t.Fatalf("unexpected rows %+v", rows)
	}

	users, err := f.svc.Users(ctx)
	if err != nil {
		t.Fatalf("users: %v", err)
	}
	byEmail := map[string]UserRow{}
	for _, u := range users {
		byEmail[u.Email] = u
	}
	if byEmail["m@example.com"].WalletBalanceMinor != 123 || byEmail["o@example.com"].NumbersOwned != 1 {
		t.Fatalf("unexpected users %+v", users)
	}

	d, err := f.svc.User(ctx, other.ID)
	if err != nil {
		t.Fatalf("user: %v", err)
	}
	if len(d.Owned) != 1 || len(d.Assigned) != 0 || d.User.NumbersOwned != 1 {
		t.Fatalf("unexpected detail %+v", d)
	}
}

func TestSendMessage_FromAnyNumberWithoutCharge(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	m := f.signup(t, "m@example.com")
	_, _ = f.svc.AddNumber(ctx, f.root, m.ID, "+15550000001", "")

	if _, err := f.svc.SendMessage(ctx, f.root, "", "+15559990000", "hi"); !errors.Is(err, ErrMissingFields) {
		t.Fatalf("expected ErrMissingFields, got %v", err)
	}
	msg, err := f.svc.SendMessage(ctx, f.root, "+15550000001", "+15559990000", "hi")
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if msg.OwnerID != m.ID || msg.ProviderSID != "SM1" {
		t.Fatalf("unexpected message %+v", msg)
	}
	w, _ := f.ledger.Balance(ctx, m.ID)
	if w.BalanceMinor != 0 {
		t.Fatalf("admin sends must not charge the owner")
	}
	if _, err := f.svc.SendMessage(ctx, f.root, "+15557770000", "+15559990000", "hi"); !errors.Is(err, numbers.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown from, got %v", err)
	}
	logs, _ := f.svc.AuditLog(ctx, m.ID, 0)
	if len(logs) == 0 || logs[0].Type != audit.EventAdminSend {
		t.Fatalf("expected admin_send audited first, got %+v", logs)
	}
}
