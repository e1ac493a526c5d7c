package messaging

import (
	"context"
	"errors"
	"testing"
	"time"

	"sms-platform/internal/accounts"
	"sms-platform/internal/numbers"
	"sms-platform/internal/pricing"
	"sms-platform/internal/stream"
	"sms-platform/internal/telephony"
	"sms-platform/internal/wallet"
	"sms-platform/pkg/logger"
)

type stubProvider struct {
	sendErr error
	sent    []telephony.SendRequest
}

func (p *stubProvider) Name() string { return "stub" }
func (p *stubProvider) HealthCheck(context.Context) error { return nil }
func (p *stubProvider) SendSMS(_ context.Context, req telephony.SendRequest) (telephony.SendResult, error) {
	if p.sendErr != nil {
		return telephony.SendResult{}, p.sendErr
	}
	p.sent = append(p.sent, req)
	return telephony.SendResult{SID: "SM" + req.To, Status: "queued"}, nil
}
func (p *stubProvider) SearchNumbers(context.Context, telephony.SearchRequest) ([]string, error) {
	return nil, nil
}
func (p *stubProvider) BuyNumber(_ context.Context, n string) (telephony.BuyResult, error) {
	return telephony.BuyResult{PhoneNumber: n, ProviderID: "PN1"}, nil
}
func (p *stubProvider) ReleaseNumber(context.Context, string) error { return nil }

type fixture struct {
	svc      *Service
	repo     *MemoryRepo
	hub      *stream.Hub
	provider *stubProvider
	ledger   *wallet.Ledger
	accts    *accounts.Service
	nums     *numbers.Service
	main     accounts.Account
	sub      accounts.Account
	number   numbers.PhoneNumber
}

// newFixture builds a main account on the starter plan with one sub and one
// number assigned to that sub. rates.SMSPriceMinor controls per-message charging.
func newFixture(t *testing.T, smsPrice int64) fixture {
	t.Helper()
	ctx := context.Background()
	rates := pricing.DefaultRates()
	rates.SMSPriceMinor = smsPrice
	prices := pricing.NewService(rates)

	ledger := wallet.NewLedger(wallet.NewMemoryStore(), prices, nil)
	accts := accounts.NewService(accounts.NewMemoryRepo(), ledger, prices)
	provider := &stubProvider{}
	nums := numbers.NewService(numbers.NewMemoryRepo(), accts, ledger, provider, prices, logger.Discard())
	hub := stream.NewHub(8, logger.Discard())
	repo := NewMemoryRepo()

	m, err := accts.Signup(ctx, accounts.NewAccount{Email: "m@example.com", Password: "secret123"})
	if err != nil {
		t.Fatalf("signup: %v", err)
	}
	if _, err := ledger.Credit(ctx, m.ID, 1000, wallet.TxDeposit, nil); err != nil {
		t.Fatalf("credit: %v", err)
	}
	if _, _, err := accts.SetPlan(ctx, m.ID, pricing.PlanStarter); err != nil {
		t.Fatalf("plan: %v", err)
	}
	s, err := accts.CreateSub(ctx, m.ID, accounts.NewAccount{Email: "s@example.com", Password: "secret123"}, nil)
	if err != nil {
		t.Fatalf("sub: %v", err)
	}
	n, err := nums.AddExisting(ctx, m.ID, "+15550000001", "US")
	if err != nil {
		t.Fatalf("add number: %v", err)
	}
	if n, err = nums.Assign(ctx, m.ID, n.ID, s.ID); err != nil {
		t.Fatalf("assign: %v", err)
	}

	return fixture{
		svc:      NewService(repo, nums, ledger, provider, hub, prices, logger.Discard()),
		repo:     repo,
		hub:      hub,
		provider: provider,
		ledger:   ledger,
		accts:    accts,
		nums:     nums,
		main:     m,
		sub:      s,
		number:   n,
	}
}

func TestSend_DefaultNumberStoresAndPublishesToOwnerAndAssignee(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()
	ownerStream := f.hub.Subscribe(f.main.ID)
	subStream := f.hub.Subscribe(f.sub.ID)
	defer f.hub.Close()

	m, err := f.svc.Send(ctx, f.sub.ID, SendInput{To: "(555) 999-0000", Body: " hello "})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if m.From != "+15550000001" || m.To != "+15559990000" || m.Body != "hello" || m.Status != StatusSent || m.ProviderSID == "" {
		t.Fatalf("unexpected message %+v", m)
	}
	if m.OwnerID != f.main.ID || m.AssignedTo != f.sub.ID {
		t.Fatalf("expected denormalized holders, got %+v", m)
	}

	for _, s := range []*stream.Subscription{ownerStream, subStream} {
		select {
		case ev := <-s.Events():
			if ev.ID != m.ID || ev.Direction != "outbound" {
				t.Fatalf("unexpected event %+v", ev)
			}
		default:
			t.Fatalf("no event for %s", s.AccountID)
		}
	}
}

func TestSend_RejectsNumbersTheCallerCannotUse(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()
	other, _ := f.accts.Signup(ctx, accounts.NewAccount{Email: "o@example.com", Password: "secret123"})

	if _, err := f.svc.Send(ctx, other.ID, SendInput{From: "+15550000001", To: "+15559990000", Body: "x"}); !errors.Is(err, ErrNumberNotAllowed) {
		t.Fatalf("expected ErrNumberNotAllowed, got %v", err)
	}
	if _, err := f.svc.Send(ctx, other.ID, SendInput{To: "+15559990000", Body: "x"}); !errors.Is(err, ErrNoSendingNumber) {
		t.Fatalf("expected ErrNoSendingNumber, got %v", err)
	}
	if _, err := f.svc.Send(ctx, f.main.ID, SendInput{To: "", Body: "x"}); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
	if len(f.provider.sent) != 0 {
		t.Fatalf("provider must not be called")
	}
}

func TestSend_ChargesAndRefundsOnProviderFailure(t *testing.T) {
	f := newFixture(t, 5)
	ctx := context.Background()
	if _, err := f.ledger.TransferToSub(ctx, f.main.ID, f.sub.ID, 50); err != nil {
		t.Fatalf("fund sub: %v", err)
	}

	if _, err := f.svc.Send(ctx, f.sub.ID, SendInput{To: "+15559990000", Body: "paid"}); err != nil {
		t.Fatalf("send: %v", err)
	}
	w, _ := f.ledger.Balance(ctx, f.sub.ID)
	if w.BalanceMinor != 45 {
		t.Fatalf("expected 45 after charge, got %d", w.BalanceMinor)
	}

	f.provider.sendErr = &telephony.ProviderError{Provider: "stub", Status: 500, Body: "boom"}
	_, err := f.svc.Send(ctx, f.sub.ID, SendInput{To: "+15559990000", Body: "fails"})
	var pe *telephony.ProviderError
	if !errors.As(err, &pe) {
		t.Fatalf("expected ProviderError, got %v", err)
	}
	w, _ = f.ledger.Balance(ctx, f.sub.ID)
	if w.BalanceMinor != 45 {
		t.Fatalf("expected refund to restore 45, got %d", w.BalanceMinor)
	}
	txs, _ := f.ledger.Transactions(ctx, f.sub.ID, 0)
	if len(txs) == 0 || txs[0].Type != wallet.TxSMS || txs[0].Direction != wallet.DirectionCredit || txs[0].Meta["refund"] == "" {
		t.Fatalf("expected newest tx to be an sms refund, got %+v", txs)
	}
}

func TestSend_InsufficientFundsBlocksProvider(t *testing.T) {
	f := newFixture(t, 5)
	if _, err := f.svc.Send(context.Background(), f.sub.ID, SendInput{To: "+15559990000", Body: "x"}); !errors.Is(err, wallet.ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
	if len(f.provider.sent) != 0 {
		t.Fatalf("provider must not be called without funds")
	}
}

func TestSendAs_AnyNumberWithoutCharge(t *testing.T) {
	f := newFixture(t, 5)
	m, err := f.svc.SendAs(context.Background(), "5550000001", SendInput{To: "+15559990000", Body: "admin"})
	if err != nil {
		t.Fatalf("send as: %v", err)
	}
	if m.From != "+15550000001" || m.OwnerID != f.main.ID {
		t.Fatalf("unexpected message %+v", m)
	}
}

func TestReceive_UnknownNumberStoredWithoutRecipients(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()
	s := f.hub.Subscribe(f.main.ID)
	defer f.hub.Close()

	if err := f.svc.Receive(ctx, telephony.InboundSMS{MessageSID: "SMx", From: "5551112222", To: "+15557770000", Body: "lost"}); err != nil {
		t.Fatalf("receive: %v", err)
	}
	if err := f.svc.Receive(ctx, telephony.InboundSMS{MessageSID: "SMy", From: "5551112222", To: "+1 555 000 0001", Body: "found"}); err != nil {
		t.Fatalf("receive: %v", err)
	}

	select {
	case ev := <-s.Events():
		if ev.Body != "found" || ev.From != "+15551112222" || ev.Direction != "inbound" {
			t.Fatalf("unexpected event %+v", ev)
		}
	default:
		t.Fatalf("owner should receive the matched inbound message")
	}
	select {
	case ev := <-s.Events():
		t.Fatalf("unexpected second event %+v", ev)
	default:
	}
	if got := len(f.repo.msgs); got != 2 {
		t.Fatalf("expected both messages stored, got %d", got)
	}
}

func TestReceive_FansOutToOwnerAndAssignee(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()
	ownerStream := f.hub.Subscribe(f.main.ID)
	subStream := f.hub.Subscribe(f.sub.ID)
	defer f.hub.Close()

	if err := f.svc.Receive(ctx, telephony.InboundSMS{MessageSID: "SMin", From: "+15551112222", To: "+15550000001", Body: "hi both"}); err != nil {
		t.Fatalf("receive: %v", err)
	}

	for _, s := range []*stream.Subscription{ownerStream, subStream} {
		select {
		case ev := <-s.Events():
			if ev.Body != "hi both" || ev.Direction != "inbound" || ev.To != "+15550000001" {
				t.Fatalf("unexpected event for %s: %+v", s.AccountID, ev)
			}
		default:
			t.Fatalf("no inbound event for %s", s.AccountID)
		}
		select {
		case ev := <-s.Events():
			t.Fatalf("duplicate event for %s: %+v", s.AccountID, ev)
		default:
		}
	}

	stored := f.repo.msgs
	if len(stored) != 1 {
		t.Fatalf("expected one stored message, got %d", len(stored))
	}
	for _, m := range stored {
		if m.OwnerID != f.main.ID || m.AssignedTo != f.sub.ID || m.Status != StatusReceived {
			t.Fatalf("unexpected stored message %+v", m)
		}
	}
}

func TestUpdateStatusAndHistory(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()

	out, _ := f.svc.Send(ctx, f.main.ID, SendInput{To: "+15559990000", Body: "one"})
	_ = f.svc.Receive(ctx, telephony.InboundSMS{From: "+15559990000", To: "+15550000001", Body: "two"})
	_ = f.svc.Receive(ctx, telephony.InboundSMS{From: "+15558880000", To: "+15550000001", Body: "other party"})

	if err := f.svc.UpdateStatus(ctx, out.ProviderSID, "delivered", ""); err != nil {
		t.Fatalf("update status: %v", err)
	}
	if err := f.svc.UpdateStatus(ctx, "SM-unknown", "delivered", ""); err != nil {
		t.Fatalf("unknown sid should be ignored: %v", err)
	}

	hist, err := f.svc.History(ctx, f.sub.ID, "5550000001", "5559990000")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(hist) != 2 || hist[0].Body != "one" || hist[1].Body != "two" || hist[0].Status != "delivered" {
		t.Fatalf("unexpected history %+v", hist)
	}

	other, _ := f.accts.Signup(ctx, accounts.NewAccount{Email: "o@example.com", Password: "secret123"})
	if _, err := f.svc.History(ctx, other.ID, "+15550000001", "+15559990000"); !errors.Is(err, ErrNumberNotAllowed) {
		t.Fatalf("expected ErrNumberNotAllowed, got %v", err)
	}
}

func TestActivity_ZeroFilledSeries(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()
	now := time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC)
	f.svc.clock = func() time.Time { return now }

	_, _ = f.svc.Send(ctx, f.main.ID, SendInput{To: "+15559990000", Body: "today"})
	f.svc.clock = func() time.Time { return now.AddDate(0, 0, -3) }
	_, _ = f.svc.Send(ctx, f.main.ID, SendInput{To: "+15559990000", Body: "earlier"})
	_ = f.svc.Receive(ctx, telephony.InboundSMS{From: "+15559990000", To: "+15550000001", Body: "reply"})
	f.svc.clock = func() time.Time { return now }

	ids, _ := f.svc.NumberIDs(ctx, f.main.ID)
	total, series, err := f.svc.Activity(ctx, ids, 30)
	if err != nil {
		t.Fatalf("activity: %v", err)
	}
	if total != 2 {
		t.Fatalf("expected 2 outbound, got %d", total)
	}
	if len(series) != 30 || series[29].Date != "2025-03-10" || series[0].Date != "2025-02-09" {
		t.Fatalf("unexpected series bounds %v .. %v", series[0], series[len(series)-1])
	}
	if series[29].Messages != 1 || series[26].Messages != 2 || series[27].Messages != 0 {
		t.Fatalf("unexpected counts %v %v %v", series[26], series[27], series[29])
	}

	recent, _ := f.svc.Recent(ctx, f.main.ID, 20)
	if len(recent) != 3 || recent[0].Body != "today" {
		t.Fatalf("unexpected recent %+v", recent)
	}
}
