package payments

import (
	"context"
	"errors"
	"strings"
	"testing"

	"sms-platform/internal/accounts"
	"sms-platform/internal/config"
	"sms-platform/internal/pricing"
	"sms-platform/internal/wallet"
	"sms-platform/pkg/logger"
)

const testSalt = "s4lt"

type fixture struct {
	svc    *Service
	ledger *wallet.Ledger
	accts  *accounts.Service
	main   accounts.Account
}

func newFixture(t *testing.T, cfg config.PaymentsConfig) fixture {
	t.Helper()
	prices := pricing.NewService(pricing.DefaultRates())
	ledger := wallet.NewLedger(wallet.NewMemoryStore(), prices, nil)
	accts := accounts.NewService(accounts.NewMemoryRepo(), ledger, prices)
	m, err := accts.Signup(context.Background(), accounts.NewAccount{Email: "m@example.com", Password: "secret123"})
	if err != nil {
		t.Fatalf("signup: %v", err)
	}
	svc := NewService(NewMemoryRepo(), accts, ledger, cfg, logger.Discard())
	svc.ReturnURL = "https://api.example.com/v1/payments/jazzcash/return"
	return fixture{svc: svc, ledger: ledger, accts: accts, main: m}
}

func jazzCashConfig() config.PaymentsConfig {
	return config.PaymentsConfig{JazzCashMerchantID: "MC1", JazzCashPassword: "pw", JazzCashIntegritySalt: testSalt}
}

// gatewayReply is what JazzCash posts back for the given request form.
func gatewayReply(req map[string]string, code string) map[string]string {
	out := map[string]string{
		"pp_TxnRefNo":        req["pp_TxnRefNo"],
		"pp_Amount":          req["pp_Amount"],
		"pp_MerchantID":      req["pp_MerchantID"],
		"pp_ResponseCode":    code,
		"pp_ResponseMessage": "done",
		"pp_BillReference":   req["pp_BillReference"],
	}
	out["pp_SecureHash"] = SignJazzCash(out, testSalt)
	return out
}

func TestSignJazzCash_SortedNonEmptyPPFields(t *testing.T) {
	fields := map[string]string{
		"pp_B":          "2",
		"pp_A":          "1",
		"pp_Empty":      "",
		"other":         "ignored",
		"pp_SecureHash": "ignored",
	}
	got := SignJazzCash(fields, testSalt)
	want := SignJazzCash(map[string]string{"pp_A": "1", "pp_B": "2"}, testSalt)
	if got != want {
		t.Fatalf("expected non pp_ and empty fields ignored")
	}
	if got != strings.ToUpper(got) || len(got) != 64 {
		t.Fatalf("expected upper-case sha256 hex, got %q", got)
	}
	if SignJazzCash(fields, "other") == got {
		t.Fatalf("salt must key the hash")
	}
}

func TestStart_Validation(t *testing.T) {
	f := newFixture(t, jazzCashConfig())
	ctx := context.Background()

	if _, _, err := f.svc.Start(ctx, f.main.ID, MethodJazzCash, 0); !errors.Is(err, wallet.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
	if _, _, err := f.svc.Start(ctx, f.main.ID, Method("paypal"), 100); !errors.Is(err, ErrUnknownMethod) {
		t.Fatalf("expected ErrUnknownMethod, got %v", err)
	}

	_, _ = f.ledger.Credit(ctx, f.main.ID, 900, wallet.TxDeposit, nil)
	if _, _, err := f.accts.SetPlan(ctx, f.main.ID, pricing.PlanStarter); err != nil {
		t.Fatalf("plan: %v", err)
	}
	sub, err := f.accts.CreateSub(ctx, f.main.ID, accounts.NewAccount{Email: "s@example.com", Password: "secret123"}, nil)
	if err != nil {
		t.Fatalf("sub: %v", err)
	}
	if _, _, err := f.svc.Start(ctx, sub.ID, MethodJazzCash, 100); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden for sub, got %v", err)
	}
}

func TestStart_UnconfiguredStillRecordsCheckout(t *testing.T) {
	f := newFixture(t, config.PaymentsConfig{})
	ctx := context.Background()

	c, form, err := f.svc.Start(ctx, f.main.ID, MethodEasyPaisa, 500)
	if !errors.Is(err, ErrMethodNotConfigured) {
		t.Fatalf("expected ErrMethodNotConfigured, got %v", err)
	}
	if c.ID == "" || c.Status != StatusPending || form != nil {
		t.Fatalf("unexpected checkout %+v form %v", c, form)
	}
	list, _ := f.svc.List(ctx, f.main.ID)
	if len(list) != 1 || list[0].Method != MethodEasyPaisa {
		t.Fatalf("expected recorded checkout, got %+v", list)
	}
}

func TestJazzCash_CompleteCreditsOnce(t *testing.T) {
	f := newFixture(t, jazzCashConfig())
	ctx := context.Background()

	c, form, err := f.svc.Start(ctx, f.main.ID, MethodJazzCash, 1500)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if form == nil || form.Fields["pp_Amount"] != "1500" || len(form.Fields["pp_TxnRefNo"]) > 20 {
		t.Fatalf("unexpected form %+v", form)
	}
	if form.Fields["pp_SecureHash"] != SignJazzCash(form.Fields, testSalt) {
		t.Fatalf("form must carry its own signature")
	}

	reply := gatewayReply(form.Fields, "000")
	for i := 0; i < 2; i++ {
		done, err := f.svc.CompleteJazzCash(ctx, reply)
		if err != nil {
			t.Fatalf("complete #%d: %v", i, err)
		}
		if done.ID != c.ID || done.Status != StatusCompleted {
			t.Fatalf("unexpected checkout %+v", done)
		}
	}

	w, _ := f.ledger.Balance(ctx, f.main.ID)
	if w.BalanceMinor != 1500 {
		t.Fatalf("expected a single 1500 credit, got %d", w.BalanceMinor)
	}
	txs, _ := f.ledger.Transactions(ctx, f.main.ID, 0)
	if len(txs) != 1 || txs[0].Type != wallet.TxDeposit || txs[0].Meta["checkout_id"] != c.ID {
		t.Fatalf("unexpected transactions %+v", txs)
	}
}

func TestJazzCash_FailureAndTampering(t *testing.T) {
	f := newFixture(t, jazzCashConfig())
	ctx := context.Background()

	_, form, err := f.svc.Start(ctx, f.main.ID, MethodJazzCash, 700)
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	tampered := gatewayReply(form.Fields, "000")
	tampered["pp_Amount"] = "700000"
	if _, err := f.svc.CompleteJazzCash(ctx, tampered); !errors.Is(err, ErrBadSignature) {
		t.Fatalf("expected ErrBadSignature, got %v", err)
	}

	failed, err := f.svc.CompleteJazzCash(ctx, gatewayReply(form.Fields, "124"))
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if failed.Status != StatusFailed {
		t.Fatalf("expected failed, got %s", failed.Status)
	}

	// A late success for a failed checkout changes nothing.
	if c, err := f.svc.CompleteJazzCash(ctx, gatewayReply(form.Fields, "000")); err != nil || c.Status != StatusFailed {
		t.Fatalf("expected failed checkout to stay failed, got %+v %v", c, err)
	}
	w, _ := f.ledger.Balance(ctx, f.main.ID)
	if w.BalanceMinor != 0 {
		t.Fatalf("expected no credit, got %d", w.BalanceMinor)
	}
}

func TestGet_HidesOtherAccounts(t *testing.T) {
	f := newFixture(t, config.PaymentsConfig{})
	ctx := context.Background()
	c, _, _ := f.svc.Start(ctx, f.main.ID, MethodJazzCash, 100)

	if _, err := f.svc.Get(ctx, "someone-else", c.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if got, err := f.svc.Get(ctx, f.main.ID, c.ID); err != nil || got.ID != c.ID {
		t.Fatalf("expected own checkout, got %+v %v", got, err)
	}
}
