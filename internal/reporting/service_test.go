package reporting

import (
	"context"
	"testing"
	"time"

	"sms-platform/internal/messaging"
	"sms-platform/internal/wallet"
)

type fakeWallets struct {
	balance int64
	txs     []wallet.Transaction
}

func (f fakeWallets) Balance(_ context.Context, id string) (wallet.Wallet, error) {
	return wallet.Wallet{AccountID: id, BalanceMinor: f.balance}, nil
}

func (f fakeWallets) Transactions(context.Context, string, int) ([]wallet.Transaction, error) {
	return f.txs, nil
}

type fakeMessages struct {
	ids      []string
	recent   []messaging.Message
	gotLimit int
}

func (f *fakeMessages) NumberIDs(context.Context, string) ([]string, error) { return f.ids, nil }

func (f *fakeMessages) Activity(_ context.Context, ids []string, days int) (int, []messaging.DailyCount, error) {
	series := make([]messaging.DailyCount, days)
	series[days-1] = messaging.DailyCount{Date: "2025-03-10", Messages: len(ids)}
	return 7, series, nil
}

func (f *fakeMessages) RecentFor(_ context.Context, _ []string, limit int) ([]messaging.Message, error) {
	f.gotLimit = limit
	return f.recent, nil
}

func TestOverview(t *testing.T) {
	msgs := &fakeMessages{ids: []string{"n1", "n2"}, recent: []messaging.Message{{ID: "m1"}}}
	svc := NewService(fakeWallets{balance: 1250}, msgs)

	out, err := svc.Overview(context.Background(), "acct")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if out.WalletBalance != "12.50" || out.WalletBalanceMinor != 1250 {
		t.Fatalf("unexpected balance %+v", out)
	}
	if out.NumbersCount != 2 || out.TotalSent != 7 || len(out.Series) != 30 || out.Series[29].Messages != 2 {
		t.Fatalf("unexpected overview %+v", out)
	}
	if len(out.Recent) != 1 || msgs.gotLimit != 20 {
		t.Fatalf("expected 20 recent requested, got %d", msgs.gotLimit)
	}

	if _, err := svc.Overview(context.Background(), ""); err != ErrInvalidRequest {
		t.Fatalf("expected ErrInvalidRequest, got %v", err)
	}
}

func TestSpendSummary_Aggregates(t *testing.T) {
	now := time.Unix(1700000000, 0).UTC()
	tx := func(typ wallet.TxType, dir wallet.Direction, amt int64, at time.Time, meta map[string]string) wallet.Transaction {
		return wallet.Transaction{Type: typ, Direction: dir, AmountMinor: amt, CreatedAt: at, Meta: meta}
	}
	w := fakeWallets{txs: []wallet.Transaction{
		tx(wallet.TxDeposit, wallet.DirectionCredit, 1000, now, nil),
		tx(wallet.TxSMS, wallet.DirectionDebit, 5, now, nil),
		tx(wallet.TxSMS, wallet.DirectionCredit, 5, now, map[string]string{"refund": "t1"}),
		tx(wallet.TxPurchase, wallet.DirectionDebit, 250, now, nil),
		tx(wallet.TxTransfer, wallet.DirectionDebit, 100, now, map[string]string{"to": "sub"}),
		tx(wallet.TxTransfer, wallet.DirectionDebit, 40, now, map[string]string{"admin_id": "root"}),
		tx(wallet.TxDeposit, wallet.DirectionCredit, 25, now, map[string]string{"admin_id": "root"}),
		tx(wallet.TxDeposit, wallet.DirectionCredit, 9999, now.Add(-48*time.Hour), nil),
	}}
	svc := NewService(w, &fakeMessages{})

	out, err := svc.SpendSummary(context.Background(), "acct", TimeRange{From: now.Add(-time.Hour), To: now.Add(time.Hour)})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if out.TotalCreditMinor != 1030 || out.TotalDebitMinor != 395 || out.NetDeltaMinor != 635 {
		t.Fatalf("unexpected totals %+v", out)
	}
	if out.SMSDebitMinor != 5 || out.PurchaseDebitMinor != 250 || out.TransferOutMinor != 100 || out.AdminAdjustMinor != -15 {
		t.Fatalf("unexpected categories %+v", out)
	}

	if _, err := svc.SpendSummary(context.Background(), "acct", TimeRange{From: now, To: now.Add(-time.Hour)}); err != ErrInvalidRequest {
		t.Fatalf("expected ErrInvalidRequest for inverted range, got %v", err)
	}
}
