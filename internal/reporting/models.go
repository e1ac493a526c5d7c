package reporting

import (
	"time"

	"sms-platform/internal/messaging"
)

type TimeRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// Overview is the dashboard of one account.
type Overview struct {
	WalletBalanceMinor int64                  `json:"wallet_balance_minor"`
	WalletBalance      string                 `json:"walletBalance"`
	NumbersCount       int                    `json:"numbersCount"`
	TotalSent          int                    `json:"totalSent"`
	Series             []messaging.DailyCount `json:"series"`
	Recent             []messaging.Message    `json:"recent"`
}

// SpendSummary aggregates immutable ledger rows of one wallet over a range.
type SpendSummary struct {
	AccountID string    `json:"account_id"`
	Range     TimeRange `json:"range"`

	TotalDebitMinor  int64 `json:"total_debit_minor"`
	TotalCreditMinor int64 `json:"total_credit_minor"`
	NetDeltaMinor    int64 `json:"net_delta_minor"`

	SMSDebitMinor      int64 `json:"sms_debit_minor"`
	PurchaseDebitMinor int64 `json:"purchase_debit_minor"`
	TransferOutMinor   int64 `json:"transfer_out_minor"`
	AdminAdjustMinor   int64 `json:"admin_adjust_minor"`
}
