package admin

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"

	"sms-platform/internal/accounts"
	"sms-platform/internal/audit"
	"sms-platform/internal/messaging"
	"sms-platform/internal/numbers"
	"sms-platform/internal/wallet"
)

var (
	ErrZeroDelta     = errors.New("delta must be a non-zero amount")
	ErrOwnsNumbers   = accounts.ErrOwnsNumbers
	ErrDeleteSelf    = errors.New("cannot delete the signed-in admin")
	ErrMissingFields = errors.New("from, to and body required")
)

type Accounts interface {
	Get(ctx context.Context, id string) (accounts.Account, error)
	List(ctx context.Context) ([]accounts.Account, error)
	Delete(ctx context.Context, id string) error
}

type Ledger interface {
	Balance(ctx context.Context, accountID string) (wallet.Wallet, error)
	Transactions(ctx context.Context, accountID string, limit int) ([]wallet.Transaction, error)
	Credit(ctx context.Context, accountID string, amountMinor int64, typ wallet.TxType, meta map[string]string) (wallet.Transaction, error)
	Debit(ctx context.Context, accountID string, amountMinor int64, typ wallet.TxType, meta map[string]string) (wallet.Transaction, error)
}

type Numbers interface {
	List(ctx context.Context) ([]numbers.PhoneNumber, error)
	CountOwned(ctx context.Context, accountID string) (int, error)
	AddExisting(ctx context.Context, accountID, phoneNumber, country string) (numbers.PhoneNumber, error)
	AssignAny(ctx context.Context, phoneNumber, subID string) (numbers.PhoneNumber, error)
	UnassignAny(ctx context.Context, phoneNumber string) (numbers.PhoneNumber, error)
	TransferOwnership(ctx context.Context, phoneNumber, newOwnerID string) (numbers.PhoneNumber, error)
	UnassignAllFrom(ctx context.Context, subID string) (int, error)
}

type Sender interface {
	SendAs(ctx context.Context, from string, in messaging.SendInput) (messaging.Message, error)
}

// Service is the operator console. Every mutation is audited.
type Service struct {
	accts   Accounts
	ledger  Ledger
	numbers Numbers
	sender  Sender
	audit   *audit.Service
	log     *slog.Logger
}

func NewService(accts Accounts, ledger Ledger, nums Numbers, sender Sender, auditor *audit.Service, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{accts: accts, ledger: ledger, numbers: nums, sender: sender, audit: auditor, log: log}
}

type UserRow struct {
	accounts.Account
	WalletBalanceMinor int64 `json:"wallet_balance_minor"`
	NumbersOwned       int   `json:"numbers_owned"`
}

// Users lists every account newest first with balance and owned number count.
func (s *Service) Users(ctx context.Context) ([]UserRow, error) {
	list, err := s.accts.List(ctx)
	if err != nil {
		return nil, err
	}
	all, err := s.numbers.List(ctx)
	if err != nil {
		return nil, err
	}
	owned := map[string]int{}
	for _, n := range all {
		owned[n.OwnerID]++
	}

	out := make([]UserRow, 0, len(list))
	for _, a := range list {
		row := UserRow{Account: a, NumbersOwned: owned[a.ID]}
		if w, err := s.ledger.Balance(ctx, a.ID); err == nil {
			row.WalletBalanceMinor = w.BalanceMinor
		} else if !errors.Is(err, wallet.ErrAccountNotFound) {
			return nil, err
		}
		out = append(out, row)
	}
	return out, nil
}

type UserDetail struct {
	User         UserRow               `json:"user"`
	Owned        []numbers.PhoneNumber `json:"owned"`
	Assigned     []numbers.PhoneNumber `json:"assigned"`
	Transactions []wallet.Transaction  `json:"transactions"`
}

func (s *Service) User(ctx context.Context, id string) (UserDetail, error) {
	a, err := s.accts.Get(ctx, id)
	if err != nil {
		return UserDetail{}, err
	}
	d := UserDetail{User: UserRow{Account: a}, Owned: []numbers.PhoneNumber{}, Assigned: []numbers.PhoneNumber{}}

	all, err := s.numbers.List(ctx)
	if err != nil {
		return UserDetail{}, err
	}
	for _, n := range all {
		if n.OwnerID == id {
			d.Owned = append(d.Owned, n)
		}
		if n.AssignedTo == id {
			d.Assigned = append(d.Assigned, n)
		}
	}
	d.User.NumbersOwned = len(d.Owned)

	if w, err := s.ledger.Balance(ctx, id); err == nil {
		d.User.WalletBalanceMinor = w.BalanceMinor
		if d.Transactions, err = s.ledger.Transactions(ctx, id, 50); err != nil {
			return UserDetail{}, err
		}
	}
	if d.Transactions == nil {
		d.Transactions = []wallet.Transaction{}
	}
	return d, nil
}

// WalletAdjust credits a positive delta as a deposit and debits a negative one
// as a transfer. reason defaults to "admin_adjust".
func (s *Service) WalletAdjust(ctx context.Context, actor audit.Actor, accountID string, deltaMinor int64, reason string) (wallet.Transaction, error) {
	if deltaMinor == 0 {
		return wallet.Transaction{}, ErrZeroDelta
	}
	if _, err := s.accts.Get(ctx, accountID); err != nil {
		return wallet.Transaction{}, err
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = "admin_adjust"
	}
	meta := map[string]string{"reason": reason, "admin_id": actor.ID}

	var tx wallet.Transaction
	var err error
	if deltaMinor > 0 {
		tx, err = s.ledger.Credit(ctx, accountID, deltaMinor, wallet.TxDeposit, meta)
	} else {
		tx, err = s.ledger.Debit(ctx, accountID, -deltaMinor, wallet.TxTransfer, meta)
	}
	if err != nil {
		return wallet.Transaction{}, err
	}
	s.audit.Record(ctx, actor, audit.EventWalletAdjust, accountID, tx.ID, "wallet adjusted", map[string]string{
		"delta_minor": wallet.FormatMinor(deltaMinor),
		"reason":      reason,
	})
	return tx, nil
}

// DeleteUser refuses accounts that still own numbers or hold funds. Numbers
// assigned to the account are freed first; the account row is only removed
// once no assignment can point at it.
func (s *Service) DeleteUser(ctx context.Context, actor audit.Actor, id string) error {
	if id == actor.ID {
		return ErrDeleteSelf
	}
	if _, err := s.accts.Get(ctx, id); err != nil {
		return err
	}
	owned, err := s.numbers.CountOwned(ctx, id)
	if err != nil {
		return err
	}
	if owned > 0 {
		return ErrOwnsNumbers
	}
	w, err := s.ledger.Balance(ctx, id)
	switch {
	case err == nil && w.BalanceMinor != 0:
		return accounts.ErrBalanceRemaining
	case err != nil && !errors.Is(err, wallet.ErrAccountNotFound):
		return err
	}
	freed, err := s.numbers.UnassignAllFrom(ctx, id)
	if err != nil {
		return err
	}
	if err := s.accts.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info("account deleted", "account_id", id, "admin_id", actor.ID, "unassigned", freed)
	s.audit.Record(ctx, actor, audit.EventAccountDelete, id, "", "account deleted", map[string]string{
		"unassigned": strconv.Itoa(freed),
	})
	return nil
}

type NumberRow struct {
	numbers.PhoneNumber
	OwnerEmail    string `json:"owner_email,omitempty"`
	AssignedEmail string `json:"assigned_email,omitempty"`
}

// Numbers lists every number with its holders' emails.
func (s *Service) Numbers(ctx context.Context) ([]NumberRow, error) {
	all, err := s.numbers.List(ctx)
	if err != nil {
		return nil, err
	}
	list, err := s.accts.List(ctx)
	if err != nil {
		return nil, err
	}
	emails := make(map[string]string, len(list))
	for _, a := range list {
		emails[a.ID] = a.Email
	}
	out := make([]NumberRow, 0, len(all))
	for _, n := range all {
		out = append(out, NumberRow{PhoneNumber: n, OwnerEmail: emails[n.OwnerID], AssignedEmail: emails[n.AssignedTo]})
	}
	return out, nil
}

func (s *Service) AddNumber(ctx context.Context, actor audit.Actor, ownerID, phoneNumber, country string) (numbers.PhoneNumber, error) {
	n, err := s.numbers.AddExisting(ctx, ownerID, phoneNumber, country)
	if err != nil {
		return numbers.PhoneNumber{}, err
	}
	s.audit.Record(ctx, actor, audit.EventNumberChange, ownerID, n.PhoneNumber, "number added", nil)
	return n, nil
}

func (s *Service) AssignNumber(ctx context.Context, actor audit.Actor, phoneNumber, subID string) (numbers.PhoneNumber, error) {
	n, err := s.numbers.AssignAny(ctx, phoneNumber, subID)
	if err != nil {
		return numbers.PhoneNumber{}, err
	}
	s.audit.Record(ctx, actor, audit.EventNumberChange, subID, n.PhoneNumber, "number assigned", nil)
	return n, nil
}

func (s *Service) UnassignNumber(ctx context.Context, actor audit.Actor, phoneNumber string) (numbers.PhoneNumber, error) {
	n, err := s.numbers.UnassignAny(ctx, phoneNumber)
	if err != nil {
		return numbers.PhoneNumber{}, err
	}
	s.audit.Record(ctx, actor, audit.EventNumberChange, n.OwnerID, n.PhoneNumber, "number unassigned", nil)
	return n, nil
}

func (s *Service) TransferNumber(ctx context.Context, actor audit.Actor, phoneNumber, newOwnerID string) (numbers.PhoneNumber, error) {
	n, err := s.numbers.TransferOwnership(ctx, phoneNumber, newOwnerID)
	if err != nil {
		return numbers.PhoneNumber{}, err
	}
	s.audit.Record(ctx, actor, audit.EventNumberChange, newOwnerID, n.PhoneNumber, "number ownership transferred", nil)
	return n, nil
}

// SendMessage sends from any registered number. Nobody is charged.
func (s *Service) SendMessage(ctx context.Context, actor audit.Actor, from, to, body string) (messaging.Message, error) {
	if strings.TrimSpace(from) == "" || strings.TrimSpace(to) == "" || strings.TrimSpace(body) == "" {
		return messaging.Message{}, ErrMissingFields
	}
	m, err := s.sender.SendAs(ctx, from, messaging.SendInput{To: to, Body: body})
	if err != nil {
		return messaging.Message{}, err
	}
	s.audit.Record(ctx, actor, audit.EventAdminSend, m.OwnerID, m.ID, "message sent as number", map[string]string{"from": m.From, "to": m.To})
	return m, nil
}

func (s *Service) AuditLog(ctx context.Context, accountID string, limit int) ([]audit.Event, error) {
	return s.audit.List(ctx, accountID, limit)
}
