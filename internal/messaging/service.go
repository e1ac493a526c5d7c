package messaging

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"sms-platform/internal/numbers"
	"sms-platform/internal/pricing"
	"sms-platform/internal/stream"
	"sms-platform/internal/telephony"
	"sms-platform/internal/wallet"

	"github.com/google/uuid"
)

// Numbers is the part of the number inventory messaging needs.
type Numbers interface {
	Usable(ctx context.Context, accountID, phoneNumber string) (numbers.PhoneNumber, error)
	DefaultFor(ctx context.Context, accountID string) (numbers.PhoneNumber, error)
	FindByNumber(ctx context.Context, phoneNumber string) (numbers.PhoneNumber, error)
	ListFor(ctx context.Context, accountID string) ([]numbers.PhoneNumber, error)
}

// Charger debits the per-message price and refunds it when the provider rejects the send.
type Charger interface {
	Debit(ctx context.Context, accountID string, amountMinor int64, typ wallet.TxType, meta map[string]string) (wallet.Transaction, error)
	Credit(ctx context.Context, accountID string, amountMinor int64, typ wallet.TxType, meta map[string]string) (wallet.Transaction, error)
}

type Service struct {
	repo      Repository
	numbers   Numbers
	charger   Charger
	provider  telephony.Provider
	publisher stream.Publisher
	prices    *pricing.Service
	log       *slog.Logger
	clock     func() time.Time

	// StatusCallback, when set, is passed to the provider for delivery receipts.
	StatusCallback string
}

func NewService(repo Repository, nums Numbers, charger Charger, provider telephony.Provider, publisher stream.Publisher, prices *pricing.Service, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		repo:      repo,
		numbers:   nums,
		charger:   charger,
		provider:  provider,
		publisher: publisher,
		prices:    prices,
		log:       log,
		clock:     time.Now,
	}
}

type SendInput struct {
	From string
	To   string
	Body string
}

// Send sends from one of the caller's numbers. Without From the caller's first
// owned (main) or assigned (sub) number is used.
func (s *Service) Send(ctx context.Context, accountID string, in SendInput) (Message, error) {
	to, body := numbers.NormalizeE164(in.To), strings.TrimSpace(in.Body)
	if to == "" || body == "" {
		return Message{}, ErrInvalidArgument
	}

	var n numbers.PhoneNumber
	var err error
	if strings.TrimSpace(in.From) == "" {
		n, err = s.numbers.DefaultFor(ctx, accountID)
		if errors.Is(err, numbers.ErrNotFound) {
			return Message{}, ErrNoSendingNumber
		}
	} else {
		n, err = s.numbers.Usable(ctx, accountID, in.From)
		if errors.Is(err, numbers.ErrNotOwner) {
			return Message{}, ErrNumberNotAllowed
		}
	}
	if err != nil {
		return Message{}, err
	}
	return s.send(ctx, accountID, n, to, body)
}

// SendAs sends from any registered number without charging anyone. Admin only.
func (s *Service) SendAs(ctx context.Context, from string, in SendInput) (Message, error) {
	to, body := numbers.NormalizeE164(in.To), strings.TrimSpace(in.Body)
	if to == "" || body == "" {
		return Message{}, ErrInvalidArgument
	}
	n, err := s.numbers.FindByNumber(ctx, from)
	if err != nil {
		return Message{}, err
	}
	return s.send(ctx, "", n, to, body)
}

// send charges payer (if any), hands the message to the provider, then stores
// and publishes it.
func (s *Service) send(ctx context.Context, payer string, n numbers.PhoneNumber, to, body string) (Message, error) {
	price := s.prices.SMSPrice()
	var charge *wallet.Transaction
	if payer != "" && price > 0 {
		tx, err := s.charger.Debit(ctx, payer, price, wallet.TxSMS, map[string]string{"from": n.PhoneNumber, "to": to})
		if err != nil {
			return Message{}, err
		}
		charge = &tx
	}

	res, err := s.provider.SendSMS(ctx, telephony.SendRequest{
		From:           n.PhoneNumber,
		To:             to,
		Body:           body,
		StatusCallback: s.StatusCallback,
	})
	if err != nil {
		if charge != nil {
			s.refund(ctx, payer, *charge, err)
		}
		return Message{}, err
	}

	now := s.clock().UTC()
	m := Message{
		ID:          uuid.NewString(),
		NumberID:    n.ID,
		OwnerID:     n.OwnerID,
		AssignedTo:  n.AssignedTo,
		From:        n.PhoneNumber,
		To:          to,
		Body:        body,
		Direction:   Outbound,
		ProviderSID: res.SID,
		Status:      StatusSent,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(ctx, m); err != nil {
		// The provider already accepted it; the caller still gets the sid.
		return m, fmt.Errorf("store outbound message: %w", err)
	}
	s.publish(ctx, m)
	return m, nil
}

func (s *Service) refund(ctx context.Context, payer string, charge wallet.Transaction, cause error) {
	_, err := s.charger.Credit(context.WithoutCancel(ctx), payer, charge.AmountMinor, wallet.TxSMS, map[string]string{
		"refund": charge.ID,
		"reason": "provider_error",
	})
	if err != nil {
		s.log.Error("sms refund failed", "account_id", payer, "tx_id", charge.ID, "cause", cause, "err", err)
	}
}

// Receive stores an inbound message. Messages to unknown numbers are kept
// without recipients.
func (s *Service) Receive(ctx context.Context, in telephony.InboundSMS) error {
	from, to := numbers.NormalizeE164(in.From), numbers.NormalizeE164(in.To)
	if from == "" || to == "" || in.Body == "" {
		return ErrInvalidArgument
	}

	var n numbers.PhoneNumber
	found, err := s.numbers.FindByNumber(ctx, to)
	switch {
	case err == nil:
		n = found
	case errors.Is(err, numbers.ErrNotFound):
		s.log.Warn("inbound sms for unknown number", "to", to)
	default:
		return err
	}

	now := s.clock().UTC()
	m := Message{
		ID:          uuid.NewString(),
		NumberID:    n.ID,
		OwnerID:     n.OwnerID,
		AssignedTo:  n.AssignedTo,
		From:        from,
		To:          to,
		Body:        in.Body,
		Direction:   Inbound,
		ProviderSID: in.MessageSID,
		Status:      StatusReceived,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(ctx, m); err != nil {
		return err
	}
	s.publish(ctx, m)
	return nil
}

// UpdateStatus applies a delivery receipt. Unknown sids are ignored.
func (s *Service) UpdateStatus(ctx context.Context, providerSID, status, errorCode string) error {
	if providerSID == "" || status == "" {
		return nil
	}
	n, err := s.repo.UpdateStatus(ctx, providerSID, status, errorCode)
	if err != nil {
		return err
	}
	if n == 0 {
		s.log.Debug("status for unknown message", "message_sid", providerSID, "status", status)
	}
	return nil
}

// History is the conversation between one of the caller's numbers and another party.
func (s *Service) History(ctx context.Context, accountID, number, with string) ([]Message, error) {
	number, with = numbers.NormalizeE164(number), numbers.NormalizeE164(with)
	if number == "" || with == "" {
		return nil, errors.New("number and with required")
	}
	n, err := s.numbers.Usable(ctx, accountID, number)
	if err != nil {
		if errors.Is(err, numbers.ErrNotOwner) {
			return nil, ErrNumberNotAllowed
		}
		return nil, err
	}
	return s.repo.Conversation(ctx, n.ID, with)
}

// Recent lists the newest messages across every number the caller holds.
func (s *Service) Recent(ctx context.Context, accountID string, limit int) ([]Message, error) {
	ids, err := s.NumberIDs(ctx, accountID)
	if err != nil {
		return nil, err
	}
	return s.repo.Recent(ctx, ids, limit)
}

func (s *Service) RecentFor(ctx context.Context, numberIDs []string, limit int) ([]Message, error) {
	return s.repo.Recent(ctx, numberIDs, limit)
}

// NumberIDs are the ids of the numbers accountID owns (main, admin) or is assigned (sub).
func (s *Service) NumberIDs(ctx context.Context, accountID string) ([]string, error) {
	list, err := s.numbers.ListFor(ctx, accountID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(list))
	for _, n := range list {
		ids = append(ids, n.ID)
	}
	return ids, nil
}

// Activity returns the total outbound count and a zero-filled daily series of
// the last days days, ending today (UTC).
func (s *Service) Activity(ctx context.Context, numberIDs []string, days int) (int, []DailyCount, error) {
	if days <= 0 {
		days = 30
	}
	total, err := s.repo.CountOutbound(ctx, numberIDs)
	if err != nil {
		return 0, nil, err
	}

	today := s.clock().UTC().Truncate(24 * time.Hour)
	since := today.AddDate(0, 0, -(days - 1))
	counts, err := s.repo.DailyCounts(ctx, numberIDs, since)
	if err != nil {
		return 0, nil, err
	}
	series := make([]DailyCount, 0, days)
	for i := 0; i < days; i++ {
		day := since.AddDate(0, 0, i).Format(dayLayout)
		series = append(series, DailyCount{Date: day, Messages: counts[day]})
	}
	return total, series, nil
}

func (s *Service) publish(ctx context.Context, m Message) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, m.Event()); err != nil {
		s.log.Warn("live publish failed", "message_id", m.ID, "err", err)
	}
}
