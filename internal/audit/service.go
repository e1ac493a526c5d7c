package audit

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Repository is append-only. No Update or Delete exists.
type Repository interface {
	Append(ctx context.Context, e Event) error
	List(ctx context.Context, accountID string, limit int) ([]Event, error)
}

// Service records admin actions. Audit is internal-only and best-effort:
// Record logs failures instead of returning them.
type Service struct {
	repo  Repository
	log   *slog.Logger
	clock func() time.Time
}

func NewService(repo Repository, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{repo: repo, log: log, clock: time.Now}
}

var ErrInvalidEvent = errors.New("audit: invalid event")

func (s *Service) Append(ctx context.Context, e Event) error {
	if s.repo == nil {
		return errors.New("audit: repository not configured")
	}
	if e.Type == "" || e.ActorID == "" {
		return ErrInvalidEvent
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.clock().UTC()
	}
	if e.IPAddress == "" {
		e.IPAddress = ClientIPFromContext(ctx)
	}
	return s.repo.Append(ctx, e)
}

// Record appends an event for actor. meta is stored as a JSON object.
func (s *Service) Record(ctx context.Context, actor Actor, typ EventType, accountID, ref, message string, meta map[string]string) {
	e := Event{
		Type:      typ,
		ActorID:   actor.ID,
		ActorRole: actor.Role,
		IPAddress: actor.IP,
		AccountID: accountID,
		Ref:       ref,
		Message:   message,
	}
	if len(meta) > 0 {
		b, err := json.Marshal(meta)
		if err == nil {
			e.Metadata = string(b)
		}
	}
	if err := s.Append(context.WithoutCancel(ctx), e); err != nil {
		s.log.Error("audit append failed", "type", typ, "actor_id", actor.ID, "account_id", accountID, "err", err)
	}
}

func (s *Service) List(ctx context.Context, accountID string, limit int) ([]Event, error) {
	return s.repo.List(ctx, accountID, limit)
}
