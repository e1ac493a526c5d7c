package stream

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"sms-platform/pkg/metrics"
)

// Message is the payload of a "message" event. OwnerID and AssigneeID select the
// recipients and never leave the server.
type Message struct {
	ID         string    `json:"id"`
	From       string    `json:"from"`
	To         string    `json:"to"`
	Body       string    `json:"body"`
	Direction  string    `json:"direction"`
	CreatedAt  time.Time `json:"createdAt"`
	OwnerID    string    `json:"-"`
	AssigneeID string    `json:"-"`
}

// Targets are the distinct non-empty recipients of m.
func (m Message) Targets() []string {
	switch {
	case m.OwnerID == "" && m.AssigneeID == "":
		return nil
	case m.OwnerID == "":
		return []string{m.AssigneeID}
	case m.AssigneeID == "" || m.AssigneeID == m.OwnerID:
		return []string{m.OwnerID}
	default:
		return []string{m.OwnerID, m.AssigneeID}
	}
}

// Publisher fans a stored message out to live subscribers. Delivery is best
// effort; errors are for logging only.
type Publisher interface {
	Publish(ctx context.Context, m Message) error
}

type State int

const (
	Connecting State = iota
	Open
	Closed
)

func (s State) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Open:
		return "open"
	default:
		return "closed"
	}
}

// Subscription is one open stream. Events is closed when the subscription ends,
// either by Unsubscribe or by eviction after a full buffer.
type Subscription struct {
	id        uint64
	AccountID string
	events    chan Message
	closed    bool
}

func (s *Subscription) Events() <-chan Message { return s.events }

// Hub is the in-process registry of live subscriptions keyed by account.
// A subscriber that cannot keep up is evicted; publishers never block.
type Hub struct {
	mu     sync.Mutex
	subs   map[string]map[uint64]*Subscription
	nextID uint64
	buffer int
	log    *slog.Logger
}

// NewHub creates a hub whose subscriptions buffer up to buffer messages.
func NewHub(buffer int, log *slog.Logger) *Hub {
	if buffer <= 0 {
		buffer = 16
	}
	if log == nil {
		log = slog.Default()
	}
	return &Hub{subs: map[string]map[uint64]*Subscription{}, buffer: buffer, log: log}
}

func (h *Hub) Subscribe(accountID string) *Subscription {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextID++
	sub := &Subscription{id: h.nextID, AccountID: accountID, events: make(chan Message, h.buffer)}
	set, ok := h.subs[accountID]
	if !ok {
		set = map[uint64]*Subscription{}
		h.subs[accountID] = set
	}
	set[sub.id] = sub
	metrics.StreamOpened()
	return sub
}

// Unsubscribe is idempotent.
func (h *Hub) Unsubscribe(sub *Subscription) {
	if sub == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(sub)
}

// State reports where sub is in its lifecycle.
func (h *Hub) State(sub *Subscription) State {
	if sub == nil {
		return Connecting
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if sub.closed {
		return Closed
	}
	return Open
}

// Deliver hands m to every local subscription of its targets and returns how
// many received it.
func (h *Hub) Deliver(m Message) int {
	targets := m.Targets()
	if len(targets) == 0 {
		return 0
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	delivered := 0
	for _, acct := range targets {
		for _, sub := range h.subs[acct] {
			select {
			case sub.events <- m:
				delivered++
				metrics.RecordDelivery("delivered")
			default:
				h.log.Warn("stream subscriber evicted", "account_id", acct, "message_id", m.ID)
				metrics.RecordDelivery("dropped")
				h.removeLocked(sub)
			}
		}
	}
	return delivered
}

// Publish delivers in-process. It satisfies Publisher for single-instance deployments.
func (h *Hub) Publish(_ context.Context, m Message) error {
	h.Deliver(m)
	return nil
}

// Count returns the number of open subscriptions for accountID.
func (h *Hub) Count(accountID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[accountID])
}

// Close ends every subscription. Used on shutdown so streaming handlers return.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, set := range h.subs {
		for _, sub := range set {
			h.removeLocked(sub)
		}
	}
}

func (h *Hub) removeLocked(sub *Subscription) {
	if sub.closed {
		return
	}
	sub.closed = true
	close(sub.events)
	if set, ok := h.subs[sub.AccountID]; ok {
		delete(set, sub.id)
		if len(set) == 0 {
			delete(h.subs, sub.AccountID)
		}
	}
	metrics.StreamClosed()
}
