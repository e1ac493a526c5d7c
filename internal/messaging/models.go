package messaging

import (
	"time"

	"sms-platform/internal/stream"
)

type Direction string

const (
	Inbound  Direction = "inbound"
	Outbound Direction = "outbound"
)

const (
	StatusSent     = "sent"
	StatusReceived = "received"
)

// Message is immutable apart from Status and Error, which follow provider receipts.
// OwnerID and AssignedTo are copied from the number at the time of the message.
type Message struct {
	ID          string    `json:"id"`
	NumberID    string    `json:"number_id,omitempty"`
	OwnerID     string    `json:"owner_id,omitempty"`
	AssignedTo  string    `json:"assigned_to,omitempty"`
	From        string    `json:"from"`
	To          string    `json:"to"`
	Body        string    `json:"body"`
	Direction   Direction `json:"direction"`
	ProviderSID string    `json:"provider_sid,omitempty"`
	Status      string    `json:"status"`
	Error       string    `json:"error,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Event is the live-stream form of m.
func (m Message) Event() stream.Message {
	return stream.Message{
		ID:         m.ID,
		From:       m.From,
		To:         m.To,
		Body:       m.Body,
		Direction:  string(m.Direction),
		CreatedAt:  m.CreatedAt,
		OwnerID:    m.OwnerID,
		AssigneeID: m.AssignedTo,
	}
}

// DailyCount is one point of an activity series.
type DailyCount struct {
	Date     string `json:"date"`
	Messages int    `json:"messages"`
}
