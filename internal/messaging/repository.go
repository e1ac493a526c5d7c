package messaging

import (
	"context"
	"time"
)

type Repository interface {
	Create(ctx context.Context, m Message) error
	// UpdateStatus applies a delivery receipt and returns how many messages matched.
	UpdateStatus(ctx context.Context, providerSID, status, errorCode string) (int, error)

	// Conversation lists messages on numberID exchanged with other, oldest first.
	Conversation(ctx context.Context, numberID, other string) ([]Message, error)
	// Recent lists messages on any of numberIDs, newest first.
	Recent(ctx context.Context, numberIDs []string, limit int) ([]Message, error)
	CountOutbound(ctx context.Context, numberIDs []string) (int, error)
	// DailyCounts buckets messages created at or after since by UTC day (YYYY-MM-DD).
	DailyCounts(ctx context.Context, numberIDs []string, since time.Time) (map[string]int, error)
}
