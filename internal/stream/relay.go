package stream

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultChannel is the Redis pub/sub channel shared by all API instances.
const DefaultChannel = "sms:stream:messages"

// envelope is the wire form on the relay channel; it keeps the routing fields
// that Message hides from clients.
type envelope struct {
	Message
	OwnerID    string `json:"ownerId,omitempty"`
	AssigneeID string `json:"assigneeId,omitempty"`
}

func encodeEnvelope(m Message) ([]byte, error) {
	return json.Marshal(envelope{Message: m, OwnerID: m.OwnerID, AssigneeID: m.AssigneeID})
}

func decodeEnvelope(b []byte) (Message, error) {
	var e envelope
	if err := json.Unmarshal(b, &e); err != nil {
		return Message{}, err
	}
	m := e.Message
	m.OwnerID = e.OwnerID
	m.AssigneeID = e.AssigneeID
	return m, nil
}

// RedisRelay fans messages out across instances: Publish goes through Redis and
// every instance's Run loop delivers what it receives to its local Hub.
type RedisRelay struct {
	rdb     redis.UniversalClient
	channel string
	hub     *Hub
	log     *slog.Logger
}

func NewRedisRelay(rdb redis.UniversalClient, channel string, hub *Hub, log *slog.Logger) *RedisRelay {
	if channel == "" {
		channel = DefaultChannel
	}
	if log == nil {
		log = slog.Default()
	}
	return &RedisRelay{rdb: rdb, channel: channel, hub: hub, log: log}
}

// Publish sends m to all instances. If Redis is unavailable the message is still
// delivered to this instance's subscribers and the error is returned for logging.
func (r *RedisRelay) Publish(ctx context.Context, m Message) error {
	payload, err := encodeEnvelope(m)
	if err != nil {
		return err
	}
	if err := r.rdb.Publish(ctx, r.channel, payload).Err(); err != nil {
		r.hub.Deliver(m)
		return err
	}
	return nil
}

// Run subscribes to the relay channel until ctx is cancelled.
func (r *RedisRelay) Run(ctx context.Context) error {
	pubsub := r.rdb.Subscribe(ctx, r.channel)
	defer pubsub.Close()

	// Receive confirms the subscription before messages flow.
	if _, err := pubsub.Receive(ctx); err != nil {
		return err
	}
	r.log.Info("stream relay subscribed", "channel", r.channel)

	ch := pubsub.Channel(redis.WithChannelHealthCheckInterval(30 * time.Second))
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return errors.New("stream relay: subscription closed")
			}
			m, err := decodeEnvelope([]byte(msg.Payload))
			if err != nil {
				r.log.Warn("stream relay payload rejected", "err", err)
				continue
			}
			r.hub.Deliver(m)
		}
	}
}
