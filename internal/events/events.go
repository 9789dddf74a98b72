// Package events publishes complaint lifecycle events to a Redis Stream so
// external consumers (dashboards, notifiers) can follow mutations without
// polling the database.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// StreamName is the Redis Stream lifecycle events are appended to.
const StreamName = "complaint-events"

// Event types emitted by the service.
const (
	TypeCreated       = "complaint.created"
	TypeStatusChanged = "complaint.status_changed"
	TypeAssigned      = "complaint.assigned"
	TypeDeleted       = "complaint.deleted"
)

// Event is one lifecycle mutation.
type Event struct {
	EventID     string                 `json:"event_id"`
	EventType   string                 `json:"event_type"`
	ComplaintID string                 `json:"complaint_id"`
	Actor       string                 `json:"actor"`
	Payload     map[string]interface{} `json:"payload,omitempty"`
	Timestamp   time.Time              `json:"timestamp"`
}

// Publisher appends lifecycle events to the stream. A nil Publisher is a
// no-op, so callers never guard their publishes.
type Publisher struct {
	client *redis.Client
	logger *zap.SugaredLogger
}

// NewPublisher creates a publisher over an already-connected Redis client.
func NewPublisher(client *redis.Client, logger *zap.SugaredLogger) *Publisher {
	return &Publisher{client: client, logger: logger}
}

// Publish appends the event to the stream. Failures are logged, not
// returned: event delivery is best-effort and never blocks a mutation.
func (p *Publisher) Publish(ctx context.Context, eventType, complaintID, actor string, payload map[string]interface{}) {
	if p == nil || p.client == nil {
		return
	}

	ev := Event{
		EventID:     uuid.NewString(),
		EventType:   eventType,
		ComplaintID: complaintID,
		Actor:       actor,
		Payload:     payload,
		Timestamp:   time.Now().UTC(),
	}

	raw, err := json.Marshal(ev)
	if err != nil {
		p.logger.Errorw("Failed to serialize event", "type", eventType, "error", err)
		return
	}

	args := &redis.XAddArgs{
		Stream: StreamName,
		MaxLen: 10000,
		Approx: true,
		Values: map[string]interface{}{
			"event_id":     ev.EventID,
			"event_type":   ev.EventType,
			"complaint_id": ev.ComplaintID,
			"payload":      string(raw),
			"timestamp":    ev.Timestamp.Format(time.RFC3339),
		},
	}

	if err := p.client.XAdd(ctx, args).Err(); err != nil {
		p.logger.Errorw("Failed to publish event", "type", eventType, "complaint_id", complaintID, "error", err)
	}
}

// NewRedisClient connects to Redis from a URL and verifies connectivity.
func NewRedisClient(redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return client, nil
}
