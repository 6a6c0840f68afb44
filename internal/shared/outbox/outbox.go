package outbox

import (
	"context"
	"time"

	contractsv1 "greenloop/contracts/gen/events/v1"
)

// Message is an outbox row persisted inside the same critical section or DB
// transaction as the state change it describes. The worker relay reads
// pending rows and publishes them to the message bus.
type Message struct {
	OutboxID     string
	EventType    string
	PartitionKey string
	Payload      []byte
	CreatedAt    time.Time
}

const (
	StatusPending   = "pending"
	StatusPublished = "published"
)

// Repository is the relay-facing view of a module's outbox table.
type Repository interface {
	ListPendingOutbox(ctx context.Context, limit int) ([]Message, error)
	MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error
}

// Publisher hands envelopes to the message bus.
type Publisher interface {
	Publish(ctx context.Context, topic string, event contractsv1.Envelope) error
}
