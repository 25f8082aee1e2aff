package outbox_repo

import (
	"context"
	"time"
)

type OutboxStatus string

const (
	StatusPending OutboxStatus = "PENDING"
	StatusSent    OutboxStatus = "SENT"
	StatusFailed  OutboxStatus = "FAILED"
)

// MaxPublishAttempts bounds how often one message is retried. A message
// that fails this many publishes is marked FAILED and left for manual
// inspection instead of being retried forever.
const MaxPublishAttempts = 10

// OutboxMessage holds a status notification written in the same
// transaction as the delivery mutation it reports. A poller publishes
// pending messages to the broker, keyed so updates for one order stay in
// order, and marks them sent. Delivery is at least once: the poller may
// resend a message it published but failed to mark.
type OutboxMessage struct {
	ID        string       `json:"id"`
	Topic     string       `json:"topic"`
	Key       string       `json:"key"`
	Payload   []byte       `json:"payload"`
	Status    OutboxStatus `json:"status"`
	Attempts  int          `json:"attempts"`
	CreatedAt time.Time    `json:"created_at"`
	SentAt    *time.Time   `json:"sent_at"`
}

type OutboxRepository interface {
	GetUnsentMessages(ctx context.Context) ([]*OutboxMessage, error)
	MarkMessageSent(ctx context.Context, id string) error
	RecordPublishFailure(ctx context.Context, id string) error
}
