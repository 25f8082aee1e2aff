package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/myosher1/sales-delivery/internal/delivery/repository/outbox_repo"
)

type pgOutboxRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewOutboxRepository(db *sql.DB, l *zap.Logger) outbox_repo.OutboxRepository {
	return &pgOutboxRepository{db: db, logger: l}
}

// GetUnsentMessages returns the oldest pending batch. No row locking:
// concurrent pollers may pick up the same rows and publish duplicates,
// which downstream tolerates (status application is last-write-wins), so
// the guarantee here is at least once, not exactly once.
func (r *pgOutboxRepository) GetUnsentMessages(ctx context.Context) ([]*outbox_repo.OutboxMessage, error) {
	var unsent []*outbox_repo.OutboxMessage
	query := `SELECT id, topic, message_key, payload, status, attempts, created_at, sent_at
	          FROM outbox_messages WHERE status = $1 ORDER BY created_at ASC LIMIT 100`
	rows, err := r.db.QueryContext(ctx, query, outbox_repo.StatusPending)
	if err != nil {
		r.logger.Error("Failed to get unsent outbox messages", zap.Error(err))
		return nil, fmt.Errorf("failed to get unsent outbox messages: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		msg := &outbox_repo.OutboxMessage{}
		var sentAt sql.NullTime
		if err := rows.Scan(&msg.ID, &msg.Topic, &msg.Key, &msg.Payload, &msg.Status, &msg.Attempts, &msg.CreatedAt, &sentAt); err != nil {
			r.logger.Error("Failed to scan outbox message row", zap.Error(err))
			return nil, fmt.Errorf("failed to scan outbox message row: %w", err)
		}
		if sentAt.Valid {
			msg.SentAt = &sentAt.Time
		}
		unsent = append(unsent, msg)
	}
	if err = rows.Err(); err != nil {
		r.logger.Error("Rows error while getting unsent outbox messages", zap.Error(err))
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return unsent, nil
}

func (r *pgOutboxRepository) MarkMessageSent(ctx context.Context, id string) error {
	query := `UPDATE outbox_messages SET status = $1, sent_at = $2 WHERE id = $3 AND status = $4`
	res, err := r.db.ExecContext(ctx, query, outbox_repo.StatusSent, time.Now(), id, outbox_repo.StatusPending)
	if err != nil {
		r.logger.Error("Failed to mark outbox message as sent", zap.String("message_id", id), zap.Error(err))
		return fmt.Errorf("failed to mark outbox message %s as sent: %w", id, err)
	}
	rowsAffected, err := res.RowsAffected()
	if err != nil {
		r.logger.Error("Failed to get rows affected for outbox message mark as sent", zap.String("message_id", id), zap.Error(err))
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if rowsAffected == 0 {
		r.logger.Warn("No rows affected when marking outbox message as sent, it might be already sent or not exist", zap.String("message_id", id))
	} else {
		r.logger.Debug("Outbox message marked as sent", zap.String("message_id", id))
	}
	return nil
}

// RecordPublishFailure counts a failed publish. Once the attempt limit is
// reached the message flips to FAILED and leaves the poller's batch.
func (r *pgOutboxRepository) RecordPublishFailure(ctx context.Context, id string) error {
	query := `UPDATE outbox_messages
	          SET attempts = attempts + 1,
	              status = CASE WHEN attempts + 1 >= $1 THEN $2::varchar ELSE status END
	          WHERE id = $3 AND status = $4
	          RETURNING status`
	var status outbox_repo.OutboxStatus
	err := r.db.QueryRowContext(ctx, query, outbox_repo.MaxPublishAttempts, outbox_repo.StatusFailed, id, outbox_repo.StatusPending).Scan(&status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			r.logger.Warn("No pending outbox message to record a publish failure for", zap.String("message_id", id))
			return nil
		}
		r.logger.Error("Failed to record outbox publish failure", zap.String("message_id", id), zap.Error(err))
		return fmt.Errorf("failed to record outbox publish failure for %s: %w", id, err)
	}
	if status == outbox_repo.StatusFailed {
		r.logger.Warn("Outbox message exhausted its publish attempts and was marked FAILED",
			zap.String("message_id", id),
			zap.Int("max_attempts", outbox_repo.MaxPublishAttempts))
	}
	return nil
}
