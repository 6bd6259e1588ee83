package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/campus-forum/internal/model"
	"github.com/jwalitptl/campus-forum/internal/repository"
)

type outboxRepository struct {
	BaseRepository
}

func NewOutboxRepository(base BaseRepository) repository.OutboxRepository {
	return &outboxRepository{base}
}

func (r *outboxRepository) Create(ctx context.Context, event *model.OutboxEvent) error {
	if event == nil || len(event.Payload) == 0 {
		return errors.New("outbox event payload cannot be empty")
	}

	query := `
		INSERT INTO outbox_events (id, event_type, payload, status, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	event.Status = model.OutboxStatusPending
	event.CreatedAt = time.Now()

	_, err := r.conn(ctx).ExecContext(ctx, query,
		event.ID,
		event.EventType,
		[]byte(event.Payload),
		event.Status,
		event.CreatedAt,
	)
	return mapError(err, "failed to create outbox event")
}

func (r *outboxRepository) ClaimPending(ctx context.Context, limit int, leaseUntil time.Time) ([]*model.OutboxEvent, error) {
	query := `
		WITH batch AS (
			SELECT id FROM outbox_events
			WHERE status = 'pending'
			AND (claimed_until IS NULL OR claimed_until < NOW())
			ORDER BY created_at
			LIMIT $1
			FOR UPDATE SKIP LOCKED
		)
		UPDATE outbox_events o
		SET claimed_until = $2
		FROM batch
		WHERE o.id = batch.id
		RETURNING o.id, o.event_type, o.payload, o.status, o.error_message, o.retry_count, o.claimed_until, o.created_at, o.processed_at`

	var events []*model.OutboxEvent
	if err := r.conn(ctx).SelectContext(ctx, &events, query, limit, leaseUntil); err != nil {
		return nil, mapError(err, "failed to claim outbox events")
	}
	return events, nil
}

func (r *outboxRepository) MarkProcessed(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE outbox_events
		SET status = 'processed', processed_at = NOW(), claimed_until = NULL, error_message = NULL
		WHERE id = $1
	`
	result, err := r.conn(ctx).ExecContext(ctx, query, id)
	if err != nil {
		return mapError(err, "failed to mark outbox event processed")
	}
	return expectRows(result, "failed to mark outbox event processed")
}

// MarkFailed releases the lease so the event is retried, or parks it as
// failed once maxRetries attempts have been used.
func (r *outboxRepository) MarkFailed(ctx context.Context, id uuid.UUID, reason string, maxRetries int) error {
	query := `
		UPDATE outbox_events
		SET retry_count = retry_count + 1,
			error_message = $2,
			claimed_until = NULL,
			status = CASE WHEN retry_count + 1 >= $3 THEN 'failed' ELSE 'pending' END
		WHERE id = $1
	`
	result, err := r.conn(ctx).ExecContext(ctx, query, id, reason, maxRetries)
	if err != nil {
		return mapError(err, "failed to mark outbox event failed")
	}
	return expectRows(result, "failed to mark outbox event failed")
}

func (r *outboxRepository) DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error) {
	result, err := r.conn(ctx).ExecContext(ctx,
		`DELETE FROM outbox_events WHERE status = 'processed' AND processed_at < $1`, before)
	if err != nil {
		return 0, mapError(err, "failed to delete processed outbox events")
	}
	return result.RowsAffected()
}
