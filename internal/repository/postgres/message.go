package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/campus-forum/internal/model"
	"github.com/jwalitptl/campus-forum/internal/repository"
)

const messageSelect = `
	SELECT m.id, m.sender_id, s.username AS sender_username,
		m.recipient_id, rc.username AS recipient_username,
		m.subject, m.body, m.read_at, m.sender_deleted, m.recipient_deleted,
		m.created_at, m.updated_at, m.deleted_at
	FROM messages m
	JOIN users s ON s.id = m.sender_id
	JOIN users rc ON rc.id = m.recipient_id`

type messageRepository struct {
	BaseRepository
}

func NewMessageRepository(base BaseRepository) repository.MessageRepository {
	return &messageRepository{base}
}

func (r *messageRepository) Create(ctx context.Context, msg *model.Message) error {
	query := `
		INSERT INTO messages (id, sender_id, recipient_id, subject, body, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	if msg.ID == uuid.Nil {
		msg.ID = uuid.New()
	}
	now := time.Now()
	msg.CreatedAt = now
	msg.UpdatedAt = now

	_, err := r.conn(ctx).ExecContext(ctx, query,
		msg.ID,
		msg.SenderID,
		msg.RecipientID,
		msg.Subject,
		msg.Body,
		msg.CreatedAt,
		msg.UpdatedAt,
	)
	return mapError(err, "failed to create message")
}

func (r *messageRepository) Get(ctx context.Context, id uuid.UUID) (*model.Message, error) {
	var msg model.Message
	if err := r.conn(ctx).GetContext(ctx, &msg, messageSelect+` WHERE m.id = $1`, id); err != nil {
		return nil, mapError(err, "failed to get message")
	}
	return &msg, nil
}

func (r *messageRepository) ListInbox(ctx context.Context, recipientID uuid.UUID, filters *model.MessageFilters) ([]*model.Message, error) {
	query := messageSelect + ` WHERE m.recipient_id = $1 AND m.recipient_deleted = false`
	args := []interface{}{recipientID}

	if filters.UnreadOnly {
		query += " AND m.read_at IS NULL"
	}

	page := filters.Page.Normalize()
	query += fmt.Sprintf(" ORDER BY m.created_at DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, page.Limit, page.Offset)

	var messages []*model.Message
	if err := r.conn(ctx).SelectContext(ctx, &messages, query, args...); err != nil {
		return nil, mapError(err, "failed to list inbox")
	}
	return messages, nil
}

func (r *messageRepository) ListSent(ctx context.Context, senderID uuid.UUID, page model.Page) ([]*model.Message, error) {
	page = page.Normalize()
	query := messageSelect + `
		WHERE m.sender_id = $1 AND m.sender_deleted = false
		ORDER BY m.created_at DESC LIMIT $2 OFFSET $3`

	var messages []*model.Message
	if err := r.conn(ctx).SelectContext(ctx, &messages, query, senderID, page.Limit, page.Offset); err != nil {
		return nil, mapError(err, "failed to list sent messages")
	}
	return messages, nil
}

func (r *messageRepository) MarkRead(ctx context.Context, id uuid.UUID, readAt time.Time) error {
	query := `UPDATE messages SET read_at = $1, updated_at = $1 WHERE id = $2 AND read_at IS NULL`

	_, err := r.conn(ctx).ExecContext(ctx, query, readAt, id)
	return mapError(err, "failed to mark message read")
}

// DeleteFor hides the message from one party; the row goes once both sides deleted it.
func (r *messageRepository) DeleteFor(ctx context.Context, id, userID uuid.UUID) error {
	query := `
		UPDATE messages SET
			sender_deleted = sender_deleted OR sender_id = $2,
			recipient_deleted = recipient_deleted OR recipient_id = $2,
			updated_at = NOW()
		WHERE id = $1 AND (sender_id = $2 OR recipient_id = $2)
	`

	result, err := r.conn(ctx).ExecContext(ctx, query, id, userID)
	if err != nil {
		return mapError(err, "failed to delete message")
	}
	if err := expectRows(result, "failed to delete message"); err != nil {
		return err
	}

	_, err = r.conn(ctx).ExecContext(ctx,
		`DELETE FROM messages WHERE id = $1 AND sender_deleted AND recipient_deleted`, id)
	return mapError(err, "failed to purge message")
}

func (r *messageRepository) CountUnread(ctx context.Context, recipientID uuid.UUID) (int, error) {
	query := `
		SELECT COUNT(*) FROM messages
		WHERE recipient_id = $1 AND read_at IS NULL AND recipient_deleted = false
	`

	var count int
	if err := r.conn(ctx).GetContext(ctx, &count, query, recipientID); err != nil {
		return 0, mapError(err, "failed to count unread messages")
	}
	return count, nil
}
