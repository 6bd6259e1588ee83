package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/campus-forum/internal/model"
	"github.com/jwalitptl/campus-forum/internal/repository"
)

const replySelect = `
	SELECT r.id, r.post_id, r.author_id, u.username AS author_username, r.body,
		r.created_at, r.updated_at, r.deleted_at
	FROM replies r
	JOIN users u ON u.id = r.author_id
	WHERE r.deleted_at IS NULL`

type replyRepository struct {
	BaseRepository
}

func NewReplyRepository(base BaseRepository) repository.ReplyRepository {
	return &replyRepository{base}
}

func (r *replyRepository) Create(ctx context.Context, reply *model.Reply) error {
	query := `
		INSERT INTO replies (id, post_id, author_id, body, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	if reply.ID == uuid.Nil {
		reply.ID = uuid.New()
	}
	now := time.Now()
	reply.CreatedAt = now
	reply.UpdatedAt = now

	_, err := r.conn(ctx).ExecContext(ctx, query,
		reply.ID, reply.PostID, reply.AuthorID, reply.Body, reply.CreatedAt, reply.UpdatedAt,
	)
	return mapError(err, "failed to create reply")
}

func (r *replyRepository) Get(ctx context.Context, id uuid.UUID) (*model.Reply, error) {
	var reply model.Reply
	if err := r.conn(ctx).GetContext(ctx, &reply, replySelect+` AND r.id = $1`, id); err != nil {
		return nil, mapError(err, "failed to get reply")
	}
	return &reply, nil
}

func (r *replyRepository) Update(ctx context.Context, reply *model.Reply) error {
	query := `UPDATE replies SET body = $1, updated_at = $2 WHERE id = $3 AND deleted_at IS NULL`

	reply.UpdatedAt = time.Now()
	result, err := r.conn(ctx).ExecContext(ctx, query, reply.Body, reply.UpdatedAt, reply.ID)
	if err != nil {
		return mapError(err, "failed to update reply")
	}
	return expectRows(result, "failed to update reply")
}

func (r *replyRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.conn(ctx).ExecContext(ctx,
		`UPDATE replies SET deleted_at = NOW() WHERE id = $1 AND deleted_at IS NULL`, id)
	if err != nil {
		return mapError(err, "failed to delete reply")
	}
	return expectRows(result, "failed to delete reply")
}

func (r *replyRepository) ListByPost(ctx context.Context, postID uuid.UUID, page model.Page) ([]*model.Reply, error) {
	page = page.Normalize()
	query := replySelect + ` AND r.post_id = $1 ORDER BY r.created_at ASC LIMIT $2 OFFSET $3`

	var replies []*model.Reply
	if err := r.conn(ctx).SelectContext(ctx, &replies, query, postID, page.Limit, page.Offset); err != nil {
		return nil, mapError(err, "failed to list replies")
	}
	return replies, nil
}
