package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/campus-forum/internal/model"
	"github.com/jwalitptl/campus-forum/internal/repository"
)

const postSelect = `
	SELECT p.id, p.author_id, u.username AS author_username, p.title, p.body, p.hidden,
		(SELECT COUNT(*) FROM replies r WHERE r.post_id = p.id AND r.deleted_at IS NULL) AS reply_count,
		p.created_at, p.updated_at, p.deleted_at
	FROM posts p
	JOIN users u ON u.id = p.author_id
	WHERE p.deleted_at IS NULL`

type postRepository struct {
	BaseRepository
}

func NewPostRepository(base BaseRepository) repository.PostRepository {
	return &postRepository{base}
}

func (r *postRepository) Create(ctx context.Context, post *model.Post) error {
	query := `
		INSERT INTO posts (id, author_id, title, body, hidden, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	if post.ID == uuid.Nil {
		post.ID = uuid.New()
	}
	now := time.Now()
	post.CreatedAt = now
	post.UpdatedAt = now

	_, err := r.conn(ctx).ExecContext(ctx, query,
		post.ID,
		post.AuthorID,
		post.Title,
		post.Body,
		post.Hidden,
		post.CreatedAt,
		post.UpdatedAt,
	)
	return mapError(err, "failed to create post")
}

func (r *postRepository) Get(ctx context.Context, id uuid.UUID) (*model.Post, error) {
	var post model.Post
	if err := r.conn(ctx).GetContext(ctx, &post, postSelect+` AND p.id = $1`, id); err != nil {
		return nil, mapError(err, "failed to get post")
	}
	return &post, nil
}

func (r *postRepository) Update(ctx context.Context, post *model.Post) error {
	query := `
		UPDATE posts SET title = $1, body = $2, updated_at = $3
		WHERE id = $4 AND deleted_at IS NULL
	`

	post.UpdatedAt = time.Now()
	result, err := r.conn(ctx).ExecContext(ctx, query, post.Title, post.Body, post.UpdatedAt, post.ID)
	if err != nil {
		return mapError(err, "failed to update post")
	}
	return expectRows(result, "failed to update post")
}

func (r *postRepository) SetHidden(ctx context.Context, id uuid.UUID, hidden bool) error {
	query := `UPDATE posts SET hidden = $1, updated_at = NOW() WHERE id = $2 AND deleted_at IS NULL`

	result, err := r.conn(ctx).ExecContext(ctx, query, hidden, id)
	if err != nil {
		return mapError(err, "failed to set post visibility")
	}
	return expectRows(result, "failed to set post visibility")
}

func (r *postRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE posts SET deleted_at = NOW() WHERE id = $1 AND deleted_at IS NULL`

	result, err := r.conn(ctx).ExecContext(ctx, query, id)
	if err != nil {
		return mapError(err, "failed to delete post")
	}
	return expectRows(result, "failed to delete post")
}

func (r *postRepository) List(ctx context.Context, filters *model.PostFilters) ([]*model.Post, error) {
	query := postSelect
	var args []interface{}

	if !filters.IncludeHidden {
		query += " AND p.hidden = false"
	}

	if filters.AuthorID != nil {
		query += fmt.Sprintf(" AND p.author_id = $%d", len(args)+1)
		args = append(args, *filters.AuthorID)
	}

	page := filters.Page.Normalize()
	query += fmt.Sprintf(" ORDER BY p.created_at DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, page.Limit, page.Offset)

	var posts []*model.Post
	if err := r.conn(ctx).SelectContext(ctx, &posts, query, args...); err != nil {
		return nil, mapError(err, "failed to list posts")
	}
	return posts, nil
}
