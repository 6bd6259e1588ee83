package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jwalitptl/campus-forum/internal/model"
	"github.com/jwalitptl/campus-forum/internal/repository"
)

type moderationRepository struct {
	BaseRepository
}

func NewModerationRepository(base BaseRepository) repository.ModerationRepository {
	return &moderationRepository{base}
}

// Get returns the saved configuration, or the defaults when none was saved yet.
func (r *moderationRepository) Get(ctx context.Context) (*model.ModerationConfig, error) {
	query := `
		SELECT id, banned_words, max_post_length, max_reply_length,
			students_can_post, updated_by, updated_at
		FROM moderation_config
		WHERE id = 1
	`

	var cfg model.ModerationConfig
	err := r.conn(ctx).GetContext(ctx, &cfg, query)
	if err != nil {
		mapped := mapError(err, "failed to get moderation config")
		if errors.Is(mapped, repository.ErrNotFound) {
			return model.DefaultModerationConfig(), nil
		}
		return nil, mapped
	}
	return &cfg, nil
}

func (r *moderationRepository) Save(ctx context.Context, cfg *model.ModerationConfig) error {
	query := `
		INSERT INTO moderation_config (
			id, banned_words, max_post_length, max_reply_length,
			students_can_post, updated_by, updated_at
		) VALUES (1, $1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			banned_words = EXCLUDED.banned_words,
			max_post_length = EXCLUDED.max_post_length,
			max_reply_length = EXCLUDED.max_reply_length,
			students_can_post = EXCLUDED.students_can_post,
			updated_by = EXCLUDED.updated_by,
			updated_at = EXCLUDED.updated_at
	`

	cfg.ID = 1
	cfg.UpdatedAt = time.Now()
	if cfg.BannedWords == nil {
		cfg.BannedWords = []string{}
	}

	_, err := r.conn(ctx).ExecContext(ctx, query,
		cfg.BannedWords,
		cfg.MaxPostLength,
		cfg.MaxReplyLength,
		cfg.StudentsCanPost,
		cfg.UpdatedBy,
		cfg.UpdatedAt,
	)
	return mapError(err, "failed to save moderation config")
}
