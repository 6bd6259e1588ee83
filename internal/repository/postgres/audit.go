package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/campus-forum/internal/model"
	"github.com/jwalitptl/campus-forum/internal/repository"
)

type auditRepository struct {
	BaseRepository
}

func NewAuditRepository(base BaseRepository) repository.AuditRepository {
	return &auditRepository{base}
}

func (r *auditRepository) Create(ctx context.Context, log *model.AuditLog) error {
	query := `
		INSERT INTO audit_logs (
			id, actor_id, action, entity_type, entity_id, metadata, ip_address, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	if log.ID == uuid.Nil {
		log.ID = uuid.New()
	}
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now()
	}
	if len(log.Metadata) == 0 {
		log.Metadata = []byte("{}")
	}

	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, query,
			log.ID,
			log.ActorID,
			log.Action,
			log.EntityType,
			log.EntityID,
			log.Metadata,
			log.IPAddress,
			log.CreatedAt,
		)
		return mapError(err, "failed to create audit log")
	})
}

func (r *auditRepository) List(ctx context.Context, filters *model.AuditFilters) ([]*model.AuditLog, error) {
	query := `
		SELECT id, actor_id, action, entity_type, entity_id, metadata, ip_address, created_at
		FROM audit_logs WHERE 1=1
	`
	var args []interface{}

	if filters.ActorID != nil {
		query += fmt.Sprintf(" AND actor_id = $%d", len(args)+1)
		args = append(args, *filters.ActorID)
	}

	if filters.Action != "" {
		query += fmt.Sprintf(" AND action = $%d", len(args)+1)
		args = append(args, filters.Action)
	}

	if filters.EntityType != "" {
		query += fmt.Sprintf(" AND entity_type = $%d", len(args)+1)
		args = append(args, filters.EntityType)
	}

	page := filters.Page.Normalize()
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, page.Limit, page.Offset)

	var logs []*model.AuditLog
	if err := r.conn(ctx).SelectContext(ctx, &logs, query, args...); err != nil {
		return nil, mapError(err, "failed to list audit logs")
	}

	return logs, nil
}

func (r *auditRepository) Cleanup(ctx context.Context, before time.Time) (int64, error) {
	query := `
		DELETE FROM audit_logs
		WHERE created_at < $1
	`

	result, err := r.conn(ctx).ExecContext(ctx, query, before)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup audit logs: %w", err)
	}

	return result.RowsAffected()
}
