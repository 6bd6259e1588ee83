package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/campus-forum/internal/model"
	"github.com/jwalitptl/campus-forum/internal/repository"
)

type invitationRepository struct {
	BaseRepository
}

func NewInvitationRepository(base BaseRepository) repository.InvitationRepository {
	return &invitationRepository{base}
}

func (r *invitationRepository) Create(ctx context.Context, inv *model.Invitation) error {
	query := `
		INSERT INTO invitations (code, role, email, created_by, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.conn(ctx).ExecContext(ctx, query,
		inv.Code, inv.Role, inv.Email, inv.CreatedBy, inv.CreatedAt, inv.ExpiresAt,
	)
	return mapError(err, "failed to create invitation")
}

func (r *invitationRepository) Get(ctx context.Context, code string) (*model.Invitation, error) {
	query := `
		SELECT code, role, email, created_by, created_at, expires_at, used_at, used_by
		FROM invitations
		WHERE code = $1
	`
	var inv model.Invitation
	if err := r.conn(ctx).GetContext(ctx, &inv, query, code); err != nil {
		return nil, mapError(err, "failed to get invitation")
	}
	return &inv, nil
}

// MarkUsed redeems the code once; a second redemption reports ErrNotFound.
func (r *invitationRepository) MarkUsed(ctx context.Context, code string, userID uuid.UUID, usedAt time.Time) error {
	query := `
		UPDATE invitations
		SET used_at = $1, used_by = $2
		WHERE code = $3 AND used_at IS NULL AND expires_at > $1
	`
	result, err := r.conn(ctx).ExecContext(ctx, query, usedAt, userID, code)
	if err != nil {
		return mapError(err, "failed to mark invitation used")
	}
	return expectRows(result, "invitation not redeemable")
}

func (r *invitationRepository) Delete(ctx context.Context, code string) error {
	result, err := r.conn(ctx).ExecContext(ctx, `DELETE FROM invitations WHERE code = $1 AND used_at IS NULL`, code)
	if err != nil {
		return mapError(err, "failed to delete invitation")
	}
	return expectRows(result, "failed to delete invitation")
}

func (r *invitationRepository) List(ctx context.Context, includeUsed bool) ([]*model.Invitation, error) {
	query := `
		SELECT code, role, email, created_by, created_at, expires_at, used_at, used_by
		FROM invitations
	`
	if !includeUsed {
		query += ` WHERE used_at IS NULL`
	}
	query += ` ORDER BY created_at DESC`

	var invitations []*model.Invitation
	if err := r.conn(ctx).SelectContext(ctx, &invitations, query); err != nil {
		return nil, mapError(err, "failed to list invitations")
	}
	return invitations, nil
}

func (r *invitationRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	result, err := r.conn(ctx).ExecContext(ctx,
		`DELETE FROM invitations WHERE used_at IS NULL AND expires_at <= $1`, before)
	if err != nil {
		return 0, mapError(err, "failed to delete expired invitations")
	}
	return result.RowsAffected()
}
