package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/campus-forum/internal/model"
)

var (
	ErrNotFound = errors.New("record not found")
	ErrConflict = errors.New("record already exists")
)

// All repository interfaces in one file
type (
	// Transactor runs fn in one transaction; repositories called with the
	// context fn receives join it.
	Transactor interface {
		InTx(ctx context.Context, fn func(ctx context.Context) error) error
	}

	UserRepository interface {
		Create(ctx context.Context, user *model.User) error
		Get(ctx context.Context, id uuid.UUID) (*model.User, error)
		GetByUsername(ctx context.Context, username string) (*model.User, error)
		GetByEmail(ctx context.Context, email string) (*model.User, error)
		Update(ctx context.Context, user *model.User) error
		UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string, mustReset bool) error
		RecordLoginAttempt(ctx context.Context, user *model.User) error
		Delete(ctx context.Context, id uuid.UUID) error
		List(ctx context.Context, filters *model.UserFilters) ([]*model.User, error)
	}

	// TokenRepository stores single-use password reset tokens
	TokenRepository interface {
		StoreResetToken(ctx context.Context, userID uuid.UUID, token string, expiry time.Time) error
		ValidateResetToken(ctx context.Context, token string) (uuid.UUID, error)
		InvalidateResetToken(ctx context.Context, token string) error
	}

	// RevocationStore tracks revoked JWT ids until they would have expired
	RevocationStore interface {
		Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
		IsRevoked(ctx context.Context, tokenID string) (bool, error)
	}

	InvitationRepository interface {
		Create(ctx context.Context, invitation *model.Invitation) error
		Get(ctx context.Context, code string) (*model.Invitation, error)
		MarkUsed(ctx context.Context, code string, userID uuid.UUID, usedAt time.Time) error
		Delete(ctx context.Context, code string) error
		List(ctx context.Context, includeUsed bool) ([]*model.Invitation, error)
		DeleteExpired(ctx context.Context, before time.Time) (int64, error)
	}

	PostRepository interface {
		Create(ctx context.Context, post *model.Post) error
		Get(ctx context.Context, id uuid.UUID) (*model.Post, error)
		Update(ctx context.Context, post *model.Post) error
		SetHidden(ctx context.Context, id uuid.UUID, hidden bool) error
		Delete(ctx context.Context, id uuid.UUID) error
		List(ctx context.Context, filters *model.PostFilters) ([]*model.Post, error)
	}

	ReplyRepository interface {
		Create(ctx context.Context, reply *model.Reply) error
		Get(ctx context.Context, id uuid.UUID) (*model.Reply, error)
		Update(ctx context.Context, reply *model.Reply) error
		Delete(ctx context.Context, id uuid.UUID) error
		ListByPost(ctx context.Context, postID uuid.UUID, page model.Page) ([]*model.Reply, error)
	}

	MessageRepository interface {
		Create(ctx context.Context, msg *model.Message) error
		Get(ctx context.Context, id uuid.UUID) (*model.Message, error)
		ListInbox(ctx context.Context, recipientID uuid.UUID, filters *model.MessageFilters) ([]*model.Message, error)
		ListSent(ctx context.Context, senderID uuid.UUID, page model.Page) ([]*model.Message, error)
		MarkRead(ctx context.Context, id uuid.UUID, readAt time.Time) error
		DeleteFor(ctx context.Context, id, userID uuid.UUID) error
		CountUnread(ctx context.Context, recipientID uuid.UUID) (int, error)
	}

	ModerationRepository interface {
		Get(ctx context.Context) (*model.ModerationConfig, error)
		Save(ctx context.Context, cfg *model.ModerationConfig) error
	}

	AuditRepository interface {
		Create(ctx context.Context, log *model.AuditLog) error
		List(ctx context.Context, filters *model.AuditFilters) ([]*model.AuditLog, error)
		Cleanup(ctx context.Context, before time.Time) (int64, error)
	}

	OutboxRepository interface {
		Create(ctx context.Context, event *model.OutboxEvent) error
		// ClaimPending leases up to limit pending events until leaseUntil so
		// concurrent workers never relay the same row.
		ClaimPending(ctx context.Context, limit int, leaseUntil time.Time) ([]*model.OutboxEvent, error)
		MarkProcessed(ctx context.Context, id uuid.UUID) error
		MarkFailed(ctx context.Context, id uuid.UUID, reason string, maxRetries int) error
		DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error)
	}
)
