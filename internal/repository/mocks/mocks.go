// Package mocks holds testify mocks for the repository interfaces and the
// outbound collaborators services depend on.
package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/jwalitptl/campus-forum/internal/model"
)

func userOrNil(args mock.Arguments, i int) *model.User {
	if v := args.Get(i); v != nil {
		return v.(*model.User)
	}
	return nil
}

// Transactor runs fn inline and counts how each unit of work ended
type Transactor struct {
	Committed  int
	RolledBack int
}

func (t *Transactor) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := fn(ctx); err != nil {
		t.RolledBack++
		return err
	}
	t.Committed++
	return nil
}

type UserRepository struct{ mock.Mock }

func (m *UserRepository) Create(ctx context.Context, user *model.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *UserRepository) Get(ctx context.Context, id uuid.UUID) (*model.User, error) {
	args := m.Called(ctx, id)
	return userOrNil(args, 0), args.Error(1)
}

func (m *UserRepository) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	args := m.Called(ctx, username)
	return userOrNil(args, 0), args.Error(1)
}

func (m *UserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	return userOrNil(args, 0), args.Error(1)
}

func (m *UserRepository) Update(ctx context.Context, user *model.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *UserRepository) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string, mustReset bool) error {
	return m.Called(ctx, id, passwordHash, mustReset).Error(0)
}

func (m *UserRepository) RecordLoginAttempt(ctx context.Context, user *model.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *UserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *UserRepository) List(ctx context.Context, filters *model.UserFilters) ([]*model.User, error) {
	args := m.Called(ctx, filters)
	users, _ := args.Get(0).([]*model.User)
	return users, args.Error(1)
}

type TokenRepository struct{ mock.Mock }

func (m *TokenRepository) StoreResetToken(ctx context.Context, userID uuid.UUID, token string, expiry time.Time) error {
	return m.Called(ctx, userID, token, expiry).Error(0)
}

func (m *TokenRepository) ValidateResetToken(ctx context.Context, token string) (uuid.UUID, error) {
	args := m.Called(ctx, token)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

func (m *TokenRepository) InvalidateResetToken(ctx context.Context, token string) error {
	return m.Called(ctx, token).Error(0)
}

type RevocationStore struct{ mock.Mock }

func (m *RevocationStore) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	return m.Called(ctx, tokenID, ttl).Error(0)
}

func (m *RevocationStore) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	args := m.Called(ctx, tokenID)
	return args.Bool(0), args.Error(1)
}

type InvitationRepository struct{ mock.Mock }

func (m *InvitationRepository) Create(ctx context.Context, inv *model.Invitation) error {
	return m.Called(ctx, inv).Error(0)
}

func (m *InvitationRepository) Get(ctx context.Context, code string) (*model.Invitation, error) {
	args := m.Called(ctx, code)
	inv, _ := args.Get(0).(*model.Invitation)
	return inv, args.Error(1)
}

func (m *InvitationRepository) MarkUsed(ctx context.Context, code string, userID uuid.UUID, usedAt time.Time) error {
	return m.Called(ctx, code, userID, usedAt).Error(0)
}

func (m *InvitationRepository) Delete(ctx context.Context, code string) error {
	return m.Called(ctx, code).Error(0)
}

func (m *InvitationRepository) List(ctx context.Context, includeUsed bool) ([]*model.Invitation, error) {
	args := m.Called(ctx, includeUsed)
	invs, _ := args.Get(0).([]*model.Invitation)
	return invs, args.Error(1)
}

func (m *InvitationRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	args := m.Called(ctx, before)
	return args.Get(0).(int64), args.Error(1)
}

type PostRepository struct{ mock.Mock }

func (m *PostRepository) Create(ctx context.Context, post *model.Post) error {
	return m.Called(ctx, post).Error(0)
}

func (m *PostRepository) Get(ctx context.Context, id uuid.UUID) (*model.Post, error) {
	args := m.Called(ctx, id)
	post, _ := args.Get(0).(*model.Post)
	return post, args.Error(1)
}

func (m *PostRepository) Update(ctx context.Context, post *model.Post) error {
	return m.Called(ctx, post).Error(0)
}

func (m *PostRepository) SetHidden(ctx context.Context, id uuid.UUID, hidden bool) error {
	return m.Called(ctx, id, hidden).Error(0)
}

func (m *PostRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *PostRepository) List(ctx context.Context, filters *model.PostFilters) ([]*model.Post, error) {
	args := m.Called(ctx, filters)
	posts, _ := args.Get(0).([]*model.Post)
	return posts, args.Error(1)
}

type ReplyRepository struct{ mock.Mock }

func (m *ReplyRepository) Create(ctx context.Context, reply *model.Reply) error {
	return m.Called(ctx, reply).Error(0)
}

func (m *ReplyRepository) Get(ctx context.Context, id uuid.UUID) (*model.Reply, error) {
	args := m.Called(ctx, id)
	reply, _ := args.Get(0).(*model.Reply)
	return reply, args.Error(1)
}

func (m *ReplyRepository) Update(ctx context.Context, reply *model.Reply) error {
	return m.Called(ctx, reply).Error(0)
}

func (m *ReplyRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *ReplyRepository) ListByPost(ctx context.Context, postID uuid.UUID, page model.Page) ([]*model.Reply, error) {
	args := m.Called(ctx, postID, page)
	replies, _ := args.Get(0).([]*model.Reply)
	return replies, args.Error(1)
}

type MessageRepository struct{ mock.Mock }

func (m *MessageRepository) Create(ctx context.Context, msg *model.Message) error {
	return m.Called(ctx, msg).Error(0)
}

func (m *MessageRepository) Get(ctx context.Context, id uuid.UUID) (*model.Message, error) {
	args := m.Called(ctx, id)
	msg, _ := args.Get(0).(*model.Message)
	return msg, args.Error(1)
}

func (m *MessageRepository) ListInbox(ctx context.Context, recipientID uuid.UUID, filters *model.MessageFilters) ([]*model.Message, error) {
	args := m.Called(ctx, recipientID, filters)
	msgs, _ := args.Get(0).([]*model.Message)
	return msgs, args.Error(1)
}

func (m *MessageRepository) ListSent(ctx context.Context, senderID uuid.UUID, page model.Page) ([]*model.Message, error) {
	args := m.Called(ctx, senderID, page)
	msgs, _ := args.Get(0).([]*model.Message)
	return msgs, args.Error(1)
}

func (m *MessageRepository) MarkRead(ctx context.Context, id uuid.UUID, readAt time.Time) error {
	return m.Called(ctx, id, readAt).Error(0)
}

func (m *MessageRepository) DeleteFor(ctx context.Context, id, userID uuid.UUID) error {
	return m.Called(ctx, id, userID).Error(0)
}

func (m *MessageRepository) CountUnread(ctx context.Context, recipientID uuid.UUID) (int, error) {
	args := m.Called(ctx, recipientID)
	return args.Int(0), args.Error(1)
}

type ModerationRepository struct{ mock.Mock }

func (m *ModerationRepository) Get(ctx context.Context) (*model.ModerationConfig, error) {
	args := m.Called(ctx)
	cfg, _ := args.Get(0).(*model.ModerationConfig)
	return cfg, args.Error(1)
}

func (m *ModerationRepository) Save(ctx context.Context, cfg *model.ModerationConfig) error {
	return m.Called(ctx, cfg).Error(0)
}

type AuditRepository struct{ mock.Mock }

func (m *AuditRepository) Create(ctx context.Context, log *model.AuditLog) error {
	return m.Called(ctx, log).Error(0)
}

func (m *AuditRepository) List(ctx context.Context, filters *model.AuditFilters) ([]*model.AuditLog, error) {
	args := m.Called(ctx, filters)
	logs, _ := args.Get(0).([]*model.AuditLog)
	return logs, args.Error(1)
}

func (m *AuditRepository) Cleanup(ctx context.Context, before time.Time) (int64, error) {
	args := m.Called(ctx, before)
	return args.Get(0).(int64), args.Error(1)
}

type EmailService struct{ mock.Mock }

func (m *EmailService) SendInvitation(ctx context.Context, to, code, role string, expiresAt time.Time) error {
	return m.Called(ctx, to, code, role, expiresAt).Error(0)
}

func (m *EmailService) SendPasswordReset(ctx context.Context, to, token string) error {
	return m.Called(ctx, to, token).Error(0)
}

func (m *EmailService) SendWelcome(ctx context.Context, to, name string) error {
	return m.Called(ctx, to, name).Error(0)
}

func (m *EmailService) SendMessageNotification(ctx context.Context, to, name, sender, subject string) error {
	return m.Called(ctx, to, name, sender, subject).Error(0)
}

type Publisher struct{ mock.Mock }

func (m *Publisher) Publish(ctx context.Context, channel string, message interface{}) error {
	return m.Called(ctx, channel, message).Error(0)
}

type OutboxRepository struct{ mock.Mock }

func (m *OutboxRepository) Create(ctx context.Context, event *model.OutboxEvent) error {
	return m.Called(ctx, event).Error(0)
}

func (m *OutboxRepository) ClaimPending(ctx context.Context, limit int, leaseUntil time.Time) ([]*model.OutboxEvent, error) {
	args := m.Called(ctx, limit, leaseUntil)
	events, _ := args.Get(0).([]*model.OutboxEvent)
	return events, args.Error(1)
}

func (m *OutboxRepository) MarkProcessed(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *OutboxRepository) MarkFailed(ctx context.Context, id uuid.UUID, reason string, maxRetries int) error {
	return m.Called(ctx, id, reason, maxRetries).Error(0)
}

func (m *OutboxRepository) DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error) {
	args := m.Called(ctx, before)
	return args.Get(0).(int64), args.Error(1)
}
