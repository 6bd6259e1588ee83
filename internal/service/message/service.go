package message

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/campus-forum/internal/model"
	"github.com/jwalitptl/campus-forum/internal/repository"
	"github.com/jwalitptl/campus-forum/internal/service/event"
	"github.com/jwalitptl/campus-forum/internal/service/moderation"
	"github.com/jwalitptl/campus-forum/pkg/errors"
	"github.com/jwalitptl/campus-forum/pkg/metrics"
)

type Service struct {
	messages  repository.MessageRepository
	users     repository.UserRepository
	tx        repository.Transactor
	moderator moderation.Checker
	events    event.Emitter
	metrics   *metrics.Metrics
	now       func() time.Time
}

func NewService(messages repository.MessageRepository, users repository.UserRepository, tx repository.Transactor, moderator moderation.Checker, events event.Emitter, m *metrics.Metrics) *Service {
	return &Service{
		messages:  messages,
		users:     users,
		tx:        tx,
		moderator: moderator,
		events:    events,
		metrics:   m,
		now:       time.Now,
	}
}

// Send delivers a private message and announces it so the worker can
// notify the recipient by email.
func (s *Service) Send(ctx context.Context, sender model.Actor, req *model.SendMessageRequest) (*model.Message, error) {
	recipient, err := s.users.GetByUsername(ctx, strings.TrimSpace(req.Recipient))
	if err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return nil, errors.NotFound("recipient", err)
		}
		return nil, fmt.Errorf("failed to get recipient: %w", err)
	}
	if recipient.ID == sender.UserID {
		return nil, errors.BadRequest("cannot send a message to yourself", nil)
	}
	if recipient.Status == model.UserStatusInactive {
		return nil, errors.NotFound("recipient", nil)
	}

	subject := strings.TrimSpace(req.Subject)
	if err := s.moderator.CheckContent(ctx, sender.Role, model.ContentTitle, subject); err != nil {
		return nil, err
	}
	if err := s.moderator.CheckContent(ctx, sender.Role, model.ContentMessage, req.Body); err != nil {
		return nil, err
	}

	msg := &model.Message{
		SenderID:          sender.UserID,
		SenderUsername:    sender.Username,
		RecipientID:       recipient.ID,
		RecipientUsername: recipient.Username,
		Subject:           subject,
		Body:              req.Body,
	}
	// the message and its notification event commit together
	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		if err := s.messages.Create(ctx, msg); err != nil {
			return fmt.Errorf("failed to create message: %w", err)
		}
		payload := model.MessageSentPayload{
			MessageID:      msg.ID,
			SenderUsername: sender.Username,
			RecipientID:    recipient.ID,
			RecipientEmail: recipient.Email,
			RecipientName:  recipient.Name,
			Subject:        subject,
		}
		return s.events.Emit(ctx, model.EventMessageSent, payload)
	})
	if err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.MessagesSent.Inc()
	}

	return msg, nil
}

func (s *Service) Inbox(ctx context.Context, user model.Actor, filters *model.MessageFilters) ([]*model.Message, error) {
	messages, err := s.messages.ListInbox(ctx, user.UserID, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list inbox: %w", err)
	}
	return messages, nil
}

func (s *Service) Sent(ctx context.Context, user model.Actor, page model.Page) ([]*model.Message, error) {
	messages, err := s.messages.ListSent(ctx, user.UserID, page)
	if err != nil {
		return nil, fmt.Errorf("failed to list sent messages: %w", err)
	}
	return messages, nil
}

// Get returns a message to one of its participants. Opening an unread
// message as its recipient marks it read.
func (s *Service) Get(ctx context.Context, user model.Actor, id uuid.UUID) (*model.Message, error) {
	msg, err := s.getVisible(ctx, user, id)
	if err != nil {
		return nil, err
	}

	if msg.RecipientID == user.UserID && msg.ReadAt == nil {
		readAt := s.now()
		if err := s.messages.MarkRead(ctx, id, readAt); err != nil && !stderrors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("failed to mark message read: %w", err)
		}
		msg.ReadAt = &readAt
	}
	return msg, nil
}

func (s *Service) MarkRead(ctx context.Context, user model.Actor, id uuid.UUID) error {
	msg, err := s.getVisible(ctx, user, id)
	if err != nil {
		return err
	}
	if msg.RecipientID != user.UserID {
		return errors.Forbidden("only the recipient can mark a message read")
	}
	if msg.ReadAt != nil {
		return nil
	}
	if err := s.messages.MarkRead(ctx, id, s.now()); err != nil && !stderrors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("failed to mark message read: %w", err)
	}
	return nil
}

// Delete removes the message from the caller's mailbox only.
func (s *Service) Delete(ctx context.Context, user model.Actor, id uuid.UUID) error {
	if _, err := s.getVisible(ctx, user, id); err != nil {
		return err
	}
	if err := s.messages.DeleteFor(ctx, id, user.UserID); err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return errors.NotFound("message", err)
		}
		return fmt.Errorf("failed to delete message: %w", err)
	}
	return nil
}

func (s *Service) UnreadCount(ctx context.Context, user model.Actor) (int, error) {
	count, err := s.messages.CountUnread(ctx, user.UserID)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread messages: %w", err)
	}
	return count, nil
}

// getVisible loads a message the user sent or received and has not
// deleted; anything else is reported as not found.
func (s *Service) getVisible(ctx context.Context, user model.Actor, id uuid.UUID) (*model.Message, error) {
	msg, err := s.messages.Get(ctx, id)
	if err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return nil, errors.NotFound("message", err)
		}
		return nil, fmt.Errorf("failed to get message: %w", err)
	}
	if !msg.IsParticipant(user.UserID) {
		return nil, errors.NotFound("message", nil)
	}
	if (msg.SenderID == user.UserID && msg.SenderDeleted) || (msg.RecipientID == user.UserID && msg.RecipientDeleted) {
		return nil, errors.NotFound("message", nil)
	}
	return msg, nil
}
