package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jwalitptl/campus-forum/internal/model"
	"github.com/jwalitptl/campus-forum/internal/repository"
)

// Audit actions
const (
	ActionLogin            = "login"
	ActionLoginFailed      = "login_failed"
	ActionLogout           = "logout"
	ActionRefreshToken     = "refresh_token"
	ActionRegister         = "register"
	ActionPasswordChange   = "password_change"
	ActionPasswordReset    = "password_reset"
	ActionPasswordResetReq = "password_reset_requested"
	ActionPasswordSet      = "password_set"
	ActionUserCreate       = "user_create"
	ActionUserUpdate       = "user_update"
	ActionUserDelete       = "user_delete"
	ActionInvitationCreate = "invitation_create"
	ActionInvitationRevoke = "invitation_revoke"
	ActionPostHide         = "post_hide"
	ActionPostDelete       = "post_delete"
	ActionReplyDelete      = "reply_delete"
	ActionModerationUpdate = "moderation_update"
)

// Recorder is what other services depend on
type Recorder interface {
	Log(ctx context.Context, entry Entry)
}

// Entry describes one auditable action
type Entry struct {
	ActorID    *uuid.UUID
	Action     string
	EntityType string
	EntityID   string
	Metadata   map[string]interface{}
	IPAddress  string
}

type clientIPKey struct{}

// WithClientIP attaches the caller address used when an entry omits one.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPKey{}, ip)
}

type Service struct {
	repo   repository.AuditRepository
	logger zerolog.Logger
	now    func() time.Time
}

func NewService(repo repository.AuditRepository, logger zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger.With().Str("component", "audit").Logger(),
		now:    time.Now,
	}
}

// Log writes an audit entry. Failures are logged and never returned so
// that auditing cannot break the operation being audited.
func (s *Service) Log(ctx context.Context, entry Entry) {
	var metadata []byte
	if entry.Metadata != nil {
		var err error
		metadata, err = json.Marshal(entry.Metadata)
		if err != nil {
			s.logger.Warn().Err(err).Str("action", entry.Action).Msg("failed to encode audit metadata")
			metadata = nil
		}
	}

	ipAddress := entry.IPAddress
	if ipAddress == "" {
		if gc, ok := ctx.(*gin.Context); ok {
			ipAddress = gc.ClientIP()
		} else if ip, ok := ctx.Value(clientIPKey{}).(string); ok {
			ipAddress = ip
		}
	}

	log := &model.AuditLog{
		ID:         uuid.New(),
		ActorID:    entry.ActorID,
		Action:     entry.Action,
		EntityType: entry.EntityType,
		EntityID:   entry.EntityID,
		Metadata:   metadata,
		IPAddress:  ipAddress,
		CreatedAt:  s.now(),
	}

	if err := s.repo.Create(ctx, log); err != nil {
		s.logger.Error().Err(err).
			Str("action", entry.Action).
			Str("entity_type", entry.EntityType).
			Str("entity_id", entry.EntityID).
			Msg("failed to write audit log")
	}
}

func (s *Service) List(ctx context.Context, filters *model.AuditFilters) ([]*model.AuditLog, error) {
	logs, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, err
	}
	if logs == nil {
		logs = []*model.AuditLog{}
	}
	return logs, nil
}

func (s *Service) Cleanup(ctx context.Context, before time.Time) (int64, error) {
	return s.repo.Cleanup(ctx, before)
}

// ActorRef returns a pointer suitable for Entry.ActorID
func ActorRef(id uuid.UUID) *uuid.UUID {
	if id == uuid.Nil {
		return nil
	}
	return &id
}
