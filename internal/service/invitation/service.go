package invitation

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/campus-forum/internal/email"
	"github.com/jwalitptl/campus-forum/internal/model"
	"github.com/jwalitptl/campus-forum/internal/repository"
	"github.com/jwalitptl/campus-forum/internal/service/audit"
	"github.com/jwalitptl/campus-forum/pkg/errors"
	"github.com/jwalitptl/campus-forum/pkg/metrics"
)

var (
	ErrInvitationNotFound = stderrors.New("invitation not found")
	ErrInvitationExpired  = stderrors.New("invitation has expired")
	ErrInvitationUsed     = stderrors.New("invitation has already been used")
)

const (
	defaultTTL      = 72 * time.Hour
	defaultCacheTTL = 5 * time.Minute
	maxCodeAttempts = 3
)

type Config struct {
	DefaultTTL time.Duration
	CacheTTL   time.Duration
}

type Service struct {
	repo     repository.InvitationRepository
	emailSvc email.Service
	auditor  audit.Recorder
	metrics  *metrics.Metrics
	cache    *cache.Cache
	cfg      Config
	now      func() time.Time
	generate func() (string, error)
}

func NewService(repo repository.InvitationRepository, emailSvc email.Service, auditor audit.Recorder, m *metrics.Metrics, cfg Config) *Service {
	if cfg.DefaultTTL <= 0 {
		cfg.DefaultTTL = defaultTTL
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = defaultCacheTTL
	}
	return &Service{
		repo:     repo,
		emailSvc: emailSvc,
		auditor:  auditor,
		metrics:  m,
		cache:    cache.New(cfg.CacheTTL, 2*cfg.CacheTTL),
		cfg:      cfg,
		now:      time.Now,
		generate: GenerateCode,
	}
}

// CanInvite reports whether issuerRole may hand out invitations for role.
func CanInvite(issuerRole, role string) bool {
	switch issuerRole {
	case model.RoleAdmin:
		return model.IsValidRole(role)
	case model.RoleStaff:
		return role == model.RoleStudent
	}
	return false
}

func (s *Service) Create(ctx context.Context, issuer model.Actor, req *model.CreateInvitationRequest) (*model.Invitation, error) {
	if !model.IsValidRole(req.Role) {
		return nil, errors.BadRequest("invalid role", nil)
	}
	if !CanInvite(issuer.Role, req.Role) {
		return nil, errors.Forbidden(fmt.Sprintf("%s users cannot invite %s users", issuer.Role, req.Role))
	}

	ttl := s.cfg.DefaultTTL
	if req.TTLHours > 0 {
		ttl = time.Duration(req.TTLHours) * time.Hour
	}

	now := s.now()
	inv := &model.Invitation{
		Role:      req.Role,
		CreatedBy: issuer.UserID,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
	if addr := strings.TrimSpace(req.Email); addr != "" {
		inv.Email = &addr
	}

	var err error
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		inv.Code, err = s.generate()
		if err != nil {
			return nil, fmt.Errorf("failed to generate invitation code: %w", err)
		}
		err = s.repo.Create(ctx, inv)
		if err == nil || !stderrors.Is(err, repository.ErrConflict) {
			break
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create invitation: %w", err)
	}

	if inv.Email != nil {
		if err := s.emailSvc.SendInvitation(ctx, *inv.Email, inv.Code, inv.Role, inv.ExpiresAt); err != nil {
			log.Warn().Err(err).Str("code", inv.Code).Msg("failed to email invitation")
		}
	}

	if s.metrics != nil {
		s.metrics.InvitationsCreated.WithLabelValues(inv.Role).Inc()
	}
	s.auditor.Log(ctx, audit.Entry{
		ActorID:    audit.ActorRef(issuer.UserID),
		Action:     audit.ActionInvitationCreate,
		EntityType: "invitation",
		EntityID:   inv.Code,
		Metadata:   map[string]interface{}{"role": inv.Role},
	})

	return inv, nil
}

// Get returns an invitation that can still be redeemed.
func (s *Service) Get(ctx context.Context, code string) (*model.Invitation, error) {
	code = NormalizeCode(code)
	if code == "" {
		return nil, errors.NotFound("invitation", ErrInvitationNotFound)
	}

	var inv *model.Invitation
	if cached, ok := s.cache.Get(code); ok {
		inv = cached.(*model.Invitation)
	} else {
		found, err := s.repo.Get(ctx, code)
		if err != nil {
			if stderrors.Is(err, repository.ErrNotFound) {
				return nil, errors.NotFound("invitation", ErrInvitationNotFound)
			}
			return nil, fmt.Errorf("failed to get invitation: %w", err)
		}
		inv = found
		s.cache.Set(code, inv, cache.DefaultExpiration)
	}

	if inv.IsUsed() {
		return nil, errors.BadRequest("invitation has already been used", ErrInvitationUsed)
	}
	if inv.IsExpired(s.now()) {
		return nil, errors.BadRequest("invitation has expired", ErrInvitationExpired)
	}
	return inv, nil
}

// Redeem marks the code used by userID. It fails if someone else got there first.
func (s *Service) Redeem(ctx context.Context, code string, userID uuid.UUID) error {
	code = NormalizeCode(code)
	defer s.cache.Delete(code)

	if err := s.repo.MarkUsed(ctx, code, userID, s.now()); err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return errors.Conflict("invitation is no longer valid", ErrInvitationUsed)
		}
		return fmt.Errorf("failed to redeem invitation: %w", err)
	}

	if s.metrics != nil {
		s.metrics.InvitationsRedeemed.Inc()
	}
	return nil
}

func (s *Service) List(ctx context.Context, includeUsed bool) ([]*model.Invitation, error) {
	invitations, err := s.repo.List(ctx, includeUsed)
	if err != nil {
		return nil, fmt.Errorf("failed to list invitations: %w", err)
	}
	if invitations == nil {
		invitations = []*model.Invitation{}
	}
	return invitations, nil
}

func (s *Service) Revoke(ctx context.Context, actor model.Actor, code string) error {
	code = NormalizeCode(code)
	inv, err := s.repo.Get(ctx, code)
	if err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return errors.NotFound("invitation", ErrInvitationNotFound)
		}
		return fmt.Errorf("failed to get invitation: %w", err)
	}
	if actor.Role != model.RoleAdmin && inv.CreatedBy != actor.UserID {
		return errors.Forbidden("only admins may revoke invitations issued by others")
	}
	if inv.IsUsed() {
		return errors.BadRequest("invitation has already been used", ErrInvitationUsed)
	}

	if err := s.repo.Delete(ctx, code); err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return errors.NotFound("invitation", err)
		}
		return fmt.Errorf("failed to revoke invitation: %w", err)
	}
	s.cache.Delete(code)

	s.auditor.Log(ctx, audit.Entry{
		ActorID:    audit.ActorRef(actor.UserID),
		Action:     audit.ActionInvitationRevoke,
		EntityType: "invitation",
		EntityID:   code,
	})
	return nil
}

// PurgeExpired deletes unused invitations whose expiry has passed.
func (s *Service) PurgeExpired(ctx context.Context) (int64, error) {
	n, err := s.repo.DeleteExpired(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("failed to purge expired invitations: %w", err)
	}
	s.cache.DeleteExpired()
	if s.metrics != nil && n > 0 {
		s.metrics.InvitationsPurged.Add(float64(n))
	}
	return n, nil
}
