package account

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/jwalitptl/campus-forum/internal/model"
	"github.com/jwalitptl/campus-forum/internal/repository"
	"github.com/jwalitptl/campus-forum/internal/service/audit"
	"github.com/jwalitptl/campus-forum/internal/service/event"
	"github.com/jwalitptl/campus-forum/internal/service/password"
	"github.com/jwalitptl/campus-forum/pkg/errors"
	"github.com/jwalitptl/campus-forum/pkg/security"
)

// AccountServicer is the self-service account setup flow
type AccountServicer interface {
	GetRoleForInvitationCode(ctx context.Context, code string) (string, error)
	Register(ctx context.Context, req *model.RegisterRequest) (*model.User, error)
}

// Invitations is the part of the invitation service registration needs
type Invitations interface {
	Get(ctx context.Context, code string) (*model.Invitation, error)
	Redeem(ctx context.Context, code string, userID uuid.UUID) error
}

type Service struct {
	userRepo    repository.UserRepository
	tx          repository.Transactor
	invitations Invitations
	hasher      security.PasswordHasher
	passwords   *password.Service
	events      event.Emitter
	auditor     audit.Recorder
}

func NewService(
	userRepo repository.UserRepository,
	tx repository.Transactor,
	invitations Invitations,
	hasher security.PasswordHasher,
	passwords *password.Service,
	events event.Emitter,
	auditor audit.Recorder,
) *Service {
	return &Service{
		userRepo:    userRepo,
		tx:          tx,
		invitations: invitations,
		hasher:      hasher,
		passwords:   passwords,
		events:      events,
		auditor:     auditor,
	}
}

// GetRoleForInvitationCode returns the role a valid code grants
func (s *Service) GetRoleForInvitationCode(ctx context.Context, code string) (string, error) {
	inv, err := s.invitations.Get(ctx, code)
	if err != nil {
		return "", err
	}
	return inv.Role, nil
}

// Register creates an account from an invitation code. Nothing is
// persisted unless the password satisfies the credential policy.
func (s *Service) Register(ctx context.Context, req *model.RegisterRequest) (*model.User, error) {
	inv, err := s.invitations.Get(ctx, req.InvitationCode)
	if err != nil {
		return nil, err
	}

	if err := s.passwords.Enforce(req.Password); err != nil {
		return nil, err
	}

	if inv.Email != nil && !strings.EqualFold(*inv.Email, req.Email) {
		return nil, errors.BadRequest("email does not match the invitation", nil)
	}

	if err := s.ensureAvailable(ctx, req.Username, req.Email); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		Base:         model.Base{ID: uuid.New()},
		Username:     req.Username,
		Email:        req.Email,
		Name:         req.Name,
		PasswordHash: hash,
		Role:         inv.Role,
		Status:       model.UserStatusActive,
	}

	// the account, the redeemed code and the registration event commit
	// together; a code claimed concurrently leaves nothing behind
	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		if err := s.userRepo.Create(ctx, user); err != nil {
			if stderrors.Is(err, repository.ErrConflict) {
				return errors.Conflict("username or email already taken", err)
			}
			return fmt.Errorf("failed to create user: %w", err)
		}
		if err := s.invitations.Redeem(ctx, inv.Code, user.ID); err != nil {
			return err
		}
		return s.events.Emit(ctx, model.EventUserRegistered, model.UserRegisteredPayload{
			UserID:   user.ID,
			Username: user.Username,
			Email:    user.Email,
			Name:     user.Name,
			Role:     user.Role,
		})
	})
	if err != nil {
		return nil, err
	}

	s.auditor.Log(ctx, audit.Entry{
		ActorID:    audit.ActorRef(user.ID),
		Action:     audit.ActionRegister,
		EntityType: "user",
		EntityID:   user.ID.String(),
		Metadata:   map[string]interface{}{"role": user.Role, "invitation": inv.Code},
	})

	return user, nil
}

func (s *Service) ensureAvailable(ctx context.Context, username, emailAddr string) error {
	if _, err := s.userRepo.GetByUsername(ctx, username); err == nil {
		return errors.Conflict("username already taken", nil)
	} else if !stderrors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("failed to check username: %w", err)
	}

	if _, err := s.userRepo.GetByEmail(ctx, emailAddr); err == nil {
		return errors.Conflict("email already registered", nil)
	} else if !stderrors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("failed to check email: %w", err)
	}
	return nil
}
