package user

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/jwalitptl/campus-forum/internal/model"
	"github.com/jwalitptl/campus-forum/internal/repository"
	"github.com/jwalitptl/campus-forum/internal/service/audit"
	"github.com/jwalitptl/campus-forum/internal/service/password"
	"github.com/jwalitptl/campus-forum/pkg/errors"
	"github.com/jwalitptl/campus-forum/pkg/security"
)

type UserServicer interface {
	CreateUser(ctx context.Context, admin model.Actor, req *model.CreateUserRequest) (*model.User, error)
	GetUser(ctx context.Context, id uuid.UUID) (*model.User, error)
	ListUsers(ctx context.Context, filters *model.UserFilters) ([]*model.User, error)
	UpdateUser(ctx context.Context, admin model.Actor, id uuid.UUID, req *model.UpdateUserRequest) (*model.User, error)
	DeleteUser(ctx context.Context, admin model.Actor, id uuid.UUID) error
	SetPassword(ctx context.Context, admin model.Actor, id uuid.UUID, pw string) error
}

type Service struct {
	repo      repository.UserRepository
	hasher    security.PasswordHasher
	passwords *password.Service
	auditor   audit.Recorder
}

func NewService(repo repository.UserRepository, hasher security.PasswordHasher, passwords *password.Service, auditor audit.Recorder) *Service {
	return &Service{
		repo:      repo,
		hasher:    hasher,
		passwords: passwords,
		auditor:   auditor,
	}
}

// CreateUser adds an account on behalf of an admin. The password is a
// temporary one, so the user must replace it at first sign-in.
func (s *Service) CreateUser(ctx context.Context, admin model.Actor, req *model.CreateUserRequest) (*model.User, error) {
	if err := s.passwords.Enforce(req.Password); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		Base:              model.Base{ID: uuid.New()},
		Username:          req.Username,
		Email:             req.Email,
		Name:              req.Name,
		PasswordHash:      hash,
		Role:              req.Role,
		Status:            model.UserStatusActive,
		MustResetPassword: true,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		if stderrors.Is(err, repository.ErrConflict) {
			return nil, errors.Conflict("username or email already taken", err)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.auditor.Log(ctx, audit.Entry{
		ActorID:    audit.ActorRef(admin.UserID),
		Action:     audit.ActionUserCreate,
		EntityType: "user",
		EntityID:   user.ID.String(),
		Metadata:   map[string]interface{}{"username": user.Username, "role": user.Role},
	})

	return user, nil
}

func (s *Service) GetUser(ctx context.Context, id uuid.UUID) (*model.User, error) {
	user, err := s.repo.Get(ctx, id)
	if err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return nil, errors.NotFound("user", err)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

func (s *Service) ListUsers(ctx context.Context, filters *model.UserFilters) ([]*model.User, error) {
	users, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	if users == nil {
		users = []*model.User{}
	}
	return users, nil
}

func (s *Service) UpdateUser(ctx context.Context, admin model.Actor, id uuid.UUID, req *model.UpdateUserRequest) (*model.User, error) {
	user, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}

	changes := map[string]interface{}{}
	if req.Name != nil {
		user.Name = *req.Name
		changes["name"] = *req.Name
	}
	if req.Email != nil {
		user.Email = *req.Email
		changes["email"] = *req.Email
	}
	if req.Role != nil && *req.Role != user.Role {
		if user.ID == admin.UserID {
			return nil, errors.BadRequest("admins cannot change their own role", nil)
		}
		user.Role = *req.Role
		changes["role"] = *req.Role
	}
	if req.Status != nil && *req.Status != user.Status {
		if user.ID == admin.UserID {
			return nil, errors.BadRequest("admins cannot change their own status", nil)
		}
		user.Status = *req.Status
		// an admin lock does not expire, so it carries no failed-login count
		if user.Status == model.UserStatusActive || user.Status == model.UserStatusLocked {
			user.LoginAttempts = 0
		}
		changes["status"] = *req.Status
	}

	if err := s.repo.Update(ctx, user); err != nil {
		switch {
		case stderrors.Is(err, repository.ErrConflict):
			return nil, errors.Conflict("email already registered", err)
		case stderrors.Is(err, repository.ErrNotFound):
			return nil, errors.NotFound("user", err)
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	s.auditor.Log(ctx, audit.Entry{
		ActorID:    audit.ActorRef(admin.UserID),
		Action:     audit.ActionUserUpdate,
		EntityType: "user",
		EntityID:   user.ID.String(),
		Metadata:   changes,
	})

	return user, nil
}

func (s *Service) DeleteUser(ctx context.Context, admin model.Actor, id uuid.UUID) error {
	if id == admin.UserID {
		return errors.BadRequest("admins cannot delete their own account", nil)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return errors.NotFound("user", err)
		}
		return fmt.Errorf("failed to delete user: %w", err)
	}

	s.auditor.Log(ctx, audit.Entry{
		ActorID:    audit.ActorRef(admin.UserID),
		Action:     audit.ActionUserDelete,
		EntityType: "user",
		EntityID:   id.String(),
	})
	return nil
}

// SetPassword assigns a temporary password that must be replaced at next sign-in.
func (s *Service) SetPassword(ctx context.Context, admin model.Actor, id uuid.UUID, pw string) error {
	if err := s.passwords.Enforce(pw); err != nil {
		return err
	}

	hash, err := s.hasher.Hash(pw)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.repo.UpdatePassword(ctx, id, hash, true); err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return errors.NotFound("user", err)
		}
		return fmt.Errorf("failed to set password: %w", err)
	}

	s.auditor.Log(ctx, audit.Entry{
		ActorID:    audit.ActorRef(admin.UserID),
		Action:     audit.ActionPasswordSet,
		EntityType: "user",
		EntityID:   id.String(),
	})
	return nil
}

// EnsureAdmin creates the bootstrap admin account when no user with that
// username exists yet. It reports whether an account was created.
func (s *Service) EnsureAdmin(ctx context.Context, req *model.CreateUserRequest) (bool, error) {
	_, err := s.repo.GetByUsername(ctx, req.Username)
	if err == nil {
		return false, nil
	}
	if !stderrors.Is(err, repository.ErrNotFound) {
		return false, fmt.Errorf("failed to look up bootstrap admin: %w", err)
	}

	req.Role = model.RoleAdmin
	if _, err := s.CreateUser(ctx, model.Actor{}, req); err != nil {
		return false, err
	}
	return true, nil
}
