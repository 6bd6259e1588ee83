package auth

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/campus-forum/internal/email"
	"github.com/jwalitptl/campus-forum/internal/model"
	"github.com/jwalitptl/campus-forum/internal/repository"
	"github.com/jwalitptl/campus-forum/internal/service/audit"
	"github.com/jwalitptl/campus-forum/internal/service/password"
	"github.com/jwalitptl/campus-forum/pkg/auth"
	"github.com/jwalitptl/campus-forum/pkg/errors"
	"github.com/jwalitptl/campus-forum/pkg/metrics"
	"github.com/jwalitptl/campus-forum/pkg/security"
)

var (
	ErrInvalidCredentials = stderrors.New("invalid credentials")
	ErrAccountLocked      = stderrors.New("account is locked")
	ErrAccountInactive    = stderrors.New("account is inactive")
	ErrTokenRevoked       = stderrors.New("token has been revoked")
)

const (
	defaultMaxLoginAttempts = 5
	defaultLockoutDuration  = 15 * time.Minute
	defaultResetTokenExpiry = time.Hour
)

type Config struct {
	MaxLoginAttempts int
	LockoutDuration  time.Duration
	ResetTokenTTL    time.Duration
}

type Service struct {
	userRepo    repository.UserRepository
	tokenRepo   repository.TokenRepository
	revocations repository.RevocationStore
	jwtSvc      auth.JWTService
	hasher      security.PasswordHasher
	passwords   *password.Service
	emailSvc    email.Service
	auditor     audit.Recorder
	metrics     *metrics.Metrics
	cfg         Config
	now         func() time.Time
}

func NewService(
	userRepo repository.UserRepository,
	tokenRepo repository.TokenRepository,
	revocations repository.RevocationStore,
	jwtSvc auth.JWTService,
	hasher security.PasswordHasher,
	passwords *password.Service,
	emailSvc email.Service,
	auditor audit.Recorder,
	m *metrics.Metrics,
	cfg Config,
) *Service {
	if cfg.MaxLoginAttempts <= 0 {
		cfg.MaxLoginAttempts = defaultMaxLoginAttempts
	}
	if cfg.LockoutDuration <= 0 {
		cfg.LockoutDuration = defaultLockoutDuration
	}
	if cfg.ResetTokenTTL <= 0 {
		cfg.ResetTokenTTL = defaultResetTokenExpiry
	}
	return &Service{
		userRepo:    userRepo,
		tokenRepo:   tokenRepo,
		revocations: revocations,
		jwtSvc:      jwtSvc,
		hasher:      hasher,
		passwords:   passwords,
		emailSvc:    emailSvc,
		auditor:     auditor,
		metrics:     m,
		cfg:         cfg,
		now:         time.Now,
	}
}

func (s *Service) Login(ctx context.Context, username, pw string) (*model.TokenResponse, error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			s.observeLogin("unknown_user")
			return nil, errors.NewUnauthorized("invalid credentials", ErrInvalidCredentials)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if user.Status == model.UserStatusInactive {
		s.observeLogin("inactive")
		return nil, errors.NewUnauthorized("account is inactive", ErrAccountInactive)
	}

	now := s.now()
	if user.Status == model.UserStatusLocked {
		// only a lock earned by failed logins lifts on its own
		if user.LoginAttempts < s.cfg.MaxLoginAttempts {
			s.observeLogin("locked")
			return nil, errors.NewUnauthorized("account is locked", ErrAccountLocked)
		}
		if user.LastLoginAttempt != nil && now.Sub(*user.LastLoginAttempt) < s.cfg.LockoutDuration {
			s.observeLogin("locked")
			return nil, errors.TooManyRequests("account is locked, please try again later")
		}
		user.Status = model.UserStatusActive
		user.LoginAttempts = 0
	}

	if err := s.hasher.Compare(user.PasswordHash, pw); err != nil {
		user.LoginAttempts++
		user.LastLoginAttempt = &now

		if user.LoginAttempts >= s.cfg.MaxLoginAttempts {
			user.Status = model.UserStatusLocked
		}

		if err := s.userRepo.RecordLoginAttempt(ctx, user); err != nil {
			return nil, fmt.Errorf("failed to update login attempts: %w", err)
		}

		s.auditor.Log(ctx, audit.Entry{
			ActorID:    audit.ActorRef(user.ID),
			Action:     audit.ActionLoginFailed,
			EntityType: "user",
			EntityID:   user.ID.String(),
			Metadata:   map[string]interface{}{"attempts": user.LoginAttempts},
		})
		s.observeLogin("failure")
		return nil, errors.NewUnauthorized("invalid credentials", ErrInvalidCredentials)
	}

	// Reset login attempts on successful login
	user.LoginAttempts = 0
	user.LastLoginAttempt = &now
	user.LastLoginAt = &now
	if err := s.userRepo.RecordLoginAttempt(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update login timestamp: %w", err)
	}

	tokens, err := s.generateTokens(user)
	if err != nil {
		return nil, fmt.Errorf("failed to generate tokens: %w", err)
	}

	s.auditor.Log(ctx, audit.Entry{
		ActorID:    audit.ActorRef(user.ID),
		Action:     audit.ActionLogin,
		EntityType: "user",
		EntityID:   user.ID.String(),
	})
	s.observeLogin("success")

	return tokens, nil
}

// ValidateToken parses an access token, rejects revoked ones and refreshes
// the caller identity from the current user row
func (s *Service) ValidateToken(ctx context.Context, token string) (*model.TokenClaims, error) {
	claims, err := s.jwtSvc.ValidateToken(token)
	if err != nil {
		return nil, errors.NewUnauthorized("invalid token", err)
	}

	if err := s.checkRevoked(ctx, claims); err != nil {
		return nil, err
	}

	// the token only names the user; standing and role come from the row
	user, err := s.activeUser(ctx, claims.UserID, "invalid token")
	if err != nil {
		return nil, err
	}
	claims.Username = user.Username
	claims.Role = user.Role
	claims.MustResetPassword = user.MustResetPassword
	return claims, nil
}

func (s *Service) Refresh(ctx context.Context, refreshToken string) (*model.TokenResponse, error) {
	claims, err := s.jwtSvc.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, errors.NewUnauthorized("invalid refresh token", err)
	}

	if err := s.checkRevoked(ctx, claims); err != nil {
		return nil, err
	}

	user, err := s.activeUser(ctx, claims.UserID, "invalid refresh token")
	if err != nil {
		return nil, err
	}

	// refresh tokens are single use
	if err := s.revoke(ctx, claims); err != nil {
		return nil, err
	}

	tokens, err := s.generateTokens(user)
	if err != nil {
		return nil, fmt.Errorf("failed to generate tokens: %w", err)
	}

	s.auditor.Log(ctx, audit.Entry{
		ActorID:    audit.ActorRef(user.ID),
		Action:     audit.ActionRefreshToken,
		EntityType: "user",
		EntityID:   user.ID.String(),
	})

	return tokens, nil
}

// Logout revokes the access token and, when supplied, the refresh token.
func (s *Service) Logout(ctx context.Context, claims *model.TokenClaims, refreshToken string) error {
	if err := s.revoke(ctx, claims); err != nil {
		return err
	}

	if refreshToken != "" {
		refreshClaims, err := s.jwtSvc.ValidateRefreshToken(refreshToken)
		if err == nil && refreshClaims.UserID == claims.UserID {
			if err := s.revoke(ctx, refreshClaims); err != nil {
				return err
			}
		}
	}

	s.auditor.Log(ctx, audit.Entry{
		ActorID:    audit.ActorRef(claims.UserID),
		Action:     audit.ActionLogout,
		EntityType: "user",
		EntityID:   claims.UserID.String(),
	})
	return nil
}

// ForgotPassword emails a reset link. Unknown addresses are not reported.
func (s *Service) ForgotPassword(ctx context.Context, emailAddr string) error {
	user, err := s.userRepo.GetByEmail(ctx, emailAddr)
	if err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("failed to get user: %w", err)
	}
	if user.Status == model.UserStatusInactive {
		return nil
	}

	token := uuid.New().String()
	expiry := s.now().Add(s.cfg.ResetTokenTTL)

	if err := s.tokenRepo.StoreResetToken(ctx, user.ID, token, expiry); err != nil {
		return fmt.Errorf("failed to store reset token: %w", err)
	}

	if err := s.emailSvc.SendPasswordReset(ctx, user.Email, token); err != nil {
		return fmt.Errorf("failed to send reset email: %w", err)
	}

	s.auditor.Log(ctx, audit.Entry{
		ActorID:    audit.ActorRef(user.ID),
		Action:     audit.ActionPasswordResetReq,
		EntityType: "user",
		EntityID:   user.ID.String(),
	})
	return nil
}

func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	if err := s.passwords.Enforce(newPassword); err != nil {
		return err
	}

	userID, err := s.tokenRepo.ValidateResetToken(ctx, token)
	if err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return errors.BadRequest("invalid or expired reset token", err)
		}
		return fmt.Errorf("failed to validate reset token: %w", err)
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.userRepo.UpdatePassword(ctx, userID, hash, false); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	if err := s.tokenRepo.InvalidateResetToken(ctx, token); err != nil {
		return fmt.Errorf("failed to invalidate reset token: %w", err)
	}

	s.auditor.Log(ctx, audit.Entry{
		ActorID:    audit.ActorRef(userID),
		Action:     audit.ActionPasswordReset,
		EntityType: "user",
		EntityID:   userID.String(),
	})
	return nil
}

func (s *Service) ChangePassword(ctx context.Context, userID uuid.UUID, current, newPassword string) error {
	user, err := s.userRepo.Get(ctx, userID)
	if err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return errors.NotFound("user", err)
		}
		return fmt.Errorf("failed to get user: %w", err)
	}

	if err := s.hasher.Compare(user.PasswordHash, current); err != nil {
		if stderrors.Is(err, security.ErrPasswordMismatch) {
			return errors.BadRequest("current password is incorrect", err)
		}
		return fmt.Errorf("failed to verify password: %w", err)
	}

	if err := s.passwords.Enforce(newPassword); err != nil {
		return err
	}

	if newPassword == current {
		return errors.BadRequest("new password must differ from the current password", nil)
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.userRepo.UpdatePassword(ctx, user.ID, hash, false); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	s.auditor.Log(ctx, audit.Entry{
		ActorID:    audit.ActorRef(user.ID),
		Action:     audit.ActionPasswordChange,
		EntityType: "user",
		EntityID:   user.ID.String(),
	})
	return nil
}

func (s *Service) activeUser(ctx context.Context, id uuid.UUID, notFoundMsg string) (*model.User, error) {
	user, err := s.userRepo.Get(ctx, id)
	if err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return nil, errors.NewUnauthorized(notFoundMsg, err)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user.Status != model.UserStatusActive {
		return nil, errors.NewUnauthorized("account is not active", ErrAccountInactive)
	}
	return user, nil
}

func (s *Service) checkRevoked(ctx context.Context, claims *model.TokenClaims) error {
	revoked, err := s.revocations.IsRevoked(ctx, claims.ID)
	if err != nil {
		return fmt.Errorf("failed to check token revocation: %w", err)
	}
	if revoked {
		return errors.NewUnauthorized("token has been revoked", ErrTokenRevoked)
	}
	return nil
}

func (s *Service) revoke(ctx context.Context, claims *model.TokenClaims) error {
	var ttl time.Duration
	if claims.ExpiresAt != nil {
		ttl = claims.ExpiresAt.Time.Sub(s.now())
	}
	if err := s.revocations.Revoke(ctx, claims.ID, ttl); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}

func (s *Service) generateTokens(user *model.User) (*model.TokenResponse, error) {
	accessToken, expiresAt, err := s.jwtSvc.GenerateAccessToken(user)
	if err != nil {
		return nil, err
	}

	refreshToken, _, err := s.jwtSvc.GenerateRefreshToken(user)
	if err != nil {
		return nil, err
	}

	return &model.TokenResponse{
		AccessToken:       accessToken,
		RefreshToken:      refreshToken,
		TokenType:         "Bearer",
		ExpiresAt:         expiresAt,
		MustResetPassword: user.MustResetPassword,
	}, nil
}

func (s *Service) observeLogin(outcome string) {
	if s.metrics != nil {
		s.metrics.LoginAttempts.WithLabelValues(outcome).Inc()
	}
}
