package auth

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/campus-forum/internal/model"
	"github.com/jwalitptl/campus-forum/internal/repository"
	"github.com/jwalitptl/campus-forum/internal/repository/mocks"
	"github.com/jwalitptl/campus-forum/internal/service/audit"
	"github.com/jwalitptl/campus-forum/internal/service/password"
	"github.com/jwalitptl/campus-forum/pkg/auth"
	"github.com/jwalitptl/campus-forum/pkg/errors"
	"github.com/jwalitptl/campus-forum/pkg/security"
)

const validPassword = "Sup3r$ecret"

type recorder struct {
	entries []audit.Entry
}

func (r *recorder) Log(_ context.Context, entry audit.Entry) {
	r.entries = append(r.entries, entry)
}

func (r *recorder) actions() []string {
	out := make([]string, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e.Action)
	}
	return out
}

type fixture struct {
	svc         *Service
	users       *mocks.UserRepository
	tokens      *mocks.TokenRepository
	revocations *mocks.RevocationStore
	mailer      *mocks.EmailService
	audit       *recorder
	jwt         auth.JWTService
	hasher      security.PasswordHasher
	now         time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		users:       new(mocks.UserRepository),
		tokens:      new(mocks.TokenRepository),
		revocations: new(mocks.RevocationStore),
		mailer:      new(mocks.EmailService),
		audit:       &recorder{},
		jwt:         auth.NewJWTService(auth.Config{Secret: "test-secret", Issuer: "test"}),
		hasher:      security.NewBcryptHasher(4),
		now:         time.Now(),
	}
	f.svc = NewService(f.users, f.tokens, f.revocations, f.jwt, f.hasher,
		password.NewService(nil), f.mailer, f.audit, nil, Config{})
	f.svc.now = func() time.Time { return f.now }
	return f
}

func (f *fixture) user(t *testing.T) *model.User {
	t.Helper()
	hash, err := f.hasher.Hash(validPassword)
	require.NoError(t, err)
	return &model.User{
		Base:         model.Base{ID: uuid.New()},
		Username:     "alice",
		Email:        "alice@example.edu",
		PasswordHash: hash,
		Role:         model.RoleStudent,
		Status:       model.UserStatusActive,
	}
}

func timePtr(v time.Time) *time.Time {
	return &v
}

func appCode(t *testing.T, err error) errors.ErrorCode {
	t.Helper()
	var appErr *errors.AppError
	require.True(t, stderrors.As(err, &appErr), "expected AppError, got %v", err)
	return appErr.Code
}

func TestLogin_Success(t *testing.T) {
	f := newFixture(t)
	user := f.user(t)
	user.LoginAttempts = 2

	f.users.On("GetByUsername", mock.Anything, "alice").Return(user, nil)
	f.users.On("RecordLoginAttempt", mock.Anything, mock.MatchedBy(func(u *model.User) bool {
		return u.LoginAttempts == 0 && u.LastLoginAt != nil
	})).Return(nil).Once()

	tokens, err := f.svc.Login(context.Background(), "alice", validPassword)
	require.NoError(t, err)
	assert.Equal(t, "Bearer", tokens.TokenType)

	claims, err := f.jwt.ValidateToken(tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, model.RoleStudent, claims.Role)

	assert.Equal(t, []string{audit.ActionLogin}, f.audit.actions())
	f.users.AssertExpectations(t)
}

func TestLogin_UnknownUser(t *testing.T) {
	f := newFixture(t)
	f.users.On("GetByUsername", mock.Anything, "ghost").Return(nil, repository.ErrNotFound)

	_, err := f.svc.Login(context.Background(), "ghost", validPassword)
	assert.Equal(t, errors.ErrUnauthorized, appCode(t, err))
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogin_InactiveUser(t *testing.T) {
	f := newFixture(t)
	user := f.user(t)
	user.Status = model.UserStatusInactive
	f.users.On("GetByUsername", mock.Anything, "alice").Return(user, nil)

	_, err := f.svc.Login(context.Background(), "alice", validPassword)
	assert.ErrorIs(t, err, ErrAccountInactive)
	f.users.AssertNotCalled(t, "RecordLoginAttempt", mock.Anything, mock.Anything)
}

func TestLogin_LocksAfterMaxAttempts(t *testing.T) {
	f := newFixture(t)
	user := f.user(t)
	user.LoginAttempts = 4

	f.users.On("GetByUsername", mock.Anything, "alice").Return(user, nil)
	f.users.On("RecordLoginAttempt", mock.Anything, mock.Anything).Return(nil)

	_, err := f.svc.Login(context.Background(), "alice", "Wr0ng!pass")
	assert.Equal(t, errors.ErrUnauthorized, appCode(t, err))
	assert.Equal(t, 5, user.LoginAttempts)
	assert.Equal(t, model.UserStatusLocked, user.Status)
	assert.Equal(t, []string{audit.ActionLoginFailed}, f.audit.actions())

	// even the right password is refused while locked
	_, err = f.svc.Login(context.Background(), "alice", validPassword)
	assert.Equal(t, errors.ErrTooManyRequests, appCode(t, err))
}

func TestLogin_LockExpires(t *testing.T) {
	f := newFixture(t)
	user := f.user(t)
	lockedAt := f.now.Add(-16 * time.Minute)
	user.Status = model.UserStatusLocked
	user.LoginAttempts = 5
	user.LastLoginAttempt = &lockedAt

	f.users.On("GetByUsername", mock.Anything, "alice").Return(user, nil)
	f.users.On("RecordLoginAttempt", mock.Anything, mock.Anything).Return(nil)

	_, err := f.svc.Login(context.Background(), "alice", validPassword)
	require.NoError(t, err)
	assert.Equal(t, model.UserStatusActive, user.Status)
	assert.Equal(t, 0, user.LoginAttempts)
}

func TestLogin_AdminLockDoesNotExpire(t *testing.T) {
	f := newFixture(t)
	user := f.user(t)
	user.Status = model.UserStatusLocked

	f.users.On("GetByUsername", mock.Anything, "alice").Return(user, nil)

	for _, last := range []*time.Time{nil, timePtr(f.now.Add(-48 * time.Hour))} {
		user.LastLoginAttempt = last
		tokens, err := f.svc.Login(context.Background(), "alice", validPassword)
		assert.Nil(t, tokens)
		assert.Equal(t, errors.ErrUnauthorized, appCode(t, err))
		assert.ErrorIs(t, err, ErrAccountLocked)
		assert.Equal(t, model.UserStatusLocked, user.Status)
	}
	f.users.AssertNotCalled(t, "RecordLoginAttempt", mock.Anything, mock.Anything)
}

func TestValidateToken_UsesCurrentUserRow(t *testing.T) {
	f := newFixture(t)
	user := f.user(t)
	user.Role = model.RoleStaff
	token, _, err := f.jwt.GenerateAccessToken(user)
	require.NoError(t, err)

	demoted := *user
	demoted.Role = model.RoleStudent
	demoted.MustResetPassword = true
	f.revocations.On("IsRevoked", mock.Anything, mock.Anything).Return(false, nil)
	f.users.On("Get", mock.Anything, user.ID).Return(&demoted, nil).Once()

	claims, err := f.svc.ValidateToken(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, model.RoleStudent, claims.Role)
	assert.True(t, claims.MustResetPassword)
	f.users.AssertExpectations(t)
}

func TestValidateToken_RejectsUnusableAccounts(t *testing.T) {
	tests := []struct {
		name   string
		status string
		getErr error
	}{
		{name: "deleted", getErr: repository.ErrNotFound},
		{name: "inactive", status: model.UserStatusInactive},
		{name: "locked", status: model.UserStatusLocked},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			user := f.user(t)
			user.Role = model.RoleStaff
			token, _, err := f.jwt.GenerateAccessToken(user)
			require.NoError(t, err)

			f.revocations.On("IsRevoked", mock.Anything, mock.Anything).Return(false, nil)
			if tt.getErr != nil {
				f.users.On("Get", mock.Anything, user.ID).Return(nil, tt.getErr).Once()
			} else {
				user.Status = tt.status
				f.users.On("Get", mock.Anything, user.ID).Return(user, nil).Once()
			}

			claims, err := f.svc.ValidateToken(context.Background(), token)
			assert.Nil(t, claims)
			assert.Equal(t, errors.ErrUnauthorized, appCode(t, err))
			f.users.AssertExpectations(t)
		})
	}
}

func TestValidateToken_Revoked(t *testing.T) {
	f := newFixture(t)
	user := f.user(t)
	token, _, err := f.jwt.GenerateAccessToken(user)
	require.NoError(t, err)

	f.revocations.On("IsRevoked", mock.Anything, mock.Anything).Return(true, nil)

	_, err = f.svc.ValidateToken(context.Background(), token)
	assert.ErrorIs(t, err, ErrTokenRevoked)
}

func TestValidateToken_RejectsRefreshToken(t *testing.T) {
	f := newFixture(t)
	token, _, err := f.jwt.GenerateRefreshToken(f.user(t))
	require.NoError(t, err)

	_, err = f.svc.ValidateToken(context.Background(), token)
	assert.Equal(t, errors.ErrUnauthorized, appCode(t, err))
}

func TestRefresh_RotatesToken(t *testing.T) {
	f := newFixture(t)
	user := f.user(t)
	refresh, _, err := f.jwt.GenerateRefreshToken(user)
	require.NoError(t, err)
	claims, err := f.jwt.ValidateRefreshToken(refresh)
	require.NoError(t, err)

	f.revocations.On("IsRevoked", mock.Anything, claims.ID).Return(false, nil)
	f.revocations.On("Revoke", mock.Anything, claims.ID, mock.AnythingOfType("time.Duration")).Return(nil).Once()
	f.users.On("Get", mock.Anything, user.ID).Return(user, nil)

	tokens, err := f.svc.Refresh(context.Background(), refresh)
	require.NoError(t, err)
	assert.NotEmpty(t, tokens.AccessToken)
	assert.NotEqual(t, refresh, tokens.RefreshToken)
	f.revocations.AssertExpectations(t)
}

func TestLogout_RevokesBothTokens(t *testing.T) {
	f := newFixture(t)
	user := f.user(t)
	access, _, err := f.jwt.GenerateAccessToken(user)
	require.NoError(t, err)
	refresh, _, err := f.jwt.GenerateRefreshToken(user)
	require.NoError(t, err)
	claims, err := f.jwt.ValidateToken(access)
	require.NoError(t, err)

	f.revocations.On("Revoke", mock.Anything, mock.Anything, mock.Anything).Return(nil).Twice()

	require.NoError(t, f.svc.Logout(context.Background(), claims, refresh))
	f.revocations.AssertExpectations(t)
	assert.Equal(t, []string{audit.ActionLogout}, f.audit.actions())
}

func TestForgotPassword_UnknownEmailIsSilent(t *testing.T) {
	f := newFixture(t)
	f.users.On("GetByEmail", mock.Anything, "nobody@example.edu").Return(nil, repository.ErrNotFound)

	require.NoError(t, f.svc.ForgotPassword(context.Background(), "nobody@example.edu"))
	f.mailer.AssertNotCalled(t, "SendPasswordReset", mock.Anything, mock.Anything, mock.Anything)
}

func TestForgotPassword_SendsResetMail(t *testing.T) {
	f := newFixture(t)
	user := f.user(t)

	f.users.On("GetByEmail", mock.Anything, user.Email).Return(user, nil)
	f.tokens.On("StoreResetToken", mock.Anything, user.ID, mock.AnythingOfType("string"), f.now.Add(time.Hour)).Return(nil)
	f.mailer.On("SendPasswordReset", mock.Anything, user.Email, mock.AnythingOfType("string")).Return(nil)

	require.NoError(t, f.svc.ForgotPassword(context.Background(), user.Email))
	f.tokens.AssertExpectations(t)
	f.mailer.AssertExpectations(t)
}

func TestResetPassword_PolicyViolationPersistsNothing(t *testing.T) {
	f := newFixture(t)

	err := f.svc.ResetPassword(context.Background(), "token", "short")
	assert.Equal(t, errors.ErrValidation, appCode(t, err))

	f.tokens.AssertNotCalled(t, "ValidateResetToken", mock.Anything, mock.Anything)
	f.users.AssertNotCalled(t, "UpdatePassword", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestResetPassword_InvalidToken(t *testing.T) {
	f := newFixture(t)
	f.tokens.On("ValidateResetToken", mock.Anything, "stale").Return(uuid.Nil, repository.ErrNotFound)

	err := f.svc.ResetPassword(context.Background(), "stale", validPassword)
	assert.Equal(t, errors.ErrBadRequest, appCode(t, err))
}

func TestResetPassword_Success(t *testing.T) {
	f := newFixture(t)
	userID := uuid.New()

	f.tokens.On("ValidateResetToken", mock.Anything, "tok").Return(userID, nil)
	f.users.On("UpdatePassword", mock.Anything, userID, mock.AnythingOfType("string"), false).Return(nil)
	f.tokens.On("InvalidateResetToken", mock.Anything, "tok").Return(nil)

	require.NoError(t, f.svc.ResetPassword(context.Background(), "tok", "N3w&Better"))
	f.users.AssertExpectations(t)
	f.tokens.AssertExpectations(t)
	assert.Equal(t, []string{audit.ActionPasswordReset}, f.audit.actions())
}

func TestChangePassword(t *testing.T) {
	tests := []struct {
		name     string
		current  string
		next     string
		wantCode errors.ErrorCode
	}{
		{name: "wrong current password", current: "Wr0ng!pass", next: "N3w&Better", wantCode: errors.ErrBadRequest},
		{name: "policy violation", current: validPassword, next: "password", wantCode: errors.ErrValidation},
		{name: "reuse of current password", current: validPassword, next: validPassword, wantCode: errors.ErrBadRequest},
		{name: "success", current: validPassword, next: "N3w&Better"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			user := f.user(t)
			f.users.On("Get", mock.Anything, user.ID).Return(user, nil)
			f.users.On("UpdatePassword", mock.Anything, user.ID, mock.AnythingOfType("string"), false).Return(nil)

			err := f.svc.ChangePassword(context.Background(), user.ID, tt.current, tt.next)
			if tt.wantCode == 0 {
				require.NoError(t, err)
				f.users.AssertCalled(t, "UpdatePassword", mock.Anything, user.ID, mock.AnythingOfType("string"), false)
				return
			}
			assert.Equal(t, tt.wantCode, appCode(t, err))
			f.users.AssertNotCalled(t, "UpdatePassword", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		})
	}
}
