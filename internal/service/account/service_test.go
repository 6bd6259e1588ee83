package account

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
	"github.com/jwalitptl/campus-forum/pkg/errors"
	"github.com/jwalitptl/campus-forum/pkg/security"
)

type fakeInvitations struct {
	mock.Mock
}

func (f *fakeInvitations) Get(ctx context.Context, code string) (*model.Invitation, error) {
	args := f.Called(ctx, code)
	inv, _ := args.Get(0).(*model.Invitation)
	return inv, args.Error(1)
}

func (f *fakeInvitations) Redeem(ctx context.Context, code string, userID uuid.UUID) error {
	return f.Called(ctx, code, userID).Error(0)
}

type fakeEmitter struct {
	mock.Mock
}

func (f *fakeEmitter) Emit(ctx context.Context, eventType string, payload interface{}) error {
	return f.Called(ctx, eventType, payload).Error(0)
}

type nopRecorder struct{}

func (nopRecorder) Log(context.Context, audit.Entry) {}

type fixture struct {
	svc         *Service
	users       *mocks.UserRepository
	tx          *mocks.Transactor
	invitations *fakeInvitations
	events      *fakeEmitter
}

func newFixture() *fixture {
	f := &fixture{
		users:       new(mocks.UserRepository),
		tx:          new(mocks.Transactor),
		invitations: new(fakeInvitations),
		events:      new(fakeEmitter),
	}
	f.svc = NewService(f.users, f.tx, f.invitations, security.NewBcryptHasher(4),
		password.NewService(nil), f.events, nopRecorder{})
	return f
}

func studentInvitation() *model.Invitation {
	return &model.Invitation{
		Code:      "STUDENT234",
		Role:      model.RoleStudent,
		ExpiresAt: time.Now().Add(time.Hour),
	}
}

func registerRequest(pw string) *model.RegisterRequest {
	return &model.RegisterRequest{
		InvitationCode: "STUDENT234",
		Username:       "newbie",
		Email:          "newbie@example.edu",
		Name:           "New Bie",
		Password:       pw,
	}
}

func appErrorOf(t *testing.T, err error) *errors.AppError {
	t.Helper()
	var appErr *errors.AppError
	require.True(t, stderrors.As(err, &appErr), "expected AppError, got %v", err)
	return appErr
}

func TestGetRoleForInvitationCode(t *testing.T) {
	f := newFixture()
	f.invitations.On("Get", mock.Anything, "STUDENT234").Return(studentInvitation(), nil)

	role, err := f.svc.GetRoleForInvitationCode(context.Background(), "STUDENT234")
	require.NoError(t, err)
	assert.Equal(t, model.RoleStudent, role)
}

func TestRegister_Success(t *testing.T) {
	f := newFixture()
	f.invitations.On("Get", mock.Anything, "STUDENT234").Return(studentInvitation(), nil)
	f.users.On("GetByUsername", mock.Anything, "newbie").Return(nil, repository.ErrNotFound)
	f.users.On("GetByEmail", mock.Anything, "newbie@example.edu").Return(nil, repository.ErrNotFound)
	f.users.On("Create", mock.Anything, mock.MatchedBy(func(u *model.User) bool {
		return u.Role == model.RoleStudent && u.PasswordHash != "" && u.PasswordHash != "Val1d!pass"
	})).Return(nil).Once()
	f.invitations.On("Redeem", mock.Anything, "STUDENT234", mock.AnythingOfType("uuid.UUID")).Return(nil).Once()
	f.events.On("Emit", mock.Anything, model.EventUserRegistered, mock.AnythingOfType("model.UserRegisteredPayload")).Return(nil).Once()

	user, err := f.svc.Register(context.Background(), registerRequest("Val1d!pass"))
	require.NoError(t, err)
	assert.Equal(t, model.RoleStudent, user.Role)
	assert.Equal(t, model.UserStatusActive, user.Status)
	assert.Equal(t, 1, f.tx.Committed)

	f.users.AssertExpectations(t)
	f.invitations.AssertExpectations(t)
	f.events.AssertExpectations(t)
}

func TestRegister_PolicyViolationPersistsNothing(t *testing.T) {
	f := newFixture()
	f.invitations.On("Get", mock.Anything, "STUDENT234").Return(studentInvitation(), nil)

	_, err := f.svc.Register(context.Background(), registerRequest("password"))
	appErr := appErrorOf(t, err)
	assert.Equal(t, errors.ErrValidation, appErr.Code)

	violations := appErr.Details.([]security.Violation)
	require.Len(t, violations, 3)
	assert.Equal(t, "At least one uppercase letter required.", violations[0].Message)

	f.users.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	f.invitations.AssertNotCalled(t, "Redeem", mock.Anything, mock.Anything, mock.Anything)
}

func TestRegister_EmptyPassword(t *testing.T) {
	f := newFixture()
	f.invitations.On("Get", mock.Anything, "STUDENT234").Return(studentInvitation(), nil)

	_, err := f.svc.Register(context.Background(), registerRequest(""))
	appErr := appErrorOf(t, err)
	violations := appErr.Details.([]security.Violation)
	require.Len(t, violations, 1)
	assert.Equal(t, security.ViolationEmpty, violations[0].Kind)
}

func TestRegister_DuplicateUsername(t *testing.T) {
	f := newFixture()
	f.invitations.On("Get", mock.Anything, "STUDENT234").Return(studentInvitation(), nil)
	f.users.On("GetByUsername", mock.Anything, "newbie").Return(&model.User{}, nil)

	_, err := f.svc.Register(context.Background(), registerRequest("Val1d!pass"))
	assert.Equal(t, errors.ErrConflict, appErrorOf(t, err).Code)
	f.users.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestRegister_EmailMustMatchInvitation(t *testing.T) {
	f := newFixture()
	inv := studentInvitation()
	addr := "someone.else@example.edu"
	inv.Email = &addr
	f.invitations.On("Get", mock.Anything, "STUDENT234").Return(inv, nil)

	_, err := f.svc.Register(context.Background(), registerRequest("Val1d!pass"))
	assert.Equal(t, errors.ErrBadRequest, appErrorOf(t, err).Code)
}

func TestRegister_InvitationClaimedConcurrently(t *testing.T) {
	f := newFixture()
	f.invitations.On("Get", mock.Anything, "STUDENT234").Return(studentInvitation(), nil)
	f.users.On("GetByUsername", mock.Anything, mock.Anything).Return(nil, repository.ErrNotFound)
	f.users.On("GetByEmail", mock.Anything, mock.Anything).Return(nil, repository.ErrNotFound)
	f.users.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.invitations.On("Redeem", mock.Anything, "STUDENT234", mock.Anything).
		Return(errors.Conflict("invitation is no longer valid", nil))

	_, err := f.svc.Register(context.Background(), registerRequest("Val1d!pass"))
	assert.Equal(t, errors.ErrConflict, appErrorOf(t, err).Code)

	// the insert is undone by the rollback, so the username stays free
	assert.Equal(t, 1, f.tx.RolledBack)
	assert.Equal(t, 0, f.tx.Committed)
	f.users.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	f.events.AssertNotCalled(t, "Emit", mock.Anything, mock.Anything, mock.Anything)
}

func TestRegister_RetryAfterClaimedCodeSucceeds(t *testing.T) {
	f := newFixture()
	f.invitations.On("Get", mock.Anything, "STUDENT234").Return(studentInvitation(), nil)
	f.users.On("GetByUsername", mock.Anything, "newbie").Return(nil, repository.ErrNotFound)
	f.users.On("GetByEmail", mock.Anything, "newbie@example.edu").Return(nil, repository.ErrNotFound)
	f.users.On("Create", mock.Anything, mock.Anything).Return(nil).Twice()
	f.invitations.On("Redeem", mock.Anything, "STUDENT234", mock.Anything).
		Return(errors.Conflict("invitation is no longer valid", nil)).Once()
	f.invitations.On("Redeem", mock.Anything, "STUDENT234", mock.Anything).Return(nil).Once()
	f.events.On("Emit", mock.Anything, model.EventUserRegistered, mock.Anything).Return(nil).Once()

	_, err := f.svc.Register(context.Background(), registerRequest("Val1d!pass"))
	require.Error(t, err)

	user, err := f.svc.Register(context.Background(), registerRequest("Val1d!pass"))
	require.NoError(t, err)
	assert.Equal(t, "newbie", user.Username)
	assert.Equal(t, 1, f.tx.RolledBack)
	assert.Equal(t, 1, f.tx.Committed)
	f.invitations.AssertExpectations(t)
}

func TestRegister_EventFailureRollsBackAccount(t *testing.T) {
	f := newFixture()
	f.invitations.On("Get", mock.Anything, "STUDENT234").Return(studentInvitation(), nil)
	f.users.On("GetByUsername", mock.Anything, mock.Anything).Return(nil, repository.ErrNotFound)
	f.users.On("GetByEmail", mock.Anything, mock.Anything).Return(nil, repository.ErrNotFound)
	f.users.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.invitations.On("Redeem", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	f.events.On("Emit", mock.Anything, mock.Anything, mock.Anything).Return(stderrors.New("outbox insert failed"))

	_, err := f.svc.Register(context.Background(), registerRequest("Val1d!pass"))
	require.Error(t, err)
	assert.Equal(t, 1, f.tx.RolledBack)
	assert.Equal(t, 0, f.tx.Committed)
}
