package message

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/campus-forum/internal/model"
	"github.com/jwalitptl/campus-forum/internal/repository"
	"github.com/jwalitptl/campus-forum/internal/repository/mocks"
	"github.com/jwalitptl/campus-forum/pkg/errors"
	"github.com/jwalitptl/campus-forum/pkg/metrics"
)

type fakeEmitter struct {
	mock.Mock
}

func (f *fakeEmitter) Emit(ctx context.Context, eventType string, payload interface{}) error {
	args := f.Called(ctx, eventType, payload)
	return args.Error(0)
}

// fakeChecker rejects any text containing "blocked"
type fakeChecker struct{}

func (fakeChecker) CheckContent(_ context.Context, _, _, text string) error {
	if text == "blocked" {
		return errors.BadRequest("content rejected", nil)
	}
	return nil
}

type fixture struct {
	svc      *Service
	messages *mocks.MessageRepository
	users    *mocks.UserRepository
	tx       *mocks.Transactor
	events   *fakeEmitter
	metrics  *metrics.Metrics
}

var (
	alice = model.Actor{UserID: uuid.New(), Username: "alice", Role: model.RoleStudent}
	bob   = model.Actor{UserID: uuid.New(), Username: "bob", Role: model.RoleStaff}
	carol = model.Actor{UserID: uuid.New(), Username: "carol", Role: model.RoleStudent}
	now   = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
)

func newFixture() *fixture {
	f := &fixture{
		messages: new(mocks.MessageRepository),
		users:    new(mocks.UserRepository),
		tx:       new(mocks.Transactor),
		events:   new(fakeEmitter),
		metrics:  metrics.New("test"),
	}
	f.svc = NewService(f.messages, f.users, f.tx, fakeChecker{}, f.events, f.metrics)
	f.svc.now = func() time.Time { return now }
	return f
}

func bobUser() *model.User {
	return &model.User{
		Base:     model.Base{ID: bob.UserID},
		Username: "bob",
		Email:    "bob@campus.edu",
		Name:     "Bob",
		Status:   model.UserStatusActive,
	}
}

func code(t *testing.T, err error) errors.ErrorCode {
	t.Helper()
	var appErr *errors.AppError
	require.True(t, stderrors.As(err, &appErr), "expected AppError, got %v", err)
	return appErr.Code
}

func TestSend(t *testing.T) {
	f := newFixture()
	f.users.On("GetByUsername", mock.Anything, "bob").Return(bobUser(), nil)
	f.messages.On("Create", mock.Anything, mock.MatchedBy(func(m *model.Message) bool {
		return m.SenderID == alice.UserID && m.RecipientID == bob.UserID
	})).Return(nil).Once()
	f.events.On("Emit", mock.Anything, model.EventMessageSent, mock.MatchedBy(func(p model.MessageSentPayload) bool {
		return p.RecipientEmail == "bob@campus.edu" && p.SenderUsername == "alice" && p.Subject == "Lab"
	})).Return(nil).Once()

	msg, err := f.svc.Send(context.Background(), alice, &model.SendMessageRequest{
		Recipient: " bob ",
		Subject:   "Lab",
		Body:      "Can we meet?",
	})
	require.NoError(t, err)
	assert.Equal(t, "bob", msg.RecipientUsername)
	assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.MessagesSent))
	assert.Equal(t, 1, f.tx.Committed)
	f.messages.AssertExpectations(t)
	f.events.AssertExpectations(t)
}

func TestSend_EventFailureRollsBackMessage(t *testing.T) {
	f := newFixture()
	f.users.On("GetByUsername", mock.Anything, "bob").Return(bobUser(), nil)
	f.messages.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.events.On("Emit", mock.Anything, mock.Anything, mock.Anything).Return(stderrors.New("outbox insert failed"))

	_, err := f.svc.Send(context.Background(), alice, &model.SendMessageRequest{Recipient: "bob", Subject: "s", Body: "b"})
	require.Error(t, err)
	assert.Equal(t, 1, f.tx.RolledBack)
	assert.Equal(t, 0, f.tx.Committed)
	assert.Equal(t, float64(0), testutil.ToFloat64(f.metrics.MessagesSent))
}

func TestSend_Rejections(t *testing.T) {
	f := newFixture()
	f.users.On("GetByUsername", mock.Anything, "bob").Return(bobUser(), nil)
	f.users.On("GetByUsername", mock.Anything, "ghost").Return(nil, repository.ErrNotFound)

	_, err := f.svc.Send(context.Background(), alice, &model.SendMessageRequest{Recipient: "ghost", Subject: "s", Body: "b"})
	assert.Equal(t, errors.ErrNotFound, code(t, err))

	_, err = f.svc.Send(context.Background(), bob, &model.SendMessageRequest{Recipient: "bob", Subject: "s", Body: "b"})
	assert.Equal(t, errors.ErrBadRequest, code(t, err))

	_, err = f.svc.Send(context.Background(), alice, &model.SendMessageRequest{Recipient: "bob", Subject: "s", Body: "blocked"})
	assert.Equal(t, errors.ErrBadRequest, code(t, err))

	f.messages.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestGet_MarksReadForRecipient(t *testing.T) {
	f := newFixture()
	id := uuid.New()
	f.messages.On("Get", mock.Anything, id).Return(&model.Message{
		Base:        model.Base{ID: id},
		SenderID:    alice.UserID,
		RecipientID: bob.UserID,
	}, nil)
	f.messages.On("MarkRead", mock.Anything, id, now).Return(nil).Once()

	msg, err := f.svc.Get(context.Background(), alice, id)
	require.NoError(t, err)
	assert.Nil(t, msg.ReadAt)

	msg, err = f.svc.Get(context.Background(), bob, id)
	require.NoError(t, err)
	require.NotNil(t, msg.ReadAt)
	assert.Equal(t, now, *msg.ReadAt)

	_, err = f.svc.Get(context.Background(), carol, id)
	assert.Equal(t, errors.ErrNotFound, code(t, err))

	f.messages.AssertExpectations(t)
}

func TestGet_DeletedByCaller(t *testing.T) {
	f := newFixture()
	id := uuid.New()
	f.messages.On("Get", mock.Anything, id).Return(&model.Message{
		Base:          model.Base{ID: id},
		SenderID:      alice.UserID,
		RecipientID:   bob.UserID,
		SenderDeleted: true,
	}, nil)

	_, err := f.svc.Get(context.Background(), alice, id)
	assert.Equal(t, errors.ErrNotFound, code(t, err))
}

func TestMarkRead_OnlyRecipient(t *testing.T) {
	f := newFixture()
	id := uuid.New()
	f.messages.On("Get", mock.Anything, id).Return(&model.Message{
		Base:        model.Base{ID: id},
		SenderID:    alice.UserID,
		RecipientID: bob.UserID,
	}, nil)
	f.messages.On("MarkRead", mock.Anything, id, now).Return(nil).Once()

	err := f.svc.MarkRead(context.Background(), alice, id)
	assert.Equal(t, errors.ErrForbidden, code(t, err))

	assert.NoError(t, f.svc.MarkRead(context.Background(), bob, id))
	f.messages.AssertExpectations(t)
}

func TestDelete(t *testing.T) {
	f := newFixture()
	id := uuid.New()
	f.messages.On("Get", mock.Anything, id).Return(&model.Message{
		Base:        model.Base{ID: id},
		SenderID:    alice.UserID,
		RecipientID: bob.UserID,
	}, nil)
	f.messages.On("DeleteFor", mock.Anything, id, bob.UserID).Return(nil).Once()

	require.NoError(t, f.svc.Delete(context.Background(), bob, id))

	err := f.svc.Delete(context.Background(), carol, id)
	assert.Equal(t, errors.ErrNotFound, code(t, err))
	f.messages.AssertExpectations(t)
}

func TestUnreadCount(t *testing.T) {
	f := newFixture()
	f.messages.On("CountUnread", mock.Anything, bob.UserID).Return(3, nil)

	count, err := f.svc.UnreadCount(context.Background(), bob)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}
