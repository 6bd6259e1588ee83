package worker

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/campus-forum/internal/model"
	"github.com/jwalitptl/campus-forum/internal/repository/mocks"
	"github.com/jwalitptl/campus-forum/pkg/logger"
	"github.com/jwalitptl/campus-forum/pkg/metrics"
)

// fakeBroker records subscription handlers so tests can deliver messages
type fakeBroker struct {
	handlers map[string]func([]byte) error
}

func (b *fakeBroker) Publish(context.Context, string, interface{}) error { return nil }

func (b *fakeBroker) Subscribe(_ context.Context, topic string, handler func([]byte) error) error {
	if b.handlers == nil {
		b.handlers = map[string]func([]byte) error{}
	}
	b.handlers[topic] = handler
	return nil
}

func (b *fakeBroker) Close() error { return nil }

func quietLogger() *logger.Logger {
	return logger.NewLogger(&logger.Config{Level: logger.ErrorLevel, Output: io.Discard, JSON: true})
}

func encode(t *testing.T, eventType string, payload interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(model.Event{ID: uuid.New(), Type: eventType, OccurredAt: time.Now(), Payload: payload})
	require.NoError(t, err)
	return data
}

func startWorker(t *testing.T) (*fakeBroker, *mocks.EmailService, *metrics.Metrics) {
	t.Helper()
	broker := &fakeBroker{}
	emailSvc := new(mocks.EmailService)
	m := metrics.New("test")

	w := NewNotificationWorker(broker, emailSvc, m, quietLogger())
	require.NoError(t, w.Start(context.Background()))
	require.Len(t, broker.handlers, 2)
	return broker, emailSvc, m
}

func TestNotificationWorker_MessageSent(t *testing.T) {
	broker, emailSvc, m := startWorker(t)
	emailSvc.On("SendMessageNotification", mock.Anything, "bob@campus.edu", "Bob", "alice", "Lab").Return(nil).Once()

	err := broker.handlers[model.EventMessageSent](encode(t, model.EventMessageSent, model.MessageSentPayload{
		MessageID:      uuid.New(),
		SenderUsername: "alice",
		RecipientEmail: "bob@campus.edu",
		RecipientName:  "Bob",
		Subject:        "Lab",
	}))
	require.NoError(t, err)
	emailSvc.AssertExpectations(t)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.NotificationsDelivered.WithLabelValues(model.EventMessageSent, "success")))
}

func TestNotificationWorker_UserRegistered(t *testing.T) {
	broker, emailSvc, m := startWorker(t)
	emailSvc.On("SendWelcome", mock.Anything, "new@campus.edu", "New Student").Return(stderrors.New("smtp down")).Once()

	err := broker.handlers[model.EventUserRegistered](encode(t, model.EventUserRegistered, model.UserRegisteredPayload{
		Username: "new.student",
		Email:    "new@campus.edu",
		Name:     "New Student",
	}))
	assert.Error(t, err)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.NotificationsDelivered.WithLabelValues(model.EventUserRegistered, "failure")))
}

func TestNotificationWorker_Malformed(t *testing.T) {
	broker, emailSvc, m := startWorker(t)

	err := broker.handlers[model.EventMessageSent]([]byte("not json"))
	assert.Error(t, err)
	emailSvc.AssertNotCalled(t, "SendMessageNotification", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.NotificationsDelivered.WithLabelValues(model.EventMessageSent, "malformed")))
}
