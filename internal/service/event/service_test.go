package event

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/campus-forum/internal/model"
	"github.com/jwalitptl/campus-forum/internal/repository/mocks"
)

func TestService_Emit(t *testing.T) {
	pub := new(mocks.Publisher)
	svc := NewService(pub, nil)
	fixed := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	payload := model.UserRegisteredPayload{Username: "alice"}
	pub.On("Publish", mock.Anything, model.EventUserRegistered, mock.MatchedBy(func(e model.Event) bool {
		return e.Type == model.EventUserRegistered && e.OccurredAt.Equal(fixed) && e.Payload == payload
	})).Return(nil).Once()

	require.NoError(t, svc.Emit(context.Background(), model.EventUserRegistered, payload))
	pub.AssertExpectations(t)
}

func TestService_EmitRetriesThenFails(t *testing.T) {
	pub := new(mocks.Publisher)
	svc := NewService(pub, nil)

	pub.On("Publish", mock.Anything, model.EventMessageSent, mock.Anything).
		Return(errors.New("broker down")).Times(maxRetries)

	err := svc.Emit(context.Background(), model.EventMessageSent, model.MessageSentPayload{})
	assert.Error(t, err)
	pub.AssertExpectations(t)
}

func TestService_EmitRecoversOnRetry(t *testing.T) {
	pub := new(mocks.Publisher)
	svc := NewService(pub, nil)

	pub.On("Publish", mock.Anything, model.EventMessageSent, mock.Anything).
		Return(errors.New("transient")).Once()
	pub.On("Publish", mock.Anything, model.EventMessageSent, mock.Anything).
		Return(nil).Once()

	assert.NoError(t, svc.Emit(context.Background(), model.EventMessageSent, model.MessageSentPayload{}))
	pub.AssertExpectations(t)
}
