package event

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/campus-forum/internal/model"
	"github.com/jwalitptl/campus-forum/internal/repository/mocks"
)

func TestOutboxPublisher_StoresEnvelope(t *testing.T) {
	repo := new(mocks.OutboxRepository)
	var stored *model.OutboxEvent
	repo.On("Create", mock.Anything, mock.AnythingOfType("*model.OutboxEvent")).
		Run(func(args mock.Arguments) { stored = args.Get(1).(*model.OutboxEvent) }).
		Return(nil).Once()

	svc := NewService(NewOutboxPublisher(repo), nil)
	payload := model.UserRegisteredPayload{Username: "alice", Email: "alice@campus.edu"}
	require.NoError(t, svc.Emit(context.Background(), model.EventUserRegistered, payload))

	require.NotNil(t, stored)
	assert.Equal(t, model.EventUserRegistered, stored.EventType)

	var envelope struct {
		Type    string                      `json:"type"`
		Payload model.UserRegisteredPayload `json:"payload"`
	}
	require.NoError(t, json.Unmarshal(stored.Payload, &envelope))
	assert.Equal(t, model.EventUserRegistered, envelope.Type)
	assert.Equal(t, payload, envelope.Payload)
	repo.AssertExpectations(t)
}

func TestOutboxPublisher_RepositoryError(t *testing.T) {
	repo := new(mocks.OutboxRepository)
	repo.On("Create", mock.Anything, mock.Anything).Return(errors.New("db down")).Once()

	err := NewOutboxPublisher(repo).Publish(context.Background(), model.EventMessageSent, model.Event{})
	assert.EqualError(t, err, "db down")
}

func TestOutboxPublisher_UnencodablePayload(t *testing.T) {
	repo := new(mocks.OutboxRepository)

	err := NewOutboxPublisher(repo).Publish(context.Background(), model.EventMessageSent, make(chan int))
	assert.Error(t, err)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}
