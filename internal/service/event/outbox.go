package event

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jwalitptl/campus-forum/internal/model"
	"github.com/jwalitptl/campus-forum/internal/repository"
)

// OutboxPublisher stores messages in the outbox table; the worker relays
// them to the broker.
type OutboxPublisher struct {
	repo repository.OutboxRepository
}

func NewOutboxPublisher(repo repository.OutboxRepository) *OutboxPublisher {
	return &OutboxPublisher{repo: repo}
}

func (p *OutboxPublisher) Publish(ctx context.Context, channel string, message interface{}) error {
	payload, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to encode %s event: %w", channel, err)
	}
	return p.repo.Create(ctx, &model.OutboxEvent{
		EventType: channel,
		Payload:   payload,
	})
}
