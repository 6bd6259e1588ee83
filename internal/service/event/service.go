package event

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/campus-forum/internal/model"
	"github.com/jwalitptl/campus-forum/pkg/messaging"
	"github.com/jwalitptl/campus-forum/pkg/metrics"
)

const (
	maxRetries = 3
	retryDelay = 100 * time.Millisecond
)

// Emitter is what services use to announce domain events
type Emitter interface {
	Emit(ctx context.Context, eventType string, payload interface{}) error
}

type Service struct {
	publisher messaging.Publisher
	metrics   *metrics.Metrics
	now       func() time.Time
}

func NewService(publisher messaging.Publisher, m *metrics.Metrics) *Service {
	return &Service{
		publisher: publisher,
		metrics:   m,
		now:       time.Now,
	}
}

// Emit wraps payload in an Event envelope and publishes it on the channel
// named by eventType, retrying a few times before giving up.
func (s *Service) Emit(ctx context.Context, eventType string, payload interface{}) error {
	evt := model.Event{
		ID:         uuid.New(),
		Type:       eventType,
		OccurredAt: s.now().UTC(),
		Payload:    payload,
	}

	var err error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		if err = s.publisher.Publish(ctx, eventType, evt); err == nil {
			s.observe(eventType, "success")
			return nil
		}

		log.Warn().Err(err).
			Str("event_type", eventType).
			Str("event_id", evt.ID.String()).
			Int("attempt", attempt).
			Msg("failed to publish event")

		if attempt == maxRetries {
			break
		}
		select {
		case <-ctx.Done():
			s.observe(eventType, "failure")
			return ctx.Err()
		case <-time.After(retryDelay * time.Duration(attempt)):
		}
	}

	s.observe(eventType, "failure")
	return fmt.Errorf("failed to publish %s event: %w", eventType, err)
}

func (s *Service) observe(eventType, outcome string) {
	if s.metrics != nil {
		s.metrics.EventsPublished.WithLabelValues(eventType, outcome).Inc()
	}
}
