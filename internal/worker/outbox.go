package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/jwalitptl/campus-forum/internal/model"
	"github.com/jwalitptl/campus-forum/internal/repository"
	"github.com/jwalitptl/campus-forum/pkg/logger"
	"github.com/jwalitptl/campus-forum/pkg/messaging"
	"github.com/jwalitptl/campus-forum/pkg/metrics"
)

type OutboxProcessorConfig struct {
	BatchSize    int
	PollInterval time.Duration
	// MaxAttempts is how many relays an event gets before it is parked
	MaxAttempts int
	// Lease bounds how long a claimed batch stays hidden from other workers
	Lease time.Duration
}

// Validate rejects configurations the processor cannot run with
func (c OutboxProcessorConfig) Validate() error {
	switch {
	case c.BatchSize <= 0:
		return errors.New("outbox batch size must be greater than 0")
	case c.PollInterval <= 0:
		return errors.New("outbox poll interval must be greater than 0")
	case c.MaxAttempts <= 0:
		return errors.New("outbox max attempts must be greater than 0")
	case c.Lease <= 0:
		return errors.New("outbox lease must be greater than 0")
	}
	return nil
}

// OutboxProcessor relays stored events to the broker
type OutboxProcessor struct {
	repo      repository.OutboxRepository
	publisher messaging.Publisher
	config    OutboxProcessorConfig
	logger    *logger.Logger
	metrics   *metrics.Metrics
	now       func() time.Time
}

func NewOutboxProcessor(
	repo repository.OutboxRepository,
	publisher messaging.Publisher,
	config OutboxProcessorConfig,
	log *logger.Logger,
	m *metrics.Metrics,
) (*OutboxProcessor, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &OutboxProcessor{
		repo:      repo,
		publisher: publisher,
		config:    config,
		logger:    log.WithFields(map[string]interface{}{"worker": "outbox"}),
		metrics:   m,
		now:       time.Now,
	}, nil
}

func (p *OutboxProcessor) Start(ctx context.Context) {
	ticker := time.NewTicker(p.config.PollInterval)
	defer ticker.Stop()

	p.logger.Info("outbox processor started", "poll_interval", p.config.PollInterval.String())

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("outbox processor stopped")
			return
		case <-ticker.C:
			if _, err := p.ProcessBatch(ctx); err != nil {
				p.logger.Error(err, "failed to process outbox batch")
			}
		}
	}
}

// ProcessBatch relays one claimed batch and returns how many events reached
// the broker. Individual failures are recorded on the event, not returned.
func (p *OutboxProcessor) ProcessBatch(ctx context.Context) (int, error) {
	if p.metrics != nil {
		timer := prometheus.NewTimer(p.metrics.OutboxLatency)
		defer timer.ObserveDuration()
	}

	events, err := p.repo.ClaimPending(ctx, p.config.BatchSize, p.now().Add(p.config.Lease))
	if err != nil {
		return 0, fmt.Errorf("failed to claim outbox events: %w", err)
	}

	relayed := 0
	for _, event := range events {
		if err := p.relay(ctx, event); err != nil {
			p.logger.Error(err, "failed to relay outbox event",
				"event_id", event.ID.String(),
				"event_type", event.EventType,
				"attempt", event.RetryCount+1)
			continue
		}
		relayed++
	}
	return relayed, nil
}

func (p *OutboxProcessor) relay(ctx context.Context, event *model.OutboxEvent) error {
	if err := p.publisher.Publish(ctx, event.EventType, event.Payload); err != nil {
		p.observe("failure")
		if markErr := p.repo.MarkFailed(ctx, event.ID, err.Error(), p.config.MaxAttempts); markErr != nil {
			p.logger.Error(markErr, "failed to record outbox failure", "event_id", event.ID.String())
		}
		return err
	}

	p.observe("success")
	if err := p.repo.MarkProcessed(ctx, event.ID); err != nil {
		return fmt.Errorf("published but not marked processed: %w", err)
	}
	return nil
}

func (p *OutboxProcessor) observe(outcome string) {
	if p.metrics != nil {
		p.metrics.OutboxRelayed.WithLabelValues(outcome).Inc()
	}
}
