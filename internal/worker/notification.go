package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jwalitptl/campus-forum/internal/email"
	"github.com/jwalitptl/campus-forum/internal/model"
	"github.com/jwalitptl/campus-forum/pkg/logger"
	"github.com/jwalitptl/campus-forum/pkg/messaging"
	"github.com/jwalitptl/campus-forum/pkg/metrics"
)

// incomingEvent mirrors model.Event with the payload left undecoded
type incomingEvent struct {
	ID      string          `json:"id"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// NotificationWorker turns domain events into emails
type NotificationWorker struct {
	broker  messaging.MessageBroker
	email   email.Service
	metrics *metrics.Metrics
	logger  *logger.Logger
}

func NewNotificationWorker(broker messaging.MessageBroker, emailSvc email.Service, m *metrics.Metrics, log *logger.Logger) *NotificationWorker {
	return &NotificationWorker{
		broker:  broker,
		email:   emailSvc,
		metrics: m,
		logger:  log.WithFields(map[string]interface{}{"worker": "notification"}),
	}
}

// Start subscribes to the event channels. Deliveries continue in the
// background until ctx is done.
func (w *NotificationWorker) Start(ctx context.Context) error {
	subscriptions := map[string]func(context.Context, json.RawMessage) error{
		model.EventUserRegistered: w.handleUserRegistered,
		model.EventMessageSent:    w.handleMessageSent,
	}

	for channel, handle := range subscriptions {
		channel, handle := channel, handle
		err := w.broker.Subscribe(ctx, channel, func(data []byte) error {
			return w.dispatch(ctx, channel, data, handle)
		})
		if err != nil {
			return fmt.Errorf("failed to subscribe to %s: %w", channel, err)
		}
		w.logger.Info("subscribed", "channel", channel)
	}
	return nil
}

func (w *NotificationWorker) dispatch(ctx context.Context, channel string, data []byte, handle func(context.Context, json.RawMessage) error) error {
	var evt incomingEvent
	if err := json.Unmarshal(data, &evt); err != nil {
		w.observe(channel, "malformed")
		return fmt.Errorf("failed to decode event: %w", err)
	}

	if err := handle(ctx, evt.Payload); err != nil {
		w.observe(channel, "failure")
		return fmt.Errorf("event %s: %w", evt.ID, err)
	}
	w.observe(channel, "success")
	return nil
}

func (w *NotificationWorker) handleUserRegistered(ctx context.Context, raw json.RawMessage) error {
	var p model.UserRegisteredPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return fmt.Errorf("failed to decode payload: %w", err)
	}
	if p.Email == "" {
		return nil
	}
	return w.email.SendWelcome(ctx, p.Email, p.Name)
}

func (w *NotificationWorker) handleMessageSent(ctx context.Context, raw json.RawMessage) error {
	var p model.MessageSentPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return fmt.Errorf("failed to decode payload: %w", err)
	}
	if p.RecipientEmail == "" {
		return nil
	}
	return w.email.SendMessageNotification(ctx, p.RecipientEmail, p.RecipientName, p.SenderUsername, p.Subject)
}

func (w *NotificationWorker) observe(eventType, outcome string) {
	if w.metrics != nil {
		w.metrics.NotificationsDelivered.WithLabelValues(eventType, outcome).Inc()
	}
}
