package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all application metrics
type Metrics struct {
	// Credential policy
	PasswordValidations *prometheus.CounterVec
	PasswordViolations  *prometheus.CounterVec

	// Account lifecycle
	LoginAttempts       *prometheus.CounterVec
	InvitationsCreated  *prometheus.CounterVec
	InvitationsRedeemed prometheus.Counter
	MessagesSent        prometheus.Counter

	// Worker
	NotificationsDelivered *prometheus.CounterVec
	InvitationsPurged      prometheus.Counter

	// Broker
	EventsPublished *prometheus.CounterVec
	OutboxRelayed   *prometheus.CounterVec
	OutboxLatency   prometheus.Histogram
}

// New creates unregistered collectors; call Register to expose them.
func New(namespace string) *Metrics {
	return &Metrics{
		PasswordValidations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "password_validations_total",
			Help:      "Total number of password policy checks by outcome",
		}, []string{"outcome"}),
		PasswordViolations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "password_violations_total",
			Help:      "Total number of password policy violations by kind",
		}, []string{"kind"}),
		LoginAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "login_attempts_total",
			Help:      "Total number of login attempts by outcome",
		}, []string{"outcome"}),
		InvitationsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "invitations_created_total",
			Help:      "Total number of invitation codes issued by role",
		}, []string{"role"}),
		InvitationsRedeemed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "invitations_redeemed_total",
			Help:      "Total number of invitation codes used to register",
		}),
		MessagesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_sent_total",
			Help:      "Total number of private messages sent",
		}),
		NotificationsDelivered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_delivered_total",
			Help:      "Total number of email notifications by event type and outcome",
		}, []string{"event_type", "outcome"}),
		InvitationsPurged: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "invitations_purged_total",
			Help:      "Total number of expired invitations removed",
		}),
		EventsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_published_total",
			Help:      "Total number of broker events published by type and outcome",
		}, []string{"event_type", "outcome"}),
		OutboxRelayed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "outbox_events_relayed_total",
			Help:      "Total number of outbox events relayed to the broker by outcome",
		}, []string{"outcome"}),
		OutboxLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "outbox_batch_duration_seconds",
			Help:      "Time spent relaying one outbox batch",
			Buckets:   prometheus.DefBuckets,
		}),
	}
}

// Register registers every collector with reg
func (m *Metrics) Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		m.PasswordValidations,
		m.PasswordViolations,
		m.LoginAttempts,
		m.InvitationsCreated,
		m.InvitationsRedeemed,
		m.MessagesSent,
		m.NotificationsDelivered,
		m.InvitationsPurged,
		m.EventsPublished,
		m.OutboxRelayed,
		m.OutboxLatency,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// ObservePasswordCheck records the outcome of a policy check
func (m *Metrics) ObservePasswordCheck(valid bool, violationKinds []string) {
	if valid {
		m.PasswordValidations.WithLabelValues("valid").Inc()
		return
	}
	m.PasswordValidations.WithLabelValues("invalid").Inc()
	for _, kind := range violationKinds {
		m.PasswordViolations.WithLabelValues(kind).Inc()
	}
}
