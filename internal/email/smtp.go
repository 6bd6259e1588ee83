package email

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/gomail.v2"

	"github.com/jwalitptl/campus-forum/internal/config"
	"github.com/jwalitptl/campus-forum/pkg/circuitbreaker"
)

// Dialer is satisfied by *gomail.Dialer
type Dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

type smtpService struct {
	dialer  Dialer
	from    string
	baseURL string
	breaker *circuitbreaker.CircuitBreaker
	logger  zerolog.Logger
}

// New picks the SMTP implementation when a host is configured.
func New(cfg config.SMTPConfig, logger zerolog.Logger) Service {
	if cfg.Enabled() {
		return NewSMTPService(cfg, logger)
	}
	return NewLogService(cfg.BaseURL, logger)
}

func NewSMTPService(cfg config.SMTPConfig, logger zerolog.Logger) Service {
	dialer := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	return NewSMTPServiceWithDialer(dialer, cfg.From, cfg.BaseURL, logger)
}

func NewSMTPServiceWithDialer(dialer Dialer, from, baseURL string, logger zerolog.Logger) Service {
	return &smtpService{
		dialer:  dialer,
		from:    from,
		baseURL: baseURL,
		breaker: circuitbreaker.NewCircuitBreaker(circuitbreaker.Settings{
			Name:        "smtp",
			MaxRequests: 3,
			Interval:    time.Minute,
			Timeout:     30 * time.Second,
		}),
		logger: logger.With().Str("component", "email").Logger(),
	}
}

func (s *smtpService) SendInvitation(ctx context.Context, to, code, role string, expiresAt time.Time) error {
	return s.send(ctx, invitationMessage(s.baseURL, to, code, role, expiresAt))
}

func (s *smtpService) SendPasswordReset(ctx context.Context, to, token string) error {
	return s.send(ctx, passwordResetMessage(s.baseURL, to, token))
}

func (s *smtpService) SendWelcome(ctx context.Context, to, name string) error {
	return s.send(ctx, welcomeMessage(s.baseURL, to, name))
}

func (s *smtpService) SendMessageNotification(ctx context.Context, to, name, sender, subject string) error {
	return s.send(ctx, messageNotification(s.baseURL, to, name, sender, subject))
}

func (s *smtpService) send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/plain", msg.Body)

	err := s.breaker.Execute(func() error {
		return s.dialer.DialAndSend(m)
	})
	if err != nil {
		s.logger.Error().Err(err).Str("to", msg.To).Str("subject", msg.Subject).Msg("failed to send email")
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.Debug().Str("to", msg.To).Str("subject", msg.Subject).Msg("email sent")
	return nil
}
