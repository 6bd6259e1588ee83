package email

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// logService writes outgoing mail to the log when SMTP is not configured.
type logService struct {
	baseURL string
	logger  zerolog.Logger
}

func NewLogService(baseURL string, logger zerolog.Logger) Service {
	return &logService{
		baseURL: baseURL,
		logger:  logger.With().Str("component", "email").Logger(),
	}
}

func (s *logService) SendInvitation(_ context.Context, to, code, role string, expiresAt time.Time) error {
	s.write(invitationMessage(s.baseURL, to, code, role, expiresAt))
	return nil
}

func (s *logService) SendPasswordReset(_ context.Context, to, token string) error {
	s.write(passwordResetMessage(s.baseURL, to, token))
	return nil
}

func (s *logService) SendWelcome(_ context.Context, to, name string) error {
	s.write(welcomeMessage(s.baseURL, to, name))
	return nil
}

func (s *logService) SendMessageNotification(_ context.Context, to, name, sender, subject string) error {
	s.write(messageNotification(s.baseURL, to, name, sender, subject))
	return nil
}

func (s *logService) write(msg Message) {
	s.logger.Info().Str("to", msg.To).Str("subject", msg.Subject).Msg("smtp disabled, email not delivered")
	s.logger.Debug().Str("to", msg.To).Msg(msg.Body)
}
