package email

import (
	"context"
	"fmt"
	"strings"
	"time"
)

type Service interface {
	SendInvitation(ctx context.Context, to, code, role string, expiresAt time.Time) error
	SendPasswordReset(ctx context.Context, to, token string) error
	SendWelcome(ctx context.Context, to, name string) error
	SendMessageNotification(ctx context.Context, to, name, sender, subject string) error
}

// Message is a rendered outgoing email
type Message struct {
	To      string
	Subject string
	Body    string
}

func invitationMessage(baseURL, to, code, role string, expiresAt time.Time) Message {
	return Message{
		To:      to,
		Subject: "You are invited to the campus forum",
		Body: fmt.Sprintf(
			"You have been invited to join the campus forum as %s.\n\n"+
				"Register at %s/register?code=%s\n\n"+
				"The invitation code %s expires on %s.\n",
			role, strings.TrimRight(baseURL, "/"), code, code, expiresAt.UTC().Format(time.RFC1123),
		),
	}
}

func passwordResetMessage(baseURL, to, token string) Message {
	return Message{
		To:      to,
		Subject: "Reset your campus forum password",
		Body: fmt.Sprintf(
			"A password reset was requested for your account.\n\n"+
				"Choose a new password at %s/reset-password?token=%s\n\n"+
				"If you did not request this, ignore this email.\n",
			strings.TrimRight(baseURL, "/"), token,
		),
	}
}

func welcomeMessage(baseURL, to, name string) Message {
	return Message{
		To:      to,
		Subject: "Welcome to the campus forum",
		Body: fmt.Sprintf(
			"Hi %s,\n\nYour account is ready. Sign in at %s/login\n",
			name, strings.TrimRight(baseURL, "/"),
		),
	}
}

func messageNotification(baseURL, to, name, sender, subject string) Message {
	return Message{
		To:      to,
		Subject: fmt.Sprintf("New message from %s", sender),
		Body: fmt.Sprintf(
			"Hi %s,\n\n%s sent you a message: %q\n\nRead it at %s/messages\n",
			name, sender, subject, strings.TrimRight(baseURL, "/"),
		),
	}
}
