package services

import (
	"context"
	"fmt"
	"html"

	"github.com/rpupo63/portfolio-backend/config"
	"github.com/rpupo63/portfolio-backend/metrics"
	"github.com/rpupo63/portfolio-backend/models"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type emailSender interface {
	SendEmail(ctx context.Context, subject, body, replyTo string, recipients []string) error
}

type smsSender interface {
	SendSMS(to, body string) error
}

// Notifier tells the site owner about new contact messages. Every channel is
// optional and failures never reach the caller.
type Notifier struct {
	email       emailSender
	sms         smsSender
	notifyEmail string
	notifyPhone string
	logger      zerolog.Logger
}

func NewNotifier(email emailSender, sms smsSender, notifyEmail, notifyPhone string) *Notifier {
	return &Notifier{
		email:       email,
		sms:         sms,
		notifyEmail: notifyEmail,
		notifyPhone: notifyPhone,
		logger:      log.With().Str("service", "notifier").Logger(),
	}
}

// NewNotifierFromConfig wires Resend and Twilio from the environment map
func NewNotifierFromConfig(c map[string]string) *Notifier {
	var email emailSender
	if sender := NewEmailSender(c); sender != nil {
		email = sender
	}
	var sms smsSender
	if sender := NewSMSSenderFromConfig(c); sender != nil {
		sms = sender
	}
	return NewNotifier(email, sms,
		config.GetString(c, "CONTACT_NOTIFY_EMAIL", ""),
		config.GetString(c, "CONTACT_NOTIFY_PHONE", ""),
	)
}

// NotifyNewMessage sends the configured notifications for m
func (n *Notifier) NotifyNewMessage(ctx context.Context, m *models.Message) {
	if n == nil {
		return
	}

	if n.email != nil && n.notifyEmail != "" {
		subject := fmt.Sprintf("New portfolio message from %s", m.Name)
		body := fmt.Sprintf("<p><strong>%s</strong> &lt;%s&gt; wrote:</p><p>%s</p>",
			html.EscapeString(m.Name), html.EscapeString(m.Email), html.EscapeString(m.Message))

		err := n.email.SendEmail(ctx, subject, body, m.Email, []string{n.notifyEmail})
		metrics.RecordNotification("email", err)
		if err != nil {
			n.logger.Error().Err(err).Str("messageId", m.ID.String()).Msg("Failed to send message notification email")
		}
	}

	if n.sms != nil && n.notifyPhone != "" {
		err := n.sms.SendSMS(n.notifyPhone, smsBody(m))
		metrics.RecordNotification("sms", err)
		if err != nil {
			n.logger.Error().Err(err).Str("messageId", m.ID.String()).Msg("Failed to send message notification SMS")
		}
	}
}

func smsBody(m *models.Message) string {
	text := m.Message
	if runes := []rune(text); len(runes) > 120 {
		text = string(runes[:120]) + "..."
	}
	return fmt.Sprintf("New message from %s (%s): %s", m.Name, m.Email, text)
}
