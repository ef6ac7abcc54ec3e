// Package mailer delivers transactional email.
package mailer

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog"
	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

// ErrDeliveryFailed indicates the provider rejected or failed the message.
var ErrDeliveryFailed = errors.New("email delivery failed")

// Message is a rendered email.
type Message struct {
	ToName   string
	ToEmail  string
	Subject  string
	Text     string
	HTML     string
	Category string
}

// Sender delivers messages.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Config identifies the sending account.
type Config struct {
	APIKey      string
	FromName    string
	FromAddress string
}

type sendFunc func(ctx context.Context, msg *sgmail.SGMailV3) (*rest.Response, error)

// SendGrid delivers messages through the SendGrid v3 API.
type SendGrid struct {
	from   *sgmail.Email
	send   sendFunc
	logger zerolog.Logger
}

// NewSendGrid constructs a SendGrid sender.
func NewSendGrid(cfg Config, logger zerolog.Logger) (*SendGrid, error) {
	if cfg.APIKey == "" || cfg.FromAddress == "" {
		return nil, fmt.Errorf("sendgrid api key and sender address must be provided")
	}

	client := sendgrid.NewSendClient(cfg.APIKey)
	return &SendGrid{
		from:   sgmail.NewEmail(cfg.FromName, cfg.FromAddress),
		send:   client.SendWithContext,
		logger: logger.With().Str("component", "sendgrid").Logger(),
	}, nil
}

// Send builds a v3 payload and posts it.
func (s *SendGrid) Send(ctx context.Context, msg Message) error {
	if strings.TrimSpace(msg.ToEmail) == "" {
		return fmt.Errorf("%w: recipient missing", ErrDeliveryFailed)
	}

	to := sgmail.NewEmail(msg.ToName, msg.ToEmail)
	message := sgmail.NewSingleEmail(s.from, msg.Subject, to, msg.Text, msg.HTML)
	if msg.Category != "" {
		message.AddCategories(msg.Category)
	}

	res, err := s.send(ctx, message)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
	}
	if res.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("%w: status %d: %s", ErrDeliveryFailed, res.StatusCode, res.Body)
	}

	s.logger.Debug().Str("category", msg.Category).Int("status", res.StatusCode).Msg("email accepted by provider")
	return nil
}

// LogSender writes messages to the log instead of sending them.
type LogSender struct {
	logger zerolog.Logger
}

// NewLogSender constructs a log-only sender for environments without a provider.
func NewLogSender(logger zerolog.Logger) *LogSender {
	return &LogSender{logger: logger.With().Str("component", "log_mailer").Logger()}
}

// Send logs the subject and category; message bodies may hold credentials and are not logged.
func (l *LogSender) Send(_ context.Context, msg Message) error {
	l.logger.Info().Str("subject", msg.Subject).Str("category", msg.Category).Msg("email suppressed: no provider configured")
	return nil
}
