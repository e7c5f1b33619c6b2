// Package sender implements the reminder sender service: it consumes
// reminder commands from the send queue, resolves the email template for
// the offset label, renders it and delivers the message over SMTP. Sends
// are recorded in a ledger keyed by subscription, offset and renewal date
// so broker redelivery never produces a duplicate email.
package sender

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mkravtsov/subtrack/internal/lib/sl"
	"github.com/mkravtsov/subtrack/internal/lib/smtp"
	"github.com/mkravtsov/subtrack/internal/metrics"
	"github.com/mkravtsov/subtrack/internal/models"
)

// ErrMissingFields is returned when a command lacks the recipient address
// or offset label. A precondition violation: the send fails fast with no
// partial delivery, and the command is dropped.
var ErrMissingFields = errors.New("missing required fields")

// SendLedger records delivered reminders for deduplication.
type SendLedger interface {
	WasSent(ctx context.Context, subscriptionID string, offsetDays int, renewalDate time.Time) (bool, error)
	RecordSend(ctx context.Context, subscriptionID string, offsetDays int, renewalDate time.Time) error
}

// Service delivers reminder emails.
type Service struct {
	ledger    SendLedger
	transport smtp.TransportInterface
	log       *slog.Logger
}

// NewService creates a sender Service.
func NewService(ledger SendLedger, transport smtp.TransportInterface, log *slog.Logger) *Service {
	return &Service{
		ledger:    ledger,
		transport: transport,
		log:       log,
	}
}

// HandleReminder is the consumer handler for the send queue. Terminal
// failures (malformed payload, missing fields, unknown template, duplicate)
// return nil so the message is acked and never redelivered; transport
// failures return the error so the broker requeues the command.
func (s *Service) HandleReminder(body []byte) error {
	var cmd models.ReminderCommand
	if err := json.Unmarshal(body, &cmd); err != nil {
		s.log.Error("failed to unmarshal reminder command", sl.Err(err))
		return nil
	}

	err := s.sendReminder(context.Background(), cmd)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrInvalidTemplate):
		s.log.Error("unknown reminder template, dropping command",
			slog.String("label", cmd.Label), sl.Err(err))
		metrics.InvalidTemplates.Inc()
		return nil
	case errors.Is(err, ErrMissingFields):
		s.log.Error("reminder command missing required fields, dropping",
			slog.String("subscription_id", cmd.SubscriptionID), sl.Err(err))
		return nil
	default:
		metrics.EmailsFailed.Inc()
		return err
	}
}

// sendReminder performs one delivery: dedupe check, template resolution,
// rendering and the SMTP send, then records the send in the ledger.
func (s *Service) sendReminder(ctx context.Context, cmd models.ReminderCommand) error {
	const op = "sender.sendReminder"

	if cmd.To == "" || cmd.Label == "" {
		return fmt.Errorf("%s: %w", op, ErrMissingFields)
	}

	sent, err := s.ledger.WasSent(ctx, cmd.SubscriptionID, cmd.OffsetDays, cmd.RenewalDate)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if sent {
		s.log.Info("reminder already delivered, skipping duplicate",
			slog.String("subscription_id", cmd.SubscriptionID),
			slog.String("label", cmd.Label))
		metrics.EmailsDeduplicated.Inc()
		return nil
	}

	tmpl, err := ResolveTemplate(cmd.Label)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	info := NewMailInfo(cmd)
	subject := tmpl.GenerateSubject(info)
	bodyText := tmpl.GenerateBody(info)

	if err := s.sendEmail([]string{cmd.To}, subject, bodyText); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.ledger.RecordSend(ctx, cmd.SubscriptionID, cmd.OffsetDays, cmd.RenewalDate); err != nil {
		s.log.Error("failed to record reminder send", sl.Err(err))
	}
	metrics.EmailsSent.Inc()
	return nil
}

func (s *Service) sendEmail(to []string, subject, bodyText string) error {
	msg := strings.Join([]string{
		"From: " + s.transport.GetSMTPUser(),
		"To: " + strings.Join(to, ";"),
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"UTF-8\"",
		"",
		bodyText,
	}, "\r\n")

	client, err := s.transport.Connect()
	if err != nil {
		s.log.Error("failed to connect to SMTP server", sl.Err(err))
		return err
	}
	defer func() { _ = client.Close() }()

	if err := client.Mail(s.transport.GetSMTPUser()); err != nil {
		s.log.Error("failed to set MAIL FROM", slog.String("from", s.transport.GetSMTPUser()), sl.Err(err))
		return err
	}

	for _, addr := range to {
		if err := client.Rcpt(addr); err != nil {
			s.log.Error("failed to set RCPT TO", slog.String("recipient", addr), sl.Err(err))
			return err
		}
	}

	wc, err := client.Data()
	if err != nil {
		s.log.Error("failed to get data writer", sl.Err(err))
		return err
	}

	if _, err = wc.Write([]byte(msg)); err != nil {
		s.log.Error("failed to write email body", sl.Err(err))
		return err
	}

	if err = wc.Close(); err != nil {
		s.log.Error("failed to close data writer", sl.Err(err))
		return err
	}

	if err = client.Quit(); err != nil {
		s.log.Error("failed to quit SMTP client", sl.Err(err))
		return err
	}

	s.log.Info("reminder email sent", slog.String("to", strings.Join(to, ";")))
	return nil
}
