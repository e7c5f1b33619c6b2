// Package notifier provides the broker-backed Notifier used by the reminder
// engine: dispatching a reminder means publishing a durable send command for
// the sender service to consume.
package notifier

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mkravtsov/subtrack/internal/lib/rabbitmq"
	"github.com/mkravtsov/subtrack/internal/models"
)

// AMQPNotifier publishes reminder commands to the send queue.
type AMQPNotifier struct {
	ch  rabbitmq.Publisher
	log *slog.Logger
}

// New creates an AMQPNotifier on an open channel.
func New(ch rabbitmq.Publisher, log *slog.Logger) *AMQPNotifier {
	return &AMQPNotifier{ch: ch, log: log}
}

// Notify publishes the command. The publish is the engine's "send" step:
// an error here propagates so the step is retried without being marked done.
func (n *AMQPNotifier) Notify(_ context.Context, cmd models.ReminderCommand) error {
	const op = "notifier.Notify"
	if err := rabbitmq.PublishMessage(n.ch, rabbitmq.Exchange, rabbitmq.SendRoutingKey, cmd); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	n.log.Info("reminder command published",
		slog.String("subscription_id", cmd.SubscriptionID),
		slog.String("label", cmd.Label))
	return nil
}
