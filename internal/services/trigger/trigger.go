// Package trigger implements the workflow trigger client: a fire-and-forget
// enqueue of a reminder run when a subscription is created. Only the
// subscription id travels; the engine re-fetches current state on execution.
package trigger

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/mkravtsov/subtrack/internal/lib/rabbitmq"
	"github.com/mkravtsov/subtrack/internal/models"
)

// Client enqueues reminder workflow runs.
type Client struct {
	ch  rabbitmq.Publisher
	log *slog.Logger
}

// New creates a trigger Client on an open channel.
func New(ch rabbitmq.Publisher, log *slog.Logger) *Client {
	return &Client{ch: ch, log: log}
}

// Trigger enqueues a run for a subscription and returns a run handle.
// Callers must treat failure as a soft condition: the subscription is
// already committed, so an enqueue error is logged and surfaced as a
// warning, never rolled back.
func (c *Client) Trigger(_ context.Context, subscriptionID string) (string, error) {
	const op = "trigger.Trigger"

	msg := models.TriggerMessage{SubscriptionID: subscriptionID}
	if err := rabbitmq.PublishMessage(c.ch, rabbitmq.Exchange, rabbitmq.TriggerRoutingKey, msg); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	runID := uuid.New().String()
	c.log.Info("reminder workflow triggered",
		slog.String("subscription_id", subscriptionID),
		slog.String("run_id", runID))
	return runID, nil
}
