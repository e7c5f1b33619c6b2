// Package reminder implements the durable reminder workflow engine.
//
// One run exists per subscription. A run walks the configured offset set
// (days before the renewal date, largest first), publishing a send command
// for each offset whose instant falls on the current day, skipping offsets
// whose instant has already passed, and suspending durably until offsets
// that are still in the future. The suspension checkpoint (next offset
// index plus wake time) is persisted before the run parks, so a process
// restart resumes the run at exactly the pending offset: earlier, already
// notified offsets are never re-run and the pending one is never skipped.
package reminder

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/mkravtsov/subtrack/internal/lib/sl"
	"github.com/mkravtsov/subtrack/internal/metrics"
	"github.com/mkravtsov/subtrack/internal/models"
	"github.com/mkravtsov/subtrack/internal/storage/repository"
)

// DefaultOffsets is the fixed ordered reminder schedule: days before the
// renewal date, descending.
var DefaultOffsets = []int{7, 5, 2, 1}

// SubscriptionProvider fetches current subscription state. The engine never
// trusts the snapshot from trigger time: it re-fetches on every execution,
// including after each resume, so a cancellation between suspensions is
// observed.
type SubscriptionProvider interface {
	GetReminderInfo(ctx context.Context, subscriptionID string) (*models.ReminderInfo, error)
}

// RunRepository persists run checkpoints.
type RunRepository interface {
	EnsureRun(ctx context.Context, subscriptionID string) error
	GetRun(ctx context.Context, subscriptionID string) (*models.ReminderRun, error)
	SuspendRun(ctx context.Context, subscriptionID string, nextOffsetIndex int, wakeAt time.Time) error
	AdvanceRun(ctx context.Context, subscriptionID string, nextOffsetIndex int) error
	FinishRun(ctx context.Context, subscriptionID, status string) error
	ClaimDueRuns(ctx context.Context, now time.Time, redeliverDelay time.Duration, limit int) ([]string, error)
}

// Notifier dispatches one reminder. An error means the step is not done:
// the engine propagates it without advancing the checkpoint, so the same
// step is re-attempted on redelivery.
type Notifier interface {
	Notify(ctx context.Context, cmd models.ReminderCommand) error
}

// Engine executes reminder workflow runs.
type Engine struct {
	subs           SubscriptionProvider
	runs           RunRepository
	notifier       Notifier
	offsets        []int
	redeliverDelay time.Duration
	claimBatchSize int
	now            func() time.Time
	log            *slog.Logger
}

// NewEngine creates an Engine. Offsets must be ordered descending; an empty
// slice falls back to DefaultOffsets.
func NewEngine(subs SubscriptionProvider, runs RunRepository, notifier Notifier,
	offsets []int, redeliverDelay time.Duration, claimBatchSize int, log *slog.Logger) *Engine {
	if len(offsets) == 0 {
		offsets = DefaultOffsets
	}
	return &Engine{
		subs:           subs,
		runs:           runs,
		notifier:       notifier,
		offsets:        offsets,
		redeliverDelay: redeliverDelay,
		claimBatchSize: claimBatchSize,
		now:            time.Now,
		log:            log,
	}
}

// HandleTrigger is the consumer handler for the trigger queue. The payload
// carries only the subscription id.
func (e *Engine) HandleTrigger(body []byte) error {
	var msg models.TriggerMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		e.log.Error("failed to unmarshal trigger message", sl.Err(err))
		// Malformed payloads are dropped, not redelivered.
		return nil
	}
	if _, err := uuid.Parse(msg.SubscriptionID); err != nil {
		// A non-uuid id would fail in Postgres on every redelivery.
		e.log.Error("trigger message with invalid subscription id",
			slog.String("subscription_id", msg.SubscriptionID), sl.Err(err))
		return nil
	}
	return e.Run(context.Background(), msg.SubscriptionID)
}

// Run executes one step sequence of the workflow for a subscription, from
// the persisted checkpoint up to the next suspension or termination. It is
// the single entry point for both fresh triggers and wake-ups, and is safe
// to invoke repeatedly for the same subscription.
func (e *Engine) Run(ctx context.Context, subscriptionID string) error {
	const op = "reminder.Run"
	log := e.log.With(slog.String("op", op), slog.String("subscription_id", subscriptionID))
	metrics.RunsStarted.Inc()

	// The fetch comes before the checkpoint write: a trigger for a
	// subscription that was deleted in the meantime must end here, not
	// fail against the runs foreign key and bounce through redelivery.
	info, err := e.subs.GetReminderInfo(ctx, subscriptionID)
	if errors.Is(err, repository.ErrSubscriptionNotFound) {
		log.Info("subscription no longer exists, abandoning run")
		metrics.RunsAbandoned.Inc()
		return e.finish(ctx, subscriptionID, models.RunStatusAbandoned)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := e.runs.EnsureRun(ctx, subscriptionID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	run, err := e.runs.GetRun(ctx, subscriptionID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if run.Status == models.RunStatusCompleted || run.Status == models.RunStatusAbandoned {
		log.Info("run already finished", slog.String("status", run.Status))
		return nil
	}

	if info.Status != models.StatusActive {
		log.Info("subscription not active, abandoning run", slog.String("status", info.Status))
		metrics.RunsAbandoned.Inc()
		return e.finish(ctx, subscriptionID, models.RunStatusAbandoned)
	}
	if !info.RenewalDate.After(e.now()) {
		log.Info("renewal date already passed, abandoning run",
			slog.Time("renewal_date", info.RenewalDate))
		metrics.RunsAbandoned.Inc()
		return e.finish(ctx, subscriptionID, models.RunStatusAbandoned)
	}

	for i := run.NextOffsetIndex; i < len(e.offsets); i++ {
		days := e.offsets[i]
		reminderAt := info.RenewalDate.AddDate(0, 0, -days)
		now := e.now()

		switch {
		case reminderAt.After(now):
			log.Info("suspending until reminder time",
				slog.Int("offset_days", days), slog.Time("wake_at", reminderAt))
			if err := e.runs.SuspendRun(ctx, subscriptionID, i, reminderAt); err != nil {
				return fmt.Errorf("%s: %w", op, err)
			}
			metrics.RunsSuspended.Inc()
			return nil

		case sameDay(reminderAt, now):
			cmd := buildCommand(info, days)
			if err := e.notifier.Notify(ctx, cmd); err != nil {
				// Checkpoint stays put: the step is retried on redelivery.
				return fmt.Errorf("%s: notify offset %d: %w", op, days, err)
			}
			log.Info("reminder dispatched", slog.Int("offset_days", days),
				slog.String("label", cmd.Label))
			metrics.RemindersPublished.Inc()
			if err := e.runs.AdvanceRun(ctx, subscriptionID, i+1); err != nil {
				return fmt.Errorf("%s: %w", op, err)
			}

		default:
			// The instant already passed (late trigger or downtime): a
			// stale "N days before" reminder is meaningless, skip it.
			log.Info("reminder time already passed, skipping",
				slog.Int("offset_days", days), slog.Time("reminder_at", reminderAt))
			metrics.RemindersSkipped.Inc()
			if err := e.runs.AdvanceRun(ctx, subscriptionID, i+1); err != nil {
				return fmt.Errorf("%s: %w", op, err)
			}
		}
	}

	log.Info("all reminder offsets processed")
	metrics.RunsCompleted.Inc()
	return e.finish(ctx, subscriptionID, models.RunStatusCompleted)
}

func (e *Engine) finish(ctx context.Context, subscriptionID, status string) error {
	const op = "reminder.finish"
	if err := e.runs.FinishRun(ctx, subscriptionID, status); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Label returns the template label for an offset, e.g. "7 days before
// reminder". The sender's template registry is keyed by exactly these
// strings.
func Label(days int) string {
	return fmt.Sprintf("%d days before reminder", days)
}

func buildCommand(info *models.ReminderInfo, days int) models.ReminderCommand {
	return models.ReminderCommand{
		SubscriptionID: info.SubscriptionID,
		OffsetDays:     days,
		Label:          Label(days),
		To:             info.OwnerEmail,
		OwnerName:      info.OwnerName,
		Name:           info.Name,
		Price:          info.Price,
		Currency:       info.Currency,
		Frequency:      info.Frequency,
		PaymentMethod:  info.PaymentMethod,
		RenewalDate:    info.RenewalDate,
	}
}

// sameDay reports whether two instants fall on the same UTC calendar day.
// The match is strict equality of the date, not an ordering comparison.
func sameDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}
