package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mkravtsov/subtrack/internal/models"
)

// EnsureRun creates the checkpoint row for a subscription if it does not
// exist yet. Duplicate triggers for the same subscription are a no-op, which
// keeps re-triggering idempotent.
func (s *Storage) EnsureRun(ctx context.Context, subscriptionID string) error {
	const op = "repository.EnsureRun"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO reminder_runs (subscription_id, next_offset_index, status)
			  VALUES ($1, 0, $2)
			  ON CONFLICT (subscription_id) DO NOTHING`
	if _, err := s.DB.ExecContext(ctx, query, subscriptionID, models.RunStatusPending); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// GetRun returns the checkpoint for a subscription.
func (s *Storage) GetRun(ctx context.Context, subscriptionID string) (*models.ReminderRun, error) {
	const op = "repository.GetRun"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT subscription_id, next_offset_index, wake_at, status, updated_at
			  FROM reminder_runs WHERE subscription_id = $1`
	row := s.DB.QueryRowContext(ctx, query, subscriptionID)

	var run models.ReminderRun
	var wakeAt sql.NullTime
	if err := row.Scan(&run.SubscriptionID, &run.NextOffsetIndex, &wakeAt,
		&run.Status, &run.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrRunNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if wakeAt.Valid {
		run.WakeAt = &wakeAt.Time
	}
	return &run, nil
}

// SuspendRun durably parks a run until wakeAt, recording which offset index
// is pending. This write is the suspension checkpoint: after a process
// restart the run resumes exactly here.
func (s *Storage) SuspendRun(ctx context.Context, subscriptionID string, nextOffsetIndex int, wakeAt time.Time) error {
	const op = "repository.SuspendRun"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE reminder_runs
			  SET next_offset_index = $1, wake_at = $2, status = $3, updated_at = now()
			  WHERE subscription_id = $4`
	if _, err := s.DB.ExecContext(ctx, query,
		nextOffsetIndex, wakeAt, models.RunStatusSleeping, subscriptionID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// AdvanceRun moves the checkpoint past a processed offset (sent or skipped).
func (s *Storage) AdvanceRun(ctx context.Context, subscriptionID string, nextOffsetIndex int) error {
	const op = "repository.AdvanceRun"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE reminder_runs
			  SET next_offset_index = $1, wake_at = NULL, status = $2, updated_at = now()
			  WHERE subscription_id = $3`
	if _, err := s.DB.ExecContext(ctx, query,
		nextOffsetIndex, models.RunStatusPending, subscriptionID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// FinishRun terminates a run with a final status (completed or abandoned).
func (s *Storage) FinishRun(ctx context.Context, subscriptionID, status string) error {
	const op = "repository.FinishRun"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE reminder_runs
			  SET wake_at = NULL, status = $1, updated_at = now()
			  WHERE subscription_id = $2`
	if _, err := s.DB.ExecContext(ctx, query, status, subscriptionID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ClaimDueRuns picks sleeping runs whose wake time has arrived and pushes
// their wake time forward by redeliverDelay, returning the claimed ids.
// SKIP LOCKED keeps concurrent pollers from claiming the same run; pushing
// wake_at instead of flipping the status means a run whose execution fails
// is retried automatically at the next wake.
//
// Pending rows that stopped moving are claimed too: a process that dies
// after advancing the checkpoint but before writing the next suspension
// leaves the run pending with no wake time, and without a rescue nothing
// would ever resume it. A pending row older than redeliverDelay is treated
// as such a crash leftover and put back to sleeping with an immediate wake.
func (s *Storage) ClaimDueRuns(ctx context.Context, now time.Time, redeliverDelay time.Duration, limit int) ([]string, error) {
	const op = "repository.ClaimDueRuns"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE reminder_runs
			  SET wake_at = $1, status = $2, updated_at = now()
			  WHERE subscription_id IN (
			      SELECT subscription_id FROM reminder_runs
			      WHERE (status = $2 AND wake_at <= $3)
			         OR (status = $4 AND updated_at <= $5)
			      ORDER BY COALESCE(wake_at, updated_at)
			      LIMIT $6
			      FOR UPDATE SKIP LOCKED
			  )
			  RETURNING subscription_id`
	rows, err := s.DB.QueryContext(ctx, query,
		now.Add(redeliverDelay), models.RunStatusSleeping, now,
		models.RunStatusPending, now.Add(-redeliverDelay), limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = rows.Close() }()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return ids, nil
}

// WasSent reports whether a reminder for this subscription, offset and
// renewal date has already been delivered.
func (s *Storage) WasSent(ctx context.Context, subscriptionID string, offsetDays int, renewalDate time.Time) (bool, error) {
	const op = "repository.WasSent"
	select {
	case <-ctx.Done():
		return false, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT EXISTS (
			      SELECT 1 FROM reminder_sends
			      WHERE subscription_id = $1 AND offset_days = $2 AND renewal_date = $3
			  )`
	var exists bool
	if err := s.DB.QueryRowContext(ctx, query,
		subscriptionID, offsetDays, renewalDate).Scan(&exists); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return exists, nil
}

// RecordSend records a delivered reminder. Duplicate records are ignored,
// tolerating at-least-once redelivery from the broker.
func (s *Storage) RecordSend(ctx context.Context, subscriptionID string, offsetDays int, renewalDate time.Time) error {
	const op = "repository.RecordSend"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO reminder_sends (subscription_id, offset_days, renewal_date)
			  VALUES ($1, $2, $3)
			  ON CONFLICT (subscription_id, offset_days, renewal_date) DO NOTHING`
	if _, err := s.DB.ExecContext(ctx, query, subscriptionID, offsetDays, renewalDate); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
