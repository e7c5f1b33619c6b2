package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mkravtsov/subtrack/internal/models"
)

// CreateSubscription inserts a new subscription and returns its id.
func (s *Storage) CreateSubscription(ctx context.Context, sub models.Subscription) (string, error) {
	const op = "repository.CreateSubscription"
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO subscriptions (user_uid, name, price, currency, frequency,
			      category, payment_method, status, start_date, renewal_date)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			  RETURNING id`
	var newID string
	err := s.DB.QueryRowContext(ctx, query,
		sub.UserUID, sub.Name, sub.Price, sub.Currency, sub.Frequency,
		sub.Category, sub.PaymentMethod, sub.Status, sub.StartDate, sub.RenewalDate).Scan(&newID)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// ReadSubscription returns a subscription by id.
func (s *Storage) ReadSubscription(ctx context.Context, id string) (*models.Subscription, error) {
	const op = "repository.ReadSubscription"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, user_uid, name, price, currency, frequency, category,
			      payment_method, status, start_date, renewal_date, created_at, updated_at
			  FROM subscriptions WHERE id = $1`
	row := s.DB.QueryRowContext(ctx, query, id)

	var result models.Subscription
	if err := row.Scan(&result.ID, &result.UserUID, &result.Name, &result.Price,
		&result.Currency, &result.Frequency, &result.Category, &result.PaymentMethod,
		&result.Status, &result.StartDate, &result.RenewalDate,
		&result.CreatedAt, &result.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrSubscriptionNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &result, nil
}

// UpdateSubscription updates a subscription owned by userUID and returns the
// number of affected rows.
func (s *Storage) UpdateSubscription(ctx context.Context, sub models.Subscription, id, userUID string) (int, error) {
	const op = "repository.UpdateSubscription"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE subscriptions
			  SET name = $1, price = $2, currency = $3, frequency = $4, category = $5,
			      payment_method = $6, status = $7, start_date = $8, renewal_date = $9,
			      updated_at = now()
			  WHERE id = $10 AND user_uid = $11`
	result, err := s.DB.ExecContext(ctx, query,
		sub.Name, sub.Price, sub.Currency, sub.Frequency, sub.Category,
		sub.PaymentMethod, sub.Status, sub.StartDate, sub.RenewalDate, id, userUID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(rowsAffected), nil
}

// UpdateSubscriptionStatus sets the status of a subscription owned by
// userUID and returns the number of affected rows.
func (s *Storage) UpdateSubscriptionStatus(ctx context.Context, id, userUID, status string) (int, error) {
	const op = "repository.UpdateSubscriptionStatus"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE subscriptions
			  SET status = $1, updated_at = now()
			  WHERE id = $2 AND user_uid = $3`
	result, err := s.DB.ExecContext(ctx, query, status, id, userUID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(rowsAffected), nil
}

// RemoveSubscription deletes a subscription owned by userUID and returns the
// number of deleted rows.
func (s *Storage) RemoveSubscription(ctx context.Context, id, userUID string) (int, error) {
	const op = "repository.RemoveSubscription"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `DELETE FROM subscriptions WHERE id = $1 AND user_uid = $2`
	result, err := s.DB.ExecContext(ctx, query, id, userUID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(rowsAffected), nil
}

// ListSubscriptions returns the user's subscriptions ordered by renewal
// date, with pagination.
func (s *Storage) ListSubscriptions(ctx context.Context, userUID string, limit, offset int) ([]*models.Subscription, error) {
	const op = "repository.ListSubscriptions"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, user_uid, name, price, currency, frequency, category,
			      payment_method, status, start_date, renewal_date, created_at, updated_at
			  FROM subscriptions
			  WHERE user_uid = $1
			  ORDER BY renewal_date
			  LIMIT $2 OFFSET $3`
	rows, err := s.DB.QueryContext(ctx, query, userUID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = rows.Close() }()

	var result []*models.Subscription
	for rows.Next() {
		var item models.Subscription
		if err := rows.Scan(&item.ID, &item.UserUID, &item.Name, &item.Price,
			&item.Currency, &item.Frequency, &item.Category, &item.PaymentMethod,
			&item.Status, &item.StartDate, &item.RenewalDate,
			&item.CreatedAt, &item.UpdatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// GetReminderInfo returns a subscription joined with its owner's name and
// email, which is everything the reminder engine needs per run.
func (s *Storage) GetReminderInfo(ctx context.Context, subscriptionID string) (*models.ReminderInfo, error) {
	const op = "repository.GetReminderInfo"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT s.id, u.name, u.email, s.name, s.price, s.currency, s.frequency,
			      s.payment_method, s.status, s.start_date, s.renewal_date
			  FROM subscriptions s
			  JOIN users u ON u.uid = s.user_uid
			  WHERE s.id = $1`
	row := s.DB.QueryRowContext(ctx, query, subscriptionID)

	var info models.ReminderInfo
	if err := row.Scan(&info.SubscriptionID, &info.OwnerName, &info.OwnerEmail,
		&info.Name, &info.Price, &info.Currency, &info.Frequency,
		&info.PaymentMethod, &info.Status, &info.StartDate, &info.RenewalDate); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrSubscriptionNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &info, nil
}
