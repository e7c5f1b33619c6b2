// Package subscription contains the business logic for managing
// subscriptions: validation, renewal date derivation, status transitions,
// caching and triggering the reminder workflow on creation.
package subscription

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mkravtsov/subtrack/internal/lib/renewal"
	"github.com/mkravtsov/subtrack/internal/lib/sl"
	"github.com/mkravtsov/subtrack/internal/models"
)

const dateLayout = "2006-01-02"

// Repository defines the storage methods used by the service.
type Repository interface {
	CreateSubscription(ctx context.Context, sub models.Subscription) (string, error)
	ReadSubscription(ctx context.Context, id string) (*models.Subscription, error)
	UpdateSubscription(ctx context.Context, sub models.Subscription, id, userUID string) (int, error)
	UpdateSubscriptionStatus(ctx context.Context, id, userUID, status string) (int, error)
	RemoveSubscription(ctx context.Context, id, userUID string) (int, error)
	ListSubscriptions(ctx context.Context, userUID string, limit, offset int) ([]*models.Subscription, error)
}

// Cache describes the value cache used for read-through caching.
type Cache interface {
	Get(key string, result any) (bool, error)
	Set(key string, value any, expiration time.Duration) error
	Invalidate(key string) error
}

// TriggerClient enqueues a reminder workflow run for a subscription.
type TriggerClient interface {
	Trigger(ctx context.Context, subscriptionID string) (string, error)
}

// Service implements subscription business logic.
type Service struct {
	repo    Repository
	cache   Cache
	trigger TriggerClient
	now     func() time.Time
	log     *slog.Logger
}

// NewService creates a subscription Service.
func NewService(repo Repository, cache Cache, trigger TriggerClient, log *slog.Logger) *Service {
	return &Service{
		repo:    repo,
		cache:   cache,
		trigger: trigger,
		now:     time.Now,
		log:     log,
	}
}

// CreateResult reports the outcome of a creation: the stored id, the
// workflow run handle, and a warning when the reminder workflow could not
// be enqueued (the subscription itself is still committed).
type CreateResult struct {
	ID      string `json:"id"`
	RunID   string `json:"workflow_run_id,omitempty"`
	Warning string `json:"warning,omitempty"`
}

// Create validates a request, derives the renewal date and status, stores
// the subscription, caches it and triggers the reminder workflow.
func (s *Service) Create(ctx context.Context, userUID string, req models.SubscriptionRequest) (*CreateResult, error) {
	const op = "subscription.Create"

	sub, err := s.fromRequest(req, userUID, "")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	id, err := s.repo.CreateSubscription(ctx, *sub)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	sub.ID = id
	s.log.Info("created new subscription", slog.String("id", id))

	cacheKey := fmt.Sprintf("subscription:%s", id)
	if err := s.cache.Set(cacheKey, sub, time.Hour); err != nil {
		s.log.Warn("failed to cache subscription", slog.String("key", cacheKey), sl.Err(err))
	}

	result := &CreateResult{ID: id}
	runID, err := s.trigger.Trigger(ctx, id)
	if err != nil {
		// Soft failure: the record is committed, the workflow enqueue is
		// not rolled back.
		s.log.Error("failed to trigger reminder workflow",
			slog.String("subscription_id", id), sl.Err(err))
		result.Warning = "reminder scheduling is temporarily unavailable"
	} else {
		result.RunID = runID
	}
	return result, nil
}

// Read returns a subscription owned by userUID, through the cache.
func (s *Service) Read(ctx context.Context, id, userUID string) (*models.Subscription, error) {
	const op = "subscription.Read"

	cacheKey := fmt.Sprintf("subscription:%s", id)
	var cached models.Subscription
	found, err := s.cache.Get(cacheKey, &cached)
	if err != nil {
		s.log.Warn("cache lookup failed", slog.String("key", cacheKey), sl.Err(err))
	}
	if found && cached.UserUID == userUID {
		return &cached, nil
	}

	result, err := s.repo.ReadSubscription(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if result.UserUID != userUID {
		return nil, fmt.Errorf("%s: %w", op, ErrNotOwner)
	}

	if err := s.cache.Set(cacheKey, result, time.Hour); err != nil {
		s.log.Warn("failed to cache subscription", slog.String("key", cacheKey), sl.Err(err))
	}
	return result, nil
}

// List returns the user's subscriptions with pagination.
func (s *Service) List(ctx context.Context, userUID string, limit, offset int) ([]*models.Subscription, error) {
	const op = "subscription.List"
	result, err := s.repo.ListSubscriptions(ctx, userUID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// Update replaces a subscription's data, re-deriving the status. Returns
// the number of updated rows.
func (s *Service) Update(ctx context.Context, id, userUID string, req models.SubscriptionRequest) (int, error) {
	const op = "subscription.Update"

	current, err := s.repo.ReadSubscription(ctx, id)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	if current.UserUID != userUID {
		return 0, fmt.Errorf("%s: %w", op, ErrNotOwner)
	}

	sub, err := s.fromRequest(req, userUID, current.Status)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	count, err := s.repo.UpdateSubscription(ctx, *sub, id, userUID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("updated subscription", slog.String("id", id))

	cacheKey := fmt.Sprintf("subscription:%s", id)
	if err := s.cache.Invalidate(cacheKey); err != nil {
		s.log.Warn("failed to invalidate cache", slog.String("key", cacheKey), sl.Err(err))
	}
	return count, nil
}

// Cancel marks a subscription cancelled. Cancellation is terminal: the
// reminder workflow observes the status on its next resume and goes inert.
func (s *Service) Cancel(ctx context.Context, id, userUID string) (int, error) {
	const op = "subscription.Cancel"

	count, err := s.repo.UpdateSubscriptionStatus(ctx, id, userUID, models.StatusCancelled)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("cancelled subscription", slog.String("id", id))

	cacheKey := fmt.Sprintf("subscription:%s", id)
	if err := s.cache.Invalidate(cacheKey); err != nil {
		s.log.Warn("failed to invalidate cache", slog.String("key", cacheKey), sl.Err(err))
	}
	return count, nil
}

// Remove deletes a subscription and invalidates its cache entry.
func (s *Service) Remove(ctx context.Context, id, userUID string) (int, error) {
	const op = "subscription.Remove"

	cacheKey := fmt.Sprintf("subscription:%s", id)
	if err := s.cache.Invalidate(cacheKey); err != nil {
		s.log.Warn("failed to invalidate cache", slog.String("key", cacheKey), sl.Err(err))
	}

	count, err := s.repo.RemoveSubscription(ctx, id, userUID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return count, nil
}

// fromRequest converts a request to the domain model, deriving the renewal
// date when absent and resolving the status through the transition table.
func (s *Service) fromRequest(req models.SubscriptionRequest, userUID, currentStatus string) (*models.Subscription, error) {
	startDate, err := time.Parse(dateLayout, req.StartDate)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid start date: %v", ErrInvalidInput, err)
	}

	var renewalDate time.Time
	if req.RenewalDate != "" {
		renewalDate, err = time.Parse(dateLayout, req.RenewalDate)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid renewal date: %v", ErrInvalidInput, err)
		}
	} else {
		renewalDate, err = renewal.ComputeRenewalDate(startDate, req.Frequency)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
	}

	now := s.now()
	if err := renewal.Validate(startDate, renewalDate, now); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if !validCategory(req.Category) {
		return nil, fmt.Errorf("%w: unknown category %q", ErrInvalidInput, req.Category)
	}

	currency := req.Currency
	if currency == "" {
		currency = models.DefaultCurrency
	}

	return &models.Subscription{
		UserUID:       userUID,
		Name:          req.Name,
		Price:         req.Price,
		Currency:      currency,
		Frequency:     req.Frequency,
		Category:      req.Category,
		PaymentMethod: req.PaymentMethod,
		Status:        renewal.Transition(currentStatus, req.Status, renewalDate, now),
		StartDate:     startDate,
		RenewalDate:   renewalDate,
	}, nil
}

func validCategory(category string) bool {
	for _, c := range models.Categories {
		if c == category {
			return true
		}
	}
	return false
}
