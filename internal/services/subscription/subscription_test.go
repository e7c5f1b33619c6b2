package subscription

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkravtsov/subtrack/internal/models"
)

type fakeRepo struct {
	subs    map[string]models.Subscription
	nextID  string
	created *models.Subscription
	updated *models.Subscription
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{subs: map[string]models.Subscription{}, nextID: "sub-1"}
}

func (r *fakeRepo) CreateSubscription(_ context.Context, sub models.Subscription) (string, error) {
	sub.ID = r.nextID
	r.subs[sub.ID] = sub
	r.created = &sub
	return sub.ID, nil
}

func (r *fakeRepo) ReadSubscription(_ context.Context, id string) (*models.Subscription, error) {
	sub, ok := r.subs[id]
	if !ok {
		return nil, errors.New("subscription not found")
	}
	return &sub, nil
}

func (r *fakeRepo) UpdateSubscription(_ context.Context, sub models.Subscription, id, userUID string) (int, error) {
	stored, ok := r.subs[id]
	if !ok || stored.UserUID != userUID {
		return 0, nil
	}
	sub.ID = id
	sub.UserUID = userUID
	r.subs[id] = sub
	r.updated = &sub
	return 1, nil
}

func (r *fakeRepo) UpdateSubscriptionStatus(_ context.Context, id, userUID, status string) (int, error) {
	stored, ok := r.subs[id]
	if !ok || stored.UserUID != userUID {
		return 0, nil
	}
	stored.Status = status
	r.subs[id] = stored
	return 1, nil
}

func (r *fakeRepo) RemoveSubscription(_ context.Context, id, userUID string) (int, error) {
	stored, ok := r.subs[id]
	if !ok || stored.UserUID != userUID {
		return 0, nil
	}
	delete(r.subs, id)
	return 1, nil
}

func (r *fakeRepo) ListSubscriptions(_ context.Context, userUID string, limit, offset int) ([]*models.Subscription, error) {
	var result []*models.Subscription
	for _, sub := range r.subs {
		if sub.UserUID == userUID {
			copied := sub
			result = append(result, &copied)
		}
	}
	return result, nil
}

type fakeCache struct {
	values      map[string]any
	invalidated []string
}

func newFakeCache() *fakeCache {
	return &fakeCache{values: map[string]any{}}
}

func (c *fakeCache) Get(key string, result any) (bool, error) {
	val, ok := c.values[key]
	if !ok {
		return false, nil
	}
	if sub, ok := val.(*models.Subscription); ok {
		if out, ok := result.(*models.Subscription); ok {
			*out = *sub
			return true, nil
		}
	}
	return false, nil
}

func (c *fakeCache) Set(key string, value any, _ time.Duration) error {
	if sub, ok := value.(*models.Subscription); ok {
		copied := *sub
		c.values[key] = &copied
	}
	return nil
}

func (c *fakeCache) Invalidate(key string) error {
	delete(c.values, key)
	c.invalidated = append(c.invalidated, key)
	return nil
}

type fakeTrigger struct {
	calls []string
	err   error
}

func (t *fakeTrigger) Trigger(_ context.Context, subscriptionID string) (string, error) {
	t.calls = append(t.calls, subscriptionID)
	if t.err != nil {
		return "", t.err
	}
	return "run-" + subscriptionID, nil
}

func newTestService(repo *fakeRepo, cache *fakeCache, trigger *fakeTrigger) *Service {
	svc := NewService(repo, cache, trigger, slog.New(slog.NewTextHandler(io.Discard, nil)))
	svc.now = func() time.Time {
		return time.Date(2024, time.March, 15, 12, 0, 0, 0, time.UTC)
	}
	return svc
}

func validRequest() models.SubscriptionRequest {
	return models.SubscriptionRequest{
		Name:          "Netflix",
		Price:         15.99,
		Currency:      "EUR",
		Frequency:     models.FrequencyMonthly,
		Category:      "entertainment",
		PaymentMethod: "Credit Card",
		StartDate:     "2024-03-10",
	}
}

func TestCreate_DerivesRenewalDateAndTriggers(t *testing.T) {
	repo := newFakeRepo()
	cache := newFakeCache()
	trigger := &fakeTrigger{}
	svc := newTestService(repo, cache, trigger)

	result, err := svc.Create(context.Background(), "user-1", validRequest())
	require.NoError(t, err)

	assert.Equal(t, "sub-1", result.ID)
	assert.Equal(t, "run-sub-1", result.RunID)
	assert.Empty(t, result.Warning)

	require.NotNil(t, repo.created)
	assert.Equal(t, time.Date(2024, time.April, 10, 0, 0, 0, 0, time.UTC), repo.created.RenewalDate)
	assert.Equal(t, models.StatusActive, repo.created.Status)
	assert.Equal(t, []string{"sub-1"}, trigger.calls)

	_, cached := cache.values["subscription:sub-1"]
	assert.True(t, cached)
}

func TestCreate_ExplicitRenewalDateKept(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, newFakeCache(), &fakeTrigger{})

	req := validRequest()
	req.RenewalDate = "2024-06-01"

	_, err := svc.Create(context.Background(), "user-1", req)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC), repo.created.RenewalDate)
}

func TestCreate_TriggerFailureIsSoft(t *testing.T) {
	repo := newFakeRepo()
	trigger := &fakeTrigger{err: errors.New("broker down")}
	svc := newTestService(repo, newFakeCache(), trigger)

	result, err := svc.Create(context.Background(), "user-1", validRequest())
	require.NoError(t, err)

	assert.Equal(t, "sub-1", result.ID)
	assert.Empty(t, result.RunID)
	assert.NotEmpty(t, result.Warning)
	require.NotNil(t, repo.created)
}

func TestCreate_RejectsFutureStartDate(t *testing.T) {
	svc := newTestService(newFakeRepo(), newFakeCache(), &fakeTrigger{})

	req := validRequest()
	req.StartDate = "2024-04-01"

	_, err := svc.Create(context.Background(), "user-1", req)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "start date")
}

func TestCreate_RejectsRenewalBeforeStart(t *testing.T) {
	svc := newTestService(newFakeRepo(), newFakeCache(), &fakeTrigger{})

	req := validRequest()
	req.RenewalDate = "2024-03-10"

	_, err := svc.Create(context.Background(), "user-1", req)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "renewal date")
}

func TestCreate_RejectsUnknownCategory(t *testing.T) {
	svc := newTestService(newFakeRepo(), newFakeCache(), &fakeTrigger{})

	req := validRequest()
	req.Category = "gardening"

	_, err := svc.Create(context.Background(), "user-1", req)
	require.Error(t, err)
}

func TestCreate_DefaultsCurrency(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, newFakeCache(), &fakeTrigger{})

	req := validRequest()
	req.Currency = ""

	_, err := svc.Create(context.Background(), "user-1", req)
	require.NoError(t, err)
	assert.Equal(t, models.DefaultCurrency, repo.created.Currency)
}

func TestRead_CacheHitSkipsRepo(t *testing.T) {
	cache := newFakeCache()
	cache.values["subscription:sub-1"] = &models.Subscription{
		ID:      "sub-1",
		UserUID: "user-1",
		Name:    "Spotify",
	}
	// Repo is empty: a hit must not reach it.
	svc := newTestService(newFakeRepo(), cache, &fakeTrigger{})

	result, err := svc.Read(context.Background(), "sub-1", "user-1")
	require.NoError(t, err)
	assert.Equal(t, "Spotify", result.Name)
}

func TestRead_MissPopulatesCache(t *testing.T) {
	repo := newFakeRepo()
	repo.subs["sub-1"] = models.Subscription{ID: "sub-1", UserUID: "user-1", Name: "Spotify"}
	cache := newFakeCache()
	svc := newTestService(repo, cache, &fakeTrigger{})

	result, err := svc.Read(context.Background(), "sub-1", "user-1")
	require.NoError(t, err)
	assert.Equal(t, "Spotify", result.Name)

	_, cached := cache.values["subscription:sub-1"]
	assert.True(t, cached)
}

func TestRead_WrongOwnerRejected(t *testing.T) {
	repo := newFakeRepo()
	repo.subs["sub-1"] = models.Subscription{ID: "sub-1", UserUID: "user-1"}
	svc := newTestService(repo, newFakeCache(), &fakeTrigger{})

	_, err := svc.Read(context.Background(), "sub-1", "user-2")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotOwner)
}

func TestRead_CachedOtherOwnerFallsThrough(t *testing.T) {
	cache := newFakeCache()
	cache.values["subscription:sub-1"] = &models.Subscription{ID: "sub-1", UserUID: "user-1"}
	svc := newTestService(newFakeRepo(), cache, &fakeTrigger{})

	_, err := svc.Read(context.Background(), "sub-1", "user-2")
	require.Error(t, err)
}

func TestUpdate_DerivesExpiredWhenRenewalPassed(t *testing.T) {
	repo := newFakeRepo()
	repo.subs["sub-1"] = models.Subscription{ID: "sub-1", UserUID: "user-1", Status: models.StatusActive}
	cache := newFakeCache()
	cache.values["subscription:sub-1"] = &models.Subscription{ID: "sub-1", UserUID: "user-1"}
	svc := newTestService(repo, cache, &fakeTrigger{})

	req := validRequest()
	req.StartDate = "2024-01-01"
	req.RenewalDate = "2024-02-01"

	count, err := svc.Update(context.Background(), "sub-1", "user-1", req)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Equal(t, models.StatusExpired, repo.updated.Status)
	assert.Contains(t, cache.invalidated, "subscription:sub-1")
}

func TestUpdate_CancelledStaysTerminal(t *testing.T) {
	repo := newFakeRepo()
	repo.subs["sub-1"] = models.Subscription{ID: "sub-1", UserUID: "user-1", Status: models.StatusCancelled}
	svc := newTestService(repo, newFakeCache(), &fakeTrigger{})

	req := validRequest()
	req.Status = models.StatusActive

	_, err := svc.Update(context.Background(), "sub-1", "user-1", req)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, repo.updated.Status)
}

func TestCancel_SetsStatusAndInvalidates(t *testing.T) {
	repo := newFakeRepo()
	repo.subs["sub-1"] = models.Subscription{ID: "sub-1", UserUID: "user-1", Status: models.StatusActive}
	cache := newFakeCache()
	svc := newTestService(repo, cache, &fakeTrigger{})

	count, err := svc.Cancel(context.Background(), "sub-1", "user-1")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Equal(t, models.StatusCancelled, repo.subs["sub-1"].Status)
	assert.Contains(t, cache.invalidated, "subscription:sub-1")
}

func TestRemove_DeletesAndInvalidates(t *testing.T) {
	repo := newFakeRepo()
	repo.subs["sub-1"] = models.Subscription{ID: "sub-1", UserUID: "user-1"}
	cache := newFakeCache()
	svc := newTestService(repo, cache, &fakeTrigger{})

	count, err := svc.Remove(context.Background(), "sub-1", "user-1")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Empty(t, repo.subs)
	assert.Contains(t, cache.invalidated, "subscription:sub-1")
}
