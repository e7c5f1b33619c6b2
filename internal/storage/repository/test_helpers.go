package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mkravtsov/subtrack/internal/models"
)

// TestDataFactory creates rows for integration tests.
type TestDataFactory struct {
	storage *Storage
}

// NewTestDataFactory creates a factory bound to a storage.
func NewTestDataFactory(storage *Storage) *TestDataFactory {
	return &TestDataFactory{storage: storage}
}

// CreateUser inserts a test user and returns its uid.
func (f *TestDataFactory) CreateUser(t *testing.T, name, email string) string {
	t.Helper()
	var uid string
	err := f.storage.DB.QueryRow(`INSERT INTO users (name, email, password_hash)
		VALUES ($1, $2, $3) RETURNING uid`,
		name, email, "hashedpassword").Scan(&uid)
	require.NoError(t, err)
	return uid
}

// CreateSubscription inserts a test subscription and returns its id.
func (f *TestDataFactory) CreateSubscription(t *testing.T, userUID string, name string,
	startDate, renewalDate time.Time, status string) string {
	t.Helper()
	var id string
	err := f.storage.DB.QueryRow(`INSERT INTO subscriptions
		(user_uid, name, price, currency, frequency, category, payment_method, status, start_date, renewal_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10) RETURNING id`,
		userUID, name, 15.99, models.CurrencyEUR, models.FrequencyMonthly,
		"entertainment", "Credit Card", status, startDate, renewalDate).Scan(&id)
	require.NoError(t, err)
	return id
}
