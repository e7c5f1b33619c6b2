// Package renewal contains the pure date arithmetic and status derivation
// rules for subscriptions: computing the renewal date from the start date
// and billing frequency, and the status transition table applied on every
// write of a subscription record.
package renewal

import (
	"fmt"
	"time"

	"github.com/mkravtsov/subtrack/internal/models"
)

// ComputeRenewalDate derives the renewal date from the start date and
// billing frequency: one calendar month for monthly, one calendar year for
// yearly. Day clamping follows time.AddDate normalization (Jan 31 monthly
// rolls into early March). Called only when the renewal date is absent at
// creation; a stored renewal date is never recomputed.
func ComputeRenewalDate(startDate time.Time, frequency string) (time.Time, error) {
	switch frequency {
	case models.FrequencyMonthly:
		return startDate.AddDate(0, 1, 0), nil
	case models.FrequencyYearly:
		return startDate.AddDate(1, 0, 0), nil
	default:
		return time.Time{}, fmt.Errorf("unknown frequency %q", frequency)
	}
}

// Transition resolves the status to store given the currently stored status,
// the requested status and the renewal date. The table:
//
//	cancelled, *            -> cancelled   (terminal, never auto-overridden)
//	*, cancelled            -> cancelled
//	renewalDate < now       -> expired
//	requested == ""         -> active
//	otherwise               -> requested
func Transition(current, requested string, renewalDate, now time.Time) string {
	if current == models.StatusCancelled || requested == models.StatusCancelled {
		return models.StatusCancelled
	}
	if renewalDate.Before(now) {
		return models.StatusExpired
	}
	if requested == "" {
		return models.StatusActive
	}
	return requested
}

// Validate checks the creation invariants: the start date must not be in the
// future and the renewal date must be strictly after the start date.
func Validate(startDate, renewalDate, now time.Time) error {
	if startDate.After(now) {
		return fmt.Errorf("start date must not be in the future")
	}
	if !renewalDate.After(startDate) {
		return fmt.Errorf("renewal date must be after start date")
	}
	return nil
}
