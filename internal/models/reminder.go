package models

import "time"

// Reminder run statuses. A run is the durable traversal of the reminder
// offsets for one subscription.
const (
	RunStatusPending   = "pending"   // ready to execute
	RunStatusSleeping  = "sleeping"  // suspended until WakeAt
	RunStatusCompleted = "completed" // all offsets processed
	RunStatusAbandoned = "abandoned" // subscription missing, inactive or already renewed
)

// ReminderRun is the persisted checkpoint of one workflow run. It is written
// transactionally at every suspension and advance, which is what makes the
// run resumable across process restarts.
type ReminderRun struct {
	SubscriptionID  string     // One run per subscription
	NextOffsetIndex int        // Index into the offset set of the next pending step
	WakeAt          *time.Time // Resume time while sleeping, nil otherwise
	Status          string     // pending, sleeping, completed or abandoned
	UpdatedAt       time.Time
}

// TriggerMessage is the payload enqueued when a subscription is created.
// Only the id travels: the engine re-fetches current state on execution
// instead of trusting a snapshot taken at trigger time.
type TriggerMessage struct {
	SubscriptionID string `json:"subscription_id"`
}

// ReminderCommand instructs the sender to deliver one reminder email.
// It carries a flattened view of the subscription and its owner so the
// sender can render templates without further lookups.
type ReminderCommand struct {
	SubscriptionID string    `json:"subscription_id"`
	OffsetDays     int       `json:"offset_days"`
	Label          string    `json:"label"`
	To             string    `json:"to"`
	OwnerName      string    `json:"owner_name"`
	Name           string    `json:"name"`
	Price          float64   `json:"price"`
	Currency       string    `json:"currency"`
	Frequency      string    `json:"frequency"`
	PaymentMethod  string    `json:"payment_method"`
	RenewalDate    time.Time `json:"renewal_date"`
}
