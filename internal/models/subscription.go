package models

import "time"

// Subscription statuses. Status is derived on every write: cancelled is
// terminal, anything else with a past renewal date becomes expired.
const (
	StatusActive    = "active"
	StatusInactive  = "inactive"
	StatusCancelled = "cancelled"
	StatusExpired   = "expired"
)

// Billing frequencies.
const (
	FrequencyMonthly = "monthly"
	FrequencyYearly  = "yearly"
)

// Supported currencies.
const (
	CurrencyUSD = "USD"
	CurrencyEUR = "EUR"
	CurrencyGBP = "GBP"
)

// DefaultCurrency is applied when a request omits the currency.
const DefaultCurrency = CurrencyEUR

// Categories lists the registered subscription categories. The set is
// extensible: adding a value here is all a new category needs.
var Categories = []string{
	"entertainment",
	"sports",
	"news",
	"lifestyle",
	"technology",
	"finance",
	"education",
	"other",
}

// Subscription is the core domain model persisted in storage.
// RenewalDate is always strictly after StartDate; it is derived from
// StartDate and Frequency at creation when the client does not supply it,
// and never recomputed afterwards.
type Subscription struct {
	ID            string    // Unique identifier
	UserUID       string    // Owner reference
	Name          string    // Service name, e.g. "Netflix"
	Price         float64   // Non-negative price per billing cycle
	Currency      string    // USD, EUR or GBP
	Frequency     string    // monthly or yearly
	Category      string    // One of Categories
	PaymentMethod string    // Free text, e.g. "Credit Card"
	Status        string    // active, inactive, cancelled or expired
	StartDate     time.Time // Must not be in the future at creation
	RenewalDate   time.Time // Strictly after StartDate
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// SubscriptionRequest receives subscription data from a JSON request before
// conversion to Subscription. Dates arrive as strings in format 2006-01-02
// so they can be validated and parsed explicitly.
type SubscriptionRequest struct {
	Name          string  `json:"name" validate:"required,min=2,max=100"`
	Price         float64 `json:"price" validate:"gte=0"`
	Currency      string  `json:"currency" validate:"omitempty,oneof=USD EUR GBP"`
	Frequency     string  `json:"frequency" validate:"required,oneof=monthly yearly"`
	Category      string  `json:"category" validate:"required"`
	PaymentMethod string  `json:"payment_method" validate:"required"`
	Status        string  `json:"status" validate:"omitempty,oneof=active inactive cancelled"`
	StartDate     string  `json:"start_date" validate:"required,datetime=2006-01-02"`
	RenewalDate   string  `json:"renewal_date" validate:"omitempty,datetime=2006-01-02"`
}

// ReminderInfo is a subscription joined with its owner's contact info,
// fetched fresh by the reminder engine on every run entry and resume.
type ReminderInfo struct {
	SubscriptionID string
	OwnerName      string
	OwnerEmail     string
	Name           string
	Price          float64
	Currency       string
	Frequency      string
	PaymentMethod  string
	Status         string
	StartDate      time.Time
	RenewalDate    time.Time
}
