package sender

import (
	"errors"
	"fmt"

	"github.com/mkravtsov/subtrack/internal/models"
)

// ErrInvalidTemplate is returned when an offset label has no registered
// template. This is a configuration defect, not a transient condition: the
// command is dropped, never retried.
var ErrInvalidTemplate = errors.New("invalid email template")

// MailInfo is the flattened view of a subscription and its owner that the
// template functions render from.
type MailInfo struct {
	UserName         string
	SubscriptionName string
	RenewalDate      string // formatted, e.g. "January 2, 2006"
	Price            string // formatted, e.g. "9.99 EUR (monthly)"
	PaymentMethod    string
	DaysLeft         int
}

// NewMailInfo flattens a reminder command. Subject and body generation are
// pure functions of this value, so rendering is deterministic and testable
// without a transport.
func NewMailInfo(cmd models.ReminderCommand) MailInfo {
	return MailInfo{
		UserName:         cmd.OwnerName,
		SubscriptionName: cmd.Name,
		RenewalDate:      cmd.RenewalDate.Format("January 2, 2006"),
		Price:            fmt.Sprintf("%.2f %s (%s)", cmd.Price, cmd.Currency, cmd.Frequency),
		PaymentMethod:    cmd.PaymentMethod,
		DaysLeft:         cmd.OffsetDays,
	}
}

// Template renders one reminder category. Templates are keyed by the exact
// offset label; lookup never falls back to fuzzy or partial matches.
type Template struct {
	Label           string
	GenerateSubject func(info MailInfo) string
	GenerateBody    func(info MailInfo) string
}

func reminderTemplate(days int) Template {
	return Template{
		Label: fmt.Sprintf("%d days before reminder", days),
		GenerateSubject: func(info MailInfo) string {
			if days == 1 {
				return fmt.Sprintf("Final reminder: %s renews tomorrow", info.SubscriptionName)
			}
			return fmt.Sprintf("Reminder: %s renews in %d days", info.SubscriptionName, days)
		},
		GenerateBody: func(info MailInfo) string {
			return fmt.Sprintf(`Hello %s,

Your %s subscription renews on %s (%d days from now).

Plan: %s
Price: %s
Payment method: %s

If you would like to make changes or cancel, please do so before the renewal date.`,
				info.UserName, info.SubscriptionName, info.RenewalDate, days,
				info.SubscriptionName, info.Price, info.PaymentMethod)
		},
	}
}

// templates is the fixed registered set, one per reminder offset.
var templates = []Template{
	reminderTemplate(7),
	reminderTemplate(5),
	reminderTemplate(2),
	reminderTemplate(1),
}

// ResolveTemplate finds the template registered for an offset label by
// exact match.
func ResolveTemplate(label string) (*Template, error) {
	for i := range templates {
		if templates[i].Label == label {
			return &templates[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrInvalidTemplate, label)
}
