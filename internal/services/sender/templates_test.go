package sender

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkravtsov/subtrack/internal/models"
)

func testCommand() models.ReminderCommand {
	return models.ReminderCommand{
		SubscriptionID: "sub-1",
		OffsetDays:     7,
		Label:          "7 days before reminder",
		To:             "john@example.com",
		OwnerName:      "John Doe",
		Name:           "Netflix",
		Price:          9.99,
		Currency:       models.CurrencyEUR,
		Frequency:      models.FrequencyMonthly,
		PaymentMethod:  "Credit Card",
		RenewalDate:    time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestResolveTemplate(t *testing.T) {
	tests := []struct {
		name    string
		label   string
		wantErr bool
	}{
		{name: "seven days", label: "7 days before reminder"},
		{name: "five days", label: "5 days before reminder"},
		{name: "two days", label: "2 days before reminder"},
		{name: "one day", label: "1 days before reminder"},
		{name: "unknown offset", label: "3 days before reminder", wantErr: true},
		{name: "partial match rejected", label: "7 days before", wantErr: true},
		{name: "case-sensitive", label: "7 Days Before Reminder", wantErr: true},
		{name: "empty", label: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpl, err := ResolveTemplate(tt.label)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidTemplate)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.label, tmpl.Label)
		})
	}
}

func TestNewMailInfo_Formatting(t *testing.T) {
	info := NewMailInfo(testCommand())

	assert.Equal(t, "John Doe", info.UserName)
	assert.Equal(t, "Netflix", info.SubscriptionName)
	assert.Equal(t, "January 1, 2025", info.RenewalDate)
	assert.Equal(t, "9.99 EUR (monthly)", info.Price)
	assert.Equal(t, "Credit Card", info.PaymentMethod)
	assert.Equal(t, 7, info.DaysLeft)
}

func TestGenerateSubjectAndBody_Deterministic(t *testing.T) {
	tmpl, err := ResolveTemplate("7 days before reminder")
	require.NoError(t, err)

	info := NewMailInfo(testCommand())

	subject := tmpl.GenerateSubject(info)
	assert.Equal(t, "Reminder: Netflix renews in 7 days", subject)
	assert.Equal(t, subject, tmpl.GenerateSubject(info))

	body := tmpl.GenerateBody(info)
	assert.Contains(t, body, "Hello John Doe")
	assert.Contains(t, body, "renews on January 1, 2025")
	assert.Contains(t, body, "9.99 EUR (monthly)")
	assert.Contains(t, body, "Credit Card")
	assert.Equal(t, body, tmpl.GenerateBody(info))
}

func TestGenerateSubject_FinalReminder(t *testing.T) {
	tmpl, err := ResolveTemplate("1 days before reminder")
	require.NoError(t, err)

	cmd := testCommand()
	cmd.OffsetDays = 1
	subject := tmpl.GenerateSubject(NewMailInfo(cmd))
	assert.Equal(t, "Final reminder: Netflix renews tomorrow", subject)
}
